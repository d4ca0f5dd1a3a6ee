package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"
)

// ErrUpload marks any media store failure. The enclosing operation aborts
// without partial persistence.
var ErrUpload = errors.New("media upload failed")

// Uploader stores a raw media payload and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, payload []byte) (string, error)
}

// NewUploader builds an HTTP uploader, or a disabled one when no endpoint is
// configured.
func NewUploader(endpoint string) Uploader {
	if endpoint == "" {
		log.Printf("media store disabled: empty upload url")
		return disabledUploader{}
	}
	return &HTTPUploader{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// HTTPUploader posts payloads to the media store endpoint.
type HTTPUploader struct {
	endpoint string
	client   *http.Client
}

type uploadRequest struct {
	File string `json:"file"`
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
}

// Upload sends the payload base64-encoded and returns the secure URL.
func (u *HTTPUploader) Upload(ctx context.Context, payload []byte) (string, error) {
	body, err := json.Marshal(uploadRequest{File: base64.StdEncoding.EncodeToString(payload)})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d", ErrUpload, resp.StatusCode)
	}

	var parsed uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	if parsed.SecureURL == "" {
		return "", fmt.Errorf("%w: empty secure_url", ErrUpload)
	}
	return parsed.SecureURL, nil
}

type disabledUploader struct{}

func (disabledUploader) Upload(ctx context.Context, payload []byte) (string, error) {
	return "", fmt.Errorf("%w: media store disabled", ErrUpload)
}
