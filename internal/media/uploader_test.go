package media

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPUploaderSuccess(t *testing.T) {
	payload := []byte("raw-image-bytes")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			File string `json:"file"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		decoded, err := base64.StdEncoding.DecodeString(req.File)
		require.NoError(t, err)
		assert.Equal(t, payload, decoded)

		json.NewEncoder(w).Encode(map[string]string{"secure_url": "https://media.example/x.png"})
	}))
	defer server.Close()

	uploader := NewUploader(server.URL)
	url, err := uploader.Upload(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, "https://media.example/x.png", url)
}

func TestHTTPUploaderServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	uploader := NewUploader(server.URL)
	_, err := uploader.Upload(context.Background(), []byte("img"))
	assert.ErrorIs(t, err, ErrUpload)
}

func TestHTTPUploaderEmptyURLInResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer server.Close()

	uploader := NewUploader(server.URL)
	_, err := uploader.Upload(context.Background(), []byte("img"))
	assert.ErrorIs(t, err, ErrUpload)
}

func TestDisabledUploader(t *testing.T) {
	uploader := NewUploader("")
	_, err := uploader.Upload(context.Background(), []byte("img"))
	assert.ErrorIs(t, err, ErrUpload)
}
