package delivery

import (
	"context"
	"errors"
	"fmt"
	"log"

	"quickchat/internal/media"
	"quickchat/internal/models"
	"quickchat/internal/observability"
	"quickchat/internal/presence"
)

// ErrEmptyMessage rejects a send with neither text nor an image.
var ErrEmptyMessage = errors.New("message needs text or an image")

// MessageStore is the slice of the message repository the engine needs.
type MessageStore interface {
	CreateMessage(ctx context.Context, senderID, receiverID int, text, image string) (models.Message, error)
}

// Presence resolves a user to a live connection.
type Presence interface {
	Lookup(userID int) (presence.Conn, bool)
}

// Result reports the outcome of a send. Persistence is the completion
// contract; LiveDelivered only records whether the best-effort push reached a
// connected receiver.
type Result struct {
	Message       models.Message
	LiveDelivered bool
}

// Engine persists messages and pushes them to connected receivers.
type Engine struct {
	messages MessageStore
	presence Presence
	uploader media.Uploader
}

// NewEngine constructs an Engine.
func NewEngine(messages MessageStore, pres Presence, uploader media.Uploader) *Engine {
	return &Engine{messages: messages, presence: pres, uploader: uploader}
}

// Send uploads the image if present, persists the message, then attempts an
// at-most-once live push. A push failure is logged, never surfaced to the
// sender; an offline receiver is not an error.
func (e *Engine) Send(ctx context.Context, senderID, receiverID int, text string, image []byte) (Result, error) {
	if text == "" && len(image) == 0 {
		return Result{}, ErrEmptyMessage
	}

	imageURL := ""
	if len(image) > 0 {
		url, err := e.uploader.Upload(ctx, image)
		if err != nil {
			return Result{}, fmt.Errorf("upload image: %w", err)
		}
		imageURL = url
	}

	msg, err := e.messages.CreateMessage(ctx, senderID, receiverID, text, imageURL)
	if err != nil {
		return Result{}, fmt.Errorf("store message: %w", err)
	}

	result := Result{Message: msg}
	conn, ok := e.presence.Lookup(receiverID)
	if !ok {
		return result, nil
	}

	event := models.ChatEvent{Type: models.EventNewMessage, Message: &msg}
	if err := conn.WriteJSON(event); err != nil {
		log.Printf("live push to user %d failed: %v", receiverID, err)
		observability.IncWSEvent("chat", "push_error")
		return result, nil
	}
	result.LiveDelivered = true
	observability.IncWSEvent("chat", "push")
	return result, nil
}
