package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"quickchat/internal/delivery"
	"quickchat/internal/media"
	"quickchat/internal/repositories"
)

// MessageSender is the delivery engine surface the handler depends on.
type MessageSender interface {
	Send(ctx context.Context, senderID, receiverID int, text string, image []byte) (delivery.Result, error)
}

// MessageHandler manages the message endpoints.
type MessageHandler struct {
	users    repositories.UserRepository
	messages repositories.MessageRepository
	sender   MessageSender

	// RequireReceiver guards single-message mark-seen so only the receiver
	// can flip the flag. Off reproduces the permissive legacy behavior.
	RequireReceiver bool
}

// NewMessageHandler builds a MessageHandler with the receiver guard enabled.
func NewMessageHandler(users repositories.UserRepository, messages repositories.MessageRepository, sender MessageSender) *MessageHandler {
	return &MessageHandler{users: users, messages: messages, sender: sender, RequireReceiver: true}
}

// ListUsers returns every other user plus the viewer's unseen-count map,
// keyed by counterpart id. Counterparts with nothing unseen are omitted.
func (h *MessageHandler) ListUsers(c *gin.Context) {
	userID := c.GetInt("userID")

	users, err := h.users.ListOtherUsers(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load users"})
		return
	}

	unseen, err := h.messages.CountUnseenBySender(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count unseen messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users, "unseen_messages": unseen})
}

// GetConversation returns the full conversation with the selected user and
// marks their messages to the viewer seen, clearing the unseen count.
func (h *MessageHandler) GetConversation(c *gin.Context) {
	otherID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	userID := c.GetInt("userID")
	msgs, err := h.messages.GetConversation(c.Request.Context(), userID, otherID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	if err := h.messages.MarkConversationSeen(c.Request.Context(), otherID, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark messages seen"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// SendMessage runs the delivery engine for the selected receiver. The
// response reports whether the live push reached a connected receiver.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	receiverID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req struct {
		Text  string `json:"text"`
		Image string `json:"image"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var image []byte
	if req.Image != "" {
		image, err = decodeImagePayload(req.Image)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image payload"})
			return
		}
	}

	userID := c.GetInt("userID")
	result, err := h.sender.Send(c.Request.Context(), userID, receiverID, req.Text, image)
	if err != nil {
		switch {
		case errors.Is(err, delivery.ErrEmptyMessage):
			c.JSON(http.StatusBadRequest, gin.H{"error": "message needs text or an image"})
		case errors.Is(err, media.ErrUpload):
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to upload image"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": result.Message, "live_delivered": result.LiveDelivered})
}

// MarkMessageSeen flips the seen flag on a single message.
func (h *MessageHandler) MarkMessageSeen(c *gin.Context) {
	messageID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	userID := c.GetInt("userID")
	if h.RequireReceiver {
		msg, err := h.messages.GetMessage(c.Request.Context(), messageID)
		if err != nil {
			if errors.Is(err, repositories.ErrMessageNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load message"})
			return
		}
		if msg.ReceiverID != userID {
			c.JSON(http.StatusForbidden, gin.H{"error": "only the receiver can mark a message seen"})
			return
		}
	}

	if err := h.messages.MarkMessageSeen(c.Request.Context(), messageID); err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark message seen"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// decodeImagePayload accepts either a raw base64 string or a data URL.
func decodeImagePayload(payload string) ([]byte, error) {
	if idx := strings.Index(payload, ";base64,"); idx >= 0 {
		payload = payload[idx+len(";base64,"):]
	}
	return base64.StdEncoding.DecodeString(payload)
}
