package models

import "time"

// Message represents a one-to-one chat message. Immutable after creation
// except for the seen flag.
type Message struct {
	ID         int       `db:"id" json:"id"`
	SenderID   int       `db:"sender_id" json:"sender_id"`
	ReceiverID int       `db:"receiver_id" json:"receiver_id"`
	Text       string    `db:"text" json:"text,omitempty"`
	Image      string    `db:"image" json:"image,omitempty"`
	Seen       bool      `db:"seen" json:"seen"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Websocket event names, kept wire-compatible with existing clients.
const (
	EventNewMessage  = "newMessage"
	EventOnlineUsers = "getOnlineusers"
)

// ChatEvent is broadcast through websockets.
type ChatEvent struct {
	Type        string   `json:"type"`
	Message     *Message `json:"message,omitempty"`
	OnlineUsers []string `json:"online_users,omitempty"`
}
