package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"quickchat/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines interactions for one-to-one messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, senderID, receiverID int, text, image string) (models.Message, error)
	GetMessage(ctx context.Context, messageID int) (models.Message, error)
	GetConversation(ctx context.Context, userID, otherID int) ([]models.Message, error)
	MarkConversationSeen(ctx context.Context, senderID, receiverID int) error
	MarkMessageSeen(ctx context.Context, messageID int) error
	CountUnseenBySender(ctx context.Context, receiverID int) (map[int]int, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, sender_id, receiver_id, text, image, seen, created_at`

// CreateMessage stores a message with seen=false.
func (r *MessageRepo) CreateMessage(ctx context.Context, senderID, receiverID int, text, image string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (sender_id, receiver_id, text, image) VALUES ($1, $2, $3, $4) RETURNING `+messageColumns,
		senderID, receiverID, text, image).StructScan(&msg)
	return msg, err
}

// GetMessage retrieves a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// GetConversation returns all messages exchanged between two users in send order.
func (r *MessageRepo) GetConversation(ctx context.Context, userID, otherID int) ([]models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
        WHERE (sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1)
        ORDER BY created_at ASC, id ASC`
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, query, userID, otherID)
	return msgs, err
}

// MarkConversationSeen flips seen for every unseen message from sender to
// receiver. Idempotent: re-running matches no rows.
func (r *MessageRepo) MarkConversationSeen(ctx context.Context, senderID, receiverID int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE messages SET seen = TRUE WHERE sender_id=$1 AND receiver_id=$2 AND seen = FALSE`,
		senderID, receiverID)
	return err
}

// MarkMessageSeen flips seen for a single message.
func (r *MessageRepo) MarkMessageSeen(ctx context.Context, messageID int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET seen = TRUE WHERE id=$1`, messageID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// CountUnseenBySender groups unseen messages addressed to the receiver by
// sender. Senders with a zero count are absent from the map.
func (r *MessageRepo) CountUnseenBySender(ctx context.Context, receiverID int) (map[int]int, error) {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT sender_id, COUNT(*) FROM messages WHERE receiver_id=$1 AND seen = FALSE GROUP BY sender_id`,
		receiverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var senderID, count int
		if err := rows.Scan(&senderID, &count); err != nil {
			return nil, err
		}
		counts[senderID] = count
	}
	return counts, rows.Err()
}
