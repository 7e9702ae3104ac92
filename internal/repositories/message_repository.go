package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"social-service/internal/models"
)

// MessageRepository appends to and reads the per-chat message log.
type MessageRepository interface {
	Append(ctx context.Context, chatID, senderID int, content string, isSelfChat bool) (models.Message, error)
	ListChatMessages(ctx context.Context, chatID int) ([]models.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Append stores a message and updates the chat's read flag: a self chat is
// always read, a pair chat becomes unread on a new message.
func (r *MessageRepo) Append(ctx context.Context, chatID, senderID int, content string, isSelfChat bool) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (chat_id, sender_id, content) VALUES ($1, $2, $3)
         RETURNING id, chat_id, sender_id, content, created_at`,
		chatID, senderID, content).StructScan(&msg)
	if err != nil {
		return models.Message{}, err
	}

	if _, err := r.db.ExecContext(ctx,
		`UPDATE chats SET is_read=$2 WHERE id=$1`, chatID, isSelfChat); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// ListChatMessages returns the chat's messages in append order.
func (r *MessageRepo) ListChatMessages(ctx context.Context, chatID int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT id, chat_id, sender_id, content, created_at
         FROM messages WHERE chat_id=$1 ORDER BY id ASC`, chatID)
	return msgs, err
}
