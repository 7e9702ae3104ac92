package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"social-service/internal/models"
)

var ErrChatNotFound = errors.New("chat not found")

// ChatRepository abstracts chat persistence.
type ChatRepository interface {
	InitSelfChat(ctx context.Context, userID int) (models.Chat, error)
	CreateOrGetChat(ctx context.Context, userID, friendID int) (models.Chat, error)
	GetChat(ctx context.Context, chatID int) (models.Chat, error)
	GetPairChat(ctx context.Context, a, b int) (models.Chat, error)
	ListUserChats(ctx context.Context, userID int) ([]models.Chat, error)
	DeleteChat(ctx context.Context, chatID int) error
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	db *sqlx.DB
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

const chatColumns = `id, user1_id, user2_id, is_self_chat, is_read, created_at`

// InitSelfChat creates the user's single-participant chat, or returns the
// existing one. The partial unique index keeps this race-free.
func (r *ChatRepo) InitSelfChat(ctx context.Context, userID int) (models.Chat, error) {
	var chat models.Chat
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO chats (user1_id, user2_id, is_self_chat, is_read)
         VALUES ($1, NULL, TRUE, TRUE)
         ON CONFLICT (user1_id) WHERE is_self_chat DO UPDATE SET is_read = chats.is_read
         RETURNING `+chatColumns, userID).StructScan(&chat)
	if err != nil {
		return models.Chat{}, err
	}
	chat.FillParticipants()
	return chat, nil
}

// CreateOrGetChat creates a chat for the pair if none exists, otherwise
// returns the existing one. The unique constraint on the sorted pair makes
// concurrent creation converge on a single row.
func (r *ChatRepo) CreateOrGetChat(ctx context.Context, userID, friendID int) (models.Chat, error) {
	if userID == friendID {
		return models.Chat{}, errors.New("cannot create pair chat with self")
	}
	lo, hi := sortPair(userID, friendID)

	var chat models.Chat
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO chats (user1_id, user2_id, is_self_chat, is_read)
         VALUES ($1, $2, FALSE, FALSE)
         ON CONFLICT (user1_id, user2_id) DO UPDATE SET is_read = chats.is_read
         RETURNING `+chatColumns, lo, hi).StructScan(&chat)
	if err != nil {
		return models.Chat{}, err
	}
	chat.FillParticipants()
	return chat, nil
}

// GetChat fetches a chat by id, including its last message.
func (r *ChatRepo) GetChat(ctx context.Context, chatID int) (models.Chat, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, `SELECT `+chatColumns+` FROM chats WHERE id=$1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	if err != nil {
		return models.Chat{}, err
	}
	chat.FillParticipants()
	if err := r.fillLastMessages(ctx, []*models.Chat{&chat}); err != nil {
		return models.Chat{}, err
	}
	return chat, nil
}

// GetPairChat fetches the non-self chat shared by two users.
func (r *ChatRepo) GetPairChat(ctx context.Context, a, b int) (models.Chat, error) {
	lo, hi := sortPair(a, b)
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat,
		`SELECT `+chatColumns+` FROM chats WHERE user1_id=$1 AND user2_id=$2`, lo, hi)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	if err != nil {
		return models.Chat{}, err
	}
	chat.FillParticipants()
	return chat, nil
}

// ListUserChats returns the user's self chat (if present) followed by every
// pair chat containing the user, each carrying its last message.
func (r *ChatRepo) ListUserChats(ctx context.Context, userID int) ([]models.Chat, error) {
	var chats []models.Chat
	err := r.db.SelectContext(ctx, &chats,
		`SELECT `+chatColumns+` FROM chats
         WHERE user1_id=$1 OR user2_id=$1
         ORDER BY is_self_chat DESC, created_at ASC`, userID)
	if err != nil {
		return nil, err
	}

	refs := make([]*models.Chat, len(chats))
	for i := range chats {
		chats[i].FillParticipants()
		refs[i] = &chats[i]
	}
	if err := r.fillLastMessages(ctx, refs); err != nil {
		return nil, err
	}
	return chats, nil
}

// DeleteChat hard-deletes a chat; messages cascade.
func (r *ChatRepo) DeleteChat(ctx context.Context, chatID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM chats WHERE id=$1`, chatID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrChatNotFound
	}
	return nil
}

func (r *ChatRepo) fillLastMessages(ctx context.Context, chats []*models.Chat) error {
	if len(chats) == 0 {
		return nil
	}
	ids := make([]int, 0, len(chats))
	byID := make(map[int]*models.Chat, len(chats))
	for _, chat := range chats {
		ids = append(ids, chat.ID)
		byID[chat.ID] = chat
	}

	var last []models.Message
	err := r.db.SelectContext(ctx, &last,
		`SELECT DISTINCT ON (chat_id) id, chat_id, sender_id, content, created_at
         FROM messages WHERE chat_id = ANY($1)
         ORDER BY chat_id, id DESC`, pq.Array(ids))
	if err != nil {
		return err
	}
	for i := range last {
		msg := last[i]
		if chat, ok := byID[msg.ChatID]; ok {
			chat.LastMessage = &msg
		}
	}
	return nil
}
