package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"social-service/internal/models"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already in use")
)

// UserRepository stores user records and the friend graph.
type UserRepository interface {
	Create(ctx context.Context, email, username, passwordHash string) (models.User, error)
	GetByID(ctx context.Context, id int) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
	List(ctx context.Context) ([]models.PublicUser, error)
	ListByEmails(ctx context.Context, emails []string) ([]models.PublicUser, error)
	Delete(ctx context.Context, id int) error

	GetView(ctx context.Context, id int) (models.UserView, error)

	AreFriends(ctx context.Context, a, b int) (bool, error)
	AddFriendship(ctx context.Context, a, b int) error
	RemoveFriendship(ctx context.Context, a, b int) error

	AddFriendRequest(ctx context.Context, requesterID, targetID int) error
	RemoveFriendRequest(ctx context.Context, requesterID, targetID int) error
	HasFriendRequest(ctx context.Context, requesterID, targetID int) (bool, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, email, username, password_hash, created_at`

// Create inserts a user row. A duplicate email surfaces as ErrDuplicateEmail.
func (r *UserRepo) Create(ctx context.Context, email, username, passwordHash string) (models.User, error) {
	var user models.User
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO users (email, username, password_hash) VALUES ($1, $2, $3)
         RETURNING `+userColumns,
		email, username, passwordHash).StructScan(&user)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return user, nil
}

// GetByID fetches a user by primary key.
func (r *UserRepo) GetByID(ctx context.Context, id int) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetByEmail fetches a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetByUsername fetches a user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE username=$1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// List returns every user in public projection.
func (r *UserRepo) List(ctx context.Context) ([]models.PublicUser, error) {
	var users []models.PublicUser
	err := r.db.SelectContext(ctx, &users, `SELECT id, email, username FROM users ORDER BY id`)
	return users, err
}

// ListByEmails returns the public projection of the given users.
func (r *UserRepo) ListByEmails(ctx context.Context, emails []string) ([]models.PublicUser, error) {
	if len(emails) == 0 {
		return []models.PublicUser{}, nil
	}
	var users []models.PublicUser
	err := r.db.SelectContext(ctx, &users,
		`SELECT id, email, username FROM users WHERE email = ANY($1) ORDER BY id`, pq.Array(emails))
	return users, err
}

// Delete removes a user; friendships, pending requests, chats and messages
// cascade through foreign keys.
func (r *UserRepo) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return nil
}

// GetView assembles the wire form of a user: the row plus friend emails,
// pending request emails in both directions, and chat ids.
func (r *UserRepo) GetView(ctx context.Context, id int) (models.UserView, error) {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return models.UserView{}, err
	}

	view := models.UserView{
		User:    user,
		Friends: []string{},
		FriendRequests: models.FriendRequests{
			Sent:     []string{},
			Received: []string{},
		},
		Chats: []int{},
	}

	err = r.db.SelectContext(ctx, &view.Friends,
		`SELECT u.email FROM friendships f
         JOIN users u ON u.id = CASE WHEN f.user1_id=$1 THEN f.user2_id ELSE f.user1_id END
         WHERE f.user1_id=$1 OR f.user2_id=$1
         ORDER BY u.email`, id)
	if err != nil {
		return models.UserView{}, err
	}

	err = r.db.SelectContext(ctx, &view.FriendRequests.Sent,
		`SELECT u.email FROM friend_requests r
         JOIN users u ON u.id = r.target_id
         WHERE r.requester_id=$1 ORDER BY u.email`, id)
	if err != nil {
		return models.UserView{}, err
	}

	err = r.db.SelectContext(ctx, &view.FriendRequests.Received,
		`SELECT u.email FROM friend_requests r
         JOIN users u ON u.id = r.requester_id
         WHERE r.target_id=$1 ORDER BY u.email`, id)
	if err != nil {
		return models.UserView{}, err
	}

	err = r.db.SelectContext(ctx, &view.Chats,
		`SELECT id FROM chats WHERE user1_id=$1 OR user2_id=$1 ORDER BY id`, id)
	if err != nil {
		return models.UserView{}, err
	}

	return view, nil
}

// AreFriends reports whether a friendship row exists for the pair.
func (r *UserRepo) AreFriends(ctx context.Context, a, b int) (bool, error) {
	lo, hi := sortPair(a, b)
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM friendships WHERE user1_id=$1 AND user2_id=$2)`, lo, hi)
	return exists, err
}

// AddFriendship records the symmetric friendship; inserting twice is a no-op.
func (r *UserRepo) AddFriendship(ctx context.Context, a, b int) error {
	lo, hi := sortPair(a, b)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO friendships (user1_id, user2_id) VALUES ($1, $2)
         ON CONFLICT (user1_id, user2_id) DO NOTHING`, lo, hi)
	return err
}

// RemoveFriendship deletes the friendship row for the pair.
func (r *UserRepo) RemoveFriendship(ctx context.Context, a, b int) error {
	lo, hi := sortPair(a, b)
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM friendships WHERE user1_id=$1 AND user2_id=$2`, lo, hi)
	return err
}

// AddFriendRequest records a pending request; sending twice is a no-op.
func (r *UserRepo) AddFriendRequest(ctx context.Context, requesterID, targetID int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO friend_requests (requester_id, target_id) VALUES ($1, $2)
         ON CONFLICT (requester_id, target_id) DO NOTHING`, requesterID, targetID)
	return err
}

// RemoveFriendRequest clears the pending request in the given direction.
func (r *UserRepo) RemoveFriendRequest(ctx context.Context, requesterID, targetID int) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM friend_requests WHERE requester_id=$1 AND target_id=$2`, requesterID, targetID)
	return err
}

// HasFriendRequest reports whether a pending request exists in the given direction.
func (r *UserRepo) HasFriendRequest(ctx context.Context, requesterID, targetID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM friend_requests WHERE requester_id=$1 AND target_id=$2)`,
		requesterID, targetID)
	return exists, err
}

func sortPair(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}
