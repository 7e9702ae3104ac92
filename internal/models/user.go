package models

import "time"

// User is a stored user row. The password hash never leaves the service.
type User struct {
	ID           int       `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// FriendRequests holds the two pending-request directions for one user,
// keyed by counterpart email.
type FriendRequests struct {
	Sent     []string `json:"sent"`
	Received []string `json:"received"`
}

// UserView is the API shape of a user: the row plus its friend graph and
// chat memberships.
type UserView struct {
	User
	Friends        []string       `json:"friends"`
	FriendRequests FriendRequests `json:"friendRequests"`
	Chats          []int          `json:"chats"`
}

// PublicUser is the reduced projection used by listing endpoints.
type PublicUser struct {
	ID       int    `db:"id" json:"id"`
	Email    string `db:"email" json:"email"`
	Username string `db:"username" json:"username"`
}
