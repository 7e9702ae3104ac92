package models

import "time"

// Chat is a conversation between exactly two users, or a single user's
// self chat. For a pair chat user1_id < user2_id; for a self chat
// user2_id is NULL.
type Chat struct {
	ID         int       `db:"id" json:"id"`
	User1ID    int       `db:"user1_id" json:"-"`
	User2ID    *int      `db:"user2_id" json:"-"`
	IsSelfChat bool      `db:"is_self_chat" json:"isSelfChat"`
	Read       bool      `db:"is_read" json:"read"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`

	Participants []int     `json:"participants"`
	Messages     []Message `json:"messages,omitempty"`
	LastMessage  *Message  `json:"lastMessage"`
}

// FillParticipants derives the participants list from the stored columns.
func (c *Chat) FillParticipants() {
	c.Participants = []int{c.User1ID}
	if c.User2ID != nil {
		c.Participants = append(c.Participants, *c.User2ID)
	}
}

// HasParticipant reports whether the user belongs to the chat.
func (c *Chat) HasParticipant(userID int) bool {
	return c.User1ID == userID || (c.User2ID != nil && *c.User2ID == userID)
}
