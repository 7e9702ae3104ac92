package models

// Event is pushed to live websocket connections on state transitions.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Event types emitted by the service.
const (
	EventUserRegistered             = "user-registered"
	EventFriendRequestReceived      = "friend-request-received"
	EventFriendRequestStatusChanged = "friend-request-status-changed"
)

// FriendRequestPayload is the payload of a friend-request-received event.
type FriendRequestPayload struct {
	From UserView `json:"from"`
	To   UserView `json:"to"`
}

// FriendRequestStatusPayload is the payload of a
// friend-request-status-changed event. Chat is set only when an acceptance
// initiated a chat.
type FriendRequestStatusPayload struct {
	To       UserView `json:"to"`
	From     UserView `json:"from"`
	Decision string   `json:"decision"`
	Chat     *Chat    `json:"chat,omitempty"`
}
