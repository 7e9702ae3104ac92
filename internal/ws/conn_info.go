package ws

import (
	"time"

	"github.com/google/uuid"
)

// ConnInfo describes one live connection for lifecycle events. The fields
// are captured at handshake time and stay immutable afterwards.
type ConnInfo struct {
	ConnID      string
	UserID      int
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

func newConnID() string {
	return uuid.NewString()
}
