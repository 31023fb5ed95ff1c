package ws

import (
	"time"

	"github.com/google/uuid"
)

// ConnInfo carries per-connection identity for logs and audit events.
type ConnInfo struct {
	ConnID      string
	UserID      int
	Role        string
	FullName    string
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

func newConnID() string {
	return uuid.NewString()
}
