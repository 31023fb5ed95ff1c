package models

// Presence statuses. Held only in server memory; every user is offline
// again the moment their last connection drops.
const (
	StatusOnline  = "online"
	StatusAway    = "away"
	StatusBusy    = "busy"
	StatusOffline = "offline"
)

// OnlineUser is one entry of the roster pushed to chat clients.
type OnlineUser struct {
	ID       int    `json:"id"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
	Status   string `json:"status"`
}

// ValidStatus reports whether a client-supplied presence status is one
// of the recognized values.
func ValidStatus(status string) bool {
	switch status {
	case StatusOnline, StatusAway, StatusBusy, StatusOffline:
		return true
	}
	return false
}
