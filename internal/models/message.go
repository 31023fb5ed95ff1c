package models

import "time"

// DeletedMessageBody is the fixed tombstone shown for soft-deleted
// messages. Once set, a message body never changes again.
const DeletedMessageBody = "This message was deleted"

// Message is a single post within a room. Messages are soft-deleted
// only: the row survives with the tombstone body.
type Message struct {
	ID          int       `db:"id" json:"id"`
	RoomID      int       `db:"room_id" json:"room_id"`
	SenderID    int       `db:"sender_id" json:"sender_id"`
	Body        string    `db:"message" json:"message"`
	MessageType string    `db:"message_type" json:"message_type"`
	IsEdited    bool      `db:"is_edited" json:"is_edited"`
	IsDeleted   bool      `db:"is_deleted" json:"is_deleted"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
