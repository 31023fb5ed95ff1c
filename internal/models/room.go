package models

import (
	"database/sql"
	"time"
)

// Room types.
const (
	RoomTypeDirect  = "direct"
	RoomTypeChannel = "channel"
)

// Room is a chat conversation container, either a two-party direct
// message or a multi-member channel.
type Room struct {
	ID            int            `db:"id" json:"id"`
	Name          string         `db:"name" json:"name"`
	Type          string         `db:"type" json:"type"`
	Description   sql.NullString `db:"description" json:"-"`
	AdminOnlyPost bool           `db:"admin_only_post" json:"admin_only_post"`
	DirectKey     sql.NullString `db:"direct_key" json:"-"`
	CreatedBy     int            `db:"created_by" json:"created_by"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}

// RoomSummary annotates a room with the per-viewer unread counter and the
// last message preview pushed on join.
type RoomSummary struct {
	ID            int            `db:"id" json:"id"`
	Name          string         `db:"name" json:"name"`
	Type          string         `db:"type" json:"type"`
	Description   sql.NullString `db:"description" json:"-"`
	AdminOnlyPost bool           `db:"admin_only_post" json:"admin_only_post"`
	UnreadCount   int            `db:"unread_count" json:"unread_count"`
	LastMessage   sql.NullString `db:"last_message" json:"-"`
	MemberIDs     []int          `json:"member_ids"`
}

// RoomMember links a user to a room. Membership is append-only; there is
// no leave flow.
type RoomMember struct {
	RoomID      int       `db:"room_id" json:"room_id"`
	UserID      int       `db:"user_id" json:"user_id"`
	UnreadCount int       `db:"unread_count" json:"unread_count"`
	JoinedAt    time.Time `db:"joined_at" json:"joined_at"`
}
