package ws

import (
	"encoding/json"

	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/models"
)

// Client-to-server events.
const (
	EventJoin             = "join"
	EventSendMessage      = "send-message"
	EventCreateDirectRoom = "create-direct-room"
	EventCreateRoom       = "create-room"
	EventMarkRoomRead     = "mark-room-read"
	EventTyping           = "typing"
	EventEditMessage      = "edit-message"
	EventDeleteMessage    = "delete-message"
	EventUpdateStatus     = "update-status"
)

// Server-to-client events.
const (
	EventRooms          = "rooms"
	EventOnlineUsers    = "online-users"
	EventNewMessage     = "new-message"
	EventMessageEdited  = "message-edited"
	EventMessageDeleted = "message-deleted"
	EventUserTyping     = "user-typing"
	EventUserStatus     = "user-status"
	EventNewRoom        = "new-room"
	EventRoomCreated    = "room-created"
	EventError          = "error"
)

// Envelope frames every message on the chat socket.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals data into an outbound envelope.
func NewEnvelope(event string, data any) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: event, Data: raw}, nil
}

// Inbound payloads.

type JoinPayload struct {
	UserID int `json:"userId"`
}

type SendMessagePayload struct {
	RoomID      int    `json:"roomId"`
	Message     string `json:"message"`
	MessageType string `json:"messageType"`
}

type CreateDirectRoomPayload struct {
	TargetUserID int `json:"targetUserId"`
}

type CreateRoomPayload struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	MemberIDs   []int  `json:"memberIds"`
}

type MarkRoomReadPayload struct {
	RoomID int `json:"roomId"`
}

type TypingPayload struct {
	RoomID   int  `json:"roomId"`
	IsTyping bool `json:"isTyping"`
}

type EditMessagePayload struct {
	MessageID  int    `json:"messageId"`
	NewMessage string `json:"newMessage"`
	RoomID     int    `json:"roomId"`
}

type DeleteMessagePayload struct {
	MessageID int `json:"messageId"`
	RoomID    int `json:"roomId"`
}

type UpdateStatusPayload struct {
	Status string `json:"status"`
}

// Outbound payloads.

// RoomPayload is the wire form of a room, annotated for the receiving
// user. Direct rooms carry the counterparty's name.
type RoomPayload struct {
	ID            int              `json:"id"`
	Name          string           `json:"name"`
	Type          string           `json:"type"`
	Description   string           `json:"description,omitempty"`
	AdminOnlyPost bool             `json:"admin_only_post"`
	UnreadCount   int              `json:"unread_count"`
	LastMessage   string           `json:"last_message,omitempty"`
	MemberIDs     []int            `json:"member_ids"`
	Messages      []models.Message `json:"messages,omitempty"`
}

type NewMessagePayload struct {
	RoomID  int            `json:"roomId"`
	Message models.Message `json:"message"`
}

type MessageEditedPayload struct {
	MessageID int    `json:"messageId"`
	RoomID    int    `json:"roomId"`
	Message   string `json:"message"`
}

type MessageDeletedPayload struct {
	MessageID int `json:"messageId"`
	RoomID    int `json:"roomId"`
}

type TypingUser struct {
	ID       int    `json:"id"`
	FullName string `json:"fullName"`
}

type UserTypingPayload struct {
	RoomID   int        `json:"roomId"`
	UserID   int        `json:"userId"`
	User     TypingUser `json:"user"`
	IsTyping bool       `json:"isTyping"`
}

type UserStatusPayload struct {
	UserID int    `json:"userId"`
	Status string `json:"status"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
