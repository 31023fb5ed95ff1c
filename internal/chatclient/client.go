// Package chatclient maintains a live connection to the chat gateway
// and a local mirror of chat state (rooms, messages, presence, typing)
// for UI consumption. It is the Go counterpart of the dashboard's chat
// context: imperative actions in, state snapshots out.
package chatclient

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/models"
	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/session"
	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/ws"
)

const (
	// typingQuietPeriod clears the typing indicator after this much
	// keyboard silence.
	typingQuietPeriod = 3 * time.Second
	reconnectDelay    = time.Second
	maxReconnects     = 5
)

// Client owns the socket connection and the client-local chat state.
// All methods are safe for concurrent use; actions are no-ops while
// disconnected.
type Client struct {
	url    string
	token  string
	userID int

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	closed    bool

	rooms    map[int]*ws.RoomPayload
	messages map[int][]models.Message
	online   map[int]models.OnlineUser
	typing   map[int]map[int]ws.TypingUser
	timers   map[int]*time.Timer
}

// New builds a client for the gateway at url (ws:// or wss://),
// authenticating with the caller's session token.
func New(url, token string, userID int) *Client {
	return &Client{
		url:      url,
		token:    token,
		userID:   userID,
		rooms:    make(map[int]*ws.RoomPayload),
		messages: make(map[int][]models.Message),
		online:   make(map[int]models.OnlineUser),
		typing:   make(map[int]map[int]ws.TypingUser),
		timers:   make(map[int]*time.Timer),
	}
}

// Connect dials the gateway, announces join, and starts the read loop.
func (c *Client) Connect() error {
	conn, err := c.dial()
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.closed = false
	c.mu.Unlock()

	if err := c.emit(ws.EventJoin, ws.JoinPayload{UserID: c.userID}); err != nil {
		return err
	}

	go c.readLoop(conn)
	return nil
}

func (c *Client) dial() (*websocket.Conn, error) {
	header := http.Header{}
	header.Set("Cookie", session.CookieName+"="+c.token)
	conn, _, err := websocket.DefaultDialer.Dial(c.url, header)
	return conn, err
}

// Close tears the connection down for good; no reconnect follows.
func (c *Client) Close() {
	c.mu.Lock()
	c.closed = true
	c.connected = false
	conn := c.conn
	for roomID, timer := range c.timers {
		timer.Stop()
		delete(c.timers, roomID)
	}
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

// Connected reports whether the socket is live.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		var envelope ws.Envelope
		if err := conn.ReadJSON(&envelope); err != nil {
			c.mu.Lock()
			c.connected = false
			closed := c.closed
			c.mu.Unlock()
			if closed {
				return
			}
			log.Printf("chat connection lost: %v", err)
			c.reconnect()
			return
		}
		c.applyEvent(envelope)
	}
}

// reconnect retries with a fixed delay and a capped attempt count, then
// gives up; the UI shows a disconnected indicator either way.
func (c *Client) reconnect() {
	for attempt := 1; attempt <= maxReconnects; attempt++ {
		time.Sleep(reconnectDelay)

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		if err := c.Connect(); err != nil {
			log.Printf("chat reconnect %d/%d failed: %v", attempt, maxReconnects, err)
			continue
		}
		return
	}
	log.Printf("chat reconnect abandoned after %d attempts", maxReconnects)
}

// emit sends one event; it fails silently when disconnected, matching
// the send-while-offline contract.
func (c *Client) emit(event string, data any) error {
	c.mu.Lock()
	conn := c.conn
	connected := c.connected
	c.mu.Unlock()

	if !connected || conn == nil {
		return nil
	}

	envelope, err := ws.NewEnvelope(event, data)
	if err != nil {
		return err
	}
	return conn.WriteJSON(envelope)
}

// applyEvent folds one server event into local state.
func (c *Client) applyEvent(envelope ws.Envelope) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch envelope.Event {
	case ws.EventRooms:
		var rooms []ws.RoomPayload
		if json.Unmarshal(envelope.Data, &rooms) != nil {
			return
		}
		c.rooms = make(map[int]*ws.RoomPayload, len(rooms))
		c.messages = make(map[int][]models.Message, len(rooms))
		for i := range rooms {
			room := rooms[i]
			c.messages[room.ID] = room.Messages
			room.Messages = nil
			c.rooms[room.ID] = &room
		}

	case ws.EventOnlineUsers:
		var users []models.OnlineUser
		if json.Unmarshal(envelope.Data, &users) != nil {
			return
		}
		c.online = make(map[int]models.OnlineUser, len(users))
		for _, user := range users {
			c.online[user.ID] = user
		}

	case ws.EventNewMessage:
		var payload ws.NewMessagePayload
		if json.Unmarshal(envelope.Data, &payload) != nil {
			return
		}
		c.messages[payload.RoomID] = append(c.messages[payload.RoomID], payload.Message)
		if room, ok := c.rooms[payload.RoomID]; ok {
			room.LastMessage = payload.Message.Body
			if payload.Message.SenderID != c.userID {
				room.UnreadCount++
			}
		}

	case ws.EventMessageEdited:
		var payload ws.MessageEditedPayload
		if json.Unmarshal(envelope.Data, &payload) != nil {
			return
		}
		msgs := c.messages[payload.RoomID]
		for i := range msgs {
			if msgs[i].ID == payload.MessageID {
				msgs[i].Body = payload.Message
				msgs[i].IsEdited = true
			}
		}

	case ws.EventMessageDeleted:
		var payload ws.MessageDeletedPayload
		if json.Unmarshal(envelope.Data, &payload) != nil {
			return
		}
		msgs := c.messages[payload.RoomID]
		for i := range msgs {
			if msgs[i].ID == payload.MessageID {
				msgs[i].Body = models.DeletedMessageBody
				msgs[i].IsDeleted = true
			}
		}

	case ws.EventUserTyping:
		var payload ws.UserTypingPayload
		if json.Unmarshal(envelope.Data, &payload) != nil {
			return
		}
		roomTyping, ok := c.typing[payload.RoomID]
		if !ok {
			roomTyping = make(map[int]ws.TypingUser)
			c.typing[payload.RoomID] = roomTyping
		}
		if payload.IsTyping {
			roomTyping[payload.UserID] = payload.User
		} else {
			delete(roomTyping, payload.UserID)
		}

	case ws.EventUserStatus:
		var payload ws.UserStatusPayload
		if json.Unmarshal(envelope.Data, &payload) != nil {
			return
		}
		if payload.Status == models.StatusOffline {
			delete(c.online, payload.UserID)
			return
		}
		user, ok := c.online[payload.UserID]
		if !ok {
			user = models.OnlineUser{ID: payload.UserID}
		}
		user.Status = payload.Status
		c.online[payload.UserID] = user

	case ws.EventNewRoom, ws.EventRoomCreated:
		var room ws.RoomPayload
		if json.Unmarshal(envelope.Data, &room) != nil {
			return
		}
		if _, ok := c.rooms[room.ID]; !ok {
			c.rooms[room.ID] = &room
		}

	case ws.EventError:
		var payload ws.ErrorPayload
		if json.Unmarshal(envelope.Data, &payload) == nil {
			log.Printf("chat error: %s", payload.Message)
		}
	}
}

// SendMessage posts to a room and clears the caller's typing state.
func (c *Client) SendMessage(roomID int, body, messageType string) {
	c.stopTypingTimer(roomID)
	_ = c.emit(ws.EventSendMessage, ws.SendMessagePayload{RoomID: roomID, Message: body, MessageType: messageType})
	_ = c.emit(ws.EventTyping, ws.TypingPayload{RoomID: roomID, IsTyping: false})
}

// CreateDirectRoom finds or creates the direct room with target.
func (c *Client) CreateDirectRoom(targetUserID int) {
	_ = c.emit(ws.EventCreateDirectRoom, ws.CreateDirectRoomPayload{TargetUserID: targetUserID})
}

// CreateRoom creates a channel room with the named members.
func (c *Client) CreateRoom(name, roomType, description string, memberIDs []int) {
	_ = c.emit(ws.EventCreateRoom, ws.CreateRoomPayload{Name: name, Type: roomType, Description: description, MemberIDs: memberIDs})
}

// MarkRoomRead zeroes the room's unread counter locally and on the
// server.
func (c *Client) MarkRoomRead(roomID int) {
	c.mu.Lock()
	if room, ok := c.rooms[roomID]; ok {
		room.UnreadCount = 0
	}
	c.mu.Unlock()
	_ = c.emit(ws.EventMarkRoomRead, ws.MarkRoomReadPayload{RoomID: roomID})
}

// StartTyping announces typing and arms the quiet-period timer; each
// further call resets it.
func (c *Client) StartTyping(roomID int) {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return
	}
	if timer, ok := c.timers[roomID]; ok {
		timer.Reset(typingQuietPeriod)
		c.mu.Unlock()
		return
	}
	c.timers[roomID] = time.AfterFunc(typingQuietPeriod, func() {
		c.StopTyping(roomID)
	})
	c.mu.Unlock()

	_ = c.emit(ws.EventTyping, ws.TypingPayload{RoomID: roomID, IsTyping: true})
}

// StopTyping clears the typing indicator immediately.
func (c *Client) StopTyping(roomID int) {
	c.stopTypingTimer(roomID)
	_ = c.emit(ws.EventTyping, ws.TypingPayload{RoomID: roomID, IsTyping: false})
}

func (c *Client) stopTypingTimer(roomID int) {
	c.mu.Lock()
	if timer, ok := c.timers[roomID]; ok {
		timer.Stop()
		delete(c.timers, roomID)
	}
	c.mu.Unlock()
}

// EditMessage replaces a message body.
func (c *Client) EditMessage(messageID int, newMessage string, roomID int) {
	_ = c.emit(ws.EventEditMessage, ws.EditMessagePayload{MessageID: messageID, NewMessage: newMessage, RoomID: roomID})
}

// DeleteMessage soft-deletes a message.
func (c *Client) DeleteMessage(messageID, roomID int) {
	_ = c.emit(ws.EventDeleteMessage, ws.DeleteMessagePayload{MessageID: messageID, RoomID: roomID})
}

// UpdateStatus sets the caller's presence.
func (c *Client) UpdateStatus(status string) {
	_ = c.emit(ws.EventUpdateStatus, ws.UpdateStatusPayload{Status: status})
}

// Rooms snapshots the known rooms.
func (c *Client) Rooms() []ws.RoomPayload {
	c.mu.Lock()
	defer c.mu.Unlock()
	rooms := make([]ws.RoomPayload, 0, len(c.rooms))
	for _, room := range c.rooms {
		rooms = append(rooms, *room)
	}
	return rooms
}

// Messages snapshots a room's message list.
func (c *Client) Messages(roomID int) []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := c.messages[roomID]
	out := make([]models.Message, len(msgs))
	copy(out, msgs)
	return out
}

// OnlineUsers snapshots the roster.
func (c *Client) OnlineUsers() []models.OnlineUser {
	c.mu.Lock()
	defer c.mu.Unlock()
	users := make([]models.OnlineUser, 0, len(c.online))
	for _, user := range c.online {
		users = append(users, user)
	}
	return users
}

// TypingUsers lists who is typing in a room right now.
func (c *Client) TypingUsers(roomID int) []ws.TypingUser {
	c.mu.Lock()
	defer c.mu.Unlock()
	users := make([]ws.TypingUser, 0, len(c.typing[roomID]))
	for _, user := range c.typing[roomID] {
		users = append(users, user)
	}
	return users
}

// UnreadCount is the aggregate across all rooms, never negative.
func (c *Client) UnreadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, room := range c.rooms {
		if room.UnreadCount > 0 {
			total += room.UnreadCount
		}
	}
	return total
}
