package ws

import (
	"encoding/json"
	"log"
	"sort"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/models"
)

// Client wraps one websocket connection. Writes are serialized through
// the mutex; gorilla allows at most one concurrent writer.
type Client struct {
	conn *websocket.Conn
	mu   sync.Mutex
	info ConnInfo
}

func newClient(conn *websocket.Conn, info ConnInfo) *Client {
	return &Client{conn: conn, info: info}
}

func (c *Client) write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Send marshals and delivers a single event to this client.
func (c *Client) Send(event string, data any) error {
	envelope, err := NewEnvelope(event, data)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	return c.write(payload)
}

// Hub tracks every connected chat user and their presence. A user may
// hold several connections (tabs); presence drops to offline only when
// the last one goes.
type Hub struct {
	mu       sync.RWMutex
	clients  map[int]map[*Client]bool
	presence map[int]models.OnlineUser
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients:  make(map[int]map[*Client]bool),
		presence: make(map[int]models.OnlineUser),
	}
}

// Register adds a connection for the user and marks them online.
func (h *Hub) Register(user models.OnlineUser, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[user.ID]; !ok {
		h.clients[user.ID] = make(map[*Client]bool)
	}
	h.clients[user.ID][client] = true
	if _, ok := h.presence[user.ID]; !ok {
		user.Status = models.StatusOnline
		h.presence[user.ID] = user
	}
}

// Unregister drops a connection. It reports whether the user went
// offline with it.
func (h *Hub) Unregister(userID int, client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.clients[userID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.clients, userID)
			delete(h.presence, userID)
			return true
		}
	}
	return false
}

// SetStatus updates a connected user's presence. Unknown users are
// ignored; presence exists only while connected.
func (h *Hub) SetStatus(userID int, status string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	user, ok := h.presence[userID]
	if !ok {
		return false
	}
	user.Status = status
	h.presence[userID] = user
	return true
}

// OnlineUsers snapshots the roster, ordered by user id.
func (h *Hub) OnlineUsers() []models.OnlineUser {
	h.mu.RLock()
	defer h.mu.RUnlock()
	users := make([]models.OnlineUser, 0, len(h.presence))
	for _, user := range h.presence {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

// SendToUser delivers an event to every connection of one user.
func (h *Hub) SendToUser(userID int, event string, data any) {
	h.mu.RLock()
	conns := make([]*Client, 0, len(h.clients[userID]))
	for client := range h.clients[userID] {
		conns = append(conns, client)
	}
	h.mu.RUnlock()

	for _, client := range conns {
		h.deliver(userID, client, event, data)
	}
}

// SendToUsers fans an event out to a member set, skipping exceptUserID
// (pass 0 to skip nobody).
func (h *Hub) SendToUsers(userIDs []int, event string, data any, exceptUserID int) {
	for _, userID := range userIDs {
		if userID == exceptUserID {
			continue
		}
		h.SendToUser(userID, event, data)
	}
}

// BroadcastAll delivers an event to every connected user except
// exceptUserID (pass 0 to skip nobody).
func (h *Hub) BroadcastAll(event string, data any, exceptUserID int) {
	h.mu.RLock()
	userIDs := make([]int, 0, len(h.clients))
	for userID := range h.clients {
		userIDs = append(userIDs, userID)
	}
	h.mu.RUnlock()

	h.SendToUsers(userIDs, event, data, exceptUserID)
}

func (h *Hub) deliver(userID int, client *Client, event string, data any) {
	if err := client.Send(event, data); err != nil {
		log.Printf("websocket write error: %v", err)
		client.conn.Close()
		h.Unregister(userID, client)
	}
}
