package chatclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/models"
	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/ws"
)

func apply(t *testing.T, c *Client, event string, data any) {
	t.Helper()
	envelope, err := ws.NewEnvelope(event, data)
	require.NoError(t, err)
	c.applyEvent(envelope)
}

func seedRooms(t *testing.T, c *Client) {
	apply(t, c, ws.EventRooms, []ws.RoomPayload{
		{
			ID: 10, Name: "General", Type: models.RoomTypeChannel, UnreadCount: 2,
			Messages: []models.Message{
				{ID: 100, RoomID: 10, SenderID: 2, Body: "hello"},
				{ID: 101, RoomID: 10, SenderID: 1, Body: "hi back"},
			},
		},
		{ID: 11, Name: "Bob", Type: models.RoomTypeDirect, UnreadCount: 1},
	})
}

func TestRoomsEventReplacesState(t *testing.T) {
	c := New("ws://example/ws/chat", "token", 1)
	seedRooms(t, c)

	rooms := c.Rooms()
	require.Len(t, rooms, 2)

	msgs := c.Messages(10)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[0].Body)

	// The backlog lives in the message store, not on the room snapshot.
	for _, room := range rooms {
		assert.Nil(t, room.Messages)
	}

	assert.Equal(t, 3, c.UnreadCount())

	// A later rooms push replaces everything.
	apply(t, c, ws.EventRooms, []ws.RoomPayload{{ID: 12, Name: "Fresh", Type: models.RoomTypeChannel}})
	rooms = c.Rooms()
	require.Len(t, rooms, 1)
	assert.Equal(t, 12, rooms[0].ID)
	assert.Zero(t, c.UnreadCount())

	// Backlogs for rooms absent from the push are dropped with them.
	assert.Empty(t, c.Messages(10))
	assert.Empty(t, c.Messages(11))
}

func TestNewMessageBumpsUnreadForOthersOnly(t *testing.T) {
	c := New("ws://example/ws/chat", "token", 1)
	seedRooms(t, c)

	apply(t, c, ws.EventNewMessage, ws.NewMessagePayload{
		RoomID:  10,
		Message: models.Message{ID: 102, RoomID: 10, SenderID: 2, Body: "ping"},
	})
	assert.Equal(t, 4, c.UnreadCount())
	assert.Len(t, c.Messages(10), 3)

	// The user's own message never counts as unread.
	apply(t, c, ws.EventNewMessage, ws.NewMessagePayload{
		RoomID:  10,
		Message: models.Message{ID: 103, RoomID: 10, SenderID: 1, Body: "pong"},
	})
	assert.Equal(t, 4, c.UnreadCount())
	assert.Len(t, c.Messages(10), 4)
}

func TestMessageEditedInPlace(t *testing.T) {
	c := New("ws://example/ws/chat", "token", 1)
	seedRooms(t, c)

	apply(t, c, ws.EventMessageEdited, ws.MessageEditedPayload{MessageID: 100, RoomID: 10, Message: "hello, edited"})

	msgs := c.Messages(10)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello, edited", msgs[0].Body)
	assert.True(t, msgs[0].IsEdited)
	assert.False(t, msgs[1].IsEdited)
}

func TestMessageDeletedLeavesTombstone(t *testing.T) {
	c := New("ws://example/ws/chat", "token", 1)
	seedRooms(t, c)

	apply(t, c, ws.EventMessageDeleted, ws.MessageDeletedPayload{MessageID: 100, RoomID: 10})

	msgs := c.Messages(10)
	require.Len(t, msgs, 2)
	assert.Equal(t, models.DeletedMessageBody, msgs[0].Body)
	assert.True(t, msgs[0].IsDeleted)
	assert.Equal(t, "hi back", msgs[1].Body)
}

func TestUserTypingAddAndRemove(t *testing.T) {
	c := New("ws://example/ws/chat", "token", 1)

	apply(t, c, ws.EventUserTyping, ws.UserTypingPayload{
		RoomID: 10, UserID: 2, User: ws.TypingUser{ID: 2, FullName: "Bob"}, IsTyping: true,
	})
	typists := c.TypingUsers(10)
	require.Len(t, typists, 1)
	assert.Equal(t, "Bob", typists[0].FullName)

	apply(t, c, ws.EventUserTyping, ws.UserTypingPayload{RoomID: 10, UserID: 2, IsTyping: false})
	assert.Empty(t, c.TypingUsers(10))
}

func TestUserStatusTracking(t *testing.T) {
	c := New("ws://example/ws/chat", "token", 1)
	apply(t, c, ws.EventOnlineUsers, []models.OnlineUser{
		{ID: 2, FullName: "Bob", Status: models.StatusOnline},
		{ID: 3, FullName: "Carol", Status: models.StatusOnline},
	})
	require.Len(t, c.OnlineUsers(), 2)

	apply(t, c, ws.EventUserStatus, ws.UserStatusPayload{UserID: 2, Status: models.StatusBusy})
	for _, user := range c.OnlineUsers() {
		if user.ID == 2 {
			assert.Equal(t, models.StatusBusy, user.Status)
		}
	}

	// Offline removes the user entirely.
	apply(t, c, ws.EventUserStatus, ws.UserStatusPayload{UserID: 3, Status: models.StatusOffline})
	users := c.OnlineUsers()
	require.Len(t, users, 1)
	assert.Equal(t, 2, users[0].ID)

	// A status for someone not yet in the roster creates an entry.
	apply(t, c, ws.EventUserStatus, ws.UserStatusPayload{UserID: 4, Status: models.StatusAway})
	assert.Len(t, c.OnlineUsers(), 2)
}

func TestNewRoomAddedOnce(t *testing.T) {
	c := New("ws://example/ws/chat", "token", 1)
	seedRooms(t, c)

	apply(t, c, ws.EventNewRoom, ws.RoomPayload{ID: 20, Name: "Carol", Type: models.RoomTypeDirect})
	assert.Len(t, c.Rooms(), 3)

	// A duplicate announcement must not clobber accumulated state.
	apply(t, c, ws.EventNewMessage, ws.NewMessagePayload{
		RoomID:  20,
		Message: models.Message{ID: 300, RoomID: 20, SenderID: 3, Body: "hey"},
	})
	apply(t, c, ws.EventRoomCreated, ws.RoomPayload{ID: 20, Name: "Carol", Type: models.RoomTypeDirect})

	assert.Len(t, c.Rooms(), 3)
	assert.Equal(t, 4, c.UnreadCount())
}

func TestMarkRoomReadZeroesLocalCounter(t *testing.T) {
	c := New("ws://example/ws/chat", "token", 1)
	seedRooms(t, c)
	require.Equal(t, 3, c.UnreadCount())

	c.MarkRoomRead(10)
	assert.Equal(t, 1, c.UnreadCount())

	c.MarkRoomRead(11)
	assert.Zero(t, c.UnreadCount())

	// Unknown rooms are a no-op.
	c.MarkRoomRead(99)
	assert.Zero(t, c.UnreadCount())
}

func TestUnreadCountNeverNegative(t *testing.T) {
	c := New("ws://example/ws/chat", "token", 1)
	apply(t, c, ws.EventRooms, []ws.RoomPayload{
		{ID: 10, UnreadCount: -2},
		{ID: 11, UnreadCount: 5},
	})
	assert.Equal(t, 5, c.UnreadCount())
}

func TestActionsNoopWhileDisconnected(t *testing.T) {
	c := New("ws://example/ws/chat", "token", 1)

	// None of these may panic or mutate remote state without a socket.
	c.SendMessage(10, "hello", "text")
	c.CreateDirectRoom(2)
	c.CreateRoom("incidents", models.RoomTypeChannel, "", []int{2})
	c.EditMessage(100, "edited", 10)
	c.DeleteMessage(100, 10)
	c.UpdateStatus(models.StatusAway)
	c.StartTyping(10)
	c.StopTyping(10)

	assert.False(t, c.Connected())
	assert.Empty(t, c.timers)
}

func TestTypingTimerLifecycle(t *testing.T) {
	c := New("ws://example/ws/chat", "token", 1)
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()

	c.StartTyping(10)
	c.mu.Lock()
	first := c.timers[10]
	c.mu.Unlock()
	require.NotNil(t, first)

	// A second keystroke resets the existing timer instead of stacking.
	c.StartTyping(10)
	c.mu.Lock()
	assert.Same(t, first, c.timers[10])
	assert.Len(t, c.timers, 1)
	c.mu.Unlock()

	c.StopTyping(10)
	c.mu.Lock()
	assert.Empty(t, c.timers)
	c.mu.Unlock()
}

func TestSendMessageClearsTypingTimer(t *testing.T) {
	c := New("ws://example/ws/chat", "token", 1)
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()

	c.StartTyping(10)
	c.SendMessage(10, "done typing", "text")

	c.mu.Lock()
	assert.Empty(t, c.timers)
	c.mu.Unlock()
}

func TestCloseStopsTimers(t *testing.T) {
	c := New("ws://example/ws/chat", "token", 1)
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()

	c.StartTyping(10)
	c.StartTyping(11)
	c.Close()

	assert.False(t, c.Connected())
	c.mu.Lock()
	assert.Empty(t, c.timers)
	c.mu.Unlock()
}
