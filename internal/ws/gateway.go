package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/authz"
	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/models"
	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/observability"
	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/repositories"
	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/session"
	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/telemetry"
)

// recentMessageLimit bounds the per-room backlog pushed on join. There
// is no replay protocol beyond this; unread counters carry the rest.
const recentMessageLimit = 50

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Gateway accepts authenticated chat connections and routes the event
// catalog between clients and storage.
type Gateway struct {
	hub      *Hub
	sessions *session.Service
	rooms    repositories.RoomRepository
	messages repositories.MessageRepository
	users    repositories.UserRepository
	audit    *telemetry.AuditEmitter
}

// NewGateway constructs a Gateway.
func NewGateway(hub *Hub, sessions *session.Service, rooms repositories.RoomRepository, messages repositories.MessageRepository, users repositories.UserRepository, audit *telemetry.AuditEmitter) *Gateway {
	return &Gateway{hub: hub, sessions: sessions, rooms: rooms, messages: messages, users: users, audit: audit}
}

// Handle upgrades the connection for a caller with a valid session and
// runs its event loop. Identity and role always come from the verified
// token, never from event payloads.
func (g *Gateway) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("dashboard/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	claims := g.sessions.GetSession(c)
	if claims == nil {
		if token := c.Query("token"); token != "" {
			verified, err := g.sessions.Verify(token)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
			claims = verified
		}
	}
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      claims.UserID,
		Role:        claims.Role,
		FullName:    claims.FullName,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	client := newClient(conn, info)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	g.auditEvent(ctx, "INFO", "chat connection opened", info)

	go g.readLoop(context.WithoutCancel(ctx), client, claims)
}

func (g *Gateway) readLoop(ctx context.Context, client *Client, claims *session.Claims) {
	joined := false
	defer func() {
		if joined && g.hub.Unregister(claims.UserID, client) {
			g.hub.BroadcastAll(EventUserStatus, UserStatusPayload{UserID: claims.UserID, Status: models.StatusOffline}, claims.UserID)
		}
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		g.auditEvent(ctx, "INFO", "chat connection closed", client.info)
		client.conn.Close()
	}()

	for {
		_, payload, err := client.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
			}
			return
		}

		var envelope Envelope
		if err := json.Unmarshal(payload, &envelope); err != nil {
			g.sendError(client, "malformed event")
			continue
		}

		observability.IncWSEvent(envelope.Event)
		switch envelope.Event {
		case EventJoin:
			joined = true
			g.handleJoin(ctx, client, claims)
		case EventSendMessage:
			g.handleSendMessage(ctx, client, claims, envelope.Data)
		case EventCreateDirectRoom:
			g.handleCreateDirectRoom(ctx, client, claims, envelope.Data)
		case EventCreateRoom:
			g.handleCreateRoom(ctx, client, claims, envelope.Data)
		case EventMarkRoomRead:
			g.handleMarkRoomRead(ctx, client, claims, envelope.Data)
		case EventTyping:
			g.handleTyping(ctx, client, claims, envelope.Data)
		case EventEditMessage:
			g.handleEditMessage(ctx, client, claims, envelope.Data)
		case EventDeleteMessage:
			g.handleDeleteMessage(ctx, client, claims, envelope.Data)
		case EventUpdateStatus:
			g.handleUpdateStatus(client, claims, envelope.Data)
		default:
			g.sendError(client, "unknown event")
		}
	}
}

// handleJoin registers the connection, pushes the caller's rooms and the
// online roster, and announces the arrival to everyone else. The join
// payload's userId is ignored; the session already proved who this is.
func (g *Gateway) handleJoin(ctx context.Context, client *Client, claims *session.Claims) {
	if err := g.rooms.EnsureGeneralMembership(ctx, claims.UserID); err != nil {
		log.Printf("general enrollment failed for user %d: %v", claims.UserID, err)
	}

	g.hub.Register(models.OnlineUser{
		ID:       claims.UserID,
		FullName: claims.FullName,
		Role:     claims.Role,
		Status:   models.StatusOnline,
	}, client)

	g.pushRooms(ctx, client, claims)

	if err := client.Send(EventOnlineUsers, g.hub.OnlineUsers()); err != nil {
		log.Printf("online-users push failed: %v", err)
	}

	g.hub.BroadcastAll(EventUserStatus, UserStatusPayload{UserID: claims.UserID, Status: models.StatusOnline}, claims.UserID)
}

func (g *Gateway) pushRooms(ctx context.Context, client *Client, claims *session.Claims) {
	summaries, err := g.rooms.ListRoomsForUser(ctx, claims.UserID)
	if err != nil {
		log.Printf("room list failed for user %d: %v", claims.UserID, err)
		g.sendError(client, "failed to load rooms")
		return
	}

	payloads := make([]RoomPayload, 0, len(summaries))
	for _, summary := range summaries {
		payload := roomPayloadFromSummary(summary)
		msgs, err := g.messages.RecentMessages(ctx, summary.ID, recentMessageLimit)
		if err != nil {
			log.Printf("backlog fetch failed for room %d: %v", summary.ID, err)
		} else {
			payload.Messages = msgs
		}
		payloads = append(payloads, payload)
	}

	if err := client.Send(EventRooms, payloads); err != nil {
		log.Printf("rooms push failed: %v", err)
	}
}

func (g *Gateway) handleSendMessage(ctx context.Context, client *Client, claims *session.Claims, data json.RawMessage) {
	var req SendMessagePayload
	if err := json.Unmarshal(data, &req); err != nil || req.Message == "" {
		g.sendError(client, "invalid message")
		return
	}

	room, err := g.rooms.GetRoom(ctx, req.RoomID)
	if err != nil {
		g.sendError(client, "room not found")
		return
	}

	member, err := g.rooms.IsMember(ctx, req.RoomID, claims.UserID)
	if err != nil || !member {
		g.sendError(client, "not a room member")
		return
	}

	if !authz.CanPostToRoom(claims.Role, room.AdminOnlyPost) {
		g.sendError(client, "only admins can post in this room")
		return
	}

	msg, err := g.messages.CreateMessage(ctx, req.RoomID, claims.UserID, req.Message, req.MessageType)
	if err != nil {
		g.sendError(client, "failed to store message")
		return
	}

	if err := g.rooms.IncrementUnread(ctx, req.RoomID, claims.UserID); err != nil {
		log.Printf("unread bump failed for room %d: %v", req.RoomID, err)
	}

	memberIDs, err := g.rooms.MemberIDs(ctx, req.RoomID)
	if err != nil {
		log.Printf("member fetch failed for room %d: %v", req.RoomID, err)
		return
	}
	g.hub.SendToUsers(memberIDs, EventNewMessage, NewMessagePayload{RoomID: req.RoomID, Message: msg}, 0)
}

func (g *Gateway) handleCreateDirectRoom(ctx context.Context, client *Client, claims *session.Claims, data json.RawMessage) {
	var req CreateDirectRoomPayload
	if err := json.Unmarshal(data, &req); err != nil || req.TargetUserID == 0 {
		g.sendError(client, "invalid target user")
		return
	}
	if req.TargetUserID == claims.UserID {
		g.sendError(client, "cannot start a chat with yourself")
		return
	}

	target, err := g.users.GetByID(ctx, req.TargetUserID)
	if err != nil {
		g.sendError(client, "user not found")
		return
	}

	room, created, err := g.rooms.CreateOrGetDirectRoom(ctx, claims.UserID, req.TargetUserID)
	if err != nil {
		g.sendError(client, "failed to create room")
		return
	}

	memberIDs := []int{claims.UserID, req.TargetUserID}

	// The caller gets room-created either way so the UI can open the
	// room; the target hears about it exactly once, on actual creation.
	callerView := directRoomPayload(room, target.FullName, memberIDs)
	if err := client.Send(EventRoomCreated, callerView); err != nil {
		log.Printf("room-created push failed: %v", err)
	}
	if created {
		targetView := directRoomPayload(room, claims.FullName, memberIDs)
		g.hub.SendToUser(req.TargetUserID, EventNewRoom, targetView)
	}
}

func (g *Gateway) handleCreateRoom(ctx context.Context, client *Client, claims *session.Claims, data json.RawMessage) {
	var req CreateRoomPayload
	if err := json.Unmarshal(data, &req); err != nil || req.Name == "" {
		g.sendError(client, "invalid room")
		return
	}
	if req.Type != "" && req.Type != models.RoomTypeChannel {
		g.sendError(client, "invalid room type")
		return
	}

	room, err := g.rooms.CreateChannel(ctx, claims.UserID, req.Name, req.Description, false, req.MemberIDs)
	if err != nil {
		g.sendError(client, "failed to create room")
		return
	}

	memberIDs, err := g.rooms.MemberIDs(ctx, room.ID)
	if err != nil {
		log.Printf("member fetch failed for room %d: %v", room.ID, err)
		memberIDs = append([]int{claims.UserID}, req.MemberIDs...)
	}

	payload := channelRoomPayload(room, memberIDs)
	if err := client.Send(EventRoomCreated, payload); err != nil {
		log.Printf("room-created push failed: %v", err)
	}
	g.hub.SendToUsers(memberIDs, EventNewRoom, payload, claims.UserID)
}

func (g *Gateway) handleMarkRoomRead(ctx context.Context, client *Client, claims *session.Claims, data json.RawMessage) {
	var req MarkRoomReadPayload
	if err := json.Unmarshal(data, &req); err != nil || req.RoomID == 0 {
		g.sendError(client, "invalid room")
		return
	}
	if err := g.rooms.MarkRoomRead(ctx, req.RoomID, claims.UserID); err != nil {
		g.sendError(client, "failed to mark room read")
	}
}

func (g *Gateway) handleTyping(ctx context.Context, client *Client, claims *session.Claims, data json.RawMessage) {
	var req TypingPayload
	if err := json.Unmarshal(data, &req); err != nil || req.RoomID == 0 {
		return
	}

	member, err := g.rooms.IsMember(ctx, req.RoomID, claims.UserID)
	if err != nil || !member {
		return
	}

	memberIDs, err := g.rooms.MemberIDs(ctx, req.RoomID)
	if err != nil {
		return
	}
	g.hub.SendToUsers(memberIDs, EventUserTyping, UserTypingPayload{
		RoomID:   req.RoomID,
		UserID:   claims.UserID,
		User:     TypingUser{ID: claims.UserID, FullName: claims.FullName},
		IsTyping: req.IsTyping,
	}, claims.UserID)
}

func (g *Gateway) handleEditMessage(ctx context.Context, client *Client, claims *session.Claims, data json.RawMessage) {
	var req EditMessagePayload
	if err := json.Unmarshal(data, &req); err != nil || req.NewMessage == "" {
		g.sendError(client, "invalid edit")
		return
	}

	msg, err := g.messages.GetMessage(ctx, req.MessageID)
	if err != nil {
		g.sendError(client, "message not found")
		return
	}
	if msg.RoomID != req.RoomID {
		g.sendError(client, "message does not belong to room")
		return
	}
	if msg.SenderID != claims.UserID {
		g.sendError(client, "only the sender can edit a message")
		return
	}

	updated, err := g.messages.EditMessage(ctx, req.MessageID, req.NewMessage)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageDeleted) {
			g.sendError(client, "cannot edit a deleted message")
		} else {
			g.sendError(client, "failed to edit message")
		}
		return
	}

	memberIDs, err := g.rooms.MemberIDs(ctx, req.RoomID)
	if err != nil {
		return
	}
	g.hub.SendToUsers(memberIDs, EventMessageEdited, MessageEditedPayload{
		MessageID: updated.ID,
		RoomID:    req.RoomID,
		Message:   updated.Body,
	}, 0)
}

func (g *Gateway) handleDeleteMessage(ctx context.Context, client *Client, claims *session.Claims, data json.RawMessage) {
	var req DeleteMessagePayload
	if err := json.Unmarshal(data, &req); err != nil {
		g.sendError(client, "invalid delete")
		return
	}

	msg, err := g.messages.GetMessage(ctx, req.MessageID)
	if err != nil {
		g.sendError(client, "message not found")
		return
	}
	if msg.RoomID != req.RoomID {
		g.sendError(client, "message does not belong to room")
		return
	}
	if msg.SenderID != claims.UserID {
		g.sendError(client, "only the sender can delete a message")
		return
	}

	if err := g.messages.SoftDeleteMessage(ctx, req.MessageID); err != nil {
		g.sendError(client, "failed to delete message")
		return
	}

	memberIDs, err := g.rooms.MemberIDs(ctx, req.RoomID)
	if err != nil {
		return
	}
	g.hub.SendToUsers(memberIDs, EventMessageDeleted, MessageDeletedPayload{MessageID: req.MessageID, RoomID: req.RoomID}, 0)
}

func (g *Gateway) handleUpdateStatus(client *Client, claims *session.Claims, data json.RawMessage) {
	var req UpdateStatusPayload
	if err := json.Unmarshal(data, &req); err != nil || !models.ValidStatus(req.Status) {
		g.sendError(client, "invalid status")
		return
	}

	if g.hub.SetStatus(claims.UserID, req.Status) {
		g.hub.BroadcastAll(EventUserStatus, UserStatusPayload{UserID: claims.UserID, Status: req.Status}, claims.UserID)
	}
}

func (g *Gateway) sendError(client *Client, message string) {
	if err := client.Send(EventError, ErrorPayload{Message: message}); err != nil {
		log.Printf("error push failed: %v", err)
	}
}

func (g *Gateway) auditEvent(ctx context.Context, level, text string, info ConnInfo) {
	if g.audit == nil {
		return
	}
	var userID *string
	if info.UserID != 0 {
		value := fmt.Sprintf("%d", info.UserID)
		userID = &value
	}
	g.audit.Emit(ctx, level, text, info.RequestID, userID)
}

func roomPayloadFromSummary(summary models.RoomSummary) RoomPayload {
	return RoomPayload{
		ID:            summary.ID,
		Name:          summary.Name,
		Type:          summary.Type,
		Description:   summary.Description.String,
		AdminOnlyPost: summary.AdminOnlyPost,
		UnreadCount:   summary.UnreadCount,
		LastMessage:   summary.LastMessage.String,
		MemberIDs:     summary.MemberIDs,
	}
}

func directRoomPayload(room models.Room, displayName string, memberIDs []int) RoomPayload {
	return RoomPayload{
		ID:        room.ID,
		Name:      displayName,
		Type:      models.RoomTypeDirect,
		MemberIDs: memberIDs,
	}
}

func channelRoomPayload(room models.Room, memberIDs []int) RoomPayload {
	return RoomPayload{
		ID:            room.ID,
		Name:          room.Name,
		Type:          models.RoomTypeChannel,
		Description:   room.Description.String,
		AdminOnlyPost: room.AdminOnlyPost,
		MemberIDs:     memberIDs,
	}
}
