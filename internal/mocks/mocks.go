package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/models"
	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/repositories"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) GetByEmail(ctx context.Context, email string) (models.DashboardUser, error) {
	args := m.Called(ctx, email)
	var user models.DashboardUser
	if val := args.Get(0); val != nil {
		user = val.(models.DashboardUser)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetByID(ctx context.Context, userID int) (models.DashboardUser, error) {
	args := m.Called(ctx, userID)
	var user models.DashboardUser
	if val := args.Get(0); val != nil {
		user = val.(models.DashboardUser)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) Create(ctx context.Context, email, passwordHash, fullName, role string) (models.DashboardUser, error) {
	args := m.Called(ctx, email, passwordHash, fullName, role)
	var user models.DashboardUser
	if val := args.Get(0); val != nil {
		user = val.(models.DashboardUser)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) UpdateLastLogin(ctx context.Context, userID int) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *UserRepositoryMock) PendingUsers(ctx context.Context) ([]models.PendingUser, error) {
	args := m.Called(ctx)
	var users []models.PendingUser
	if val := args.Get(0); val != nil {
		users = val.([]models.PendingUser)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) AllUsers(ctx context.Context) ([]models.DashboardUser, error) {
	args := m.Called(ctx)
	var users []models.DashboardUser
	if val := args.Get(0); val != nil {
		users = val.([]models.DashboardUser)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) Approve(ctx context.Context, userID, approvedBy int) (models.DashboardUser, error) {
	args := m.Called(ctx, userID, approvedBy)
	var user models.DashboardUser
	if val := args.Get(0); val != nil {
		user = val.(models.DashboardUser)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) Reject(ctx context.Context, userID int) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type RoomRepositoryMock struct {
	mock.Mock
}

func (m *RoomRepositoryMock) CreateOrGetDirectRoom(ctx context.Context, userID, targetID int) (models.Room, bool, error) {
	args := m.Called(ctx, userID, targetID)
	var room models.Room
	if val := args.Get(0); val != nil {
		room = val.(models.Room)
	}
	return room, args.Bool(1), args.Error(2)
}

func (m *RoomRepositoryMock) CreateChannel(ctx context.Context, creatorID int, name, description string, adminOnlyPost bool, memberIDs []int) (models.Room, error) {
	args := m.Called(ctx, creatorID, name, description, adminOnlyPost, memberIDs)
	var room models.Room
	if val := args.Get(0); val != nil {
		room = val.(models.Room)
	}
	return room, args.Error(1)
}

func (m *RoomRepositoryMock) GetRoom(ctx context.Context, roomID int) (models.Room, error) {
	args := m.Called(ctx, roomID)
	var room models.Room
	if val := args.Get(0); val != nil {
		room = val.(models.Room)
	}
	return room, args.Error(1)
}

func (m *RoomRepositoryMock) ListRoomsForUser(ctx context.Context, userID int) ([]models.RoomSummary, error) {
	args := m.Called(ctx, userID)
	var rooms []models.RoomSummary
	if val := args.Get(0); val != nil {
		rooms = val.([]models.RoomSummary)
	}
	return rooms, args.Error(1)
}

func (m *RoomRepositoryMock) IsMember(ctx context.Context, roomID, userID int) (bool, error) {
	args := m.Called(ctx, roomID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *RoomRepositoryMock) MemberIDs(ctx context.Context, roomID int) ([]int, error) {
	args := m.Called(ctx, roomID)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

func (m *RoomRepositoryMock) AddMembers(ctx context.Context, roomID int, userIDs ...int) error {
	args := m.Called(ctx, roomID, userIDs)
	return args.Error(0)
}

func (m *RoomRepositoryMock) MarkRoomRead(ctx context.Context, roomID, userID int) error {
	args := m.Called(ctx, roomID, userID)
	return args.Error(0)
}

func (m *RoomRepositoryMock) IncrementUnread(ctx context.Context, roomID, exceptUserID int) error {
	args := m.Called(ctx, roomID, exceptUserID)
	return args.Error(0)
}

func (m *RoomRepositoryMock) EnsureGeneralMembership(ctx context.Context, userID int) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, roomID, senderID int, body, messageType string) (models.Message, error) {
	args := m.Called(ctx, roomID, senderID, body, messageType)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) RecentMessages(ctx context.Context, roomID, limit int) ([]models.Message, error) {
	args := m.Called(ctx, roomID, limit)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) EditMessage(ctx context.Context, messageID int, newBody string) (models.Message, error) {
	args := m.Called(ctx, messageID, newBody)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) SoftDeleteMessage(ctx context.Context, messageID int) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

var _ repositories.UserRepository = (*UserRepositoryMock)(nil)
var _ repositories.RoomRepository = (*RoomRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
