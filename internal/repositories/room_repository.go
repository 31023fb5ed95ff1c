package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/models"
)

var ErrRoomNotFound = errors.New("room not found")

// RoomRepository abstracts chat room persistence. Membership is
// append-only; rooms are never removed here.
type RoomRepository interface {
	CreateOrGetDirectRoom(ctx context.Context, userID, targetID int) (models.Room, bool, error)
	CreateChannel(ctx context.Context, creatorID int, name, description string, adminOnlyPost bool, memberIDs []int) (models.Room, error)
	GetRoom(ctx context.Context, roomID int) (models.Room, error)
	ListRoomsForUser(ctx context.Context, userID int) ([]models.RoomSummary, error)
	IsMember(ctx context.Context, roomID, userID int) (bool, error)
	MemberIDs(ctx context.Context, roomID int) ([]int, error)
	AddMembers(ctx context.Context, roomID int, userIDs ...int) error
	MarkRoomRead(ctx context.Context, roomID, userID int) error
	IncrementUnread(ctx context.Context, roomID, exceptUserID int) error
	EnsureGeneralMembership(ctx context.Context, userID int) error
}

// RoomRepo is a sqlx implementation of RoomRepository.
type RoomRepo struct {
	db *sqlx.DB
}

// NewRoomRepo constructs a RoomRepo.
func NewRoomRepo(db *sqlx.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

const roomColumns = `id, name, type, description, admin_only_post, direct_key, created_by, created_at`

// directKey gives the same key for both orderings of a user pair, which
// is what makes direct room creation idempotent.
func directKey(a, b int) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// CreateOrGetDirectRoom finds or creates the two-member room for a user
// pair. The second return value reports whether the room is new.
// CreateOrGetDirectRoom creates the room and its two memberships
// atomically; a partial creation must never leave a memberless row
// behind the unique direct_key.
func (r *RoomRepo) CreateOrGetDirectRoom(ctx context.Context, userID, targetID int) (models.Room, bool, error) {
	if userID == targetID {
		return models.Room{}, false, errors.New("cannot create direct room with self")
	}
	key := directKey(userID, targetID)

	var room models.Room
	err := r.db.GetContext(ctx, &room, `SELECT `+roomColumns+` FROM chat_rooms WHERE direct_key=$1`, key)
	if err == nil {
		// Re-enroll both sides on reuse; the insert is idempotent and
		// repairs any room whose enrollment was interrupted.
		if err := r.AddMembers(ctx, room.ID, userID, targetID); err != nil {
			return models.Room{}, false, err
		}
		return room, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Room{}, false, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Room{}, false, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	err = tx.QueryRowxContext(ctx, `INSERT INTO chat_rooms (name, type, direct_key, created_by)
        VALUES ('', 'direct', $1, $2)
        ON CONFLICT (direct_key) DO NOTHING
        RETURNING `+roomColumns, key, userID).StructScan(&room)
	if errors.Is(err, sql.ErrNoRows) {
		// Lost a concurrent creation race; the winner's row is there now.
		if selErr := r.db.GetContext(ctx, &room, `SELECT `+roomColumns+` FROM chat_rooms WHERE direct_key=$1`, key); selErr != nil {
			return models.Room{}, false, selErr
		}
		if addErr := r.AddMembers(ctx, room.ID, userID, targetID); addErr != nil {
			return models.Room{}, false, addErr
		}
		return room, false, nil
	}
	if err != nil {
		return models.Room{}, false, err
	}

	if err = addMembers(ctx, tx, room.ID, userID, targetID); err != nil {
		return models.Room{}, false, err
	}
	if err = tx.Commit(); err != nil {
		return models.Room{}, false, err
	}
	return room, true, nil
}

// CreateChannel creates a channel room and its memberships atomically.
// The creator is always a member.
func (r *RoomRepo) CreateChannel(ctx context.Context, creatorID int, name, description string, adminOnlyPost bool, memberIDs []int) (models.Room, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Room{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var room models.Room
	err = tx.QueryRowxContext(ctx, `INSERT INTO chat_rooms (name, type, description, admin_only_post, created_by)
        VALUES ($1, 'channel', $2, $3, $4)
        RETURNING `+roomColumns, name, description, adminOnlyPost, creatorID).StructScan(&room)
	if err != nil {
		return models.Room{}, err
	}

	members := append([]int{creatorID}, memberIDs...)
	if err = addMembers(ctx, tx, room.ID, members...); err != nil {
		return models.Room{}, err
	}
	if err = tx.Commit(); err != nil {
		return models.Room{}, err
	}
	return room, nil
}

// GetRoom fetches a room by id.
func (r *RoomRepo) GetRoom(ctx context.Context, roomID int) (models.Room, error) {
	var room models.Room
	err := r.db.GetContext(ctx, &room, `SELECT `+roomColumns+` FROM chat_rooms WHERE id=$1`, roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Room{}, ErrRoomNotFound
	}
	return room, err
}

// ListRoomsForUser returns the caller's rooms annotated with their
// unread counter and last message preview.
func (r *RoomRepo) ListRoomsForUser(ctx context.Context, userID int) ([]models.RoomSummary, error) {
	query := `SELECT r.id, r.name, r.type, r.description, r.admin_only_post, m.unread_count,
            (SELECT cm.message FROM chat_messages cm
                WHERE cm.room_id = r.id
                ORDER BY cm.created_at DESC, cm.id DESC LIMIT 1) AS last_message
        FROM chat_rooms r
        JOIN chat_room_members m ON m.room_id = r.id
        WHERE m.user_id=$1
        ORDER BY r.created_at ASC`
	var rooms []models.RoomSummary
	if err := r.db.SelectContext(ctx, &rooms, query, userID); err != nil {
		return nil, err
	}

	for i := range rooms {
		ids, err := r.MemberIDs(ctx, rooms[i].ID)
		if err != nil {
			return nil, err
		}
		rooms[i].MemberIDs = ids
	}
	return rooms, nil
}

// IsMember checks whether a user belongs to the room.
func (r *RoomRepo) IsMember(ctx context.Context, roomID, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM chat_room_members WHERE room_id=$1 AND user_id=$2)`, roomID, userID)
	return exists, err
}

// MemberIDs lists the ids of a room's members.
func (r *RoomRepo) MemberIDs(ctx context.Context, roomID int) ([]int, error) {
	var ids []int
	err := r.db.SelectContext(ctx, &ids, `SELECT user_id FROM chat_room_members WHERE room_id=$1 ORDER BY user_id`, roomID)
	return ids, err
}

// AddMembers enrolls users into a room, ignoring existing memberships.
func (r *RoomRepo) AddMembers(ctx context.Context, roomID int, userIDs ...int) error {
	return addMembers(ctx, r.db, roomID, userIDs...)
}

// addMembers runs against either the pool or an open transaction so the
// creators can enroll members inside their transaction.
func addMembers(ctx context.Context, q sqlx.ExtContext, roomID int, userIDs ...int) error {
	for _, userID := range userIDs {
		if _, err := q.ExecContext(ctx, `INSERT INTO chat_room_members (room_id, user_id)
            VALUES ($1, $2) ON CONFLICT (room_id, user_id) DO NOTHING`, roomID, userID); err != nil {
			return err
		}
	}
	return nil
}

// MarkRoomRead zeroes the caller's unread counter for the room.
func (r *RoomRepo) MarkRoomRead(ctx context.Context, roomID, userID int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE chat_room_members SET unread_count = 0 WHERE room_id=$1 AND user_id=$2`, roomID, userID)
	return err
}

// IncrementUnread bumps the unread counter of every member except the
// sender.
func (r *RoomRepo) IncrementUnread(ctx context.Context, roomID, exceptUserID int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE chat_room_members SET unread_count = unread_count + 1
        WHERE room_id=$1 AND user_id<>$2`, roomID, exceptUserID)
	return err
}

// EnsureGeneralMembership enrolls the user into the seeded General
// channel so every account sees the announcement room.
func (r *RoomRepo) EnsureGeneralMembership(ctx context.Context, userID int) error {
	var roomID int
	err := r.db.GetContext(ctx, &roomID, `SELECT id FROM chat_rooms WHERE name='General' AND type='channel'`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	return r.AddMembers(ctx, roomID, userID)
}
