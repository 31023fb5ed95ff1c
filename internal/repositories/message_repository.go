package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/models"
)

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrMessageDeleted  = errors.New("message is deleted")
)

// MessageRepository defines interactions for room messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, roomID, senderID int, body, messageType string) (models.Message, error)
	RecentMessages(ctx context.Context, roomID, limit int) ([]models.Message, error)
	GetMessage(ctx context.Context, messageID int) (models.Message, error)
	EditMessage(ctx context.Context, messageID int, newBody string) (models.Message, error)
	SoftDeleteMessage(ctx context.Context, messageID int) error
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, room_id, sender_id, message, message_type, is_edited, is_deleted, created_at`

// CreateMessage stores a message in a room.
func (r *MessageRepo) CreateMessage(ctx context.Context, roomID, senderID int, body, messageType string) (models.Message, error) {
	if messageType == "" {
		messageType = "text"
	}
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO chat_messages (room_id, sender_id, message, message_type)
        VALUES ($1, $2, $3, $4)
        RETURNING `+messageColumns, roomID, senderID, body, messageType).StructScan(&msg)
	return msg, err
}

// RecentMessages returns the newest messages of a room in chronological
// order, bounded by limit.
func (r *MessageRepo) RecentMessages(ctx context.Context, roomID, limit int) ([]models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM (
            SELECT ` + messageColumns + ` FROM chat_messages
            WHERE room_id=$1
            ORDER BY created_at DESC, id DESC
            LIMIT $2
        ) recent ORDER BY created_at ASC, id ASC`
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, query, roomID, limit)
	return msgs, err
}

// GetMessage retrieves a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM chat_messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// EditMessage replaces the body and sets the edited flag. Deleted
// messages keep their tombstone; the update refuses them.
func (r *MessageRepo) EditMessage(ctx context.Context, messageID int, newBody string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `UPDATE chat_messages
        SET message=$2, is_edited=TRUE
        WHERE id=$1 AND is_deleted=FALSE
        RETURNING `+messageColumns, messageID, newBody).StructScan(&msg)
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := r.GetMessage(ctx, messageID); getErr == nil {
			return models.Message{}, ErrMessageDeleted
		}
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// SoftDeleteMessage replaces the body with the tombstone and marks the
// row deleted. Sender and room are untouched; the row is never removed.
func (r *MessageRepo) SoftDeleteMessage(ctx context.Context, messageID int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE chat_messages
        SET is_deleted=TRUE, message=$2
        WHERE id=$1`, messageID, models.DeletedMessageBody)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}
