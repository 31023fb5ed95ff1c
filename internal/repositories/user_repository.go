package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/models"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// UserRepository abstracts dashboard account persistence.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (models.DashboardUser, error)
	GetByID(ctx context.Context, userID int) (models.DashboardUser, error)
	Create(ctx context.Context, email, passwordHash, fullName, role string) (models.DashboardUser, error)
	UpdateLastLogin(ctx context.Context, userID int) error
	PendingUsers(ctx context.Context) ([]models.PendingUser, error)
	AllUsers(ctx context.Context) ([]models.DashboardUser, error)
	Approve(ctx context.Context, userID, approvedBy int) (models.DashboardUser, error)
	Reject(ctx context.Context, userID int) error
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, email, password_hash, full_name, role, is_approved, is_active, approved_at, approved_by, last_login, created_at, updated_at`

// GetByEmail fetches an account by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (models.DashboardUser, error) {
	var user models.DashboardUser
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM dashboard_users WHERE email=$1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DashboardUser{}, ErrUserNotFound
	}
	return user, err
}

// GetByID fetches an account by id.
func (r *UserRepo) GetByID(ctx context.Context, userID int) (models.DashboardUser, error) {
	var user models.DashboardUser
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM dashboard_users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DashboardUser{}, ErrUserNotFound
	}
	return user, err
}

// Create stores a new, unapproved account.
func (r *UserRepo) Create(ctx context.Context, email, passwordHash, fullName, role string) (models.DashboardUser, error) {
	var user models.DashboardUser
	err := r.db.QueryRowxContext(ctx, `INSERT INTO dashboard_users (email, password_hash, full_name, role, is_approved, is_active)
        VALUES ($1, $2, $3, $4, FALSE, TRUE)
        RETURNING `+userColumns, email, passwordHash, fullName, role).StructScan(&user)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return models.DashboardUser{}, ErrDuplicateEmail
		}
		return models.DashboardUser{}, err
	}
	return user, nil
}

// UpdateLastLogin stamps the account's last successful login.
func (r *UserRepo) UpdateLastLogin(ctx context.Context, userID int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE dashboard_users SET last_login = NOW() WHERE id=$1`, userID)
	return err
}

// PendingUsers lists active accounts awaiting approval, newest first.
func (r *UserRepo) PendingUsers(ctx context.Context) ([]models.PendingUser, error) {
	var users []models.PendingUser
	err := r.db.SelectContext(ctx, &users, `SELECT id, email, full_name, role, created_at
        FROM dashboard_users
        WHERE is_approved = FALSE AND is_active = TRUE
        ORDER BY created_at DESC`)
	return users, err
}

// AllUsers lists every dashboard account, newest first.
func (r *UserRepo) AllUsers(ctx context.Context) ([]models.DashboardUser, error) {
	var users []models.DashboardUser
	err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM dashboard_users ORDER BY created_at DESC`)
	return users, err
}

// Approve marks the account approved and records who approved it.
func (r *UserRepo) Approve(ctx context.Context, userID, approvedBy int) (models.DashboardUser, error) {
	var user models.DashboardUser
	err := r.db.QueryRowxContext(ctx, `UPDATE dashboard_users
        SET is_approved = TRUE, approved_at = NOW(), approved_by = $2, updated_at = NOW()
        WHERE id=$1
        RETURNING `+userColumns, userID, approvedBy).StructScan(&user)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DashboardUser{}, ErrUserNotFound
	}
	return user, err
}

// Reject deletes the account record outright.
func (r *UserRepo) Reject(ctx context.Context, userID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM dashboard_users WHERE id=$1`, userID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return nil
}
