package models

import "time"

// Roles recognized by the dashboard.
const (
	RoleAdmin     = "admin"
	RoleDeveloper = "developer"
	RoleSupport   = "support"
)

// DashboardUser is an account on the admin dashboard.
type DashboardUser struct {
	ID           int        `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"fullName"`
	Role         string     `db:"role" json:"role"`
	IsApproved   bool       `db:"is_approved" json:"isApproved"`
	IsActive     bool       `db:"is_active" json:"isActive"`
	ApprovedAt   *time.Time `db:"approved_at" json:"approvedAt,omitempty"`
	ApprovedBy   *int       `db:"approved_by" json:"approvedBy,omitempty"`
	LastLogin    *time.Time `db:"last_login" json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    *time.Time `db:"updated_at" json:"updatedAt,omitempty"`
}

// PublicUser is the client-safe projection of an account.
type PublicUser struct {
	ID       int    `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

// Public strips credential and moderation fields.
func (u DashboardUser) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, FullName: u.FullName, Role: u.Role}
}

// PendingUser is the admin-panel view of an unapproved account.
type PendingUser struct {
	ID        int       `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	FullName  string    `db:"full_name" json:"fullName"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
