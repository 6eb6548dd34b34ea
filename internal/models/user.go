package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Role is a staff member's access level.
type Role string

const (
	RolePending   Role = "pending"
	RoleWorker    Role = "worker"
	RoleSecretary Role = "secretary"
	RoleAdmin     Role = "admin"
	RoleCEO       Role = "ceo"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePending, RoleWorker, RoleSecretary, RoleAdmin, RoleCEO:
		return true
	}
	return false
}

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

type User struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	PasswordHash  string          `json:"-"` // Never expose in JSON
	Role          Role            `json:"role"`
	Status        UserStatus      `json:"status"`
	EmailVerified bool            `json:"email_verified"`
	IsTechnician  bool            `json:"is_technician"`
	IsAdminAccess bool            `json:"is_admin_access"` // grants admin screens without the admin role
	BaseSalary    decimal.Decimal `json:"base_salary"`
	FixedPerJob   decimal.Decimal `json:"fixed_per_job"`
	Version       int             `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// IsActive is false for suspended accounts.
func (u *User) IsActive() bool {
	return u.Status != UserStatusSuspended
}

// HasAdminAccess covers admin, ceo and staff flagged with admin access.
func (u *User) HasAdminAccess() bool {
	return u.Role == RoleAdmin || u.Role == RoleCEO || u.IsAdminAccess
}

// SignupRequest represents the request body for signup
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse represents the response after successful authentication
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type EmailLinkRequest struct {
	Email string `json:"email"`
}

type TokenRequest struct {
	Token string `json:"token"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type UpdateProfileRequest struct {
	Name string `json:"name"`
}

// UpdateUserRequest is the admin edit of a staff record. Nil fields are left alone.
type UpdateUserRequest struct {
	Name          *string          `json:"name,omitempty"`
	Role          *Role            `json:"role,omitempty"`
	IsTechnician  *bool            `json:"is_technician,omitempty"`
	IsAdminAccess *bool            `json:"is_admin_access,omitempty"`
	BaseSalary    *decimal.Decimal `json:"base_salary,omitempty"`
	FixedPerJob   *decimal.Decimal `json:"fixed_per_job,omitempty"`
	Version       *int             `json:"version,omitempty"`
}

// SessionUser is the view of the signed-in account returned by /api/me.
type SessionUser struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	EmailVerified  bool      `json:"email_verified"`
	Name           string    `json:"name"`
	Role           Role      `json:"role"`
	HasAdminAccess bool      `json:"has_admin_access"`
	IsTechnician   bool      `json:"is_technician"`
}
