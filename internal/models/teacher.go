package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TeacherRole represents the available roles for the RBAC system.
type TeacherRole string

const (
	RoleTeacher TeacherRole = "Teacher"
	RoleAdmin   TeacherRole = "Admin"
)

// Teacher represents an application user stored in the teachers table.
type Teacher struct {
	ID           int64       `db:"id" json:"id"`
	Name         string      `db:"name" json:"name"`
	Email        string      `db:"email" json:"email"`
	PasswordHash string      `db:"password_hash" json:"-"`
	Role         TeacherRole `db:"role" json:"role"`
	Active       bool        `db:"active" json:"active"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// TeacherInfo is the roster projection exposed to clients.
type TeacherInfo struct {
	ID   int64       `db:"id" json:"id"`
	Name string      `db:"name" json:"name"`
	Role TeacherRole `db:"role" json:"role"`
}

// JWTClaims carries the caller identity on every authenticated request.
type JWTClaims struct {
	TeacherID int64       `json:"teacher_id"`
	Name      string      `json:"name"`
	Role      TeacherRole `json:"role"`
	jwt.RegisteredClaims
}

// RefreshToken is a server-side session record for token rotation.
type RefreshToken struct {
	ID        string     `db:"id" json:"id"`
	TeacherID int64      `db:"teacher_id" json:"teacher_id"`
	Token     string     `db:"token" json:"-"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	Revoked   bool       `db:"revoked" json:"revoked"`
	RevokedAt *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
}
