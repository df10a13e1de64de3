// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"time"
)

// User represents an authenticated user in the system.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Session represents an active user session bound to the client that created it.
type Session struct {
	Token     string
	UserID    int64
	UserAgent string
	IP        string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// AccessGrant records which health data operations a user has allowed.
// Read gates every fetch; Share gates writing new samples.
type AccessGrant struct {
	UserID    int64     `json:"-"`
	Read      bool      `json:"read"`
	Share     bool      `json:"share"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserRepository defines the port for user persistence operations.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, username, passwordHash string) (*User, error)
	Count(ctx context.Context) (int, error)
}

// SessionRepository defines the port for session persistence operations.
type SessionRepository interface {
	Create(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error
	GetByToken(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// AccessRepository defines the port for access grant persistence. GetGrant
// returns nil when the user never answered.
type AccessRepository interface {
	GetGrant(ctx context.Context, userID int64) (*AccessGrant, error)
	SaveGrant(ctx context.Context, userID int64, read, share bool) error
}
