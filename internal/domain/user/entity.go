package user

import (
	"time"

	"github.com/google/uuid"
)

// User represents the users table
type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserSession represents the user_sessions table
type UserSession struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	RefreshTokenHash string
	UserAgent        string
	IPAddress        string
	IsRevoked        bool
	ExpiresAt        time.Time
	CreatedAt        time.Time
}

// Active reports whether the session can still authenticate requests at now.
func (s UserSession) Active(now time.Time) bool {
	return !s.IsRevoked && now.Before(s.ExpiresAt)
}
