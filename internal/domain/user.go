package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents an authenticated application user.
type User struct {
	ID        uuid.UUID
	Email     string
	Name      string
	Role      UserRole
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserSettings holds per-user scheduler and selector preferences.
type UserSettings struct {
	UserID           uuid.UUID
	NewCardsPerDay   int
	DesiredRetention float64
	MaxIntervalDays  int
	Timezone         string
	UpdatedAt        time.Time
}

// DefaultUserSettings returns UserSettings with sensible defaults.
func DefaultUserSettings(userID uuid.UUID) UserSettings {
	return UserSettings{
		UserID:           userID,
		NewCardsPerDay:   20,
		DesiredRetention: 0.9,
		MaxIntervalDays:  365,
		Timezone:         "UTC",
	}
}

// Session is an opaque, server-side authentication session. The value
// presented to the client (as a cookie or bearer token) is the raw token;
// only its hash is ever persisted, so a leaked database cannot be used to
// forge sessions.
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// IsRevoked returns true if the session has been explicitly revoked.
func (s *Session) IsRevoked() bool {
	return s.RevokedAt != nil
}

// IsExpired returns true if the session has expired relative to now.
func (s *Session) IsExpired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}

// IsValid returns true if the session can still authenticate a request.
func (s *Session) IsValid(now time.Time) bool {
	return !s.IsRevoked() && !s.IsExpired(now)
}
