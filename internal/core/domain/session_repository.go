package domain

import (
	"context"
	"time"
)

// SessionRow is a server-side authenticated session, keyed by an opaque token.
type SessionRow struct {
	Token     string
	UserID    int
	ExpiresAt time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s *SessionRow) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SessionRepository defines the data-access contract for authenticated sessions.
// Implementations live in internal/core/repository (Core layer).
type SessionRepository interface {
	// Create inserts a new session for the given user.
	Create(ctx context.Context, userID int, token string, expiresAt time.Time) error

	// GetByToken looks up the session by token.
	// Returns (nil, nil) when the token does not match any session.
	GetByToken(ctx context.Context, token string) (*SessionRow, error)

	// Delete removes the session; deleting an unknown token is not an error.
	Delete(ctx context.Context, token string) error
}
