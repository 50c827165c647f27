package domain

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicate is matched (via errors.Is) by *DuplicateError.
var ErrDuplicate = errors.New("duplicate value")

// DuplicateError reports a unique constraint violation on a user column.
type DuplicateError struct {
	Field string // "username" or "email"
}

func (e *DuplicateError) Error() string { return e.Field + " already exists" }

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// UserRow represents a user record returned from the database.
// It includes the password hash so the Logic layer can verify credentials.
type UserRow struct {
	ID           int
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// UserRepository defines the data-access contract for user operations.
// Implementations live in internal/core/repository (Core layer).
// The Logic layer depends on this interface only, never on SQL or pgx directly.
type UserRepository interface {
	// GetByUsername returns the user matching the given username.
	// Returns (nil, nil) when no user is found.
	GetByUsername(ctx context.Context, username string) (*UserRow, error)

	// GetByID returns the user with the given id.
	// Returns (nil, nil) when no user is found.
	GetByID(ctx context.Context, id int) (*UserRow, error)

	// ExistsByUsername returns true when the username is already taken.
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// ExistsByEmail returns true when the email is already registered.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Create inserts a new user and returns the generated user ID.
	// A uniqueness violation is reported as *DuplicateError.
	Create(ctx context.Context, username, email, passwordHash string) (int, error)
}
