package domain

import (
	"context"
	"time"
)

// StudySessionRow represents a study session record.
// PomodoroCount is only populated by ListByUser.
type StudySessionRow struct {
	ID            int
	UserID        int
	Subject       string
	Goal          string
	TotalMinutes  int
	Completed     bool
	CreatedAt     time.Time
	PomodoroCount int
}

// StudySessionPatch carries the fields of a partial update. Nil fields are left untouched.
type StudySessionPatch struct {
	Subject      *string
	Goal         *string
	TotalMinutes *int
	Completed    *bool
}

// Empty reports whether the patch changes nothing.
func (p StudySessionPatch) Empty() bool {
	return p.Subject == nil && p.Goal == nil && p.TotalMinutes == nil && p.Completed == nil
}

// StudySessionRepository defines the data-access contract for study sessions.
type StudySessionRepository interface {
	// ListByUser returns the user's sessions in storage order, each with its block count.
	ListByUser(ctx context.Context, userID int) ([]StudySessionRow, error)

	// GetByID returns the session with the given id regardless of owner.
	// Returns (nil, nil) when no session is found.
	GetByID(ctx context.Context, id int) (*StudySessionRow, error)

	// Create inserts the session and fills in its ID and CreatedAt.
	Create(ctx context.Context, row *StudySessionRow) error

	// Update applies the patch and returns the updated row.
	// Returns (nil, nil) when no session is found.
	Update(ctx context.Context, id int, patch StudySessionPatch) (*StudySessionRow, error)

	// Delete removes the session and, by cascade, its pomodoro blocks.
	Delete(ctx context.Context, id int) error
}
