package domain

import (
	"context"
	"time"
)

// BlockType is the kind of a pomodoro block.
type BlockType string

const (
	BlockTypeWork  BlockType = "work"
	BlockTypeBreak BlockType = "break"
)

// Default block lengths in minutes.
const (
	DefaultWorkMinutes  = 25
	DefaultBreakMinutes = 5
)

// Valid reports whether t is one of the known block types.
func (t BlockType) Valid() bool {
	return t == BlockTypeWork || t == BlockTypeBreak
}

// DefaultDuration returns the length used when a block is created without one.
func (t BlockType) DefaultDuration() int {
	if t == BlockTypeBreak {
		return DefaultBreakMinutes
	}
	return DefaultWorkMinutes
}

// PomodoroBlockRow represents a pomodoro block record.
// OwnerID is the user id of the parent study session; it is filled by GetByID.
type PomodoroBlockRow struct {
	ID              int
	StudySessionID  int
	BlockType       BlockType
	DurationMinutes int
	Completed       bool
	StartedAt       *time.Time
	EndedAt         *time.Time
	OwnerID         int
}

// PomodoroBlockRepository defines the data-access contract for pomodoro blocks.
type PomodoroBlockRepository interface {
	// ListBySession returns the blocks of a study session in storage order.
	ListBySession(ctx context.Context, studySessionID int) ([]PomodoroBlockRow, error)

	// GetByID returns the block together with the id of the user owning its session.
	// Returns (nil, nil) when no block is found.
	GetByID(ctx context.Context, id int) (*PomodoroBlockRow, error)

	// Create inserts the block and fills in its ID.
	Create(ctx context.Context, row *PomodoroBlockRow) error

	// Complete marks the block completed at endedAt and, for work blocks, adds its
	// duration to the parent session's total_minutes. Both changes commit together
	// and the increment is a single atomic update.
	// Returns (nil, nil) when no block is found.
	Complete(ctx context.Context, id int, endedAt time.Time) (*PomodoroBlockRow, error)

	// Delete removes the block. total_minutes of the parent session is not adjusted.
	Delete(ctx context.Context, id int) error
}
