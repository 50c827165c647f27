package v1

import (
	"context"
	"fmt"

	"github.com/duynhne/study-service/internal/core/domain"
)

// ownsStudySession reports whether userID owns s.
func ownsStudySession(userID int, s *domain.StudySessionRow) bool {
	return s != nil && s.UserID == userID
}

// ownsBlock reports whether userID owns b through its parent study session.
func ownsBlock(userID int, b *domain.PomodoroBlockRow) bool {
	return b != nil && b.OwnerID == userID
}

// ownedStudySession loads a study session for userID. Sessions that do not exist
// and sessions of other users both yield ErrStudySessionNotFound.
func ownedStudySession(ctx context.Context, repo domain.StudySessionRepository, userID, id int) (*domain.StudySessionRow, error) {
	row, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("query study session %d: %w", id, err)
	}
	if !ownsStudySession(userID, row) {
		return nil, fmt.Errorf("get study session %d: %w", id, ErrStudySessionNotFound)
	}
	return row, nil
}

// ownedBlock loads a pomodoro block for userID. A missing block yields
// ErrBlockNotFound; a block under another user's session yields ErrForbidden.
func ownedBlock(ctx context.Context, repo domain.PomodoroBlockRepository, userID, id int) (*domain.PomodoroBlockRow, error) {
	row, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("query pomodoro block %d: %w", id, err)
	}
	if row == nil {
		return nil, fmt.Errorf("get pomodoro block %d: %w", id, ErrBlockNotFound)
	}
	if !ownsBlock(userID, row) {
		return nil, fmt.Errorf("access pomodoro block %d: %w", id, ErrForbidden)
	}
	return row, nil
}
