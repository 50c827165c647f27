package core

import (
	"context"
	"fmt"
	"time"

	"github.com/duynhne/study-service/internal/core/domain"
	"github.com/duynhne/study-service/internal/core/repository"
)

// HashFunc turns a plaintext password into the stored hash.
type HashFunc func(password string) (string, error)

// SeedSummary reports what Seed created.
type SeedSummary struct {
	Users          int
	StudySessions  int
	PomodoroBlocks int
}

// TruncateAll removes every row from the application tables and restarts the id sequences.
func TruncateAll(ctx context.Context, db repository.DB) error {
	_, err := db.Exec(ctx, `TRUNCATE pomodoro_blocks, study_sessions, sessions, users RESTART IDENTITY CASCADE`)
	return err
}

// Reseed empties the store with truncate and loads the development fixtures again.
func Reseed(ctx context.Context, truncate func(context.Context) error, repos repository.Repositories, hash HashFunc) (SeedSummary, error) {
	if err := truncate(ctx); err != nil {
		return SeedSummary{}, fmt.Errorf("clear tables: %w", err)
	}
	return Seed(ctx, repos, hash)
}

// Seed inserts the development fixtures: two users, two study sessions for the
// first one and three blocks in its first session. Tables are expected to be empty.
func Seed(ctx context.Context, repos repository.Repositories, hash HashFunc) (SeedSummary, error) {
	var sum SeedSummary

	users := []struct{ username, email, password string }{
		{"greg", "greg@example.com", "password123"},
		{"testuser", "test@example.com", "test123"},
	}
	ids := make([]int, 0, len(users))
	for _, u := range users {
		h, err := hash(u.password)
		if err != nil {
			return sum, fmt.Errorf("hash password for %q: %w", u.username, err)
		}
		id, err := repos.Users.Create(ctx, u.username, u.email, h)
		if err != nil {
			return sum, fmt.Errorf("create user %q: %w", u.username, err)
		}
		ids = append(ids, id)
		sum.Users++
	}

	sessions := []*domain.StudySessionRow{
		{UserID: ids[0], Subject: "Flask Authentication", Goal: "Understand session management and password hashing"},
		{UserID: ids[0], Subject: "React State Management", Goal: "Build a working Pomodoro timer component"},
	}
	for _, s := range sessions {
		if err := repos.StudySessions.Create(ctx, s); err != nil {
			return sum, fmt.Errorf("create study session %q: %w", s.Subject, err)
		}
		sum.StudySessions++
	}

	now := time.Now().UTC()
	blocks := []*domain.PomodoroBlockRow{
		{StudySessionID: sessions[0].ID, BlockType: domain.BlockTypeWork, DurationMinutes: 25, Completed: true, StartedAt: &now},
		{StudySessionID: sessions[0].ID, BlockType: domain.BlockTypeBreak, DurationMinutes: 5, Completed: true},
		{StudySessionID: sessions[0].ID, BlockType: domain.BlockTypeWork, DurationMinutes: 25},
	}
	for _, b := range blocks {
		if err := repos.PomodoroBlocks.Create(ctx, b); err != nil {
			return sum, fmt.Errorf("create pomodoro block: %w", err)
		}
		sum.PomodoroBlocks++
	}

	return sum, nil
}
