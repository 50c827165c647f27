package v1

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duynhne/study-service/internal/core/domain"
)

func TestStudySessionCreate(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)

	created, err := s.sessions.Create(ctx, 1, domain.CreateStudySessionRequest{Subject: "Math"})
	require.NoError(t, err)
	assert.Equal(t, &domain.StudySession{ID: 1, Subject: "Math", Goal: "", TotalMinutes: 0, Completed: false}, created)

	_, err = s.sessions.Create(ctx, 1, domain.CreateStudySessionRequest{Subject: ""})
	assert.ErrorIs(t, err, ErrSubjectRequired)

	// Only an empty subject is rejected; whitespace is kept as given.
	blank, err := s.sessions.Create(ctx, 1, domain.CreateStudySessionRequest{Subject: "  "})
	require.NoError(t, err)
	assert.Equal(t, "  ", blank.Subject)
}

func TestStudySessionListIsScopedToOwner(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)

	_, err := s.sessions.Create(ctx, 1, domain.CreateStudySessionRequest{Subject: "Math"})
	require.NoError(t, err)
	_, err = s.sessions.Create(ctx, 2, domain.CreateStudySessionRequest{Subject: "History"})
	require.NoError(t, err)
	mine, err := s.sessions.Create(ctx, 1, domain.CreateStudySessionRequest{Subject: "Art", Goal: ptr("sketch")})
	require.NoError(t, err)

	_, err = s.blocks.Create(ctx, 1, mine.ID, domain.CreatePomodoroBlockRequest{})
	require.NoError(t, err)

	list, err := s.sessions.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, item := range list {
		assert.NotEqual(t, "History", item.Subject)
	}
	assert.Equal(t, "sketch", list[1].Goal)
	assert.Equal(t, 1, list[1].PomodoroCount)
	assert.Equal(t, 0, list[0].PomodoroCount)
}

func TestStudySessionGetHidesForeignSessions(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)

	theirs, err := s.sessions.Create(ctx, 2, domain.CreateStudySessionRequest{Subject: "History"})
	require.NoError(t, err)

	_, err = s.sessions.Get(ctx, 1, theirs.ID)
	assert.ErrorIs(t, err, ErrStudySessionNotFound)

	_, err = s.sessions.Get(ctx, 1, 999)
	assert.ErrorIs(t, err, ErrStudySessionNotFound)

	err = s.sessions.Delete(ctx, 1, theirs.ID)
	assert.ErrorIs(t, err, ErrStudySessionNotFound)
}

func TestStudySessionGetIncludesBlocks(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)

	created, err := s.sessions.Create(ctx, 1, domain.CreateStudySessionRequest{Subject: "Math"})
	require.NoError(t, err)
	_, err = s.blocks.Create(ctx, 1, created.ID, domain.CreatePomodoroBlockRequest{})
	require.NoError(t, err)
	_, err = s.blocks.Create(ctx, 1, created.ID, domain.CreatePomodoroBlockRequest{BlockType: ptr("break")})
	require.NoError(t, err)

	detail, err := s.sessions.Get(ctx, 1, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.PomodoroBlockSummary{
		{ID: 1, BlockType: domain.BlockTypeWork, DurationMinutes: 25},
		{ID: 2, BlockType: domain.BlockTypeBreak, DurationMinutes: 5},
	}, detail.PomodoroBlocks)
}

func TestStudySessionUpdate(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)

	created, err := s.sessions.Create(ctx, 1, domain.CreateStudySessionRequest{Subject: "Math", Goal: ptr("limits")})
	require.NoError(t, err)

	t.Run("partial", func(t *testing.T) {
		updated, err := s.sessions.Update(ctx, 1, created.ID, domain.UpdateStudySessionRequest{
			TotalMinutes: ptr(90),
			Completed:    ptr(true),
		})
		require.NoError(t, err)
		assert.Equal(t, "Math", updated.Subject)
		assert.Equal(t, "limits", updated.Goal)
		assert.Equal(t, 90, updated.TotalMinutes)
		assert.True(t, updated.Completed)
	})

	t.Run("rejects empty subject", func(t *testing.T) {
		_, err := s.sessions.Update(ctx, 1, created.ID, domain.UpdateStudySessionRequest{Subject: ptr("")})
		assert.ErrorIs(t, err, ErrSubjectRequired)
	})

	t.Run("rejects negative total", func(t *testing.T) {
		_, err := s.sessions.Update(ctx, 1, created.ID, domain.UpdateStudySessionRequest{TotalMinutes: ptr(-1)})
		assert.ErrorIs(t, err, ErrInvalidTotalMinutes)
	})

	t.Run("rejects total beyond int32", func(t *testing.T) {
		_, err := s.sessions.Update(ctx, 1, created.ID, domain.UpdateStudySessionRequest{TotalMinutes: ptr(math.MaxInt32 + 1)})
		assert.ErrorIs(t, err, ErrInvalidTotalMinutes)

		got, err := s.sessions.Update(ctx, 1, created.ID, domain.UpdateStudySessionRequest{TotalMinutes: ptr(math.MaxInt32)})
		require.NoError(t, err)
		assert.Equal(t, math.MaxInt32, got.TotalMinutes)

		_, err = s.sessions.Update(ctx, 1, created.ID, domain.UpdateStudySessionRequest{TotalMinutes: ptr(90)})
		require.NoError(t, err)
	})

	t.Run("foreign session", func(t *testing.T) {
		_, err := s.sessions.Update(ctx, 2, created.ID, domain.UpdateStudySessionRequest{Goal: ptr("x")})
		assert.ErrorIs(t, err, ErrStudySessionNotFound)
	})

	t.Run("empty patch returns current state", func(t *testing.T) {
		got, err := s.sessions.Update(ctx, 1, created.ID, domain.UpdateStudySessionRequest{})
		require.NoError(t, err)
		assert.Equal(t, 90, got.TotalMinutes)
	})
}

func TestStudySessionDeleteCascadesToBlocks(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)

	created, err := s.sessions.Create(ctx, 1, domain.CreateStudySessionRequest{Subject: "Math"})
	require.NoError(t, err)
	block, err := s.blocks.Create(ctx, 1, created.ID, domain.CreatePomodoroBlockRequest{})
	require.NoError(t, err)

	require.NoError(t, s.sessions.Delete(ctx, 1, created.ID))

	_, err = s.blocks.Complete(ctx, 1, block.ID)
	assert.ErrorIs(t, err, ErrBlockNotFound)
	_, err = s.blocks.List(ctx, 1, created.ID)
	assert.ErrorIs(t, err, ErrStudySessionNotFound)
}
