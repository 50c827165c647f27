package v1

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/study-service/internal/core/domain"
	"github.com/duynhne/study-service/middleware"
)

// PomodoroBlockService implements operations on blocks nested under study sessions.
// Every block operation is authorized through the block's parent session owner.
type PomodoroBlockService struct {
	sessions domain.StudySessionRepository
	blocks   domain.PomodoroBlockRepository
	now      func() time.Time
}

// NewPomodoroBlockService creates a new PomodoroBlockService.
func NewPomodoroBlockService(sessions domain.StudySessionRepository, blocks domain.PomodoroBlockRepository) *PomodoroBlockService {
	return &PomodoroBlockService{
		sessions: sessions,
		blocks:   blocks,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func startBlockSpan(ctx context.Context, name string, userID int, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("layer", "logic"), attribute.Int("user.id", userID))
	return middleware.StartSpan(ctx, name, trace.WithAttributes(attrs...))
}

// List returns every block of an owned study session.
func (s *PomodoroBlockService) List(ctx context.Context, userID, studySessionID int) ([]domain.PomodoroBlock, error) {
	ctx, span := startBlockSpan(ctx, "pomodoro_blocks.list", userID, attribute.Int("study_session.id", studySessionID))
	defer span.End()

	if _, err := ownedStudySession(ctx, s.sessions, userID, studySessionID); err != nil {
		span.RecordError(err)
		return nil, err
	}

	rows, err := s.blocks.ListBySession(ctx, studySessionID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list blocks of study session %d: %w", studySessionID, err)
	}

	out := make([]domain.PomodoroBlock, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.PomodoroBlock{
			ID:              r.ID,
			BlockType:       r.BlockType,
			DurationMinutes: r.DurationMinutes,
			Completed:       r.Completed,
			StartedAt:       r.StartedAt,
			EndedAt:         r.EndedAt,
			StudySessionID:  r.StudySessionID,
		})
	}
	return out, nil
}

// Create starts a block under an owned study session. block_type defaults to work
// and duration_minutes to the type's default length.
func (s *PomodoroBlockService) Create(ctx context.Context, userID, studySessionID int, req domain.CreatePomodoroBlockRequest) (*domain.CreatedPomodoroBlock, error) {
	ctx, span := startBlockSpan(ctx, "pomodoro_blocks.create", userID, attribute.Int("study_session.id", studySessionID))
	defer span.End()

	if _, err := ownedStudySession(ctx, s.sessions, userID, studySessionID); err != nil {
		span.RecordError(err)
		return nil, err
	}

	blockType := domain.BlockTypeWork
	if req.BlockType != nil {
		blockType = domain.BlockType(*req.BlockType)
		if !blockType.Valid() {
			return nil, fmt.Errorf("block type %q: %w", *req.BlockType, ErrInvalidBlockType)
		}
	}

	duration := blockType.DefaultDuration()
	if req.DurationMinutes != nil {
		if *req.DurationMinutes <= 0 || *req.DurationMinutes > math.MaxInt32 {
			return nil, ErrInvalidDuration
		}
		duration = *req.DurationMinutes
	}

	startedAt := s.now()
	row := &domain.PomodoroBlockRow{
		StudySessionID:  studySessionID,
		BlockType:       blockType,
		DurationMinutes: duration,
		StartedAt:       &startedAt,
	}
	if err := s.blocks.Create(ctx, row); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("insert pomodoro block: %w", err)
	}

	span.SetAttributes(attribute.Int("pomodoro_block.id", row.ID), attribute.String("block_type", string(blockType)))
	return &domain.CreatedPomodoroBlock{
		ID:              row.ID,
		BlockType:       row.BlockType,
		DurationMinutes: row.DurationMinutes,
		Completed:       row.Completed,
		StartedAt:       row.StartedAt,
		StudySessionID:  row.StudySessionID,
	}, nil
}

// Complete marks an owned block completed and, for work blocks, adds its duration
// to the session total. Completing an already completed block adds it again.
func (s *PomodoroBlockService) Complete(ctx context.Context, userID, id int) (*domain.CompletedPomodoroBlock, error) {
	ctx, span := startBlockSpan(ctx, "pomodoro_blocks.complete", userID, attribute.Int("pomodoro_block.id", id))
	defer span.End()

	if _, err := ownedBlock(ctx, s.blocks, userID, id); err != nil {
		span.RecordError(err)
		return nil, err
	}

	row, err := s.blocks.Complete(ctx, id, s.now())
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("complete pomodoro block %d: %w", id, err)
	}
	if row == nil {
		return nil, fmt.Errorf("complete pomodoro block %d: %w", id, ErrBlockNotFound)
	}

	middleware.PomodoroBlocksCompleted.WithLabelValues(string(row.BlockType)).Inc()
	if row.BlockType == domain.BlockTypeWork {
		middleware.StudyMinutesLogged.Add(float64(row.DurationMinutes))
	}
	span.SetAttributes(attribute.String("block_type", string(row.BlockType)))

	return &domain.CompletedPomodoroBlock{
		ID:              row.ID,
		BlockType:       row.BlockType,
		DurationMinutes: row.DurationMinutes,
		Completed:       row.Completed,
		EndedAt:         row.EndedAt,
	}, nil
}

// Delete removes an owned block. Minutes it already added to the session stay.
func (s *PomodoroBlockService) Delete(ctx context.Context, userID, id int) error {
	ctx, span := startBlockSpan(ctx, "pomodoro_blocks.delete", userID, attribute.Int("pomodoro_block.id", id))
	defer span.End()

	if _, err := ownedBlock(ctx, s.blocks, userID, id); err != nil {
		span.RecordError(err)
		return err
	}

	if err := s.blocks.Delete(ctx, id); err != nil {
		span.RecordError(err)
		return fmt.Errorf("delete pomodoro block %d: %w", id, err)
	}
	return nil
}
