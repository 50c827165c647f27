package v1

import (
	"context"
	"fmt"
	"math"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/study-service/internal/core/domain"
	"github.com/duynhne/study-service/middleware"
)

// StudySessionService implements CRUD over study sessions scoped to their owner.
type StudySessionService struct {
	sessions domain.StudySessionRepository
	blocks   domain.PomodoroBlockRepository
}

// NewStudySessionService creates a new StudySessionService.
func NewStudySessionService(sessions domain.StudySessionRepository, blocks domain.PomodoroBlockRepository) *StudySessionService {
	return &StudySessionService{sessions: sessions, blocks: blocks}
}

func startStudySessionSpan(ctx context.Context, name string, userID int) (context.Context, trace.Span) {
	return middleware.StartSpan(ctx, name, trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Int("user.id", userID),
	))
}

// List returns every study session owned by userID with its block count.
func (s *StudySessionService) List(ctx context.Context, userID int) ([]domain.StudySessionSummary, error) {
	ctx, span := startStudySessionSpan(ctx, "study_sessions.list", userID)
	defer span.End()

	rows, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list study sessions for user %d: %w", userID, err)
	}

	out := make([]domain.StudySessionSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.StudySessionSummary{
			ID:            r.ID,
			Subject:       r.Subject,
			Goal:          r.Goal,
			TotalMinutes:  r.TotalMinutes,
			Completed:     r.Completed,
			CreatedAt:     r.CreatedAt,
			PomodoroCount: r.PomodoroCount,
		})
	}
	span.SetAttributes(attribute.Int("study_sessions.count", len(out)))
	return out, nil
}

// Get returns one owned study session with a summary of its blocks.
func (s *StudySessionService) Get(ctx context.Context, userID, id int) (*domain.StudySessionDetail, error) {
	ctx, span := startStudySessionSpan(ctx, "study_sessions.get", userID)
	defer span.End()

	row, err := ownedStudySession(ctx, s.sessions, userID, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	blocks, err := s.blocks.ListBySession(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list blocks of study session %d: %w", id, err)
	}

	detail := &domain.StudySessionDetail{
		ID:             row.ID,
		Subject:        row.Subject,
		Goal:           row.Goal,
		TotalMinutes:   row.TotalMinutes,
		Completed:      row.Completed,
		CreatedAt:      row.CreatedAt,
		PomodoroBlocks: make([]domain.PomodoroBlockSummary, 0, len(blocks)),
	}
	for _, b := range blocks {
		detail.PomodoroBlocks = append(detail.PomodoroBlocks, domain.PomodoroBlockSummary{
			ID:              b.ID,
			BlockType:       b.BlockType,
			DurationMinutes: b.DurationMinutes,
			Completed:       b.Completed,
		})
	}
	return detail, nil
}

// Create starts a new study session for userID with zero minutes logged.
func (s *StudySessionService) Create(ctx context.Context, userID int, req domain.CreateStudySessionRequest) (*domain.StudySession, error) {
	ctx, span := startStudySessionSpan(ctx, "study_sessions.create", userID)
	defer span.End()

	if req.Subject == "" {
		return nil, ErrSubjectRequired
	}

	row := &domain.StudySessionRow{UserID: userID, Subject: req.Subject}
	if req.Goal != nil {
		row.Goal = *req.Goal
	}

	if err := s.sessions.Create(ctx, row); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("insert study session: %w", err)
	}

	span.SetAttributes(attribute.Int("study_session.id", row.ID))
	return toStudySession(row), nil
}

// Update applies the fields present in req to an owned study session.
func (s *StudySessionService) Update(ctx context.Context, userID, id int, req domain.UpdateStudySessionRequest) (*domain.StudySession, error) {
	ctx, span := startStudySessionSpan(ctx, "study_sessions.update", userID)
	defer span.End()

	if _, err := ownedStudySession(ctx, s.sessions, userID, id); err != nil {
		span.RecordError(err)
		return nil, err
	}

	if req.Subject != nil && *req.Subject == "" {
		return nil, ErrSubjectRequired
	}
	if req.TotalMinutes != nil && (*req.TotalMinutes < 0 || *req.TotalMinutes > math.MaxInt32) {
		return nil, ErrInvalidTotalMinutes
	}

	row, err := s.sessions.Update(ctx, id, domain.StudySessionPatch{
		Subject:      req.Subject,
		Goal:         req.Goal,
		TotalMinutes: req.TotalMinutes,
		Completed:    req.Completed,
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("update study session %d: %w", id, err)
	}
	if row == nil {
		return nil, fmt.Errorf("update study session %d: %w", id, ErrStudySessionNotFound)
	}

	return toStudySession(row), nil
}

// Delete removes an owned study session together with its blocks.
func (s *StudySessionService) Delete(ctx context.Context, userID, id int) error {
	ctx, span := startStudySessionSpan(ctx, "study_sessions.delete", userID)
	defer span.End()

	if _, err := ownedStudySession(ctx, s.sessions, userID, id); err != nil {
		span.RecordError(err)
		return err
	}

	if err := s.sessions.Delete(ctx, id); err != nil {
		span.RecordError(err)
		return fmt.Errorf("delete study session %d: %w", id, err)
	}
	return nil
}

func toStudySession(r *domain.StudySessionRow) *domain.StudySession {
	return &domain.StudySession{
		ID:           r.ID,
		Subject:      r.Subject,
		Goal:         r.Goal,
		TotalMinutes: r.TotalMinutes,
		Completed:    r.Completed,
	}
}
