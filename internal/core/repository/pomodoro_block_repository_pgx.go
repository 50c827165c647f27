package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/duynhne/study-service/internal/core/domain"
)

// PgxPomodoroBlockRepository implements domain.PomodoroBlockRepository using pgx.
type PgxPomodoroBlockRepository struct {
	db DB
}

// NewPomodoroBlockRepository creates a new PgxPomodoroBlockRepository.
func NewPomodoroBlockRepository(db DB) *PgxPomodoroBlockRepository {
	return &PgxPomodoroBlockRepository{db: db}
}

const blockColumns = `id, study_session_id, block_type, duration_minutes, completed, started_at, ended_at`

// ListBySession returns the blocks of a study session ordered by id.
func (r *PgxPomodoroBlockRepository) ListBySession(ctx context.Context, studySessionID int) ([]domain.PomodoroBlockRow, error) {
	query := `SELECT ` + blockColumns + ` FROM pomodoro_blocks WHERE study_session_id = $1 ORDER BY id`

	rows, err := r.db.Query(ctx, query, studySessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blocks := make([]domain.PomodoroBlockRow, 0)
	for rows.Next() {
		var sb scannedBlock
		if err := rows.Scan(sb.dest()...); err != nil {
			return nil, err
		}
		blocks = append(blocks, sb.row())
	}

	return blocks, rows.Err()
}

// GetByID returns the block joined with the owner of its study session.
// Returns (nil, nil) when no block is found.
func (r *PgxPomodoroBlockRepository) GetByID(ctx context.Context, id int) (*domain.PomodoroBlockRow, error) {
	query := `
		SELECT b.id, b.study_session_id, b.block_type, b.duration_minutes, b.completed,
		       b.started_at, b.ended_at, s.user_id
		FROM pomodoro_blocks b
		JOIN study_sessions s ON s.id = b.study_session_id
		WHERE b.id = $1
	`

	var sb scannedBlock
	var ownerID int
	err := r.db.QueryRow(ctx, query, id).Scan(append(sb.dest(), &ownerID)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	row := sb.row()
	row.OwnerID = ownerID
	return &row, nil
}

// Create inserts the block and fills in its ID.
func (r *PgxPomodoroBlockRepository) Create(ctx context.Context, row *domain.PomodoroBlockRow) error {
	query := `
		INSERT INTO pomodoro_blocks
			(study_session_id, block_type, duration_minutes, completed, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	return r.db.QueryRow(ctx, query,
		row.StudySessionID, string(row.BlockType), row.DurationMinutes, row.Completed,
		timestamptz(row.StartedAt), timestamptz(row.EndedAt),
	).Scan(&row.ID)
}

// Complete marks the block completed and, for work blocks, increments the parent
// session's total_minutes in the same transaction.
// Returns (nil, nil) when no block is found.
func (r *PgxPomodoroBlockRepository) Complete(ctx context.Context, id int, endedAt time.Time) (*domain.PomodoroBlockRow, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	// No-op once committed.
	defer func() { _ = tx.Rollback(ctx) }()

	query := `UPDATE pomodoro_blocks SET completed = TRUE, ended_at = $2 WHERE id = $1 RETURNING ` + blockColumns

	var sb scannedBlock
	if err := tx.QueryRow(ctx, query, id, endedAt).Scan(sb.dest()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	row := sb.row()

	if row.BlockType == domain.BlockTypeWork {
		_, err := tx.Exec(ctx,
			`UPDATE study_sessions SET total_minutes = total_minutes + $1 WHERE id = $2`,
			row.DurationMinutes, row.StudySessionID,
		)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &row, nil
}

// Delete removes the block.
func (r *PgxPomodoroBlockRepository) Delete(ctx context.Context, id int) error {
	_, err := r.db.Exec(ctx, `DELETE FROM pomodoro_blocks WHERE id = $1`, id)
	return err
}

// scannedBlock holds scan targets for one pomodoro_blocks row in blockColumns order.
type scannedBlock struct {
	id, studySessionID, duration int
	blockType                    string
	completed                    bool
	startedAt, endedAt           pgtype.Timestamptz
}

func (s *scannedBlock) dest() []any {
	return []any{&s.id, &s.studySessionID, &s.blockType, &s.duration, &s.completed, &s.startedAt, &s.endedAt}
}

func (s *scannedBlock) row() domain.PomodoroBlockRow {
	return domain.PomodoroBlockRow{
		ID:              s.id,
		StudySessionID:  s.studySessionID,
		BlockType:       domain.BlockType(s.blockType),
		DurationMinutes: s.duration,
		Completed:       s.completed,
		StartedAt:       timePtr(s.startedAt),
		EndedAt:         timePtr(s.endedAt),
	}
}

func timePtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time.UTC()
	return &t
}

func timestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}
