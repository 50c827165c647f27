package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/duynhne/study-service/internal/core/domain"
)

// PgxStudySessionRepository implements domain.StudySessionRepository using pgx.
type PgxStudySessionRepository struct {
	db DB
}

// NewStudySessionRepository creates a new PgxStudySessionRepository.
func NewStudySessionRepository(db DB) *PgxStudySessionRepository {
	return &PgxStudySessionRepository{db: db}
}

const studySessionColumns = `id, user_id, subject, goal, total_minutes, completed, created_at`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// ListByUser returns the user's sessions ordered by id, each with its block count.
func (r *PgxStudySessionRepository) ListByUser(ctx context.Context, userID int) ([]domain.StudySessionRow, error) {
	query := `
		SELECT s.id, s.user_id, s.subject, s.goal, s.total_minutes, s.completed, s.created_at,
		       COUNT(b.id)
		FROM study_sessions s
		LEFT JOIN pomodoro_blocks b ON b.study_session_id = s.id
		WHERE s.user_id = $1
		GROUP BY s.id
		ORDER BY s.id
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]domain.StudySessionRow, 0)
	for rows.Next() {
		var s domain.StudySessionRow
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.Subject, &s.Goal, &s.TotalMinutes, &s.Completed, &s.CreatedAt,
			&s.PomodoroCount,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

// GetByID returns the session with the given id.
// Returns (nil, nil) when no session is found.
func (r *PgxStudySessionRepository) GetByID(ctx context.Context, id int) (*domain.StudySessionRow, error) {
	query := `SELECT ` + studySessionColumns + ` FROM study_sessions WHERE id = $1`
	return scanStudySession(r.db.QueryRow(ctx, query, id))
}

// Create inserts the session and fills in its ID and CreatedAt.
func (r *PgxStudySessionRepository) Create(ctx context.Context, row *domain.StudySessionRow) error {
	query := `
		INSERT INTO study_sessions (user_id, subject, goal, total_minutes, completed)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	return r.db.QueryRow(ctx, query, row.UserID, row.Subject, row.Goal, row.TotalMinutes, row.Completed).
		Scan(&row.ID, &row.CreatedAt)
}

// Update applies only the fields present in patch.
// Returns (nil, nil) when no session is found.
func (r *PgxStudySessionRepository) Update(ctx context.Context, id int, patch domain.StudySessionPatch) (*domain.StudySessionRow, error) {
	if patch.Empty() {
		return r.GetByID(ctx, id)
	}

	q := psql.Update("study_sessions").Where(sq.Eq{"id": id})
	if patch.Subject != nil {
		q = q.Set("subject", *patch.Subject)
	}
	if patch.Goal != nil {
		q = q.Set("goal", *patch.Goal)
	}
	if patch.TotalMinutes != nil {
		q = q.Set("total_minutes", *patch.TotalMinutes)
	}
	if patch.Completed != nil {
		q = q.Set("completed", *patch.Completed)
	}

	query, args, err := q.Suffix("RETURNING " + studySessionColumns).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}

	return scanStudySession(r.db.QueryRow(ctx, query, args...))
}

// Delete removes the session; pomodoro_blocks rows go with it via ON DELETE CASCADE.
func (r *PgxStudySessionRepository) Delete(ctx context.Context, id int) error {
	_, err := r.db.Exec(ctx, `DELETE FROM study_sessions WHERE id = $1`, id)
	return err
}

func scanStudySession(row pgx.Row) (*domain.StudySessionRow, error) {
	var s domain.StudySessionRow
	err := row.Scan(&s.ID, &s.UserID, &s.Subject, &s.Goal, &s.TotalMinutes, &s.Completed, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}
