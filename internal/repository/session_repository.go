package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/academic-scheduler/internal/models"
	"github.com/noah-isme/academic-scheduler/pkg/calendar"
)

const sessionColumns = `id, subject_id, topic_id, degree_id, batch_year, semester, branch_id, session_date, slot, kind,
lectures, studios, lecture_notes, studio_notes, assignment_id, due_date, completed, created_at, updated_at`

// SessionRepository persists subject_sessions rows.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// LockSubject takes a transaction-scoped advisory lock serialising writers of one subject.
func (r *SessionRepository) LockSubject(ctx context.Context, exec sqlx.ExtContext, subjectID string) error {
	const query = `SELECT pg_advisory_xact_lock(hashtext($1))`
	if _, err := r.exec(exec).ExecContext(ctx, query, "subject_sessions:"+subjectID); err != nil {
		return fmt.Errorf("lock subject sessions: %w", err)
	}
	return nil
}

// DeleteCollision removes sessions occupying the same context, date and slot as s.
func (r *SessionRepository) DeleteCollision(ctx context.Context, exec sqlx.ExtContext, s *models.Session) (int64, error) {
	const query = `
DELETE FROM subject_sessions
WHERE subject_id = $1
  AND topic_id IS NOT DISTINCT FROM $2
  AND batch_year = $3
  AND semester = $4
  AND branch_id IS NOT DISTINCT FROM $5
  AND session_date = $6
  AND LOWER(slot) = LOWER($7)`
	res, err := r.exec(exec).ExecContext(ctx, query,
		s.SubjectID, s.TopicID, s.BatchYear, s.Semester, s.BranchID, s.SessionDate, string(s.Slot))
	if err != nil {
		return 0, fmt.Errorf("delete colliding session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete colliding session rows: %w", err)
	}
	return affected, nil
}

// InsertBatch writes new sessions, assigning ids and timestamps.
func (r *SessionRepository) InsertBatch(ctx context.Context, exec sqlx.ExtContext, sessions []models.Session) error {
	if len(sessions) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO subject_sessions (id, subject_id, topic_id, degree_id, batch_year, semester, branch_id, session_date, slot, kind,
  lectures, studios, lecture_notes, studio_notes, assignment_id, due_date, completed, created_at, updated_at)
VALUES (:id, :subject_id, :topic_id, :degree_id, :batch_year, :semester, :branch_id, :session_date, :slot, :kind,
  :lectures, :studios, :lecture_notes, :studio_notes, :assignment_id, :due_date, :completed, :created_at, :updated_at)`

	for i := range sessions {
		s := &sessions[i]
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		s.UpdatedAt = now
		if _, err := sqlx.NamedExecContext(ctx, target, query, s); err != nil {
			return fmt.Errorf("insert session %s: %w", s.SessionDate.Format(calendar.DateLayout), err)
		}
	}
	return nil
}

// SumCounts totals lecture and studio units of a context inside [start, end].
func (r *SessionRepository) SumCounts(ctx context.Context, exec sqlx.ExtContext, scope models.SessionScope, start, end time.Time) (models.SessionTotals, error) {
	const query = `
SELECT COALESCE(SUM(lectures), 0) AS lectures, COALESCE(SUM(studios), 0) AS studios
FROM subject_sessions
WHERE subject_id = $1
  AND batch_year = $2
  AND semester = $3
  AND branch_id IS NOT DISTINCT FROM $4
  AND session_date BETWEEN $5 AND $6`
	var totals models.SessionTotals
	if err := sqlx.GetContext(ctx, r.exec(exec), &totals, query,
		scope.SubjectID, scope.BatchYear, scope.Semester, scope.BranchID, start, end); err != nil {
		return models.SessionTotals{}, fmt.Errorf("sum session counts: %w", err)
	}
	return totals, nil
}

// FindFacultyClashes returns sessions of other subjects on the given dates and
// slot inside the window that share a faculty member through offering
// membership, offering in-charge or criteria in-charge.
func (r *SessionRepository) FindFacultyClashes(ctx context.Context, exec sqlx.ExtContext, q models.ClashQuery) ([]models.FacultyClash, error) {
	if len(q.FacultyIDs) == 0 || len(q.Dates) == 0 {
		return nil, nil
	}
	dates := make([]string, 0, len(q.Dates))
	for _, d := range q.Dates {
		dates = append(dates, d.Format(calendar.DateLayout))
	}

	const query = `
SELECT s.session_date, s.slot, s.subject_id, f.faculty_id
FROM subject_sessions s
JOIN subject_offerings o ON o.subject_id = s.subject_id
  AND o.batch_year = s.batch_year
  AND o.semester = s.semester
  AND o.branch_id IS NOT DISTINCT FROM s.branch_id
JOIN subject_offering_faculty f ON f.offering_id = o.id
WHERE s.subject_id <> $1
  AND s.session_date = ANY($2::date[])
  AND LOWER(s.slot) = LOWER($3)
  AND s.session_date BETWEEN $4 AND $5
  AND f.faculty_id = ANY($6)
UNION
SELECT s.session_date, s.slot, s.subject_id, o.subject_in_charge_id AS faculty_id
FROM subject_sessions s
JOIN subject_offerings o ON o.subject_id = s.subject_id
  AND o.batch_year = s.batch_year
  AND o.semester = s.semester
  AND o.branch_id IS NOT DISTINCT FROM s.branch_id
WHERE s.subject_id <> $1
  AND s.session_date = ANY($2::date[])
  AND LOWER(s.slot) = LOWER($3)
  AND s.session_date BETWEEN $4 AND $5
  AND o.subject_in_charge_id = ANY($6)
UNION
SELECT s.session_date, s.slot, s.subject_id, c.subject_in_charge_id AS faculty_id
FROM subject_sessions s
JOIN subject_criteria c ON c.id = s.subject_id
WHERE s.subject_id <> $1
  AND s.session_date = ANY($2::date[])
  AND LOWER(s.slot) = LOWER($3)
  AND s.session_date BETWEEN $4 AND $5
  AND c.subject_in_charge_id = ANY($6)
ORDER BY session_date ASC, subject_id ASC`

	var clashes []models.FacultyClash
	if err := sqlx.SelectContext(ctx, r.exec(exec), &clashes, query,
		q.SubjectID, pq.Array(dates), string(q.Slot), q.WindowStart, q.WindowEnd, pq.Array(q.FacultyIDs)); err != nil {
		return nil, fmt.Errorf("find faculty clashes: %w", err)
	}
	return clashes, nil
}

// List returns sessions of one context ordered by date.
func (r *SessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.Session, error) {
	query := `SELECT ` + sessionColumns + `
FROM subject_sessions
WHERE subject_id = $1
  AND topic_id IS NOT DISTINCT FROM $2
  AND batch_year = $3
  AND semester = $4
  AND branch_id IS NOT DISTINCT FROM $5`
	args := []interface{}{filter.SubjectID, filter.TopicID, filter.BatchYear, filter.Semester, filter.BranchID}
	if filter.Start != nil {
		args = append(args, *filter.Start)
		query += fmt.Sprintf("\n  AND session_date >= $%d", len(args))
	}
	if filter.End != nil {
		args = append(args, *filter.End)
		query += fmt.Sprintf("\n  AND session_date <= $%d", len(args))
	}
	query += "\nORDER BY session_date ASC, slot ASC, id ASC"

	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// FindByID loads one session. It returns sql.ErrNoRows when absent.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM subject_sessions WHERE id = $1`
	var s models.Session
	if err := r.db.GetContext(ctx, &s, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &s, nil
}

// UpdateDetails rewrites the note, assignment, due date and completion columns.
func (r *SessionRepository) UpdateDetails(ctx context.Context, s *models.Session) error {
	s.UpdatedAt = time.Now().UTC()
	const query = `
UPDATE subject_sessions
SET lecture_notes = :lecture_notes,
    studio_notes = :studio_notes,
    assignment_id = :assignment_id,
    due_date = :due_date,
    completed = :completed,
    updated_at = :updated_at
WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, s)
	if err != nil {
		return fmt.Errorf("update session details: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session details rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteDay removes sessions of a context on one date and slot.
func (r *SessionRepository) DeleteDay(ctx context.Context, scope models.SessionScope, date time.Time, slot models.Slot) (int64, error) {
	const query = `
DELETE FROM subject_sessions
WHERE subject_id = $1
  AND topic_id IS NOT DISTINCT FROM $2
  AND batch_year = $3
  AND semester = $4
  AND branch_id IS NOT DISTINCT FROM $5
  AND session_date = $6
  AND LOWER(slot) = LOWER($7)`
	res, err := r.db.ExecContext(ctx, query,
		scope.SubjectID, scope.TopicID, scope.BatchYear, scope.Semester, scope.BranchID, date, string(slot))
	if err != nil {
		return 0, fmt.Errorf("delete session day: %w", err)
	}
	return res.RowsAffected()
}

// DeleteRange removes every session of a context inside [start, end].
func (r *SessionRepository) DeleteRange(ctx context.Context, scope models.SessionScope, start, end time.Time) (int64, error) {
	const query = `
DELETE FROM subject_sessions
WHERE subject_id = $1
  AND topic_id IS NOT DISTINCT FROM $2
  AND batch_year = $3
  AND semester = $4
  AND branch_id IS NOT DISTINCT FROM $5
  AND session_date BETWEEN $6 AND $7`
	res, err := r.db.ExecContext(ctx, query,
		scope.SubjectID, scope.TopicID, scope.BatchYear, scope.Semester, scope.BranchID, start, end)
	if err != nil {
		return 0, fmt.Errorf("delete session range: %w", err)
	}
	return res.RowsAffected()
}
