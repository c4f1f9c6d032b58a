package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-scheduler/internal/models"
)

// SubjectRepository reads subject criteria and offerings. The scheduler never writes them.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs the repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// FindCriteria loads the criteria row of a subject. It returns sql.ErrNoRows when absent.
func (r *SubjectRepository) FindCriteria(ctx context.Context, subjectID string) (*models.SubjectCriteria, error) {
	const query = `SELECT id, code, name, degree_id, semester, lectures, studios, subject_in_charge_id, branch_id, start_date, end_date
FROM subject_criteria WHERE id = $1`
	var criteria models.SubjectCriteria
	if err := r.db.GetContext(ctx, &criteria, query, subjectID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find subject criteria: %w", err)
	}
	return &criteria, nil
}

// FindOffering loads the offering matching a session context. It returns sql.ErrNoRows when absent.
func (r *SubjectRepository) FindOffering(ctx context.Context, scope models.SessionScope) (*models.SubjectOffering, error) {
	const query = `SELECT id, subject_id, topic_id, degree_id, batch_year, semester, branch_id, subject_in_charge_id
FROM subject_offerings
WHERE subject_id = $1
  AND topic_id IS NOT DISTINCT FROM $2
  AND batch_year = $3
  AND semester = $4
  AND branch_id IS NOT DISTINCT FROM $5
ORDER BY id ASC
LIMIT 1`
	var offering models.SubjectOffering
	if err := r.db.GetContext(ctx, &offering, query,
		scope.SubjectID, scope.TopicID, scope.BatchYear, scope.Semester, scope.BranchID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find subject offering: %w", err)
	}
	return &offering, nil
}

// ListOfferingMembers returns the lecture and studio faculty of an offering.
func (r *SubjectRepository) ListOfferingMembers(ctx context.Context, offeringID string) ([]models.OfferingMember, error) {
	const query = `SELECT offering_id, faculty_id, role FROM subject_offering_faculty WHERE offering_id = $1 ORDER BY role ASC, faculty_id ASC`
	var members []models.OfferingMember
	if err := r.db.SelectContext(ctx, &members, query, offeringID); err != nil {
		return nil, fmt.Errorf("list offering members: %w", err)
	}
	return members, nil
}
