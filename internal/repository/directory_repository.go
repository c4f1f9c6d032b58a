package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// DirectoryRepository resolves institutional office holders from faculty_roles and branches.
type DirectoryRepository struct {
	db *sqlx.DB
}

// NewDirectoryRepository constructs the repository.
func NewDirectoryRepository(db *sqlx.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

// FindFacultyByRole returns the first faculty holding roleName. It returns sql.ErrNoRows when none does.
func (r *DirectoryRepository) FindFacultyByRole(ctx context.Context, roleName string) (string, error) {
	const query = `SELECT faculty_id FROM faculty_roles WHERE LOWER(role_name) = LOWER($1) ORDER BY faculty_id ASC LIMIT 1`
	var facultyID string
	if err := r.db.GetContext(ctx, &facultyID, query, roleName); err != nil {
		if err == sql.ErrNoRows {
			return "", err
		}
		return "", fmt.Errorf("find faculty by role: %w", err)
	}
	return facultyID, nil
}

// FindBranchHead returns the branch head of branchID, nil when the branch has none.
// It returns sql.ErrNoRows when the branch does not exist.
func (r *DirectoryRepository) FindBranchHead(ctx context.Context, branchID string) (*string, error) {
	const query = `SELECT branch_head_faculty_id FROM branches WHERE id = $1`
	var head sql.NullString
	if err := r.db.GetContext(ctx, &head, query, branchID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find branch head: %w", err)
	}
	if !head.Valid || head.String == "" {
		return nil, nil
	}
	return &head.String, nil
}
