package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-scheduler/internal/models"
)

// HolidayRepository persists the holidays table.
type HolidayRepository struct {
	db *sqlx.DB
}

// NewHolidayRepository constructs the repository.
func NewHolidayRepository(db *sqlx.DB) *HolidayRepository {
	return &HolidayRepository{db: db}
}

// ListRange returns holidays inside [start, end] ordered by date.
func (r *HolidayRepository) ListRange(ctx context.Context, start, end time.Time) ([]models.Holiday, error) {
	const query = `SELECT date, title FROM holidays WHERE date BETWEEN $1 AND $2 ORDER BY date ASC`
	var holidays []models.Holiday
	if err := r.db.SelectContext(ctx, &holidays, query, start, end); err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	return holidays, nil
}

// Create inserts a holiday unless the date already exists. It reports whether a row was written.
func (r *HolidayRepository) Create(ctx context.Context, holiday models.Holiday) (bool, error) {
	const query = `INSERT INTO holidays (date, title) VALUES (:date, :title) ON CONFLICT (date) DO NOTHING`
	res, err := r.db.NamedExecContext(ctx, query, holiday)
	if err != nil {
		return false, fmt.Errorf("create holiday: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create holiday rows: %w", err)
	}
	return affected > 0, nil
}

// Delete removes the holiday on date and returns the number of rows removed.
func (r *HolidayRepository) Delete(ctx context.Context, date time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM holidays WHERE date = $1`, date)
	if err != nil {
		return 0, fmt.Errorf("delete holiday: %w", err)
	}
	return res.RowsAffected()
}
