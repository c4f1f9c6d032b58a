package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-scheduler/internal/models"
)

// NotificationRepository persists the notifications table.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// CreateBatch inserts unread notifications.
func (r *NotificationRepository) CreateBatch(ctx context.Context, exec sqlx.ExtContext, notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO notifications (id, type, subject_id, batch_year, semester, message, recipient_faculty_id, status, created_at)
VALUES (:id, :type, :subject_id, :batch_year, :semester, :message, :recipient_faculty_id, :status, :created_at)`

	for i := range notifications {
		n := &notifications[i]
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = now
		}
		if n.Status == "" {
			n.Status = models.NotificationUnread
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, n); err != nil {
			return fmt.Errorf("insert notification: %w", err)
		}
	}
	return nil
}

// List returns notifications newest first with the total count for pagination.
func (r *NotificationRepository) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error) {
	var (
		conditions []string
		args       []interface{}
	)
	add := func(clause string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.Type != "" {
		add("type = $%d", string(filter.Type))
	}
	if filter.SubjectID != "" {
		add("subject_id = $%d", filter.SubjectID)
	}
	if filter.RecipientID != "" {
		add("recipient_faculty_id = $%d", filter.RecipientID)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM notifications"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 50
	}
	listArgs := append(append([]interface{}{}, args...), size, (page-1)*size)
	query := fmt.Sprintf(`SELECT id, type, subject_id, batch_year, semester, message, recipient_faculty_id, status, created_at, resolved_at, resolved_by
FROM notifications%s ORDER BY created_at DESC, id ASC LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)

	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, listArgs...); err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, total, nil
}

// FindByID loads one notification. It returns sql.ErrNoRows when absent.
func (r *NotificationRepository) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	const query = `SELECT id, type, subject_id, batch_year, semester, message, recipient_faculty_id, status, created_at, resolved_at, resolved_by
FROM notifications WHERE id = $1`
	var n models.Notification
	if err := r.db.GetContext(ctx, &n, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find notification: %w", err)
	}
	return &n, nil
}

// Resolve flips an unread notification to resolved. It reports false when
// the row was missing or already resolved.
func (r *NotificationRepository) Resolve(ctx context.Context, id, resolvedBy string, at time.Time) (bool, error) {
	const query = `UPDATE notifications SET status = $1, resolved_at = $2, resolved_by = $3 WHERE id = $4 AND status = $5`
	res, err := r.db.ExecContext(ctx, query, string(models.NotificationResolved), at, resolvedBy, id, string(models.NotificationUnread))
	if err != nil {
		return false, fmt.Errorf("resolve notification: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("resolve notification rows: %w", err)
	}
	return affected > 0, nil
}
