package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-scheduler/internal/dto"
	"github.com/noah-isme/academic-scheduler/internal/models"
	appErrors "github.com/noah-isme/academic-scheduler/pkg/errors"
)

// ResolverRoles may flip a notification to resolved.
var ResolverRoles = []models.UserRole{models.RoleSuperAdmin, models.RolePrincipal, models.RoleDirector}

type notificationRepository interface {
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error)
	FindByID(ctx context.Context, id string) (*models.Notification, error)
	Resolve(ctx context.Context, id, resolvedBy string, at time.Time) (bool, error)
}

// NotificationService lists notifications and drives the unread -> resolved transition.
type NotificationService struct {
	repo      notificationRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewNotificationService constructs the service.
func NewNotificationService(repo notificationRepository, validate *validator.Validate, logger *zap.Logger) *NotificationService {
	if validate == nil {
		validate = dto.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, validator: validate, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// List returns a page of notifications.
func (s *NotificationService) List(ctx context.Context, query dto.ListNotificationsQuery) ([]models.Notification, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notification query")
	}
	filter := models.NotificationFilter{
		Status:      models.NotificationStatus(query.Status),
		Type:        models.NotificationType(query.Type),
		SubjectID:   strings.TrimSpace(query.SubjectID),
		RecipientID: strings.TrimSpace(query.RecipientID),
		Page:        query.Page,
		PageSize:    query.PageSize,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 50
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	if items == nil {
		items = []models.Notification{}
	}
	return items, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// CanResolve reports whether role may resolve notifications.
func CanResolve(role models.UserRole) bool {
	for _, r := range ResolverRoles {
		if strings.EqualFold(string(r), string(role)) {
			return true
		}
	}
	return false
}

// Resolve marks an unread notification as resolved by the calling user.
func (s *NotificationService) Resolve(ctx context.Context, id string, claims *models.JWTClaims) (*models.Notification, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !CanResolve(claims.Role) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only principal, director or superadmin can resolve notifications")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "notification id is required")
	}

	resolved, err := s.repo.Resolve(ctx, id, claims.UserID, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve notification")
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notification")
	}
	if !resolved {
		return nil, appErrors.ErrAlreadyResolved
	}

	s.logger.Info("notification resolved", zap.String("notification_id", id), zap.String("resolved_by", claims.UserID))
	return current, nil
}
