package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-scheduler/internal/dto"
	"github.com/noah-isme/academic-scheduler/internal/models"
	"github.com/noah-isme/academic-scheduler/pkg/calendar"
	appErrors "github.com/noah-isme/academic-scheduler/pkg/errors"
)

const holidayCachePattern = "holidays:*"

type holidayRepository interface {
	ListRange(ctx context.Context, start, end time.Time) ([]models.Holiday, error)
	Create(ctx context.Context, holiday models.Holiday) (bool, error)
	Delete(ctx context.Context, date time.Time) (int64, error)
}

type holidayCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// HolidayService manages the holiday registry and serves cached range lookups.
type HolidayService struct {
	repo      holidayRepository
	cache     holidayCache
	ttl       time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewHolidayService constructs the service. cache may be nil.
func NewHolidayService(repo holidayRepository, cache holidayCache, ttl time.Duration, validate *validator.Validate, logger *zap.Logger) *HolidayService {
	if validate == nil {
		validate = dto.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HolidayService{repo: repo, cache: cache, ttl: ttl, validator: validate, logger: logger}
}

// List returns holidays inside the queried window.
func (s *HolidayService) List(ctx context.Context, query dto.HolidayQuery) ([]models.Holiday, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid holiday query")
	}
	start, end, err := parseWindow(query.StartDate, query.EndDate)
	if err != nil {
		return nil, err
	}
	return s.Range(ctx, start, end)
}

// Range returns holidays in [start, end], consulting the cache first.
func (s *HolidayService) Range(ctx context.Context, start, end time.Time) ([]models.Holiday, error) {
	start, end = calendar.Date(start), calendar.Date(end)
	key := holidayCacheKey(start, end)

	if s.cache != nil {
		var cached []models.Holiday
		hit, err := s.cache.Get(ctx, key, &cached)
		if err == nil && hit {
			return cached, nil
		}
	}

	holidays, err := s.repo.ListRange(ctx, start, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load holidays")
	}
	if holidays == nil {
		holidays = []models.Holiday{}
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, holidays, s.ttl)
	}
	return holidays, nil
}

// Holidays returns the holiday set for [start, end].
func (s *HolidayService) Holidays(ctx context.Context, start, end time.Time) (calendar.HolidaySet, error) {
	holidays, err := s.Range(ctx, start, end)
	if err != nil {
		return nil, err
	}
	set := make(calendar.HolidaySet, len(holidays))
	for _, h := range holidays {
		set[calendar.Date(h.Date)] = struct{}{}
	}
	return set, nil
}

// Create registers a holiday. Existing dates are left untouched.
func (s *HolidayService) Create(ctx context.Context, req dto.CreateHolidayRequest) (*dto.CreateHolidayResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid holiday payload")
	}
	date, err := calendar.ParseDate(req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid holiday date")
	}

	created, err := s.repo.Create(ctx, models.Holiday{Date: date, Title: req.Title})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create holiday")
	}
	if created {
		s.invalidate(ctx)
	}
	return &dto.CreateHolidayResult{Date: date.Format(calendar.DateLayout), Title: req.Title, Created: created}, nil
}

// Delete removes the holiday on raw (YYYY-MM-DD).
func (s *HolidayService) Delete(ctx context.Context, raw string) error {
	date, err := calendar.ParseDate(raw)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid holiday date")
	}
	deleted, err := s.repo.Delete(ctx, date)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete holiday")
	}
	if deleted == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "holiday not found")
	}
	s.invalidate(ctx)
	return nil
}

func (s *HolidayService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, holidayCachePattern); err != nil {
		s.logger.Warn("holiday cache invalidation failed", zap.Error(err))
	}
}

func holidayCacheKey(start, end time.Time) string {
	return fmt.Sprintf("holidays:%s:%s", start.Format(calendar.DateLayout), end.Format(calendar.DateLayout))
}

// parseWindow parses an inclusive date window and rejects end before start.
func parseWindow(rawStart, rawEnd string) (time.Time, time.Time, error) {
	start, err := calendar.ParseDate(rawStart)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start date")
	}
	end, err := calendar.ParseDate(rawEnd)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end date")
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, appErrors.ErrInvalidDateRange
	}
	return start, end, nil
}
