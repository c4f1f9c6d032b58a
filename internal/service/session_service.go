package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-scheduler/internal/dto"
	"github.com/noah-isme/academic-scheduler/internal/models"
	"github.com/noah-isme/academic-scheduler/pkg/calendar"
	appErrors "github.com/noah-isme/academic-scheduler/pkg/errors"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type sessionStore interface {
	LockSubject(ctx context.Context, exec sqlx.ExtContext, subjectID string) error
	DeleteCollision(ctx context.Context, exec sqlx.ExtContext, s *models.Session) (int64, error)
	InsertBatch(ctx context.Context, exec sqlx.ExtContext, sessions []models.Session) error
	List(ctx context.Context, filter models.SessionFilter) ([]models.Session, error)
	FindByID(ctx context.Context, id string) (*models.Session, error)
	UpdateDetails(ctx context.Context, s *models.Session) error
	DeleteDay(ctx context.Context, scope models.SessionScope, date time.Time, slot models.Slot) (int64, error)
	DeleteRange(ctx context.Context, scope models.SessionScope, start, end time.Time) (int64, error)
}

type holidayProvider interface {
	Holidays(ctx context.Context, start, end time.Time) (calendar.HolidaySet, error)
}

type sessionChecker interface {
	Prepare(ctx context.Context, run CheckRun) CheckRun
	Run(ctx context.Context, exec sqlx.ExtContext, run CheckRun) (CheckOutcome, error)
}

// SessionServiceConfig carries the generator policy.
type SessionServiceConfig struct {
	Policy           calendar.Policy
	MaxRangeDays     int
	SerializeSubject bool
}

// SessionService generates, merges and maintains subject sessions.
type SessionService struct {
	tx        txProvider
	sessions  sessionStore
	subjects  subjectReader
	holidays  holidayProvider
	checker   sessionChecker
	metrics   *MetricsService
	cfg       SessionServiceConfig
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

// NewSessionService constructs the service.
func NewSessionService(tx txProvider, sessions sessionStore, subjects subjectReader, holidays holidayProvider, checker sessionChecker, metrics *MetricsService, cfg SessionServiceConfig, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if validate == nil {
		validate = dto.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRangeDays <= 0 {
		cfg.MaxRangeDays = 400
	}
	if cfg.Policy == (calendar.Policy{}) {
		cfg.Policy = calendar.DefaultPolicy
	}
	return &SessionService{
		tx:        tx,
		sessions:  sessions,
		subjects:  subjects,
		holidays:  holidays,
		checker:   checker,
		metrics:   metrics,
		cfg:       cfg,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// writePlan is one batch of sessions waiting to be merged.
type writePlan struct {
	action   string
	scope    models.SessionScope
	start    time.Time
	end      time.Time
	slot     models.Slot
	sessions []models.Session
	holidays calendar.HolidaySet
	criteria models.Lookup[*models.SubjectCriteria]
}

// GeneratePattern fills the window from a simple, alternating or backfill weekday pattern.
func (s *SessionService) GeneratePattern(ctx context.Context, req dto.GeneratePatternRequest) (*dto.GenerationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pattern payload")
	}
	scope := scopeFromContext(req.SessionContext)
	slot, kind, err := parseSlotKind(req.Slot, req.Kind)
	if err != nil {
		return nil, err
	}

	criteria := s.criteria(ctx, scope.SubjectID)
	start, end, err := s.window(scope, criteria, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	holidays, err := s.holidaySet(ctx, start, end)
	if err != nil {
		return nil, err
	}

	genEnd := end
	if req.Weeks > 0 && req.Mode != dto.PatternBackfill {
		genEnd = calendar.LimitWeeks(start, end, req.Weeks)
	}

	var dates []time.Time
	switch req.Mode {
	case dto.PatternAlternating:
		weekA, err := parseWeekdays(req.WeekA)
		if err != nil {
			return nil, err
		}
		weekB, err := parseWeekdays(req.WeekB)
		if err != nil {
			return nil, err
		}
		dates = calendar.Alternating(start, genEnd, weekA, weekB, holidays)
	case dto.PatternBackfill:
		weekdays, err := parseWeekdays(req.Weekdays)
		if err != nil {
			return nil, err
		}
		dates = calendar.Backfill(start, end, req.Weeks, weekdays, holidays)
	default:
		weekdays, err := parseWeekdays(req.Weekdays)
		if err != nil {
			return nil, err
		}
		dates = calendar.Simple(start, genEnd, weekdays, holidays)
	}

	lectures, studios := kind.Counts()
	plan := writePlan{
		action:   ActionPatternGenerate,
		scope:    scope,
		start:    start,
		end:      end,
		slot:     slot,
		sessions: s.buildSessions(scope, dates, slot, kind, lectures, studios, "", ""),
		holidays: holidays,
		criteria: criteria,
	}
	return s.save(ctx, plan)
}

// AddTailWeeks adds sessions on explicit weekdays of chosen 1-based weeks.
func (s *SessionService) AddTailWeeks(ctx context.Context, req dto.TailWeeksRequest) (*dto.GenerationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tail weeks payload")
	}
	scope := scopeFromContext(req.SessionContext)
	slot, kind, err := parseSlotKind(req.Slot, req.Kind)
	if err != nil {
		return nil, err
	}

	weeks := make(map[int][]time.Weekday, len(req.Weeks))
	for _, w := range req.Weeks {
		days, err := parseWeekdays(w.Weekdays)
		if err != nil {
			return nil, err
		}
		weeks[w.Week] = append(weeks[w.Week], days...)
	}

	criteria := s.criteria(ctx, scope.SubjectID)
	start, end, err := s.window(scope, criteria, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	holidays, err := s.holidaySet(ctx, start, end)
	if err != nil {
		return nil, err
	}

	lectures, studios := kind.Counts()
	dates := calendar.TailWeeks(start, end, weeks, holidays)
	return s.save(ctx, writePlan{
		action:   ActionTailWeeks,
		scope:    scope,
		start:    start,
		end:      end,
		slot:     slot,
		sessions: s.buildSessions(scope, dates, slot, kind, lectures, studios, "", ""),
		holidays: holidays,
		criteria: criteria,
	})
}

// AddDay schedules a single session. The date must be inside the window and not a holiday.
func (s *SessionService) AddDay(ctx context.Context, req dto.AddDayRequest) (*dto.GenerationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid add day payload")
	}
	scope := scopeFromContext(req.SessionContext)
	slot, kind, err := parseSlotKind(req.Slot, req.Kind)
	if err != nil {
		return nil, err
	}
	date, err := calendar.ParseDate(req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date")
	}

	criteria := s.criteria(ctx, scope.SubjectID)
	start, end, err := s.window(scope, criteria, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if date.Before(start) || date.After(end) {
		return nil, appErrors.Clone(appErrors.ErrOutsideWindow,
			fmt.Sprintf("date %s must be within %s and %s", req.Date, start.Format(calendar.DateLayout), end.Format(calendar.DateLayout)))
	}
	holidays, err := s.holidaySet(ctx, date, date)
	if err != nil {
		return nil, err
	}
	if holidays.Contains(date) {
		return nil, appErrors.Clone(appErrors.ErrHolidayDate, fmt.Sprintf("%s is a holiday", date.Format(calendar.DateLayout)))
	}

	lectures, studios := kind.Counts()
	if req.Lectures != nil {
		lectures = *req.Lectures
	}
	if req.Studios != nil {
		studios = *req.Studios
	}
	return s.save(ctx, writePlan{
		action:   ActionAddDay,
		scope:    scope,
		start:    start,
		end:      end,
		slot:     slot,
		sessions: s.buildSessions(scope, []time.Time{date}, slot, kind, lectures, studios, req.LectureNotes, req.StudioNotes),
		holidays: holidays,
		criteria: criteria,
	})
}

// save merges a plan: drop holidays, prepare lookups, then lock, delete collisions,
// insert and run checks in one transaction.
func (s *SessionService) save(ctx context.Context, plan writePlan) (result *dto.GenerationResult, err error) {
	started := s.now()
	defer func() {
		written := 0
		if result != nil {
			written = result.Written
		}
		s.metrics.RecordGeneration(plan.action, written, s.now().Sub(started), err)
	}()

	rows := make([]models.Session, 0, len(plan.sessions))
	for _, row := range plan.sessions {
		if plan.holidays.Contains(row.SessionDate) {
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return &dto.GenerationResult{
			Warnings: []string{fmt.Sprintf("[%s] No teaching dates matched between %s and %s.",
				plan.action, plan.start.Format(calendar.DateLayout), plan.end.Format(calendar.DateLayout))},
			Dates: []string{},
		}, nil
	}
	if s.tx == nil {
		return nil, appErrors.ErrTxProviderMissing
	}

	dates := make([]time.Time, 0, len(rows))
	for _, row := range rows {
		dates = append(dates, row.SessionDate)
	}
	run := CheckRun{
		Action:   plan.action,
		Scope:    plan.scope,
		Start:    plan.start,
		End:      plan.end,
		Slot:     plan.slot,
		Dates:    dates,
		Criteria: plan.criteria,
	}
	// Pool reads run before the transaction takes its connection.
	if s.checker != nil {
		run = s.checker.Prepare(ctx, run)
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if s.cfg.SerializeSubject {
		if err = s.sessions.LockSubject(ctx, tx, plan.scope.SubjectID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock subject sessions")
		}
	}

	var replaced int64
	for i := range rows {
		n, derr := s.sessions.DeleteCollision(ctx, tx, &rows[i])
		if derr != nil {
			return nil, appErrors.Wrap(derr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace existing sessions")
		}
		replaced += n
	}
	if err = s.sessions.InsertBatch(ctx, tx, rows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to insert sessions")
	}

	var outcome CheckOutcome
	if s.checker != nil {
		outcome, err = s.checker.Run(ctx, tx, run)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to run session checks")
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit sessions")
	}
	for kind, n := range outcome.ByType {
		s.metrics.RecordNotifications(string(kind), n)
	}

	s.logger.Info("sessions saved",
		zap.String("action", plan.action),
		zap.String("subject_id", plan.scope.SubjectID),
		zap.Int("written", len(rows)),
		zap.Int64("replaced", replaced),
		zap.Int("notifications", outcome.Notifications),
	)

	formatted := make([]string, 0, len(dates))
	for _, d := range dates {
		formatted = append(formatted, d.Format(calendar.DateLayout))
	}
	warnings := outcome.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return &dto.GenerationResult{
		Written:       len(rows),
		Notifications: outcome.Notifications,
		Warnings:      warnings,
		Dates:         formatted,
	}, nil
}

// List returns the sessions of a context ordered by date.
func (s *SessionService) List(ctx context.Context, query dto.ListSessionsQuery) ([]models.Session, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session query")
	}
	filter := models.SessionFilter{SessionScope: scopeFromContext(query.SessionContext)}
	if query.StartDate != "" {
		start, err := calendar.ParseDate(query.StartDate)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start date")
		}
		filter.Start = &start
	}
	if query.EndDate != "" {
		end, err := calendar.ParseDate(query.EndDate)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end date")
		}
		filter.End = &end
	}
	if filter.Start != nil && filter.End != nil && filter.End.Before(*filter.Start) {
		return nil, appErrors.ErrInvalidDateRange
	}

	sessions, err := s.sessions.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	return sessions, nil
}

// UpdateDetails patches notes, completion, assignment and due date. No checks run.
func (s *SessionService) UpdateDetails(ctx context.Context, id string, req dto.UpdateSessionRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	if req.LectureNotes != nil {
		session.LectureNotes = *req.LectureNotes
	}
	if req.StudioNotes != nil {
		session.StudioNotes = *req.StudioNotes
	}
	if req.AssignmentID != nil {
		session.AssignmentID = emptyToNil(*req.AssignmentID)
	}
	if req.DueDate != nil {
		if strings.TrimSpace(*req.DueDate) == "" {
			session.DueDate = nil
		} else {
			due, err := calendar.ParseDate(*req.DueDate)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid due date")
			}
			session.DueDate = &due
		}
	}
	if req.Completed != nil {
		completion, ok := parseCompletion(*req.Completed)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "completed must be yes, no or maybe")
		}
		session.Completed = completion
	}
	session.UpdatedAt = s.now()

	if err := s.sessions.UpdateDetails(ctx, session); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session")
	}
	return session, nil
}

// DeleteDay removes the session of one date and slot in a context.
func (s *SessionService) DeleteDay(ctx context.Context, req dto.DeleteDayRequest) (*dto.DeleteResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid delete payload")
	}
	slot, ok := models.ParseSlot(req.Slot)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid slot")
	}
	date, err := calendar.ParseDate(req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date")
	}
	deleted, err := s.sessions.DeleteDay(ctx, scopeFromContext(req.SessionContext), date, slot)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete session")
	}
	return &dto.DeleteResult{Deleted: deleted}, nil
}

// DeleteRange removes every session of a context inside the window.
func (s *SessionService) DeleteRange(ctx context.Context, req dto.DeleteRangeRequest) (*dto.DeleteResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid delete payload")
	}
	start, end, err := parseWindow(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	deleted, err := s.sessions.DeleteRange(ctx, scopeFromContext(req.SessionContext), start, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete sessions")
	}
	return &dto.DeleteResult{Deleted: deleted}, nil
}

func (s *SessionService) criteria(ctx context.Context, subjectID string) models.Lookup[*models.SubjectCriteria] {
	if s.subjects == nil {
		return models.Missing[*models.SubjectCriteria]("subject reader unavailable")
	}
	criteria, err := s.subjects.FindCriteria(ctx, subjectID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return models.Missing[*models.SubjectCriteria]("subject " + subjectID + " has no criteria")
	case err != nil:
		s.logger.Warn("criteria lookup failed", zap.String("subject_id", subjectID), zap.Error(err))
		return models.Missing[*models.SubjectCriteria]("criteria lookup failed: " + err.Error())
	}
	return models.Found(criteria)
}

// window resolves [start, end]: explicit dates win, then criteria dates, then
// the academic-year window of the batch and semester.
func (s *SessionService) window(scope models.SessionScope, criteria models.Lookup[*models.SubjectCriteria], rawStart, rawEnd string) (time.Time, time.Time, error) {
	start, end := s.cfg.Policy.ProgramWindow(scope.BatchYear, scope.Semester)
	if criteria.Found {
		if criteria.Value.StartDate != nil {
			start = calendar.Date(*criteria.Value.StartDate)
		}
		if criteria.Value.EndDate != nil {
			end = calendar.Date(*criteria.Value.EndDate)
		}
	}
	if rawStart != "" {
		parsed, err := calendar.ParseDate(rawStart)
		if err != nil {
			return time.Time{}, time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start date")
		}
		start = parsed
	}
	if rawEnd != "" {
		parsed, err := calendar.ParseDate(rawEnd)
		if err != nil {
			return time.Time{}, time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end date")
		}
		end = parsed
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, appErrors.ErrInvalidDateRange
	}
	if days := calendar.Days(start, end); days > s.cfg.MaxRangeDays {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrRangeTooLarge,
			fmt.Sprintf("window of %d days exceeds the limit of %d", days, s.cfg.MaxRangeDays))
	}
	return start, end, nil
}

func (s *SessionService) holidaySet(ctx context.Context, start, end time.Time) (calendar.HolidaySet, error) {
	if s.holidays == nil {
		return calendar.HolidaySet{}, nil
	}
	set, err := s.holidays.Holidays(ctx, start, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load holidays")
	}
	return set, nil
}

func (s *SessionService) buildSessions(scope models.SessionScope, dates []time.Time, slot models.Slot, kind models.SessionKind, lectures, studios int, lectureNotes, studioNotes string) []models.Session {
	now := s.now()
	sessions := make([]models.Session, 0, len(dates))
	for _, d := range dates {
		sessions = append(sessions, models.Session{
			ID:           s.newID(),
			SessionScope: scope,
			SessionDate:  calendar.Date(d),
			Slot:         slot,
			Kind:         kind,
			Lectures:     lectures,
			Studios:      studios,
			LectureNotes: lectureNotes,
			StudioNotes:  studioNotes,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	return sessions
}

func scopeFromContext(c dto.SessionContext) models.SessionScope {
	semester := c.Semester
	if semester == 0 && c.ProgramYear > 0 {
		semester = calendar.AbsoluteSemester(c.ProgramYear, c.Term)
	}
	return models.SessionScope{
		SubjectID: strings.TrimSpace(c.SubjectID),
		TopicID:   emptyToNilPtr(c.TopicID),
		DegreeID:  strings.TrimSpace(c.DegreeID),
		BatchYear: c.BatchYear,
		Semester:  semester,
		BranchID:  emptyToNilPtr(c.BranchID),
	}
}

func parseSlotKind(rawSlot, rawKind string) (models.Slot, models.SessionKind, error) {
	slot, ok := models.ParseSlot(rawSlot)
	if !ok {
		return "", "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid slot %q", rawSlot))
	}
	kind, ok := models.ParseKind(rawKind)
	if !ok {
		return "", "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid kind %q", rawKind))
	}
	return slot, kind, nil
}

func parseWeekdays(names []string) ([]time.Weekday, error) {
	days, err := calendar.ParseWeekdays(names)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid weekday")
	}
	return days, nil
}

func parseCompletion(raw string) (models.Completion, bool) {
	switch c := models.Completion(strings.ToLower(strings.TrimSpace(raw))); c {
	case models.CompletionUnset, models.CompletionYes, models.CompletionNo, models.CompletionMaybe:
		return c, true
	default:
		return "", false
	}
}

func emptyToNil(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func emptyToNilPtr(v *string) *string {
	if v == nil {
		return nil
	}
	return emptyToNil(*v)
}
