package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-scheduler/internal/models"
	"github.com/noah-isme/academic-scheduler/pkg/calendar"
	"github.com/noah-isme/academic-scheduler/pkg/config"
)

// Generation actions, used as message prefixes and metric labels.
const (
	ActionPatternGenerate = "Pattern generate"
	ActionTailWeeks       = "Tail/custom weeks"
	ActionAddDay          = "Add one day"
)

type subjectReader interface {
	FindCriteria(ctx context.Context, subjectID string) (*models.SubjectCriteria, error)
	FindOffering(ctx context.Context, scope models.SessionScope) (*models.SubjectOffering, error)
	ListOfferingMembers(ctx context.Context, offeringID string) ([]models.OfferingMember, error)
}

type sessionAggregator interface {
	SumCounts(ctx context.Context, exec sqlx.ExtContext, scope models.SessionScope, start, end time.Time) (models.SessionTotals, error)
	FindFacultyClashes(ctx context.Context, exec sqlx.ExtContext, q models.ClashQuery) ([]models.FacultyClash, error)
}

type notificationWriter interface {
	CreateBatch(ctx context.Context, exec sqlx.ExtContext, notifications []models.Notification) error
}

// CheckRun describes one saved batch the post-save checks look at.
// Offering, Members and Recipients are filled by Prepare.
type CheckRun struct {
	Action   string
	Scope    models.SessionScope
	Start    time.Time
	End      time.Time
	Slot     models.Slot
	Dates    []time.Time
	Criteria models.Lookup[*models.SubjectCriteria]

	Offering   models.Lookup[*models.SubjectOffering]
	Members    []models.OfferingMember
	Recipients []string
}

// CheckOutcome is what the checks produced.
type CheckOutcome struct {
	Notifications int
	Warnings      []string
	ByType        map[models.NotificationType]int
}

type notice struct {
	kind    models.NotificationType
	message string
}

// SessionChecker runs the advisory shortfall and faculty clash checks after a save.
type SessionChecker struct {
	subjects      subjectReader
	sessions      sessionAggregator
	notifications notificationWriter
	recipients    *RecipientResolver
	policy        calendar.Policy
	clashBasis    string
	logger        *zap.Logger
}

// NewSessionChecker constructs the checker. clashBasis is one of the config.ClashAYBasis values.
func NewSessionChecker(subjects subjectReader, sessions sessionAggregator, notifications notificationWriter, recipients *RecipientResolver, policy calendar.Policy, clashBasis string, logger *zap.Logger) *SessionChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recipients == nil {
		recipients = NewRecipientResolver(nil, logger)
	}
	return &SessionChecker{
		subjects:      subjects,
		sessions:      sessions,
		notifications: notifications,
		recipients:    recipients,
		policy:        policy,
		clashBasis:    clashBasis,
		logger:        logger,
	}
}

// Prepare resolves the offering, its members and the notification recipients.
// It reads outside any transaction, so callers run it before opening one.
func (c *SessionChecker) Prepare(ctx context.Context, run CheckRun) CheckRun {
	run.Offering = c.offering(ctx, run.Scope)
	run.Members = nil
	if run.Offering.Found {
		members, err := c.subjects.ListOfferingMembers(ctx, run.Offering.Value.ID)
		if err != nil {
			c.logger.Warn("offering members lookup failed", zap.String("offering_id", run.Offering.Value.ID), zap.Error(err))
		}
		run.Members = members
	}

	var criteria *models.SubjectCriteria
	if run.Criteria.Found {
		criteria = run.Criteria.Value
	}
	recipients, reasons := c.recipients.Recipients(ctx, SubjectInCharge(run.Offering.Value, criteria), run.Scope.BranchID)
	if len(reasons) > 0 {
		c.logger.Debug("notification recipients missing", zap.String("subject_id", run.Scope.SubjectID), zap.Strings("reasons", reasons))
	}
	run.Recipients = recipients
	return run
}

// Run executes both checks on exec and stores their notifications there too.
// It only touches exec; lookups come from a prior Prepare.
func (c *SessionChecker) Run(ctx context.Context, exec sqlx.ExtContext, run CheckRun) (CheckOutcome, error) {
	var out CheckOutcome

	var criteria *models.SubjectCriteria
	if run.Criteria.Found {
		criteria = run.Criteria.Value
	}

	var pending []notice

	shortfall, err := c.shortfall(ctx, exec, run)
	if err != nil {
		return out, err
	}
	if shortfall != "" {
		pending = append(pending, notice{models.NotificationShortfall, shortfall})
	}

	clash, err := c.clash(ctx, exec, run, criteria)
	if err != nil {
		return out, err
	}
	if clash != "" {
		pending = append(pending, notice{models.NotificationClash, clash})
	}

	if len(pending) == 0 {
		return out, nil
	}

	var rows []models.Notification
	byType := make(map[models.NotificationType]int, len(pending))
	for _, p := range pending {
		batch := notificationRows(p.kind, run.Scope, p.message, run.Recipients)
		rows = append(rows, batch...)
		out.Warnings = append(out.Warnings, p.message)
		byType[p.kind] += len(batch)
	}
	if err := c.notifications.CreateBatch(ctx, exec, rows); err != nil {
		return CheckOutcome{}, err
	}
	out.Notifications = len(rows)
	out.ByType = byType
	return out, nil
}

func (c *SessionChecker) offering(ctx context.Context, scope models.SessionScope) models.Lookup[*models.SubjectOffering] {
	offering, err := c.subjects.FindOffering(ctx, scope)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return models.Missing[*models.SubjectOffering]("no offering for subject context")
	case err != nil:
		c.logger.Warn("offering lookup failed", zap.String("subject_id", scope.SubjectID), zap.Error(err))
		return models.Missing[*models.SubjectOffering]("offering lookup failed: " + err.Error())
	}
	return models.Found(offering)
}

func (c *SessionChecker) shortfall(ctx context.Context, exec sqlx.ExtContext, run CheckRun) (string, error) {
	if !run.Criteria.Found {
		c.logger.Debug("shortfall check skipped", zap.String("subject_id", run.Scope.SubjectID), zap.String("reason", run.Criteria.Reason))
		return "", nil
	}
	criteria := run.Criteria.Value
	if !criteria.HasTargets() {
		c.logger.Debug("shortfall check skipped", zap.String("subject_id", run.Scope.SubjectID), zap.String("reason", "no targets"))
		return "", nil
	}

	totals, err := c.sessions.SumCounts(ctx, exec, run.Scope, run.Start, run.End)
	if err != nil {
		return "", err
	}
	return ShortfallMessage(run.Action, criteria, run.Scope, totals), nil
}

// ShortfallMessage returns the shortfall text, or "" when both targets are met.
func ShortfallMessage(action string, criteria *models.SubjectCriteria, scope models.SessionScope, totals models.SessionTotals) string {
	lectures := criteria.Lectures - totals.Lectures
	studios := criteria.Studios - totals.Studios
	if lectures < 0 {
		lectures = 0
	}
	if studios < 0 {
		studios = 0
	}
	if lectures == 0 && studios == 0 {
		return ""
	}
	return fmt.Sprintf("[%s] Targets short in %s %s (batch %d, sem %d): Lectures short %d, Studios short %d.",
		action, criteria.Code, criteria.Name, scope.BatchYear, scope.Semester, lectures, studios)
}

// FacultySet is the offering in-charge and members plus the criteria in-charge, sorted and unique.
func FacultySet(offering *models.SubjectOffering, members []models.OfferingMember, criteria *models.SubjectCriteria) []string {
	seen := map[string]struct{}{}
	add := func(id *string) {
		if id == nil || *id == "" {
			return
		}
		seen[*id] = struct{}{}
	}
	if offering != nil {
		add(offering.SubjectInChargeID)
	}
	for i := range members {
		add(&members[i].FacultyID)
	}
	if criteria != nil {
		add(criteria.SubjectInChargeID)
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ClashYear returns the academic year the clash window is drawn from.
func (c *SessionChecker) ClashYear(scope models.SessionScope) int {
	if c.clashBasis == config.ClashAYBasisBatch {
		return scope.BatchYear
	}
	return calendar.AcademicYearStartForProgramYear(scope.BatchYear, calendar.ProgramYearForSemester(scope.Semester))
}

func (c *SessionChecker) clash(ctx context.Context, exec sqlx.ExtContext, run CheckRun, criteria *models.SubjectCriteria) (string, error) {
	if len(run.Dates) == 0 {
		return "", nil
	}

	faculty := FacultySet(run.Offering.Value, run.Members, criteria)
	if len(faculty) == 0 {
		c.logger.Debug("clash check skipped", zap.String("subject_id", run.Scope.SubjectID), zap.String("reason", "no faculty"))
		return "", nil
	}

	ay := c.ClashYear(run.Scope)
	windowStart, windowEnd := c.policy.Window(ay)
	clashes, err := c.sessions.FindFacultyClashes(ctx, exec, models.ClashQuery{
		SubjectID:   run.Scope.SubjectID,
		FacultyIDs:  faculty,
		Dates:       run.Dates,
		Slot:        run.Slot,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
	})
	if err != nil {
		return "", err
	}
	return ClashMessage(run.Action, clashes, ay), nil
}

// ClashMessage summarises clashes in one line, or returns "" when there are none.
func ClashMessage(action string, clashes []models.FacultyClash, ay int) string {
	if len(clashes) == 0 {
		return ""
	}

	type when struct {
		date time.Time
		slot string
	}
	var (
		occurrences []when
		seenWhen    = map[when]struct{}{}
		subjects    []string
		seenSubject = map[string]struct{}{}
	)
	for _, cl := range clashes {
		w := when{date: calendar.Date(cl.SessionDate), slot: strings.ToLower(cl.Slot)}
		if _, ok := seenWhen[w]; !ok {
			seenWhen[w] = struct{}{}
			occurrences = append(occurrences, w)
		}
		if _, ok := seenSubject[cl.OtherSubjectID]; !ok {
			seenSubject[cl.OtherSubjectID] = struct{}{}
			subjects = append(subjects, cl.OtherSubjectID)
		}
	}
	sort.Slice(occurrences, func(i, j int) bool {
		if occurrences[i].date.Equal(occurrences[j].date) {
			return occurrences[i].slot < occurrences[j].slot
		}
		return occurrences[i].date.Before(occurrences[j].date)
	})
	sort.Strings(subjects)

	parts := make([]string, 0, len(occurrences))
	for _, o := range occurrences {
		parts = append(parts, fmt.Sprintf("%s (%s)", o.date.Format(calendar.DateLayout), o.slot))
	}
	return fmt.Sprintf("[%s] Faculty clash detected on %s with subject(s) %s. %d conflict(s) in AY %d-%d.",
		action, strings.Join(parts, ", "), strings.Join(subjects, ", "), len(clashes), ay, ay+1)
}

// notificationRows fans a message out to recipients. With no recipient one
// unaddressed row is kept so the event is not lost.
func notificationRows(kind models.NotificationType, scope models.SessionScope, message string, recipients []string) []models.Notification {
	base := models.Notification{
		Type:      kind,
		SubjectID: scope.SubjectID,
		BatchYear: scope.BatchYear,
		Semester:  scope.Semester,
		Message:   message,
		Status:    models.NotificationUnread,
	}
	if len(recipients) == 0 {
		return []models.Notification{base}
	}
	rows := make([]models.Notification, 0, len(recipients))
	for _, id := range recipients {
		row := base
		recipient := id
		row.RecipientFacultyID = &recipient
		rows = append(rows, row)
	}
	return rows
}
