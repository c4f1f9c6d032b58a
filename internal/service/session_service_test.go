package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-scheduler/internal/dto"
	"github.com/noah-isme/academic-scheduler/internal/models"
	"github.com/noah-isme/academic-scheduler/internal/repository"
	"github.com/noah-isme/academic-scheduler/pkg/calendar"
	"github.com/noah-isme/academic-scheduler/pkg/config"
	appErrors "github.com/noah-isme/academic-scheduler/pkg/errors"
)

func TestSessionServiceGenerateIsIdempotent(t *testing.T) {
	fx := newSessionFixture(t)
	fx.expectTx(2)

	req := fx.patternRequest([]string{"mon", "wed"}, 0)
	first, err := fx.svc.GeneratePattern(context.Background(), req)
	require.NoError(t, err)
	second, err := fx.svc.GeneratePattern(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 10, first.Written)
	assert.Equal(t, first.Dates, second.Dates)
	assert.Len(t, fx.store.rows, 10)
	assert.Equal(t, []string{"sub-a", "sub-a"}, fx.store.locked)
	assert.NoError(t, fx.mock.ExpectationsWereMet())
}

func TestSessionServiceGenerateSkipsHolidays(t *testing.T) {
	fx := newSessionFixture(t)
	fx.holidays.set = calendar.NewHolidaySet(day(2025, 7, 14))
	fx.expectTx(1)

	res, err := fx.svc.GeneratePattern(context.Background(), fx.patternRequest([]string{"mon", "wed"}, 0))
	require.NoError(t, err)

	assert.Equal(t, 9, res.Written)
	assert.NotContains(t, res.Dates, "2025-07-14")
	for _, row := range fx.store.rows {
		assert.False(t, row.SessionDate.Equal(day(2025, 7, 14)))
	}
}

func TestSessionServiceRegenerateAfterNewHoliday(t *testing.T) {
	fx := newSessionFixture(t)
	fx.expectTx(2)
	req := fx.patternRequest([]string{"mon", "wed"}, 0)

	first, err := fx.svc.GeneratePattern(context.Background(), req)
	require.NoError(t, err)
	require.Contains(t, first.Dates, "2025-07-14")

	fx.holidays.set = calendar.NewHolidaySet(day(2025, 7, 14))
	second, err := fx.svc.GeneratePattern(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 9, second.Written)
	assert.NotContains(t, second.Dates, "2025-07-14")
	onHoliday := 0
	for _, row := range fx.store.rows {
		if row.SessionDate.Equal(day(2025, 7, 14)) {
			onHoliday++
		}
	}
	assert.Equal(t, 1, onHoliday)
	assert.Len(t, fx.store.rows, 10)
	assert.NoError(t, fx.mock.ExpectationsWereMet())
}

func TestSessionServiceAlternatingPattern(t *testing.T) {
	fx := newSessionFixture(t)
	fx.expectTx(1)

	req := fx.patternRequest(nil, 0)
	req.Mode = dto.PatternAlternating
	req.WeekA = []string{"mon"}
	req.WeekB = []string{"fri"}
	res, err := fx.svc.GeneratePattern(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, []string{"2025-07-07", "2025-07-18", "2025-07-21", "2025-08-01", "2025-08-04"}, res.Dates)
}

func TestSessionServiceBackfillFillsTailOfWindow(t *testing.T) {
	fx := newSessionFixture(t)
	fx.expectTx(1)

	req := fx.patternRequest([]string{"mon", "wed"}, 2)
	req.Mode = dto.PatternBackfill
	res, err := fx.svc.GeneratePattern(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, []string{"2025-07-28", "2025-07-30", "2025-08-04", "2025-08-06"}, res.Dates)
	assert.NoError(t, fx.mock.ExpectationsWereMet())
}

func TestSessionServiceBackfillWithoutWeeksIsRejected(t *testing.T) {
	fx := newSessionFixture(t)

	req := fx.patternRequest([]string{"mon"}, 0)
	req.Mode = dto.PatternBackfill
	_, err := fx.svc.GeneratePattern(context.Background(), req)

	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, fx.store.rows)
	assert.NoError(t, fx.mock.ExpectationsWereMet())
}

func TestSessionServiceShortfallNotifiesRecipients(t *testing.T) {
	fx := newSessionFixture(t)
	fx.subjects.criteria = &models.SubjectCriteria{ID: "sub-a", Code: "AR101", Name: "Design Studio", Lectures: 10, SubjectInChargeID: strPtr("fac-sic")}
	fx.expectTx(1)

	res, err := fx.svc.GeneratePattern(context.Background(), fx.patternRequest([]string{"mon", "wed"}, 3))
	require.NoError(t, err)

	require.Equal(t, 6, res.Written)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "[Pattern generate] Targets short in AR101 Design Studio (batch 2025, sem 1): Lectures short 4, Studios short 0.", res.Warnings[0])
	assert.Equal(t, 3, res.Notifications)

	recipients := make([]string, 0, len(fx.notes.rows))
	for _, n := range fx.notes.rows {
		assert.Equal(t, models.NotificationShortfall, n.Type)
		require.NotNil(t, n.RecipientFacultyID)
		recipients = append(recipients, *n.RecipientFacultyID)
	}
	assert.Equal(t, []string{"fac-sic", "fac-principal", "fac-head"}, recipients)
}

func TestSessionServiceCountsNotificationsOnlyAfterCommit(t *testing.T) {
	fx := newSessionFixture(t)
	metrics := NewMetricsService()
	fx.svc.metrics = metrics
	fx.subjects.criteria = &models.SubjectCriteria{ID: "sub-a", Code: "AR101", Name: "Design Studio", Lectures: 12, SubjectInChargeID: strPtr("fac-sic")}
	shortfalls := metrics.notifications.WithLabelValues(string(models.NotificationShortfall))

	fx.notes.err = errors.New("insert failed")
	fx.mock.ExpectBegin()
	fx.mock.ExpectRollback()
	_, err := fx.svc.GeneratePattern(context.Background(), fx.patternRequest([]string{"mon", "wed"}, 0))
	require.Error(t, err)
	assert.Equal(t, 0.0, testutil.ToFloat64(shortfalls))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.generations.WithLabelValues(ActionPatternGenerate, "error")))

	fx.notes.err = nil
	fx.expectTx(1)
	res, err := fx.svc.GeneratePattern(context.Background(), fx.patternRequest([]string{"mon", "wed"}, 0))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Notifications)
	assert.Equal(t, 3.0, testutil.ToFloat64(shortfalls))
	assert.NoError(t, fx.mock.ExpectationsWereMet())
}

func TestSessionServiceLookupsFitSingleConnectionPool(t *testing.T) {
	raw, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer raw.Close()
	raw.SetMaxOpenConns(1)
	db := sqlx.NewDb(raw, "sqlmock")

	subjects := repository.NewSubjectRepository(db)
	store := &memSessionStore{}
	notes := &notificationWriterStub{}
	checker := NewSessionChecker(subjects, store, notes, NewRecipientResolver(repository.NewDirectoryRepository(db), nil),
		calendar.DefaultPolicy, config.ClashAYBasisProgramYear, nil)
	svc := NewSessionService(db, store, subjects, &holidayProviderStub{}, checker, nil,
		SessionServiceConfig{SerializeSubject: true}, nil, nil)

	mock.ExpectQuery("FROM subject_criteria").WithArgs("sub-a").
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "name", "lectures", "studios", "subject_in_charge_id"}).
			AddRow("sub-a", "AR101", "Design Studio", 12, 0, "fac-sic"))
	mock.ExpectQuery("FROM subject_offerings").
		WillReturnRows(sqlmock.NewRows([]string{"id", "subject_id", "subject_in_charge_id"}).AddRow("off-1", "sub-a", "fac-sic"))
	mock.ExpectQuery("FROM subject_offering_faculty").WithArgs("off-1").
		WillReturnRows(sqlmock.NewRows([]string{"offering_id", "faculty_id", "role"}).AddRow("off-1", "fac-lect", "lecture"))
	mock.ExpectQuery("FROM faculty_roles").
		WillReturnRows(sqlmock.NewRows([]string{"faculty_id"}).AddRow("fac-principal"))
	mock.ExpectQuery("FROM branches").WithArgs("br-1").
		WillReturnRows(sqlmock.NewRows([]string{"branch_head_faculty_id"}).AddRow("fac-head"))
	mock.ExpectBegin()
	mock.ExpectCommit()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req := dto.GeneratePatternRequest{
		SessionContext: sampleContext(),
		Mode:           dto.PatternSimple,
		StartDate:      "2025-07-07",
		EndDate:        "2025-08-10",
		Weekdays:       []string{"mon", "wed"},
		Slot:           "morning",
		Kind:           "lecture",
	}
	res, err := svc.GeneratePattern(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, 10, res.Written)
	assert.Equal(t, 3, res.Notifications)
	require.Len(t, notes.rows, 3)
	assert.Equal(t, "fac-sic", *notes.rows[0].RecipientFacultyID)
	assert.Equal(t, []string{"fac-lect", "fac-sic"}, store.lastClash.FacultyIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionServiceMetTargetsRaiseNothing(t *testing.T) {
	fx := newSessionFixture(t)
	fx.subjects.criteria = &models.SubjectCriteria{ID: "sub-a", Code: "AR101", Name: "Design Studio", Lectures: 10, SubjectInChargeID: strPtr("fac-sic")}
	fx.expectTx(1)

	res, err := fx.svc.GeneratePattern(context.Background(), fx.patternRequest([]string{"mon", "wed"}, 0))
	require.NoError(t, err)

	assert.Equal(t, 10, res.Written)
	assert.Empty(t, res.Warnings)
	assert.Zero(t, res.Notifications)
	assert.Empty(t, fx.notes.rows)
}

func TestSessionServiceAddDayDetectsClashInSameSlot(t *testing.T) {
	fx := newSessionFixture(t)
	fx.withClashFixture()
	fx.expectTx(1)

	res, err := fx.svc.AddDay(context.Background(), fx.addDayRequest("2025-07-07", "morning"))
	require.NoError(t, err)

	assert.Equal(t, 1, res.Written)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "[Add one day] Faculty clash detected on 2025-07-07 (morning) with subject(s) sub-b. 1 conflict(s) in AY 2025-2026.", res.Warnings[0])
	require.NotEmpty(t, fx.notes.rows)
	assert.Equal(t, models.NotificationClash, fx.notes.rows[0].Type)
	assert.Equal(t, day(2025, 6, 1), fx.store.lastClash.WindowStart)
	assert.Equal(t, day(2026, 5, 31), fx.store.lastClash.WindowEnd)
	assert.Equal(t, []string{"fac-lect", "fac-sic"}, fx.store.lastClash.FacultyIDs)
}

func TestSessionServiceAddDayOtherSlotHasNoClash(t *testing.T) {
	fx := newSessionFixture(t)
	fx.withClashFixture()
	fx.expectTx(1)

	res, err := fx.svc.AddDay(context.Background(), fx.addDayRequest("2025-07-07", "afternoon"))
	require.NoError(t, err)

	assert.Equal(t, 1, res.Written)
	assert.Empty(t, res.Warnings)
	assert.Empty(t, fx.notes.rows)
}

func TestSessionServiceAddDayExplicitCounts(t *testing.T) {
	fx := newSessionFixture(t)
	fx.expectTx(1)

	req := fx.addDayRequest("2025-07-08", "both")
	req.Kind = "both"
	req.Lectures = intPtr(2)
	req.Studios = intPtr(0)
	req.LectureNotes = "make-up lecture"
	_, err := fx.svc.AddDay(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, fx.store.rows, 1)
	row := fx.store.rows[0]
	assert.Equal(t, 2, row.Lectures)
	assert.Equal(t, 0, row.Studios)
	assert.Equal(t, "make-up lecture", row.LectureNotes)
	assert.Equal(t, models.SlotBoth, row.Slot)
}

func TestSessionServiceAddDayRejectsOutsideWindowAndHolidays(t *testing.T) {
	fx := newSessionFixture(t)
	fx.holidays.set = calendar.NewHolidaySet(day(2025, 7, 9))

	_, err := fx.svc.AddDay(context.Background(), fx.addDayRequest("2025-09-01", "morning"))
	assert.ErrorIs(t, err, appErrors.ErrOutsideWindow)

	_, err = fx.svc.AddDay(context.Background(), fx.addDayRequest("2025-07-09", "morning"))
	assert.ErrorIs(t, err, appErrors.ErrHolidayDate)

	assert.Empty(t, fx.store.rows)
	assert.NoError(t, fx.mock.ExpectationsWereMet())
}

func TestSessionServiceTailWeeks(t *testing.T) {
	fx := newSessionFixture(t)
	fx.expectTx(1)

	res, err := fx.svc.AddTailWeeks(context.Background(), dto.TailWeeksRequest{
		SessionContext: sampleContext(),
		StartDate:      "2025-07-07",
		EndDate:        "2025-08-10",
		Weeks: []dto.TailWeek{
			{Week: 5, Weekdays: []string{"tue", "thu"}},
			{Week: 4, Weekdays: []string{"fri"}},
			{Week: 9, Weekdays: []string{"mon"}},
		},
		Slot: "afternoon",
		Kind: "studio",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"2025-08-01", "2025-08-05", "2025-08-07"}, res.Dates)
	for _, row := range fx.store.rows {
		assert.Equal(t, 0, row.Lectures)
		assert.Equal(t, 1, row.Studios)
	}
}

func TestSessionServiceEmptyPatternSkipsTransaction(t *testing.T) {
	fx := newSessionFixture(t)

	req := fx.patternRequest([]string{"mon"}, 0)
	req.StartDate, req.EndDate = "2025-07-08", "2025-07-13"
	res, err := fx.svc.GeneratePattern(context.Background(), req)
	require.NoError(t, err)

	assert.Zero(t, res.Written)
	assert.Empty(t, res.Dates)
	require.Len(t, res.Warnings, 1)
	assert.True(t, strings.HasPrefix(res.Warnings[0], "[Pattern generate] No teaching dates"))
	assert.NoError(t, fx.mock.ExpectationsWereMet())
}

func TestSessionServiceRollsBackOnInsertFailure(t *testing.T) {
	fx := newSessionFixture(t)
	fx.store.insertErr = errors.New("insert failed")
	fx.mock.ExpectBegin()
	fx.mock.ExpectRollback()

	_, err := fx.svc.GeneratePattern(context.Background(), fx.patternRequest([]string{"mon"}, 0))
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
	assert.Empty(t, fx.store.rows)
	assert.NoError(t, fx.mock.ExpectationsWereMet())
}

func TestSessionServiceRejectsBadWindows(t *testing.T) {
	fx := newSessionFixture(t)

	req := fx.patternRequest([]string{"mon"}, 0)
	req.StartDate, req.EndDate = "2025-08-10", "2025-07-07"
	_, err := fx.svc.GeneratePattern(context.Background(), req)
	assert.ErrorIs(t, err, appErrors.ErrInvalidDateRange)

	req.StartDate, req.EndDate = "2025-01-01", "2026-12-31"
	_, err = fx.svc.GeneratePattern(context.Background(), req)
	assert.ErrorIs(t, err, appErrors.ErrRangeTooLarge)

	req = fx.patternRequest([]string{"someday"}, 0)
	_, err = fx.svc.GeneratePattern(context.Background(), req)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestScopeFromContextDerivesSemester(t *testing.T) {
	c := sampleContext()
	c.Semester = 0
	c.ProgramYear = 2
	c.Term = 2

	assert.Equal(t, 4, scopeFromContext(c).Semester)

	c.Semester = 5
	assert.Equal(t, 5, scopeFromContext(c).Semester)
}

func TestSessionServiceWindowDefaults(t *testing.T) {
	fx := newSessionFixture(t)
	scope := scopeFromContext(sampleContext())

	start, end, err := fx.svc.window(scope, models.Missing[*models.SubjectCriteria]("none"), "", "")
	require.NoError(t, err)
	assert.Equal(t, day(2025, 6, 1), start)
	assert.Equal(t, day(2026, 5, 31), end)

	scope.Semester = 3
	start, end, err = fx.svc.window(scope, models.Missing[*models.SubjectCriteria]("none"), "", "")
	require.NoError(t, err)
	assert.Equal(t, day(2026, 6, 1), start)
	assert.Equal(t, day(2027, 5, 31), end)

	criteria := &models.SubjectCriteria{StartDate: timePtr(day(2025, 8, 1)), EndDate: timePtr(day(2025, 11, 30))}
	start, end, err = fx.svc.window(scope, models.Found(criteria), "", "2025-12-15")
	require.NoError(t, err)
	assert.Equal(t, day(2025, 8, 1), start)
	assert.Equal(t, day(2025, 12, 15), end)
}

func TestSessionServiceUpdateDetails(t *testing.T) {
	fx := newSessionFixture(t)
	fx.store.rows = []models.Session{{ID: "s-1", SessionScope: scopeFromContext(sampleContext()), SessionDate: day(2025, 7, 7), Slot: models.SlotMorning}}

	session, err := fx.svc.UpdateDetails(context.Background(), "s-1", dto.UpdateSessionRequest{
		LectureNotes: strPtr("chapter 3"),
		DueDate:      strPtr("2025-07-20"),
		Completed:    strPtr("Yes"),
	})
	require.NoError(t, err)
	assert.Equal(t, "chapter 3", session.LectureNotes)
	assert.Equal(t, models.CompletionYes, session.Completed)
	require.NotNil(t, session.DueDate)
	assert.Equal(t, day(2025, 7, 20), *session.DueDate)
	assert.Empty(t, fx.notes.rows)

	_, err = fx.svc.UpdateDetails(context.Background(), "s-1", dto.UpdateSessionRequest{Completed: strPtr("done")})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = fx.svc.UpdateDetails(context.Background(), "missing", dto.UpdateSessionRequest{})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestSessionServiceDeletes(t *testing.T) {
	fx := newSessionFixture(t)
	scope := scopeFromContext(sampleContext())
	fx.store.rows = []models.Session{
		{ID: "s-1", SessionScope: scope, SessionDate: day(2025, 7, 7), Slot: models.SlotMorning},
		{ID: "s-2", SessionScope: scope, SessionDate: day(2025, 7, 7), Slot: models.SlotAfternoon},
		{ID: "s-3", SessionScope: scope, SessionDate: day(2025, 7, 9), Slot: models.SlotMorning},
	}

	res, err := fx.svc.DeleteDay(context.Background(), dto.DeleteDayRequest{SessionContext: sampleContext(), Date: "2025-07-07", Slot: "MORNING"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Deleted)

	res, err = fx.svc.DeleteRange(context.Background(), dto.DeleteRangeRequest{SessionContext: sampleContext(), StartDate: "2025-07-01", EndDate: "2025-07-08"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Deleted)
	require.Len(t, fx.store.rows, 1)
	assert.Equal(t, "s-3", fx.store.rows[0].ID)

	_, err = fx.svc.DeleteRange(context.Background(), dto.DeleteRangeRequest{SessionContext: sampleContext(), StartDate: "2025-07-08", EndDate: "2025-07-01"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidDateRange)
}

type sessionFixture struct {
	svc      *SessionService
	mock     sqlmock.Sqlmock
	store    *memSessionStore
	subjects *subjectStub
	holidays *holidayProviderStub
	notes    *notificationWriterStub
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	provider, mock := newSQLTxProvider(t)
	store := &memSessionStore{}
	subjects := &subjectStub{}
	holidays := &holidayProviderStub{}
	notes := &notificationWriterStub{}
	directory := &directoryStub{principal: "fac-principal", heads: map[string]string{"br-1": "fac-head"}}

	checker := NewSessionChecker(subjects, store, notes, NewRecipientResolver(directory, zap.NewNop()),
		calendar.DefaultPolicy, config.ClashAYBasisProgramYear, zap.NewNop())
	svc := NewSessionService(provider, store, subjects, holidays, checker, nil,
		SessionServiceConfig{Policy: calendar.DefaultPolicy, MaxRangeDays: 400, SerializeSubject: true}, nil, zap.NewNop())

	seq := 0
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("sess-%d", seq)
	}
	return &sessionFixture{svc: svc, mock: mock, store: store, subjects: subjects, holidays: holidays, notes: notes}
}

func (fx *sessionFixture) expectTx(n int) {
	for i := 0; i < n; i++ {
		fx.mock.ExpectBegin()
		fx.mock.ExpectCommit()
	}
}

func (fx *sessionFixture) patternRequest(weekdays []string, weeks int) dto.GeneratePatternRequest {
	return dto.GeneratePatternRequest{
		SessionContext: sampleContext(),
		Mode:           dto.PatternSimple,
		StartDate:      "2025-07-07",
		EndDate:        "2025-08-10",
		Weeks:          weeks,
		Weekdays:       weekdays,
		Slot:           "morning",
		Kind:           "lecture",
	}
}

func (fx *sessionFixture) addDayRequest(date, slot string) dto.AddDayRequest {
	return dto.AddDayRequest{
		SessionContext: sampleContext(),
		Date:           date,
		StartDate:      "2025-07-07",
		EndDate:        "2025-08-10",
		Slot:           slot,
		Kind:           "lecture",
	}
}

func (fx *sessionFixture) withClashFixture() {
	fx.subjects.criteria = &models.SubjectCriteria{ID: "sub-a", Code: "AR101", Name: "Design Studio", SubjectInChargeID: strPtr("fac-sic")}
	fx.subjects.offering = &models.SubjectOffering{ID: "off-1", SubjectID: "sub-a"}
	fx.subjects.members = []models.OfferingMember{{OfferingID: "off-1", FacultyID: "fac-lect", Role: models.OfferingRoleLecture}}
	fx.store.others = []models.FacultyClash{{SessionDate: day(2025, 7, 7), Slot: "Morning", OtherSubjectID: "sub-b", FacultyID: "fac-lect"}}
}

func sampleContext() dto.SessionContext {
	return dto.SessionContext{SubjectID: "sub-a", DegreeID: "deg-1", BatchYear: 2025, Semester: 1, BranchID: strPtr("br-1")}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

type sqlTxProvider struct {
	db *sqlx.DB
}

func newSQLTxProvider(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &sqlTxProvider{db: sqlx.NewDb(db, "sqlmock")}, mock
}

func (p *sqlTxProvider) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return p.db.BeginTxx(ctx, opts)
}

// memSessionStore keeps sessions in memory. Writes are applied immediately,
// so rollback tests only assert on rows that never reached the store.
type memSessionStore struct {
	rows      []models.Session
	locked    []string
	others    []models.FacultyClash
	lastClash models.ClashQuery
	insertErr error
}

func sameScope(a, b models.SessionScope) bool {
	return a.SubjectID == b.SubjectID && a.BatchYear == b.BatchYear && a.Semester == b.Semester &&
		ptrEqual(a.TopicID, b.TopicID) && ptrEqual(a.BranchID, b.BranchID)
}

func ptrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (m *memSessionStore) LockSubject(ctx context.Context, exec sqlx.ExtContext, subjectID string) error {
	m.locked = append(m.locked, subjectID)
	return nil
}

func (m *memSessionStore) DeleteCollision(ctx context.Context, exec sqlx.ExtContext, s *models.Session) (int64, error) {
	var deleted int64
	kept := m.rows[:0]
	for _, row := range m.rows {
		if sameScope(row.SessionScope, s.SessionScope) && row.SessionDate.Equal(s.SessionDate) &&
			strings.EqualFold(string(row.Slot), string(s.Slot)) {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	m.rows = kept
	return deleted, nil
}

func (m *memSessionStore) InsertBatch(ctx context.Context, exec sqlx.ExtContext, sessions []models.Session) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.rows = append(m.rows, sessions...)
	return nil
}

func (m *memSessionStore) SumCounts(ctx context.Context, exec sqlx.ExtContext, scope models.SessionScope, start, end time.Time) (models.SessionTotals, error) {
	var totals models.SessionTotals
	for _, row := range m.rows {
		if sameScope(row.SessionScope, scope) && !row.SessionDate.Before(start) && !row.SessionDate.After(end) {
			totals.Lectures += row.Lectures
			totals.Studios += row.Studios
		}
	}
	return totals, nil
}

func (m *memSessionStore) FindFacultyClashes(ctx context.Context, exec sqlx.ExtContext, q models.ClashQuery) ([]models.FacultyClash, error) {
	m.lastClash = q
	var out []models.FacultyClash
	for _, other := range m.others {
		if !strings.EqualFold(other.Slot, string(q.Slot)) {
			continue
		}
		for _, d := range q.Dates {
			if d.Equal(other.SessionDate) {
				out = append(out, other)
				break
			}
		}
	}
	return out, nil
}

func (m *memSessionStore) List(ctx context.Context, filter models.SessionFilter) ([]models.Session, error) {
	var out []models.Session
	for _, row := range m.rows {
		if sameScope(row.SessionScope, filter.SessionScope) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memSessionStore) FindByID(ctx context.Context, id string) (*models.Session, error) {
	for i := range m.rows {
		if m.rows[i].ID == id {
			found := m.rows[i]
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memSessionStore) UpdateDetails(ctx context.Context, s *models.Session) error {
	for i := range m.rows {
		if m.rows[i].ID == s.ID {
			m.rows[i] = *s
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memSessionStore) DeleteDay(ctx context.Context, scope models.SessionScope, date time.Time, slot models.Slot) (int64, error) {
	return m.DeleteCollision(ctx, nil, &models.Session{SessionScope: scope, SessionDate: date, Slot: slot})
}

func (m *memSessionStore) DeleteRange(ctx context.Context, scope models.SessionScope, start, end time.Time) (int64, error) {
	var deleted int64
	kept := m.rows[:0]
	for _, row := range m.rows {
		if sameScope(row.SessionScope, scope) && !row.SessionDate.Before(start) && !row.SessionDate.After(end) {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	m.rows = kept
	return deleted, nil
}

type subjectStub struct {
	criteria *models.SubjectCriteria
	offering *models.SubjectOffering
	members  []models.OfferingMember
}

func (s *subjectStub) FindCriteria(ctx context.Context, subjectID string) (*models.SubjectCriteria, error) {
	if s.criteria == nil {
		return nil, sql.ErrNoRows
	}
	return s.criteria, nil
}

func (s *subjectStub) FindOffering(ctx context.Context, scope models.SessionScope) (*models.SubjectOffering, error) {
	if s.offering == nil {
		return nil, sql.ErrNoRows
	}
	return s.offering, nil
}

func (s *subjectStub) ListOfferingMembers(ctx context.Context, offeringID string) ([]models.OfferingMember, error) {
	return s.members, nil
}

type holidayProviderStub struct {
	set calendar.HolidaySet
}

func (h *holidayProviderStub) Holidays(ctx context.Context, start, end time.Time) (calendar.HolidaySet, error) {
	return h.set, nil
}

type notificationWriterStub struct {
	rows []models.Notification
	err  error
}

func (n *notificationWriterStub) CreateBatch(ctx context.Context, exec sqlx.ExtContext, notifications []models.Notification) error {
	if n.err != nil {
		return n.err
	}
	n.rows = append(n.rows, notifications...)
	return nil
}

type directoryStub struct {
	principal string
	heads     map[string]string
	err       error
}

func (d *directoryStub) FindFacultyByRole(ctx context.Context, roleName string) (string, error) {
	if d.err != nil {
		return "", d.err
	}
	if d.principal == "" {
		return "", sql.ErrNoRows
	}
	return d.principal, nil
}

func (d *directoryStub) FindBranchHead(ctx context.Context, branchID string) (*string, error) {
	if d.err != nil {
		return nil, d.err
	}
	head, ok := d.heads[branchID]
	if !ok {
		return nil, nil
	}
	return &head, nil
}
