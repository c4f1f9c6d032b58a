package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-scheduler/internal/models"
	"github.com/noah-isme/academic-scheduler/pkg/calendar"
	"github.com/noah-isme/academic-scheduler/pkg/config"
)

func TestShortfallMessage(t *testing.T) {
	criteria := &models.SubjectCriteria{Code: "AR201", Name: "Structures", Lectures: 8, Studios: 4}
	scope := models.SessionScope{BatchYear: 2024, Semester: 3}

	msg := ShortfallMessage(ActionTailWeeks, criteria, scope, models.SessionTotals{Lectures: 9, Studios: 1})
	assert.Equal(t, "[Tail/custom weeks] Targets short in AR201 Structures (batch 2024, sem 3): Lectures short 0, Studios short 3.", msg)

	assert.Empty(t, ShortfallMessage(ActionTailWeeks, criteria, scope, models.SessionTotals{Lectures: 8, Studios: 4}))
}

func TestClashMessageGroupsDatesAndSubjects(t *testing.T) {
	clashes := []models.FacultyClash{
		{SessionDate: day(2025, 7, 14), Slot: "morning", OtherSubjectID: "sub-c", FacultyID: "f-1"},
		{SessionDate: day(2025, 7, 7), Slot: "MORNING", OtherSubjectID: "sub-b", FacultyID: "f-1"},
		{SessionDate: day(2025, 7, 7), Slot: "morning", OtherSubjectID: "sub-b", FacultyID: "f-2"},
	}

	msg := ClashMessage(ActionPatternGenerate, clashes, 2025)
	assert.Equal(t, "[Pattern generate] Faculty clash detected on 2025-07-07 (morning), 2025-07-14 (morning) with subject(s) sub-b, sub-c. 3 conflict(s) in AY 2025-2026.", msg)
	assert.Empty(t, ClashMessage(ActionPatternGenerate, nil, 2025))
}

func TestFacultySetDeduplicates(t *testing.T) {
	offering := &models.SubjectOffering{SubjectInChargeID: strPtr("f-sic")}
	members := []models.OfferingMember{{FacultyID: "f-2"}, {FacultyID: "f-sic"}}
	criteria := &models.SubjectCriteria{SubjectInChargeID: strPtr("f-1")}

	assert.Equal(t, []string{"f-1", "f-2", "f-sic"}, FacultySet(offering, members, criteria))
	assert.Empty(t, FacultySet(nil, nil, nil))
}

func TestClashYearBasis(t *testing.T) {
	scope := models.SessionScope{BatchYear: 2024, Semester: 4}

	programYear := NewSessionChecker(nil, nil, nil, nil, calendar.DefaultPolicy, config.ClashAYBasisProgramYear, nil)
	batch := NewSessionChecker(nil, nil, nil, nil, calendar.DefaultPolicy, config.ClashAYBasisBatch, nil)

	assert.Equal(t, 2025, programYear.ClashYear(scope))
	assert.Equal(t, 2024, batch.ClashYear(scope))
}

func TestSessionCheckerWritesUnaddressedRowWithoutRecipients(t *testing.T) {
	store := &memSessionStore{}
	notes := &notificationWriterStub{}
	subjects := &subjectStub{criteria: &models.SubjectCriteria{ID: "sub-a", Code: "AR101", Name: "Design", Lectures: 2}}
	resolver := NewRecipientResolver(&directoryStub{}, zap.NewNop())
	checker := NewSessionChecker(subjects, store, notes, resolver, calendar.DefaultPolicy, config.ClashAYBasisProgramYear, nil)

	run := checker.Prepare(context.Background(), CheckRun{
		Action:   ActionAddDay,
		Scope:    models.SessionScope{SubjectID: "sub-a", BatchYear: 2025, Semester: 1},
		Start:    day(2025, 7, 1),
		End:      day(2025, 7, 31),
		Slot:     models.SlotMorning,
		Criteria: models.Found(subjects.criteria),
	})
	assert.Empty(t, run.Recipients)

	out, err := checker.Run(context.Background(), nil, run)
	require.NoError(t, err)

	assert.Equal(t, 1, out.Notifications)
	assert.Equal(t, map[models.NotificationType]int{models.NotificationShortfall: 1}, out.ByType)
	require.Len(t, notes.rows, 1)
	assert.Nil(t, notes.rows[0].RecipientFacultyID)
	assert.Equal(t, models.NotificationUnread, notes.rows[0].Status)
}

func TestSessionCheckerPrepareFeedsClashQuery(t *testing.T) {
	store := &memSessionStore{others: []models.FacultyClash{{SessionDate: day(2025, 7, 7), Slot: "morning", OtherSubjectID: "sub-b", FacultyID: "fac-lect"}}}
	notes := &notificationWriterStub{}
	subjects := &subjectStub{
		criteria: &models.SubjectCriteria{ID: "sub-a", SubjectInChargeID: strPtr("fac-sic")},
		offering: &models.SubjectOffering{ID: "off-1", SubjectID: "sub-a"},
		members:  []models.OfferingMember{{OfferingID: "off-1", FacultyID: "fac-lect", Role: models.OfferingRoleLecture}},
	}
	resolver := NewRecipientResolver(&directoryStub{principal: "fac-principal"}, zap.NewNop())
	checker := NewSessionChecker(subjects, store, notes, resolver, calendar.DefaultPolicy, config.ClashAYBasisProgramYear, nil)

	run := checker.Prepare(context.Background(), CheckRun{
		Action:   ActionAddDay,
		Scope:    models.SessionScope{SubjectID: "sub-a", BatchYear: 2025, Semester: 1},
		Slot:     models.SlotMorning,
		Dates:    []time.Time{day(2025, 7, 7)},
		Criteria: models.Found(subjects.criteria),
	})
	require.True(t, run.Offering.Found)
	assert.Equal(t, "off-1", run.Offering.Value.ID)
	assert.Len(t, run.Members, 1)
	assert.Equal(t, []string{"fac-sic", "fac-principal"}, run.Recipients)

	out, err := checker.Run(context.Background(), nil, run)
	require.NoError(t, err)

	assert.Equal(t, []string{"fac-lect", "fac-sic"}, store.lastClash.FacultyIDs)
	assert.Equal(t, 2, out.ByType[models.NotificationClash])
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "Faculty clash detected on 2025-07-07 (morning)")
}

func TestSessionCheckerPropagatesWriteErrors(t *testing.T) {
	notes := &notificationWriterStub{err: errors.New("insert failed")}
	subjects := &subjectStub{criteria: &models.SubjectCriteria{ID: "sub-a", Lectures: 2}}
	checker := NewSessionChecker(subjects, &memSessionStore{}, notes, nil, calendar.DefaultPolicy, config.ClashAYBasisProgramYear, nil)

	_, err := checker.Run(context.Background(), nil, CheckRun{
		Action:   ActionAddDay,
		Scope:    models.SessionScope{SubjectID: "sub-a", BatchYear: 2025, Semester: 1},
		Start:    day(2025, 7, 1),
		End:      day(2025, 7, 31),
		Criteria: models.Found(subjects.criteria),
	})
	assert.Error(t, err)
}

func TestRecipientResolverDeduplicatesAndReportsAbsences(t *testing.T) {
	resolver := NewRecipientResolver(&directoryStub{principal: "f-sic", heads: map[string]string{"br-1": "f-head"}}, nil)

	ids, reasons := resolver.Recipients(context.Background(), models.Found("f-sic"), strPtr("br-1"))
	assert.Equal(t, []string{"f-sic", "f-head"}, ids)
	assert.Empty(t, reasons)

	ids, reasons = resolver.Recipients(context.Background(), models.Missing[string]("subject has no in-charge faculty"), strPtr("br-9"))
	assert.Equal(t, []string{"f-sic"}, ids)
	assert.Equal(t, []string{"subject has no in-charge faculty", "branch br-9 has no head"}, reasons)

	failing := NewRecipientResolver(&directoryStub{err: errors.New("timeout")}, nil)
	lookup := failing.Principal(context.Background())
	assert.False(t, lookup.Found)
	assert.Contains(t, lookup.Reason, "timeout")
}
