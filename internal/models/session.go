package models

import (
	"strings"
	"time"
)

// Slot is the coarse time-of-day bucket a session occupies.
type Slot string

const (
	SlotMorning   Slot = "morning"
	SlotAfternoon Slot = "afternoon"
	SlotBoth      Slot = "both"
)

// ParseSlot normalises a slot name. The second value is false for unknown slots.
func ParseSlot(raw string) (Slot, bool) {
	switch s := Slot(strings.ToLower(strings.TrimSpace(raw))); s {
	case SlotMorning, SlotAfternoon, SlotBoth:
		return s, true
	default:
		return "", false
	}
}

// SessionKind tells which hour targets a session counts toward.
type SessionKind string

const (
	KindLecture SessionKind = "lecture"
	KindStudio  SessionKind = "studio"
	KindBoth    SessionKind = "both"
)

// ParseKind normalises a kind name. The second value is false for unknown kinds.
func ParseKind(raw string) (SessionKind, bool) {
	switch k := SessionKind(strings.ToLower(strings.TrimSpace(raw))); k {
	case KindLecture, KindStudio, KindBoth:
		return k, true
	default:
		return "", false
	}
}

// Counts returns the lecture and studio units a generated session of this kind carries.
func (k SessionKind) Counts() (lectures, studios int) {
	switch k {
	case KindLecture:
		return 1, 0
	case KindStudio:
		return 0, 1
	case KindBoth:
		return 1, 1
	default:
		return 0, 0
	}
}

// Completion marks whether a session was held.
type Completion string

const (
	CompletionUnset Completion = ""
	CompletionYes   Completion = "yes"
	CompletionNo    Completion = "no"
	CompletionMaybe Completion = "maybe"
)

// SessionScope identifies the subject context every session is stamped with.
type SessionScope struct {
	SubjectID string  `db:"subject_id" json:"subject_id"`
	TopicID   *string `db:"topic_id" json:"topic_id,omitempty"`
	DegreeID  string  `db:"degree_id" json:"degree_id"`
	BatchYear int     `db:"batch_year" json:"batch_year"`
	Semester  int     `db:"semester" json:"semester"`
	BranchID  *string `db:"branch_id" json:"branch_id,omitempty"`
}

// Session is one scheduled teaching slot stored in subject_sessions.
type Session struct {
	ID string `db:"id" json:"id"`
	SessionScope
	SessionDate  time.Time   `db:"session_date" json:"session_date"`
	Slot         Slot        `db:"slot" json:"slot"`
	Kind         SessionKind `db:"kind" json:"kind"`
	Lectures     int         `db:"lectures" json:"lectures"`
	Studios      int         `db:"studios" json:"studios"`
	LectureNotes string      `db:"lecture_notes" json:"lecture_notes"`
	StudioNotes  string      `db:"studio_notes" json:"studio_notes"`
	AssignmentID *string     `db:"assignment_id" json:"assignment_id,omitempty"`
	DueDate      *time.Time  `db:"due_date" json:"due_date,omitempty"`
	Completed    Completion  `db:"completed" json:"completed"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// SessionFilter narrows session listings to one scope and an optional window.
type SessionFilter struct {
	SessionScope
	Start *time.Time
	End   *time.Time
}

// SessionTotals aggregates lecture/studio units inside a window.
type SessionTotals struct {
	Lectures int `db:"lectures" json:"lectures"`
	Studios  int `db:"studios" json:"studios"`
}

// ClashQuery asks for sessions of other subjects sharing faculty on given dates.
type ClashQuery struct {
	SubjectID   string
	FacultyIDs  []string
	Dates       []time.Time
	Slot        Slot
	WindowStart time.Time
	WindowEnd   time.Time
}

// FacultyClash is one conflicting session found by the clash query.
type FacultyClash struct {
	SessionDate    time.Time `db:"session_date" json:"session_date"`
	Slot           string    `db:"slot" json:"slot"`
	OtherSubjectID string    `db:"subject_id" json:"subject_id"`
	FacultyID      string    `db:"faculty_id" json:"faculty_id"`
}
