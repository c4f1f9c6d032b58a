package dto

// SessionContext identifies the subject offering a request writes to.
type SessionContext struct {
	SubjectID string  `json:"subjectId" form:"subjectId" validate:"required"`
	TopicID   *string `json:"topicId,omitempty" form:"topicId"`
	DegreeID  string  `json:"degreeId" form:"degreeId" validate:"required"`
	BatchYear int     `json:"batchYear" form:"batchYear" validate:"required,min=1900,max=9999"`
	Semester  int     `json:"semester,omitempty" form:"semester" validate:"required_without=ProgramYear,omitempty,min=1,max=24"`
	BranchID  *string `json:"branchId,omitempty" form:"branchId"`

	// ProgramYear and Term (1 or 2) stand in for Semester when it is omitted.
	ProgramYear int `json:"programYear,omitempty" form:"programYear" validate:"omitempty,min=1,max=12"`
	Term        int `json:"term,omitempty" form:"term" validate:"required_with=ProgramYear,omitempty,oneof=1 2"`
}

// Pattern modes.
const (
	PatternSimple      = "simple"
	PatternAlternating = "alternating"
	PatternBackfill    = "backfill"
)

// GeneratePatternRequest fills a window from a weekday pattern. In backfill mode
// Weeks counts back from the end of the window instead of forward from its start.
type GeneratePatternRequest struct {
	SessionContext
	Mode      string   `json:"mode" validate:"required,oneof=simple alternating backfill"`
	StartDate string   `json:"startDate" validate:"omitempty,date"`
	EndDate   string   `json:"endDate" validate:"omitempty,date"`
	Weeks     int      `json:"weeks" validate:"required_if=Mode backfill,min=0,max=104"`
	Weekdays  []string `json:"weekdays" validate:"omitempty,dive,weekday"`
	WeekA     []string `json:"weekA" validate:"omitempty,dive,weekday"`
	WeekB     []string `json:"weekB" validate:"omitempty,dive,weekday"`
	Slot      string   `json:"slot" validate:"required,slot"`
	Kind      string   `json:"kind" validate:"required,kind"`
}

// TailWeek lists the weekdays to fill in one 1-based week of the window.
type TailWeek struct {
	Week     int      `json:"week" validate:"required,min=1,max=104"`
	Weekdays []string `json:"weekdays" validate:"required,min=1,dive,weekday"`
}

// TailWeeksRequest adds sessions on explicit weeks near the end of a term.
type TailWeeksRequest struct {
	SessionContext
	StartDate string     `json:"startDate" validate:"omitempty,date"`
	EndDate   string     `json:"endDate" validate:"omitempty,date"`
	Weeks     []TailWeek `json:"weeks" validate:"required,min=1,dive"`
	Slot      string     `json:"slot" validate:"required,slot"`
	Kind      string     `json:"kind" validate:"required,kind"`
}

// AddDayRequest schedules one extra session inside the window.
type AddDayRequest struct {
	SessionContext
	Date         string `json:"date" validate:"required,date"`
	StartDate    string `json:"startDate" validate:"omitempty,date"`
	EndDate      string `json:"endDate" validate:"omitempty,date"`
	Slot         string `json:"slot" validate:"required,slot"`
	Kind         string `json:"kind" validate:"required,kind"`
	Lectures     *int   `json:"lectures,omitempty" validate:"omitempty,min=0,max=10"`
	Studios      *int   `json:"studios,omitempty" validate:"omitempty,min=0,max=10"`
	LectureNotes string `json:"lectureNotes"`
	StudioNotes  string `json:"studioNotes"`
}

// GenerationResult reports the outcome of a date/slot write.
type GenerationResult struct {
	Written       int      `json:"written"`
	Notifications int      `json:"notifications"`
	Warnings      []string `json:"warnings"`
	Dates         []string `json:"dates"`
}

// ListSessionsQuery selects sessions of one context, optionally within a window.
type ListSessionsQuery struct {
	SessionContext
	StartDate string `form:"startDate" validate:"omitempty,date"`
	EndDate   string `form:"endDate" validate:"omitempty,date"`
}

// UpdateSessionRequest patches note and completion fields. Nil fields are left untouched.
type UpdateSessionRequest struct {
	LectureNotes *string `json:"lectureNotes"`
	StudioNotes  *string `json:"studioNotes"`
	AssignmentID *string `json:"assignmentId"`
	DueDate      *string `json:"dueDate"`
	Completed    *string `json:"completed"`
}

// DeleteDayRequest removes the session of one date and slot.
type DeleteDayRequest struct {
	SessionContext
	Date string `json:"date" validate:"required,date"`
	Slot string `json:"slot" validate:"required,slot"`
}

// DeleteRangeRequest removes every session of the context inside a window.
type DeleteRangeRequest struct {
	SessionContext
	StartDate string `json:"startDate" validate:"required,date"`
	EndDate   string `json:"endDate" validate:"required,date"`
}

// DeleteResult reports how many sessions were removed.
type DeleteResult struct {
	Deleted int64 `json:"deleted"`
}
