package calendar

import (
	"fmt"
	"time"
)

// Policy fixes the month/day boundaries of an academic year. Academic year
// ayStart begins on StartMonth/StartDay of ayStart and ends on
// EndMonth/EndDay of the following year, unless the end falls after the
// start within one calendar year.
type Policy struct {
	StartMonth time.Month
	StartDay   int
	EndMonth   time.Month
	EndDay     int
}

// DefaultPolicy is June 1 through May 31.
var DefaultPolicy = Policy{StartMonth: time.June, StartDay: 1, EndMonth: time.May, EndDay: 31}

// NewPolicy validates the boundary values and falls back to DefaultPolicy on bad input.
func NewPolicy(startMonth, startDay, endMonth, endDay int) Policy {
	p := Policy{
		StartMonth: time.Month(startMonth),
		StartDay:   startDay,
		EndMonth:   time.Month(endMonth),
		EndDay:     endDay,
	}
	if err := p.validate(); err != nil {
		return DefaultPolicy
	}
	return p
}

func (p Policy) validate() error {
	if p.StartMonth < time.January || p.StartMonth > time.December ||
		p.EndMonth < time.January || p.EndMonth > time.December {
		return fmt.Errorf("academic year months out of range")
	}
	if p.StartDay < 1 || p.StartDay > 31 || p.EndDay < 1 || p.EndDay > 31 {
		return fmt.Errorf("academic year days out of range")
	}
	return nil
}

func (p Policy) wraps() bool {
	if p.EndMonth != p.StartMonth {
		return p.EndMonth < p.StartMonth
	}
	return p.EndDay < p.StartDay
}

// Window returns the inclusive [start, end] dates of academic year ayStart.
func (p Policy) Window(ayStart int) (time.Time, time.Time) {
	start := clampDay(ayStart, p.StartMonth, p.StartDay)
	endYear := ayStart
	if p.wraps() {
		endYear++
	}
	return start, clampDay(endYear, p.EndMonth, p.EndDay)
}

// ProgramWindow is the window of the program year that holds absSemester for batch.
func (p Policy) ProgramWindow(batchYear, absSemester int) (time.Time, time.Time) {
	return p.Window(AcademicYearStartForProgramYear(batchYear, ProgramYearForSemester(absSemester)))
}

// AbsoluteSemester converts a program year and a semester-in-year (1 or 2)
// into the absolute semester number: (1,1)=1, (1,2)=2, (2,1)=3.
func AbsoluteSemester(year, semInYear int) int {
	if year < 1 {
		year = 1
	}
	if semInYear != 1 {
		semInYear = 2
	}
	return (year-1)*2 + semInYear
}

// ProgramYearForSemester maps an absolute semester to its 1-based program year.
func ProgramYearForSemester(absSemester int) int {
	if absSemester < 1 {
		return 1
	}
	return (absSemester + 1) / 2
}

// AcademicYearStartForProgramYear is the calendar year in which program year
// year of batchYear begins.
func AcademicYearStartForProgramYear(batchYear, year int) int {
	if year < 1 {
		year = 1
	}
	return batchYear + year - 1
}

func clampDay(year int, month time.Month, d int) time.Time {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if d > last {
		d = last
	}
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}
