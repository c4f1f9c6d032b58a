// Package calendar enumerates teaching dates from weekday patterns and
// computes academic-year windows. Every function here is pure.
package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

const day = 24 * time.Hour

var weekdayNames = map[string]time.Weekday{
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
	"sun": time.Sunday, "sunday": time.Sunday,
}

// Date truncates t to midnight UTC of its calendar day.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a UTC calendar date.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", raw, err)
	}
	return t, nil
}

// ParseWeekday accepts short or long English weekday names in any case.
func ParseWeekday(name string) (time.Weekday, error) {
	wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown weekday %q", name)
	}
	return wd, nil
}

// ParseWeekdays converts a list of names into weekdays, reporting the first bad one.
func ParseWeekdays(names []string) ([]time.Weekday, error) {
	out := make([]time.Weekday, 0, len(names))
	for _, n := range names {
		wd, err := ParseWeekday(n)
		if err != nil {
			return nil, err
		}
		out = append(out, wd)
	}
	return out, nil
}

// HolidaySet holds non-teaching calendar dates.
type HolidaySet map[time.Time]struct{}

// NewHolidaySet builds a set from arbitrary timestamps, keyed by calendar day.
func NewHolidaySet(dates ...time.Time) HolidaySet {
	set := make(HolidaySet, len(dates))
	for _, d := range dates {
		set[Date(d)] = struct{}{}
	}
	return set
}

// Contains reports whether t falls on a holiday. A nil set contains nothing.
func (h HolidaySet) Contains(t time.Time) bool {
	if h == nil {
		return false
	}
	_, ok := h[Date(t)]
	return ok
}

type weekdaySet [7]bool

func newWeekdaySet(days []time.Weekday) (weekdaySet, bool) {
	var set weekdaySet
	found := false
	for _, d := range days {
		if d < time.Sunday || d > time.Saturday {
			continue
		}
		set[d] = true
		found = true
	}
	return set, found
}

// walk visits each calendar day in [start, end] and keeps those pick accepts
// and that are not holidays.
func walk(start, end time.Time, holidays HolidaySet, pick func(d time.Time, offset int) bool) []time.Time {
	start, end = Date(start), Date(end)
	if start.After(end) {
		return nil
	}

	var out []time.Time
	for d, offset := start, 0; !d.After(end); d, offset = d.AddDate(0, 0, 1), offset+1 {
		if pick(d, offset) && !holidays.Contains(d) {
			out = append(out, d)
		}
	}
	return out
}

// Simple returns every date in [start, end] whose weekday is in weekdays.
func Simple(start, end time.Time, weekdays []time.Weekday, holidays HolidaySet) []time.Time {
	set, ok := newWeekdaySet(weekdays)
	if !ok {
		return nil
	}
	return walk(start, end, holidays, func(d time.Time, _ int) bool {
		return set[d.Weekday()]
	})
}

// Alternating applies setA on even weeks and setB on odd weeks, counting
// weeks from start.
func Alternating(start, end time.Time, setA, setB []time.Weekday, holidays HolidaySet) []time.Time {
	a, okA := newWeekdaySet(setA)
	b, okB := newWeekdaySet(setB)
	if !okA && !okB {
		return nil
	}
	return walk(start, end, holidays, func(d time.Time, offset int) bool {
		if (offset/7)%2 == 0 {
			return a[d.Weekday()]
		}
		return b[d.Weekday()]
	})
}

// TailWeeks enumerates explicit 1-based weeks from start, each with its own
// weekday set. Dates outside [start, end] are dropped.
func TailWeeks(start, end time.Time, weeks map[int][]time.Weekday, holidays HolidaySet) []time.Time {
	start, end = Date(start), Date(end)
	if start.After(end) || len(weeks) == 0 {
		return nil
	}

	numbers := make([]int, 0, len(weeks))
	for w := range weeks {
		if w >= 1 {
			numbers = append(numbers, w)
		}
	}
	sort.Ints(numbers)

	seen := make(map[time.Time]struct{})
	var out []time.Time
	for _, w := range numbers {
		set, ok := newWeekdaySet(weeks[w])
		if !ok {
			continue
		}
		weekStart := start.AddDate(0, 0, 7*(w-1))
		if weekStart.After(end) {
			break
		}
		for i := 0; i < 7; i++ {
			d := weekStart.AddDate(0, 0, i)
			if d.After(end) {
				break
			}
			if !set[d.Weekday()] || holidays.Contains(d) {
				continue
			}
			if _, dup := seen[d]; dup {
				continue
			}
			seen[d] = struct{}{}
			out = append(out, d)
		}
	}
	return out
}

// LimitWeeks caps end to the last day of the first n weeks from start.
// n <= 0 leaves end unchanged.
func LimitWeeks(start, end time.Time, n int) time.Time {
	start, end = Date(start), Date(end)
	if n <= 0 {
		return end
	}
	limit := start.AddDate(0, 0, 7*n-1)
	if limit.Before(end) {
		return limit
	}
	return end
}

// Backfill returns candidate dates in the last weeksTail weeks of [start, end].
func Backfill(start, end time.Time, weeksTail int, weekdays []time.Weekday, holidays HolidaySet) []time.Time {
	start, end = Date(start), Date(end)
	if weeksTail <= 0 || start.After(end) {
		return nil
	}
	tailStart := end.AddDate(0, 0, -(7*weeksTail - 1))
	if tailStart.Before(start) {
		tailStart = start
	}
	return Simple(tailStart, end, weekdays, holidays)
}

// Days returns the inclusive number of calendar days in [start, end], or 0.
func Days(start, end time.Time) int {
	start, end = Date(start), Date(end)
	if start.After(end) {
		return 0
	}
	return int(end.Sub(start)/day) + 1
}
