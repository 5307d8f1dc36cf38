package core

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DayLayout is the calendar-day format used on the wire and in the finalization ledger.
const DayLayout = "2006-01-02"

var (
	ErrInvalidDate         = errors.New("invalid date; expected YYYY-MM-DD or RFC 3339")
	ErrInvalidAcademicYear = errors.New("invalid academic year; expected YYYY-YYYY")

	NowFunc = time.Now // mockable
)

// Day truncates t to the start of its calendar day in UTC.
// Every stored or compared date goes through here so that uniqueness and finalization keys line up.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today is the current UTC calendar day.
func Today() time.Time {
	return Day(NowFunc())
}

// FormatDay formats t as YYYY-MM-DD (UTC).
func FormatDay(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// ParseDay parses a calendar day (YYYY-MM-DD) or a full RFC 3339 timestamp and normalizes it with Day.
func ParseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	if t, err := time.Parse(DayLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return Day(t), nil
}

// AcademicYear is a "YYYY-YYYY" tag, eg: "2024-2025".
type AcademicYear struct {
	StartYear int
	EndYear   int
}

func ParseAcademicYear(s string) (AcademicYear, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 {
		return AcademicYear{}, ErrInvalidAcademicYear
	}
	start, err := strconv.Atoi(parts[0])
	if err != nil || len(parts[0]) != 4 {
		return AcademicYear{}, ErrInvalidAcademicYear
	}
	end, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 4 || end != start+1 {
		return AcademicYear{}, ErrInvalidAcademicYear
	}
	return AcademicYear{StartYear: start, EndYear: end}, nil
}

func (ay AcademicYear) String() string {
	return strconv.Itoa(ay.StartYear) + "-" + strconv.Itoa(ay.EndYear)
}

// Calendar describes where the academic year's semester starts and ends.
type Calendar struct {
	StartMonth time.Month
	StartDay   int
	EndMonth   time.Month
	EndDay     int
}

// DefaultCalendar runs from July 1 to June 30.
var DefaultCalendar = Calendar{StartMonth: time.July, StartDay: 1, EndMonth: time.June, EndDay: 30}

// SemesterRange returns [start, end] for the academic year, with end capped at `today`.
func (c Calendar) SemesterRange(ay AcademicYear, today time.Time) (time.Time, time.Time) {
	start := time.Date(ay.StartYear, c.StartMonth, c.StartDay, 0, 0, 0, 0, time.UTC)
	end := time.Date(ay.EndYear, c.EndMonth, c.EndDay, 0, 0, 0, 0, time.UTC)
	if today = Day(today); end.After(today) {
		end = today
	}
	return start, end
}

// CurrentAcademicYear returns the academic year `t` falls in.
func (c Calendar) CurrentAcademicYear(t time.Time) AcademicYear {
	t = Day(t)
	startYear := t.Year()
	if t.Before(time.Date(t.Year(), c.StartMonth, c.StartDay, 0, 0, 0, 0, time.UTC)) {
		startYear--
	}
	return AcademicYear{StartYear: startYear, EndYear: startYear + 1}
}

// MonthRange returns the first and last day of the given month.
func MonthRange(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, -1)
}
