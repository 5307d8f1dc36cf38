package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDay(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "day", in: "2024-08-01", want: "2024-08-01"},
		{name: "padded", in: " 2024-08-01 ", want: "2024-08-01"},
		{name: "rfc3339 utc", in: "2024-08-01T10:30:00Z", want: "2024-08-01"},
		{name: "rfc3339 offset crosses midnight", in: "2024-08-01T23:30:00-05:00", want: "2024-08-02"},
		{name: "empty", in: "", wantErr: true},
		{name: "bad format", in: "01/08/2024", wantErr: true},
		{name: "bad day", in: "2024-02-30", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDay(tt.in)
			if tt.wantErr {
				assert.Equal(t, ErrInvalidDate, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, FormatDay(got))
			assert.Equal(t, time.UTC, got.Location())
			assert.Equal(t, got, Day(got))
		})
	}
}

func TestParseAcademicYear(t *testing.T) {
	ay, err := ParseAcademicYear("2024-2025")
	require.NoError(t, err)
	assert.Equal(t, AcademicYear{StartYear: 2024, EndYear: 2025}, ay)
	assert.Equal(t, "2024-2025", ay.String())

	for _, s := range []string{"", "2024", "2024-2026", "24-25", "2024-20255", "abcd-efgh", "2024-2025-2026"} {
		_, err := ParseAcademicYear(s)
		assert.Equal(t, ErrInvalidAcademicYear, err, s)
	}
}

func TestCalendar(t *testing.T) {
	ay := AcademicYear{StartYear: 2024, EndYear: 2025}
	day := func(s string) time.Time {
		d, err := ParseDay(s)
		require.NoError(t, err)
		return d
	}

	start, end := DefaultCalendar.SemesterRange(ay, day("2024-09-30").Add(15*time.Hour))
	assert.Equal(t, "2024-07-01", FormatDay(start))
	assert.Equal(t, "2024-09-30", FormatDay(end))

	start, end = DefaultCalendar.SemesterRange(ay, day("2026-01-01"))
	assert.Equal(t, "2024-07-01", FormatDay(start))
	assert.Equal(t, "2025-06-30", FormatDay(end))

	_, end = DefaultCalendar.SemesterRange(ay, day("2024-03-01"))
	assert.True(t, end.Before(start))

	assert.Equal(t, ay, DefaultCalendar.CurrentAcademicYear(day("2024-07-01")))
	assert.Equal(t, ay, DefaultCalendar.CurrentAcademicYear(day("2025-06-30")))
	assert.Equal(t, AcademicYear{StartYear: 2025, EndYear: 2026}, DefaultCalendar.CurrentAcademicYear(day("2025-07-01")))

	first, last := MonthRange(2024, time.February)
	assert.Equal(t, "2024-02-01", FormatDay(first))
	assert.Equal(t, "2024-02-29", FormatDay(last))
}

func TestToday(t *testing.T) {
	orig := NowFunc
	defer func() { NowFunc = orig }()

	loc := time.FixedZone("IST", 5*3600+1800)
	NowFunc = func() time.Time { return time.Date(2024, 8, 2, 1, 0, 0, 0, loc) }
	assert.Equal(t, "2024-08-01", FormatDay(Today()))
}
