package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name  string
		marks []Mark
		want  Summary
	}{
		{name: "no marks", want: Summary{}},
		{
			name:  "all present",
			marks: []Mark{{Status: Present}, {Status: Present}},
			want: Summary{
				TotalDays: 2, PresentDays: 2, AttendedDays: 2,
				Percentage: 100, PresentPercentage: 100,
			},
		},
		{
			name:  "two thirds",
			marks: []Mark{{Status: Present}, {Status: Absent}, {Status: Present}},
			want: Summary{
				TotalDays: 3, PresentDays: 2, AbsentDays: 1, AttendedDays: 2,
				Percentage: 66.67, PresentPercentage: 66.67, AbsentPercentage: 33.33,
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, summarize(tc.marks))
		})
	}
}

func TestFinalizedSet(t *testing.T) {
	set := newFinalizedSet([]Finalization{
		{Class: "10", Section: "A", Date: "2024-08-01", AcademicYear: "2024-2025"},
	})

	finalized := Mark{ID: "1", Class: "10", Section: "A", Date: day("2024-08-01"), AcademicYear: "2024-2025"}
	otherDay := Mark{ID: "2", Class: "10", Section: "A", Date: day("2024-08-02"), AcademicYear: "2024-2025"}
	otherSection := Mark{ID: "3", Class: "10", Section: "B", Date: day("2024-08-01"), AcademicYear: "2024-2025"}
	otherYear := Mark{ID: "4", Class: "10", Section: "A", Date: day("2024-08-01"), AcademicYear: "2023-2024"}

	assert.True(t, set.has(finalized))
	assert.False(t, set.has(otherDay))
	assert.False(t, set.has(otherSection))
	assert.False(t, set.has(otherYear))
	assert.Equal(t, []Mark{finalized}, set.filter([]Mark{otherDay, finalized, otherSection, otherYear}))
}

func TestSubmitMarks_Clean(t *testing.T) {
	sm := SubmitMarks{
		ClassName: " 10 ",
		Section:   "A ",
		Date:      "2024-08-01",
		Marks:     []MarkItem{{StudentID: " s1 ", Status: " Present", Remarks: "  late "}},
	}
	sm.Clean("2024-2025")

	assert.Equal(t, "10", sm.ClassName)
	assert.Equal(t, "A", sm.Section)
	assert.Equal(t, "2024-2025", sm.AcademicYear)
	assert.Equal(t, MarkItem{StudentID: "s1", Status: "Present", Remarks: "late"}, sm.Marks[0])
}

func TestDayQuery_classDay(t *testing.T) {
	dq := DayQuery{ClassName: "10", Section: "A", Date: "2024-08-01T18:30:00Z", AcademicYear: "2024-2025"}
	assert.Equal(t, ClassDay{Class: "10", Section: "A", Date: "2024-08-01", AcademicYear: "2024-2025"}, dq.classDay())
}
