package attendance

import (
	"strings"
	"time"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/student"
)

type Status string

const (
	Present Status = "Present"
	Absent  Status = "Absent"

	// NotFinalized is only reported by class day snapshots, never stored.
	NotFinalized Status = "Not finalized"
)

func (s Status) Valid() bool { return s == Present || s == Absent }

// Mark is the attendance of one student on one calendar day.
// StudentName is a snapshot taken when the mark is created.
type Mark struct {
	ID           string    `json:"id"`
	StudentID    string    `json:"studentId"`
	StudentName  string    `json:"studentName"`
	Class        string    `json:"class"`
	Section      string    `json:"section"`
	Date         time.Time `json:"date"` // UTC midnight
	Status       Status    `json:"status"`
	AcademicYear string    `json:"academicYear"`
	Remarks      string    `json:"remarks,omitempty"`
	CreatedAt    time.Time `json:"createdAt"` // UTC
	UpdatedAt    time.Time `json:"updatedAt"` // UTC
}

// ClassDay returns the finalization tuple the mark belongs to.
func (m Mark) ClassDay() ClassDay {
	return ClassDay{Class: m.Class, Section: m.Section, Date: core.FormatDay(m.Date), AcademicYear: m.AcademicYear}
}

// ClassDay identifies the attendance of a class section on one day: the unit of finalization.
type ClassDay struct {
	Class        string `json:"className"`
	Section      string `json:"section"`
	Date         string `json:"date"` // YYYY-MM-DD
	AcademicYear string `json:"academicYear"`
}

func (cd ClassDay) key() string {
	return strings.Join([]string{cd.Class, cd.Section, cd.Date, cd.AcademicYear}, "\x00")
}

func (cd ClassDay) conflictFields() []core.FieldError {
	return []core.FieldError{
		{Field: "className", Error: cd.Class},
		{Field: "section", Error: cd.Section},
		{Field: "date", Error: cd.Date},
		{Field: "academicYear", Error: cd.AcademicYear},
	}
}

// Finalization locks a ClassDay. It is never updated nor deleted.
type Finalization struct {
	ID           string    `json:"id"`
	Class        string    `json:"className"`
	Section      string    `json:"section"`
	Date         string    `json:"date"` // YYYY-MM-DD
	AcademicYear string    `json:"academicYear"`
	FinalizedBy  string    `json:"finalizedBy,omitempty"`
	FinalizedAt  time.Time `json:"finalizedAt"` // UTC
}

func (f Finalization) ClassDay() ClassDay {
	return ClassDay{Class: f.Class, Section: f.Section, Date: f.Date, AcademicYear: f.AcademicYear}
}

// finalizedSet holds the ClassDay keys of a batch of finalizations.
type finalizedSet map[string]struct{}

func newFinalizedSet(fins []Finalization) finalizedSet {
	set := make(finalizedSet, len(fins))
	for _, f := range fins {
		set[f.ClassDay().key()] = struct{}{}
	}
	return set
}

func (set finalizedSet) has(m Mark) bool {
	_, ok := set[m.ClassDay().key()]
	return ok
}

// filter keeps the marks whose ClassDay is finalized.
func (set finalizedSet) filter(marks []Mark) []Mark {
	kept := make([]Mark, 0, len(marks))
	for _, m := range marks {
		if set.has(m) {
			kept = append(kept, m)
		}
	}
	return kept
}

// MarkFilter applies AND operation on its non-zero fields. From and To are inclusive days.
type MarkFilter struct {
	StudentID    string
	StudentIDs   []string
	Class        string
	Section      string
	AcademicYear string
	From         time.Time
	To           time.Time
}

// FinalizationFilter applies AND operation on its non-zero fields. From and To are inclusive YYYY-MM-DD days.
type FinalizationFilter struct {
	Class        string
	Section      string
	AcademicYear string
	From         string
	To           string
}

// Requests

type MarkItem struct {
	StudentID string `json:"studentId"`
	Status    string `json:"status"`
	Remarks   string `json:"remarks,omitempty"`
}

type SubmitMarks struct {
	ClassName    string     `json:"className" validate:"required,notblank"`
	Section      string     `json:"section" validate:"required,notblank"`
	Date         string     `json:"date" validate:"required,day"`
	AcademicYear string     `json:"academicYear" validate:"required,acadyear"`
	Marks        []MarkItem `json:"attendanceList" validate:"required"`
}

func (sm *SubmitMarks) Clean(defaultAcademicYear string) {
	sm.ClassName = core.CleanString(sm.ClassName)
	sm.Section = core.CleanString(sm.Section)
	sm.Date = core.CleanString(sm.Date)
	if sm.AcademicYear = core.CleanString(sm.AcademicYear); sm.AcademicYear == "" {
		sm.AcademicYear = defaultAcademicYear
	}
	for i := range sm.Marks {
		sm.Marks[i].StudentID = core.CleanString(sm.Marks[i].StudentID)
		sm.Marks[i].Status = core.CleanString(sm.Marks[i].Status)
		sm.Marks[i].Remarks = core.CleanString(sm.Marks[i].Remarks)
	}
}

type ItemError struct {
	StudentID string `json:"studentId"`
	Error     string `json:"error"`
}

type SubmitResult struct {
	Marked  int         `json:"marked"`
	Errors  []ItemError `json:"errors,omitempty"`
	Results []Mark      `json:"results"`
}

// DayQuery addresses a ClassDay; used to finalize and to take snapshots.
type DayQuery struct {
	ClassName    string `json:"className" param:"className" validate:"required,notblank"`
	Section      string `json:"section" param:"section" validate:"required,notblank"`
	Date         string `json:"date" query:"date" validate:"required,day"`
	AcademicYear string `json:"academicYear" query:"academicYear" validate:"required,acadyear"`
}

func (dq *DayQuery) Clean(defaultAcademicYear string) {
	dq.ClassName = core.CleanString(dq.ClassName)
	dq.Section = core.CleanString(dq.Section)
	dq.Date = core.CleanString(dq.Date)
	if dq.AcademicYear = core.CleanString(dq.AcademicYear); dq.AcademicYear == "" {
		dq.AcademicYear = defaultAcademicYear
	}
}

// classDay must only be called on a validated DayQuery.
func (dq DayQuery) classDay() ClassDay {
	day, _ := core.ParseDay(dq.Date)
	return ClassDay{Class: dq.ClassName, Section: dq.Section, Date: core.FormatDay(day), AcademicYear: dq.AcademicYear}
}

// RangeQuery selects a student's attendance between two days (inclusive).
type RangeQuery struct {
	StudentID    string `json:"studentId" param:"studentId" validate:"required,notblank"`
	StartDate    string `json:"startDate" query:"startDate" validate:"required,day"`
	EndDate      string `json:"endDate" query:"endDate" validate:"required,day"`
	AcademicYear string `json:"academicYear" query:"academicYear" validate:"required,acadyear"`
}

type MonthlyQuery struct {
	StudentID    string `json:"studentId" param:"studentId" validate:"required,notblank"`
	Year         int    `json:"year" query:"year" validate:"required,min=1900,max=9999"`
	Month        int    `json:"month" query:"month" validate:"required,min=1,max=12"`
	AcademicYear string `json:"academicYear" query:"academicYear" validate:"required,acadyear"`
}

type TrendQuery struct {
	ClassName    string `json:"className" param:"className" validate:"required,notblank"`
	Section      string `json:"section" param:"section" validate:"required,notblank"`
	StartDate    string `json:"startDate" query:"startDate" validate:"required,day"`
	EndDate      string `json:"endDate" query:"endDate" validate:"required,day"`
	AcademicYear string `json:"academicYear" query:"academicYear" validate:"required,acadyear"`
}

type ShortageQuery struct {
	ClassName    string   `json:"className" query:"className"`
	Section      string   `json:"section" query:"section"`
	AcademicYear string   `json:"academicYear" query:"academicYear" validate:"required,acadyear"`
	Threshold    *float64 `json:"threshold" query:"-" validate:"omitempty,min=0,max=100"` // nil: configured threshold
}

// ParentNotice is a manual low attendance notification.
type ParentNotice struct {
	ParentContact        string  `json:"parentContact" validate:"required,notblank"`
	StudentName          string  `json:"studentName" validate:"required,notblank"`
	ClassName            string  `json:"class"`
	Section              string  `json:"section"`
	AttendancePercentage float64 `json:"attendancePercentage"`
	Subject              string  `json:"subject"`
	Email                string  `json:"email" validate:"omitempty,email"`
}

// Reports

// Summary is a student's attendance over finalized days.
type Summary struct {
	TotalDays         int     `json:"totalDays"`
	PresentDays       int     `json:"presentDays"`
	AbsentDays        int     `json:"absentDays"`
	AttendedDays      int     `json:"attendedDays"`
	Percentage        float64 `json:"percentage"`
	PresentPercentage float64 `json:"presentPercentage"`
	AbsentPercentage  float64 `json:"absentPercentage"`
}

func summarize(marks []Mark) Summary {
	var sum Summary
	for _, m := range marks {
		sum.TotalDays++
		if m.Status == Present {
			sum.PresentDays++
		}
	}
	sum.AbsentDays = sum.TotalDays - sum.PresentDays
	sum.AttendedDays = sum.PresentDays
	sum.Percentage = core.Percentage(sum.PresentDays, sum.TotalDays, 2)
	sum.PresentPercentage = sum.Percentage
	sum.AbsentPercentage = core.Percentage(sum.AbsentDays, sum.TotalDays, 2)
	return sum
}

type StudentStatus struct {
	StudentID   string `json:"studentId"`
	RollCode    string `json:"rollCode"`
	StudentName string `json:"studentName"`
	Status      Status `json:"status"`
}

type ClassDaySnapshot struct {
	Date                 string          `json:"date"`
	ClassName            string          `json:"className"`
	Section              string          `json:"section"`
	AcademicYear         string          `json:"academicYear"`
	TotalStudents        int             `json:"totalStudents"`
	PresentCount         int             `json:"presentCount"`
	AbsentCount          int             `json:"absentCount"`
	TotalMarked          int             `json:"totalMarked"`
	AttendancePercentage float64         `json:"attendancePercentage"`
	Records              []StudentStatus `json:"records"`
	IsFinalized          bool            `json:"isFinalized"`
}

type ClassStat struct {
	ClassName  string  `json:"className"` // class + section
	Percentage float64 `json:"percentage"`
}

type TrendPoint struct {
	Date              string  `json:"date"`
	PresentPercentage float64 `json:"presentPercentage"`
	AbsentPercentage  float64 `json:"absentPercentage"`
}

type Overview struct {
	AcademicYear   string       `json:"academicYear"`
	OverallPresent float64      `json:"overallPresent"`
	OverallAbsent  float64      `json:"overallAbsent"`
	TopClasses     []ClassStat  `json:"topClasses"`
	BottomClasses  []ClassStat  `json:"bottomClasses"`
	Trend          []TrendPoint `json:"trend"`
}

type MonthlyReport struct {
	Summary
	Year    int    `json:"year"`
	Month   int    `json:"month"`
	Records []Mark `json:"records"` // finalized or not, for calendars
}

type DailyStat struct {
	Date              string  `json:"date"`
	Present           int     `json:"present"`
	Absent            int     `json:"absent"`
	Total             int     `json:"total"`
	PresentPercentage float64 `json:"presentPercentage"`
	AbsentPercentage  float64 `json:"absentPercentage"`
}

type ClassTrend struct {
	ClassName string      `json:"className"`
	Section   string      `json:"section"`
	StartDate string      `json:"startDate"`
	EndDate   string      `json:"endDate"`
	Trend     []DailyStat `json:"trend"`
}

// StudentInfo is the part of a student shown next to attendance figures.
type StudentInfo struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	RollCode      string `json:"rollCode"`
	Class         string `json:"class"`
	Section       string `json:"section"`
	ParentName    string `json:"parentName,omitempty"`
	ParentContact string `json:"parentContact,omitempty"`
}

func studentInfo(std student.Student) StudentInfo {
	return StudentInfo{
		ID:            std.ID,
		Name:          std.Name,
		RollCode:      std.RollCode,
		Class:         std.Class,
		Section:       std.Section,
		ParentName:    std.ParentName,
		ParentContact: std.ParentContact,
	}
}

type ShortageEntry struct {
	Student          StudentInfo `json:"student"`
	Attendance       Summary     `json:"attendance"`
	IsBelowThreshold bool        `json:"isBelowThreshold"`
}

type ShortageReport struct {
	AcademicYear string          `json:"academicYear"`
	StartDate    string          `json:"startDate"`
	EndDate      string          `json:"endDate"`
	Threshold    float64         `json:"threshold"`
	Count        int             `json:"count"`
	Students     []ShortageEntry `json:"students"`
}

type StudentReport struct {
	Student          StudentInfo `json:"student"`
	StartDate        string      `json:"startDate"`
	EndDate          string      `json:"endDate"`
	Attendance       Summary     `json:"attendance"`
	Threshold        float64     `json:"threshold"`
	IsBelowThreshold bool        `json:"isBelowThreshold"`
}
