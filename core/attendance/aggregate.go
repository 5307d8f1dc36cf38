package attendance

import (
	"context"
	"sort"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/student"
)

const (
	overviewRankSize  = 5
	overviewTrendSize = 10
)

// Aggregator computes attendance figures. Only marks of finalized class days are ever counted.
type Aggregator struct {
	marks    MarkRepository
	ledger   Ledger
	students StudentFinder
	conf     *core.Config
}

func NewAggregator(marks MarkRepository, ledger Ledger, students StudentFinder, conf *core.Config) *Aggregator {
	vala.BeginValidation().Validate(
		vala.IsNotNil(marks, "marks"),
		vala.IsNotNil(ledger, "ledger"),
		vala.IsNotNil(students, "students"),
		vala.IsNotNil(conf, "conf"),
	).CheckAndPanic()
	return &Aggregator{marks: marks, ledger: ledger, students: students, conf: conf}
}

func (agg *Aggregator) academicYear(ay string) string {
	if ay = core.CleanString(ay); ay != "" {
		return ay
	}
	return agg.conf.Attendance.DefaultAcademicYear
}

func parseRange(startDate, endDate string) (time.Time, time.Time, error) {
	start, err := core.ParseDay(startDate)
	if err != nil {
		return time.Time{}, time.Time{}, core.NewValidationError(err, core.FieldError{Field: "startDate", Error: err.Error()})
	}
	end, err := core.ParseDay(endDate)
	if err != nil {
		return time.Time{}, time.Time{}, core.NewValidationError(err, core.FieldError{Field: "endDate", Error: err.Error()})
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, core.NewValidationError(
			ErrInvalidRange, core.FieldError{Field: "endDate", Error: ErrInvalidRange.Error()},
		)
	}
	return start, end, nil
}

// viewableStudent resolves a student reference the session is allowed to read.
func (agg *Aggregator) viewableStudent(ctx context.Context, sess core.Session, ref string) (student.Student, error) {
	std, err := agg.students.GetStudent(ctx, core.CleanString(ref))
	if err != nil {
		return student.Student{}, err
	}
	if !sess.CanViewStudent(std.ID) && !sess.CanViewStudent(std.RollCode) {
		return student.Student{}, core.ErrPermissionDenied
	}
	return std, nil
}

// finalizedMarks loads the marks matching `filter` and keeps the finalized ones.
// Marks and finalizations are read concurrently.
func (agg *Aggregator) finalizedMarks(ctx context.Context, filter MarkFilter, finFilter FinalizationFilter) ([]Mark, error) {
	var (
		marks []Mark
		fins  []Finalization
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		marks, err = agg.marks.QueryMarks(gctx, filter)
		return errors.Wrap(err, "querying marks")
	})
	g.Go(func() (err error) {
		fins, err = agg.ledger.QueryFinalizations(gctx, finFilter)
		return errors.Wrap(err, "querying finalizations")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return newFinalizedSet(fins).filter(marks), nil
}

func (agg *Aggregator) studentSummary(ctx context.Context, studentID string, start, end time.Time, ay string) (Summary, error) {
	marks, err := agg.finalizedMarks(
		ctx,
		MarkFilter{StudentID: studentID, AcademicYear: ay, From: start, To: end},
		FinalizationFilter{AcademicYear: ay, From: core.FormatDay(start), To: core.FormatDay(end)},
	)
	if err != nil {
		return Summary{}, err
	}
	return summarize(marks), nil
}

// studentSummaries computes the Summary of many students with a single pass over the marks.
// Students without finalized marks get a zero Summary.
func (agg *Aggregator) studentSummaries(ctx context.Context, studentIDs []string, start, end time.Time, ay string) (map[string]Summary, error) {
	sums := make(map[string]Summary, len(studentIDs))
	if len(studentIDs) == 0 {
		return sums, nil
	}
	marks, err := agg.finalizedMarks(
		ctx,
		MarkFilter{StudentIDs: studentIDs, AcademicYear: ay, From: start, To: end},
		FinalizationFilter{AcademicYear: ay, From: core.FormatDay(start), To: core.FormatDay(end)},
	)
	if err != nil {
		return nil, err
	}

	byStudent := make(map[string][]Mark, len(studentIDs))
	for _, m := range marks {
		byStudent[m.StudentID] = append(byStudent[m.StudentID], m)
	}
	for _, id := range studentIDs {
		sums[id] = summarize(byStudent[id])
	}
	return sums, nil
}

// StudentRange is a student's attendance between two days (inclusive).
func (agg *Aggregator) StudentRange(ctx context.Context, sess core.Session, rq RangeQuery) (Summary, error) {
	rq.AcademicYear = agg.academicYear(rq.AcademicYear)
	if err := core.Validate.Struct(rq); err != nil {
		return Summary{}, err
	}
	start, end, err := parseRange(rq.StartDate, rq.EndDate)
	if err != nil {
		return Summary{}, err
	}
	std, err := agg.viewableStudent(ctx, sess, rq.StudentID)
	if err != nil {
		return Summary{}, err
	}
	return agg.studentSummary(ctx, std.ID, start, end, rq.AcademicYear)
}

// ClassDay is the attendance of every active student of a class section on one day.
// Until the day is finalized no figure is computed. Once it is, students without a mark count as absent.
func (agg *Aggregator) ClassDay(ctx context.Context, sess core.Session, dq DayQuery) (ClassDaySnapshot, error) {
	if err := sess.RequireStaff(); err != nil {
		return ClassDaySnapshot{}, err
	}
	dq.Clean(agg.conf.Attendance.DefaultAcademicYear)
	if err := core.Validate.Struct(dq); err != nil {
		return ClassDaySnapshot{}, err
	}
	cd := dq.classDay()

	var (
		finalized bool
		students  []student.Student
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		finalized, err = agg.ledger.IsFinalized(gctx, cd)
		return errors.Wrap(err, "checking finalization")
	})
	g.Go(func() (err error) {
		students, err = agg.students.QueryStudents(gctx, student.QueryFilter{
			Class:    cd.Class,
			Section:  cd.Section,
			IsActive: student.Active(),
		})
		return errors.Wrap(err, "querying students")
	})
	if err := g.Wait(); err != nil {
		return ClassDaySnapshot{}, err
	}

	snap := ClassDaySnapshot{
		Date:          cd.Date,
		ClassName:     cd.Class,
		Section:       cd.Section,
		AcademicYear:  cd.AcademicYear,
		TotalStudents: len(students),
		Records:       make([]StudentStatus, 0, len(students)),
		IsFinalized:   finalized,
	}
	if !finalized {
		for _, std := range students {
			snap.Records = append(snap.Records, StudentStatus{
				StudentID:   std.ID,
				RollCode:    std.RollCode,
				StudentName: std.Name,
				Status:      NotFinalized,
			})
		}
		return snap, nil
	}

	day, _ := core.ParseDay(cd.Date)
	marks, err := agg.marks.QueryMarks(ctx, MarkFilter{
		Class:        cd.Class,
		Section:      cd.Section,
		AcademicYear: cd.AcademicYear,
		From:         day,
		To:           day,
	})
	if err != nil {
		return ClassDaySnapshot{}, errors.Wrap(err, "querying marks")
	}
	statuses := make(map[string]Status, len(marks))
	for _, m := range marks {
		statuses[m.StudentID] = m.Status
	}

	for _, std := range students {
		status, ok := statuses[std.ID]
		if !ok {
			status = Absent
		}
		if status == Present {
			snap.PresentCount++
		} else {
			snap.AbsentCount++
		}
		snap.Records = append(snap.Records, StudentStatus{
			StudentID:   std.ID,
			RollCode:    std.RollCode,
			StudentName: std.Name,
			Status:      status,
		})
	}
	snap.TotalMarked = len(marks)
	snap.AttendancePercentage = core.Percentage(snap.PresentCount, snap.TotalMarked, 2)
	return snap, nil
}

type tally struct {
	attended int
	total    int
}

// Overview is the school-wide attendance of an academic year.
func (agg *Aggregator) Overview(ctx context.Context, sess core.Session, academicYear string) (Overview, error) {
	if err := sess.RequireStaff(); err != nil {
		return Overview{}, err
	}
	academicYear = agg.academicYear(academicYear)
	if _, err := core.ParseAcademicYear(academicYear); err != nil {
		return Overview{}, core.NewValidationError(err, core.FieldError{Field: "academicYear", Error: err.Error()})
	}

	marks, err := agg.finalizedMarks(
		ctx,
		MarkFilter{AcademicYear: academicYear},
		FinalizationFilter{AcademicYear: academicYear},
	)
	if err != nil {
		return Overview{}, err
	}

	var overall tally
	byClass := make(map[string]*tally)
	byDate := make(map[string]*tally)
	inc := func(m map[string]*tally, key string, present bool) {
		t, ok := m[key]
		if !ok {
			t = &tally{}
			m[key] = t
		}
		t.total++
		if present {
			t.attended++
		}
	}
	for _, m := range marks {
		present := m.Status == Present
		inc(byClass, m.Class+m.Section, present)
		inc(byDate, core.FormatDay(m.Date), present)
		overall.total++
		if present {
			overall.attended++
		}
	}

	ov := Overview{
		AcademicYear:   academicYear,
		OverallPresent: core.Percentage(overall.attended, overall.total, 1),
		TopClasses:     []ClassStat{},
		BottomClasses:  []ClassStat{},
		Trend:          []TrendPoint{},
	}
	if overall.total > 0 {
		ov.OverallAbsent = core.Round(100-ov.OverallPresent, 1)
	}

	classes := make([]ClassStat, 0, len(byClass))
	for name, t := range byClass {
		classes = append(classes, ClassStat{ClassName: name, Percentage: core.Percentage(t.attended, t.total, 1)})
	}
	sort.Slice(classes, func(i, j int) bool {
		if classes[i].Percentage != classes[j].Percentage {
			return classes[i].Percentage > classes[j].Percentage
		}
		return classes[i].ClassName < classes[j].ClassName
	})
	n := len(classes)
	if n > overviewRankSize {
		n = overviewRankSize
	}
	ov.TopClasses = append(ov.TopClasses, classes[:n]...)
	for i := len(classes) - 1; i >= len(classes)-n; i-- {
		ov.BottomClasses = append(ov.BottomClasses, classes[i])
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	if len(dates) > overviewTrendSize {
		dates = dates[len(dates)-overviewTrendSize:]
	}
	for _, d := range dates {
		t := byDate[d]
		ov.Trend = append(ov.Trend, TrendPoint{
			Date:              d,
			PresentPercentage: core.Percentage(t.attended, t.total, 1),
			AbsentPercentage:  core.Percentage(t.total-t.attended, t.total, 1),
		})
	}
	return ov, nil
}

// Monthly is a student's attendance over a calendar month, plus every mark of that month
// (finalized or not) for calendar views.
func (agg *Aggregator) Monthly(ctx context.Context, sess core.Session, mq MonthlyQuery) (MonthlyReport, error) {
	mq.AcademicYear = agg.academicYear(mq.AcademicYear)
	if err := core.Validate.Struct(mq); err != nil {
		return MonthlyReport{}, err
	}
	std, err := agg.viewableStudent(ctx, sess, mq.StudentID)
	if err != nil {
		return MonthlyReport{}, err
	}
	start, end := core.MonthRange(mq.Year, time.Month(mq.Month))

	var (
		records []Mark
		fins    []Finalization
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		records, err = agg.marks.QueryMarks(gctx, MarkFilter{StudentID: std.ID, AcademicYear: mq.AcademicYear, From: start, To: end})
		return errors.Wrap(err, "querying marks")
	})
	g.Go(func() (err error) {
		fins, err = agg.ledger.QueryFinalizations(gctx, FinalizationFilter{
			AcademicYear: mq.AcademicYear,
			From:         core.FormatDay(start),
			To:           core.FormatDay(end),
		})
		return errors.Wrap(err, "querying finalizations")
	})
	if err := g.Wait(); err != nil {
		return MonthlyReport{}, err
	}

	return MonthlyReport{
		Summary: summarize(newFinalizedSet(fins).filter(records)),
		Year:    mq.Year,
		Month:   mq.Month,
		Records: records,
	}, nil
}

// ClassTrend is the daily attendance of a class section over the finalized days of a range.
func (agg *Aggregator) ClassTrend(ctx context.Context, sess core.Session, tq TrendQuery) (ClassTrend, error) {
	if err := sess.RequireStaff(); err != nil {
		return ClassTrend{}, err
	}
	tq.ClassName = core.CleanString(tq.ClassName)
	tq.Section = core.CleanString(tq.Section)
	tq.AcademicYear = agg.academicYear(tq.AcademicYear)
	if err := core.Validate.Struct(tq); err != nil {
		return ClassTrend{}, err
	}
	start, end, err := parseRange(tq.StartDate, tq.EndDate)
	if err != nil {
		return ClassTrend{}, err
	}

	marks, err := agg.finalizedMarks(
		ctx,
		MarkFilter{Class: tq.ClassName, Section: tq.Section, AcademicYear: tq.AcademicYear, From: start, To: end},
		FinalizationFilter{
			Class:        tq.ClassName,
			Section:      tq.Section,
			AcademicYear: tq.AcademicYear,
			From:         core.FormatDay(start),
			To:           core.FormatDay(end),
		},
	)
	if err != nil {
		return ClassTrend{}, err
	}

	byDate := make(map[string]*DailyStat)
	dates := make([]string, 0)
	for _, m := range marks {
		d := core.FormatDay(m.Date)
		stat, ok := byDate[d]
		if !ok {
			stat = &DailyStat{Date: d}
			byDate[d] = stat
			dates = append(dates, d)
		}
		stat.Total++
		if m.Status == Present {
			stat.Present++
		} else {
			stat.Absent++
		}
	}
	sort.Strings(dates)

	trend := ClassTrend{
		ClassName: tq.ClassName,
		Section:   tq.Section,
		StartDate: core.FormatDay(start),
		EndDate:   core.FormatDay(end),
		Trend:     make([]DailyStat, 0, len(dates)),
	}
	for _, d := range dates {
		stat := *byDate[d]
		stat.PresentPercentage = core.Percentage(stat.Present, stat.Total, 2)
		stat.AbsentPercentage = core.Percentage(stat.Absent, stat.Total, 2)
		trend.Trend = append(trend.Trend, stat)
	}
	return trend, nil
}
