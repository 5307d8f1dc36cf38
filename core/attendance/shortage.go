package attendance

import (
	"context"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/student"
)

// ShortageDetector finds students whose semester attendance is below the threshold
// and warns their parents through the Notifier.
type ShortageDetector struct {
	agg        *Aggregator
	students   StudentFinder
	notifier   core.Notifier
	dispatcher *core.Dispatcher
	logger     core.Logger
	conf       *core.Config
}

func NewShortageDetector(
	agg *Aggregator,
	students StudentFinder,
	notifier core.Notifier,
	dispatcher *core.Dispatcher,
	logger core.Logger,
	conf *core.Config,
) *ShortageDetector {
	vala.BeginValidation().Validate(
		vala.IsNotNil(agg, "agg"),
		vala.IsNotNil(students, "students"),
		vala.IsNotNil(notifier, "notifier"),
		vala.IsNotNil(dispatcher, "dispatcher"),
		vala.IsNotNil(logger, "logger"),
		vala.IsNotNil(conf, "conf"),
	).CheckAndPanic()
	return &ShortageDetector{
		agg:        agg,
		students:   students,
		notifier:   notifier,
		dispatcher: dispatcher,
		logger:     logger,
		conf:       conf,
	}
}

func (sd *ShortageDetector) threshold(t *float64) float64 {
	if t != nil {
		return *t
	}
	return sd.conf.Attendance.Threshold
}

func lowAttendanceAlert(std student.Student, sum Summary, threshold float64) core.AttendanceAlert {
	return core.AttendanceAlert{
		Contact:     std.ParentContact,
		Email:       std.Email,
		StudentName: std.Name,
		ClassLabel:  std.ClassLabel(),
		Percentage:  sum.Percentage,
		Threshold:   threshold,
	}
}

// List returns the active students whose semester-to-date attendance is below the threshold.
// Students without any finalized day are never listed.
func (sd *ShortageDetector) List(ctx context.Context, sess core.Session, sq ShortageQuery) (ShortageReport, error) {
	report, _, err := sd.list(ctx, sess, sq)
	return report, err
}

func (sd *ShortageDetector) list(ctx context.Context, sess core.Session, sq ShortageQuery) (ShortageReport, []student.Student, error) {
	if err := sess.RequireStaff(); err != nil {
		return ShortageReport{}, nil, err
	}
	sq.ClassName = core.CleanString(sq.ClassName)
	sq.Section = core.CleanString(sq.Section)
	sq.AcademicYear = sd.agg.academicYear(sq.AcademicYear)
	if err := core.Validate.Struct(sq); err != nil {
		return ShortageReport{}, nil, err
	}
	ay, _ := core.ParseAcademicYear(sq.AcademicYear)
	start, end := sd.conf.Attendance.Calendar().SemesterRange(ay, core.Today())
	threshold := sd.threshold(sq.Threshold)

	report := ShortageReport{
		AcademicYear: sq.AcademicYear,
		StartDate:    core.FormatDay(start),
		EndDate:      core.FormatDay(end),
		Threshold:    threshold,
		Students:     []ShortageEntry{},
	}
	if end.Before(start) {
		// the academic year has not started yet
		return report, nil, nil
	}

	students, err := sd.students.QueryStudents(ctx, student.QueryFilter{
		Class:        sq.ClassName,
		Section:      sq.Section,
		AcademicYear: sq.AcademicYear,
		IsActive:     student.Active(),
	})
	if err != nil {
		return ShortageReport{}, nil, errors.Wrap(err, "querying students")
	}
	ids := make([]string, 0, len(students))
	for _, std := range students {
		ids = append(ids, std.ID)
	}
	sums, err := sd.agg.studentSummaries(ctx, ids, start, end, sq.AcademicYear)
	if err != nil {
		return ShortageReport{}, nil, err
	}

	var flagged []student.Student
	for _, std := range students {
		sum := sums[std.ID]
		if sum.TotalDays > 0 && sum.Percentage < threshold {
			report.Students = append(report.Students, ShortageEntry{
				Student:          studentInfo(std),
				Attendance:       sum,
				IsBelowThreshold: true,
			})
			flagged = append(flagged, std)
		}
	}
	report.Count = len(report.Students)
	return report, flagged, nil
}

// NotifyAll lists the shortage and schedules one parent notification per listed student.
// Notifications are sent in the background; their failures are only logged.
func (sd *ShortageDetector) NotifyAll(ctx context.Context, sess core.Session, sq ShortageQuery) (ShortageReport, error) {
	if !sess.IsAdmin() {
		return ShortageReport{}, core.ErrPermissionDenied
	}
	report, flagged, err := sd.list(ctx, sess, sq)
	if err != nil {
		return ShortageReport{}, err
	}
	for i, std := range flagged {
		if std.ParentContact == "" && std.Email == "" {
			continue
		}
		alert := lowAttendanceAlert(std, report.Students[i].Attendance, report.Threshold)
		sd.dispatcher.Go("notify-parent", func(ctx context.Context) error {
			return sd.notifier.NotifyLowAttendance(ctx, alert)
		})
	}
	return report, nil
}

// CheckAndNotify warns the parent of a student whose semester-to-date attendance dropped below the threshold.
// Nothing is sent before the student has NotifyMinDays finalized days.
func (sd *ShortageDetector) CheckAndNotify(ctx context.Context, studentID, academicYear string) error {
	std, err := sd.students.GetStudent(ctx, studentID)
	if err != nil {
		if core.IsNotFound(err) {
			return nil
		}
		return errors.Wrap(err, "getting student")
	}
	if !std.IsActive || (std.ParentContact == "" && std.Email == "") {
		return nil
	}

	academicYear = sd.agg.academicYear(academicYear)
	ay, err := core.ParseAcademicYear(academicYear)
	if err != nil {
		return err
	}
	start, end := sd.conf.Attendance.Calendar().SemesterRange(ay, core.Today())
	if end.Before(start) {
		return nil
	}
	sum, err := sd.agg.studentSummary(ctx, std.ID, start, end, academicYear)
	if err != nil {
		return err
	}

	threshold := sd.conf.Attendance.Threshold
	if sum.Percentage >= threshold || sum.TotalDays < sd.conf.Attendance.NotifyMinDays {
		return nil
	}
	sd.logger.Info("low attendance: notifying parent of " + std.RollCode)
	return sd.notifier.NotifyLowAttendance(ctx, lowAttendanceAlert(std, sum, threshold))
}

// NotifyParent sends a low attendance notification right away and reports its failure to the caller.
func (sd *ShortageDetector) NotifyParent(ctx context.Context, sess core.Session, pn ParentNotice) error {
	if err := sess.RequireStaff(); err != nil {
		return err
	}
	pn.ParentContact = core.CleanString(pn.ParentContact)
	pn.StudentName = core.CleanString(pn.StudentName)
	pn.ClassName = core.CleanString(pn.ClassName)
	pn.Section = core.CleanString(pn.Section)
	pn.Subject = core.CleanString(pn.Subject)
	pn.Email = core.CleanString(pn.Email, true /* lower */)
	if err := core.Validate.Struct(pn); err != nil {
		return err
	}

	label := "N/A"
	if pn.ClassName != "" {
		label = pn.ClassName + pn.Section
	}
	err := sd.notifier.NotifyLowAttendance(ctx, core.AttendanceAlert{
		Contact:     pn.ParentContact,
		Email:       pn.Email,
		StudentName: pn.StudentName,
		ClassLabel:  label,
		Percentage:  pn.AttendancePercentage,
		Threshold:   sd.conf.Attendance.Threshold,
		Subject:     pn.Subject,
	})
	return errors.Wrap(err, "notifying parent")
}

// StudentReport is a student's attendance over a range, checked against the threshold.
func (sd *ShortageDetector) StudentReport(ctx context.Context, sess core.Session, rq RangeQuery) (StudentReport, error) {
	rq.AcademicYear = sd.agg.academicYear(rq.AcademicYear)
	if err := core.Validate.Struct(rq); err != nil {
		return StudentReport{}, err
	}
	start, end, err := parseRange(rq.StartDate, rq.EndDate)
	if err != nil {
		return StudentReport{}, err
	}
	std, err := sd.agg.viewableStudent(ctx, sess, rq.StudentID)
	if err != nil {
		return StudentReport{}, err
	}
	sum, err := sd.agg.studentSummary(ctx, std.ID, start, end, rq.AcademicYear)
	if err != nil {
		return StudentReport{}, err
	}

	threshold := sd.conf.Attendance.Threshold
	return StudentReport{
		Student:          studentInfo(std),
		StartDate:        core.FormatDay(start),
		EndDate:          core.FormatDay(end),
		Attendance:       sum,
		Threshold:        threshold,
		IsBelowThreshold: sum.Percentage < threshold,
	}, nil
}

// SemesterReport is the StudentReport of the current semester, up to today.
func (sd *ShortageDetector) SemesterReport(ctx context.Context, sess core.Session, studentRef, academicYear string) (StudentReport, error) {
	academicYear = sd.agg.academicYear(academicYear)
	ay, err := core.ParseAcademicYear(academicYear)
	if err != nil {
		return StudentReport{}, core.NewValidationError(err, core.FieldError{Field: "academicYear", Error: err.Error()})
	}
	start, end := sd.conf.Attendance.Calendar().SemesterRange(ay, core.Today())
	if end.Before(start) {
		end = start
	}
	return sd.StudentReport(ctx, sess, RangeQuery{
		StudentID:    studentRef,
		StartDate:    core.FormatDay(start),
		EndDate:      core.FormatDay(end),
		AcademicYear: academicYear,
	})
}
