package alert

import (
	"context"
	"fmt"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/class"
	"github.com/trezcool/rollcall/core/teacher"
)

var (
	// errors
	ErrNotFound             = core.NewNotFoundError("alert not found")
	ErrClassTeacherNotFound = core.NewNotFoundError("class teacher not found")
	ErrUnknownTeacher       = errors.New("no active teacher with this id")
)

const lowAttendanceTitle = "Low Attendance Alert"

type (
	Repository interface {
		CreateAlert(ctx context.Context, alrt Alert) (Alert, error)
		GetAlert(ctx context.Context, id string) (Alert, error)
		QueryAlerts(ctx context.Context, filter QueryFilter) ([]Alert, error)
		UpdateAlert(ctx context.Context, alrt Alert) (Alert, error)
	}

	// ClassFinder resolves a class section; satisfied by *class.Service.
	ClassFinder interface {
		GetBySection(ctx context.Context, className, section, academicYear string) (class.Class, error)
	}

	// TeacherFinder resolves active teachers; satisfied by *teacher.Service.
	TeacherFinder interface {
		Lookup(ctx context.Context, id string) (teacher.Teacher, error)
	}

	Service struct {
		repo     Repository
		classes  ClassFinder
		teachers TeacherFinder
		conf     *core.Config
	}
)

func NewService(repo Repository, classes ClassFinder, teachers TeacherFinder, conf *core.Config) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(classes, "classes"),
		vala.IsNotNil(teachers, "teachers"),
		vala.IsNotNil(conf, "conf"),
	).CheckAndPanic()
	return &Service{repo: repo, classes: classes, teachers: teachers, conf: conf}
}

func senderRole(sess core.Session) string {
	if sess.IsTeacher() {
		return SenderTeacher
	}
	return SenderAdmin
}

func (svc *Service) academicYear(ay string) string {
	if ay = core.CleanString(ay); ay != "" {
		return ay
	}
	return svc.conf.Attendance.DefaultAcademicYear
}

func (svc *Service) Create(ctx context.Context, sess core.Session, na NewAlert) (Alert, error) {
	if err := sess.RequireStaff(); err != nil {
		return Alert{}, err
	}
	na.Clean(svc.conf.Attendance.DefaultAcademicYear)
	if err := na.Validate(); err != nil {
		return Alert{}, err
	}
	if na.TargetType == TargetTeacher {
		if _, err := svc.teachers.Lookup(ctx, na.TeacherID); err != nil {
			if core.IsNotFound(err) {
				return Alert{}, core.NewValidationError(ErrUnknownTeacher, core.FieldError{Field: "teacherId", Error: ErrUnknownTeacher.Error()})
			}
			return Alert{}, errors.Wrap(err, "looking up teacher")
		}
	}

	now := core.NowFunc().UTC()
	return svc.repo.CreateAlert(ctx, Alert{
		Title:        na.Title,
		Message:      na.Message,
		SenderRole:   senderRole(sess),
		SenderID:     sess.UserID,
		TargetType:   na.TargetType,
		Class:        na.Class,
		Section:      na.Section,
		StudentID:    na.StudentID,
		TeacherID:    na.TeacherID,
		AcademicYear: na.AcademicYear,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

// ForStudent lists the alerts addressed to one student.
func (svc *Service) ForStudent(ctx context.Context, sess core.Session, studentID, academicYear string) ([]Alert, error) {
	studentID = core.CleanString(studentID)
	if !sess.CanViewStudent(studentID) {
		return nil, core.ErrPermissionDenied
	}
	return svc.repo.QueryAlerts(ctx, QueryFilter{
		TargetType:   TargetStudent,
		StudentID:    studentID,
		AcademicYear: svc.academicYear(academicYear),
	})
}

// ForClass lists the alerts addressed to a class section.
func (svc *Service) ForClass(ctx context.Context, className, section, academicYear string) ([]Alert, error) {
	return svc.repo.QueryAlerts(ctx, QueryFilter{
		TargetType:   TargetClass,
		Class:        core.CleanString(className),
		Section:      core.CleanString(section),
		AcademicYear: svc.academicYear(academicYear),
	})
}

// ForTeacher lists the alerts addressed to a teacher.
func (svc *Service) ForTeacher(ctx context.Context, sess core.Session, teacherID, academicYear string) ([]Alert, error) {
	teacherID = core.CleanString(teacherID)
	if !sess.IsAdmin() && !(sess.IsTeacher() && sess.UserID == teacherID) {
		return nil, core.ErrPermissionDenied
	}
	return svc.repo.QueryAlerts(ctx, QueryFilter{
		TargetType:   TargetTeacher,
		TeacherID:    teacherID,
		AcademicYear: svc.academicYear(academicYear),
	})
}

// Query lists alerts by sender and/or academic year; both are optional.
func (svc *Service) Query(ctx context.Context, sess core.Session, senderID, academicYear string) ([]Alert, error) {
	if err := sess.RequireStaff(); err != nil {
		return nil, err
	}
	return svc.repo.QueryAlerts(ctx, QueryFilter{
		SenderID:     core.CleanString(senderID),
		AcademicYear: core.CleanString(academicYear),
	})
}

// MarkRead flags an alert as read. Only admins and the recipients of the alert may do so.
func (svc *Service) MarkRead(ctx context.Context, sess core.Session, id string) (Alert, error) {
	alrt, err := svc.repo.GetAlert(ctx, core.CleanString(id))
	if err != nil {
		return Alert{}, err
	}
	if !sess.IsAdmin() && !alrt.AddressedTo(sess) {
		return Alert{}, core.ErrPermissionDenied
	}
	if alrt.IsRead {
		return alrt, nil
	}
	alrt.IsRead = true
	alrt.UpdatedAt = core.NowFunc().UTC()
	return svc.repo.UpdateAlert(ctx, alrt)
}

// NotifyClassTeacher sends a low attendance alert to the class teacher of a section.
func (svc *Service) NotifyClassTeacher(ctx context.Context, sess core.Session, tn TeacherNotice) (Alert, error) {
	if !sess.IsAdmin() {
		return Alert{}, core.ErrPermissionDenied
	}
	tn.ClassName = core.CleanString(tn.ClassName)
	tn.Section = core.CleanString(tn.Section)
	tn.AcademicYear = core.CleanString(tn.AcademicYear)
	if err := core.Validate.Struct(tn); err != nil {
		return Alert{}, err
	}

	cls, err := svc.classes.GetBySection(ctx, tn.ClassName, tn.Section, tn.AcademicYear)
	if err != nil {
		if core.IsNotFound(err) {
			return Alert{}, ErrClassTeacherNotFound
		}
		return Alert{}, err
	}
	if cls.ClassTeacher == "" {
		return Alert{}, ErrClassTeacherNotFound
	}
	tchr, err := svc.teachers.Lookup(ctx, cls.ClassTeacher)
	if err != nil {
		if core.IsNotFound(err) {
			return Alert{}, ErrClassTeacherNotFound
		}
		return Alert{}, errors.Wrap(err, "looking up class teacher")
	}

	now := core.NowFunc().UTC()
	return svc.repo.CreateAlert(ctx, Alert{
		Title:        lowAttendanceTitle,
		Message:      fmt.Sprintf("%d students below attendance threshold", tn.Count),
		SenderRole:   SenderAdmin,
		SenderID:     sess.UserID,
		TargetType:   TargetTeacher,
		TeacherID:    tchr.ID,
		AcademicYear: tn.AcademicYear,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}
