package alert

import (
	"strings"
	"time"

	"github.com/trezcool/rollcall/core"
)

// Sender roles
const (
	SenderAdmin   = "ADMIN"
	SenderTeacher = "TEACHER"
)

// Target types
const (
	TargetClass   = "CLASS"
	TargetStudent = "STUDENT"
	TargetTeacher = "TEACHER"
)

// Alert is an in-app message addressed to a class section, a student or a teacher.
type Alert struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	SenderRole   string    `json:"senderRole"`
	SenderID     string    `json:"senderId"`
	TargetType   string    `json:"targetType"`
	Class        string    `json:"class,omitempty"`
	Section      string    `json:"section,omitempty"`
	StudentID    string    `json:"studentId,omitempty"`
	TeacherID    string    `json:"teacherId,omitempty"`
	AcademicYear string    `json:"academicYear"`
	IsRead       bool      `json:"isRead"`
	CreatedAt    time.Time `json:"createdAt"` // UTC
	UpdatedAt    time.Time `json:"updatedAt"` // UTC
}

// AddressedTo reports whether the session is a recipient of the alert.
// A class alert is received by the staff managing that section.
func (a Alert) AddressedTo(sess core.Session) bool {
	if sess.UserID == "" {
		return false
	}
	switch a.TargetType {
	case TargetStudent:
		return sess.IsStudent() && sess.UserID == a.StudentID
	case TargetTeacher:
		return sess.IsTeacher() && sess.UserID == a.TeacherID
	case TargetClass:
		return sess.IsTeacher() && sess.CanManageClass(a.Class, a.Section)
	}
	return false
}

type NewAlert struct {
	Title        string `json:"title" validate:"required,notblank"`
	Message      string `json:"message" validate:"required,notblank"`
	TargetType   string `json:"targetType" validate:"required,oneof=CLASS STUDENT TEACHER"`
	Class        string `json:"class" validate:"required_if=TargetType CLASS"`
	Section      string `json:"section" validate:"required_if=TargetType CLASS"`
	StudentID    string `json:"studentId" validate:"required_if=TargetType STUDENT"`
	TeacherID    string `json:"teacherId" validate:"required_if=TargetType TEACHER"`
	AcademicYear string `json:"academicYear" validate:"required,acadyear"`
}

func (na *NewAlert) Clean(defaultAcademicYear string) {
	na.Title = core.CleanString(na.Title)
	na.Message = core.CleanString(na.Message)
	na.TargetType = strings.ToUpper(core.CleanString(na.TargetType))
	na.Class = core.CleanString(na.Class)
	na.Section = core.CleanString(na.Section)
	na.StudentID = core.CleanString(na.StudentID)
	na.TeacherID = core.CleanString(na.TeacherID)
	if na.AcademicYear = core.CleanString(na.AcademicYear); na.AcademicYear == "" {
		na.AcademicYear = defaultAcademicYear
	}
}

func (na NewAlert) Validate() error { return core.Validate.Struct(na) }

// QueryFilter matches on every non-empty field. Results are sorted newest first.
type QueryFilter struct {
	TargetType   string
	Class        string
	Section      string
	StudentID    string
	TeacherID    string
	SenderID     string
	AcademicYear string
}

// TeacherNotice asks the class teacher of a section to look at its shortage list.
type TeacherNotice struct {
	ClassName    string `json:"className" validate:"required,notblank"`
	Section      string `json:"section" validate:"required,notblank"`
	AcademicYear string `json:"academicYear" validate:"required,acadyear"`
	Count        int    `json:"count" validate:"min=0"`
}
