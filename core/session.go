package core

// Roles
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
	RoleSystem  = "system"
)

var AllRoles = []string{RoleAdmin, RoleTeacher, RoleStudent}

var ErrPermissionDenied = NewPermissionError("permission denied")

// Session identifies the caller of a core operation.
// It is built by the transport (JWT claims, CLI) and passed explicitly; the core never looks anything up.
type Session struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Role   string `json:"role"`

	// set for class teachers
	Class   string `json:"class,omitempty"`
	Section string `json:"section,omitempty"`
}

// SystemSession is used by background jobs and the admin CLI.
func SystemSession() Session {
	return Session{UserID: "system", Name: "System", Role: RoleSystem}
}

func (s Session) IsAdmin() bool   { return s.Role == RoleAdmin || s.Role == RoleSystem }
func (s Session) IsTeacher() bool { return s.Role == RoleTeacher }
func (s Session) IsStudent() bool { return s.Role == RoleStudent }

// IsStaff reports whether the session may mark and finalize attendance.
func (s Session) IsStaff() bool { return s.IsAdmin() || s.IsTeacher() }

// CanViewStudent reports whether the session may read the given student's attendance.
func (s Session) CanViewStudent(studentID string) bool {
	return s.IsStaff() || (s.IsStudent() && s.UserID != "" && s.UserID == studentID)
}

// RequireStaff returns ErrPermissionDenied for non staff sessions.
func (s Session) RequireStaff() error {
	if !s.IsStaff() {
		return ErrPermissionDenied
	}
	return nil
}

// CanManageClass reports whether the session may mark or finalize attendance of a class section.
// Teachers bound to a class section may only manage that one.
func (s Session) CanManageClass(class, section string) bool {
	if s.IsAdmin() {
		return true
	}
	if !s.IsTeacher() {
		return false
	}
	return s.Class == "" || (s.Class == class && (s.Section == "" || s.Section == section))
}
