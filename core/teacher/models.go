package teacher

import (
	"time"

	"github.com/trezcool/rollcall/core"
)

// Teacher is a staff member. ID is the staff code chosen by the school; it is also the subject of teacher tokens
// and the value of class.Class.ClassTeacher.
type Teacher struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Contact   string    `json:"contact,omitempty"`
	Class     string    `json:"class,omitempty"`   // bound class, empty for unrestricted teachers
	Section   string    `json:"section,omitempty"` // bound section
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"` // UTC
	UpdatedAt time.Time `json:"updatedAt"` // UTC
}

// Bound reports whether the teacher is restricted to one class section.
func (t Teacher) Bound() bool { return t.Class != "" }

// Session is the API session of the teacher.
func (t Teacher) Session() core.Session {
	return core.Session{UserID: t.ID, Name: t.Name, Role: core.RoleTeacher, Class: t.Class, Section: t.Section}
}

type NewTeacher struct {
	ID      string `json:"id" validate:"required,notblank,max=64"`
	Name    string `json:"name" validate:"required,notblank"`
	Email   string `json:"email" validate:"omitempty,email"`
	Contact string `json:"contact" validate:"omitempty,max=20"`
	Class   string `json:"class" validate:"required_with=Section"`
	Section string `json:"section" validate:"required_with=Class"`
}

func (nt *NewTeacher) Clean() {
	nt.ID = core.CleanString(nt.ID)
	nt.Name = core.CleanString(nt.Name)
	nt.Email = core.CleanString(nt.Email, true /* lower */)
	nt.Contact = core.CleanString(nt.Contact)
	nt.Class = core.CleanString(nt.Class)
	nt.Section = core.CleanString(nt.Section)
}

func (nt NewTeacher) Validate() error { return core.Validate.Struct(nt) }

// UpdateTeacher only touches the fields that are set.
type UpdateTeacher struct {
	Name     string  `json:"name"`
	Email    string  `json:"email" validate:"omitempty,email"`
	Contact  string  `json:"contact" validate:"omitempty,max=20"`
	Class    *string `json:"class"`   // "" unbinds the teacher, along with Section
	Section  *string `json:"section"` // must be set with Class
	IsActive *bool   `json:"isActive"`
}

func (ut *UpdateTeacher) Apply(orig Teacher) (Teacher, error) {
	if err := core.Validate.Struct(ut); err != nil {
		return Teacher{}, err
	}
	tchr := orig
	if v := core.CleanString(ut.Name); v != "" {
		tchr.Name = v
	}
	if v := core.CleanString(ut.Email, true /* lower */); v != "" {
		tchr.Email = v
	}
	if v := core.CleanString(ut.Contact); v != "" {
		tchr.Contact = v
	}
	if ut.Class != nil || ut.Section != nil {
		var cls, section string
		if ut.Class != nil {
			cls = core.CleanString(*ut.Class)
		}
		if ut.Section != nil {
			section = core.CleanString(*ut.Section)
		}
		if (cls == "") != (section == "") {
			return Teacher{}, core.NewValidationError(
				ErrIncompleteBinding, core.FieldError{Field: "section", Error: ErrIncompleteBinding.Error()},
			)
		}
		tchr.Class, tchr.Section = cls, section
	}
	if ut.IsActive != nil {
		tchr.IsActive = *ut.IsActive
	}
	return tchr, nil
}

// QueryFilter results are sorted by name.
type QueryFilter struct {
	Class    string `query:"className"`
	Section  string `query:"section"`
	IsActive *bool  `query:"isActive"`
}
