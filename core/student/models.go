package student

import (
	"time"

	"github.com/trezcool/rollcall/core"
)

const DefaultBoard = "CBSE"

type Student struct {
	ID            string    `json:"id"`
	RollCode      string    `json:"rollCode"`
	Name          string    `json:"name"`
	Email         string    `json:"email,omitempty"`
	Class         string    `json:"class"`
	Section       string    `json:"section"`
	ParentName    string    `json:"parentName,omitempty"`
	ParentContact string    `json:"parentContact,omitempty"`
	AcademicYear  string    `json:"academicYear"`
	Board         string    `json:"board"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"` // UTC
	UpdatedAt     time.Time `json:"updatedAt"` // UTC
}

// ClassLabel is the class and section joined, eg: "10A".
func (s Student) ClassLabel() string {
	return s.Class + s.Section
}

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	RollCode      string `json:"rollCode" validate:"required,notblank,max=32"`
	Name          string `json:"name" validate:"required,notblank"`
	Email         string `json:"email" validate:"omitempty,email"`
	Class         string `json:"class" validate:"required,notblank"`
	Section       string `json:"section" validate:"required,notblank"`
	ParentName    string `json:"parentName"`
	ParentContact string `json:"parentContact" validate:"omitempty,max=20"`
	AcademicYear  string `json:"academicYear" validate:"required,acadyear"`
	Board         string `json:"board"`
}

func (ns *NewStudent) Clean(defaultAcademicYear string) {
	ns.RollCode = core.CleanString(ns.RollCode)
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Class = core.CleanString(ns.Class)
	ns.Section = core.CleanString(ns.Section)
	ns.ParentName = core.CleanString(ns.ParentName)
	ns.ParentContact = core.CleanString(ns.ParentContact)
	ns.AcademicYear = core.CleanString(ns.AcademicYear)
	if ns.AcademicYear == "" {
		ns.AcademicYear = defaultAcademicYear
	}
	ns.Board = core.CleanString(ns.Board)
	if ns.Board == "" {
		ns.Board = DefaultBoard
	}
}

func (ns NewStudent) Validate() error { return core.Validate.Struct(ns) }

// UpdateStudent defines what information may be provided to modify an existing Student.
// Empty fields are left unchanged.
type UpdateStudent struct {
	Name          string `json:"name"`
	Email         string `json:"email" validate:"omitempty,email"`
	Class         string `json:"class"`
	Section       string `json:"section"`
	ParentName    string `json:"parentName"`
	ParentContact string `json:"parentContact" validate:"omitempty,max=20"`
	AcademicYear  string `json:"academicYear" validate:"omitempty,acadyear"`
	Board         string `json:"board"`
	IsActive      *bool  `json:"isActive"`
}

func (us *UpdateStudent) Apply(orig Student) (Student, error) {
	if err := core.Validate.Struct(us); err != nil {
		return Student{}, err
	}
	set := func(dst *string, v string, lower ...bool) {
		if v = core.CleanString(v, lower...); v != "" {
			*dst = v
		}
	}
	std := orig
	set(&std.Name, us.Name)
	set(&std.Email, us.Email, true /* lower */)
	set(&std.Class, us.Class)
	set(&std.Section, us.Section)
	set(&std.ParentName, us.ParentName)
	set(&std.ParentContact, us.ParentContact)
	set(&std.AcademicYear, us.AcademicYear)
	set(&std.Board, us.Board)
	if us.IsActive != nil {
		std.IsActive = *us.IsActive
	}
	return std, nil
}

type QueryFilter struct {
	Class        string `query:"className"`
	Section      string `query:"section"`
	AcademicYear string `query:"academicYear"`
	IsActive     *bool  `query:"isActive"`
	Search       string `query:"search"` // case-insensitive match on name or roll code
}

func (qf *QueryFilter) Clean() {
	qf.Class = core.CleanString(qf.Class)
	qf.Section = core.CleanString(qf.Section)
	qf.AcademicYear = core.CleanString(qf.AcademicYear)
	qf.Search = core.CleanString(qf.Search)
}

// Active returns a pointer to true, for QueryFilter.IsActive.
func Active() *bool {
	t := true
	return &t
}
