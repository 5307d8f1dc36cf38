package class

import (
	"time"

	"github.com/trezcool/rollcall/core"
)

const DefaultBoard = "CBSE"

// Class is a class section of an academic year, eg: 10 / A / 2024-2025.
type Class struct {
	ID           string    `json:"id"`
	ClassName    string    `json:"className"`
	Section      string    `json:"section"`
	AcademicYear string    `json:"academicYear"`
	Board        string    `json:"board"`
	ClassTeacher string    `json:"classTeacher,omitempty"` // teacher user id
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"` // UTC
	UpdatedAt    time.Time `json:"updatedAt"` // UTC
}

func (c Class) Label() string { return c.ClassName + c.Section }

type NewClass struct {
	ClassName    string `json:"className" validate:"required,notblank"`
	Section      string `json:"section" validate:"required,notblank"`
	AcademicYear string `json:"academicYear" validate:"required,acadyear"`
	Board        string `json:"board"`
	ClassTeacher string `json:"classTeacher"`
}

func (nc *NewClass) Clean(defaultAcademicYear string) {
	nc.ClassName = core.CleanString(nc.ClassName)
	nc.Section = core.CleanString(nc.Section)
	nc.AcademicYear = core.CleanString(nc.AcademicYear)
	if nc.AcademicYear == "" {
		nc.AcademicYear = defaultAcademicYear
	}
	nc.Board = core.CleanString(nc.Board)
	if nc.Board == "" {
		nc.Board = DefaultBoard
	}
	nc.ClassTeacher = core.CleanString(nc.ClassTeacher)
}

func (nc NewClass) Validate() error { return core.Validate.Struct(nc) }

// UpdateClass only touches the fields that are set.
type UpdateClass struct {
	Board        string  `json:"board"`
	ClassTeacher *string `json:"classTeacher"` // "" unassigns the teacher
	IsActive     *bool   `json:"isActive"`
}

func (uc UpdateClass) Apply(orig Class) Class {
	cls := orig
	if b := core.CleanString(uc.Board); b != "" {
		cls.Board = b
	}
	if uc.ClassTeacher != nil {
		cls.ClassTeacher = core.CleanString(*uc.ClassTeacher)
	}
	if uc.IsActive != nil {
		cls.IsActive = *uc.IsActive
	}
	return cls
}

type QueryFilter struct {
	AcademicYear string `query:"academicYear"`
	ClassTeacher string `query:"classTeacher"`
	IsActive     *bool  `query:"isActive"`
}
