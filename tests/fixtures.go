package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/attendance"
	"github.com/trezcool/rollcall/core/class"
	"github.com/trezcool/rollcall/core/student"
	"github.com/trezcool/rollcall/core/teacher"
)

const AcademicYear = "2024-2025"

var (
	Admin   = core.Session{UserID: "admin-1", Name: "Admin", Role: core.RoleAdmin}
	Teacher = core.Session{UserID: "teacher-1", Name: "Teacher", Role: core.RoleTeacher}
)

func StudentSession(id string) core.Session {
	return core.Session{UserID: id, Name: "Student", Role: core.RoleStudent}
}

// ClassTeacher is a teacher bound to one class section.
func ClassTeacher(class, section string) core.Session {
	return core.Session{UserID: "teacher-" + class + section, Name: "Class Teacher", Role: core.RoleTeacher, Class: class, Section: section}
}

// Day parses a YYYY-MM-DD day; it panics on bad input.
func Day(s string) time.Time {
	d, err := core.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FreezeToday pins core.Today to `day` for the duration of the test.
func FreezeToday(t *testing.T, day string) {
	now := Day(day).Add(12 * time.Hour)
	orig := core.NowFunc
	core.NowFunc = func() time.Time { return now }
	t.Cleanup(func() { core.NowFunc = orig })
}

func CreateStudent(t *testing.T, repo student.Repository, rollCode, name, cls, section, parentContact string) student.Student {
	now := time.Now().UTC()
	std, err := repo.CreateStudent(context.Background(), student.Student{
		RollCode:      rollCode,
		Name:          name,
		Class:         cls,
		Section:       section,
		ParentName:    "Parent of " + name,
		ParentContact: parentContact,
		AcademicYear:  AcademicYear,
		Board:         student.DefaultBoard,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return std
}

// CreateTeacher adds an active teacher; class and section may be empty.
func CreateTeacher(t *testing.T, repo teacher.Repository, id, name, cls, section string) teacher.Teacher {
	now := time.Now().UTC()
	tchr, err := repo.CreateTeacher(context.Background(), teacher.Teacher{
		ID:        id,
		Name:      name,
		Class:     cls,
		Section:   section,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateTeacher() failed: %v", err)
	}
	return tchr
}

func CreateClass(t *testing.T, repo class.Repository, className, section, classTeacher string) class.Class {
	now := time.Now().UTC()
	cls, err := repo.CreateClass(context.Background(), class.Class{
		ClassName:    className,
		Section:      section,
		AcademicYear: AcademicYear,
		Board:        class.DefaultBoard,
		ClassTeacher: classTeacher,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	return cls
}

// MarkDay submits the given statuses ({studentID: status}) for a class day.
func MarkDay(t *testing.T, svc *attendance.MarkService, className, section, date string, statuses map[string]attendance.Status) attendance.SubmitResult {
	items := make([]attendance.MarkItem, 0, len(statuses))
	for id, status := range statuses {
		items = append(items, attendance.MarkItem{StudentID: id, Status: string(status)})
	}
	res, err := svc.Submit(context.Background(), Admin, attendance.SubmitMarks{
		ClassName:    className,
		Section:      section,
		Date:         date,
		AcademicYear: AcademicYear,
		Marks:        items,
	})
	if err != nil {
		t.Fatalf("MarkDay() failed: %v", err)
	}
	return res
}

func FinalizeDay(t *testing.T, f *attendance.Finalizer, className, section, date string) attendance.Finalization {
	fin, err := f.Finalize(context.Background(), Admin, attendance.DayQuery{
		ClassName:    className,
		Section:      section,
		Date:         date,
		AcademicYear: AcademicYear,
	})
	if err != nil {
		t.Fatalf("FinalizeDay() failed: %v", err)
	}
	return fin
}

// MarkAndFinalize marks then finalizes a class day.
func MarkAndFinalize(t *testing.T, env *Env, className, section, date string, statuses map[string]attendance.Status) {
	MarkDay(t, env.MarkSvc, className, section, date, statuses)
	FinalizeDay(t, env.Finalizer, className, section, date)
}
