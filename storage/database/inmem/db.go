package inmemdb

import (
	"sync"

	"github.com/google/uuid"

	"github.com/trezcool/rollcall/core/alert"
	"github.com/trezcool/rollcall/core/attendance"
	"github.com/trezcool/rollcall/core/class"
	"github.com/trezcool/rollcall/core/student"
	"github.com/trezcool/rollcall/core/teacher"
)

type (
	studentTable struct {
		mutex sync.RWMutex
		table map[string]*student.Student // {id: student}
	}

	teacherTable struct {
		mutex sync.RWMutex
		table map[string]*teacher.Teacher // {id: teacher}
	}

	classTable struct {
		mutex sync.RWMutex
		table map[string]*class.Class // {id: class}
	}

	alertTable struct {
		mutex sync.RWMutex
		table map[string]*alert.Alert // {id: alert}
	}

	markTable struct {
		mutex sync.RWMutex
		table map[string]*attendance.Mark // {id: mark}
		byDay map[string]string           // {studentID|day: id}
	}

	finalizationTable struct {
		mutex sync.RWMutex
		table map[string]*attendance.Finalization // {class|section|day|academicYear: finalization}
	}

	// DB is an in-memory database; every table enforces the same unique constraints as the SQL schema.
	DB struct {
		student      *studentTable
		teacher      *teacherTable
		class        *classTable
		alert        *alertTable
		mark         *markTable
		finalization *finalizationTable
	}
)

func NewDB() *DB {
	return &DB{
		student:      &studentTable{table: make(map[string]*student.Student)},
		teacher:      &teacherTable{table: make(map[string]*teacher.Teacher)},
		class:        &classTable{table: make(map[string]*class.Class)},
		alert:        &alertTable{table: make(map[string]*alert.Alert)},
		mark:         &markTable{table: make(map[string]*attendance.Mark), byDay: make(map[string]string)},
		finalization: &finalizationTable{table: make(map[string]*attendance.Finalization)},
	}
}

func newID() string {
	return uuid.New().String()
}
