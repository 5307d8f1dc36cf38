package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/rollcall/core/student"
)

type studentRepository struct {
	db *studentTable
}

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db.student}
}

func (repo *studentRepository) rollCodeTaken(rollCode, excludedID string) bool {
	for _, std := range repo.db.table {
		if std.ID != excludedID && strings.EqualFold(std.RollCode, rollCode) {
			return true
		}
	}
	return false
}

func (repo *studentRepository) CreateStudent(_ context.Context, std student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if repo.rollCodeTaken(std.RollCode, "") {
		return student.Student{}, student.ErrRollCodeExists
	}
	std.ID = newID()
	repo.db.table[std.ID] = &std
	return std, nil
}

func (repo *studentRepository) GetStudent(_ context.Context, ref string) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if std, ok := repo.db.table[ref]; ok {
		return *std, nil
	}
	for _, std := range repo.db.table {
		if strings.EqualFold(std.RollCode, ref) {
			return *std, nil
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) QueryStudents(_ context.Context, filter student.QueryFilter) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	search := strings.ToLower(filter.Search)
	students := make([]student.Student, 0)
	for _, std := range repo.db.table {
		switch {
		case filter.Class != "" && std.Class != filter.Class,
			filter.Section != "" && std.Section != filter.Section,
			filter.AcademicYear != "" && std.AcademicYear != filter.AcademicYear,
			filter.IsActive != nil && std.IsActive != *filter.IsActive,
			search != "" && !strings.Contains(strings.ToLower(std.Name), search) &&
				!strings.Contains(strings.ToLower(std.RollCode), search):
			continue
		}
		students = append(students, *std)
	}
	sort.Slice(students, func(i, j int) bool {
		if students[i].Name != students[j].Name {
			return students[i].Name < students[j].Name
		}
		return students[i].RollCode < students[j].RollCode
	})
	return students, nil
}

func (repo *studentRepository) UpdateStudent(_ context.Context, std student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[std.ID]; !ok {
		return student.Student{}, student.ErrNotFound
	}
	if repo.rollCodeTaken(std.RollCode, std.ID) {
		return student.Student{}, student.ErrRollCodeExists
	}
	repo.db.table[std.ID] = &std
	return std, nil
}
