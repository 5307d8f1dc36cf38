package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/rollcall/core/teacher"
)

type teacherRepository struct {
	db *teacherTable
}

func NewTeacherRepository(db *DB) teacher.Repository {
	return &teacherRepository{db: db.teacher}
}

func (repo *teacherRepository) CreateTeacher(_ context.Context, tchr teacher.Teacher) (teacher.Teacher, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, exists := repo.db.table[tchr.ID]; exists {
		return teacher.Teacher{}, teacher.ErrIDExists
	}
	repo.db.table[tchr.ID] = &tchr
	return tchr, nil
}

func (repo *teacherRepository) GetTeacher(_ context.Context, id string) (teacher.Teacher, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if tchr, ok := repo.db.table[id]; ok {
		return *tchr, nil
	}
	return teacher.Teacher{}, teacher.ErrNotFound
}

func (repo *teacherRepository) QueryTeachers(_ context.Context, filter teacher.QueryFilter) ([]teacher.Teacher, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	teachers := make([]teacher.Teacher, 0)
	for _, tchr := range repo.db.table {
		switch {
		case filter.Class != "" && tchr.Class != filter.Class,
			filter.Section != "" && tchr.Section != filter.Section,
			filter.IsActive != nil && tchr.IsActive != *filter.IsActive:
			continue
		}
		teachers = append(teachers, *tchr)
	}
	sort.Slice(teachers, func(i, j int) bool {
		if teachers[i].Name != teachers[j].Name {
			return teachers[i].Name < teachers[j].Name
		}
		return teachers[i].ID < teachers[j].ID
	})
	return teachers, nil
}

func (repo *teacherRepository) UpdateTeacher(_ context.Context, tchr teacher.Teacher) (teacher.Teacher, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[tchr.ID]; !ok {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	repo.db.table[tchr.ID] = &tchr
	return tchr, nil
}
