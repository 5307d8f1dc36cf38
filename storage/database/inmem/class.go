package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/rollcall/core/class"
)

type classRepository struct {
	db *classTable
}

func NewClassRepository(db *DB) class.Repository {
	return &classRepository{db: db.class}
}

func (repo *classRepository) findBySection(className, section, academicYear string) (*class.Class, bool) {
	for _, cls := range repo.db.table {
		if cls.ClassName == className && cls.Section == section && cls.AcademicYear == academicYear {
			return cls, true
		}
	}
	return nil, false
}

func (repo *classRepository) CreateClass(_ context.Context, cls class.Class) (class.Class, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, exists := repo.findBySection(cls.ClassName, cls.Section, cls.AcademicYear); exists {
		return class.Class{}, class.ErrClassExists
	}
	cls.ID = newID()
	repo.db.table[cls.ID] = &cls
	return cls, nil
}

func (repo *classRepository) GetClass(_ context.Context, id string) (class.Class, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if cls, ok := repo.db.table[id]; ok {
		return *cls, nil
	}
	return class.Class{}, class.ErrNotFound
}

func (repo *classRepository) GetClassBySection(_ context.Context, className, section, academicYear string) (class.Class, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if cls, ok := repo.findBySection(className, section, academicYear); ok {
		return *cls, nil
	}
	return class.Class{}, class.ErrNotFound
}

func (repo *classRepository) QueryClasses(_ context.Context, filter class.QueryFilter) ([]class.Class, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	classes := make([]class.Class, 0)
	for _, cls := range repo.db.table {
		switch {
		case filter.AcademicYear != "" && cls.AcademicYear != filter.AcademicYear,
			filter.ClassTeacher != "" && cls.ClassTeacher != filter.ClassTeacher,
			filter.IsActive != nil && cls.IsActive != *filter.IsActive:
			continue
		}
		classes = append(classes, *cls)
	}
	sort.Slice(classes, func(i, j int) bool {
		if classes[i].ClassName != classes[j].ClassName {
			return classes[i].ClassName < classes[j].ClassName
		}
		return classes[i].Section < classes[j].Section
	})
	return classes, nil
}

func (repo *classRepository) UpdateClass(_ context.Context, cls class.Class) (class.Class, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[cls.ID]; !ok {
		return class.Class{}, class.ErrNotFound
	}
	if other, exists := repo.findBySection(cls.ClassName, cls.Section, cls.AcademicYear); exists && other.ID != cls.ID {
		return class.Class{}, class.ErrClassExists
	}
	repo.db.table[cls.ID] = &cls
	return cls, nil
}
