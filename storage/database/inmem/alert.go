package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/rollcall/core/alert"
)

type alertRepository struct {
	db *alertTable
}

func NewAlertRepository(db *DB) alert.Repository {
	return &alertRepository{db: db.alert}
}

func (repo *alertRepository) CreateAlert(_ context.Context, alrt alert.Alert) (alert.Alert, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	alrt.ID = newID()
	repo.db.table[alrt.ID] = &alrt
	return alrt, nil
}

func (repo *alertRepository) GetAlert(_ context.Context, id string) (alert.Alert, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if alrt, ok := repo.db.table[id]; ok {
		return *alrt, nil
	}
	return alert.Alert{}, alert.ErrNotFound
}

func (repo *alertRepository) QueryAlerts(_ context.Context, filter alert.QueryFilter) ([]alert.Alert, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	matches := func(want, got string) bool { return want == "" || want == got }
	alerts := make([]alert.Alert, 0)
	for _, alrt := range repo.db.table {
		if matches(filter.TargetType, alrt.TargetType) &&
			matches(filter.Class, alrt.Class) &&
			matches(filter.Section, alrt.Section) &&
			matches(filter.StudentID, alrt.StudentID) &&
			matches(filter.TeacherID, alrt.TeacherID) &&
			matches(filter.SenderID, alrt.SenderID) &&
			matches(filter.AcademicYear, alrt.AcademicYear) {
			alerts = append(alerts, *alrt)
		}
	}
	sort.Slice(alerts, func(i, j int) bool { return alerts[i].CreatedAt.After(alerts[j].CreatedAt) })
	return alerts, nil
}

func (repo *alertRepository) UpdateAlert(_ context.Context, alrt alert.Alert) (alert.Alert, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[alrt.ID]; !ok {
		return alert.Alert{}, alert.ErrNotFound
	}
	repo.db.table[alrt.ID] = &alrt
	return alrt, nil
}
