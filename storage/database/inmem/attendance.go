package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/attendance"
)

func dayKey(studentID string, day time.Time) string {
	return studentID + "|" + core.FormatDay(day)
}

func classDayKey(cd attendance.ClassDay) string {
	return cd.Class + "|" + cd.Section + "|" + cd.Date + "|" + cd.AcademicYear
}

type markRepository struct {
	db *markTable
}

func NewMarkRepository(db *DB) attendance.MarkRepository {
	return &markRepository{db: db.mark}
}

func (repo *markRepository) CreateMark(_ context.Context, mark attendance.Mark) (attendance.Mark, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	mark.Date = core.Day(mark.Date)
	key := dayKey(mark.StudentID, mark.Date)
	if _, exists := repo.db.byDay[key]; exists {
		return attendance.Mark{}, attendance.ErrMarkExists
	}
	mark.ID = newID()
	repo.db.table[mark.ID] = &mark
	repo.db.byDay[key] = mark.ID
	return mark, nil
}

func (repo *markRepository) GetMark(_ context.Context, studentID string, day time.Time) (attendance.Mark, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if id, ok := repo.db.byDay[dayKey(studentID, day)]; ok {
		return *repo.db.table[id], nil
	}
	return attendance.Mark{}, attendance.ErrMarkNotFound
}

// UpdateMark may not move a mark to another student or day.
func (repo *markRepository) UpdateMark(_ context.Context, mark attendance.Mark) (attendance.Mark, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.table[mark.ID]
	if !ok {
		return attendance.Mark{}, attendance.ErrMarkNotFound
	}
	mark.StudentID = orig.StudentID
	mark.Date = orig.Date
	mark.CreatedAt = orig.CreatedAt
	repo.db.table[mark.ID] = &mark
	return mark, nil
}

func (repo *markRepository) QueryMarks(_ context.Context, filter attendance.MarkFilter) ([]attendance.Mark, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var students map[string]bool
	if len(filter.StudentIDs) > 0 {
		students = make(map[string]bool, len(filter.StudentIDs))
		for _, id := range filter.StudentIDs {
			students[id] = true
		}
	}
	from, to := core.Day(filter.From), core.Day(filter.To)

	marks := make([]attendance.Mark, 0)
	for _, m := range repo.db.table {
		switch {
		case filter.StudentID != "" && m.StudentID != filter.StudentID,
			students != nil && !students[m.StudentID],
			filter.Class != "" && m.Class != filter.Class,
			filter.Section != "" && m.Section != filter.Section,
			filter.AcademicYear != "" && m.AcademicYear != filter.AcademicYear,
			!filter.From.IsZero() && m.Date.Before(from),
			!filter.To.IsZero() && m.Date.After(to):
			continue
		}
		marks = append(marks, *m)
	}
	sort.Slice(marks, func(i, j int) bool {
		if !marks[i].Date.Equal(marks[j].Date) {
			return marks[i].Date.Before(marks[j].Date)
		}
		return marks[i].StudentName < marks[j].StudentName
	})
	return marks, nil
}

type ledger struct {
	db *finalizationTable
}

func NewLedger(db *DB) attendance.Ledger {
	return &ledger{db: db.finalization}
}

func (l *ledger) CreateFinalization(_ context.Context, fin attendance.Finalization) (attendance.Finalization, error) {
	l.db.mutex.Lock()
	defer l.db.mutex.Unlock()

	key := classDayKey(fin.ClassDay())
	if _, exists := l.db.table[key]; exists {
		return attendance.Finalization{}, attendance.ErrAlreadyFinalized
	}
	fin.ID = newID()
	l.db.table[key] = &fin
	return fin, nil
}

func (l *ledger) IsFinalized(_ context.Context, cd attendance.ClassDay) (bool, error) {
	l.db.mutex.RLock()
	defer l.db.mutex.RUnlock()

	_, ok := l.db.table[classDayKey(cd)]
	return ok, nil
}

func (l *ledger) QueryFinalizations(_ context.Context, filter attendance.FinalizationFilter) ([]attendance.Finalization, error) {
	l.db.mutex.RLock()
	defer l.db.mutex.RUnlock()

	fins := make([]attendance.Finalization, 0)
	for _, f := range l.db.table {
		switch {
		case filter.Class != "" && f.Class != filter.Class,
			filter.Section != "" && f.Section != filter.Section,
			filter.AcademicYear != "" && f.AcademicYear != filter.AcademicYear,
			filter.From != "" && f.Date < filter.From, // YYYY-MM-DD sorts chronologically
			filter.To != "" && f.Date > filter.To:
			continue
		}
		fins = append(fins, *f)
	}
	sort.Slice(fins, func(i, j int) bool {
		if fins[i].Date != fins[j].Date {
			return fins[i].Date < fins[j].Date
		}
		if fins[i].Class != fins[j].Class {
			return fins[i].Class < fins[j].Class
		}
		return fins[i].Section < fins[j].Section
	})
	return fins, nil
}
