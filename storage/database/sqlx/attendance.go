package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/attendance"
)

const markColumns = `id, student_id, student_name, class, section, date, status, academic_year, remarks,
	created_at, updated_at`

type markRow struct {
	ID           string      `db:"id"`
	StudentID    string      `db:"student_id"`
	StudentName  string      `db:"student_name"`
	Class        string      `db:"class"`
	Section      string      `db:"section"`
	Date         time.Time   `db:"date"`
	Status       string      `db:"status"`
	AcademicYear string      `db:"academic_year"`
	Remarks      null.String `db:"remarks"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

func (r markRow) toMark() attendance.Mark {
	return attendance.Mark{
		ID:           r.ID,
		StudentID:    r.StudentID,
		StudentName:  r.StudentName,
		Class:        r.Class,
		Section:      r.Section,
		Date:         core.Day(r.Date),
		Status:       attendance.Status(r.Status),
		AcademicYear: r.AcademicYear,
		Remarks:      r.Remarks.String,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

type markRepository struct {
	db core.DBExecutor
}

func NewMarkRepository(db core.DBExecutor) attendance.MarkRepository {
	return &markRepository{db: db}
}

func (repo *markRepository) CreateMark(ctx context.Context, mark attendance.Mark) (attendance.Mark, error) {
	mark.ID = newID()
	mark.Date = core.Day(mark.Date)
	q := repo.db.Rebind(`INSERT INTO attendance_mark (` + markColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := repo.db.ExecContext(
		ctx, q,
		mark.ID, mark.StudentID, mark.StudentName, mark.Class, mark.Section, core.FormatDay(mark.Date),
		string(mark.Status), mark.AcademicYear, nullString(mark.Remarks), mark.CreatedAt, mark.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "attendance_mark_student_date_key") {
			return attendance.Mark{}, attendance.ErrMarkExists
		}
		return attendance.Mark{}, errors.Wrap(err, "inserting attendance mark")
	}
	return mark, nil
}

func (repo *markRepository) GetMark(ctx context.Context, studentID string, day time.Time) (attendance.Mark, error) {
	var row markRow
	q := repo.db.Rebind(`SELECT ` + markColumns + ` FROM attendance_mark WHERE student_id = ? AND date = ?`)
	if err := repo.db.GetContext(ctx, &row, q, studentID, core.FormatDay(day)); err != nil {
		if isNoRows(err) {
			return attendance.Mark{}, attendance.ErrMarkNotFound
		}
		return attendance.Mark{}, errors.Wrap(err, "selecting attendance mark")
	}
	return row.toMark(), nil
}

// UpdateMark may not move a mark to another student or day.
func (repo *markRepository) UpdateMark(ctx context.Context, mark attendance.Mark) (attendance.Mark, error) {
	var row markRow
	q := repo.db.Rebind(`UPDATE attendance_mark SET
		student_name = ?, class = ?, section = ?, status = ?, academic_year = ?, remarks = ?, updated_at = ?
		WHERE id = ?
		RETURNING ` + markColumns)
	err := repo.db.GetContext(
		ctx, &row, q,
		mark.StudentName, mark.Class, mark.Section, string(mark.Status), mark.AcademicYear, nullString(mark.Remarks),
		mark.UpdatedAt, mark.ID,
	)
	if err != nil {
		if isNoRows(err) {
			return attendance.Mark{}, attendance.ErrMarkNotFound
		}
		return attendance.Mark{}, errors.Wrap(err, "updating attendance mark")
	}
	return row.toMark(), nil
}

func (repo *markRepository) QueryMarks(ctx context.Context, filter attendance.MarkFilter) ([]attendance.Mark, error) {
	var w where
	w.addIf(filter.StudentID != "", "student_id = ?", filter.StudentID)
	w.addIf(len(filter.StudentIDs) > 0, "student_id IN (?)", filter.StudentIDs)
	w.addIf(filter.Class != "", "class = ?", filter.Class)
	w.addIf(filter.Section != "", "section = ?", filter.Section)
	w.addIf(filter.AcademicYear != "", "academic_year = ?", filter.AcademicYear)
	w.addIf(!filter.From.IsZero(), "date >= ?", core.FormatDay(filter.From))
	w.addIf(!filter.To.IsZero(), "date <= ?", core.FormatDay(filter.To))

	q, args, err := sqlx.In(`SELECT `+markColumns+` FROM attendance_mark`+w.String()+` ORDER BY date, student_name`, w.args...)
	if err != nil {
		return nil, errors.Wrap(err, "building attendance query")
	}

	var rows []markRow
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting attendance marks")
	}
	marks := make([]attendance.Mark, 0, len(rows))
	for _, row := range rows {
		marks = append(marks, row.toMark())
	}
	return marks, nil
}

const finalizationColumns = `id, class, section, date, academic_year, finalized_by, finalized_at`

type finalizationRow struct {
	ID           string      `db:"id"`
	Class        string      `db:"class"`
	Section      string      `db:"section"`
	Date         string      `db:"date"`
	AcademicYear string      `db:"academic_year"`
	FinalizedBy  null.String `db:"finalized_by"`
	FinalizedAt  time.Time   `db:"finalized_at"`
}

func (r finalizationRow) toFinalization() attendance.Finalization {
	return attendance.Finalization{
		ID:           r.ID,
		Class:        r.Class,
		Section:      r.Section,
		Date:         r.Date,
		AcademicYear: r.AcademicYear,
		FinalizedBy:  r.FinalizedBy.String,
		FinalizedAt:  r.FinalizedAt.UTC(),
	}
}

type ledger struct {
	db core.DBExecutor
}

func NewLedger(db core.DBExecutor) attendance.Ledger {
	return &ledger{db: db}
}

func (l *ledger) CreateFinalization(ctx context.Context, fin attendance.Finalization) (attendance.Finalization, error) {
	fin.ID = newID()
	q := l.db.Rebind(`INSERT INTO attendance_finalization (` + finalizationColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := l.db.ExecContext(
		ctx, q,
		fin.ID, fin.Class, fin.Section, fin.Date, fin.AcademicYear, nullString(fin.FinalizedBy), fin.FinalizedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "attendance_finalization_class_day_key") {
			return attendance.Finalization{}, attendance.ErrAlreadyFinalized
		}
		return attendance.Finalization{}, errors.Wrap(err, "inserting finalization")
	}
	return fin, nil
}

func (l *ledger) IsFinalized(ctx context.Context, cd attendance.ClassDay) (bool, error) {
	var ok bool
	q := l.db.Rebind(`SELECT EXISTS (
		SELECT 1 FROM attendance_finalization WHERE class = ? AND section = ? AND date = ? AND academic_year = ?
	)`)
	if err := l.db.GetContext(ctx, &ok, q, cd.Class, cd.Section, cd.Date, cd.AcademicYear); err != nil {
		return false, errors.Wrap(err, "checking finalization")
	}
	return ok, nil
}

func (l *ledger) QueryFinalizations(ctx context.Context, filter attendance.FinalizationFilter) ([]attendance.Finalization, error) {
	var w where
	w.addIf(filter.Class != "", "class = ?", filter.Class)
	w.addIf(filter.Section != "", "section = ?", filter.Section)
	w.addIf(filter.AcademicYear != "", "academic_year = ?", filter.AcademicYear)
	w.addIf(filter.From != "", "date >= ?", filter.From)
	w.addIf(filter.To != "", "date <= ?", filter.To)

	var rows []finalizationRow
	q := l.db.Rebind(`SELECT ` + finalizationColumns + ` FROM attendance_finalization` + w.String() +
		` ORDER BY date, class, section`)
	if err := l.db.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting finalizations")
	}
	fins := make([]attendance.Finalization, 0, len(rows))
	for _, row := range rows {
		fins = append(fins, row.toFinalization())
	}
	return fins, nil
}
