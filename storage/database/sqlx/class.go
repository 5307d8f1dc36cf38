package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/class"
)

const classColumns = `id, class_name, section, academic_year, board, class_teacher, is_active, created_at, updated_at`

type classRow struct {
	ID           string      `db:"id"`
	ClassName    string      `db:"class_name"`
	Section      string      `db:"section"`
	AcademicYear string      `db:"academic_year"`
	Board        string      `db:"board"`
	ClassTeacher null.String `db:"class_teacher"`
	IsActive     bool        `db:"is_active"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

func (r classRow) toClass() class.Class {
	return class.Class{
		ID:           r.ID,
		ClassName:    r.ClassName,
		Section:      r.Section,
		AcademicYear: r.AcademicYear,
		Board:        r.Board,
		ClassTeacher: r.ClassTeacher.String,
		IsActive:     r.IsActive,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

type classRepository struct {
	db core.DBExecutor
}

func NewClassRepository(db core.DBExecutor) class.Repository {
	return &classRepository{db: db}
}

func classError(err error) error {
	switch {
	case isNoRows(err):
		return class.ErrNotFound
	case isUniqueViolation(err, "class_section_year_key"):
		return class.ErrClassExists
	}
	return err
}

func (repo *classRepository) CreateClass(ctx context.Context, cls class.Class) (class.Class, error) {
	cls.ID = newID()
	q := repo.db.Rebind(`INSERT INTO class (` + classColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := repo.db.ExecContext(
		ctx, q,
		cls.ID, cls.ClassName, cls.Section, cls.AcademicYear, cls.Board, nullString(cls.ClassTeacher), cls.IsActive,
		cls.CreatedAt, cls.UpdatedAt,
	)
	if err != nil {
		return class.Class{}, errors.Wrap(classError(err), "inserting class")
	}
	return cls, nil
}

func (repo *classRepository) GetClass(ctx context.Context, id string) (class.Class, error) {
	var row classRow
	q := repo.db.Rebind(`SELECT ` + classColumns + ` FROM class WHERE id::text = ?`)
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return class.Class{}, classError(err)
	}
	return row.toClass(), nil
}

func (repo *classRepository) GetClassBySection(ctx context.Context, className, section, academicYear string) (class.Class, error) {
	var row classRow
	q := repo.db.Rebind(`SELECT ` + classColumns + ` FROM class WHERE class_name = ? AND section = ? AND academic_year = ?`)
	if err := repo.db.GetContext(ctx, &row, q, className, section, academicYear); err != nil {
		return class.Class{}, classError(err)
	}
	return row.toClass(), nil
}

func (repo *classRepository) QueryClasses(ctx context.Context, filter class.QueryFilter) ([]class.Class, error) {
	var w where
	w.addIf(filter.AcademicYear != "", "academic_year = ?", filter.AcademicYear)
	w.addIf(filter.ClassTeacher != "", "class_teacher = ?", filter.ClassTeacher)
	if filter.IsActive != nil {
		w.add("is_active = ?", *filter.IsActive)
	}

	var rows []classRow
	q := repo.db.Rebind(`SELECT ` + classColumns + ` FROM class` + w.String() + ` ORDER BY class_name, section`)
	if err := repo.db.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting classes")
	}
	classes := make([]class.Class, 0, len(rows))
	for _, row := range rows {
		classes = append(classes, row.toClass())
	}
	return classes, nil
}

func (repo *classRepository) UpdateClass(ctx context.Context, cls class.Class) (class.Class, error) {
	q := repo.db.Rebind(`UPDATE class SET
		class_name = ?, section = ?, academic_year = ?, board = ?, class_teacher = ?, is_active = ?, updated_at = ?
		WHERE id = ?`)
	res, err := repo.db.ExecContext(
		ctx, q,
		cls.ClassName, cls.Section, cls.AcademicYear, cls.Board, nullString(cls.ClassTeacher), cls.IsActive,
		cls.UpdatedAt, cls.ID,
	)
	if err != nil {
		return class.Class{}, errors.Wrap(classError(err), "updating class")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return class.Class{}, class.ErrNotFound
	}
	return cls, nil
}
