package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/teacher"
)

const teacherColumns = `id, name, email, contact, class, section, is_active, created_at, updated_at`

type teacherRow struct {
	ID        string      `db:"id"`
	Name      string      `db:"name"`
	Email     null.String `db:"email"`
	Contact   null.String `db:"contact"`
	Class     null.String `db:"class"`
	Section   null.String `db:"section"`
	IsActive  bool        `db:"is_active"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func (r teacherRow) toTeacher() teacher.Teacher {
	return teacher.Teacher{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email.String,
		Contact:   r.Contact.String,
		Class:     r.Class.String,
		Section:   r.Section.String,
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type teacherRepository struct {
	db core.DBExecutor
}

func NewTeacherRepository(db core.DBExecutor) teacher.Repository {
	return &teacherRepository{db: db}
}

func teacherError(err error) error {
	switch {
	case isNoRows(err):
		return teacher.ErrNotFound
	case isUniqueViolation(err, "teacher_pkey"):
		return teacher.ErrIDExists
	}
	return err
}

func (repo *teacherRepository) CreateTeacher(ctx context.Context, tchr teacher.Teacher) (teacher.Teacher, error) {
	q := repo.db.Rebind(`INSERT INTO teacher (` + teacherColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := repo.db.ExecContext(
		ctx, q,
		tchr.ID, tchr.Name, nullString(tchr.Email), nullString(tchr.Contact), nullString(tchr.Class),
		nullString(tchr.Section), tchr.IsActive, tchr.CreatedAt, tchr.UpdatedAt,
	)
	if err != nil {
		return teacher.Teacher{}, errors.Wrap(teacherError(err), "inserting teacher")
	}
	return tchr, nil
}

func (repo *teacherRepository) GetTeacher(ctx context.Context, id string) (teacher.Teacher, error) {
	var row teacherRow
	q := repo.db.Rebind(`SELECT ` + teacherColumns + ` FROM teacher WHERE id = ?`)
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return teacher.Teacher{}, teacherError(err)
	}
	return row.toTeacher(), nil
}

func (repo *teacherRepository) QueryTeachers(ctx context.Context, filter teacher.QueryFilter) ([]teacher.Teacher, error) {
	var w where
	w.addIf(filter.Class != "", "class = ?", filter.Class)
	w.addIf(filter.Section != "", "section = ?", filter.Section)
	if filter.IsActive != nil {
		w.add("is_active = ?", *filter.IsActive)
	}

	var rows []teacherRow
	q := repo.db.Rebind(`SELECT ` + teacherColumns + ` FROM teacher` + w.String() + ` ORDER BY name, id`)
	if err := repo.db.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting teachers")
	}
	teachers := make([]teacher.Teacher, 0, len(rows))
	for _, row := range rows {
		teachers = append(teachers, row.toTeacher())
	}
	return teachers, nil
}

func (repo *teacherRepository) UpdateTeacher(ctx context.Context, tchr teacher.Teacher) (teacher.Teacher, error) {
	q := repo.db.Rebind(`UPDATE teacher SET
		name = ?, email = ?, contact = ?, class = ?, section = ?, is_active = ?, updated_at = ?
		WHERE id = ?`)
	res, err := repo.db.ExecContext(
		ctx, q,
		tchr.Name, nullString(tchr.Email), nullString(tchr.Contact), nullString(tchr.Class), nullString(tchr.Section),
		tchr.IsActive, tchr.UpdatedAt, tchr.ID,
	)
	if err != nil {
		return teacher.Teacher{}, errors.Wrap(teacherError(err), "updating teacher")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	return tchr, nil
}
