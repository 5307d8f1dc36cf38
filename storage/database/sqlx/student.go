package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/student"
)

const studentColumns = `id, roll_code, name, email, class, section, parent_name, parent_contact, academic_year, board,
	is_active, created_at, updated_at`

type studentRow struct {
	ID            string      `db:"id"`
	RollCode      string      `db:"roll_code"`
	Name          string      `db:"name"`
	Email         null.String `db:"email"`
	Class         string      `db:"class"`
	Section       string      `db:"section"`
	ParentName    null.String `db:"parent_name"`
	ParentContact null.String `db:"parent_contact"`
	AcademicYear  string      `db:"academic_year"`
	Board         string      `db:"board"`
	IsActive      bool        `db:"is_active"`
	CreatedAt     time.Time   `db:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at"`
}

func (r studentRow) toStudent() student.Student {
	return student.Student{
		ID:            r.ID,
		RollCode:      r.RollCode,
		Name:          r.Name,
		Email:         r.Email.String,
		Class:         r.Class,
		Section:       r.Section,
		ParentName:    r.ParentName.String,
		ParentContact: r.ParentContact.String,
		AcademicYear:  r.AcademicYear,
		Board:         r.Board,
		IsActive:      r.IsActive,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

type studentRepository struct {
	db core.DBExecutor
}

func NewStudentRepository(db core.DBExecutor) student.Repository {
	return &studentRepository{db: db}
}

func studentError(err error) error {
	switch {
	case isNoRows(err):
		return student.ErrNotFound
	case isUniqueViolation(err, "student_roll_code_key"):
		return student.ErrRollCodeExists
	}
	return err
}

func (repo *studentRepository) CreateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	std.ID = newID()
	q := repo.db.Rebind(`INSERT INTO student (` + studentColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := repo.db.ExecContext(
		ctx, q,
		std.ID, std.RollCode, std.Name, nullString(std.Email), std.Class, std.Section, nullString(std.ParentName),
		nullString(std.ParentContact), std.AcademicYear, std.Board, std.IsActive, std.CreatedAt, std.UpdatedAt,
	)
	if err != nil {
		return student.Student{}, errors.Wrap(studentError(err), "inserting student")
	}
	return std, nil
}

func (repo *studentRepository) GetStudent(ctx context.Context, ref string) (student.Student, error) {
	var row studentRow
	q := repo.db.Rebind(`SELECT ` + studentColumns + ` FROM student
		WHERE id::text = ? OR LOWER(roll_code) = LOWER(?)
		ORDER BY (id::text = ?) DESC
		LIMIT 1`)
	if err := repo.db.GetContext(ctx, &row, q, ref, ref, ref); err != nil {
		return student.Student{}, studentError(err)
	}
	return row.toStudent(), nil
}

func (repo *studentRepository) QueryStudents(ctx context.Context, filter student.QueryFilter) ([]student.Student, error) {
	var w where
	w.addIf(filter.Class != "", "class = ?", filter.Class)
	w.addIf(filter.Section != "", "section = ?", filter.Section)
	w.addIf(filter.AcademicYear != "", "academic_year = ?", filter.AcademicYear)
	if filter.IsActive != nil {
		w.add("is_active = ?", *filter.IsActive)
	}
	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		w.add("(name ILIKE ? OR roll_code ILIKE ?)", search, search)
	}

	var rows []studentRow
	q := repo.db.Rebind(`SELECT ` + studentColumns + ` FROM student` + w.String() + ` ORDER BY name, roll_code`)
	if err := repo.db.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting students")
	}
	students := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.toStudent())
	}
	return students, nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	q := repo.db.Rebind(`UPDATE student SET
		roll_code = ?, name = ?, email = ?, class = ?, section = ?, parent_name = ?, parent_contact = ?,
		academic_year = ?, board = ?, is_active = ?, updated_at = ?
		WHERE id = ?`)
	res, err := repo.db.ExecContext(
		ctx, q,
		std.RollCode, std.Name, nullString(std.Email), std.Class, std.Section, nullString(std.ParentName),
		nullString(std.ParentContact), std.AcademicYear, std.Board, std.IsActive, std.UpdatedAt, std.ID,
	)
	if err != nil {
		return student.Student{}, errors.Wrap(studentError(err), "updating student")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return std, nil
}
