package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/alert"
)

const alertColumns = `id, title, message, sender_role, sender_id, target_type, class, section, student_id, teacher_id,
	academic_year, is_read, created_at, updated_at`

type alertRow struct {
	ID           string      `db:"id"`
	Title        string      `db:"title"`
	Message      string      `db:"message"`
	SenderRole   string      `db:"sender_role"`
	SenderID     string      `db:"sender_id"`
	TargetType   string      `db:"target_type"`
	Class        null.String `db:"class"`
	Section      null.String `db:"section"`
	StudentID    null.String `db:"student_id"`
	TeacherID    null.String `db:"teacher_id"`
	AcademicYear string      `db:"academic_year"`
	IsRead       bool        `db:"is_read"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

func (r alertRow) toAlert() alert.Alert {
	return alert.Alert{
		ID:           r.ID,
		Title:        r.Title,
		Message:      r.Message,
		SenderRole:   r.SenderRole,
		SenderID:     r.SenderID,
		TargetType:   r.TargetType,
		Class:        r.Class.String,
		Section:      r.Section.String,
		StudentID:    r.StudentID.String,
		TeacherID:    r.TeacherID.String,
		AcademicYear: r.AcademicYear,
		IsRead:       r.IsRead,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

type alertRepository struct {
	db core.DBExecutor
}

func NewAlertRepository(db core.DBExecutor) alert.Repository {
	return &alertRepository{db: db}
}

func (repo *alertRepository) CreateAlert(ctx context.Context, alrt alert.Alert) (alert.Alert, error) {
	alrt.ID = newID()
	q := repo.db.Rebind(`INSERT INTO alert (` + alertColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := repo.db.ExecContext(
		ctx, q,
		alrt.ID, alrt.Title, alrt.Message, alrt.SenderRole, alrt.SenderID, alrt.TargetType, nullString(alrt.Class),
		nullString(alrt.Section), nullString(alrt.StudentID), nullString(alrt.TeacherID), alrt.AcademicYear,
		alrt.IsRead, alrt.CreatedAt, alrt.UpdatedAt,
	)
	if err != nil {
		return alert.Alert{}, errors.Wrap(err, "inserting alert")
	}
	return alrt, nil
}

func (repo *alertRepository) GetAlert(ctx context.Context, id string) (alert.Alert, error) {
	var row alertRow
	q := repo.db.Rebind(`SELECT ` + alertColumns + ` FROM alert WHERE id::text = ?`)
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if isNoRows(err) {
			return alert.Alert{}, alert.ErrNotFound
		}
		return alert.Alert{}, errors.Wrap(err, "selecting alert")
	}
	return row.toAlert(), nil
}

func (repo *alertRepository) QueryAlerts(ctx context.Context, filter alert.QueryFilter) ([]alert.Alert, error) {
	var w where
	w.addIf(filter.TargetType != "", "target_type = ?", filter.TargetType)
	w.addIf(filter.Class != "", "class = ?", filter.Class)
	w.addIf(filter.Section != "", "section = ?", filter.Section)
	w.addIf(filter.StudentID != "", "student_id = ?", filter.StudentID)
	w.addIf(filter.TeacherID != "", "teacher_id = ?", filter.TeacherID)
	w.addIf(filter.SenderID != "", "sender_id = ?", filter.SenderID)
	w.addIf(filter.AcademicYear != "", "academic_year = ?", filter.AcademicYear)

	var rows []alertRow
	q := repo.db.Rebind(`SELECT ` + alertColumns + ` FROM alert` + w.String() + ` ORDER BY created_at DESC`)
	if err := repo.db.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting alerts")
	}
	alerts := make([]alert.Alert, 0, len(rows))
	for _, row := range rows {
		alerts = append(alerts, row.toAlert())
	}
	return alerts, nil
}

func (repo *alertRepository) UpdateAlert(ctx context.Context, alrt alert.Alert) (alert.Alert, error) {
	q := repo.db.Rebind(`UPDATE alert SET title = ?, message = ?, is_read = ?, updated_at = ? WHERE id = ?`)
	res, err := repo.db.ExecContext(ctx, q, alrt.Title, alrt.Message, alrt.IsRead, alrt.UpdatedAt, alrt.ID)
	if err != nil {
		return alert.Alert{}, errors.Wrap(err, "updating alert")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return alert.Alert{}, alert.ErrNotFound
	}
	return alrt, nil
}
