package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/alert"
	"github.com/trezcool/rollcall/core/attendance"
	"github.com/trezcool/rollcall/core/class"
	"github.com/trezcool/rollcall/core/student"
	"github.com/trezcool/rollcall/core/teacher"
)

// RunRepositoryTests checks that a storage backend honours the repository contracts.
// newRepos must return repositories on top of an empty database.
func RunRepositoryTests(t *testing.T, newRepos func(t *testing.T) Repos) {
	t.Run("students", func(t *testing.T) { testStudentRepository(t, newRepos(t).Students) })
	t.Run("teachers", func(t *testing.T) { testTeacherRepository(t, newRepos(t).Teachers) })
	t.Run("classes", func(t *testing.T) { testClassRepository(t, newRepos(t).Classes) })
	t.Run("alerts", func(t *testing.T) { testAlertRepository(t, newRepos(t).Alerts) })
	t.Run("marks", func(t *testing.T) { testMarkRepository(t, newRepos(t)) })
	t.Run("ledger", func(t *testing.T) { testLedger(t, newRepos(t).Ledger) })
}

func testStudentRepository(t *testing.T, repo student.Repository) {
	ctx := context.Background()
	asha := CreateStudent(t, repo, "STU001", "Asha Rao", "10", "A", "9876543210")
	ben := CreateStudent(t, repo, "STU002", "Ben Das", "10", "B", "")
	assert.NotEmpty(t, asha.ID)

	_, err := repo.CreateStudent(ctx, student.Student{RollCode: "stu001", Name: "Copy", Class: "9", Section: "A", AcademicYear: AcademicYear})
	assert.Equal(t, student.ErrRollCodeExists, errors.Cause(err))

	got, err := repo.GetStudent(ctx, asha.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", got.Name)
	assert.Equal(t, "9876543210", got.ParentContact)

	got, err = repo.GetStudent(ctx, "STU002")
	require.NoError(t, err)
	assert.Equal(t, ben.ID, got.ID)

	_, err = repo.GetStudent(ctx, "STU404")
	assert.True(t, core.IsNotFound(err))

	ben.IsActive = false
	ben.Section = "A"
	_, err = repo.UpdateStudent(ctx, ben)
	require.NoError(t, err)

	ids := func(students []student.Student) []string {
		out := make([]string, 0, len(students))
		for _, std := range students {
			out = append(out, std.ID)
		}
		return out
	}
	all, err := repo.QueryStudents(ctx, student.QueryFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{asha.ID, ben.ID}, ids(all))

	active, err := repo.QueryStudents(ctx, student.QueryFilter{Class: "10", Section: "A", IsActive: student.Active()})
	require.NoError(t, err)
	assert.Equal(t, []string{asha.ID}, ids(active))

	found, err := repo.QueryStudents(ctx, student.QueryFilter{Search: "das"})
	require.NoError(t, err)
	assert.Equal(t, []string{ben.ID}, ids(found))

	found, err = repo.QueryStudents(ctx, student.QueryFilter{AcademicYear: "2023-2024"})
	require.NoError(t, err)
	assert.Empty(t, found)

	ben.ID = uuid.New().String()
	_, err = repo.UpdateStudent(ctx, ben)
	assert.True(t, core.IsNotFound(err))
}

func testTeacherRepository(t *testing.T, repo teacher.Repository) {
	ctx := context.Background()
	iyer := CreateTeacher(t, repo, "teacher-10A", "Meera Iyer", "10", "A")
	CreateTeacher(t, repo, "teacher-1", "Arun Kumar", "", "")

	_, err := repo.CreateTeacher(ctx, teacher.Teacher{ID: "teacher-10A", Name: "Copy"})
	assert.Equal(t, teacher.ErrIDExists, errors.Cause(err))

	got, err := repo.GetTeacher(ctx, "teacher-10A")
	require.NoError(t, err)
	assert.Equal(t, "Meera Iyer", got.Name)
	assert.Equal(t, "10", got.Class)
	assert.Equal(t, "A", got.Section)
	assert.True(t, got.IsActive)

	_, err = repo.GetTeacher(ctx, "teacher-404")
	assert.True(t, core.IsNotFound(err))

	iyer.Contact = "9876500000"
	iyer.IsActive = false
	_, err = repo.UpdateTeacher(ctx, iyer)
	require.NoError(t, err)
	got, err = repo.GetTeacher(ctx, iyer.ID)
	require.NoError(t, err)
	assert.Equal(t, "9876500000", got.Contact)
	assert.False(t, got.IsActive)

	teachers, err := repo.QueryTeachers(ctx, teacher.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, teachers, 2)
	assert.Equal(t, "teacher-1", teachers[0].ID)

	teachers, err = repo.QueryTeachers(ctx, teacher.QueryFilter{Class: "10", Section: "A"})
	require.NoError(t, err)
	require.Len(t, teachers, 1)
	assert.Equal(t, iyer.ID, teachers[0].ID)

	teachers, err = repo.QueryTeachers(ctx, teacher.QueryFilter{IsActive: student.Active()})
	require.NoError(t, err)
	require.Len(t, teachers, 1)
	assert.Equal(t, "teacher-1", teachers[0].ID)

	_, err = repo.UpdateTeacher(ctx, teacher.Teacher{ID: "teacher-404", Name: "Ghost"})
	assert.True(t, core.IsNotFound(err))
}

func testClassRepository(t *testing.T, repo class.Repository) {
	ctx := context.Background()
	tenA := CreateClass(t, repo, "10", "A", "teacher-1")
	nineB := CreateClass(t, repo, "9", "B", "")

	_, err := repo.CreateClass(ctx, class.Class{ClassName: "10", Section: "A", AcademicYear: AcademicYear, Board: class.DefaultBoard})
	assert.Equal(t, class.ErrClassExists, errors.Cause(err))

	got, err := repo.GetClassBySection(ctx, "9", "B", AcademicYear)
	require.NoError(t, err)
	assert.Equal(t, nineB.ID, got.ID)

	_, err = repo.GetClassBySection(ctx, "9", "B", "2023-2024")
	assert.True(t, core.IsNotFound(err))
	_, err = repo.GetClass(ctx, "unknown")
	assert.True(t, core.IsNotFound(err))

	nineB.ClassTeacher = "teacher-2"
	nineB.IsActive = false
	_, err = repo.UpdateClass(ctx, nineB)
	require.NoError(t, err)
	got, err = repo.GetClass(ctx, nineB.ID)
	require.NoError(t, err)
	assert.Equal(t, "teacher-2", got.ClassTeacher)
	assert.False(t, got.IsActive)

	classes, err := repo.QueryClasses(ctx, class.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, classes, 2)
	assert.Equal(t, tenA.ID, classes[0].ID)

	classes, err = repo.QueryClasses(ctx, class.QueryFilter{ClassTeacher: "teacher-2"})
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, nineB.ID, classes[0].ID)
}

func testAlertRepository(t *testing.T, repo alert.Repository) {
	ctx := context.Background()
	now := time.Now().UTC()
	create := func(title, targetType, class, section, studentID string, createdAt time.Time) alert.Alert {
		alrt, err := repo.CreateAlert(ctx, alert.Alert{
			Title:        title,
			Message:      title + " message",
			SenderRole:   alert.SenderAdmin,
			SenderID:     "admin-1",
			TargetType:   targetType,
			Class:        class,
			Section:      section,
			StudentID:    studentID,
			AcademicYear: AcademicYear,
			CreatedAt:    createdAt,
			UpdatedAt:    createdAt,
		})
		require.NoError(t, err)
		return alrt
	}
	older := create("Older", alert.TargetClass, "10", "A", "", now.Add(-time.Hour))
	newer := create("Newer", alert.TargetClass, "10", "A", "", now)
	create("Student", alert.TargetStudent, "", "", "stu-1", now)

	alerts, err := repo.QueryAlerts(ctx, alert.QueryFilter{TargetType: alert.TargetClass, Class: "10", Section: "A"})
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, newer.ID, alerts[0].ID)
	assert.Equal(t, older.ID, alerts[1].ID)

	alerts, err = repo.QueryAlerts(ctx, alert.QueryFilter{StudentID: "stu-1"})
	require.NoError(t, err)
	assert.Len(t, alerts, 1)

	older.IsRead = true
	_, err = repo.UpdateAlert(ctx, older)
	require.NoError(t, err)
	got, err := repo.GetAlert(ctx, older.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRead)

	_, err = repo.GetAlert(ctx, "unknown")
	assert.True(t, core.IsNotFound(err))
}

func testMarkRepository(t *testing.T, repos Repos) {
	ctx := context.Background()
	repo := repos.Marks
	asha := CreateStudent(t, repos.Students, "STU001", "Asha Rao", "10", "A", "")
	ben := CreateStudent(t, repos.Students, "STU002", "Ben Das", "10", "A", "")

	newMark := func(std student.Student, day string, status attendance.Status) attendance.Mark {
		now := time.Now().UTC()
		return attendance.Mark{
			StudentID:    std.ID,
			StudentName:  std.Name,
			Class:        std.Class,
			Section:      std.Section,
			Date:         Day(day),
			Status:       status,
			AcademicYear: AcademicYear,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	}

	m1, err := repo.CreateMark(ctx, newMark(ben, "2024-08-02", attendance.Present))
	require.NoError(t, err)
	_, err = repo.CreateMark(ctx, newMark(asha, "2024-08-02", attendance.Absent))
	require.NoError(t, err)
	_, err = repo.CreateMark(ctx, newMark(asha, "2024-08-01", attendance.Present))
	require.NoError(t, err)

	_, err = repo.CreateMark(ctx, newMark(ben, "2024-08-02", attendance.Absent))
	assert.Equal(t, attendance.ErrMarkExists, errors.Cause(err))

	got, err := repo.GetMark(ctx, ben.ID, Day("2024-08-02"))
	require.NoError(t, err)
	assert.Equal(t, m1.ID, got.ID)
	assert.True(t, Day("2024-08-02").Equal(got.Date))
	_, err = repo.GetMark(ctx, ben.ID, Day("2024-08-01"))
	assert.True(t, core.IsNotFound(err))

	got.Status = attendance.Absent
	got.Remarks = "sick"
	updated, err := repo.UpdateMark(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, attendance.Absent, updated.Status)

	marks, err := repo.QueryMarks(ctx, attendance.MarkFilter{Class: "10", Section: "A"})
	require.NoError(t, err)
	require.Len(t, marks, 3)
	// by date, then student name
	assert.Equal(t, []string{"Asha Rao", "Asha Rao", "Ben Das"}, []string{marks[0].StudentName, marks[1].StudentName, marks[2].StudentName})
	assert.True(t, Day("2024-08-01").Equal(marks[0].Date))
	assert.Equal(t, "sick", marks[2].Remarks)

	marks, err = repo.QueryMarks(ctx, attendance.MarkFilter{StudentIDs: []string{asha.ID}, From: Day("2024-08-02"), To: Day("2024-08-02")})
	require.NoError(t, err)
	require.Len(t, marks, 1)
	assert.Equal(t, attendance.Absent, marks[0].Status)

	t.Run("concurrent creates", func(t *testing.T) {
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			created int
		)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				status := attendance.Present
				if i%2 == 0 {
					status = attendance.Absent
				}
				_, err := repo.CreateMark(ctx, newMark(asha, "2024-08-05", status))
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					created++
				} else if errors.Cause(err) != attendance.ErrMarkExists {
					t.Errorf("CreateMark() unexpected error: %v", err)
				}
			}(i)
		}
		wg.Wait()
		assert.Equal(t, 1, created)
	})
}

func testLedger(t *testing.T, ledger attendance.Ledger) {
	ctx := context.Background()
	finalize := func(cls, section, day string) (attendance.Finalization, error) {
		return ledger.CreateFinalization(ctx, attendance.Finalization{
			Class:        cls,
			Section:      section,
			Date:         day,
			AcademicYear: AcademicYear,
			FinalizedBy:  "admin-1",
			FinalizedAt:  time.Now().UTC(),
		})
	}

	fin, err := finalize("10", "A", "2024-08-02")
	require.NoError(t, err)
	assert.NotEmpty(t, fin.ID)
	_, err = finalize("10", "A", "2024-08-01")
	require.NoError(t, err)
	_, err = finalize("9", "B", "2024-08-01")
	require.NoError(t, err)

	_, err = finalize("10", "A", "2024-08-02")
	assert.Equal(t, attendance.ErrAlreadyFinalized, errors.Cause(err))

	ok, err := ledger.IsFinalized(ctx, fin.ClassDay())
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = ledger.IsFinalized(ctx, attendance.ClassDay{Class: "10", Section: "B", Date: "2024-08-02", AcademicYear: AcademicYear})
	require.NoError(t, err)
	assert.False(t, ok)

	fins, err := ledger.QueryFinalizations(ctx, attendance.FinalizationFilter{})
	require.NoError(t, err)
	got := make([]string, 0, len(fins))
	for _, f := range fins {
		got = append(got, fmt.Sprintf("%s %s%s", f.Date, f.Class, f.Section))
	}
	assert.Equal(t, []string{"2024-08-01 10A", "2024-08-01 9B", "2024-08-02 10A"}, got)

	fins, err = ledger.QueryFinalizations(ctx, attendance.FinalizationFilter{Class: "10", Section: "A", From: "2024-08-02", To: "2024-08-31"})
	require.NoError(t, err)
	require.Len(t, fins, 1)
	assert.Equal(t, "admin-1", fins[0].FinalizedBy)

	t.Run("concurrent finalizations", func(t *testing.T) {
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			created int
		)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := finalize("8", "C", "2024-08-05")
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					created++
				} else if errors.Cause(err) != attendance.ErrAlreadyFinalized {
					t.Errorf("CreateFinalization() unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, created)
	})
}
