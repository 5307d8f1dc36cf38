package attendance_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/attendance"
	"github.com/trezcool/rollcall/core/student"
	"github.com/trezcool/rollcall/tests"
)

func submit(env *testutil.Env, sess core.Session, date string, items ...attendance.MarkItem) (attendance.SubmitResult, error) {
	return env.MarkSvc.Submit(context.Background(), sess, attendance.SubmitMarks{
		ClassName:    "10",
		Section:      "A",
		Date:         date,
		AcademicYear: testutil.AcademicYear,
		Marks:        items,
	})
}

func TestMarkService_Submit(t *testing.T) {
	env := testutil.NewEnv(t)
	std := testutil.CreateStudent(t, env.Students, "STU001", "Asha Rao", "10", "A", "9876543210")

	t.Run("creates then updates in place", func(t *testing.T) {
		res, err := submit(env, testutil.Admin, "2024-08-01", attendance.MarkItem{StudentID: std.ID, Status: "Present", Remarks: "on time"})
		require.NoError(t, err)
		require.Equal(t, 1, res.Marked)
		assert.Empty(t, res.Errors)
		created := res.Results[0]
		assert.Equal(t, "Asha Rao", created.StudentName)
		assert.Equal(t, testutil.Day("2024-08-01"), created.Date)

		res, err = submit(env, testutil.Teacher, "2024-08-01", attendance.MarkItem{StudentID: std.ID, Status: "Absent"})
		require.NoError(t, err)
		require.Equal(t, 1, res.Marked)
		updated := res.Results[0]
		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, attendance.Absent, updated.Status)
		assert.Equal(t, "on time", updated.Remarks, "remarks are kept when none are provided")

		marks, err := env.Marks.QueryMarks(context.Background(), attendance.MarkFilter{StudentID: std.ID})
		require.NoError(t, err)
		assert.Len(t, marks, 1)
	})

	t.Run("student looked up by roll code", func(t *testing.T) {
		res, err := submit(env, testutil.Admin, "2024-08-02", attendance.MarkItem{StudentID: "STU001", Status: "Present"})
		require.NoError(t, err)
		require.Equal(t, 1, res.Marked)
		assert.Equal(t, std.ID, res.Results[0].StudentID)
	})

	t.Run("RFC 3339 dates are normalized to the day", func(t *testing.T) {
		res, err := submit(env, testutil.Admin, "2024-08-03T15:04:05Z", attendance.MarkItem{StudentID: std.ID, Status: "Present"})
		require.NoError(t, err)
		assert.Equal(t, testutil.Day("2024-08-03"), res.Results[0].Date)
	})
}

func TestMarkService_Submit_partialFailures(t *testing.T) {
	env := testutil.NewEnv(t)

	items := make([]attendance.MarkItem, 0, 10)
	for i := 1; i <= 9; i++ {
		std := testutil.CreateStudent(t, env.Students, fmt.Sprintf("STU%03d", i), fmt.Sprintf("Student %d", i), "10", "A", "")
		items = append(items, attendance.MarkItem{StudentID: std.ID, Status: "Present"})
	}
	items = append(items, attendance.MarkItem{StudentID: "ghost", Status: "Present"})

	res, err := submit(env, testutil.Admin, "2024-08-01", items...)
	require.NoError(t, err)
	assert.Equal(t, 9, res.Marked)
	assert.Len(t, res.Results, 9)
	assert.Equal(t, []attendance.ItemError{{StudentID: "ghost", Error: "student not found"}}, res.Errors)
}

func TestMarkService_Submit_itemErrors(t *testing.T) {
	env := testutil.NewEnv(t)
	std := testutil.CreateStudent(t, env.Students, "STU001", "Asha Rao", "10", "A", "")

	res, err := submit(env, testutil.Admin, "2024-08-01",
		attendance.MarkItem{StudentID: std.ID, Status: "Late"},
		attendance.MarkItem{StudentID: std.ID, Status: "present"},
		attendance.MarkItem{StudentID: "", Status: "Present"},
		attendance.MarkItem{StudentID: std.ID},
	)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Marked)
	assert.Equal(t, []attendance.ItemError{
		{StudentID: std.ID, Error: "status must be Present or Absent"},
		{StudentID: std.ID, Error: "status must be Present or Absent"},
		{StudentID: "", Error: "missing studentId or status"},
		{StudentID: std.ID, Error: "missing studentId or status"},
	}, res.Errors)
}

func TestMarkService_Submit_finalizedDay(t *testing.T) {
	env := testutil.NewEnv(t)
	std := testutil.CreateStudent(t, env.Students, "STU001", "Asha Rao", "10", "A", "")
	testutil.MarkAndFinalize(t, env, "10", "A", "2024-08-01", map[string]attendance.Status{std.ID: attendance.Present})

	_, err := submit(env, testutil.Admin, "2024-08-01", attendance.MarkItem{StudentID: std.ID, Status: "Absent"})
	require.Error(t, err)

	var conflict *core.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, attendance.ErrFinalized, conflict.Err)
	assert.Equal(t, map[string]string{
		"className":    "10",
		"section":      "A",
		"date":         "2024-08-01",
		"academicYear": testutil.AcademicYear,
	}, conflict.Details())

	mark, err := env.Marks.GetMark(context.Background(), std.ID, testutil.Day("2024-08-01"))
	require.NoError(t, err)
	assert.Equal(t, attendance.Present, mark.Status, "nothing is written")
}

func TestMarkService_Submit_finalizedElsewhere(t *testing.T) {
	env := testutil.NewEnv(t)
	std := testutil.CreateStudent(t, env.Students, "STU001", "Asha Rao", "10", "A", "")
	testutil.MarkAndFinalize(t, env, "10", "A", "2024-08-01", map[string]attendance.Status{std.ID: attendance.Present})

	// the same student marked from another section on the same day
	res, err := env.MarkSvc.Submit(context.Background(), testutil.Admin, attendance.SubmitMarks{
		ClassName:    "10",
		Section:      "B",
		Date:         "2024-08-01",
		AcademicYear: testutil.AcademicYear,
		Marks:        []attendance.MarkItem{{StudentID: std.ID, Status: "Absent"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Marked)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, std.ID, res.Errors[0].StudentID)
}

func TestMarkService_Submit_rejected(t *testing.T) {
	env := testutil.NewEnv(t)
	std := testutil.CreateStudent(t, env.Students, "STU001", "Asha Rao", "10", "A", "")
	item := attendance.MarkItem{StudentID: std.ID, Status: "Present"}

	t.Run("students cannot mark", func(t *testing.T) {
		_, err := submit(env, testutil.StudentSession(std.ID), "2024-08-01", item)
		assert.Equal(t, core.ErrPermissionDenied, err)
	})

	t.Run("class teachers only mark their class", func(t *testing.T) {
		_, err := submit(env, testutil.ClassTeacher("9", "A"), "2024-08-01", item)
		assert.Equal(t, core.ErrPermissionDenied, err)

		res, err := submit(env, testutil.ClassTeacher("10", "A"), "2024-08-01", item)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Marked)
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name  string
			sm    attendance.SubmitMarks
			field string
		}{
			{name: "class", sm: attendance.SubmitMarks{Section: "A", Date: "2024-08-01", Marks: []attendance.MarkItem{item}}, field: "className"},
			{name: "section", sm: attendance.SubmitMarks{ClassName: "10", Date: "2024-08-01", Marks: []attendance.MarkItem{item}}, field: "section"},
			{name: "date", sm: attendance.SubmitMarks{ClassName: "10", Section: "A", Date: "01/08/2024", Marks: []attendance.MarkItem{item}}, field: "date"},
			{name: "list", sm: attendance.SubmitMarks{ClassName: "10", Section: "A", Date: "2024-08-01"}, field: "attendanceList"},
			{
				name:  "academic year",
				sm:    attendance.SubmitMarks{ClassName: "10", Section: "A", Date: "2024-08-01", AcademicYear: "2024-2026", Marks: []attendance.MarkItem{item}},
				field: "academicYear",
			},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				_, err := env.MarkSvc.Submit(context.Background(), testutil.Admin, tc.sm)
				var vErrs validator.ValidationErrors
				require.True(t, errors.As(err, &vErrs), "got %v", err)
				assert.Contains(t, core.TranslateValidationErrors(vErrs), tc.field)
			})
		}
	})
}

func TestMarkService_Submit_defaultAcademicYear(t *testing.T) {
	env := testutil.NewEnv(t)
	std := testutil.CreateStudent(t, env.Students, "STU001", "Asha Rao", "10", "A", "")

	res, err := env.MarkSvc.Submit(context.Background(), testutil.Admin, attendance.SubmitMarks{
		ClassName: "10",
		Section:   "A",
		Date:      "2024-08-01",
		Marks:     []attendance.MarkItem{{StudentID: std.ID, Status: "Present"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-2025", res.Results[0].AcademicYear)
}

func TestMarkService_Submit_notifiesOnShortage(t *testing.T) {
	testutil.FreezeToday(t, "2024-09-30")
	env := testutil.NewEnv(t)
	std := testutil.CreateStudent(t, env.Students, "STU001", "Asha Rao", "10", "A", "9876543210")

	// 4 finalized days at 25%: below threshold but under NotifyMinDays
	days := []string{"2024-08-01", "2024-08-02", "2024-08-05", "2024-08-06", "2024-08-07"}
	statuses := []attendance.Status{attendance.Present, attendance.Absent, attendance.Absent, attendance.Absent, attendance.Absent}
	for i := 0; i < 4; i++ {
		testutil.MarkAndFinalize(t, env, "10", "A", days[i], map[string]attendance.Status{std.ID: statuses[i]})
	}
	env.Dispatcher.Wait()
	assert.Empty(t, env.Notifier.Alerts())

	// 5th finalized day; the check runs on the next submission
	testutil.MarkAndFinalize(t, env, "10", "A", days[4], map[string]attendance.Status{std.ID: statuses[4]})
	testutil.MarkDay(t, env.MarkSvc, "10", "A", "2024-08-08", map[string]attendance.Status{std.ID: attendance.Present})
	env.Dispatcher.Wait()

	alerts := env.Notifier.Alerts()
	require.NotEmpty(t, alerts)
	last := alerts[len(alerts)-1]
	assert.Equal(t, "9876543210", last.Contact)
	assert.Equal(t, "10A", last.ClassLabel)
	assert.Equal(t, float64(20), last.Percentage)
	assert.Equal(t, float64(75), last.Threshold)
}

func TestMarkService_Submit_notifierFailureIsSwallowed(t *testing.T) {
	testutil.FreezeToday(t, "2024-09-30")
	env := testutil.NewEnv(t)
	env.Notifier.Err = errors.New("sms gateway down")
	std := testutil.CreateStudent(t, env.Students, "STU001", "Asha Rao", "10", "A", "9876543210")

	for _, d := range []string{"2024-08-01", "2024-08-02", "2024-08-05", "2024-08-06", "2024-08-07"} {
		testutil.MarkAndFinalize(t, env, "10", "A", d, map[string]attendance.Status{std.ID: attendance.Absent})
	}
	res, err := submit(env, testutil.Admin, "2024-08-08", attendance.MarkItem{StudentID: std.ID, Status: "Absent"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Marked)
}

// finalizingFinder runs `finalize` on the first student lookup.
type finalizingFinder struct {
	attendance.StudentFinder
	once     sync.Once
	finalize func()
}

func (f *finalizingFinder) GetStudent(ctx context.Context, ref string) (student.Student, error) {
	f.once.Do(f.finalize)
	return f.StudentFinder.GetStudent(ctx, ref)
}

func TestMarkService_Submit_finalizedMidBatch(t *testing.T) {
	env := testutil.NewEnv(t)
	stds := []student.Student{
		testutil.CreateStudent(t, env.Students, "STU001", "Asha Rao", "10", "A", ""),
		testutil.CreateStudent(t, env.Students, "STU002", "Ben Das", "10", "A", ""),
		testutil.CreateStudent(t, env.Students, "STU003", "Chitra Nair", "10", "A", ""),
	}
	finder := &finalizingFinder{
		StudentFinder: env.Students,
		finalize:      func() { testutil.FinalizeDay(t, env.Finalizer, "10", "A", "2024-08-01") },
	}
	svc := attendance.NewMarkService(env.Marks, env.Ledger, finder, nil, nil, env.Conf)

	items := make([]attendance.MarkItem, 0, len(stds))
	for _, std := range stds {
		items = append(items, attendance.MarkItem{StudentID: std.ID, Status: "Present"})
	}
	_, err := svc.Submit(context.Background(), testutil.Admin, attendance.SubmitMarks{
		ClassName:    "10",
		Section:      "A",
		Date:         "2024-08-01",
		AcademicYear: testutil.AcademicYear,
		Marks:        items,
	})

	var conflict *core.ConflictError
	require.True(t, errors.As(err, &conflict), "got %v", err)
	assert.Equal(t, attendance.ErrFinalized, conflict.Err)

	for _, std := range stds {
		_, err = env.Marks.GetMark(context.Background(), std.ID, testutil.Day("2024-08-01"))
		assert.True(t, core.IsNotFound(err), "%s must not be marked on a finalized day", std.RollCode)
	}
}

// racingMarks behaves as if another request created the mark between GetMark and CreateMark.
type racingMarks struct {
	attendance.MarkRepository
	gets    int
	creates int
}

func (r *racingMarks) GetMark(ctx context.Context, studentID string, day time.Time) (attendance.Mark, error) {
	r.gets++
	if r.gets == 1 {
		return attendance.Mark{}, attendance.ErrMarkNotFound
	}
	return r.MarkRepository.GetMark(ctx, studentID, day)
}

func (r *racingMarks) CreateMark(context.Context, attendance.Mark) (attendance.Mark, error) {
	r.creates++
	return attendance.Mark{}, attendance.ErrMarkExists
}

func TestMarkService_Submit_lostCreateRace(t *testing.T) {
	env := testutil.NewEnv(t)
	std := testutil.CreateStudent(t, env.Students, "STU001", "Asha Rao", "10", "A", "")
	first := testutil.MarkDay(t, env.MarkSvc, "10", "A", "2024-08-01", map[string]attendance.Status{std.ID: attendance.Present})

	marks := &racingMarks{MarkRepository: env.Marks}
	svc := attendance.NewMarkService(marks, env.Ledger, env.Students, nil, nil, env.Conf)

	res, err := svc.Submit(context.Background(), testutil.Admin, attendance.SubmitMarks{
		ClassName:    "10",
		Section:      "A",
		Date:         "2024-08-01",
		AcademicYear: testutil.AcademicYear,
		Marks:        []attendance.MarkItem{{StudentID: std.ID, Status: "Absent"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, marks.creates)
	assert.Equal(t, 2, marks.gets)
	assert.Empty(t, res.Errors)
	require.Equal(t, 1, res.Marked)
	assert.Equal(t, first.Results[0].ID, res.Results[0].ID)
	assert.Equal(t, attendance.Absent, res.Results[0].Status)

	stored, err := env.Marks.QueryMarks(context.Background(), attendance.MarkFilter{StudentID: std.ID})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, attendance.Absent, stored[0].Status)
}
