package attendance_test

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/attendance"
	"github.com/trezcool/rollcall/tests"
)

func dayQuery(date string) attendance.DayQuery {
	return attendance.DayQuery{ClassName: "10", Section: "A", Date: date, AcademicYear: testutil.AcademicYear}
}

func TestFinalizer_Finalize(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	fin, err := env.Finalizer.Finalize(ctx, testutil.Teacher, dayQuery("2024-08-01T09:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, "2024-08-01", fin.Date)
	assert.Equal(t, testutil.Teacher.UserID, fin.FinalizedBy)
	assert.NotEmpty(t, fin.ID)

	ok, err := env.Finalizer.IsFinalized(ctx, dayQuery("2024-08-01"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.Finalizer.IsFinalized(ctx, dayQuery("2024-08-02"))
	require.NoError(t, err)
	assert.False(t, ok)

	t.Run("twice", func(t *testing.T) {
		_, err := env.Finalizer.Finalize(ctx, testutil.Admin, dayQuery("2024-08-01"))
		var conflict *core.ConflictError
		require.True(t, errors.As(err, &conflict))
		assert.Equal(t, attendance.ErrAlreadyFinalized, conflict.Err)
		assert.Equal(t, "attendance for this date is already finalized", conflict.Err.Error())
		assert.Equal(t, "2024-08-01", conflict.Details()["date"])
	})

	t.Run("permissions", func(t *testing.T) {
		_, err := env.Finalizer.Finalize(ctx, testutil.StudentSession("s1"), dayQuery("2024-08-05"))
		assert.Equal(t, core.ErrPermissionDenied, err)

		_, err = env.Finalizer.Finalize(ctx, testutil.ClassTeacher("10", "B"), dayQuery("2024-08-05"))
		assert.Equal(t, core.ErrPermissionDenied, err)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := env.Finalizer.Finalize(ctx, testutil.Admin, attendance.DayQuery{ClassName: "10", Date: "2024-08-05"})
		assert.Error(t, err)
		assert.False(t, core.IsNotFound(err))

		var conflict *core.ConflictError
		assert.False(t, errors.As(err, &conflict))
	})
}

func TestFinalizer_Finalize_concurrent(t *testing.T) {
	env := testutil.NewEnv(t)

	const n = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.Finalizer.Finalize(context.Background(), testutil.Admin, dayQuery("2024-08-01"))
			mu.Lock()
			defer mu.Unlock()
			var conflict *core.ConflictError
			switch {
			case err == nil:
				successes++
			case errors.As(err, &conflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, conflicts)

	fins, err := env.Ledger.QueryFinalizations(context.Background(), attendance.FinalizationFilter{})
	require.NoError(t, err)
	assert.Len(t, fins, 1)
}

func TestFinalizer_Finalize_incompleteDay(t *testing.T) {
	env := testutil.NewEnv(t)
	marked := testutil.CreateStudent(t, env.Students, "STU001", "Asha Rao", "10", "A", "")
	testutil.CreateStudent(t, env.Students, "STU002", "Ben Das", "10", "A", "")

	testutil.MarkAndFinalize(t, env, "10", "A", "2024-08-01", map[string]attendance.Status{marked.ID: attendance.Present})

	snap, err := env.Aggregator.ClassDay(context.Background(), testutil.Admin, dayQuery("2024-08-01"))
	require.NoError(t, err)
	assert.True(t, snap.IsFinalized)
	assert.Equal(t, 2, snap.TotalStudents)
}

func TestConstructors_requireDependencies(t *testing.T) {
	env := testutil.NewEnv(t)

	assert.Panics(t, func() { attendance.NewFinalizer(nil, env.Conf) })
	assert.Panics(t, func() { attendance.NewAggregator(env.Marks, nil, env.Students, env.Conf) })
	assert.Panics(t, func() {
		attendance.NewMarkService(nil, env.Ledger, env.Students, env.Shortage, env.Dispatcher, env.Conf)
	})
	assert.Panics(t, func() {
		attendance.NewShortageDetector(env.Aggregator, env.Students, nil, env.Dispatcher, env.Logger, env.Conf)
	})

	assert.NotPanics(t, func() { attendance.NewFinalizer(env.Ledger, env.Conf) })
	assert.NotPanics(t, func() { attendance.NewAggregator(env.Marks, env.Ledger, env.Students, env.Conf) })
}
