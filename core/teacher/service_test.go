package teacher_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/teacher"
	"github.com/trezcool/rollcall/tests"
)

func TestService(t *testing.T) {
	env := testutil.NewEnv(t)
	svc := env.TeacherSvc
	ctx := context.Background()

	_, err := svc.Create(ctx, testutil.Teacher, teacher.NewTeacher{ID: "t1", Name: "Mrs Iyer"})
	assert.Equal(t, core.ErrPermissionDenied, err)

	iyer, err := svc.Create(ctx, testutil.Admin, teacher.NewTeacher{ID: "t1", Name: " Mrs Iyer ", Class: "10", Section: "A"})
	require.NoError(t, err)
	assert.Equal(t, "Mrs Iyer", iyer.Name)
	assert.Equal(t, core.Session{UserID: "t1", Name: "Mrs Iyer", Role: core.RoleTeacher, Class: "10", Section: "A"}, iyer.Session())

	_, err = svc.Create(ctx, testutil.Admin, teacher.NewTeacher{ID: "t1", Name: "Copy"})
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, teacher.ErrIDExists, vErr.Err)

	t.Run("get", func(t *testing.T) {
		got, err := svc.Get(ctx, testutil.StudentSession("t1"), "t1")
		require.NoError(t, err, "a session always reads its own record")
		assert.Equal(t, iyer.ID, got.ID)

		_, err = svc.Get(ctx, testutil.StudentSession("stu-1"), "t1")
		assert.Equal(t, core.ErrPermissionDenied, err)

		_, err = svc.Get(ctx, testutil.Admin, "t404")
		assert.True(t, core.IsNotFound(err))
	})

	t.Run("lookup skips inactive teachers", func(t *testing.T) {
		got, err := svc.Lookup(ctx, " t1 ")
		require.NoError(t, err)
		assert.Equal(t, iyer.ID, got.ID)

		inactive := false
		_, err = svc.Update(ctx, testutil.Admin, "t1", teacher.UpdateTeacher{IsActive: &inactive})
		require.NoError(t, err)

		_, err = svc.Lookup(ctx, "t1")
		assert.Equal(t, teacher.ErrNotFound, err)
	})

	t.Run("update binding", func(t *testing.T) {
		nine, b := "9", "B"
		got, err := svc.Update(ctx, testutil.Admin, "t1", teacher.UpdateTeacher{Class: &nine, Section: &b})
		require.NoError(t, err)
		assert.Equal(t, "9", got.Class)
		assert.Equal(t, "B", got.Section)

		_, err = svc.Update(ctx, testutil.Admin, "t1", teacher.UpdateTeacher{Class: &nine})
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, teacher.ErrIncompleteBinding, vErr.Err)

		_, err = svc.Update(ctx, testutil.Teacher, "t1", teacher.UpdateTeacher{Class: &nine, Section: &b})
		assert.Equal(t, core.ErrPermissionDenied, err)
	})
}
