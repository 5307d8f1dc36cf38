package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSession(t *testing.T) {
	admin := Session{UserID: "a", Role: RoleAdmin}
	teacher := Session{UserID: "t", Role: RoleTeacher}
	classTeacher := Session{UserID: "ct", Role: RoleTeacher, Class: "10", Section: "A"}
	gradeTeacher := Session{UserID: "gt", Role: RoleTeacher, Class: "10"}
	student := Session{UserID: "s1", Role: RoleStudent}
	anonymous := Session{}

	t.Run("staff", func(t *testing.T) {
		for _, sess := range []Session{admin, teacher, classTeacher, SystemSession()} {
			assert.True(t, sess.IsStaff(), sess.Role)
			assert.NoError(t, sess.RequireStaff())
		}
		for _, sess := range []Session{student, anonymous} {
			assert.False(t, sess.IsStaff(), sess.Role)
			assert.Equal(t, ErrPermissionDenied, sess.RequireStaff())
		}
		assert.True(t, SystemSession().IsAdmin())
	})

	t.Run("view student", func(t *testing.T) {
		assert.True(t, admin.CanViewStudent("s1"))
		assert.True(t, teacher.CanViewStudent("s1"))
		assert.True(t, student.CanViewStudent("s1"))
		assert.False(t, student.CanViewStudent("s2"))
		assert.False(t, anonymous.CanViewStudent(""))
	})

	t.Run("manage class", func(t *testing.T) {
		assert.True(t, admin.CanManageClass("9", "B"))
		assert.True(t, teacher.CanManageClass("9", "B"))
		assert.True(t, classTeacher.CanManageClass("10", "A"))
		assert.False(t, classTeacher.CanManageClass("10", "B"))
		assert.True(t, gradeTeacher.CanManageClass("10", "B"))
		assert.False(t, gradeTeacher.CanManageClass("9", "B"))
		assert.False(t, student.CanManageClass("10", "A"))
	})
}
