package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/rollcall/core/class"
	"github.com/trezcool/rollcall/tests"
)

func Test_classApi(t *testing.T) {
	app, env := setup(t)
	tenA := testutil.CreateClass(t, env.Classes, "10", "A", "teacher-1")
	nineB := testutil.CreateClass(t, env.Classes, "9", "B", "")
	asha := testutil.CreateStudent(t, env.Students, "STU001", "Asha Rao", "10", "A", "")
	testutil.CreateStudent(t, env.Students, "STU002", "Ben Das", "9", "B", "")
	testutil.CreateTeacher(t, env.Teachers, "teacher-2", "Ravi Menon", "", "")
	retired := testutil.CreateTeacher(t, env.Teachers, "teacher-3", "Old Timer", "", "")
	retired.IsActive = false
	_, err := env.Teachers.UpdateTeacher(context.Background(), retired)
	require.NoError(t, err)
	unknownTeacher := marchallObj(t, map[string]string{"classTeacher": class.ErrNoSuchTeacher.Error()})

	adminToken := getToken(t, env.Conf, testutil.Admin)
	teacherToken := getToken(t, env.Conf, testutil.Teacher)
	forbidden := marchallObj(t, httpErr{Error: "permission denied"})

	runHTTPTests(t, app, []httpTest{
		{name: "auth required", path: "/v1/classes", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "staff required", path: "/v1/classes", token: getToken(t, env.Conf, testutil.StudentSession(asha.ID)), wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "list", path: "/v1/classes", token: teacherToken, wantData: marchallList(t, tenA, nineB)},
		{name: "list by teacher", path: "/v1/classes?classTeacher=teacher-1", token: teacherToken, wantData: marchallList(t, tenA)},
		{name: "get", path: "/v1/classes/" + nineB.ID, token: teacherToken, wantData: marchallObj(t, nineB)},
		{name: "get unknown", path: "/v1/classes/nope", token: teacherToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "class not found"})},
		{name: "students", path: "/v1/classes/10/A/students", token: teacherToken, wantData: marchallList(t, asha)},
		{name: "students (empty)", path: "/v1/classes/12/C/students", token: teacherToken, wantData: marchallList(t)},
		{
			name: "create: admin required", method: http.MethodPost, path: "/v1/classes", token: teacherToken,
			body: marchallObj(t, class.NewClass{ClassName: "8", Section: "A"}), wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "create: duplicate", method: http.MethodPost, path: "/v1/classes", token: adminToken,
			body: marchallObj(t, class.NewClass{ClassName: "10", Section: "A"}), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"section": class.ErrClassExists.Error()}),
		},
		{
			name: "create: unknown teacher", method: http.MethodPost, path: "/v1/classes", token: adminToken,
			body:     marchallObj(t, class.NewClass{ClassName: "8", Section: "B", ClassTeacher: "teacher-404"}),
			wantCode: http.StatusBadRequest, wantData: unknownTeacher,
		},
		{
			name: "create: inactive teacher", method: http.MethodPost, path: "/v1/classes", token: adminToken,
			body:     marchallObj(t, class.NewClass{ClassName: "8", Section: "B", ClassTeacher: "teacher-3"}),
			wantCode: http.StatusBadRequest, wantData: unknownTeacher,
		},
		{
			name: "update: unknown teacher", method: http.MethodPut, path: "/v1/classes/" + tenA.ID, token: adminToken,
			body: []byte(`{"classTeacher": "teacher-404"}`), wantCode: http.StatusBadRequest, wantData: unknownTeacher,
		},
	})

	t.Run("create", func(t *testing.T) {
		body := marchallObj(t, class.NewClass{ClassName: "8", Section: "A", ClassTeacher: "teacher-2"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/classes", adminToken, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var cls class.Class
		unmarchall(t, rec, &cls)
		assert.NotEmpty(t, cls.ID)
		assert.Equal(t, "teacher-2", cls.ClassTeacher)
		assert.Equal(t, "8A", cls.Label())
		assert.Equal(t, testutil.AcademicYear, cls.AcademicYear)
		assert.True(t, cls.IsActive)
	})

	t.Run("update", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/classes/"+nineB.ID, adminToken, []byte(`{"classTeacher": "teacher-2", "isActive": false}`))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var cls class.Class
		unmarchall(t, rec, &cls)
		assert.Equal(t, "teacher-2", cls.ClassTeacher)
		assert.False(t, cls.IsActive)
		assert.Equal(t, nineB.Board, cls.Board)
	})
}
