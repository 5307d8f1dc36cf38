package tests

import (
	"net/http"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/rollcall/apps/api/echo"
	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/attendance"
	"github.com/trezcool/rollcall/tests"
)

func Test_health(t *testing.T) {
	app, _ := setup(t)

	req, rec := newRequest(http.MethodGet, "/health")
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`{"status": "OK", "message": "Server is running"}`)}, rec)
}

func Test_auth(t *testing.T) {
	app, env := setup(t)

	otherConf := core.NewTestConfig()
	otherConf.SecretKey = "not-the-secret"

	expired := echoapi.NewClaims(testutil.Admin, env.Conf)
	expired.ExpiresAt = core.NowFunc().Add(-time.Minute).Unix()
	expiredToken, err := echoapi.GenerateToken(expired, env.Conf.SecretKey)
	require.NoError(t, err)

	systemToken, err := echoapi.GenerateToken(&echoapi.Claims{
		StandardClaims: jwt.StandardClaims{Subject: "cron", ExpiresAt: core.NowFunc().Add(env.Conf.Server.JWTExpirationDelta).Unix()},
		Role:           core.RoleSystem,
	}, env.Conf.SecretKey)
	require.NoError(t, err)

	invalid := marchallObj(t, httpErr{Error: "invalid or expired jwt"})
	runHTTPTests(t, app, []httpTest{
		{name: "missing token", path: "/v1/attendance/overview", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "wrong key", path: "/v1/attendance/overview", token: getToken(t, otherConf, testutil.Admin), wantCode: http.StatusUnauthorized, wantData: invalid},
		{name: "expired", path: "/v1/attendance/overview", token: expiredToken, wantCode: http.StatusUnauthorized, wantData: invalid},
		{name: "system role", path: "/v1/attendance/overview", token: systemToken, wantCode: http.StatusUnauthorized, wantData: invalid},
		{name: "ok", path: "/v1/attendance/overview", token: getToken(t, env.Conf, testutil.Teacher)},
	})
}

func Test_attendanceApi_markAndFinalize(t *testing.T) {
	app, env := setup(t)
	std := testutil.CreateStudent(t, env.Students, "STU001", "Asha Rao", "10", "A", "")
	adminToken := getToken(t, env.Conf, testutil.Admin)
	studentToken := getToken(t, env.Conf, testutil.StudentSession(std.ID))

	markBody := marchallObj(t, attendance.SubmitMarks{
		ClassName: "10",
		Section:   "A",
		Date:      "2024-08-01",
		Marks:     []attendance.MarkItem{{StudentID: "STU001", Status: "Present"}, {StudentID: "ghost", Status: "Absent"}},
	})
	dayBody := marchallObj(t, attendance.DayQuery{ClassName: "10", Section: "A", Date: "2024-08-01"})
	forbidden := marchallObj(t, httpErr{Error: "permission denied"})

	runHTTPTests(t, app, []httpTest{
		{name: "mark: auth required", method: http.MethodPost, path: "/v1/attendance/mark", body: markBody, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "mark: staff required", method: http.MethodPost, path: "/v1/attendance/mark", body: markBody, token: studentToken, wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "finalize: staff required", method: http.MethodPost, path: "/v1/attendance/finalize", body: dayBody, token: studentToken, wantCode: http.StatusForbidden, wantData: forbidden},
	})

	t.Run("mark", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/attendance/mark", adminToken, markBody)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var res attendance.SubmitResult
		unmarchall(t, rec, &res)
		assert.Equal(t, 1, res.Marked)
		require.Len(t, res.Results, 1)
		assert.Equal(t, std.ID, res.Results[0].StudentID)
		assert.Equal(t, attendance.Present, res.Results[0].Status)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, "ghost", res.Errors[0].StudentID)
		assert.Equal(t, "student not found", res.Errors[0].Error)
	})

	t.Run("mark: invalid", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/attendance/mark", adminToken, []byte(`{"section": "A", "date": "yesterday"}`))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var fields map[string]string
		unmarchall(t, rec, &fields)
		assert.Equal(t, "this field is required", fields["className"])
		assert.Equal(t, "date must be YYYY-MM-DD or RFC 3339", fields["date"])
		assert.Contains(t, fields, "attendanceList")
		assert.NotContains(t, fields, "section")
	})

	runHTTPTests(t, app, []httpTest{
		{
			name: "finalize", method: http.MethodPost, path: "/v1/attendance/finalize", body: dayBody, token: adminToken,
			wantData: marchallObj(t, echoapi.SuccessResponse{Success: true, Message: "Attendance finalized successfully"}),
		},
		{
			name: "finalize twice", method: http.MethodPost, path: "/v1/attendance/finalize", body: dayBody, token: adminToken,
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, map[string]interface{}{
				"error":   "attendance for this date is already finalized",
				"details": map[string]string{"className": "10", "section": "A", "date": "2024-08-01", "academicYear": testutil.AcademicYear},
			}),
		},
		{
			name: "mark a finalized day", method: http.MethodPost, path: "/v1/attendance/mark", body: markBody, token: adminToken,
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, map[string]interface{}{
				"error":   "attendance for this date is finalized and cannot be edited",
				"details": map[string]string{"className": "10", "section": "A", "date": "2024-08-01", "academicYear": testutil.AcademicYear},
			}),
		},
	})
}

func Test_attendanceApi_reports(t *testing.T) {
	app, env := setup(t)
	asha := testutil.CreateStudent(t, env.Students, "STU001", "Asha Rao", "10", "A", "9876543210")
	ben := testutil.CreateStudent(t, env.Students, "STU002", "Ben Das", "10", "A", "")

	testutil.MarkAndFinalize(t, env, "10", "A", "2024-08-01", map[string]attendance.Status{asha.ID: attendance.Present, ben.ID: attendance.Present})
	testutil.MarkAndFinalize(t, env, "10", "A", "2024-08-02", map[string]attendance.Status{asha.ID: attendance.Absent, ben.ID: attendance.Present})

	teacherToken := getToken(t, env.Conf, testutil.Teacher)
	ashaToken := getToken(t, env.Conf, testutil.StudentSession(asha.ID))

	t.Run("class day", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/attendance/class/10/A?date=2024-08-02", teacherToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var snap attendance.ClassDaySnapshot
		unmarchall(t, rec, &snap)
		assert.True(t, snap.IsFinalized)
		assert.Equal(t, 2, snap.TotalStudents)
		assert.Equal(t, 1, snap.PresentCount)
		assert.Equal(t, 50.0, snap.AttendancePercentage)
	})

	t.Run("trend", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/attendance/trend/10/A?startDate=2024-08-01&endDate=2024-08-31", teacherToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var trend attendance.ClassTrend
		unmarchall(t, rec, &trend)
		require.Len(t, trend.Trend, 2)
		assert.Equal(t, 100.0, trend.Trend[0].PresentPercentage)
		assert.Equal(t, 50.0, trend.Trend[1].PresentPercentage)
	})

	t.Run("shortage", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/attendance/shortage?threshold=60", teacherToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var report attendance.ShortageReport
		unmarchall(t, rec, &report)
		assert.Equal(t, 60.0, report.Threshold)
		require.Equal(t, 1, report.Count)
		assert.Equal(t, "STU001", report.Students[0].Student.RollCode)
	})

	t.Run("overview", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/attendance/overview", teacherToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var ov attendance.Overview
		unmarchall(t, rec, &ov)
		assert.Equal(t, 75.0, ov.OverallPresent)
		assert.Equal(t, 25.0, ov.OverallAbsent)
	})

	t.Run("student range", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/attendance/student/STU001/range?startDate=2024-08-01&endDate=2024-08-31", ashaToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var sum attendance.Summary
		unmarchall(t, rec, &sum)
		assert.Equal(t, 2, sum.TotalDays)
		assert.Equal(t, 50.0, sum.Percentage)
	})

	t.Run("student monthly", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/attendance/student/"+asha.ID+"/monthly?year=2024&month=8", ashaToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var report attendance.MonthlyReport
		unmarchall(t, rec, &report)
		assert.Equal(t, 2, report.TotalDays)
		assert.Len(t, report.Records, 2)
	})

	t.Run("student semester", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/attendance/student/"+asha.ID+"/semester", ashaToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var report attendance.StudentReport
		unmarchall(t, rec, &report)
		assert.Equal(t, "STU001", report.Student.RollCode)
	})

	runHTTPTests(t, app, []httpTest{
		{
			name: "bad threshold", path: "/v1/attendance/shortage?threshold=lots", token: teacherToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"threshold": "must be a number"}),
		},
		{
			name: "bad month", path: "/v1/attendance/student/STU001/monthly?year=2024&month=aug", token: teacherToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"month": "must be an integer"}),
		},
		{
			name: "reversed range", path: "/v1/attendance/student/STU001/range?startDate=2024-08-31&endDate=2024-08-01", token: teacherToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"endDate": attendance.ErrInvalidRange.Error()}),
		},
		{
			name: "unknown student", path: "/v1/attendance/student/STU404/range?startDate=2024-08-01&endDate=2024-08-31", token: teacherToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "student not found"}),
		},
		{
			name: "other student", path: "/v1/attendance/student/STU002/semester", token: ashaToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "students cannot list shortage", path: "/v1/attendance/shortage", token: ashaToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
	})
}

func Test_attendanceApi_notifyParent(t *testing.T) {
	app, env := setup(t)
	token := getToken(t, env.Conf, testutil.Teacher)

	runHTTPTests(t, app, []httpTest{
		{
			name: "sent", method: http.MethodPost, path: "/v1/attendance/notify-parent", token: token,
			body:     []byte(`{"parentContact": "9876543210", "studentName": "Asha Rao", "class": "10", "section": "A", "attendancePercentage": 60}`),
			wantData: marchallObj(t, echoapi.SuccessResponse{Success: true, Message: "SMS notification sent successfully"}),
		},
		{
			name: "missing contact", method: http.MethodPost, path: "/v1/attendance/notify-parent", token: token,
			body:     []byte(`{"studentName": "Asha Rao"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"parentContact": "this field is required"}),
		},
	})

	alerts := env.Notifier.Alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, "10A", alerts[0].ClassLabel)
	assert.Equal(t, 60.0, alerts[0].Percentage)
}
