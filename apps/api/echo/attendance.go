package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/core/attendance"
)

type attendanceApi struct {
	marks      *attendance.MarkService
	finalizer  *attendance.Finalizer
	aggregator *attendance.Aggregator
	detector   *attendance.ShortageDetector
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := attendanceApi{
		marks:      deps.MarkSvc,
		finalizer:  deps.Finalizer,
		aggregator: deps.Aggregator,
		detector:   deps.Shortage,
	}

	ag := g.Group("/attendance", jwt)

	// staff endpoints
	ag.POST("/mark", api.mark, staffMiddleware())
	ag.POST("/finalize", api.finalize, staffMiddleware())
	ag.POST("/notify-parent", api.notifyParent, staffMiddleware())
	ag.GET("/class/:className/:section", api.classDay, staffMiddleware())
	ag.GET("/trend/:className/:section", api.classTrend, staffMiddleware())
	ag.GET("/shortage", api.shortage, staffMiddleware())
	ag.GET("/overview", api.overview, staffMiddleware())

	// students may read their own attendance
	sg := ag.Group("/student/:studentId")
	sg.GET("/range", api.studentRange)
	sg.GET("/monthly", api.studentMonthly)
	sg.GET("/semester", api.studentSemester)
}

// Handlers

func (api *attendanceApi) mark(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	var data attendance.SubmitMarks
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubmitMarks")
	}

	res, err := api.marks.Submit(ctx.Request().Context(), sess, data)
	if err != nil {
		return errors.Wrap(err, "submitting marks")
	}
	if res.Results == nil {
		res.Results = []attendance.Mark{}
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *attendanceApi) finalize(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	var data attendance.DayQuery
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DayQuery")
	}

	if _, err = api.finalizer.Finalize(ctx.Request().Context(), sess, data); err != nil {
		return errors.Wrap(err, "finalizing attendance")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "Attendance finalized successfully"})
}

func (api *attendanceApi) notifyParent(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	var data attendance.ParentNotice
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ParentNotice")
	}

	if err = api.detector.NotifyParent(ctx.Request().Context(), sess, data); err != nil {
		return errors.Wrap(err, "notifying parent")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "SMS notification sent successfully"})
}

func (api *attendanceApi) classDay(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	qp := newQueryParams(ctx)
	snap, err := api.aggregator.ClassDay(ctx.Request().Context(), sess, attendance.DayQuery{
		ClassName:    ctx.Param("className"),
		Section:      ctx.Param("section"),
		Date:         qp.String("date"),
		AcademicYear: qp.String("academicYear"),
	})
	if err != nil {
		return errors.Wrap(err, "getting class day attendance")
	}
	return ctx.JSON(http.StatusOK, snap)
}

func (api *attendanceApi) classTrend(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	qp := newQueryParams(ctx)
	trend, err := api.aggregator.ClassTrend(ctx.Request().Context(), sess, attendance.TrendQuery{
		ClassName:    ctx.Param("className"),
		Section:      ctx.Param("section"),
		StartDate:    qp.String("startDate"),
		EndDate:      qp.String("endDate"),
		AcademicYear: qp.String("academicYear"),
	})
	if err != nil {
		return errors.Wrap(err, "getting class trend")
	}
	return ctx.JSON(http.StatusOK, trend)
}

func (api *attendanceApi) shortage(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	qp := newQueryParams(ctx)
	sq := attendance.ShortageQuery{
		ClassName:    qp.String("className"),
		Section:      qp.String("section"),
		AcademicYear: qp.String("academicYear"),
		Threshold:    qp.Float("threshold"),
	}
	if err = qp.Err(); err != nil {
		return err
	}

	report, err := api.detector.List(ctx.Request().Context(), sess, sq)
	if err != nil {
		return errors.Wrap(err, "listing attendance shortage")
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *attendanceApi) overview(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	ov, err := api.aggregator.Overview(ctx.Request().Context(), sess, ctx.QueryParam("academicYear"))
	if err != nil {
		return errors.Wrap(err, "getting overview")
	}
	return ctx.JSON(http.StatusOK, ov)
}

func (api *attendanceApi) studentRange(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	qp := newQueryParams(ctx)
	sum, err := api.aggregator.StudentRange(ctx.Request().Context(), sess, attendance.RangeQuery{
		StudentID:    ctx.Param("studentId"),
		StartDate:    qp.String("startDate"),
		EndDate:      qp.String("endDate"),
		AcademicYear: qp.String("academicYear"),
	})
	if err != nil {
		return errors.Wrap(err, "getting student range attendance")
	}
	return ctx.JSON(http.StatusOK, sum)
}

func (api *attendanceApi) studentMonthly(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	qp := newQueryParams(ctx)
	mq := attendance.MonthlyQuery{
		StudentID:    ctx.Param("studentId"),
		Year:         qp.Int("year"),
		Month:        qp.Int("month"),
		AcademicYear: qp.String("academicYear"),
	}
	if err = qp.Err(); err != nil {
		return err
	}

	report, err := api.aggregator.Monthly(ctx.Request().Context(), sess, mq)
	if err != nil {
		return errors.Wrap(err, "getting student monthly attendance")
	}
	if report.Records == nil {
		report.Records = []attendance.Mark{}
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *attendanceApi) studentSemester(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	report, err := api.detector.SemesterReport(
		ctx.Request().Context(), sess, ctx.Param("studentId"), ctx.QueryParam("academicYear"),
	)
	if err != nil {
		return errors.Wrap(err, "getting student semester attendance")
	}
	return ctx.JSON(http.StatusOK, report)
}
