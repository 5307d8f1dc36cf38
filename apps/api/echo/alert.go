package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/core/alert"
)

type alertApi struct {
	svc *alert.Service
}

func registerAlertAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *alert.Service) {
	api := alertApi{svc: svc}

	ag := g.Group("/alerts", jwt)
	ag.POST("", api.create, staffMiddleware())
	ag.GET("", api.query, staffMiddleware())
	ag.POST("/notify-teacher", api.notifyTeacher, adminMiddleware())
	ag.GET("/student/:studentId", api.forStudent)
	ag.GET("/class/:className/:section", api.forClass)
	ag.GET("/teacher/:teacherId", api.forTeacher)
	ag.PUT("/:id/read", api.markRead)
}

// Handlers

func (api *alertApi) create(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	var data alert.NewAlert
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAlert")
	}

	alrt, err := api.svc.Create(ctx.Request().Context(), sess, data)
	if err != nil {
		return errors.Wrap(err, "creating alert")
	}
	return ctx.JSON(http.StatusCreated, alrt)
}

func (api *alertApi) query(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	alerts, err := api.svc.Query(ctx.Request().Context(), sess, ctx.QueryParam("senderId"), ctx.QueryParam("academicYear"))
	if err != nil {
		return errors.Wrap(err, "querying alerts")
	}
	return jsonAlerts(ctx, alerts)
}

func (api *alertApi) forStudent(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	alerts, err := api.svc.ForStudent(ctx.Request().Context(), sess, ctx.Param("studentId"), ctx.QueryParam("academicYear"))
	if err != nil {
		return errors.Wrap(err, "querying student alerts")
	}
	return jsonAlerts(ctx, alerts)
}

func (api *alertApi) forClass(ctx echo.Context) error {
	alerts, err := api.svc.ForClass(
		ctx.Request().Context(), ctx.Param("className"), ctx.Param("section"), ctx.QueryParam("academicYear"),
	)
	if err != nil {
		return errors.Wrap(err, "querying class alerts")
	}
	return jsonAlerts(ctx, alerts)
}

func (api *alertApi) forTeacher(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	alerts, err := api.svc.ForTeacher(ctx.Request().Context(), sess, ctx.Param("teacherId"), ctx.QueryParam("academicYear"))
	if err != nil {
		return errors.Wrap(err, "querying teacher alerts")
	}
	return jsonAlerts(ctx, alerts)
}

func (api *alertApi) markRead(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	alrt, err := api.svc.MarkRead(ctx.Request().Context(), sess, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "marking alert as read")
	}
	return ctx.JSON(http.StatusOK, alrt)
}

func (api *alertApi) notifyTeacher(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	var data alert.TeacherNotice
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TeacherNotice")
	}

	alrt, err := api.svc.NotifyClassTeacher(ctx.Request().Context(), sess, data)
	if err != nil {
		return errors.Wrap(err, "notifying class teacher")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Alert sent to class teacher", "alert": alrt})
}

func jsonAlerts(ctx echo.Context, alerts []alert.Alert) error {
	if alerts == nil {
		alerts = []alert.Alert{}
	}
	return ctx.JSON(http.StatusOK, alerts)
}
