package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"

	echoapi "github.com/trezcool/rollcall/apps/api/echo"
	"github.com/trezcool/rollcall/apps/container"
	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/services/scheduler"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()
	logger := container.NewLogger("API", conf)

	app, err := container.New(conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up app: %v", err), err)
	}
	defer func() {
		if err = app.Close(); err != nil {
			logger.Error(fmt.Sprintf("closing app: %v", err), err)
		}
	}()

	logger.Info(fmt.Sprintf("Application initializing : %s", app))
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start Scheduler

	sched := scheduler.New(logger, conf.Server.ShutdownTimeout*10)
	if err = sched.AddShortageScan(conf.Attendance.ShortageScanSchedule, app.Shortage); err != nil {
		logger.Fatal(err.Error(), err)
	}
	sched.Start()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		StudentSvc: app.StudentSvc,
		TeacherSvc: app.TeacherSvc,
		ClassSvc:   app.ClassSvc,
		AlertSvc:   app.AlertSvc,
		MarkSvc:    app.MarkSvc,
		Finalizer:  app.Finalizer,
		Aggregator: app.Aggregator,
		Shortage:   app.Shortage,
	})

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))
	}

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()

	sched.Stop(ctx)

	// asking listener to shutdown and shed load
	if err = server.Shutdown(ctx); err != nil {
		logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

		if err = server.Close(); err != nil {
			logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
		}
	}
}
