package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/kat-co/vala"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/alert"
	"github.com/trezcool/rollcall/core/attendance"
	"github.com/trezcool/rollcall/core/class"
	"github.com/trezcool/rollcall/core/student"
	"github.com/trezcool/rollcall/core/teacher"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		StudentSvc *student.Service
		TeacherSvc *teacher.Service
		ClassSvc   *class.Service
		AlertSvc   *alert.Service
		MarkSvc    *attendance.MarkService
		Finalizer  *attendance.Finalizer
		Aggregator *attendance.Aggregator
		Shortage   *attendance.ShortageDetector
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(context.Context) error
		Close() error
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	vala.BeginValidation().Validate(
		vala.IsNotNil(deps.Conf, "Conf"),
		vala.IsNotNil(deps.Logger, "Logger"),
		vala.IsNotNil(deps.StudentSvc, "StudentSvc"),
		vala.IsNotNil(deps.TeacherSvc, "TeacherSvc"),
		vala.IsNotNil(deps.ClassSvc, "ClassSvc"),
		vala.IsNotNil(deps.AlertSvc, "AlertSvc"),
		vala.IsNotNil(deps.MarkSvc, "MarkSvc"),
		vala.IsNotNil(deps.Finalizer, "Finalizer"),
		vala.IsNotNil(deps.Aggregator, "Aggregator"),
		vala.IsNotNil(deps.Shortage, "Shortage"),
	).CheckAndPanic()

	s := &server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORS())

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)
	s.app.GET("/health", health)

	v1 := s.app.Group("/v1")
	jwt := newJWTMiddleware(conf)

	registerAttendanceAPI(v1, jwt, s.deps)
	registerStudentAPI(v1, jwt, s.deps.StudentSvc)
	registerTeacherAPI(v1, jwt, s.deps.TeacherSvc)
	registerClassAPI(v1, jwt, s.deps.ClassSvc, s.deps.StudentSvc)
	registerAlertAPI(v1, jwt, s.deps.AlertSvc)
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Errors() <-chan error { return s.errors }

func (s *server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}

func health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"status": "OK", "message": "Server is running"})
}
