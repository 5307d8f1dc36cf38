package testutil

import (
	"context"
	"io/ioutil"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/alert"
	"github.com/trezcool/rollcall/core/attendance"
	"github.com/trezcool/rollcall/core/class"
	"github.com/trezcool/rollcall/core/student"
	"github.com/trezcool/rollcall/core/teacher"
	logsvc "github.com/trezcool/rollcall/services/logger"
	"github.com/trezcool/rollcall/storage/database/inmem"
)

// RecordingNotifier keeps every alert it is given; Err, when set, is returned by every call.
type RecordingNotifier struct {
	mu     sync.Mutex
	alerts []core.AttendanceAlert
	Err    error
}

var _ core.Notifier = (*RecordingNotifier)(nil)

func (n *RecordingNotifier) NotifyLowAttendance(_ context.Context, alert core.AttendanceAlert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, alert)
	return n.Err
}

func (n *RecordingNotifier) Alerts() []core.AttendanceAlert {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]core.AttendanceAlert(nil), n.alerts...)
}

// Env is the whole app wired on top of the in-memory database.
type Env struct {
	Conf       *core.Config
	Logger     core.Logger
	Notifier   *RecordingNotifier
	Dispatcher *core.Dispatcher

	Students student.Repository
	Teachers teacher.Repository
	Classes  class.Repository
	Alerts   alert.Repository
	Marks    attendance.MarkRepository
	Ledger   attendance.Ledger

	StudentSvc *student.Service
	TeacherSvc *teacher.Service
	ClassSvc   *class.Service
	AlertSvc   *alert.Service
	MarkSvc    *attendance.MarkService
	Finalizer  *attendance.Finalizer
	Aggregator *attendance.Aggregator
	Shortage   *attendance.ShortageDetector
}

func NewLogger() core.Logger {
	return logsvc.NewStdLogger(log.New(ioutil.Discard, "", 0))
}

// NewEnv wires a fresh Env. Background notifications are waited for at the end of the test.
func NewEnv(t *testing.T) *Env {
	conf := core.NewTestConfig()
	return NewEnvWithRepos(t, conf, inmemRepos())
}

// Repos groups the repositories an Env is built on.
type Repos struct {
	Students student.Repository
	Teachers teacher.Repository
	Classes  class.Repository
	Alerts   alert.Repository
	Marks    attendance.MarkRepository
	Ledger   attendance.Ledger
}

func inmemRepos() Repos {
	db := inmemdb.NewDB()
	return Repos{
		Students: inmemdb.NewStudentRepository(db),
		Teachers: inmemdb.NewTeacherRepository(db),
		Classes:  inmemdb.NewClassRepository(db),
		Alerts:   inmemdb.NewAlertRepository(db),
		Marks:    inmemdb.NewMarkRepository(db),
		Ledger:   inmemdb.NewLedger(db),
	}
}

func NewEnvWithRepos(t *testing.T, conf *core.Config, repos Repos) *Env {
	logger := NewLogger()
	notifier := new(RecordingNotifier)
	dispatcher := core.NewDispatcher(conf.Attendance.NotifyWorkers, 5*time.Second, logger)
	t.Cleanup(dispatcher.Wait)

	teacherSvc := teacher.NewService(repos.Teachers)
	classSvc := class.NewService(repos.Classes, teacherSvc, conf)
	agg := attendance.NewAggregator(repos.Marks, repos.Ledger, repos.Students, conf)
	shortage := attendance.NewShortageDetector(agg, repos.Students, notifier, dispatcher, logger, conf)

	return &Env{
		Conf:       conf,
		Logger:     logger,
		Notifier:   notifier,
		Dispatcher: dispatcher,
		Students:   repos.Students,
		Teachers:   repos.Teachers,
		Classes:    repos.Classes,
		Alerts:     repos.Alerts,
		Marks:      repos.Marks,
		Ledger:     repos.Ledger,
		StudentSvc: student.NewService(repos.Students, conf),
		TeacherSvc: teacherSvc,
		ClassSvc:   classSvc,
		AlertSvc:   alert.NewService(repos.Alerts, classSvc, teacherSvc, conf),
		MarkSvc:    attendance.NewMarkService(repos.Marks, repos.Ledger, repos.Students, shortage, dispatcher, conf),
		Finalizer:  attendance.NewFinalizer(repos.Ledger, conf),
		Aggregator: agg,
		Shortage:   shortage,
	}
}
