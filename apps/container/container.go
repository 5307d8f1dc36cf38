// Package container wires the app dependencies shared by the API server and the admin CLI.
package container

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/alert"
	"github.com/trezcool/rollcall/core/attendance"
	"github.com/trezcool/rollcall/core/class"
	"github.com/trezcool/rollcall/core/student"
	"github.com/trezcool/rollcall/core/teacher"
	appfs "github.com/trezcool/rollcall/fs"
	emailsvc "github.com/trezcool/rollcall/services/email"
	logsvc "github.com/trezcool/rollcall/services/logger"
	smssvc "github.com/trezcool/rollcall/services/sms"
	"github.com/trezcool/rollcall/storage/database"
	inmemdb "github.com/trezcool/rollcall/storage/database/inmem"
	sqlxrepos "github.com/trezcool/rollcall/storage/database/sqlx"
)

// MemoryEngine keeps everything in process memory; nothing survives a restart.
const MemoryEngine = "memory"

type Container struct {
	Conf       *core.Config
	Logger     core.Logger
	DB         *sqlx.DB // nil with the memory engine
	Dispatcher *core.Dispatcher
	Notifier   core.Notifier

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

// NewLogger returns a rollbar backed logger printing to stdout; rollbar is off in DEV.
func NewLogger(prefix string, conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, prefix+" : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	switch {
	case conf.TestMode:
		return emailsvc.NewConsoleServiceMock(conf, logger)
	case conf.Debug || conf.Email.SendgridApiKey == "":
		return emailsvc.NewConsoleService(conf, logger)
	default:
		return emailsvc.NewSendgridService(conf, logger)
	}
}

func newSMSNotifier(conf *core.Config, logger core.Logger) core.Notifier {
	if conf.TestMode && conf.SMS.AuthKey == "" {
		return smssvc.NewConsoleNotifierMock()
	}
	return smssvc.NewNotifier(conf, logger)
}

// SetUpDB creates (if needed), opens and migrates the app database.
func SetUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}
	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if err = database.Migrate(db.DB, "up"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// New builds the whole app. The database is set up unless the memory engine is configured.
func New(conf *core.Config, logger core.Logger) (*Container, error) {
	c := &Container{Conf: conf, Logger: logger}

	if conf.Database.Engine == MemoryEngine {
		db := inmemdb.NewDB()
		c.Students = inmemdb.NewStudentRepository(db)
		c.Teachers = inmemdb.NewTeacherRepository(db)
		c.Classes = inmemdb.NewClassRepository(db)
		c.Alerts = inmemdb.NewAlertRepository(db)
		c.Marks = inmemdb.NewMarkRepository(db)
		c.Ledger = inmemdb.NewLedger(db)
	} else {
		db, err := SetUpDB(conf)
		if err != nil {
			return nil, errors.Wrap(err, "setting up database")
		}
		c.DB = db
		c.Students = sqlxrepos.NewStudentRepository(db)
		c.Teachers = sqlxrepos.NewTeacherRepository(db)
		c.Classes = sqlxrepos.NewClassRepository(db)
		c.Alerts = sqlxrepos.NewAlertRepository(db)
		c.Marks = sqlxrepos.NewMarkRepository(db)
		c.Ledger = sqlxrepos.NewLedger(db)
	}

	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, conf, logger)

	c.Dispatcher = core.NewDispatcher(conf.Attendance.NotifyWorkers, 30*time.Second, logger)
	c.Notifier = core.MultiNotifier(
		newSMSNotifier(conf, logger),
		emailsvc.NewNotifier(newEmailService(conf, logger)),
	)

	c.TeacherSvc = teacher.NewService(c.Teachers)
	c.ClassSvc = class.NewService(c.Classes, c.TeacherSvc, conf)
	c.StudentSvc = student.NewService(c.Students, conf)
	c.AlertSvc = alert.NewService(c.Alerts, c.ClassSvc, c.TeacherSvc, conf)
	c.Aggregator = attendance.NewAggregator(c.Marks, c.Ledger, c.Students, conf)
	c.Shortage = attendance.NewShortageDetector(c.Aggregator, c.Students, c.Notifier, c.Dispatcher, logger, conf)
	c.MarkSvc = attendance.NewMarkService(c.Marks, c.Ledger, c.Students, c.Shortage, c.Dispatcher, conf)
	c.Finalizer = attendance.NewFinalizer(c.Ledger, conf)
	return c, nil
}

// Close waits for the pending notifications then closes the database.
func (c *Container) Close() error {
	c.Dispatcher.Wait()
	if c.DB == nil {
		return nil
	}
	if err := c.DB.Close(); err != nil {
		return errors.Wrap(err, "closing database")
	}
	return nil
}

func (c *Container) String() string {
	engine := c.Conf.Database.Engine
	if c.DB != nil {
		engine = fmt.Sprintf("%s@%s/%s", engine, c.Conf.Database.Address(), c.Conf.Database.Name)
	}
	return fmt.Sprintf("%s [%s]", c.Conf, engine)
}
