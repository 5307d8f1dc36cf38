package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/attendance"
)

// ShortageNotifier is satisfied by *attendance.ShortageDetector.
type ShortageNotifier interface {
	NotifyAll(ctx context.Context, sess core.Session, sq attendance.ShortageQuery) (attendance.ShortageReport, error)
}

// Scheduler runs the periodic attendance jobs.
type Scheduler struct {
	cron    *cron.Cron
	logger  core.Logger
	timeout time.Duration
}

// cronLogger routes cron's own logs to the app logger.
type cronLogger struct {
	logger core.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(fmt.Sprintf("cron: %s %v", msg, keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(fmt.Sprintf("cron: %s %v", msg, keysAndValues), err)
}

func New(logger core.Logger, timeout time.Duration) *Scheduler {
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:  logger,
		timeout: timeout,
	}
}

// AddShortageScan schedules a scan notifying the parents of every student below the threshold.
// An empty schedule disables the job.
func (s *Scheduler) AddShortageScan(schedule string, notifier ShortageNotifier) error {
	if schedule == "" {
		return nil
	}
	_, err := s.cron.AddFunc(schedule, func() { s.runShortageScan(notifier) })
	return errors.Wrapf(err, "scheduling shortage scan %q", schedule)
}

func (s *Scheduler) runShortageScan(notifier ShortageNotifier) {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	report, err := notifier.NotifyAll(ctx, core.SystemSession(), attendance.ShortageQuery{})
	if err != nil {
		s.logger.Error(fmt.Sprintf("shortage scan: %v", err), err)
		return
	}
	s.logger.Info(fmt.Sprintf(
		"shortage scan: %d students below %s%% (%s to %s)",
		report.Count, core.FormatPercent(report.Threshold), report.StartDate, report.EndDate,
	))
}

// Entries returns the number of scheduled jobs.
func (s *Scheduler) Entries() int { return len(s.cron.Entries()) }

func (s *Scheduler) Start() { s.cron.Start() }

// Stop stops the scheduler and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
