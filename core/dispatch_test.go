package core

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type recordingLogger struct {
	mu     sync.Mutex
	errors []string
}

func (l *recordingLogger) Debug(string, ...interface{}) {}
func (l *recordingLogger) Info(string, ...interface{})  {}
func (l *recordingLogger) Warn(string, ...interface{})  {}
func (l *recordingLogger) Fatal(string, ...interface{}) {}

func (l *recordingLogger) Error(msg string, _ ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func TestDispatcher(t *testing.T) {
	logger := new(recordingLogger)
	d := NewDispatcher(2, time.Second, logger)

	var (
		running int32
		maxSeen int32
		done    int32
	)
	for i := 0; i < 8; i++ {
		d.Go("work", func(ctx context.Context) error {
			n := atomic.AddInt32(&running, 1)
			for {
				m := atomic.LoadInt32(&maxSeen)
				if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			atomic.AddInt32(&done, 1)
			return nil
		})
	}
	d.Go("failing", func(context.Context) error { return errors.New("boom") })
	d.Go("panicking", func(context.Context) error { panic("oops") })
	d.Go("deadline", func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		return nil
	})
	d.Wait()

	assert.Equal(t, int32(8), done)
	assert.LessOrEqual(t, maxSeen, int32(2))
	assert.ElementsMatch(t, []string{"task failing: boom", "task panicking panicked: oops"}, logger.errors)
}

func TestNewDispatcher_requiresLogger(t *testing.T) {
	assert.Panics(t, func() { NewDispatcher(1, time.Second, nil) })
	assert.NotPanics(t, func() { NewDispatcher(0, 0, new(recordingLogger)) })
}
