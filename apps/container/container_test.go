package container

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/rollcall/core"
	emailsvc "github.com/trezcool/rollcall/services/email"
	smssvc "github.com/trezcool/rollcall/services/sms"
	"github.com/trezcool/rollcall/tests"
)

func newMemoryApp(t *testing.T) *Container {
	conf := core.NewTestConfig()
	conf.Database.Engine = MemoryEngine

	app, err := New(conf, testutil.NewLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestNew_memory(t *testing.T) {
	app := newMemoryApp(t)

	assert.Nil(t, app.DB)
	assert.NotNil(t, app.StudentSvc)
	assert.NotNil(t, app.ClassSvc)
	assert.NotNil(t, app.AlertSvc)
	assert.NotNil(t, app.MarkSvc)
	assert.NotNil(t, app.Finalizer)
	assert.NotNil(t, app.Aggregator)
	assert.NotNil(t, app.Shortage)
	assert.Equal(t, "Rollcall (TEST, build develop) [memory]", app.String())
}

func TestNew_notifierFanOut(t *testing.T) {
	app := newMemoryApp(t)
	smssvc.ResetSentAlerts()
	emailsvc.ResetSentMessages()

	alert := core.AttendanceAlert{
		Contact:     "9876543210",
		Email:       "parent@school.test",
		StudentName: "Asha Rao",
		ClassLabel:  "10A",
		Percentage:  50,
		Threshold:   75,
	}
	require.NoError(t, app.Notifier.NotifyLowAttendance(context.Background(), alert))

	assert.Equal(t, []core.AttendanceAlert{alert}, smssvc.Sent())
	if sent := emailsvc.Sent(); assert.Len(t, sent, 1) {
		assert.Equal(t, "Low attendance alert: Asha Rao", sent[0].Subject)
	}
}
