package core

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttendanceAlert_Message(t *testing.T) {
	alert := AttendanceAlert{StudentName: "Asha Rao", ClassLabel: "10A", Percentage: 66.666, Threshold: 75}
	assert.Equal(t,
		"Dear Parent, This is an alert regarding your child Asha Rao (Class 10A). His attendance for the current semester is 66.67%, "+
			"which is below the required 75% threshold. Please take necessary action.",
		alert.Message(),
	)

	alert.Subject = "Maths"
	assert.Contains(t, alert.Message(), "His attendance in Maths for the current semester")
}

func TestMultiNotifier(t *testing.T) {
	var calls []string
	ok := func(name string) Notifier {
		return NotifierFunc(func(_ context.Context, alert AttendanceAlert) error {
			calls = append(calls, name+":"+alert.StudentName)
			return nil
		})
	}
	failing := NotifierFunc(func(context.Context, AttendanceAlert) error { return errors.New("gateway down") })

	alert := AttendanceAlert{StudentName: "Asha"}
	require.NoError(t, MultiNotifier(ok("sms"), ok("email")).NotifyLowAttendance(context.Background(), alert))
	assert.Equal(t, []string{"sms:Asha", "email:Asha"}, calls)

	calls = nil
	err := MultiNotifier(failing, ok("email")).NotifyLowAttendance(context.Background(), alert)
	require.Error(t, err)
	assert.Equal(t, "notifying: gateway down", err.Error())
	assert.Equal(t, []string{"email:Asha"}, calls)

	assert.NoError(t, MultiNotifier().NotifyLowAttendance(context.Background(), alert))
}
