package smssvc

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/trezcool/rollcall/core"
)

var (
	SentAlerts = make([]core.AttendanceAlert, 0)
	mu         sync.Mutex
)

// ResetSentAlerts empties SentAlerts; used by tests.
func ResetSentAlerts() {
	mu.Lock()
	SentAlerts = SentAlerts[:0]
	mu.Unlock()
}

// Sent returns a copy of SentAlerts.
func Sent() []core.AttendanceAlert {
	mu.Lock()
	defer mu.Unlock()
	return append([]core.AttendanceAlert(nil), SentAlerts...)
}

type consoleNotifier struct {
	logger        core.Logger
	disableOutput bool
}

var _ core.Notifier = (*consoleNotifier)(nil)

// NewConsoleNotifier logs the SMS it would have sent. Used when MSG91 is not configured.
func NewConsoleNotifier(logger core.Logger) core.Notifier {
	return &consoleNotifier{logger: logger}
}

// NewConsoleNotifierMock records alerts in SentAlerts without printing them.
func NewConsoleNotifierMock() core.Notifier {
	return &consoleNotifier{disableOutput: true}
}

func (n *consoleNotifier) NotifyLowAttendance(_ context.Context, alert core.AttendanceAlert) error {
	if !n.disableOutput {
		sep := strings.Repeat("=", 60)
		n.logger.Info(fmt.Sprintf(
			"%s\nSMS ALERT (MSG91 not configured - would send SMS):\nTo: %s\nMessage: %s\n%s",
			sep, alert.Contact, alert.Message(), sep,
		))
	}
	mu.Lock()
	SentAlerts = append(SentAlerts, alert)
	mu.Unlock()
	return nil
}
