package core

import (
	"context"
	"fmt"
	"strings"
)

// AttendanceAlert is a low attendance notice addressed to a student's parent.
type AttendanceAlert struct {
	Contact     string // parent phone number
	Email       string // optional
	StudentName string
	ClassLabel  string // class + section, eg: "10A"
	Percentage  float64
	Threshold   float64
	Subject     string // optional
}

// Message renders the alert as plain text.
func (a AttendanceAlert) Message() string {
	what := "His attendance"
	if a.Subject != "" {
		what = "His attendance in " + a.Subject
	}
	return fmt.Sprintf(
		"Dear Parent, This is an alert regarding your child %s (Class %s). %s for the current semester is %s%%, "+
			"which is below the required %s%% threshold. Please take necessary action.",
		a.StudentName, a.ClassLabel, what, FormatPercent(a.Percentage), FormatPercent(a.Threshold),
	)
}

// FormatPercent formats a percentage with at most 2 decimals, eg: 66.67, 50, 12.5.
func FormatPercent(f float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", f), "0"), ".")
}

// Notifier delivers low attendance alerts.
// Callers treat it as fire-and-forget: an error is logged, never propagated.
type Notifier interface {
	NotifyLowAttendance(ctx context.Context, alert AttendanceAlert) error
}

type NotifierFunc func(ctx context.Context, alert AttendanceAlert) error

func (f NotifierFunc) NotifyLowAttendance(ctx context.Context, alert AttendanceAlert) error {
	return f(ctx, alert)
}

type multiNotifier []Notifier

// MultiNotifier sends every alert through all notifiers; it fails if any of them fails.
func MultiNotifier(notifiers ...Notifier) Notifier {
	return multiNotifier(notifiers)
}

func (mn multiNotifier) NotifyLowAttendance(ctx context.Context, alert AttendanceAlert) error {
	var msgs []string
	for _, n := range mn {
		if err := n.NotifyLowAttendance(ctx, alert); err != nil {
			msgs = append(msgs, err.Error())
		}
	}
	if len(msgs) > 0 {
		return fmt.Errorf("notifying: %s", strings.Join(msgs, "; "))
	}
	return nil
}
