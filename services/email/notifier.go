package emailsvc

import (
	"context"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/core"
)

const (
	lowAttendanceTemplate = "low_attendance"
	attendanceCategory    = "attendance"
)

type lowAttendanceData struct {
	StudentName string
	ClassLabel  string
	Percentage  string
	Threshold   string
	Subject     string
	Message     string
}

type notifier struct {
	svc core.EmailService
}

// NewNotifier emails low attendance alerts that carry an email address; the others are skipped.
func NewNotifier(svc core.EmailService) core.Notifier {
	return &notifier{svc: svc}
}

func (n *notifier) NotifyLowAttendance(ctx context.Context, alert core.AttendanceAlert) error {
	if alert.Email == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}
	addr, err := mail.ParseAddress(alert.Email)
	if err != nil {
		return errors.Wrapf(err, "parsing email %q", alert.Email)
	}

	args := map[string]string{
		"class":      alert.ClassLabel,
		"percentage": core.FormatPercent(alert.Percentage),
		"threshold":  core.FormatPercent(alert.Threshold),
	}
	if alert.Subject != "" {
		args["subject"] = alert.Subject
	}

	n.svc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{*addr},
		Subject:      "Low attendance alert: " + alert.StudentName,
		Categories:   []string{attendanceCategory},
		CustomArgs:   args,
		TemplateName: lowAttendanceTemplate,
		TemplateData: lowAttendanceData{
			StudentName: alert.StudentName,
			ClassLabel:  alert.ClassLabel,
			Percentage:  core.FormatPercent(alert.Percentage),
			Threshold:   core.FormatPercent(alert.Threshold),
			Subject:     alert.Subject,
			Message:     alert.Message(),
		},
	})
	return nil
}
