package smssvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/rollcall/core"
)

const (
	flowEndpoint    = "/api/v5/flow/"
	sendsmsEndpoint = "/api/v2/sendsms"
)

var ErrInvalidNumber = errors.New("invalid mobile number")

type (
	msg91Notifier struct {
		client *rest.Client
		conf   core.SMSConfig
		logger core.Logger
	}

	flowRecipient struct {
		Mobiles string `json:"mobiles"`
		Var1    string `json:"VAR1"`
		Var2    string `json:"VAR2"`
		Var3    string `json:"VAR3"`
		Var4    string `json:"VAR4"`
	}

	flowRequest struct {
		FlowID     string          `json:"flow_id"`
		Sender     string          `json:"sender"`
		Recipients []flowRecipient `json:"recipients"`
	}

	sms struct {
		Message string   `json:"message"`
		To      []string `json:"to"`
	}

	sendsmsRequest struct {
		Sender  string `json:"sender"`
		Route   string `json:"route"`
		Country string `json:"country"`
		SMS     []sms  `json:"sms"`
	}

	msg91Response struct {
		Type    string      `json:"type"`
		Message string      `json:"message"`
		Code    interface{} `json:"code,omitempty"`
	}
)

var _ core.Notifier = (*msg91Notifier)(nil)

// NewNotifier returns the MSG91 notifier when an auth key is configured, the console one otherwise.
func NewNotifier(conf *core.Config, logger core.Logger) core.Notifier {
	if conf.SMS.AuthKey == "" {
		return NewConsoleNotifier(logger)
	}
	return NewMSG91Notifier(conf, logger, nil)
}

// NewMSG91Notifier sends SMS through MSG91: the flow API when a flow id is configured (DLT templates),
// the sendsms API otherwise. httpClient defaults to http.DefaultClient.
func NewMSG91Notifier(conf *core.Config, logger core.Logger, httpClient *http.Client) core.Notifier {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &msg91Notifier{
		client: &rest.Client{HTTPClient: httpClient},
		conf:   conf.SMS,
		logger: logger,
	}
}

// normalizeNumber keeps the digits of `contact` and prefixes 10 digit numbers with the country code.
func normalizeNumber(contact, country string) (string, error) {
	mobile := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, contact)
	if len(mobile) == 10 {
		mobile = country + mobile
	}
	if len(mobile) < 12 {
		return "", errors.Wrapf(ErrInvalidNumber, "%q", contact)
	}
	return mobile, nil
}

func (n *msg91Notifier) NotifyLowAttendance(ctx context.Context, alert core.AttendanceAlert) error {
	mobile, err := normalizeNumber(alert.Contact, n.conf.Country)
	if err != nil {
		return err
	}

	var (
		endpoint string
		payload  interface{}
	)
	if n.conf.FlowID != "" {
		endpoint = flowEndpoint
		payload = flowRequest{
			FlowID: n.conf.FlowID,
			Sender: n.conf.SenderID,
			Recipients: []flowRecipient{{
				Mobiles: mobile,
				Var1:    alert.StudentName,
				Var2:    alert.ClassLabel,
				Var3:    core.FormatPercent(alert.Percentage),
				Var4:    core.FormatPercent(alert.Threshold),
			}},
		}
	} else {
		endpoint = sendsmsEndpoint
		payload = sendsmsRequest{
			Sender:  n.conf.SenderID,
			Route:   n.conf.Route,
			Country: n.conf.Country,
			SMS:     []sms{{Message: alert.Message(), To: []string{mobile}}},
		}
	}

	res, err := n.send(ctx, endpoint, payload)
	if err != nil {
		return err
	}
	if res.Type != "success" {
		return errors.Errorf("msg91: %s (code: %v)", res.Message, res.Code)
	}
	n.logger.Info(fmt.Sprintf("SMS sent to %s via MSG91. ID: %s", mobile, res.Message))
	return nil
}

func (n *msg91Notifier) send(ctx context.Context, endpoint string, payload interface{}) (msg91Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return msg91Response{}, errors.Wrap(err, "encoding msg91 request")
	}

	req, err := rest.BuildRequestObject(rest.Request{
		Method:  rest.Post,
		BaseURL: strings.TrimRight(n.conf.BaseURL, "/") + endpoint,
		Headers: map[string]string{
			"authkey":      n.conf.AuthKey,
			"Content-Type": "application/json",
		},
		Body: body,
	})
	if err != nil {
		return msg91Response{}, errors.Wrap(err, "building msg91 request")
	}
	httpRes, err := n.client.MakeRequest(req.WithContext(ctx))
	if err != nil {
		return msg91Response{}, errors.Wrap(err, "calling msg91")
	}
	res, err := rest.BuildResponse(httpRes)
	if err != nil {
		return msg91Response{}, errors.Wrap(err, "reading msg91 response")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return msg91Response{}, errors.Errorf("msg91: status %d: %s", res.StatusCode, res.Body)
	}
	if res.Body == "" {
		return msg91Response{Type: "error", Message: "Empty response"}, nil
	}

	var out msg91Response
	if err = json.Unmarshal([]byte(res.Body), &out); err != nil {
		return msg91Response{}, errors.Wrap(err, "decoding msg91 response")
	}
	return out, nil
}
