package smssvc

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/rollcall/core"
	logsvc "github.com/trezcool/rollcall/services/logger"
)

var testAlert = core.AttendanceAlert{
	Contact:     "+91 98765-43210",
	StudentName: "Asha Rao",
	ClassLabel:  "10A",
	Percentage:  66.67,
	Threshold:   75,
}

type capturedRequest struct {
	path    string
	authKey string
	body    map[string]interface{}
}

func newMSG91Server(t *testing.T, status int, response string) (*httptest.Server, *capturedRequest) {
	captured := new(capturedRequest)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.authKey = r.Header.Get("authkey")
		raw, err := ioutil.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &captured.body))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func newTestNotifier(baseURL, flowID string) core.Notifier {
	conf := core.NewTestConfig()
	conf.SMS.AuthKey = "secret"
	conf.SMS.BaseURL = baseURL
	conf.SMS.FlowID = flowID
	return NewMSG91Notifier(conf, logsvc.NewStdLogger(log.New(ioutil.Discard, "", 0)), nil)
}

func TestNormalizeNumber(t *testing.T) {
	tests := []struct {
		contact string
		want    string
		wantErr bool
	}{
		{"9876543210", "919876543210", false},
		{"+91 98765 43210", "919876543210", false},
		{"919876543210", "919876543210", false},
		{"12345", "", true},
		{"", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.contact, func(t *testing.T) {
			got, err := normalizeNumber(tc.contact, "91")
			if tc.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidNumber))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMSG91Notifier_SendSMS(t *testing.T) {
	srv, captured := newMSG91Server(t, http.StatusOK, `{"type":"success","message":"3763646c3058"}`)
	n := newTestNotifier(srv.URL, "")

	require.NoError(t, n.NotifyLowAttendance(context.Background(), testAlert))
	assert.Equal(t, sendsmsEndpoint, captured.path)
	assert.Equal(t, "secret", captured.authKey)
	assert.Equal(t, "ATTND", captured.body["sender"])
	assert.Equal(t, "91", captured.body["country"])

	msgs := captured.body["sms"].([]interface{})
	require.Len(t, msgs, 1)
	msg := msgs[0].(map[string]interface{})
	assert.Equal(t, testAlert.Message(), msg["message"])
	assert.Equal(t, []interface{}{"919876543210"}, msg["to"])
}

func TestMSG91Notifier_Flow(t *testing.T) {
	srv, captured := newMSG91Server(t, http.StatusOK, `{"type":"success","message":"ok"}`)
	n := newTestNotifier(srv.URL, "flow-123")

	require.NoError(t, n.NotifyLowAttendance(context.Background(), testAlert))
	assert.Equal(t, flowEndpoint, captured.path)
	assert.Equal(t, "flow-123", captured.body["flow_id"])

	recipients := captured.body["recipients"].([]interface{})
	require.Len(t, recipients, 1)
	rcpt := recipients[0].(map[string]interface{})
	assert.Equal(t, "919876543210", rcpt["mobiles"])
	assert.Equal(t, "Asha Rao", rcpt["VAR1"])
	assert.Equal(t, "10A", rcpt["VAR2"])
	assert.Equal(t, "66.67", rcpt["VAR3"])
	assert.Equal(t, "75", rcpt["VAR4"])
}

func TestMSG91Notifier_Failures(t *testing.T) {
	t.Run("error response", func(t *testing.T) {
		srv, _ := newMSG91Server(t, http.StatusOK, `{"type":"error","message":"Invalid authkey","code":"201"}`)
		err := newTestNotifier(srv.URL, "").NotifyLowAttendance(context.Background(), testAlert)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Invalid authkey")
	})

	t.Run("http error", func(t *testing.T) {
		srv, _ := newMSG91Server(t, http.StatusInternalServerError, `{}`)
		err := newTestNotifier(srv.URL, "").NotifyLowAttendance(context.Background(), testAlert)
		assert.Error(t, err)
	})

	t.Run("empty response", func(t *testing.T) {
		srv, _ := newMSG91Server(t, http.StatusOK, ``)
		err := newTestNotifier(srv.URL, "").NotifyLowAttendance(context.Background(), testAlert)
		assert.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		srv, captured := newMSG91Server(t, http.StatusOK, `{"type":"success","message":"3763646c3058373530393831"}`)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := newTestNotifier(srv.URL, "").NotifyLowAttendance(ctx, testAlert)
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
		assert.Empty(t, captured.path)
	})

	t.Run("invalid number", func(t *testing.T) {
		alert := testAlert
		alert.Contact = "555-1234"
		err := newTestNotifier("http://127.0.0.1:1", "").NotifyLowAttendance(context.Background(), alert)
		assert.True(t, errors.Is(err, ErrInvalidNumber))
	})
}

func TestNewNotifier_FallsBackToConsole(t *testing.T) {
	conf := core.NewTestConfig()
	n := NewNotifier(conf, logsvc.NewStdLogger(log.New(ioutil.Discard, "", 0)))
	_, ok := n.(*consoleNotifier)
	assert.True(t, ok)
}

func TestConsoleNotifier(t *testing.T) {
	ResetSentAlerts()
	n := NewConsoleNotifierMock()
	require.NoError(t, n.NotifyLowAttendance(context.Background(), testAlert))

	sent := Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, testAlert, sent[0])
}
