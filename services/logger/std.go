package logsvc

import (
	"log"

	"github.com/trezcool/rollcall/core"
)

// StdLogger only prints; used by the admin CLI and tests.
type StdLogger struct {
	std *log.Logger
}

var _ core.Logger = (*StdLogger)(nil)

func NewStdLogger(std *log.Logger) *StdLogger {
	return &StdLogger{std: std}
}

func printArgs(std *log.Logger, msg string, args []interface{}) {
	std.Println(msg)
	for _, arg := range args {
		if sess, ok := arg.(core.Session); ok {
			std.Printf("session: %s (%s)\n", sess.UserID, sess.Role)
			continue
		}
		std.Printf("%+v\n", arg)
	}
}

func (l StdLogger) Debug(msg string, args ...interface{}) { printArgs(l.std, "DEBUG: "+msg, args) }
func (l StdLogger) Info(msg string, args ...interface{})  { printArgs(l.std, "INFO: "+msg, args) }
func (l StdLogger) Warn(msg string, args ...interface{})  { printArgs(l.std, "WARN: "+msg, args) }
func (l StdLogger) Error(msg string, args ...interface{}) { printArgs(l.std, "ERROR: "+msg, args) }

func (l StdLogger) Fatal(msg string, args ...interface{}) {
	printArgs(l.std, "FATAL: "+msg, args)
	l.std.Fatal(msg)
}
