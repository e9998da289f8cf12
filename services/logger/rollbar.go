// Package logsvc implements core.Logger.
package logsvc

import (
	"context"
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/empoderar/core"
	"github.com/trezcool/empoderar/core/user"
)

// RollbarLogger reports to Rollbar and prints through a prefixed stdlib logger.
// Args may be an error, a map[string]interface{} of extras and the user.User the entry is about.
type RollbarLogger struct {
	std   *log.Logger
	debug bool // print DEBUG entries
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "" && !conf.Debug && !conf.TestMode)
	return &RollbarLogger{std: std, debug: conf.Debug}
}

// Close waits for the pending reports to be sent.
func (l RollbarLogger) Close() {
	rollbar.Close()
}

// entry splits the logger args into what Rollbar accepts and the person they concern.
type entry struct {
	items  []interface{}
	person *rollbar.Person
}

func newEntry(msg string, args []interface{}) entry {
	e := entry{items: make([]interface{}, 0, len(args)+2)}
	e.items = append(e.items, msg)
	for _, arg := range args {
		switch a := arg.(type) {
		case user.User:
			if e.person == nil {
				e.person = &rollbar.Person{Id: a.ID, Username: a.Name, Email: a.Email}
			}
		case *user.User:
			if e.person == nil && a != nil {
				e.person = &rollbar.Person{Id: a.ID, Username: a.Name, Email: a.Email}
			}
		case error, map[string]interface{}:
			e.items = append(e.items, a)
		default:
			// rollbar rejects other types; keep them in the printed output only
		}
	}
	if e.person != nil {
		e.items = append(e.items, rollbar.NewPersonContext(context.Background(), e.person))
	}
	return e
}

func (l RollbarLogger) log(level, label, msg string, args []interface{}) {
	rollbar.Log(level, newEntry(msg, args).items...)
	if level == rollbar.DEBUG && !l.debug {
		return
	}

	l.std.Printf("%s: %s", label, msg)
	for _, arg := range args {
		switch arg.(type) {
		case user.User, *user.User:
			continue
		}
		l.std.Printf("%+v\n", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) { l.log(rollbar.DEBUG, "DEBUG", msg, args) }
func (l RollbarLogger) Info(msg string, args ...interface{})  { l.log(rollbar.INFO, "INFO", msg, args) }
func (l RollbarLogger) Warn(msg string, args ...interface{})  { l.log(rollbar.WARN, "WARN", msg, args) }
func (l RollbarLogger) Error(msg string, args ...interface{}) { l.log(rollbar.ERR, "ERROR", msg, args) }

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(rollbar.CRIT, "FATAL", msg, args)
	rollbar.Close()
	l.std.Fatal(msg)
}
