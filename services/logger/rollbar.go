// Package logsvc writes leveled log lines to a standard logger and mirrors them to Rollbar.
package logsvc

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/vishvavidya/traininghub/core"
)

type level int

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelError
	levelFatal
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

// RollbarLogger accepts args of type error, map[string]interface{} and core.Actor.
// Anything else is printed with %v.
type RollbarLogger struct {
	std *log.Logger
	// entries below this level stay local
	minReported level
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(strings.ToLower(conf.Env))
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)

	min := levelInfo
	if conf.Debug {
		min = levelDebug
	}
	return &RollbarLogger{std: std, minReported: min}
}

func (l *RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) { l.log(levelDebug, msg, args) }
func (l *RollbarLogger) Info(msg string, args ...interface{})  { l.log(levelInfo, msg, args) }
func (l *RollbarLogger) Warn(msg string, args ...interface{})  { l.log(levelWarn, msg, args) }
func (l *RollbarLogger) Error(msg string, args ...interface{}) { l.log(levelError, msg, args) }

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(levelFatal, msg, args)
	rollbar.Wait()
	l.std.Fatal(msg)
}

func (l *RollbarLogger) log(lvl level, msg string, args []interface{}) {
	if lvl >= l.minReported {
		report(lvl, reportArgs(msg, args))
	}
	l.std.Println(formatLine(lvl, msg, args))
	for _, arg := range args {
		if err, ok := arg.(error); ok {
			l.std.Printf("%+v\n", err)
		}
	}
}

func report(lvl level, args []interface{}) {
	switch lvl {
	case levelDebug:
		rollbar.Debug(args...)
	case levelInfo:
		rollbar.Info(args...)
	case levelWarn:
		rollbar.Warning(args...)
	case levelError:
		rollbar.Error(args...)
	default:
		rollbar.Critical(args...)
	}
}

// reportArgs strips actors from args and sets the first non zero one as the Rollbar person,
// so that student or staff ids show up on the item.
func reportArgs(msg string, args []interface{}) []interface{} {
	var actorSet bool
	out := make([]interface{}, 0, len(args)+1)
	out = append(out, msg)
	for _, arg := range args {
		actor, ok := arg.(core.Actor)
		if !ok {
			out = append(out, arg)
			continue
		}
		if !actorSet && !actor.IsZero() {
			rollbar.SetPerson(actor.UserID, fmt.Sprintf("%s (%s)", actor.UserID, actor.Role), "")
			actorSet = true
		}
	}
	if !actorSet {
		rollbar.ClearPerson()
	}
	return out
}

// formatLine renders "LEVEL msg key=value ..." with map keys sorted.
func formatLine(lvl level, msg string, args []interface{}) string {
	var b strings.Builder
	b.WriteString(levelNames[lvl])
	b.WriteByte(' ')
	b.WriteString(msg)

	for _, arg := range args {
		switch a := arg.(type) {
		case error:
			fmt.Fprintf(&b, " err=%q", a.Error())
		case core.Actor:
			if !a.IsZero() {
				fmt.Fprintf(&b, " actor=%s role=%s", a.UserID, a.Role)
			}
		case map[string]interface{}:
			keys := make([]string, 0, len(a))
			for k := range a {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(&b, " %s=%v", k, a[k])
			}
		default:
			fmt.Fprintf(&b, " %v", a)
		}
	}
	return b.String()
}
