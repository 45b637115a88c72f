package framework

import (
	"fmt"
	"io"
	"sync"
	"time"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldlog"
)

const timestampFormat = "2006-01-02 15:04:05.000"

// Logger is the minimal logging interface used throughout the scaffolding. Per-test debug output
// goes to a CapturingLogger; process-level output goes to ldlog via LoggersAdapter.
type Logger interface {
	Printf(message string, args ...interface{})
}

type nullLogger struct{}

func (n nullLogger) Printf(message string, args ...interface{}) {}

func NullLogger() Logger { return nullLogger{} }

// LoggersAdapter sends Printf output to an ldlog.Loggers instance at a fixed level.
type LoggersAdapter struct {
	Loggers ldlog.Loggers
	Level   ldlog.LogLevel
}

// NewLoggersAdapter returns a Logger that writes to loggers at the given level.
func NewLoggersAdapter(loggers ldlog.Loggers, level ldlog.LogLevel) Logger {
	return LoggersAdapter{Loggers: loggers, Level: level}
}

func (a LoggersAdapter) Printf(message string, args ...interface{}) {
	switch a.Level {
	case ldlog.Debug:
		a.Loggers.Debugf(message, args...)
	case ldlog.Warn:
		a.Loggers.Warnf(message, args...)
	case ldlog.Error:
		a.Loggers.Errorf(message, args...)
	default:
		a.Loggers.Infof(message, args...)
	}
}

type CapturedMessage struct {
	Time    time.Time
	Message string
}

type CapturedOutput []CapturedMessage

// CapturingLogger accumulates messages in memory so they can be shown only if a test fails.
type CapturingLogger struct {
	output []CapturedMessage
	lock   sync.Mutex
}

func (l *CapturingLogger) Printf(message string, args ...interface{}) {
	l.lock.Lock()
	l.output = append(l.output, CapturedMessage{Time: time.Now(), Message: fmt.Sprintf(message, args...)})
	l.lock.Unlock()
}

func (l *CapturingLogger) Output() CapturedOutput {
	l.lock.Lock()
	ret := append([]CapturedMessage(nil), l.output...)
	l.lock.Unlock()
	return ret
}

func (output CapturedOutput) Dump(dest io.Writer, prefix string) {
	for _, m := range output {
		fmt.Fprintf(dest, "%s[%s] %s\n",
			prefix,
			m.Time.Format(timestampFormat),
			m.Message,
		)
	}
}
