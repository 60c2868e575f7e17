// Leveled logging for the diffractometer computation core.
//
// The core itself never requires logging; solver and engine code emit
// optional trace output through a *Logger so a beamline operator can
// watch an inverse solve iterate. The default logger discards
// everything, keeping the core free of I/O unless a caller opts in.
package log

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level is the severity of a log message.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Fields is a set of structured key/value pairs attached to a message.
type Fields map[string]interface{}

// Logger writes leveled messages, optionally prefixed with a component
// name, to a single writer.
type Logger struct {
	mu        sync.Mutex
	out       io.Writer
	level     Level
	component string
}

// New creates a logger writing to out at the given minimum level.
func New(out io.Writer, level Level) *Logger {
	return &Logger{out: out, level: level}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return &Logger{out: io.Discard, level: ERROR + 1}
}

// WithComponent returns a logger sharing the same output but tagging
// every message with the component name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{out: l.out, level: l.level, component: name}
}

// Enabled reports whether messages at level would be written; callers
// can use it to skip building expensive trace fields.
func (l *Logger) Enabled(level Level) bool {
	return level >= l.level
}

func (l *Logger) log(level Level, msg string, fields Fields) {
	if !l.Enabled(level) {
		return
	}

	var b strings.Builder
	b.WriteString(time.Now().Format("2006-01-02 15:04:05.000"))
	b.WriteString(" [")
	b.WriteString(level.String())
	b.WriteString("]")
	if l.component != "" {
		b.WriteString(" (")
		b.WriteString(l.component)
		b.WriteString(")")
	}
	b.WriteString(" ")
	b.WriteString(msg)

	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, fields[k])
		}
	}
	b.WriteString("\n")

	l.mu.Lock()
	defer l.mu.Unlock()
	io.WriteString(l.out, b.String())
}

func (l *Logger) Debug(msg string, fields Fields) { l.log(DEBUG, msg, fields) }
func (l *Logger) Info(msg string, fields Fields)  { l.log(INFO, msg, fields) }
func (l *Logger) Warn(msg string, fields Fields)  { l.log(WARN, msg, fields) }
func (l *Logger) Error(msg string, fields Fields) { l.log(ERROR, msg, fields) }

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log(DEBUG, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(INFO, fmt.Sprintf(format, args...), nil)
}
