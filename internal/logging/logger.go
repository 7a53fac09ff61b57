package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

// Color printers for each log level.
var (
	debugPrefix = color.New(color.FgBlue).SprintFunc()
	infoPrefix  = color.New(color.FgCyan).SprintFunc()
	warnPrefix  = color.New(color.FgYellow).SprintFunc()
	errorPrefix = color.New(color.FgRed).SprintFunc()
)

// Logger writes leveled lines to an io.Writer. It is safe for concurrent use.
type Logger struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool
}

// New creates a Logger that writes to out. A nil out discards everything.
func New(out io.Writer) *Logger {
	if out == nil {
		out = io.Discard
	}
	return &Logger{out: out}
}

// Discard returns a Logger that writes nothing.
func Discard() *Logger {
	return New(io.Discard)
}

var std = New(os.Stderr)

// Default returns the process-wide logger, which writes to stderr.
func Default() *Logger {
	return std
}

// SetVerbose enables or disables Debugf output.
func (l *Logger) SetVerbose(v bool) {
	l.mu.Lock()
	l.verbose = v
	l.mu.Unlock()
}

// Debugf logs a debug line, only when verbose mode is enabled.
func (l *Logger) Debugf(format string, args ...any) {
	l.mu.Lock()
	v := l.verbose
	l.mu.Unlock()
	if !v {
		return
	}
	l.write(debugPrefix("[DEBUG]"), format, args...)
}

// Infof logs an informational line.
func (l *Logger) Infof(format string, args ...any) {
	l.write(infoPrefix("[INFO]"), format, args...)
}

// Warnf logs a warning line.
func (l *Logger) Warnf(format string, args ...any) {
	l.write(warnPrefix("[WARN]"), format, args...)
}

// Errorf logs an error line.
func (l *Logger) Errorf(format string, args ...any) {
	l.write(errorPrefix("[ERROR]"), format, args...)
}

func (l *Logger) write(prefix, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.out, prefix+" "+msg)
}
