/**
 * Component logger for the scan worker
 *
 * Small key=value logger shared by the processor, remote client, and
 * storage manager. Each component gets its own prefix so interleaved
 * job logs stay attributable. LOG_LEVEL=debug enables Debug output;
 * anything else suppresses it.
 */

package logging

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Logger writes levelled, component-prefixed log lines.
type Logger struct {
	prefix string
	debug  bool
	logger *log.Logger
}

// NewLogger creates a logger tagged with a component prefix.
func NewLogger(prefix string) *Logger {
	return &Logger{
		prefix: prefix,
		debug:  strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug"),
		logger: log.New(os.Stdout, fmt.Sprintf("[%s] ", prefix), log.LstdFlags),
	}
}

// Info logs an informational message with key-value pairs.
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.emit("INFO", msg, keysAndValues...)
}

// Warn logs a warning with key-value pairs.
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.emit("WARN", msg, keysAndValues...)
}

// Error logs an error with key-value pairs.
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.emit("ERROR", msg, keysAndValues...)
}

// Debug logs a debug message; dropped unless LOG_LEVEL=debug.
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	if !l.debug {
		return
	}
	l.emit("DEBUG", msg, keysAndValues...)
}

func (l *Logger) emit(level, msg string, keysAndValues ...interface{}) {
	var b strings.Builder
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fmt.Fprintf(&b, " %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	if len(keysAndValues)%2 != 0 {
		fmt.Fprintf(&b, " %v=?", keysAndValues[len(keysAndValues)-1])
	}
	l.logger.Printf("[%s] %s%s", level, msg, b.String())
}
