// Package logging provides the stderr logger used across the CLI, with
// redaction helpers so secret values never reach the terminal or shell
// history through log lines.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Logger writes human-readable status lines to stderr, keeping stdout free
// for command output that may be piped.
type Logger struct {
	debug   bool
	noColor bool
	out     io.Writer
}

// New creates a logger. Debug lines are suppressed unless debug is true.
func New(debug, noColor bool) *Logger {
	return &Logger{debug: debug, noColor: noColor, out: os.Stderr}
}

func (l *Logger) emit(color, glyph, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if l.noColor {
		fmt.Fprintf(l.out, "%s %s\n", glyph, msg)
		return
	}
	fmt.Fprintf(l.out, "%s%s\033[0m %s\n", color, glyph, msg)
}

// Info logs a status message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.emit("\033[32m", "✓", format, args...)
}

// Warn logs a warning.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.emit("\033[33m", "⚠", format, args...)
}

// Error logs an error.
func (l *Logger) Error(format string, args ...interface{}) {
	l.emit("\033[31m", "✗", format, args...)
}

// Debug logs a debug message when debug mode is on.
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.debug {
		return
	}
	l.emit("\033[36m", "[DEBUG]", format, args...)
}

// Secret is a value that always formats as [REDACTED].
type Secret string

func (s Secret) String() string {
	return "[REDACTED]"
}

// GoString keeps %#v formatting redacted as well.
func (s Secret) GoString() string {
	return "[REDACTED]"
}

// Redact replaces every occurrence of the given values in s with [REDACTED].
// Values of three characters or fewer are skipped to avoid mangling output.
func Redact(s string, values []string) string {
	result := s
	for _, v := range values {
		if len(v) > 3 {
			result = strings.ReplaceAll(result, v, "[REDACTED]")
		}
	}
	return result
}
