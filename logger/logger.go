// Package logger provides a thread-safe, levelled logger backed by log/slog
// with the tint console handler.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"
)

// Level represents a logging verbosity level.
type Level int

const (
	// LevelDebug emits all messages.
	LevelDebug Level = iota
	// LevelInfo emits INFO and ERROR messages.
	LevelInfo
	// LevelError emits only ERROR messages.
	LevelError
)

func (l Level) slog() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// ParseLevel maps "debug", "info" and "error" to a Level. The empty string
// means LevelInfo.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("logger: unknown level %q", s)
}

// Logger is a levelled logger.
//
// Thread-safety: slog handlers serialise writes themselves, and the level
// lives in a slog.LevelVar, so SetLevel may be called concurrently with the
// logging methods.
type Logger struct {
	sl    *slog.Logger
	level *slog.LevelVar
}

// New creates a Logger that writes to stderr at the given minimum level.
// Colour is used only when stderr is a terminal.
func New(level Level) *Logger {
	return newLogger(os.Stderr, level, !term.IsTerminal(int(os.Stderr.Fd())))
}

// NewWithWriter creates a Logger writing uncoloured output to w.
func NewWithWriter(w io.Writer, level Level) *Logger {
	return newLogger(w, level, true)
}

func newLogger(w io.Writer, level Level, noColor bool) *Logger {
	lv := new(slog.LevelVar)
	lv.Set(level.slog())
	h := tint.NewHandler(w, &tint.Options{
		Level:      lv,
		NoColor:    noColor,
		TimeFormat: time.StampMicro,
	})
	return &Logger{sl: slog.New(h), level: lv}
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	l := NewWithWriter(io.Discard, LevelError)
	l.level.Set(slog.LevelError + 1)
	return l
}

// SetLevel changes the minimum log level at runtime.  Safe for concurrent use.
func (l *Logger) SetLevel(level Level) {
	l.level.Set(level.slog())
}

// Slog exposes the underlying structured logger.
func (l *Logger) Slog() *slog.Logger { return l.sl }

// With returns a Logger that adds attrs to every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{sl: l.sl.With(args...), level: l.level}
}

// Info logs a message at INFO level.
func (l *Logger) Info(msg string, args ...any) {
	l.sl.Log(context.Background(), slog.LevelInfo, msg, args...)
}

// Infof logs a formatted message at INFO level.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// Error logs a message at ERROR level.
func (l *Logger) Error(msg string, args ...any) {
	l.sl.Log(context.Background(), slog.LevelError, msg, args...)
}

// Errorf logs a formatted message at ERROR level.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// Debug logs a message at DEBUG level.
func (l *Logger) Debug(msg string, args ...any) {
	l.sl.Log(context.Background(), slog.LevelDebug, msg, args...)
}

// Debugf logs a formatted message at DEBUG level.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.Debug(fmt.Sprintf(format, args...))
}
