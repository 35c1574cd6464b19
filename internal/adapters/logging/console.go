// Package logging provides ports.Logger adapters: a console writer for
// real use and a no-op for libraries/tests that don't want output.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/launchpad-sh/launchpad/internal/ports"
)

// ConsoleLogger writes structured log lines to an io.Writer (stderr by
// default), colored and padded the way the CLI's user-visible surface
// requires.
type ConsoleLogger struct {
	mu     sync.Mutex
	out    io.Writer
	level  ports.Level
	fields []ports.Field
}

// ConsoleLoggerOption configures a ConsoleLogger.
type ConsoleLoggerOption func(*ConsoleLogger)

// WithOutput sets the output writer (default os.Stderr).
func WithOutput(w io.Writer) ConsoleLoggerOption {
	return func(l *ConsoleLogger) { l.out = w }
}

// WithLevel sets the minimum level logged (default ports.LevelInfo).
func WithLevel(level ports.Level) ConsoleLoggerOption {
	return func(l *ConsoleLogger) { l.level = level }
}

// NewConsoleLogger builds a ConsoleLogger.
func NewConsoleLogger(opts ...ConsoleLoggerOption) *ConsoleLogger {
	l := &ConsoleLogger{out: os.Stderr, level: ports.LevelInfo}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var levelColor = map[ports.Level]string{
	ports.LevelDebug: "\x1b[2m",
	ports.LevelInfo:  "\x1b[36m",
	ports.LevelWarn:  "\x1b[33m",
	ports.LevelError: "\x1b[31m",
}

const colorReset = "\x1b[0m"

func (l *ConsoleLogger) log(ctx context.Context, level ports.Level, msg string, fields []ports.Field) {
	if level < l.Level() {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	isTTY := false
	if f, ok := l.out.(*os.File); ok {
		info, err := f.Stat()
		isTTY = err == nil && (info.Mode()&os.ModeCharDevice) != 0
	}

	line := fmt.Sprintf("%-5s %s", level, msg)
	if isTTY {
		line = levelColor[level] + line + colorReset
	}

	all := append(append([]ports.Field{}, l.fields...), fields...)
	for _, f := range all {
		line += fmt.Sprintf(" %s=%v", f.Key, f.Value)
	}

	fmt.Fprintf(l.out, "%s %s\n", time.Now().Format(time.RFC3339), line)
	_ = ctx
}

func (l *ConsoleLogger) Debug(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelDebug, msg, fields)
}

func (l *ConsoleLogger) Info(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelInfo, msg, fields)
}

func (l *ConsoleLogger) Warn(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelWarn, msg, fields)
}

func (l *ConsoleLogger) Error(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelError, msg, fields)
}

// With returns a new logger carrying fields on every subsequent entry.
func (l *ConsoleLogger) With(fields ...ports.Field) ports.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &ConsoleLogger{
		out:    l.out,
		level:  l.level,
		fields: append(append([]ports.Field{}, l.fields...), fields...),
	}
}

func (l *ConsoleLogger) Level() ports.Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

func (l *ConsoleLogger) SetLevel(level ports.Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

var _ ports.Logger = (*ConsoleLogger)(nil)
