package logging

import (
	"context"

	"github.com/launchpad-sh/launchpad/internal/ports"
)

// NopLogger discards every log entry. Used by library callers and tests
// that don't want log noise.
type NopLogger struct {
	level ports.Level
}

// NewNopLogger builds a NopLogger.
func NewNopLogger() *NopLogger {
	return &NopLogger{}
}

func (n *NopLogger) Debug(context.Context, string, ...ports.Field) {}
func (n *NopLogger) Info(context.Context, string, ...ports.Field)  {}
func (n *NopLogger) Warn(context.Context, string, ...ports.Field)  {}
func (n *NopLogger) Error(context.Context, string, ...ports.Field) {}

func (n *NopLogger) With(...ports.Field) ports.Logger { return n }
func (n *NopLogger) Level() ports.Level               { return n.level }
func (n *NopLogger) SetLevel(level ports.Level)       { n.level = level }

var _ ports.Logger = (*NopLogger)(nil)
