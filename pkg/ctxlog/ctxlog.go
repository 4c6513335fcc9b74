// Package ctxlog carries a zap Logger through a Context so that
// every log line emitted during a rolling restart is tagged with the
// run and the node being worked on.
package ctxlog

import (
	"context"

	"go.uber.org/zap" // Logging.
)

type loggerKeyType struct{}

var (
	loggerKey = loggerKeyType{}

	nop = zap.NewNop()

	// L is an alias for GetLogger.
	L = GetLogger
)

// Field names shared by all log lines.
const (
	RunIDField = "run_id"
	HostField  = "host"
	StepField  = "step"
)

// WithLogger embeds logger in ctx.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// WithFields adds fields to the Logger embedded in ctx.
func WithFields(ctx context.Context, fields ...zap.Field) context.Context {
	return WithLogger(ctx, GetLogger(ctx).With(fields...))
}

// WithName adds name to the Logger embedded in ctx.
func WithName(ctx context.Context, name string) context.Context {
	return WithLogger(ctx, GetLogger(ctx).Named(name))
}

// WithRunID tags all later log lines with the rolling run's identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	return WithFields(ctx, zap.String(RunIDField, id))
}

// WithHost tags all later log lines with the node being processed.
func WithHost(ctx context.Context, host string) context.Context {
	return WithFields(ctx, zap.String(HostField, host))
}

// GetLogger returns the Logger embedded in ctx,
// or a nop Logger if there is none.
func GetLogger(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return l
	}
	return nop
}
