// Package ctxlog carries the slog.Logger of a request or run through
// context.Context so that every layer logs with the same attributes.
package ctxlog

import (
	"context"
	"log/slog"
)

type key struct{}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, key{}, logger)
}

// FromContext returns the logger carried by ctx, or slog.Default() when
// there is none.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(key{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// With returns a context whose logger carries the given attributes.
func With(ctx context.Context, args ...any) context.Context {
	return WithLogger(ctx, FromContext(ctx).With(args...))
}

// WithRun scopes the logger to one workflow run.
func WithRun(ctx context.Context, runID, workflow string) context.Context {
	return With(ctx, "run_id", runID, "workflow", workflow)
}

// WithNode scopes the logger to one node of a run.
func WithNode(ctx context.Context, nodeID, kind string) context.Context {
	return With(ctx, "node_id", nodeID, "node_type", kind)
}
