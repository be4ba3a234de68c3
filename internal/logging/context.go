package logging

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	pipelineIDKey ctxKey = iota
	snapshotIDKey
	nodeIDKey
)

// WithPipelineID returns a context with the pipeline ID set.
func WithPipelineID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, pipelineIDKey, id)
}

// WithSnapshotID returns a context with the snapshot ID set.
func WithSnapshotID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, snapshotIDKey, id)
}

// WithNodeID returns a context with the node ID set.
func WithNodeID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, nodeIDKey, id)
}

// PipelineID extracts the pipeline ID from the context, or "" if absent.
func PipelineID(ctx context.Context) string {
	v, _ := ctx.Value(pipelineIDKey).(string)
	return v
}

// SnapshotID extracts the snapshot ID from the context, or "" if absent.
func SnapshotID(ctx context.Context) string {
	v, _ := ctx.Value(snapshotIDKey).(string)
	return v
}

// NodeID extracts the node ID from the context, or "" if absent.
func NodeID(ctx context.Context) string {
	v, _ := ctx.Value(nodeIDKey).(string)
	return v
}

// LogWith returns a logger enriched with correlation IDs from the context.
// Only non-empty values are added as attributes.
func LogWith(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if plID := PipelineID(ctx); plID != "" {
		logger = logger.With(slog.String("pipeline_id", plID))
	}
	if snID := SnapshotID(ctx); snID != "" {
		logger = logger.With(slog.String("snapshot_id", snID))
	}
	if nID := NodeID(ctx); nID != "" {
		logger = logger.With(slog.String("node_id", nID))
	}
	return logger
}

// CorrelationHandler wraps an slog.Handler, automatically injecting
// correlation IDs from the context into every log record.
// Use with slog.New(NewCorrelationHandler(inner)) so callers can use
// logger.InfoContext(ctx, ...) and IDs appear automatically.
type CorrelationHandler struct {
	inner slog.Handler
}

// NewCorrelationHandler wraps the given handler with automatic correlation ID injection.
func NewCorrelationHandler(inner slog.Handler) *CorrelationHandler {
	return &CorrelationHandler{inner: inner}
}

func (h *CorrelationHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *CorrelationHandler) Handle(ctx context.Context, r slog.Record) error {
	if v := PipelineID(ctx); v != "" {
		r.AddAttrs(slog.String("pipeline_id", v))
	}
	if v := SnapshotID(ctx); v != "" {
		r.AddAttrs(slog.String("snapshot_id", v))
	}
	if v := NodeID(ctx); v != "" {
		r.AddAttrs(slog.String("node_id", v))
	}
	return h.inner.Handle(ctx, r)
}

func (h *CorrelationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *CorrelationHandler) WithGroup(name string) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithGroup(name)}
}
