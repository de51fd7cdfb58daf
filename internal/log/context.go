// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

type ctxKey int

const (
	sessionIDKey ctxKey = iota
	taskIDKey
)

// correlation maps context keys to the log fields they populate.
var correlation = []struct {
	key   ctxKey
	field string
}{
	{sessionIDKey, FieldSessionID},
	{taskIDKey, FieldTaskID},
}

func withValue(ctx context.Context, key ctxKey, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key, id)
}

func value(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}

// ContextWithSessionID tags ctx with a playback session.
func ContextWithSessionID(ctx context.Context, id string) context.Context {
	return withValue(ctx, sessionIDKey, id)
}

// ContextWithTaskID tags ctx with a background task such as a mesh build.
func ContextWithTaskID(ctx context.Context, id string) context.Context {
	return withValue(ctx, taskIDKey, id)
}

func SessionIDFromContext(ctx context.Context) string { return value(ctx, sessionIDKey) }

func TaskIDFromContext(ctx context.Context) string { return value(ctx, taskIDKey) }

// WithContext adds the session, task and trace IDs found in ctx to logger.
// The logger is returned unchanged when ctx carries none.
func WithContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	if ctx == nil {
		return logger
	}
	lctx := logger.With()
	n := 0
	for _, c := range correlation {
		if id := value(ctx, c.key); id != "" {
			lctx = lctx.Str(c.field, id)
			n++
		}
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		lctx = lctx.Str("trace_id", sc.TraceID().String()).Str("span_id", sc.SpanID().String())
		n++
	}
	if n == 0 {
		return logger
	}
	return lctx.Logger()
}

// WithTraceContext is WithContext applied to the base logger.
func WithTraceContext(ctx context.Context) zerolog.Logger {
	return WithContext(ctx, Base())
}
