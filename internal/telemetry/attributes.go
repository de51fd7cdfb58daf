// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys shared by the playback spans.
const (
	SessionIDKey      = "session.id"
	StreamSchemeKey   = "stream.scheme"
	StreamScopedKey   = "stream.security_scoped"
	ProjectionKindKey = "projection.kind"
	ProjectionFOVKey  = "projection.fov_deg"
	ProjectionLayout  = "projection.layout"

	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// SessionAttributes describes the session being opened. The URL itself is
// left out; only its scheme is recorded.
func SessionAttributes(sessionID, scheme string, scoped bool) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	if sessionID != "" {
		attrs = append(attrs, attribute.String(SessionIDKey, sessionID))
	}
	if scheme != "" {
		attrs = append(attrs, attribute.String(StreamSchemeKey, scheme))
	}
	return append(attrs, attribute.Bool(StreamScopedKey, scoped))
}

// MeshAttributes describes a geometry build.
func MeshAttributes(kind string, degrees float64, layout string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(ProjectionKindKey, kind),
		attribute.Float64(ProjectionFOVKey, degrees),
		attribute.String(ProjectionLayout, layout),
	}
}

// ErrorAttributes marks a span as failed with a reason class.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
