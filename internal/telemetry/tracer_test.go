// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{Enabled: false, ExporterType: "grpc"})
	require.NoError(t, err)
	assert.Nil(t, provider.tp)

	_, span := otel.Tracer("test").Start(context.Background(), "noop-check")
	assert.False(t, span.IsRecording())
	span.End()

	require.NoError(t, provider.Shutdown(context.Background()))
}

func TestNewProvider_InvalidExporter(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Enabled: true, ExporterType: "invalid"})
	require.EqualError(t, err, "unsupported exporter type: invalid (supported: grpc, http)")
}

func TestSampler(t *testing.T) {
	assert.Contains(t, Sampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, Sampler(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, Sampler(0.5).Description(), "TraceIDRatioBased")
}

func TestTracerRecordsAttributes(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, span := Tracer("test").Start(context.Background(), "mesh.build")
	span.SetAttributes(MeshAttributes("equirectangular", 180, "mono")...)
	span.SetAttributes(SessionAttributes("", "https", false)...)
	span.End()

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	attrs := map[string]any{}
	for _, kv := range spans[0].Attributes {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, "equirectangular", attrs[ProjectionKindKey])
	assert.Equal(t, 180.0, attrs[ProjectionFOVKey])
	assert.Equal(t, "https", attrs[StreamSchemeKey])
	assert.NotContains(t, attrs, SessionIDKey)
}
