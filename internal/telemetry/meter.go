// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "openimmersive"

	// MeshBuildsMetric counts finished mesh builds.
	MeshBuildsMetric = "openimmersive.mesh.builds"
	OutcomeKey       = "outcome"
)

// Meter returns a meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// CountMeshBuild records one finished build. Instruments are resolved on
// each call so a provider installed later still receives them.
func CountMeshBuild(ctx context.Context, kind, outcome string) {
	c, err := Meter(meterName).Int64Counter(MeshBuildsMetric,
		metric.WithDescription("Finished mesh builds by projection kind and outcome"),
		metric.WithUnit("{build}"),
	)
	if err != nil {
		return
	}
	c.Add(ctx, 1, metric.WithAttributes(
		attribute.String(ProjectionKindKey, kind),
		attribute.String(OutcomeKey, outcome),
	))
}
