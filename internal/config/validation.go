// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"github.com/ManuGH/openimmersive/internal/validate"
)

// Validate reports every invalid field of cfg in one error.
func Validate(cfg Config) error {
	v := validate.New()

	v.LogLevel("log.level", cfg.Log.Level)

	v.PositiveFloat("scene.anchorHeight", cfg.Scene.AnchorHeight)
	v.Finite("scene.panelOffset", cfg.Scene.PanelOffset)
	v.Extent("scene.panelSize", cfg.Scene.PanelSize)
	v.Extent("scene.catcherSize", cfg.Scene.CatcherSize)
	v.Finite("scene.catcherOffset", cfg.Scene.CatcherOffset)

	v.PositiveFloat("mesh.sphereRadius", cfg.Mesh.SphereRadius)
	v.Range("mesh.slicesPerPi", cfg.Mesh.SlicesPerPi, 4, 1024)
	v.PositiveFloat("mesh.planeHeight", cfg.Mesh.PlaneHeight)
	v.PositiveFloat("mesh.planeDistance", cfg.Mesh.PlaneDistance)
	v.Range("mesh.workers", cfg.Mesh.Workers, 1, 64)

	v.FloatRange("projection.fallbackFieldOfView", cfg.Projection.FallbackFieldOfView, 0, 360)

	v.PositiveDuration("loop.tickInterval", cfg.Loop.TickInterval)
	v.Positive("loop.queueSize", cfg.Loop.QueueSize)
	v.PositiveDuration("playback.publishTimeout", cfg.Playback.PublishTimeout)

	if cfg.Telemetry.Enabled {
		v.OneOf("telemetry.exporter", cfg.Telemetry.ExporterType, []string{"grpc", "http"})
		v.Fraction("telemetry.samplingRate", cfg.Telemetry.SamplingRate)
	}

	return v.Err()
}
