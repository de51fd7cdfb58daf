// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ManuGH/openimmersive/internal/geom"
	"github.com/ManuGH/openimmersive/internal/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := NewLoader("").Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)

	assert.Equal(t, 1.2, cfg.Scene.AnchorHeight)
	assert.Equal(t, [3]float64{0, -0.5, -0.7}, cfg.Scene.PanelOffset)
	assert.Equal(t, 180.0, cfg.Projection.FallbackFieldOfView)
	assert.Equal(t, 11*time.Millisecond, cfg.Loop.TickInterval)
	assert.Equal(t, 64, cfg.Mesh.SlicesPerPi)
	assert.False(t, cfg.Playback.AllowDegradedAccess)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
scene:
  anchorHeight: 1.5
  panelOffset: [0, -0.4, -0.9]
mesh:
  slicesPerPi: 32
projection:
  fallbackFieldOfView: 144
loop:
  tickInterval: 16ms
playback:
  allowDegradedAccess: true
`)
	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 1.5, cfg.Scene.AnchorHeight)
	assert.Equal(t, [3]float64{0, -0.4, -0.9}, cfg.Scene.PanelOffset)
	assert.Equal(t, 32, cfg.Mesh.SlicesPerPi)
	assert.Equal(t, 144.0, cfg.Projection.FallbackFieldOfView)
	assert.Equal(t, 16*time.Millisecond, cfg.Loop.TickInterval)
	assert.True(t, cfg.Playback.AllowDegradedAccess)

	// Untouched keys keep their defaults.
	assert.Equal(t, Defaults().Mesh.SphereRadius, cfg.Mesh.SphereRadius)
	assert.Equal(t, Defaults().Scene.CatcherSize, cfg.Scene.CatcherSize)
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := NewLoader(writeConfig(t, "")).Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "scene:\n  anchorHieght: 1.4\n")
	_, err := NewLoader(path).Load()
	require.ErrorIs(t, err, ErrUnknownConfigField)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "absent.yaml")).Load()
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "mesh:\n  workers: 2\nprojection:\n  fallbackFieldOfView: 144\n")
	t.Setenv(EnvMeshWorkers, "8")
	t.Setenv(EnvFallbackFOV, "360")
	t.Setenv(EnvTickInterval, "5ms")
	t.Setenv(EnvAllowDegraded, "yes")
	t.Setenv(EnvSlicesPerPi, "not-a-number")

	l := NewLoader(path)
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Mesh.Workers)
	assert.Equal(t, 360.0, cfg.Projection.FallbackFieldOfView)
	assert.Equal(t, 5*time.Millisecond, cfg.Loop.TickInterval)
	assert.True(t, cfg.Playback.AllowDegradedAccess)
	assert.Equal(t, Defaults().Mesh.SlicesPerPi, cfg.Mesh.SlicesPerPi)
	assert.Contains(t, l.ConsumedEnvKeys, EnvTelemetryEndpoint)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*Config){
		"log.level":                      func(c *Config) { c.Log.Level = "loud" },
		"scene.anchorHeight":             func(c *Config) { c.Scene.AnchorHeight = 0 },
		"scene.panelSize":                func(c *Config) { c.Scene.PanelSize = [3]float64{0.6, 0, 0.02} },
		"mesh.slicesPerPi":               func(c *Config) { c.Mesh.SlicesPerPi = 2 },
		"mesh.workers":                   func(c *Config) { c.Mesh.Workers = 0 },
		"projection.fallbackFieldOfView": func(c *Config) { c.Projection.FallbackFieldOfView = 400 },
		"loop.tickInterval":              func(c *Config) { c.Loop.TickInterval = 0 },
		"telemetry.exporter": func(c *Config) {
			c.Telemetry.Enabled = true
			c.Telemetry.ExporterType = "zipkin"
		},
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			cfg := Defaults()
			mutate(&cfg)
			err := Validate(cfg)
			require.Error(t, err)

			var verr validate.ValidationError
			require.ErrorAs(t, err, &verr)
			require.Len(t, verr.Errors(), 1)
			assert.Equal(t, field, verr.Errors()[0].Field)
		})
	}
}

func TestEngineConversion(t *testing.T) {
	cfg := Defaults()
	cfg.Projection.FallbackFieldOfView = 65
	cfg.Scene.CatcherOffset = [3]float64{0, 0, -8}

	ec := cfg.Engine()
	assert.Equal(t, 65.0, ec.Playback.FallbackFieldOfView)
	assert.Equal(t, geom.V3(0, 0, -8), ec.Scene.CatcherOffset)
	assert.Equal(t, cfg.Mesh.SlicesPerPi, ec.Mesh.SlicesPerPi)
	assert.Equal(t, cfg.Loop.QueueSize, ec.Loop.QueueSize)

	assert.Equal(t, "info", cfg.Logging().Level)
}
