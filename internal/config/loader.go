// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrUnknownConfigField marks a config file key that maps to no field.
var ErrUnknownConfigField = errors.New("unknown config field")

// Loader resolves the configuration: defaults, then the file, then
// IMMERSIVE_* environment variables.
type Loader struct {
	configPath      string
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a loader; an empty path means defaults plus environment.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath:      configPath,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// Path is the watched config file, if any.
func (l *Loader) Path() string { return l.configPath }

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

// Load loads configuration with precedence: ENV > File > Defaults.
// Order: defaults -> parse file (strict) -> apply env -> validate.
func (l *Loader) Load() (Config, error) {
	cfg := Defaults()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	l.mergeEnv(&cfg)

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// loadFile decodes the YAML file over cfg, so absent keys keep their
// defaults. Unknown keys are rejected.
func (l *Loader) loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the operator
	if err != nil {
		return err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // Reject unknown fields

	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}
	return nil
}

func (l *Loader) mergeEnv(cfg *Config) {
	cfg.Log.Level = l.envString(EnvLogLevel, cfg.Log.Level)
	cfg.Log.Service = l.envString(EnvLogService, cfg.Log.Service)

	cfg.Scene.AnchorHeight = l.envFloat(EnvAnchorHeight, cfg.Scene.AnchorHeight)

	cfg.Mesh.SphereRadius = l.envFloat(EnvSphereRadius, cfg.Mesh.SphereRadius)
	cfg.Mesh.SlicesPerPi = l.envInt(EnvSlicesPerPi, cfg.Mesh.SlicesPerPi)
	cfg.Mesh.PlaneHeight = l.envFloat(EnvPlaneHeight, cfg.Mesh.PlaneHeight)
	cfg.Mesh.PlaneDistance = l.envFloat(EnvPlaneDistance, cfg.Mesh.PlaneDistance)
	cfg.Mesh.Workers = l.envInt(EnvMeshWorkers, cfg.Mesh.Workers)

	cfg.Projection.FallbackFieldOfView = l.envFloat(EnvFallbackFOV, cfg.Projection.FallbackFieldOfView)

	cfg.Loop.TickInterval = l.envDuration(EnvTickInterval, cfg.Loop.TickInterval)
	cfg.Loop.QueueSize = l.envInt(EnvQueueSize, cfg.Loop.QueueSize)

	cfg.Playback.AllowDegradedAccess = l.envBool(EnvAllowDegraded, cfg.Playback.AllowDegradedAccess)
	cfg.Playback.PublishTimeout = l.envDuration(EnvPublishTimeout, cfg.Playback.PublishTimeout)

	cfg.Telemetry.Enabled = l.envBool(EnvTelemetryEnabled, cfg.Telemetry.Enabled)
	cfg.Telemetry.ExporterType = l.envString(EnvTelemetryExporter, cfg.Telemetry.ExporterType)
	cfg.Telemetry.Endpoint = l.envString(EnvTelemetryEndpoint, cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = l.envFloat(EnvTelemetrySampleRate, cfg.Telemetry.SamplingRate)
	cfg.Telemetry.Environment = l.envString(EnvTelemetryEnv, cfg.Telemetry.Environment)
}
