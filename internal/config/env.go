// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/openimmersive/internal/log"
	"github.com/rs/zerolog"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "IMMERSIVE_"

// Environment keys.
const (
	EnvLogLevel            = EnvPrefix + "LOG_LEVEL"
	EnvLogService          = EnvPrefix + "LOG_SERVICE"
	EnvAnchorHeight        = EnvPrefix + "ANCHOR_HEIGHT"
	EnvSphereRadius        = EnvPrefix + "SPHERE_RADIUS"
	EnvSlicesPerPi         = EnvPrefix + "SLICES_PER_PI"
	EnvPlaneHeight         = EnvPrefix + "PLANE_HEIGHT"
	EnvPlaneDistance       = EnvPrefix + "PLANE_DISTANCE"
	EnvMeshWorkers         = EnvPrefix + "MESH_WORKERS"
	EnvFallbackFOV         = EnvPrefix + "FALLBACK_FOV"
	EnvTickInterval        = EnvPrefix + "TICK_INTERVAL"
	EnvQueueSize           = EnvPrefix + "QUEUE_SIZE"
	EnvAllowDegraded       = EnvPrefix + "ALLOW_DEGRADED_ACCESS"
	EnvPublishTimeout      = EnvPrefix + "PUBLISH_TIMEOUT"
	EnvTelemetryEnabled    = EnvPrefix + "TELEMETRY_ENABLED"
	EnvTelemetryExporter   = EnvPrefix + "TELEMETRY_EXPORTER"
	EnvTelemetryEndpoint   = EnvPrefix + "TELEMETRY_ENDPOINT"
	EnvTelemetrySampleRate = EnvPrefix + "TELEMETRY_SAMPLING_RATE"
	EnvTelemetryEnv        = EnvPrefix + "TELEMETRY_ENVIRONMENT"
)

// parseEnv looks key up and converts it, logging where the value came
// from. Empty or malformed values fall back to def.
func parseEnv[T any](key string, def T, parse func(string) (T, error)) T {
	logger := log.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	if v == "" {
		logger.Debug().
			Str("key", key).
			Str("source", "default").
			Msg("using default value (environment variable is empty)")
		return def
	}
	parsed, err := parse(v)
	if err != nil {
		logger.Warn().
			Err(err).
			Str("key", key).
			Str("value", v).
			Interface("default", def).
			Msg("invalid value in environment variable, using default")
		return def
	}
	logEnvSource(logger, key, v)
	return parsed
}

func logEnvSource(logger zerolog.Logger, key, value string) {
	ev := logger.Debug().Str("key", key).Str("source", "environment")
	if strings.Contains(strings.ToLower(key), "token") {
		ev = ev.Bool("sensitive", true)
	} else {
		ev = ev.Str("value", value)
	}
	ev.Msg("using environment variable")
}

// ParseString reads a string from environment variable or returns default value.
func ParseString(key, defaultValue string) string {
	return parseEnv(key, defaultValue, func(s string) (string, error) { return s, nil })
}

// ParseInt reads an integer from environment variable or returns default value.
// It validates the input and falls back to default on parse errors.
func ParseInt(key string, defaultValue int) int {
	return parseEnv(key, defaultValue, strconv.Atoi)
}

// ParseFloat reads a float from environment variable or returns default value.
func ParseFloat(key string, defaultValue float64) float64 {
	return parseEnv(key, defaultValue, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

// ParseDuration reads a duration in Go duration format (e.g. "11ms").
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	return parseEnv(key, defaultValue, time.ParseDuration)
}

// ParseBool reads a boolean from environment variable or returns default value.
// It accepts "true", "false", "1", "0", "yes", "no" (case-insensitive).
func ParseBool(key string, defaultValue bool) bool {
	return parseEnv(key, defaultValue, func(s string) (bool, error) {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "1", "yes", "on":
			return true, nil
		case "false", "0", "no", "off":
			return false, nil
		}
		return false, fmt.Errorf("not a boolean: %q", s)
	})
}
