// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads the player configuration from defaults, an optional
// YAML file and IMMERSIVE_* environment variables, and reloads it on change.
package config

import (
	"time"

	"github.com/ManuGH/openimmersive/internal/engine"
	"github.com/ManuGH/openimmersive/internal/geom"
	"github.com/ManuGH/openimmersive/internal/log"
	"github.com/ManuGH/openimmersive/internal/loop"
	"github.com/ManuGH/openimmersive/internal/mesh"
	"github.com/ManuGH/openimmersive/internal/playback"
	"github.com/ManuGH/openimmersive/internal/scene"
	"github.com/ManuGH/openimmersive/internal/telemetry"
)

// Config is the complete configuration.
type Config struct {
	Log        LogConfig        `yaml:"log"`
	Scene      SceneConfig      `yaml:"scene"`
	Mesh       MeshConfig       `yaml:"mesh"`
	Projection ProjectionConfig `yaml:"projection"`
	Loop       LoopConfig       `yaml:"loop"`
	Playback   PlaybackConfig   `yaml:"playback"`
	Telemetry  telemetry.Config `yaml:"telemetry"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
}

// SceneConfig places the player's nodes, in metres.
type SceneConfig struct {
	AnchorHeight  float64    `yaml:"anchorHeight"`
	PanelOffset   [3]float64 `yaml:"panelOffset"`
	PanelSize     [3]float64 `yaml:"panelSize"`
	CatcherSize   [3]float64 `yaml:"catcherSize"`
	CatcherOffset [3]float64 `yaml:"catcherOffset"`
}

type MeshConfig struct {
	SphereRadius  float64 `yaml:"sphereRadius"`
	SlicesPerPi   int     `yaml:"slicesPerPi"`
	PlaneHeight   float64 `yaml:"planeHeight"`
	PlaneDistance float64 `yaml:"planeDistance"`
	Workers       int     `yaml:"workers"`
}

type ProjectionConfig struct {
	// FallbackFieldOfView applies to sources that carry no fallback of
	// their own.
	FallbackFieldOfView float64 `yaml:"fallbackFieldOfView"`
}

type LoopConfig struct {
	TickInterval time.Duration `yaml:"tickInterval"`
	QueueSize    int           `yaml:"queueSize"`
}

type PlaybackConfig struct {
	AllowDegradedAccess bool          `yaml:"allowDegradedAccess"`
	PublishTimeout      time.Duration `yaml:"publishTimeout"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	sc := scene.DefaultConfig()
	mc := mesh.DefaultConfig()
	lc := loop.DefaultConfig()
	pc := playback.DefaultConfig()
	return Config{
		Log: LogConfig{Level: "info", Service: "openimmersive"},
		Scene: SceneConfig{
			AnchorHeight:  sc.AnchorHeight,
			PanelOffset:   triple(sc.PanelOffset),
			PanelSize:     triple(sc.PanelSize),
			CatcherSize:   triple(sc.CatcherSize),
			CatcherOffset: triple(sc.CatcherOffset),
		},
		Mesh: MeshConfig{
			SphereRadius:  mc.SphereRadius,
			SlicesPerPi:   mc.SlicesPerPi,
			PlaneHeight:   mc.PlaneHeight,
			PlaneDistance: mc.PlaneDistance,
			Workers:       mc.Workers,
		},
		Projection: ProjectionConfig{FallbackFieldOfView: pc.FallbackFieldOfView},
		Loop:       LoopConfig{TickInterval: lc.TickInterval, QueueSize: lc.QueueSize},
		Playback: PlaybackConfig{
			AllowDegradedAccess: pc.AllowDegradedAccess,
			PublishTimeout:      pc.PublishTimeout,
		},
		Telemetry: telemetry.Config{
			ServiceName:  "openimmersive",
			ExporterType: "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
		},
	}
}

// Engine converts the configuration for engine.New.
func (c Config) Engine() engine.Config {
	return engine.Config{
		Loop: loop.Config{TickInterval: c.Loop.TickInterval, QueueSize: c.Loop.QueueSize},
		Mesh: mesh.Config{
			SphereRadius:  c.Mesh.SphereRadius,
			SlicesPerPi:   c.Mesh.SlicesPerPi,
			PlaneHeight:   c.Mesh.PlaneHeight,
			PlaneDistance: c.Mesh.PlaneDistance,
			Workers:       c.Mesh.Workers,
		},
		Scene: scene.Config{
			AnchorHeight:  c.Scene.AnchorHeight,
			PanelOffset:   geom.V3From(c.Scene.PanelOffset),
			PanelSize:     geom.V3From(c.Scene.PanelSize),
			CatcherSize:   geom.V3From(c.Scene.CatcherSize),
			CatcherOffset: geom.V3From(c.Scene.CatcherOffset),
		},
		Playback: playback.Config{
			AllowDegradedAccess: c.Playback.AllowDegradedAccess,
			FallbackFieldOfView: c.Projection.FallbackFieldOfView,
			PublishTimeout:      c.Playback.PublishTimeout,
		},
	}
}

// Logging converts the configuration for log.Configure.
func (c Config) Logging() log.Config {
	return log.Config{Level: c.Log.Level, Service: c.Log.Service}
}

func triple(v geom.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}
