// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package mesh builds the display geometry for a resolved projection off
// the render-critical path.
package mesh

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ManuGH/openimmersive/internal/geom"
	"github.com/ManuGH/openimmersive/internal/log"
	"github.com/ManuGH/openimmersive/internal/metrics"
	"github.com/ManuGH/openimmersive/internal/projection"
	"github.com/ManuGH/openimmersive/internal/stream"
	"github.com/ManuGH/openimmersive/internal/telemetry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
)

// ErrBuildCancelled is returned by a task whose build was abandoned.
var ErrBuildCancelled = errors.New("mesh build cancelled")

// Config sizes the generated geometry.
type Config struct {
	SphereRadius  float64
	SlicesPerPi   int
	PlaneHeight   float64
	PlaneDistance float64
	Workers       int
}

// DefaultConfig matches the shipped configuration defaults.
func DefaultConfig() Config {
	return Config{
		SphereRadius:  10,
		SlicesPerPi:   64,
		PlaneHeight:   1,
		PlaneDistance: 2,
		Workers:       4,
	}
}

// Builder is what the playback controller needs from the factory.
type Builder interface {
	BuildAsync(ctx context.Context, r projection.Resolved) *Task
}

// Factory builds geometry for resolved projections.
type Factory struct {
	cfg    Config
	logger zerolog.Logger
}

func NewFactory(cfg Config) *Factory {
	def := DefaultConfig()
	if cfg.SphereRadius <= 0 {
		cfg.SphereRadius = def.SphereRadius
	}
	if cfg.SlicesPerPi <= 0 {
		cfg.SlicesPerPi = def.SlicesPerPi
	}
	if cfg.PlaneHeight <= 0 {
		cfg.PlaneHeight = def.PlaneHeight
	}
	if cfg.PlaneDistance <= 0 {
		cfg.PlaneDistance = def.PlaneDistance
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	return &Factory{cfg: cfg, logger: log.WithComponent("mesh")}
}

// BuildAsync starts building geometry for r and returns at once. The task
// is cancelled with ctx or Task.Cancel; a cancelled build never yields a
// result. Malformed extents are a caller bug and panic here, on the
// caller's goroutine.
func (f *Factory) BuildAsync(ctx context.Context, r projection.Resolved) *Task {
	mustBeWellFormed(r)

	ctx, cancel := context.WithCancel(ctx)
	t := &Task{
		id:     uuid.NewString(),
		kind:   r.Kind,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	if r.Kind == stream.KindNativeImmersive {
		t.finish(Result{Kind: r.Kind, Placement: geom.IdentityTransform(), Native: true}, nil)
		cancel()
		metrics.RecordMeshBuild(string(r.Kind), metrics.OutcomeNative, 0)
		telemetry.CountMeshBuild(ctx, string(r.Kind), metrics.OutcomeNative)
		return t
	}

	go f.run(ctx, t, r)
	return t
}

func (f *Factory) run(ctx context.Context, t *Task, r projection.Resolved) {
	defer t.cancel()
	start := time.Now()

	ctx, span := telemetry.Tracer("openimmersive/mesh").Start(ctx, "mesh.build")
	span.SetAttributes(telemetry.MeshAttributes(string(r.Kind), r.Degrees, string(r.Layout))...)
	defer span.End()

	logger := log.WithContext(log.ContextWithTaskID(ctx, t.id), f.logger)

	var (
		res Result
		err error
	)
	switch r.Kind {
	case stream.KindEquirectangular:
		var g *Geometry
		g, err = buildSphere(ctx, r, f.cfg.SphereRadius, f.cfg.SlicesPerPi, f.cfg.Workers)
		res = Result{Kind: r.Kind, Geometry: g, Placement: geom.IdentityTransform()}
	case stream.KindRectangular:
		res = Result{
			Kind:      r.Kind,
			Geometry:  buildPlane(r, f.cfg.PlaneHeight),
			Placement: geom.At(geom.V3(0, 0, -f.cfg.PlaneDistance)),
		}
	}

	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		span.SetStatus(codes.Error, "cancelled")
		metrics.RecordMeshBuild(string(r.Kind), metrics.OutcomeCancelled, time.Since(start))
		telemetry.CountMeshBuild(context.WithoutCancel(ctx), string(r.Kind), metrics.OutcomeCancelled)
		logger.Debug().
			Str(log.FieldEvent, "mesh.build_cancelled").
			Str(log.FieldProjection, string(r.Kind)).
			Msg("mesh build abandoned")
		t.finish(Result{}, fmt.Errorf("%w: %v", ErrBuildCancelled, err))
		return
	}

	metrics.RecordMeshBuild(string(r.Kind), metrics.OutcomeOK, time.Since(start))
	telemetry.CountMeshBuild(ctx, string(r.Kind), metrics.OutcomeOK)
	logger.Debug().
		Str(log.FieldEvent, "mesh.built").
		Str(log.FieldProjection, string(r.Kind)).
		Int(log.FieldVertices, res.Geometry.VertexCount()).
		Dur("elapsed", time.Since(start)).
		Msg("mesh ready")
	t.finish(res, nil)
}

func mustBeWellFormed(r projection.Resolved) {
	finite := func(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
	switch r.Kind {
	case stream.KindEquirectangular:
		h, v := r.HorizontalExtentRadians, r.VerticalExtentRadians
		if !finite(h) || !finite(v) || h <= 0 || v <= 0 || h > 2*math.Pi+1e-9 || v > 2*math.Pi+1e-9 {
			panic(fmt.Sprintf("mesh: malformed equirectangular extents h=%v v=%v", h, v))
		}
	case stream.KindRectangular:
		if !finite(r.AspectRatio) || r.AspectRatio <= 0 {
			panic(fmt.Sprintf("mesh: malformed aspect ratio %v", r.AspectRatio))
		}
	case stream.KindNativeImmersive:
	default:
		panic(fmt.Sprintf("mesh: unknown projection kind %q", r.Kind))
	}
}
