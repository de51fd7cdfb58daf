// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package pose samples the viewer's head pose once per scene tick.
package pose

import (
	"context"
	"sync"
	"time"

	"github.com/ManuGH/openimmersive/internal/geom"
	"github.com/ManuGH/openimmersive/internal/log"
	"github.com/ManuGH/openimmersive/internal/metrics"
	"github.com/rs/zerolog"
)

// HeadPose is the viewer's head in world space.
type HeadPose struct {
	Position    geom.Vec3
	Orientation geom.Quat
}

// Source queries the device for the head pose at a given time. ok is false
// while the device has no tracking data.
type Source interface {
	HeadPose(ctx context.Context, at time.Time) (p HeadPose, ok bool)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, at time.Time) (HeadPose, bool)

func (f SourceFunc) HeadPose(ctx context.Context, at time.Time) (HeadPose, bool) {
	return f(ctx, at)
}

// Tracker keeps the latest head pose. Tick must be driven by the scene loop;
// the tracker never samples on its own.
type Tracker struct {
	source Source
	logger zerolog.Logger

	mu       sync.Mutex
	running  bool
	listener func(HeadPose)
	current  HeadPose
	valid    bool

	// held for the duration of a listener call; Stop takes it to wait the
	// call out.
	deliver sync.Mutex
}

func NewTracker(source Source) *Tracker {
	return &Tracker{
		source: source,
		logger: log.WithComponent("pose"),
	}
}

// Start begins delivering poses to onUpdate on each Tick. Calling Start
// while running replaces the listener.
func (t *Tracker) Start(onUpdate func(HeadPose)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = true
	t.listener = onUpdate
	t.logger.Debug().Str(log.FieldEvent, "pose.started").Msg("head tracker started")
}

// Stop ends delivery. After it returns no listener call is in progress and
// none will follow. It is safe to call repeatedly but must not be called
// from inside the listener.
func (t *Tracker) Stop() {
	t.mu.Lock()
	wasRunning := t.running
	t.running = false
	t.listener = nil
	t.valid = false
	t.current = HeadPose{}
	t.mu.Unlock()

	// Wait out a listener call that began before running was cleared.
	t.deliver.Lock()
	t.deliver.Unlock() //nolint:staticcheck

	if wasRunning {
		t.logger.Debug().Str(log.FieldEvent, "pose.stopped").Msg("head tracker stopped")
	}
}

// Current returns the latest pose, or ok=false before the first valid sample.
func (t *Tracker) Current() (HeadPose, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current, t.valid
}

// Running reports whether Start was called without a matching Stop.
func (t *Tracker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Tick samples the source once and hands the sample to the listener. A
// missing sample keeps the previous pose.
func (t *Tracker) Tick(ctx context.Context, now time.Time) {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	p, ok := t.source.HeadPose(ctx, now)
	metrics.RecordPoseSample(ok)
	if !ok {
		return
	}

	t.deliver.Lock()
	defer t.deliver.Unlock()

	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	first := !t.valid
	t.current = p
	t.valid = true
	listener := t.listener
	t.mu.Unlock()

	if first {
		t.logger.Debug().Str(log.FieldEvent, "pose.first_sample").Msg("first head pose received")
	}
	if listener != nil {
		listener(p)
	}
}
