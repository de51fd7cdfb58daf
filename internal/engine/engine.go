// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package engine is the host-facing facade. It owns the scene loop and
// wires the head tracker, mesh factory, scene composer and playback
// controller onto it.
package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/ManuGH/openimmersive/internal/bus"
	"github.com/ManuGH/openimmersive/internal/geom"
	"github.com/ManuGH/openimmersive/internal/log"
	"github.com/ManuGH/openimmersive/internal/loop"
	"github.com/ManuGH/openimmersive/internal/mesh"
	"github.com/ManuGH/openimmersive/internal/playback"
	"github.com/ManuGH/openimmersive/internal/pose"
	"github.com/ManuGH/openimmersive/internal/scene"
	"github.com/ManuGH/openimmersive/internal/stream"
	"github.com/rs/zerolog"
)

// ErrClosed is returned once the engine no longer accepts work.
var ErrClosed = errors.New("engine closed")

// Config gathers the component configs.
type Config struct {
	Loop     loop.Config
	Mesh     mesh.Config
	Scene    scene.Config
	Playback playback.Config
}

func DefaultConfig() Config {
	return Config{
		Loop:     loop.DefaultConfig(),
		Mesh:     mesh.DefaultConfig(),
		Scene:    scene.DefaultConfig(),
		Playback: playback.DefaultConfig(),
	}
}

// Engine is one immersive player. Host calls are marshalled onto the scene
// loop, so they need Run to be going and must not be made from inside loop
// work. State, CurrentTime and PanelVisible read snapshots and never block.
type Engine struct {
	loop     *loop.Loop
	tracker  *pose.Tracker
	world    *scene.World
	composer *scene.Composer
	ctrl     *playback.Controller
	bus      *bus.MemoryBus
	logger   zerolog.Logger

	untick    func()
	closeOnce sync.Once
}

func New(cfg Config, media playback.MediaEngine, poses pose.Source) *Engine {
	l := loop.New(cfg.Loop)
	tracker := pose.NewTracker(poses)
	world := scene.NewWorld()
	composer := scene.NewComposer(cfg.Scene, world, tracker)
	b := bus.NewMemoryBus()

	ctrl := playback.NewController(cfg.Playback, playback.Deps{
		Loop:   l,
		Engine: media,
		Meshes: mesh.NewFactory(cfg.Mesh),
		Scene:  composer,
		Bus:    b,
	})
	composer.SetToggler(ctrl)

	return &Engine{
		loop:     l,
		tracker:  tracker,
		world:    world,
		composer: composer,
		ctrl:     ctrl,
		bus:      b,
		logger:   log.WithComponent("engine"),
		untick:   l.OnTick(tracker.Tick),
	}
}

// Run drives the scene loop until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	return e.loop.Run(ctx)
}

// Step runs one loop tick for hosts that own their frame loop. It must not
// overlap Run.
func (e *Engine) Step(ctx context.Context) {
	e.loop.Step(ctx)
}

// call runs fn on the loop and waits for it. When ctx ends first, fn is
// either skipped and ctx.Err returned, or already running and its own
// result returned; the caller never sees ctx.Err for work that happened.
func (e *Engine) call(ctx context.Context, fn func() error) error {
	var claimed atomic.Bool
	done := make(chan error, 1)
	if !e.loop.Post(func() {
		if claimed.CompareAndSwap(false, true) {
			done <- fn()
		}
	}) {
		return ErrClosed
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if claimed.CompareAndSwap(false, true) {
			return ctx.Err()
		}
		return <-done
	}
}

// OpenSession starts playing d; see playback.Controller.OpenSession.
func (e *Engine) OpenSession(ctx context.Context, d stream.Descriptor) error {
	return e.call(ctx, func() error { return e.ctrl.OpenSession(ctx, d) })
}

// CloseSession stops the open session, if any.
func (e *Engine) CloseSession(ctx context.Context) error {
	return e.call(ctx, func() error {
		e.ctrl.Stop()
		return nil
	})
}

func (e *Engine) Play(ctx context.Context) error {
	return e.call(ctx, e.ctrl.Play)
}

func (e *Engine) Pause(ctx context.Context) error {
	return e.call(ctx, e.ctrl.Pause)
}

func (e *Engine) TogglePanel(ctx context.Context) error {
	return e.call(ctx, func() error {
		e.ctrl.TogglePanel()
		return nil
	})
}

// Tap routes a tap ray through the scene.
func (e *Engine) Tap(ctx context.Context, r geom.Ray) (scene.Target, error) {
	var target scene.Target
	err := e.call(ctx, func() error {
		target = e.composer.Tap(r)
		return nil
	})
	return target, err
}

// AnchorPosition is where host-rendered attachments belong: the tracked
// head position, or the seated default before the first pose.
func (e *Engine) AnchorPosition(ctx context.Context) (geom.Vec3, error) {
	var p geom.Vec3
	err := e.call(ctx, func() error {
		p = e.composer.AnchorPosition()
		return nil
	})
	return p, err
}

func (e *Engine) State() playback.State          { return e.ctrl.State() }
func (e *Engine) CurrentTime() playback.Timecode { return e.ctrl.CurrentTime() }
func (e *Engine) PanelVisible() bool             { return e.ctrl.PanelVisible() }
func (e *Engine) LastError() error               { return e.ctrl.LastError() }

// Resolved reports the projection of the playing session.
func (e *Engine) Resolved(ctx context.Context) (res ResolvedProjection, err error) {
	err = e.call(ctx, func() error {
		r, ok := e.ctrl.Resolved()
		res = ResolvedProjection{Resolved: r, OK: ok}
		return nil
	})
	return res, err
}

// Subscribe delivers change events for topic (playback.Topic*).
func (e *Engine) Subscribe(ctx context.Context, topic string) (bus.Subscriber, error) {
	return e.bus.Subscribe(ctx, topic)
}

// SceneNodes counts nodes currently in the scene.
func (e *Engine) SceneNodes() int { return e.world.Len() }

// Close stops the session and shuts the loop. Call it after Run returned,
// or from the goroutine that drives Step.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.ctrl.Stop()
		e.loop.Close()
		e.ctrl.Wait()
		// Flush results that raced the stop so their media gets closed.
		e.loop.Step(context.Background())
		e.untick()
		e.ctrl.Close()
		e.tracker.Stop()
		e.logger.Info().Str(log.FieldEvent, "engine.closed").Msg("engine closed")
	})
}
