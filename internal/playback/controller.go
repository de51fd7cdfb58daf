// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package playback owns the playback session lifecycle: opening a source,
// resolving its projection, building its surface and tearing it all down.
package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ManuGH/openimmersive/internal/bus"
	"github.com/ManuGH/openimmersive/internal/fsm"
	"github.com/ManuGH/openimmersive/internal/log"
	"github.com/ManuGH/openimmersive/internal/loop"
	"github.com/ManuGH/openimmersive/internal/mesh"
	"github.com/ManuGH/openimmersive/internal/metrics"
	"github.com/ManuGH/openimmersive/internal/projection"
	"github.com/ManuGH/openimmersive/internal/stream"
	"github.com/ManuGH/openimmersive/internal/telemetry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Config tunes the controller.
type Config struct {
	// AllowDegradedAccess lets a security-scoped source without a grant
	// open anyway; the engine then attempts a plain read.
	AllowDegradedAccess bool
	// FallbackFieldOfView fills in descriptors that carry no fallback.
	FallbackFieldOfView float64
	// PublishTimeout bounds how long a slow subscriber can hold the loop.
	PublishTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		FallbackFieldOfView: stream.DefaultFallbackFieldOfView,
		PublishTimeout:      10 * time.Millisecond,
	}
}

// Deps are the collaborators a controller drives.
type Deps struct {
	Loop   loop.Scheduler
	Engine MediaEngine
	Meshes mesh.Builder
	Scene  Scene
	// Bus is optional; without it no change events are published.
	Bus bus.Bus
}

// Controller runs at most one playback session. Its mutating methods must
// be called on the scene loop; State, CurrentTime, PanelVisible and
// LastError may be read from any goroutine.
type Controller struct {
	cfg    Config
	poster loop.Scheduler
	engine MediaEngine
	meshes mesh.Builder
	scene  Scene
	bus    bus.Bus
	logger zerolog.Logger
	tracer trace.Tracer

	machine  *fsm.Machine[State, Event]
	session  *session
	inflight sync.WaitGroup

	// mailbox holds background outcomes that must reach the loop even
	// when its queue is full; every tick drains it.
	mailMu  sync.Mutex
	mailbox []func()
	untick  func()

	mu        sync.RWMutex
	sessionID string
	position  Timecode
	panel     bool
	lastErr   error
}

func NewController(cfg Config, deps Deps) *Controller {
	def := DefaultConfig()
	if cfg.FallbackFieldOfView == 0 {
		cfg.FallbackFieldOfView = def.FallbackFieldOfView
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = def.PublishTimeout
	}
	c := &Controller{
		cfg:     cfg,
		poster:  deps.Loop,
		engine:  deps.Engine,
		meshes:  deps.Meshes,
		scene:   deps.Scene,
		bus:     deps.Bus,
		logger:  log.WithComponent("playback"),
		tracer:  telemetry.Tracer("openimmersive/playback"),
		machine: newMachine(),
	}
	c.untick = deps.Loop.OnTick(func(context.Context, time.Time) { c.drain() })
	return c
}

// Close detaches the controller from the loop ticks. Call it after the
// last Step.
func (c *Controller) Close() {
	c.untick()
}

// deliver runs fn on the loop. Unlike Post it never drops fn: when the
// queue refuses the fast path, fn waits for the next tick.
func (c *Controller) deliver(fn func()) {
	c.mailMu.Lock()
	c.mailbox = append(c.mailbox, fn)
	c.mailMu.Unlock()
	c.poster.Post(c.drain)
}

func (c *Controller) drain() {
	c.mailMu.Lock()
	pending := c.mailbox
	c.mailbox = nil
	c.mailMu.Unlock()
	for _, fn := range pending {
		fn()
	}
}

// State is the current lifecycle state.
func (c *Controller) State() State {
	return c.machine.State()
}

// CurrentTime is the last position the engine reported for the open
// session. It is invalid before the first report and after close.
func (c *Controller) CurrentTime() Timecode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.position
}

// PanelVisible reports the control panel flag.
func (c *Controller) PanelVisible() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.panel
}

// LastError is the error that stopped the most recent session, if any.
func (c *Controller) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// SessionID identifies the open session, or is empty.
func (c *Controller) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

// OpenSession starts playing d. It returns once the session is Loading;
// the projection is resolved, the media opened and the surface built in
// the background, and the session turns Playing on the loop once all of
// that succeeded. Validation errors leave the controller untouched.
func (c *Controller) OpenSession(ctx context.Context, d stream.Descriptor) error {
	if st := c.State(); st.Active() {
		c.refuse(ErrSessionAlreadyOpen)
		return fmt.Errorf("%w: state=%s session=%s", ErrSessionAlreadyOpen, st, c.SessionID())
	}
	if d.URL == nil {
		c.refuse(stream.ErrInvalidLocator)
		return fmt.Errorf("open session: %w", stream.ErrInvalidLocator)
	}
	if d.SecurityScoped && d.Grant == nil {
		if !c.cfg.AllowDegradedAccess {
			c.refuse(ErrResourceAccessDenied)
			return fmt.Errorf("%w: %s", ErrResourceAccessDenied, d.ID())
		}
		c.logger.Warn().
			Str(log.FieldEvent, "playback.degraded_access").
			Str(log.FieldURL, d.ID()).
			Msg("security-scoped source has no access grant, attempting plain read")
	}
	if d.FallbackFieldOfViewDegrees == 0 {
		d = d.WithFallbackFieldOfView(c.cfg.FallbackFieldOfView)
	}
	if err := projection.Validate(d); err != nil {
		c.refuse(err)
		return fmt.Errorf("open session: %w", err)
	}

	// A failed session waits in Stopped with its resources already gone.
	if c.State() == StateStopped {
		c.fire(nil, EvReset, "", nil)
	}

	id := uuid.NewString()
	sctx, cancel := context.WithCancel(log.ContextWithSessionID(context.WithoutCancel(ctx), id))
	s := &session{
		id:         id,
		descriptor: d,
		openedAt:   time.Now(),
		ctx:        sctx,
		cancel:     cancel,
		logger:     log.WithContext(sctx, c.logger),
	}
	c.session = s
	c.mu.Lock()
	c.sessionID = id
	c.position = Timecode{}
	c.lastErr = nil
	c.mu.Unlock()

	c.fire(s, EvOpen, "", nil)
	metrics.RecordSessionOpened(string(d.ProjectionKind()))
	c.scene.Prepare()

	s.logger.Info().
		Str(log.FieldEvent, "playback.open").
		Str(log.FieldURL, d.ID()).
		Str(log.FieldProjection, string(d.ProjectionKind())).
		Bool("security_scoped", d.SecurityScoped).
		Msg("session opening")

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		c.load(s)
	}()
	return nil
}

// Wait blocks until background loads of closed sessions have returned.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

// load runs off the loop. Every outcome is handed back with deliver.
func (c *Controller) load(s *session) {
	ctx, span := c.tracer.Start(s.ctx, "playback.load",
		trace.WithAttributes(telemetry.SessionAttributes(s.id, s.descriptor.URL.Scheme, s.descriptor.SecurityScoped)...))
	defer span.End()

	media, err := c.engine.Load(ctx, s.descriptor, &observer{c: c, s: s})
	if err != nil {
		if s.ctx.Err() != nil {
			return
		}
		span.SetStatus(codes.Error, "load failed")
		span.SetAttributes(telemetry.ErrorAttributes(ReasonMediaLoad)...)
		c.deliver(func() { c.fail(s, wrapMedia(err)) })
		return
	}

	_, rspan := c.tracer.Start(ctx, "projection.resolve")
	resolved, err := projection.Resolve(s.descriptor, media.Hints())
	if err != nil {
		rspan.SetStatus(codes.Error, err.Error())
	} else {
		rspan.SetAttributes(telemetry.MeshAttributes(string(resolved.Kind), resolved.Degrees, string(resolved.Layout))...)
	}
	rspan.End()
	if err != nil {
		_ = media.Close()
		c.deliver(func() { c.fail(s, err) })
		return
	}

	task := c.meshes.BuildAsync(ctx, resolved)
	res, err := task.Wait(ctx)
	if err != nil {
		// Only a closed session cancels the build.
		_ = media.Close()
		return
	}

	c.deliver(func() { c.apply(s, media, resolved, res) })
}

// apply attaches a finished build. Results for a closed or replaced
// session are discarded.
func (c *Controller) apply(s *session, media Media, resolved projection.Resolved, res mesh.Result) {
	if c.session != s || s.ctx.Err() != nil || c.State() != StateLoading {
		_ = media.Close()
		metrics.RecordMeshBuild(string(res.Kind), metrics.OutcomeDiscarded, 0)
		s.logger.Debug().
			Str(log.FieldEvent, "playback.result_discarded").
			Str(log.FieldProjection, string(res.Kind)).
			Msg("late build result discarded")
		return
	}
	s.media = media
	s.resolved = resolved

	if err := c.scene.Attach(res); err != nil {
		c.fail(s, err)
		return
	}
	if err := media.Play(); err != nil {
		c.fail(s, wrapMedia(err))
		return
	}
	c.fire(s, EvReady, "", nil)
	c.setPanel(true)

	s.logger.Info().
		Str(log.FieldEvent, "playback.playing").
		Str(log.FieldProjection, string(resolved.Kind)).
		Float64(log.FieldFieldOfView, resolved.Degrees).
		Str(log.FieldLayout, string(resolved.Layout)).
		Dur("startup", time.Since(s.openedAt)).
		Msg("session playing")
}

// Resolved returns the projection the open session settled on, once it is
// playing.
func (c *Controller) Resolved() (projection.Resolved, bool) {
	if c.session == nil || c.session.media == nil {
		return projection.Resolved{}, false
	}
	return c.session.resolved, true
}

// Play resumes a paused session. It is a logged no-op outside Paused and
// Playing.
func (c *Controller) Play() error {
	switch st := c.State(); st {
	case StatePlaying:
		return nil
	case StatePaused:
		s := c.session
		if err := s.media.Play(); err != nil {
			err = wrapMedia(err)
			c.fail(s, err)
			return err
		}
		c.fire(s, EvPlay, "", nil)
		return nil
	default:
		c.noop("play", st)
		return nil
	}
}

// Pause pauses a playing session. It is a logged no-op in any other state.
func (c *Controller) Pause() error {
	st := c.State()
	if st != StatePlaying {
		c.noop("pause", st)
		return nil
	}
	s := c.session
	if err := s.media.Pause(); err != nil {
		err = wrapMedia(err)
		c.fail(s, err)
		return err
	}
	c.fire(s, EvPause, "", nil)
	return nil
}

// TogglePanel flips the control panel flag.
func (c *Controller) TogglePanel() {
	c.setPanel(!c.PanelVisible())
}

// Stop closes the session and returns to Idle. It is a no-op while Idle.
func (c *Controller) Stop() {
	switch st := c.State(); {
	case st == StateIdle:
		c.logger.Debug().Str(log.FieldEvent, "playback.noop").Str("op", "stop").Msg("no session to stop")
	case st == StateStopped:
		c.fire(nil, EvReset, "", nil)
	case st.Active():
		s := c.session
		c.teardown(s)
		c.fire(s, EvStop, ReasonUserStop, nil)
		c.fire(s, EvReset, "", nil)
		s.logger.Info().
			Str(log.FieldEvent, "playback.stopped").
			Dur("duration", time.Since(s.openedAt)).
			Msg("session closed")
	}
}

// fail tears s down and parks the controller in Stopped. Failures of a
// session that is no longer current are ignored.
func (c *Controller) fail(s *session, err error) {
	if c.session != s || !c.State().Active() {
		return
	}
	reason := ReasonFor(err)
	c.teardown(s)
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
	metrics.RecordSessionFailure(reason)
	c.fire(s, EvStop, reason, err)

	s.logger.Error().
		Err(err).
		Str(log.FieldEvent, "playback.failed").
		Str(log.FieldReason, reason).
		Msg("session stopped on error")
}

// teardown releases everything s acquired. Safe to call repeatedly.
func (c *Controller) teardown(s *session) {
	if s == nil || s.torn {
		return
	}
	s.torn = true
	s.cancel()

	if s.media != nil {
		if err := s.media.Close(); err != nil {
			s.logger.Warn().Err(err).Str(log.FieldEvent, "playback.media_close_failed").Msg("media close failed")
		}
	}
	if s.releaseGrant() {
		metrics.RecordGrantRelease()
		s.logger.Debug().Str(log.FieldEvent, "playback.grant_released").Msg("access grant released")
	}
	c.scene.Teardown()
	c.setPanel(false)

	if c.session == s {
		c.session = nil
	}
	c.mu.Lock()
	c.sessionID = ""
	c.position = Timecode{}
	c.mu.Unlock()
	metrics.RecordSessionClosed()
}

func (c *Controller) progress(s *session, pos time.Duration) {
	if c.session != s || s.torn {
		return
	}
	tc := At(pos)
	c.mu.Lock()
	c.position = tc
	c.mu.Unlock()
	c.publish(TopicTime, TimeChanged{SessionID: s.id, Time: tc})
}

func (c *Controller) setPanel(visible bool) {
	c.mu.Lock()
	changed := c.panel != visible
	c.panel = visible
	c.mu.Unlock()

	c.scene.SetPanelVisible(visible)
	if changed {
		c.publish(TopicPanel, PanelChanged{Visible: visible})
	}
}

func (c *Controller) fire(s *session, ev Event, reason string, cause error) {
	ch, err := c.machine.Fire(context.Background(), ev)
	if err != nil {
		// The table covers every call site; reaching this is a bug.
		c.logger.Error().Err(err).Str(log.FieldEvent, "playback.illegal_transition").Msg("illegal transition")
		return
	}
	from, to := ch.From, ch.To
	metrics.RecordTransition(string(to))

	id := ""
	if s != nil {
		id = s.id
	}
	c.logger.Debug().
		Str(log.FieldEvent, "playback.transition").
		Str(log.FieldSessionID, id).
		Str(log.FieldOldState, string(from)).
		Str(log.FieldNewState, string(to)).
		Msg("state changed")
	c.publish(TopicState, StateChanged{SessionID: id, From: from, To: to, Reason: reason, Err: cause})
}

func (c *Controller) publish(topic string, msg bus.Message) {
	if c.bus == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.PublishTimeout)
	defer cancel()
	if err := c.bus.Publish(ctx, topic, msg); err != nil {
		c.logger.Debug().Err(err).Str(log.FieldEvent, "playback.publish_dropped").Str("topic", topic).Msg("change event dropped")
	}
}

func (c *Controller) refuse(err error) {
	reason := ReasonFor(err)
	metrics.RecordSessionFailure(reason)
	c.logger.Warn().
		Err(err).
		Str(log.FieldEvent, "playback.open_refused").
		Str(log.FieldReason, reason).
		Msg("session not opened")
}

func (c *Controller) noop(op string, st State) {
	c.logger.Debug().
		Str(log.FieldEvent, "playback.noop").
		Str("op", op).
		Str("state", string(st)).
		Strs("accepts", events(c.machine.Accepts())).
		Msg("ignored in current state")
}

func events(evs []Event) []string {
	out := make([]string, len(evs))
	for i, e := range evs {
		out[i] = string(e)
	}
	return out
}

func wrapMedia(err error) error {
	if errors.Is(err, ErrMediaLoadFailure) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrMediaLoadFailure, err)
}
