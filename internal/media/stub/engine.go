// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package stub is an in-memory media engine. It decodes nothing; tests and
// the simulator drive its clock and failures by hand.
package stub

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ManuGH/openimmersive/internal/log"
	"github.com/ManuGH/openimmersive/internal/playback"
	"github.com/ManuGH/openimmersive/internal/projection"
	"github.com/ManuGH/openimmersive/internal/stream"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrClosed is returned by operations on closed media.
var ErrClosed = errors.New("media closed")

// Option configures an Engine.
type Option func(*Engine)

// WithHints sets the container hints every loaded media reports.
func WithHints(h projection.Hints) Option {
	return func(e *Engine) { e.hints = h }
}

// WithLoadDelay makes Load take d.
func WithLoadDelay(d time.Duration) Option {
	return func(e *Engine) { e.delay = d }
}

// WithLoadError makes every Load fail with err.
func WithLoadError(err error) Option {
	return func(e *Engine) { e.loadErr = err }
}

// WithGate makes Load wait until gate is closed.
func WithGate(gate <-chan struct{}) Option {
	return func(e *Engine) { e.gate = gate }
}

// Engine implements playback.MediaEngine.
type Engine struct {
	hints   projection.Hints
	delay   time.Duration
	loadErr error
	gate    <-chan struct{}
	logger  zerolog.Logger

	mu     sync.Mutex
	loaded []*Media
}

func New(opts ...Option) *Engine {
	e := &Engine{logger: log.WithComponent("media.stub")}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) Load(ctx context.Context, d stream.Descriptor, obs playback.Observer) (playback.Media, error) {
	if e.delay > 0 {
		t := time.NewTimer(e.delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if e.gate != nil {
		select {
		case <-e.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if e.loadErr != nil {
		return nil, e.loadErr
	}

	m := &Media{id: uuid.NewString(), source: d.ID(), hints: e.hints, obs: obs}
	e.mu.Lock()
	e.loaded = append(e.loaded, m)
	e.mu.Unlock()

	e.logger.Debug().
		Str(log.FieldEvent, "media.loaded").
		Str("handle", m.id).
		Str(log.FieldURL, m.source).
		Msg("stub media opened")
	return m, nil
}

// Loaded returns every media opened so far, oldest first.
func (e *Engine) Loaded() []*Media {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Media(nil), e.loaded...)
}

// Last returns the most recently opened media, or nil.
func (e *Engine) Last() *Media {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.loaded) == 0 {
		return nil
	}
	return e.loaded[len(e.loaded)-1]
}

// Media is one opened stub source.
type Media struct {
	id     string
	source string
	hints  projection.Hints
	obs    playback.Observer

	mu       sync.Mutex
	playing  bool
	closed   bool
	closes   int
	position time.Duration
}

func (m *Media) ID() string              { return m.id }
func (m *Media) Source() string          { return m.source }
func (m *Media) Hints() projection.Hints { return m.hints }

func (m *Media) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.playing = true
	return nil
}

func (m *Media) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.playing = false
	return nil
}

func (m *Media) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes++
	m.closed = true
	m.playing = false
	return nil
}

// Advance moves a playing media's clock by d and reports the new position.
// It reports false when the media is paused or closed.
func (m *Media) Advance(d time.Duration) bool {
	m.mu.Lock()
	if !m.playing || m.closed {
		m.mu.Unlock()
		return false
	}
	m.position += d
	pos := m.position
	m.mu.Unlock()

	m.obs.Progress(pos)
	return true
}

// Fail reports a decoder error to the observer.
func (m *Media) Fail(err error) {
	m.obs.Failed(err)
}

func (m *Media) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

func (m *Media) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Closes counts Close calls.
func (m *Media) Closes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closes
}

func (m *Media) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

var _ playback.MediaEngine = (*Engine)(nil)
