// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package loop implements the single-threaded scene-update loop. Scene and
// session state is only touched from work that runs on the loop; background
// tasks hand their results back with Post.
package loop

import (
	"context"
	"sync"
	"time"

	"github.com/ManuGH/openimmersive/internal/log"
	"github.com/ManuGH/openimmersive/internal/metrics"
	"github.com/rs/zerolog"
)

// Config tunes the loop.
type Config struct {
	TickInterval time.Duration
	QueueSize    int
}

// DefaultConfig ticks at roughly 90 Hz.
func DefaultConfig() Config {
	return Config{TickInterval: 11 * time.Millisecond, QueueSize: 256}
}

// TickFunc runs once per tick, after posted work has been drained.
type TickFunc func(ctx context.Context, now time.Time)

// Poster is the narrow view background tasks need.
type Poster interface {
	Post(fn func()) bool
}

// Scheduler is a Poster whose loop also runs tick functions.
type Scheduler interface {
	Poster
	OnTick(fn TickFunc) (remove func())
}

// Loop owns the scene-update thread.
type Loop struct {
	cfg    Config
	logger zerolog.Logger
	queue  chan func()

	mu      sync.RWMutex
	closed  bool
	nextID  int
	tickers []tickEntry
}

type tickEntry struct {
	id int
	fn TickFunc
}

func New(cfg Config) *Loop {
	def := DefaultConfig()
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = def.TickInterval
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	return &Loop{
		cfg:    cfg,
		logger: log.WithComponent("loop"),
		queue:  make(chan func(), cfg.QueueSize),
	}
}

// Post schedules fn to run on the loop. It never blocks; it returns false
// when the loop is closed or its queue is full.
func (l *Loop) Post(fn func()) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		metrics.LoopRejectedTotal.Inc()
		return false
	}
	select {
	case l.queue <- fn:
		metrics.LoopQueueDepth.Set(float64(len(l.queue)))
		return true
	default:
		metrics.LoopRejectedTotal.Inc()
		l.logger.Warn().
			Str(log.FieldEvent, "loop.queue_full").
			Int("capacity", cap(l.queue)).
			Msg("scene loop queue full, work rejected")
		return false
	}
}

// OnTick registers fn and returns a function that unregisters it.
func (l *Loop) OnTick(fn TickFunc) (remove func()) {
	l.mu.Lock()
	l.nextID++
	id := l.nextID
	l.tickers = append(l.tickers, tickEntry{id: id, fn: fn})
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		for i, t := range l.tickers {
			if t.id == id {
				l.tickers = append(l.tickers[:i:i], l.tickers[i+1:]...)
				return
			}
		}
	}
}

// Step runs one tick: the work queued so far, then every tick function.
// Hosts that own their own frame loop call Step once per frame instead of Run.
func (l *Loop) Step(ctx context.Context) {
drain:
	for n := len(l.queue); n > 0; n-- {
		select {
		case fn := <-l.queue:
			fn()
		default:
			break drain
		}
	}
	metrics.LoopQueueDepth.Set(float64(len(l.queue)))

	l.mu.RLock()
	tickers := append([]tickEntry(nil), l.tickers...)
	l.mu.RUnlock()

	now := time.Now()
	for _, t := range tickers {
		if ctx.Err() != nil {
			return
		}
		t.fn(ctx, now)
	}
}

// Run calls Step on every tick until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.cfg.TickInterval)
	defer ticker.Stop()

	l.logger.Info().
		Str(log.FieldEvent, "loop.started").
		Dur("interval", l.cfg.TickInterval).
		Msg("scene loop started")

	for {
		select {
		case <-ctx.Done():
			l.logger.Info().Str(log.FieldEvent, "loop.stopped").Msg("scene loop stopped")
			return nil
		case <-ticker.C:
			l.Step(ctx)
		}
	}
}

// Close rejects further Post calls. Already queued work still runs on the
// next Step.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
}

// Pending reports how much work is queued.
func (l *Loop) Pending() int {
	return len(l.queue)
}
