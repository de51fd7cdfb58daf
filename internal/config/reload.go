// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/ManuGH/openimmersive/internal/log"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce collapses bursts of editor writes into one reload.
const DefaultDebounce = 500 * time.Millisecond

// Holder owns the live configuration and swaps it on reload. Only the
// fields read at use time take effect without a restart: the log level,
// the fallback field of view and degraded access.
type Holder struct {
	loader   *Loader
	logger   zerolog.Logger
	debounce time.Duration

	mu      sync.RWMutex
	current Config

	listenMu  sync.RWMutex
	listeners []chan<- Config

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewHolder seeds a holder with an already loaded config.
func NewHolder(initial Config, loader *Loader) *Holder {
	return &Holder{
		loader:   loader,
		logger:   log.WithComponent("config"),
		debounce: DefaultDebounce,
		current:  initial,
	}
}

func (h *Holder) Get() Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Reload loads and validates the configuration again. On error the
// previous configuration stays in place.
func (h *Holder) Reload(_ context.Context) error {
	next, err := h.loader.Load()
	if err != nil {
		h.logger.Error().Err(err).
			Str(log.FieldEvent, "config.reload_failed").
			Msg("new configuration rejected, keeping previous")
		return fmt.Errorf("reload config: %w", err)
	}

	h.mu.Lock()
	prev := h.current
	h.current = next
	h.mu.Unlock()

	h.logChanges(prev, next)
	h.notify(next)
	h.logger.Info().Str(log.FieldEvent, "config.reloaded").Msg("configuration reloaded")
	return nil
}

// StartWatcher reloads after the config file changes, until ctx is done
// or Stop is called. Without a config file it does nothing.
func (h *Holder) StartWatcher(ctx context.Context) error {
	path := h.loader.Path()
	if path == "" {
		h.logger.Info().
			Str(log.FieldEvent, "config.watcher_disabled").
			Msg("no config file, hot reload disabled")
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Editors replace the file on save, which drops a watch on the file
	// itself; the directory watch survives.
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch config dir: %w", err)
	}
	h.watcher = w
	h.done = make(chan struct{})

	h.logger.Info().
		Str(log.FieldEvent, "config.watcher_started").
		Str(log.FieldPath, path).
		Msg("watching config file")
	go h.watch(ctx, filepath.Clean(path))
	return nil
}

func touches(ev fsnotify.Event, path string) bool {
	if filepath.Clean(ev.Name) != path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

func (h *Holder) watch(ctx context.Context, path string) {
	defer close(h.done)

	pending := time.NewTimer(h.debounce)
	pending.Stop()
	defer pending.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = h.watcher.Close()
			h.logger.Info().Str(log.FieldEvent, "config.watcher_stopped").Msg("config watcher stopped")
			return

		case ev, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if !touches(ev, path) {
				continue
			}
			h.logger.Debug().
				Str(log.FieldEvent, "config.file_changed").
				Str("op", ev.Op.String()).
				Msg("config file changed")
			pending.Reset(h.debounce)

		case <-pending.C:
			if err := h.Reload(ctx); err != nil {
				h.logger.Warn().Err(err).
					Str(log.FieldEvent, "config.auto_reload_failed").
					Msg("automatic reload failed")
			}

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Str(log.FieldEvent, "config.watcher_error").Msg("config watcher error")
		}
	}
}

// Stop closes the watcher and waits for it to exit.
func (h *Holder) Stop() {
	if h.watcher == nil {
		return
	}
	_ = h.watcher.Close()
	<-h.done
}

// RegisterListener adds ch to the reload notifications. Delivery never
// blocks: a full channel misses the update. The caller owns ch.
func (h *Holder) RegisterListener(ch chan<- Config) {
	h.listenMu.Lock()
	defer h.listenMu.Unlock()
	h.listeners = append(h.listeners, ch)
}

func (h *Holder) notify(cfg Config) {
	h.listenMu.RLock()
	defer h.listenMu.RUnlock()
	for _, ch := range h.listeners {
		select {
		case ch <- cfg:
		default:
			h.logger.Warn().Str(log.FieldEvent, "config.listener_skip").Msg("listener busy, update skipped")
		}
	}
}

// liveFields are the settings applied without a restart.
var liveFields = []struct {
	name string
	get  func(Config) any
}{
	{"log.level", func(c Config) any { return c.Log.Level }},
	{"projection.fallbackFieldOfView", func(c Config) any { return c.Projection.FallbackFieldOfView }},
	{"playback.allowDegradedAccess", func(c Config) any { return c.Playback.AllowDegradedAccess }},
}

func (h *Holder) logChanges(prev, next Config) {
	for _, f := range liveFields {
		before, after := f.get(prev), f.get(next)
		if before == after {
			continue
		}
		h.logger.Info().
			Str(log.FieldEvent, "config.changed").
			Str("field", f.name).
			Interface("old", before).
			Interface("new", after).
			Msg("config value changed")
	}
}
