// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package log wraps zerolog with the process-wide logger and the field
// names every component shares.
package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config configures the process logger. Zero fields fall back to info
// level, stdout and the "openimmersive" service name.
type Config struct {
	Level   string
	Output  io.Writer
	Service string
	Version string
}

var (
	once sync.Once
	mu   sync.RWMutex
	base zerolog.Logger
)

// Configure installs the process logger. Only the first call takes effect;
// use SetLevel to adjust verbosity afterwards.
func Configure(cfg Config) {
	once.Do(func() { install(cfg) })
}

func install(cfg Config) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	service := cfg.Service
	if service == "" {
		service = "openimmersive"
	}

	lctx := zerolog.New(out).With().Timestamp().Str("service", service)
	if cfg.Version != "" {
		lctx = lctx.Str("version", cfg.Version)
	}

	mu.Lock()
	base = lctx.Logger()
	mu.Unlock()
}

// SetLevel changes the global level at runtime, e.g. on config reload.
func SetLevel(level string) error {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(parsed)
	return nil
}

func logger() zerolog.Logger {
	Configure(Config{})
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Base returns the configured base logger instance.
func Base() zerolog.Logger {
	return logger()
}

// WithComponent returns a child logger annotated with the given component name.
func WithComponent(component string) zerolog.Logger {
	l := logger().With().Str(FieldComponent, component).Logger()
	return l
}

// Derive attaches arbitrary fields to a child logger using the provided builder function.
func Derive(build func(*zerolog.Context)) zerolog.Logger {
	ctx := logger().With()
	if build != nil {
		build(&ctx)
	}
	return ctx.Logger()
}
