// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReloadSwapsAndNotifies(t *testing.T) {
	path := writeConfig(t, "log:\n  level: info\n")
	loader := NewLoader(path)
	initial, err := loader.Load()
	require.NoError(t, err)

	h := NewHolder(initial, loader)
	ch := make(chan Config, 1)
	h.RegisterListener(ch)

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o600))
	require.NoError(t, h.Reload(context.Background()))

	assert.Equal(t, "debug", h.Get().Log.Level)
	select {
	case got := <-ch:
		assert.Equal(t, "debug", got.Log.Level)
	default:
		t.Fatal("listener not notified")
	}
}

func TestReloadKeepsPreviousOnInvalid(t *testing.T) {
	path := writeConfig(t, "projection:\n  fallbackFieldOfView: 144\n")
	loader := NewLoader(path)
	initial, err := loader.Load()
	require.NoError(t, err)
	h := NewHolder(initial, loader)

	require.NoError(t, os.WriteFile(path, []byte("projection:\n  fallbackFieldOfView: 0\n"), 0o600))
	require.Error(t, h.Reload(context.Background()))
	assert.Equal(t, 144.0, h.Get().Projection.FallbackFieldOfView)

	require.NoError(t, os.WriteFile(path, []byte("bogus: true\n"), 0o600))
	require.ErrorIs(t, h.Reload(context.Background()), ErrUnknownConfigField)
	assert.Equal(t, 144.0, h.Get().Projection.FallbackFieldOfView)
}

func TestListenerSkippedWhenFull(t *testing.T) {
	h := NewHolder(Defaults(), NewLoader(""))
	ch := make(chan Config)
	h.RegisterListener(ch)
	require.NoError(t, h.Reload(context.Background()))
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, "log:\n  level: info\n")
	loader := NewLoader(path)
	initial, err := loader.Load()
	require.NoError(t, err)

	h := NewHolder(initial, loader)
	h.debounce = 10 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, h.StartWatcher(ctx))
	defer h.Stop()

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\n"), 0o600))
	require.Eventually(t, func() bool { return h.Get().Log.Level == "warn" }, 5*time.Second, 10*time.Millisecond)
}

func TestWatcherDisabledWithoutFile(t *testing.T) {
	h := NewHolder(Defaults(), NewLoader(""))
	require.NoError(t, h.StartWatcher(context.Background()))
	h.Stop()
}
