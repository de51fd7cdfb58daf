// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package playback

import (
	"context"
	"time"

	"github.com/ManuGH/openimmersive/internal/mesh"
	"github.com/ManuGH/openimmersive/internal/projection"
	"github.com/ManuGH/openimmersive/internal/stream"
)

// MediaEngine opens sources for decoding. Load may block; it must return
// promptly once ctx is done.
type MediaEngine interface {
	Load(ctx context.Context, d stream.Descriptor, obs Observer) (Media, error)
}

// Media is one opened source.
type Media interface {
	// Hints reports what the container says about the video.
	Hints() projection.Hints
	Play() error
	Pause() error
	// Close releases the decoder. Calls after the first are no-ops.
	Close() error
}

// Observer receives engine callbacks. They may arrive on any goroutine.
type Observer interface {
	Progress(pos time.Duration)
	Failed(err error)
}

// Scene is the part of the scene composer the controller drives.
type Scene interface {
	Prepare()
	Attach(res mesh.Result) error
	SetPanelVisible(visible bool)
	Teardown()
}
