// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package playback

import (
	"context"
	"time"

	"github.com/ManuGH/openimmersive/internal/projection"
	"github.com/ManuGH/openimmersive/internal/stream"
	"github.com/rs/zerolog"
)

// session is the single open playback. Fields other than the immutable
// ones are only touched on the scene loop.
type session struct {
	id         string
	descriptor stream.Descriptor
	openedAt   time.Time
	ctx        context.Context
	cancel     context.CancelFunc
	logger     zerolog.Logger

	media    Media
	resolved projection.Resolved
	released bool
	torn     bool
}

// releaseGrant gives the access grant back, at most once per session.
func (s *session) releaseGrant() bool {
	if s.released || s.descriptor.Grant == nil {
		return false
	}
	s.released = true
	s.descriptor.Grant.Release()
	return true
}

// observer forwards engine callbacks onto the loop.
type observer struct {
	c *Controller
	s *session
}

// Progress may be dropped under load; the next report supersedes it.
func (o *observer) Progress(pos time.Duration) {
	o.c.poster.Post(func() { o.c.progress(o.s, pos) })
}

func (o *observer) Failed(err error) {
	o.c.deliver(func() { o.c.fail(o.s, wrapMedia(err)) })
}
