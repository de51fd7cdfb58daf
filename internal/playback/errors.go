// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package playback

import (
	"context"
	"errors"

	"github.com/ManuGH/openimmersive/internal/mesh"
	"github.com/ManuGH/openimmersive/internal/projection"
	"github.com/ManuGH/openimmersive/internal/stream"
)

var (
	// ErrSessionAlreadyOpen is returned by OpenSession while a session is
	// loading, playing or paused. Close it first.
	ErrSessionAlreadyOpen = errors.New("session already open")
	// ErrResourceAccessDenied means a security-scoped source arrived
	// without its access grant.
	ErrResourceAccessDenied = errors.New("resource access denied")
	// ErrMediaLoadFailure means the media engine could not open or keep
	// playing the source.
	ErrMediaLoadFailure = errors.New("media load failure")
	ErrNoSession        = errors.New("no session")
)

// Reason labels. Keep these stable: metrics and host events depend on them.
const (
	ReasonNone               = "none"
	ReasonSessionAlreadyOpen = "session_already_open"
	ReasonAccessDenied       = "access_denied"
	ReasonInvalidProjection  = "invalid_projection"
	ReasonInvalidLocator     = "invalid_locator"
	ReasonMediaLoad          = "media_load"
	ReasonCancelled          = "cancelled"
	ReasonNoSession          = "no_session"
	ReasonUserStop           = "user_stop"
	ReasonUnknown            = "unknown"
)

// ReasonFor maps err to a low-cardinality reason label.
func ReasonFor(err error) string {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, ErrSessionAlreadyOpen):
		return ReasonSessionAlreadyOpen
	case errors.Is(err, ErrResourceAccessDenied):
		return ReasonAccessDenied
	case errors.Is(err, projection.ErrInvalidParameters):
		return ReasonInvalidProjection
	case errors.Is(err, stream.ErrInvalidLocator):
		return ReasonInvalidLocator
	case errors.Is(err, ErrMediaLoadFailure):
		return ReasonMediaLoad
	case errors.Is(err, ErrNoSession):
		return ReasonNoSession
	case errors.Is(err, mesh.ErrBuildCancelled), errors.Is(err, context.Canceled):
		return ReasonCancelled
	default:
		return ReasonUnknown
	}
}
