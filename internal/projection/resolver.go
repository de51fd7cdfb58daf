// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package projection turns a stream descriptor plus what the media reports
// about itself into the concrete projection parameters used for display.
package projection

import (
	"errors"
	"fmt"
	"math"

	"github.com/ManuGH/openimmersive/internal/stream"
)

// ErrInvalidParameters classifies every field-of-view validation failure.
var ErrInvalidParameters = errors.New("invalid projection parameters")

// Error reports an out-of-range field of view.
type Error struct {
	Degrees float64
	Reason  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid projection parameters: %s (%.2f deg)", e.Reason, e.Degrees)
}

func (e *Error) Unwrap() error { return ErrInvalidParameters }

// Layout describes how eyes are packed in the decoded frame.
type Layout string

const (
	LayoutMono       Layout = "mono"
	LayoutSideBySide Layout = "side_by_side"
	LayoutOverUnder  Layout = "over_under"
)

// Hints is what the media engine learned from the source itself.
type Hints struct {
	// FieldOfViewDegrees is meaningful only when HasFieldOfView is set.
	FieldOfViewDegrees float64
	HasFieldOfView     bool
	// AspectRatio is width over height of one eye; zero means unknown.
	AspectRatio float64
	Layout      Layout
}

// NoHints is the empty hint set.
func NoHints() Hints { return Hints{} }

// WithFieldOfView returns h carrying an intrinsic field of view.
func (h Hints) WithFieldOfView(deg float64) Hints {
	h.FieldOfViewDegrees = deg
	h.HasFieldOfView = true
	return h
}

// Resolved is the per-session projection. Vertical extent always equals
// horizontal extent: the supported MV-HEVC format is square.
type Resolved struct {
	Kind                    stream.ProjectionKind
	Degrees                 float64
	HorizontalExtentRadians float64
	VerticalExtentRadians   float64
	AspectRatio             float64
	Layout                  Layout
}

// DefaultAspectRatio is assumed for rectangular sources that report none.
const DefaultAspectRatio = 16.0 / 9.0

// Resolve computes the projection for d. It performs no I/O.
func Resolve(d stream.Descriptor, hints Hints) (Resolved, error) {
	layout := hints.Layout
	if layout == "" {
		layout = LayoutMono
	}
	aspect := hints.AspectRatio
	if aspect <= 0 {
		aspect = DefaultAspectRatio
	}

	switch p := d.Projection.(type) {
	case stream.Rectangular:
		return Resolved{Kind: stream.KindRectangular, AspectRatio: aspect, Layout: layout}, nil
	case stream.NativeImmersive:
		return Resolved{Kind: stream.KindNativeImmersive, AspectRatio: aspect, Layout: layout}, nil
	case stream.Equirectangular:
		deg := p.FieldOfViewDegrees
		if !p.ForceField && hints.HasFieldOfView {
			deg = hints.FieldOfViewDegrees
		}
		return equirectangular(deg, aspect, layout)
	case nil:
		deg := d.FallbackFieldOfView()
		if hints.HasFieldOfView {
			deg = hints.FieldOfViewDegrees
		}
		return equirectangular(deg, aspect, layout)
	default:
		return Resolved{}, fmt.Errorf("unknown projection %T", p)
	}
}

// Validate checks the parameters the descriptor carries on its own, before
// any media is opened. The fallback only matters for an unresolved
// projection.
func Validate(d stream.Descriptor) error {
	switch p := d.Projection.(type) {
	case nil:
		return checkDegrees(d.FallbackFieldOfView())
	case stream.Equirectangular:
		return checkDegrees(p.FieldOfViewDegrees)
	default:
		return nil
	}
}

func equirectangular(deg, aspect float64, layout Layout) (Resolved, error) {
	if err := checkDegrees(deg); err != nil {
		return Resolved{}, err
	}
	rad := deg * math.Pi / 180
	return Resolved{
		Kind:                    stream.KindEquirectangular,
		Degrees:                 deg,
		HorizontalExtentRadians: rad,
		VerticalExtentRadians:   rad,
		AspectRatio:             aspect,
		Layout:                  layout,
	}, nil
}

func checkDegrees(deg float64) error {
	switch {
	case math.IsNaN(deg) || math.IsInf(deg, 0):
		return &Error{Degrees: deg, Reason: "not a finite number"}
	case deg <= 0:
		return &Error{Degrees: deg, Reason: "must be greater than 0"}
	case deg > 360:
		return &Error{Degrees: deg, Reason: "must not exceed 360"}
	}
	return nil
}
