// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package stream

// ProjectionKind names a projection variant.
type ProjectionKind string

const (
	KindEquirectangular ProjectionKind = "equirectangular"
	KindRectangular     ProjectionKind = "rectangular"
	KindNativeImmersive ProjectionKind = "native_immersive"
)

// Projection is the closed set of display projections a descriptor may ask
// for. The unexported marker keeps the set closed to this package, so a
// type switch over Equirectangular, Rectangular and NativeImmersive is
// exhaustive.
type Projection interface {
	Kind() ProjectionKind
	projection()
}

// Equirectangular maps the video onto the inside of a sphere segment.
type Equirectangular struct {
	FieldOfViewDegrees float64
	// ForceField makes FieldOfViewDegrees win over any value encoded in the media.
	ForceField bool
}

// Rectangular displays the video on a flat plane (spatial video).
type Rectangular struct{}

// NativeImmersive defers presentation to the platform's native decoder surface.
type NativeImmersive struct{}

func (Equirectangular) Kind() ProjectionKind { return KindEquirectangular }
func (Rectangular) Kind() ProjectionKind     { return KindRectangular }
func (NativeImmersive) Kind() ProjectionKind { return KindNativeImmersive }

func (Equirectangular) projection() {}
func (Rectangular) projection()     {}
func (NativeImmersive) projection() {}
