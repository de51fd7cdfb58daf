// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package mesh

import (
	"github.com/ManuGH/openimmersive/internal/geom"
	"github.com/ManuGH/openimmersive/internal/projection"
	"github.com/ManuGH/openimmersive/internal/stream"
)

// Eye indexes per-eye texture coordinates.
type Eye int

const (
	LeftEye Eye = iota
	RightEye
)

// Geometry is an indexed triangle list. Front faces wind counter-clockwise
// as seen by the viewer.
type Geometry struct {
	Positions []geom.Vec3
	Normals   []geom.Vec3
	// UVs holds one texture coordinate set per eye; mono sources repeat the same set.
	UVs     [2][]geom.Vec2
	Indices []uint32
}

func (g *Geometry) VertexCount() int   { return len(g.Positions) }
func (g *Geometry) TriangleCount() int { return len(g.Indices) / 3 }

// Triangle returns the corner positions of triangle i.
func (g *Geometry) Triangle(i int) (a, b, c geom.Vec3) {
	return g.Positions[g.Indices[3*i]], g.Positions[g.Indices[3*i+1]], g.Positions[g.Indices[3*i+2]]
}

// Result is what a build delivers. Native results carry no geometry: the
// platform decoder draws its own surface.
type Result struct {
	Kind      stream.ProjectionKind
	Geometry  *Geometry
	Placement geom.Transform
	Native    bool
}

// eyeUV maps a full-frame coordinate into one eye's region.
func eyeUV(layout projection.Layout, eye Eye, u, v float64) geom.Vec2 {
	switch layout {
	case projection.LayoutSideBySide:
		u = u * 0.5
		if eye == RightEye {
			u += 0.5
		}
	case projection.LayoutOverUnder:
		v = v * 0.5
		if eye == RightEye {
			v += 0.5
		}
	}
	return geom.Vec2{U: float32(u), V: float32(v)}
}
