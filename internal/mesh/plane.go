// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package mesh

import (
	"github.com/ManuGH/openimmersive/internal/geom"
	"github.com/ManuGH/openimmersive/internal/projection"
)

// buildPlane returns a rectangle of the given height centred on the local
// origin, facing +Z (towards the viewer once placed at -Z).
func buildPlane(r projection.Resolved, height float64) *Geometry {
	w := height * r.AspectRatio
	hw, hh := w/2, height/2

	g := &Geometry{
		Positions: []geom.Vec3{
			{X: -hw, Y: -hh}, {X: hw, Y: -hh},
			{X: -hw, Y: hh}, {X: hw, Y: hh},
		},
		Normals: []geom.Vec3{{Z: 1}, {Z: 1}, {Z: 1}, {Z: 1}},
		Indices: []uint32{0, 1, 3, 0, 3, 2},
	}
	corners := [4][2]float64{{0, 1}, {1, 1}, {0, 0}, {1, 0}}
	for _, eye := range []Eye{LeftEye, RightEye} {
		uvs := make([]geom.Vec2, 4)
		for k, c := range corners {
			uvs[k] = eyeUV(r.Layout, eye, c[0], c[1])
		}
		g.UVs[eye] = uvs
	}
	return g
}
