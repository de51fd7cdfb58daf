// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package mesh

import (
	"context"
	"math"

	"github.com/ManuGH/openimmersive/internal/geom"
	"github.com/ManuGH/openimmersive/internal/projection"
	"golang.org/x/sync/errgroup"
)

const minSlices = 4

// slices returns how many segments span extent radians.
func slices(extent float64, perPi int) int {
	n := int(math.Ceil(extent / math.Pi * float64(perPi)))
	if n < minSlices {
		return minSlices
	}
	return n
}

// elevationSpan caps the vertical extent at pole-to-pole; a square 360
// degree field still covers the whole sphere.
func elevationSpan(v float64) float64 {
	return math.Min(v, math.Pi)
}

// buildSphere synthesises the inward-facing sphere segment. Vertex rows are
// filled concurrently; each worker owns disjoint slice ranges.
func buildSphere(ctx context.Context, r projection.Resolved, radius float64, perPi, workers int) (*Geometry, error) {
	hExt := r.HorizontalExtentRadians
	vExt := elevationSpan(r.VerticalExtentRadians)
	hs := slices(hExt, perPi)
	vs := slices(vExt, perPi)
	cols := hs + 1
	rows := vs + 1

	g := &Geometry{
		Positions: make([]geom.Vec3, cols*rows),
		Normals:   make([]geom.Vec3, cols*rows),
		Indices:   make([]uint32, hs*vs*6),
	}
	g.UVs[LeftEye] = make([]geom.Vec2, cols*rows)
	g.UVs[RightEye] = make([]geom.Vec2, cols*rows)

	if workers < 1 {
		workers = 1
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for j := 0; j < rows; j++ {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fillRow(g, r.Layout, j, hs, vs, hExt, vExt, radius)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return g, nil
}

func fillRow(g *Geometry, layout projection.Layout, j, hs, vs int, hExt, vExt, radius float64) {
	cols := hs + 1
	fv := float64(j) / float64(vs)
	phi := -vExt/2 + vExt*fv
	cosPhi, sinPhi := math.Cos(phi), math.Sin(phi)

	for i := 0; i < cols; i++ {
		fu := float64(i) / float64(hs)
		theta := -hExt/2 + hExt*fu
		dir := geom.Vec3{
			X: cosPhi * math.Sin(theta),
			Y: sinPhi,
			Z: -cosPhi * math.Cos(theta),
		}
		k := j*cols + i
		g.Positions[k] = dir.Scale(radius)
		g.Normals[k] = dir.Scale(-1)
		// Texture v runs top to bottom.
		g.UVs[LeftEye][k] = eyeUV(layout, LeftEye, fu, 1-fv)
		g.UVs[RightEye][k] = eyeUV(layout, RightEye, fu, 1-fv)
	}

	if j == vs {
		return
	}
	base := j * hs * 6
	for i := 0; i < hs; i++ {
		a := uint32(j*cols + i)
		b := a + 1
		c := a + uint32(cols)
		d := c + 1
		o := base + i*6
		// Counter-clockwise from the centre: a b d, a d c.
		g.Indices[o+0], g.Indices[o+1], g.Indices[o+2] = a, b, d
		g.Indices[o+3], g.Indices[o+4], g.Indices[o+5] = a, d, c
	}
}
