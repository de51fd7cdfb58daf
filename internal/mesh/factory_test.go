// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package mesh

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/ManuGH/openimmersive/internal/geom"
	"github.com/ManuGH/openimmersive/internal/projection"
	"github.com/ManuGH/openimmersive/internal/stream"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func resolved(t *testing.T, deg float64, layout projection.Layout) projection.Resolved {
	t.Helper()
	d, err := stream.New("https://x/a.m3u8", "a", "")
	require.NoError(t, err)
	r, err := projection.Resolve(d.WithProjection(stream.Equirectangular{FieldOfViewDegrees: deg, ForceField: true}),
		projection.Hints{Layout: layout})
	require.NoError(t, err)
	return r
}

func waitResult(t *testing.T, task *Task) Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := task.Wait(ctx)
	require.NoError(t, err)
	return res
}

func TestBuildSphereIsInwardFacing(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	f := NewFactory(Config{SphereRadius: 10, SlicesPerPi: 8, Workers: 3})
	res := waitResult(t, f.BuildAsync(context.Background(), resolved(t, 180, projection.LayoutMono)))

	require.NotNil(t, res.Geometry)
	assert.False(t, res.Native)
	g := res.Geometry

	// 180 degrees at 8 slices per pi -> 9x9 vertices, 8x8 quads.
	assert.Equal(t, 81, g.VertexCount())
	assert.Equal(t, 128, g.TriangleCount())

	for _, p := range g.Positions {
		assert.InDelta(t, 10, p.Len(), 1e-9)
	}
	for i := 0; i < g.TriangleCount(); i++ {
		a, b, c := g.Triangle(i)
		n := b.Sub(a).Cross(c.Sub(a))
		if n.Len() < 1e-9 {
			continue // collapsed at a pole
		}
		centroid := a.Add(b).Add(c).Scale(1.0 / 3)
		require.Less(t, n.Dot(centroid), 0.0, "triangle %d faces away from the viewer", i)
	}
	for k, n := range g.Normals {
		assert.InDelta(t, -1, n.Dot(g.Positions[k].Norm()), 1e-9)
	}
}

func TestBuildSphereExtents(t *testing.T) {
	f := NewFactory(Config{SlicesPerPi: 16})
	g := waitResult(t, f.BuildAsync(context.Background(), resolved(t, 180, projection.LayoutMono))).Geometry

	// Middle row is the horizon; its ends sit at -90 and +90 degrees azimuth.
	cols := 17
	left := g.Positions[8*cols]
	right := g.Positions[8*cols+16]
	ahead := g.Positions[8*cols+8]

	approx := cmpopts.EquateApprox(0, 1e-9)
	for _, c := range []struct {
		name      string
		want, got geom.Vec3
	}{
		{"left", geom.V3(-10, 0, 0), left},
		{"right", geom.V3(10, 0, 0), right},
		{"ahead", geom.V3(0, 0, -10), ahead},
	} {
		if diff := cmp.Diff(c.want, c.got, approx); diff != "" {
			t.Errorf("%s (-want +got):\n%s", c.name, diff)
		}
	}
	assert.InDelta(t, -10, g.Positions[0].Y, 1e-9, "first row is the bottom pole")
}

func TestBuildSphereFullSphereCapsElevation(t *testing.T) {
	f := NewFactory(Config{SlicesPerPi: 4})
	g := waitResult(t, f.BuildAsync(context.Background(), resolved(t, 360, projection.LayoutMono))).Geometry

	for _, p := range g.Positions {
		assert.LessOrEqual(t, math.Abs(p.Y), 10+1e-9)
	}
	// 2pi wide, pi tall.
	assert.Equal(t, (8+1)*(4+1), g.VertexCount())
}

func TestStereoLayoutsSplitUVs(t *testing.T) {
	f := NewFactory(Config{SlicesPerPi: 4})

	sbs := waitResult(t, f.BuildAsync(context.Background(), resolved(t, 180, projection.LayoutSideBySide))).Geometry
	for k := range sbs.Positions {
		assert.LessOrEqual(t, sbs.UVs[LeftEye][k].U, float32(0.5))
		assert.GreaterOrEqual(t, sbs.UVs[RightEye][k].U, float32(0.5))
		assert.Equal(t, sbs.UVs[LeftEye][k].V, sbs.UVs[RightEye][k].V)
	}

	ou := waitResult(t, f.BuildAsync(context.Background(), resolved(t, 180, projection.LayoutOverUnder))).Geometry
	for k := range ou.Positions {
		assert.LessOrEqual(t, ou.UVs[LeftEye][k].V, float32(0.5))
		assert.GreaterOrEqual(t, ou.UVs[RightEye][k].V, float32(0.5))
	}

	mono := waitResult(t, f.BuildAsync(context.Background(), resolved(t, 180, projection.LayoutMono))).Geometry
	assert.Equal(t, mono.UVs[LeftEye], mono.UVs[RightEye])
}

func TestBuildPlaneUsesAspectRatio(t *testing.T) {
	f := NewFactory(Config{PlaneHeight: 1, PlaneDistance: 2})
	r := projection.Resolved{Kind: stream.KindRectangular, AspectRatio: 2, Layout: projection.LayoutMono}
	res := waitResult(t, f.BuildAsync(context.Background(), r))

	g := res.Geometry
	require.Equal(t, 4, g.VertexCount())
	assert.InDelta(t, 2, g.Positions[1].X-g.Positions[0].X, 1e-9)
	assert.InDelta(t, 1, g.Positions[2].Y-g.Positions[0].Y, 1e-9)
	assert.Equal(t, geom.V3(0, 0, -2), res.Placement.Translation)

	// Front faces point at the viewer once placed.
	a, b, c := g.Triangle(0)
	n := b.Sub(a).Cross(c.Sub(a))
	assert.Greater(t, n.Z, 0.0)
}

func TestNativeImmersiveReturnsSentinel(t *testing.T) {
	f := NewFactory(Config{})
	task := f.BuildAsync(context.Background(), projection.Resolved{Kind: stream.KindNativeImmersive})
	select {
	case <-task.Done():
	default:
		t.Fatal("native build should complete immediately")
	}
	res := waitResult(t, task)
	assert.True(t, res.Native)
	assert.Nil(t, res.Geometry)
}

func TestMalformedExtentsPanic(t *testing.T) {
	f := NewFactory(Config{})
	bad := []projection.Resolved{
		{Kind: stream.KindEquirectangular},
		{Kind: stream.KindEquirectangular, HorizontalExtentRadians: -1, VerticalExtentRadians: 1},
		{Kind: stream.KindEquirectangular, HorizontalExtentRadians: 7, VerticalExtentRadians: 7},
		{Kind: stream.KindEquirectangular, HorizontalExtentRadians: math.NaN(), VerticalExtentRadians: 1},
		{Kind: stream.KindRectangular, AspectRatio: 0},
		{Kind: "cube"},
	}
	for _, r := range bad {
		assert.Panics(t, func() { f.BuildAsync(context.Background(), r) }, "%+v", r)
	}
}

func TestCancelledBuildYieldsNoResult(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	f := NewFactory(Config{SlicesPerPi: 128, Workers: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	task := f.BuildAsync(ctx, resolved(t, 360, projection.LayoutMono))
	<-task.Done()
	res, err := task.Wait(context.Background())
	require.ErrorIs(t, err, ErrBuildCancelled)
	assert.Nil(t, res.Geometry)
}

func TestTaskCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	f := NewFactory(Config{SlicesPerPi: 256, Workers: 1})
	task := f.BuildAsync(context.Background(), resolved(t, 360, projection.LayoutMono))
	task.Cancel()
	<-task.Done()

	// Cancellation may race a build that already finished; either way the
	// task must be settled and a cancelled one must not carry geometry.
	res, err := task.Wait(context.Background())
	if err != nil {
		assert.ErrorIs(t, err, ErrBuildCancelled)
		assert.Nil(t, res.Geometry)
	}
	assert.NotEmpty(t, task.ID())
	assert.Equal(t, stream.KindEquirectangular, task.Kind())
}
