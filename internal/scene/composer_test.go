// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package scene

import (
	"context"
	"testing"
	"time"

	"github.com/ManuGH/openimmersive/internal/geom"
	"github.com/ManuGH/openimmersive/internal/mesh"
	"github.com/ManuGH/openimmersive/internal/pose"
	"github.com/ManuGH/openimmersive/internal/stream"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

type toggleCounter struct{ n int }

func (c *toggleCounter) TogglePanel() { c.n++ }

type fixture struct {
	world    *World
	tracker  *pose.Tracker
	composer *Composer
	toggles  *toggleCounter
	pose     pose.HeadPose
	havePose bool
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{world: NewWorld(), toggles: &toggleCounter{}}
	f.tracker = pose.NewTracker(pose.SourceFunc(func(context.Context, time.Time) (pose.HeadPose, bool) {
		return f.pose, f.havePose
	}))
	f.composer = NewComposer(DefaultConfig(), f.world, f.tracker)
	f.composer.SetToggler(f.toggles)
	return f
}

func sphereResult() mesh.Result {
	return mesh.Result{
		Kind:      stream.KindEquirectangular,
		Geometry:  &mesh.Geometry{},
		Placement: geom.IdentityTransform(),
	}
}

func planeResult() mesh.Result {
	return mesh.Result{
		Kind:      stream.KindRectangular,
		Geometry:  &mesh.Geometry{},
		Placement: geom.At(geom.V3(0, 0, -2)),
	}
}

func TestAttachBeforePrepare(t *testing.T) {
	f := newFixture(t)
	require.ErrorIs(t, f.composer.Attach(sphereResult()), ErrNotPrepared)
	assert.Equal(t, 0, f.composer.Attached())
}

func TestAnchorFollowsHeadPositionOnly(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, geom.V3(0, 1.2, 0), f.composer.AnchorPosition())

	f.composer.Prepare()
	require.True(t, f.tracker.Running())

	// No sample yet: the default anchor holds.
	f.tracker.Tick(context.Background(), time.Now())
	assert.Equal(t, geom.V3(0, 1.2, 0), f.composer.AnchorPosition())

	f.pose = pose.HeadPose{
		Position:    geom.V3(0.3, 1.6, -0.1),
		Orientation: geom.AxisAngle(geom.V3(0, 1, 0), 1),
	}
	f.havePose = true
	f.tracker.Tick(context.Background(), time.Now())

	assert.Equal(t, geom.V3(0.3, 1.6, -0.1), f.composer.AnchorPosition())
	assert.Equal(t, geom.Identity, f.composer.Root().Transform.Rotation)
}

func TestPanelLandsAtOffsetForEverySurface(t *testing.T) {
	for name, res := range map[string]mesh.Result{
		"sphere": sphereResult(),
		"plane":  planeResult(),
		"native": {Kind: stream.KindNativeImmersive, Native: true},
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			f.composer.Prepare()
			require.NoError(t, f.composer.Attach(res))

			panel := f.world.Find(NameControlPanel)
			require.NotNil(t, panel)
			got := f.world.WorldTransform(panel).Translation
			want := geom.V3(0, 1.2, 0).Add(DefaultConfig().PanelOffset)
			if diff := cmp.Diff(want, got, approx); diff != "" {
				t.Errorf("panel position mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNativeSurfaceNode(t *testing.T) {
	f := newFixture(t)
	f.composer.Prepare()
	require.NoError(t, f.composer.Attach(mesh.Result{Kind: stream.KindNativeImmersive, Native: true}))
	assert.NotNil(t, f.world.Find(NameNativeSurface))
	assert.Nil(t, f.world.Find(NameVideoScreen))
}

func TestTapRouting(t *testing.T) {
	f := newFixture(t)
	f.composer.Prepare()
	require.NoError(t, f.composer.Attach(sphereResult()))

	anchor := f.composer.AnchorPosition()
	towardPanel := geom.Ray{Origin: anchor, Direction: DefaultConfig().PanelOffset.Norm()}
	straight := geom.Ray{Origin: anchor, Direction: geom.V3(0, 0, -1)}

	// Hidden panel: the tap falls through to the catcher and toggles.
	assert.Equal(t, TargetCatcher, f.composer.Tap(towardPanel))
	assert.Equal(t, 1, f.toggles.n)

	f.composer.SetPanelVisible(true)
	assert.Equal(t, TargetPanel, f.composer.Tap(towardPanel))
	assert.Equal(t, 1, f.toggles.n)

	assert.Equal(t, TargetCatcher, f.composer.Tap(straight))
	assert.Equal(t, 2, f.toggles.n)

	up := geom.Ray{Origin: anchor, Direction: geom.V3(0, 1, 0)}
	assert.Equal(t, TargetNone, f.composer.Tap(up))
}

func TestTeardownRemovesEverything(t *testing.T) {
	f := newFixture(t)
	f.composer.Prepare()
	require.NoError(t, f.composer.Attach(planeResult()))
	assert.Equal(t, 4, f.world.Len())
	assert.Equal(t, 2, f.world.Colliders())

	f.composer.Teardown()
	assert.Equal(t, 0, f.world.Len())
	assert.Equal(t, 0, f.world.Colliders())
	assert.False(t, f.tracker.Running())
	assert.Nil(t, f.composer.Root())
	assert.Equal(t, 1, f.composer.Attached())

	f.composer.Teardown()
	assert.Equal(t, geom.V3(0, 1.2, 0), f.composer.AnchorPosition())
}

func TestReattachReplacesSurface(t *testing.T) {
	f := newFixture(t)
	f.composer.Prepare()
	require.NoError(t, f.composer.Attach(sphereResult()))
	require.NoError(t, f.composer.Attach(planeResult()))
	assert.Equal(t, 4, f.world.Len())
	assert.Equal(t, 2, f.world.Colliders())
	assert.Equal(t, 2, f.composer.Attached())
}
