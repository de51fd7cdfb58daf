// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package scene

import (
	"testing"

	"github.com/ManuGH/openimmersive/internal/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorldAddRemoveCounts(t *testing.T) {
	w := NewWorld()
	root := &Node{Name: "r", Transform: geom.IdentityTransform(), Enabled: true}
	w.AddRoot(root)
	a := &Node{Name: "a", Transform: geom.IdentityTransform(), Enabled: true}
	b := &Node{Name: "b", Transform: geom.IdentityTransform(), Enabled: true}
	w.AddChild(root, a)
	w.AddChild(a, b)
	w.SetCollider(b, Collider{Box: geom.Box{Size: geom.V3(1, 1, 1)}})

	assert.Equal(t, 3, w.Len())
	assert.Equal(t, 1, w.Colliders())
	assert.Same(t, b, w.Find("b"))
	assert.Same(t, a, b.Parent())

	w.Remove(a)
	assert.Equal(t, 1, w.Len())
	assert.Equal(t, 0, w.Colliders())
	assert.Nil(t, w.Find("b"))
	assert.Empty(t, root.Children())

	w.Remove(root)
	assert.Equal(t, 0, w.Len())
	w.Remove(nil)
}

func TestWorldTransformComposes(t *testing.T) {
	w := NewWorld()
	root := &Node{Transform: geom.At(geom.V3(0, 1, 0)), Enabled: true}
	child := &Node{Transform: geom.At(geom.V3(0, 0, -2)), Enabled: true}
	w.AddRoot(root)
	w.AddChild(root, child)

	assert.Equal(t, geom.V3(0, 1, -2), w.WorldTransform(child).Translation)
}

func TestHitTestNearestEnabled(t *testing.T) {
	w := NewWorld()
	root := &Node{Transform: geom.IdentityTransform(), Enabled: true}
	w.AddRoot(root)
	near := &Node{Name: "near", Transform: geom.At(geom.V3(0, 0, -1)), Enabled: true}
	far := &Node{Name: "far", Transform: geom.At(geom.V3(0, 0, -3)), Enabled: true}
	w.AddChild(root, far)
	w.AddChild(root, near)
	w.SetCollider(near, Collider{Box: geom.Box{Size: geom.V3(1, 1, 0.1)}})
	w.SetCollider(far, Collider{Box: geom.Box{Size: geom.V3(1, 1, 0.1)}, Trigger: true})

	ray := geom.Ray{Direction: geom.V3(0, 0, -1)}
	hit, ok := w.HitTest(ray)
	require.True(t, ok)
	assert.Same(t, near, hit.Node)
	assert.InDelta(t, 0.95, hit.Distance, 1e-9)

	near.Enabled = false
	hit, ok = w.HitTest(ray)
	require.True(t, ok)
	assert.Same(t, far, hit.Node)

	root.Enabled = false
	_, ok = w.HitTest(ray)
	assert.False(t, ok)
}
