// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package scene holds the immersive scene graph and the composer that
// assembles the player into it.
package scene

import (
	"math"
	"sync"

	"github.com/ManuGH/openimmersive/internal/geom"
	"github.com/ManuGH/openimmersive/internal/mesh"
	"github.com/ManuGH/openimmersive/internal/metrics"
)

// Node is one entity in the scene.
type Node struct {
	Name      string
	Transform geom.Transform
	// Enabled nodes are drawn and take input; disabling a node hides its
	// subtree. A node with neither Surface nor Attachment draws nothing.
	Enabled bool

	// Surface is set on the video surface node.
	Surface *mesh.Result
	// Attachment names a host-rendered view placed at this node.
	Attachment string

	parent   *Node
	children []*Node
}

func (n *Node) Parent() *Node     { return n.parent }
func (n *Node) Children() []*Node { return append([]*Node(nil), n.children...) }

// Collider makes a node receive taps. Box is in the node's local space; it
// is treated as axis-aligned in world space.
type Collider struct {
	Box geom.Box
	// Trigger colliders take part in hit testing but have no physical response.
	Trigger bool
}

// Hit is the nearest collider struck by a ray.
type Hit struct {
	Node     *Node
	Distance float64
}

// World is the scene graph plus its input registrations. It is mutated
// from the scene loop; the mutex only protects host-side reads.
type World struct {
	mu        sync.RWMutex
	roots     []*Node
	colliders map[*Node]Collider
	count     int
}

func NewWorld() *World {
	return &World{colliders: make(map[*Node]Collider)}
}

// AddRoot places n at the top level.
func (w *World) AddRoot(n *Node) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.roots = append(w.roots, n)
	w.count += subtreeSize(n)
	metrics.SceneNodes.Set(float64(w.count))
}

// AddChild attaches child (and its subtree) under parent.
func (w *World) AddChild(parent, child *Node) {
	w.mu.Lock()
	defer w.mu.Unlock()
	child.parent = parent
	parent.children = append(parent.children, child)
	w.count += subtreeSize(child)
	metrics.SceneNodes.Set(float64(w.count))
}

// SetCollider registers n for tap input.
func (w *World) SetCollider(n *Node, c Collider) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.colliders[n] = c
}

// Remove detaches n with its whole subtree and drops their colliders.
func (w *World) Remove(n *Node) {
	if n == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if p := n.parent; p != nil {
		p.children = without(p.children, n)
		n.parent = nil
	} else {
		w.roots = without(w.roots, n)
	}
	walk(n, func(x *Node) {
		delete(w.colliders, x)
		w.count--
	})
	metrics.SceneNodes.Set(float64(w.count))
}

// Len is the number of nodes in the scene.
func (w *World) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.count
}

// Colliders is the number of registered input targets.
func (w *World) Colliders() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.colliders)
}

// Find returns the first node named name, depth first.
func (w *World) Find(name string) *Node {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var found *Node
	for _, r := range w.roots {
		walk(r, func(x *Node) {
			if found == nil && x.Name == name {
				found = x
			}
		})
	}
	return found
}

// WorldTransform composes n's transform with its ancestors'.
func (w *World) WorldTransform(n *Node) geom.Transform {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return worldTransform(n)
}

func worldTransform(n *Node) geom.Transform {
	if n.parent == nil {
		return n.Transform
	}
	return worldTransform(n.parent).Then(n.Transform)
}

// HitTest returns the nearest enabled collider along r. Nearer colliders
// win; disabled subtrees are skipped.
func (w *World) HitTest(r geom.Ray) (Hit, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	best := Hit{Distance: math.Inf(1)}
	for n, c := range w.colliders {
		if !enabled(n) {
			continue
		}
		wt := worldTransform(n)
		box := geom.Box{
			Center: wt.Apply(c.Box.Center),
			Size:   c.Box.Size.Mul(wt.Scale),
		}
		if d, ok := box.Intersect(r); ok && d < best.Distance {
			best = Hit{Node: n, Distance: d}
		}
	}
	return best, best.Node != nil
}

func enabled(n *Node) bool {
	for x := n; x != nil; x = x.parent {
		if !x.Enabled {
			return false
		}
	}
	return true
}

func walk(n *Node, fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		walk(c, fn)
	}
}

func subtreeSize(n *Node) int {
	size := 0
	walk(n, func(*Node) { size++ })
	return size
}

func without(list []*Node, n *Node) []*Node {
	out := list[:0]
	for _, x := range list {
		if x != n {
			out = append(out, x)
		}
	}
	return out
}
