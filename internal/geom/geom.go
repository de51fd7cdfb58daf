// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package geom holds the small amount of vector math shared by the mesh,
// pose and scene packages. Right-handed, +Y up, viewer looks down -Z.
package geom

import "math"

// Vec2 is a texture coordinate.
type Vec2 struct {
	U, V float32
}

// Vec3 is a point or direction in metres.
type Vec3 struct {
	X, Y, Z float64
}

func V3(x, y, z float64) Vec3 { return Vec3{X: x, Y: y, Z: z} }

// V3From converts a config triple.
func V3From(a [3]float64) Vec3 { return Vec3{X: a[0], Y: a[1], Z: a[2]} }

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Mul(o Vec3) Vec3      { return Vec3{v.X * o.X, v.Y * o.Y, v.Z * o.Z} }
func (v Vec3) Dot(o Vec3) float64   { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) Len() float64         { return math.Sqrt(v.Dot(v)) }

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// Norm returns the unit vector, or the zero vector for a zero input.
func (v Vec3) Norm() Vec3 {
	l := v.Len()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// Quat is a unit rotation quaternion.
type Quat struct {
	X, Y, Z, W float64
}

// Identity is the no-rotation quaternion.
var Identity = Quat{W: 1}

// AxisAngle builds a rotation of rad radians around axis.
func AxisAngle(axis Vec3, rad float64) Quat {
	a := axis.Norm()
	s := math.Sin(rad / 2)
	return Quat{X: a.X * s, Y: a.Y * s, Z: a.Z * s, W: math.Cos(rad / 2)}
}

// Mul composes q then o (o is applied first).
func (q Quat) Mul(o Quat) Quat {
	return Quat{
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
	}
}

// Rotate applies q to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	u := Vec3{q.X, q.Y, q.Z}
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}

// Conj is the inverse of a unit quaternion.
func (q Quat) Conj() Quat { return Quat{X: -q.X, Y: -q.Y, Z: -q.Z, W: q.W} }

// Transform is translation, rotation and scale applied as S, then R, then T.
type Transform struct {
	Translation Vec3
	Rotation    Quat
	Scale       Vec3
}

// IdentityTransform leaves points unchanged.
func IdentityTransform() Transform {
	return Transform{Rotation: Identity, Scale: Vec3{1, 1, 1}}
}

// At returns an identity transform translated to p.
func At(p Vec3) Transform {
	t := IdentityTransform()
	t.Translation = p
	return t
}

// Apply maps a local point into the parent space.
func (t Transform) Apply(p Vec3) Vec3 {
	return t.Rotation.Rotate(p.Mul(t.Scale)).Add(t.Translation)
}

// InverseApply maps a parent-space point into local space. Zero scale
// components map to zero.
func (t Transform) InverseApply(p Vec3) Vec3 {
	l := t.Rotation.Conj().Rotate(p.Sub(t.Translation))
	div := func(a, s float64) float64 {
		if s == 0 {
			return 0
		}
		return a / s
	}
	return Vec3{div(l.X, t.Scale.X), div(l.Y, t.Scale.Y), div(l.Z, t.Scale.Z)}
}

// Then composes child into t, yielding child's transform in t's parent space.
// Non-uniform scale under rotation is not supported; scale multiplies per axis.
func (t Transform) Then(child Transform) Transform {
	return Transform{
		Translation: t.Apply(child.Translation),
		Rotation:    t.Rotation.Mul(child.Rotation),
		Scale:       t.Scale.Mul(child.Scale),
	}
}

// Ray is a half-line used for tap hit testing.
type Ray struct {
	Origin    Vec3
	Direction Vec3
}

// Box is an axis-aligned box given by its centre and full extents.
type Box struct {
	Center Vec3
	Size   Vec3
}

// Intersect returns the entry distance along r, using the slab method.
func (b Box) Intersect(r Ray) (float64, bool) {
	half := b.Size.Scale(0.5)
	lo := b.Center.Sub(half)
	hi := b.Center.Add(half)
	o := [3]float64{r.Origin.X, r.Origin.Y, r.Origin.Z}
	d := [3]float64{r.Direction.X, r.Direction.Y, r.Direction.Z}
	mn := [3]float64{lo.X, lo.Y, lo.Z}
	mx := [3]float64{hi.X, hi.Y, hi.Z}

	tmin, tmax := math.Inf(-1), math.Inf(1)
	for i := 0; i < 3; i++ {
		if d[i] == 0 {
			if o[i] < mn[i] || o[i] > mx[i] {
				return 0, false
			}
			continue
		}
		t1 := (mn[i] - o[i]) / d[i]
		t2 := (mx[i] - o[i]) / d[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
	}
	if tmax < math.Max(tmin, 0) {
		return 0, false
	}
	if tmin < 0 {
		return 0, true
	}
	return tmin, true
}
