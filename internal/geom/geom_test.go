// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package geom

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestQuatRotate(t *testing.T) {
	q := AxisAngle(V3(0, 1, 0), math.Pi/2)
	got := q.Rotate(V3(0, 0, -1))
	if diff := cmp.Diff(V3(-1, 0, 0), got, approx); diff != "" {
		t.Errorf("rotate mismatch (-want +got):\n%s", diff)
	}
}

func TestTransformThen(t *testing.T) {
	parent := At(V3(0, 1.2, 0))
	child := At(V3(0, -0.5, -0.7))
	got := parent.Then(child).Apply(Vec3{})
	if diff := cmp.Diff(V3(0, 0.7, -0.7), got, approx); diff != "" {
		t.Errorf("world position mismatch (-want +got):\n%s", diff)
	}
}

func TestBoxIntersect(t *testing.T) {
	tests := []struct {
		name   string
		box    Box
		ray    Ray
		hit    bool
		wantAt float64
	}{
		{
			name:   "straight ahead",
			box:    Box{Center: V3(0, 0, -5), Size: V3(2, 2, 1)},
			ray:    Ray{Direction: V3(0, 0, -1)},
			hit:    true,
			wantAt: 4.5,
		},
		{
			name: "behind origin",
			box:  Box{Center: V3(0, 0, 5), Size: V3(2, 2, 1)},
			ray:  Ray{Direction: V3(0, 0, -1)},
		},
		{
			name: "parallel miss",
			box:  Box{Center: V3(3, 0, -5), Size: V3(2, 2, 1)},
			ray:  Ray{Direction: V3(0, 0, -1)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at, ok := tt.box.Intersect(tt.ray)
			if ok != tt.hit {
				t.Fatalf("hit = %v, want %v", ok, tt.hit)
			}
			if ok && math.Abs(at-tt.wantAt) > 1e-9 {
				t.Errorf("distance = %v, want %v", at, tt.wantAt)
			}
		})
	}
}

func TestInverseApplyRoundTrip(t *testing.T) {
	tr := Transform{
		Translation: V3(1, 2, 3),
		Rotation:    AxisAngle(V3(0, 1, 0), 0.7),
		Scale:       V3(2, 2, 2),
	}
	p := V3(0.3, -0.5, -0.7)
	if diff := cmp.Diff(p, tr.InverseApply(tr.Apply(p)), approx); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
