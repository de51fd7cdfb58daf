// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"math"
	"time"

	"github.com/ManuGH/openimmersive/internal/bus"
	"github.com/ManuGH/openimmersive/internal/geom"
	"github.com/ManuGH/openimmersive/internal/playback"
	"github.com/ManuGH/openimmersive/internal/pose"
)

// Report is the JSON summary printed after a run.
type Report struct {
	Title        string            `json:"title"`
	Source       string            `json:"source"`
	StartedAt    time.Time         `json:"startedAt"`
	EndedAt      time.Time         `json:"endedAt,omitempty"`
	Transitions  []string          `json:"transitions"`
	FinalState   string            `json:"finalState"`
	Projection   *ProjectionReport `json:"projection,omitempty"`
	Timecode     string            `json:"timecode,omitempty"`
	Anchor       geom.Vec3         `json:"anchor"`
	TapTarget    string            `json:"tapTarget,omitempty"`
	PanelVisible bool              `json:"panelVisible"`
	SceneNodes   int               `json:"sceneNodes"`
	Reason       string            `json:"reason,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// ProjectionReport mirrors projection.Resolved with stable JSON names.
type ProjectionReport struct {
	Kind       string  `json:"kind"`
	Degrees    float64 `json:"degrees"`
	Horizontal float64 `json:"horizontalRadians"`
	Vertical   float64 `json:"verticalRadians"`
	Layout     string  `json:"layout"`
}

// drain appends the transitions already queued on sub.
func drain(sub bus.Subscriber, r *Report) {
	for {
		select {
		case msg, ok := <-sub.C():
			if !ok {
				return
			}
			if ev, ok := msg.(playback.StateChanged); ok {
				r.Transitions = append(r.Transitions, string(ev.To))
			}
		default:
			return
		}
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// orbitRadius is how far the synthetic head sways from the origin.
const orbitRadius = 0.05

// newOrbit returns a pose source whose head sways slowly around the
// standing position at the given eye height.
func newOrbit(start time.Time, height float64) pose.Source {
	return pose.SourceFunc(func(_ context.Context, at time.Time) (pose.HeadPose, bool) {
		t := at.Sub(start).Seconds()
		return pose.HeadPose{
			Position:    geom.V3(orbitRadius*math.Cos(t), height, orbitRadius*math.Sin(t)),
			Orientation: geom.Identity,
		}, true
	})
}
