// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Mesh build outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeCancelled = "cancelled"
	OutcomeDiscarded = "discarded"
	OutcomeNative    = "native"
)

var (
	MeshBuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "openimmersive_mesh_builds_total",
		Help: "Mesh builds by projection kind and outcome.",
	}, []string{"kind", "outcome"})

	MeshBuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "openimmersive_mesh_build_duration_seconds",
		Help:    "Wall time spent synthesising display geometry.",
		Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"kind"})

	PoseSamplesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "openimmersive_pose_samples_total",
		Help: "Head pose samples taken per tick, by result (valid/absent).",
	}, []string{"result"})

	SceneNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "openimmersive_scene_nodes",
		Help: "Nodes currently registered in the immersive scene.",
	})
)

// RecordMeshBuild records a finished build attempt.
func RecordMeshBuild(kind, outcome string, elapsed time.Duration) {
	MeshBuildsTotal.WithLabelValues(kind, outcome).Inc()
	if outcome == OutcomeOK {
		MeshBuildDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
	}
}

// RecordPoseSample records one tracker tick.
func RecordPoseSample(valid bool) {
	if valid {
		PoseSamplesTotal.WithLabelValues("valid").Inc()
		return
	}
	PoseSamplesTotal.WithLabelValues("absent").Inc()
}
