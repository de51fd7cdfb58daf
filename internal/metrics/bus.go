// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BusDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "openimmersive_bus_dropped_total",
		Help: "Total number of in-memory bus message drops by topic and reason",
	}, []string{"topic", "reason"})

	LoopQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "openimmersive_loop_queue_depth",
		Help: "Work items waiting to run on the scene-update loop.",
	})

	LoopRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "openimmersive_loop_rejected_total",
		Help: "Work items refused because the scene-update loop was closed or full.",
	})
)

// IncBusDropReason records a dropped bus message with a concrete reason.
func IncBusDropReason(topic, reason string) {
	if topic == "" {
		topic = "unknown"
	}
	if reason == "" {
		reason = "unknown"
	}
	BusDroppedTotal.WithLabelValues(topic, reason).Inc()
}
