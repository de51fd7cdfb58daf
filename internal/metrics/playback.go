// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package metrics provides Prometheus metrics for the immersive playback engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// No session ids or URLs in labels.

var (
	SessionsOpenedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "openimmersive_sessions_opened_total",
		Help: "Total number of playback sessions opened, by requested projection.",
	}, []string{"projection"})

	SessionFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "openimmersive_session_failures_total",
		Help: "Total number of playback sessions that failed or were refused, by reason.",
	}, []string{"reason"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "openimmersive_active_sessions",
		Help: "Current number of open playback sessions (0 or 1).",
	})

	StateTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "openimmersive_state_transitions_total",
		Help: "Playback state machine transitions, by target state.",
	}, []string{"to"})

	AccessGrantReleasesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "openimmersive_access_grant_releases_total",
		Help: "Security-scoped access grants released on session teardown.",
	})
)

// RecordSessionOpened counts an accepted openSession call.
func RecordSessionOpened(projection string) {
	SessionsOpenedTotal.WithLabelValues(projection).Inc()
	ActiveSessions.Set(1)
}

// RecordSessionClosed marks the single session slot free.
func RecordSessionClosed() {
	ActiveSessions.Set(0)
}

// RecordSessionFailure counts a refused or failed session.
func RecordSessionFailure(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	SessionFailuresTotal.WithLabelValues(reason).Inc()
}

// RecordTransition counts a state change.
func RecordTransition(to string) {
	StateTransitionsTotal.WithLabelValues(to).Inc()
}

// RecordGrantRelease counts a released access grant.
func RecordGrantRelease() {
	AccessGrantReleasesTotal.Inc()
}
