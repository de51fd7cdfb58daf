// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ManuGH/openimmersive/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, c.Write(m))
	return m.GetCounter().GetValue()
}

func TestRecordSessionFailureDefaultsReason(t *testing.T) {
	before := counterValue(t, metrics.SessionFailuresTotal.WithLabelValues("unknown"))
	metrics.RecordSessionFailure("")
	after := counterValue(t, metrics.SessionFailuresTotal.WithLabelValues("unknown"))
	assert.Equal(t, before+1, after)
}

func TestRecordMeshBuildOnlyObservesSuccess(t *testing.T) {
	metrics.RecordMeshBuild("equirectangular", metrics.OutcomeCancelled, time.Second)
	metrics.RecordMeshBuild("equirectangular", metrics.OutcomeOK, 5*time.Millisecond)

	m := &dto.Metric{}
	h := metrics.MeshBuildDuration.WithLabelValues("equirectangular").(prometheus.Histogram)
	require.NoError(t, h.Write(m))
	assert.GreaterOrEqual(t, m.GetHistogram().GetSampleCount(), uint64(1))
	assert.Less(t, m.GetHistogram().GetSampleSum(), 1.0)
}

func TestPromhttpExposure(t *testing.T) {
	metrics.RecordPoseSample(true)
	metrics.IncBusDropReason("", "")

	rec := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	text := string(body)
	assert.True(t, strings.Contains(text, `openimmersive_pose_samples_total{result="valid"}`))
	assert.True(t, strings.Contains(text, `openimmersive_bus_dropped_total{reason="unknown",topic="unknown"}`))
}
