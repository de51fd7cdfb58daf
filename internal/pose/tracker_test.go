// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package pose

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ManuGH/openimmersive/internal/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type scriptedSource struct {
	mu    sync.Mutex
	poses []HeadPose
	oks   []bool
	calls int
}

func (s *scriptedSource) HeadPose(context.Context, time.Time) (HeadPose, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	if i >= len(s.oks) {
		return HeadPose{}, false
	}
	return s.poses[i], s.oks[i]
}

func at(x, y, z float64) HeadPose {
	return HeadPose{Position: geom.V3(x, y, z), Orientation: geom.Identity}
}

func TestCurrentAbsentBeforeFirstSample(t *testing.T) {
	src := &scriptedSource{poses: []HeadPose{{}, at(0, 1.6, 0)}, oks: []bool{false, true}}
	tr := NewTracker(src)

	_, ok := tr.Current()
	assert.False(t, ok)

	var got []HeadPose
	tr.Start(func(p HeadPose) { got = append(got, p) })

	tr.Tick(context.Background(), time.Now())
	_, ok = tr.Current()
	assert.False(t, ok, "absent sample must not look like a pose at the origin")
	assert.Empty(t, got)

	tr.Tick(context.Background(), time.Now())
	p, ok := tr.Current()
	require.True(t, ok)
	assert.Equal(t, at(0, 1.6, 0), p)
	assert.Equal(t, []HeadPose{at(0, 1.6, 0)}, got)
}

func TestOneSamplePerTick(t *testing.T) {
	src := &scriptedSource{
		poses: []HeadPose{at(0, 1, 0), at(0, 2, 0), at(0, 3, 0)},
		oks:   []bool{true, true, true},
	}
	tr := NewTracker(src)
	n := 0
	tr.Start(func(HeadPose) { n++ })

	for i := 0; i < 3; i++ {
		tr.Tick(context.Background(), time.Now())
	}
	assert.Equal(t, 3, src.calls)
	assert.Equal(t, 3, n)
	p, _ := tr.Current()
	assert.Equal(t, at(0, 3, 0), p)
}

func TestNoSamplingWhenStopped(t *testing.T) {
	src := &scriptedSource{poses: []HeadPose{at(1, 1, 1)}, oks: []bool{true}}
	tr := NewTracker(src)
	tr.Tick(context.Background(), time.Now())
	assert.Zero(t, src.calls)
}

func TestStopIsIdempotentAndFinal(t *testing.T) {
	src := SourceFunc(func(context.Context, time.Time) (HeadPose, bool) { return at(0, 1, 0), true })
	tr := NewTracker(src)
	calls := 0
	tr.Start(func(HeadPose) { calls++ })
	tr.Tick(context.Background(), time.Now())

	tr.Stop()
	tr.Stop()
	assert.False(t, tr.Running())

	tr.Tick(context.Background(), time.Now())
	assert.Equal(t, 1, calls)
	_, ok := tr.Current()
	assert.False(t, ok, "a stopped tracker forgets its pose")
}

func TestStopWaitsForInFlightListener(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	src := SourceFunc(func(context.Context, time.Time) (HeadPose, bool) { return at(0, 1, 0), true })
	tr := NewTracker(src)

	entered := make(chan struct{})
	release := make(chan struct{})
	var after atomic.Bool
	var stopped atomic.Bool
	tr.Start(func(HeadPose) {
		if stopped.Load() {
			after.Store(true)
		}
		select {
		case <-entered:
		default:
			close(entered)
		}
		<-release
	})

	tickDone := make(chan struct{})
	go func() {
		defer close(tickDone)
		tr.Tick(context.Background(), time.Now())
	}()
	<-entered

	stopDone := make(chan struct{})
	go func() {
		defer close(stopDone)
		tr.Stop()
		stopped.Store(true)
	}()

	select {
	case <-stopDone:
		t.Fatal("Stop returned while a listener call was in progress")
	case <-time.After(20 * time.Millisecond):
	}
	close(release)
	<-tickDone
	<-stopDone

	tr.Tick(context.Background(), time.Now())
	assert.False(t, after.Load())
}
