// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package playback

import "github.com/ManuGH/openimmersive/internal/fsm"

// State is the playback lifecycle visible to the host.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
	StateStopped State = "stopped"
)

// Active reports whether a session owns resources in this state.
func (s State) Active() bool {
	switch s {
	case StateLoading, StatePlaying, StatePaused:
		return true
	}
	return false
}

// Event drives the lifecycle.
type Event string

const (
	EvOpen  Event = "open"
	EvReady Event = "ready"
	EvPlay  Event = "play"
	EvPause Event = "pause"
	EvStop  Event = "stop"
	EvReset Event = "reset"
)

// transitions is the full lifecycle table. Stop is accepted from every
// state that holds a session; Stopped only leaves through reset.
var transitions = []fsm.Transition[State, Event]{
	{From: StateIdle, Event: EvOpen, To: StateLoading},
	{From: StateLoading, Event: EvReady, To: StatePlaying},
	{From: StatePlaying, Event: EvPause, To: StatePaused},
	{From: StatePaused, Event: EvPlay, To: StatePlaying},

	{From: StateLoading, Event: EvStop, To: StateStopped},
	{From: StatePlaying, Event: EvStop, To: StateStopped},
	{From: StatePaused, Event: EvStop, To: StateStopped},

	{From: StateStopped, Event: EvReset, To: StateIdle},
}

func newMachine() *fsm.Machine[State, Event] {
	return fsm.MustNew(StateIdle, transitions)
}
