// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package playback

// Bus topics.
const (
	TopicState = "playback.state"
	TopicPanel = "playback.panel"
	TopicTime  = "playback.time"
)

// StateChanged is published on TopicState for every transition.
type StateChanged struct {
	SessionID string
	From      State
	To        State
	// Reason is set on transitions into Stopped.
	Reason string
	Err    error
}

// PanelChanged is published on TopicPanel.
type PanelChanged struct {
	Visible bool
}

// TimeChanged is published on TopicTime as the engine reports progress.
type TimeChanged struct {
	SessionID string
	Time      Timecode
}
