// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package playback

import (
	"fmt"
	"time"
)

// NoTimecodeText is shown before the engine reports a position.
const NoTimecodeText = "--:--:--.---"

// Timecode is a playback position. The zero value means no position has
// been reported yet, which is distinct from a reported position of zero.
type Timecode struct {
	Position time.Duration
	Valid    bool
}

// At returns a reported position.
func At(pos time.Duration) Timecode {
	if pos < 0 {
		pos = 0
	}
	return Timecode{Position: pos, Valid: true}
}

// String formats as HH:MM:SS.mmm.
func (t Timecode) String() string {
	if !t.Valid {
		return NoTimecodeText
	}
	ms := t.Position.Milliseconds()
	h := ms / 3_600_000
	m := ms / 60_000 % 60
	s := ms / 1000 % 60
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms%1000)
}
