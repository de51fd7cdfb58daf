// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package engine

import "github.com/ManuGH/openimmersive/internal/projection"

// ResolvedProjection is the resolved projection of the playing session;
// OK is false while nothing is playing.
type ResolvedProjection struct {
	projection.Resolved
	OK bool
}
