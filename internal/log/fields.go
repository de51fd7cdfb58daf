// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldSessionID = "session_id"
	FieldStreamID  = "stream_id"
	FieldTaskID    = "task_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Projection / mesh fields
	FieldProjection  = "projection"
	FieldFieldOfView = "fov_deg"
	FieldLayout      = "layout"
	FieldVertices    = "vertices"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"
	FieldReason   = "reason"

	// Path / URL fields
	FieldPath = "path"
	FieldURL  = "url"
)
