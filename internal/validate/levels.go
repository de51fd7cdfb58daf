// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package validate

import (
	"fmt"
	"slices"
	"strings"
)

// LogLevel is a level name the logger accepts.
type LogLevel string

const (
	LogLevelTrace LogLevel = "trace"
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevels = []LogLevel{LogLevelTrace, LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError}

// ParseLogLevel accepts a level name in any case, surrounding space ignored.
func ParseLogLevel(s string) (LogLevel, error) {
	level := LogLevel(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(logLevels, level) {
		return "", fmt.Errorf("invalid log level %q (must be one of %v)", s, logLevels)
	}
	return level, nil
}

// LogLevel checks that value names a known level.
func (v *Validator) LogLevel(field, value string) {
	if _, err := ParseLogLevel(value); err != nil {
		v.AddError(field, err.Error(), value)
	}
}
