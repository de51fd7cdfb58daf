// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package validate accumulates configuration validation errors so a bad
// file reports every problem at once.
package validate

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

// Error is one rejected field.
type Error struct {
	Field   string
	Value   any
	Message string
}

func (e Error) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// ValidationError is returned by Validator.Err.
type ValidationError struct {
	errors []Error
}

// Errors returns the individual field errors in the order they were found.
func (e ValidationError) Errors() []Error {
	return e.errors
}

func (e ValidationError) Error() string {
	var b strings.Builder
	for i, fe := range e.errors {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(fe.Error())
	}
	return b.String()
}

// Unwrap exposes the field errors to errors.Is and errors.As.
func (e ValidationError) Unwrap() []error {
	out := make([]error, len(e.errors))
	for i, fe := range e.errors {
		out[i] = fe
	}
	return out
}

// Validator collects field errors. The zero value is ready to use.
type Validator struct {
	errors []Error
}

func New() *Validator {
	return &Validator{}
}

// AddError records a failure for field.
func (v *Validator) AddError(field, message string, value any) {
	v.errors = append(v.errors, Error{Field: field, Value: value, Message: message})
}

func (v *Validator) failf(field string, value any, format string, args ...any) {
	v.AddError(field, fmt.Sprintf(format, args...), value)
}

func (v *Validator) IsValid() bool {
	return len(v.errors) == 0
}

func (v *Validator) Errors() []Error {
	return v.errors
}

// Err returns nil when valid, otherwise a ValidationError holding a copy
// of the collected errors.
func (v *Validator) Err() error {
	if v.IsValid() {
		return nil
	}
	return ValidationError{errors: slices.Clone(v.errors)}
}

// Range checks minVal <= value <= maxVal.
func (v *Validator) Range(field string, value, minVal, maxVal int) {
	if value < minVal || value > maxVal {
		v.failf(field, value, "value must be between %d and %d, got %d", minVal, maxVal, value)
	}
}

func (v *Validator) Positive(field string, value int) {
	if value <= 0 {
		v.failf(field, value, "value must be positive, got %d", value)
	}
}

func (v *Validator) OneOf(field, value string, allowed []string) {
	if !slices.Contains(allowed, value) {
		v.failf(field, value, "value must be one of %v, got %q", allowed, value)
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func (v *Validator) PositiveFloat(field string, value float64) {
	if !finite(value) || value <= 0 {
		v.failf(field, value, "value must be a positive number, got %v", value)
	}
}

// FloatRange checks minVal < value <= maxVal; an angle or extent of zero
// is never usable.
func (v *Validator) FloatRange(field string, value, minVal, maxVal float64) {
	if math.IsNaN(value) || value <= minVal || value > maxVal {
		v.failf(field, value, "value must be in (%v, %v], got %v", minVal, maxVal, value)
	}
}

// Fraction checks 0 <= value <= 1.
func (v *Validator) Fraction(field string, value float64) {
	if math.IsNaN(value) || value < 0 || value > 1 {
		v.failf(field, value, "value must be between 0 and 1, got %v", value)
	}
}

// Finite checks every component of a position.
func (v *Validator) Finite(field string, value [3]float64) {
	if !slices.ContainsFunc(value[:], func(c float64) bool { return !finite(c) }) {
		return
	}
	v.failf(field, value, "components must be finite, got %v", value)
}

// Extent checks every component of a size is positive.
func (v *Validator) Extent(field string, value [3]float64) {
	if !slices.ContainsFunc(value[:], func(c float64) bool { return !finite(c) || c <= 0 }) {
		return
	}
	v.failf(field, value, "every dimension must be positive, got %v", value)
}

func (v *Validator) PositiveDuration(field string, d time.Duration) {
	if d <= 0 {
		v.failf(field, d, "duration must be positive, got %s", d)
	}
}

// Custom records the error returned by check, if any.
func (v *Validator) Custom(field string, value any, check func(any) error) {
	if err := check(value); err != nil {
		v.AddError(field, err.Error(), value)
	}
}
