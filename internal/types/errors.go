// Package types provides shared definitions used across resumeiq packages.
// This package exists to break import cycles between the pipeline, registry,
// and evaluation layers. The error taxonomy lives here because every layer
// classifies failures against it.
package types

import (
	"errors"
	"fmt"
)

// Sentinel categories for errors.Is checks. The typed errors below wrap
// these so callers can classify without knowing the concrete type.
var (
	ErrValidation             = errors.New("validation error")
	ErrCitationViolation      = errors.New("citation violation")
	ErrThresholdNotMet        = errors.New("threshold not met")
	ErrProviderFailure        = errors.New("provider failure")
	ErrConcurrentModification = errors.New("concurrent modification")
)

// ValidationError reports bad input to a constructor or operation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Reason)
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError builds a ValidationError for a named field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// CitationViolation reports a judgment constructed without supporting
// signal citations. This is fatal at construction; uncited judgments
// must never exist.
type CitationViolation struct {
	JudgmentType string
}

func (e *CitationViolation) Error() string {
	return fmt.Sprintf("citation violation: judgment %q cites no signals", e.JudgmentType)
}

func (e *CitationViolation) Unwrap() error { return ErrCitationViolation }

// ThresholdNotMet reports a promotion gate failure and which gate failed.
type ThresholdNotMet struct {
	Gate      string // "quality", "safety", "improvement", "regression"
	Actual    float64
	Required  float64
	Target    string
	Direction string // "min" or "max"
}

func (e *ThresholdNotMet) Error() string {
	dir := "need >="
	if e.Direction == "max" {
		dir = "need <="
	}
	return fmt.Sprintf("threshold not met: %s gate for %s: got %.3f, %s %.3f",
		e.Gate, e.Target, e.Actual, dir, e.Required)
}

func (e *ThresholdNotMet) Unwrap() error { return ErrThresholdNotMet }

// ProviderFailure wraps transport, timeout, and parse errors from LLM
// providers. Where a heuristic fallback exists the caller degrades and
// logs; where none exists this surfaces to the user.
type ProviderFailure struct {
	Provider string
	Op       string
	Err      error
}

func (e *ProviderFailure) Error() string {
	return fmt.Sprintf("provider failure: %s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderFailure) Unwrap() error { return ErrProviderFailure }

// Cause returns the wrapped transport error.
func (e *ProviderFailure) Cause() error { return e.Err }

// ConcurrentModificationError reports a second in-flight mutation on the
// same registry id. The registry fails fast instead of queueing.
type ConcurrentModificationError struct {
	Registry string
	ID       string
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("concurrent modification: %s registry: %s is being modified", e.Registry, e.ID)
}

func (e *ConcurrentModificationError) Unwrap() error { return ErrConcurrentModification }
