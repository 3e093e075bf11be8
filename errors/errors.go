// Package errors provides the typed failure taxonomy described in spec.md §7.
package errors

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Kind identifies which of the §7 error categories a LayoutError belongs to.
type Kind string

const (
	// InputInvalid: image unreadable, zero-sized, no saturated pixels.
	InputInvalid Kind = "input_invalid"
	// NoRoomsDetected: segmenter yields zero regions after noise filtering.
	NoRoomsDetected Kind = "no_rooms_detected"
	// ConstraintReferencesMissingItem: a constraint names an item absent from the spec.
	ConstraintReferencesMissingItem Kind = "constraint_references_missing_item"
	// InfeasibleLayout: the MIP feasibility stage failed.
	InfeasibleLayout Kind = "infeasible_layout"
	// SolverTimeout: no incumbent was found within the time limit.
	SolverTimeout Kind = "solver_timeout"
	// ClampImpossible: the room is narrower than the item plus margin (handled, not fatal).
	ClampImpossible Kind = "clamp_impossible"
)

// LayoutError is the standardized error type returned across component boundaries.
// Every component returns either a value or a *LayoutError carrying the originating
// component's tag, per §7's "each component returns a result that is either a value
// or a typed failure."
type LayoutError struct {
	Kind      Kind
	Component string
	Message   string
	Details   map[string]interface{}
	Timestamp time.Time
	Cause     error
}

// Error implements the error interface.
func (e *LayoutError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Component, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *LayoutError) Unwrap() error {
	return e.Cause
}

// Is reports equality by Kind, so callers can do errors.Is(err, &LayoutError{Kind: ...}).
func (e *LayoutError) Is(target error) bool {
	if t, ok := target.(*LayoutError); ok {
		return e.Kind == t.Kind
	}
	return false
}

// WithDetail attaches a structured detail field.
func (e *LayoutError) WithDetail(key string, value interface{}) *LayoutError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New constructs a LayoutError of the given kind for the given component.
func New(kind Kind, component, message string) *LayoutError {
	return &LayoutError{
		Kind:      kind,
		Component: component,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Wrap wraps an existing error into a LayoutError of the given kind.
func Wrap(err error, kind Kind, component, message string) *LayoutError {
	if err == nil {
		return nil
	}
	le := New(kind, component, message)
	le.Cause = err
	return le
}

// IsKind reports whether err is a *LayoutError of the given kind.
func IsKind(err error, kind Kind) bool {
	le, ok := err.(*LayoutError)
	return ok && le.Kind == kind
}

// LogError logs a LayoutError at the severity appropriate to its kind, the way
// core/backend/errors.LogError dispatches on ArxosError.Type.
func LogError(logger *zap.Logger, err error) {
	if err == nil || logger == nil {
		return
	}

	le, ok := err.(*LayoutError)
	if !ok {
		logger.Error("unhandled error", zap.Error(err))
		return
	}

	fields := []zap.Field{
		zap.String("kind", string(le.Kind)),
		zap.String("component", le.Component),
	}
	for k, v := range le.Details {
		fields = append(fields, zap.Any("detail_"+k, v))
	}
	fields = append(fields, zap.Error(err))

	switch le.Kind {
	case ConstraintReferencesMissingItem, ClampImpossible:
		logger.Info(le.Message, fields...)
	case NoRoomsDetected, InputInvalid, SolverTimeout:
		logger.Warn(le.Message, fields...)
	case InfeasibleLayout:
		logger.Error(le.Message, fields...)
	default:
		logger.Error(le.Message, fields...)
	}
}
