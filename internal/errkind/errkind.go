// Package errkind wraps stdlib errors with the five propagation kinds
// the repair orchestrator distinguishes, matching the teacher's convention of typed
// sentinel errors inspected with errors.Is/errors.As rather than a
// dedicated errors library.
package errkind

import (
	"errors"
	"fmt"
)

// Kind is one of the five error kinds in the propagation taxonomy.
// Each kind has distinct handling in internal/pipeline and
// internal/repair; see the Kind doc on each sentinel below.
type Kind int

const (
	// Fatal aborts the whole pipeline. No retry.
	Fatal Kind = iota
	// IterationLocal rolls back the current repair iteration only.
	IterationLocal
	// StrategyLocal falls through to the next repair strategy.
	StrategyLocal
	// Recoverable is logged and the caller continues (LLM transient
	// failures retry once before escalating).
	Recoverable
	// Advisory is recorded but never surfaced to the user.
	Advisory
)

func (k Kind) String() string {
	switch k {
	case Fatal:
		return "fatal"
	case IterationLocal:
		return "iteration_local"
	case StrategyLocal:
		return "strategy_local"
	case Recoverable:
		return "recoverable"
	case Advisory:
		return "advisory"
	default:
		return "unknown"
	}
}

// Error is a stdlib error annotated with a Kind and an optional
// wrapped cause, supporting errors.Is/errors.As through Unwrap.
type Error struct {
	Kind   Kind
	Op     string // component/operation that raised it, e.g. "lowering.validate"
	Reason string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Reason, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs an *Error of the given kind.
func New(kind Kind, op, reason string) *Error {
	return &Error{Kind: kind, Op: op, Reason: reason}
}

// Wrap constructs an *Error of the given kind wrapping cause.
func Wrap(kind Kind, op, reason string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Reason: reason, Cause: cause}
}

// KindOf extracts the Kind from err if it (or something it wraps) is
// an *Error, defaulting to Recoverable for plain errors — an
// unclassified failure should never silently abort the pipeline.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Recoverable
}

// IsFatal reports whether err (or a wrapped cause) is Fatal.
func IsFatal(err error) bool {
	return KindOf(err) == Fatal
}
