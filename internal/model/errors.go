package model

import "fmt"

// InputShapeError indicates the supplied solar profile does not match the
// required shape (exactly HoursPerYear non-negative, ordered values).
// Fatal pre-run, per spec.md §7.
type InputShapeError struct {
	Reason string
}

func (e *InputShapeError) Error() string {
	return fmt.Sprintf("input shape error: %s", e.Reason)
}

// InvariantViolation indicates an implementer bug: SOC left its bounds,
// daily cycles exceeded the cap, delivery was non-binary, or bess_MW sign
// was inconsistent with state. Per spec.md §7 this halts the affected run;
// it is raised as a panic (reserved for implementation bugs, not user
// input) and carries hour/branch context for diagnosis.
type InvariantViolation struct {
	Message string
	Hour    int
	Branch  string
}

func (e *InvariantViolation) Error() string {
	if e.Hour == 0 && e.Branch == "" {
		return fmt.Sprintf("invariant violation: %s", e.Message)
	}
	return fmt.Sprintf("invariant violation at hour %d (branch %s): %s", e.Hour, e.Branch, e.Message)
}

// NewInvariantViolation builds a bare InvariantViolation without hour/branch
// context, for use deep inside battery primitives that don't know the
// calling hour. Callers in internal/dispatch should prefer
// NewInvariantViolationAt to attach that context before it escapes.
func NewInvariantViolation(msg string) *InvariantViolation {
	return &InvariantViolation{Message: msg}
}

// NewInvariantViolationAt attaches hour/branch context to an invariant
// violation raised by the dispatch decision layer.
func NewInvariantViolationAt(hour int, branch, msg string) *InvariantViolation {
	return &InvariantViolation{Message: msg, Hour: hour, Branch: branch}
}
