package graph

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic checking via errors.Is().
var (
	// ErrDuplicateID indicates a caller-supplied id collides with an existing one.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrInvalidReference indicates an operation references a node, pin,
	// connection, variable or comment that does not exist.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrTypeMismatch indicates a connection joins pins of incompatible kinds.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrFanInViolation indicates a second data connection into an input pin.
	ErrFanInViolation = errors.New("fan-in violation")

	// ErrValidationRejected indicates the batch produced error-level findings
	// and was discarded as a whole.
	ErrValidationRejected = errors.New("validation rejected")

	// ErrMalformedPlan indicates the assistant's structured output could not
	// be parsed into the primitive operation vocabulary.
	ErrMalformedPlan = errors.New("malformed plan")

	// ErrCollaboratorUnavailable indicates the language-model call itself
	// failed (timeout, transport, provider error).
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")

	// ErrVersionConflict indicates the batch was built against a stale
	// document version.
	ErrVersionConflict = errors.New("version conflict")
)

// OpError reports a primitive operation that failed its precondition.
// Index is the position of the offending operation in the batch.
type OpError struct {
	Index int
	Op    string
	Msg   string
	Err   error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("op %d (%s): %s: %s", e.Index, e.Op, e.Err.Error(), e.Msg)
}

func (e *OpError) Unwrap() error { return e.Err }

// PlanError reports a plan that could not be decoded into the operation
// vocabulary. Wraps ErrMalformedPlan.
type PlanError struct {
	Msg string
}

func (e *PlanError) Error() string {
	if e.Msg == "" {
		return ErrMalformedPlan.Error()
	}
	return fmt.Sprintf("%s: %s", ErrMalformedPlan.Error(), e.Msg)
}

func (e *PlanError) Unwrap() error { return ErrMalformedPlan }
