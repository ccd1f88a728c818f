package types

import (
	"errors"
	"fmt"
)

// Error taxonomy of the proving pipeline. Every error returned by the
// circuits, setup and driver packages wraps exactly one of these sentinels,
// so callers can classify failures with errors.Is.
var (
	// ErrConstraintViolation means a witness does not satisfy a circuit. It
	// is permanent and never retried.
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrShapeMismatch means key and circuit shape identifiers disagree. It
	// is fatal before any proving or verifying attempt.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrBackendResource is a transient failure of the proving backend. It
	// may be retried with identical inputs.
	ErrBackendResource = errors.New("backend resource error")
	// ErrMalformedInput means caller supplied data violates a structural
	// invariant. It is reported before any witness is built.
	ErrMalformedInput = errors.New("malformed input")

	// ErrEmptySignerSet is returned when a signer bitmap selects no weight.
	ErrEmptySignerSet = fmt.Errorf("%w: empty signer set", ErrMalformedInput)
	// ErrArtifactCorrupted is returned when a setup artifact does not match
	// its content hash.
	ErrArtifactCorrupted = fmt.Errorf("%w: artifact content hash mismatch", ErrShapeMismatch)
)

// ConstraintViolationError reports which subcircuit rejected the witness.
type ConstraintViolationError struct {
	Circuit string
	Err     error
}

// NewConstraintViolation wraps err as a violation of the named circuit.
func NewConstraintViolation(circuit string, err error) *ConstraintViolationError {
	return &ConstraintViolationError{Circuit: circuit, Err: err}
}

func (e *ConstraintViolationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrConstraintViolation, e.Circuit)
	}
	return fmt.Sprintf("%s: %s: %v", ErrConstraintViolation, e.Circuit, e.Err)
}

func (e *ConstraintViolationError) Unwrap() error {
	return e.Err
}

func (e *ConstraintViolationError) Is(target error) bool {
	return target == ErrConstraintViolation
}

// Malformed returns an ErrMalformedInput with the formatted detail.
func Malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedInput, fmt.Sprintf(format, args...))
}
