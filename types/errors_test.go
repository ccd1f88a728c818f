package types

import (
	"errors"
	"fmt"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestConstraintViolationClassification(t *testing.T) {
	c := qt.New(t)

	inner := errors.New("pairing check failed")
	err := fmt.Errorf("prove block 3: %w", NewConstraintViolation("macroblock", inner))

	c.Assert(errors.Is(err, ErrConstraintViolation), qt.IsTrue)
	c.Assert(errors.Is(err, inner), qt.IsTrue)
	c.Assert(errors.Is(err, ErrBackendResource), qt.IsFalse)

	var cv *ConstraintViolationError
	c.Assert(errors.As(err, &cv), qt.IsTrue)
	c.Assert(cv.Circuit, qt.Equals, "macroblock")
	c.Assert(err, qt.ErrorMatches, "prove block 3: constraint violation: macroblock: pairing check failed")
}

func TestDerivedSentinels(t *testing.T) {
	c := qt.New(t)

	c.Assert(errors.Is(ErrEmptySignerSet, ErrMalformedInput), qt.IsTrue)
	c.Assert(errors.Is(ErrArtifactCorrupted, ErrShapeMismatch), qt.IsTrue)
	c.Assert(errors.Is(Malformed("committee has %d validators", 0), ErrMalformedInput), qt.IsTrue)
}
