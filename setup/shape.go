// Package setup generates, persists and loads the proving and verifying keys
// of every circuit of the recursion for a committee capacity (the shape).
//
// Keys are bound to their shape through a shape identifier that covers the
// circuit name, its curve, its constraint and public input counts and the
// committee capacity. Loading keys, proving and verifying all check the
// identifier before doing any work.
package setup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/vocdoni/albatross-zkp/committee"
	"github.com/vocdoni/albatross-zkp/types"
)

// Shape is the committee capacity every circuit is compiled for.
type Shape struct {
	Validators int `json:"validators"`
}

// Validate checks the capacity is a power of two not above
// committee.MaxCapacity.
func (s Shape) Validate() error {
	if !committee.IsPowerOfTwo(s.Validators) || s.Validators > committee.MaxCapacity {
		return types.Malformed("invalid committee capacity %d", s.Validators)
	}
	return nil
}

// Depth returns the depth of the committee tree of the shape.
func (s Shape) Depth() int {
	return committee.Depth(s.Validators)
}

func (s Shape) String() string {
	return fmt.Sprintf("v%d", s.Validators)
}

// ShapeID returns the canonical identifier of a compiled circuit: a readable
// description followed by a digest of it.
func ShapeID(circuit string, curve ecc.ID, constraints, publics, validators int) string {
	canonical := fmt.Sprintf("%s/%s/c%d/p%d/v%d", circuit, curve, constraints, publics, validators)
	h := sha256.Sum256([]byte(canonical))
	return canonical + "#" + hex.EncodeToString(h[:8])
}

var shapeLocks sync.Map

// Lock returns the lock of a shape. Bootstrap holds it for writing; loading
// keys and proving with them hold it for reading.
func Lock(shape Shape) *sync.RWMutex {
	l, _ := shapeLocks.LoadOrStore(shape.Validators, &sync.RWMutex{})
	return l.(*sync.RWMutex)
}
