// Package pedersen is the in-circuit counterpart of crypto/pedersen. It must
// only be used in BW6-761 circuits, where the ed_bw6761 curve arithmetic is
// native. For the same inputs and parameters it produces exactly the same
// field element as the native implementation.
package pedersen

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	tedwards "github.com/consensys/gnark-crypto/ecc/twistededwards"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/native/twistededwards"
	"github.com/consensys/gnark/std/math/bits"
	cpedersen "github.com/vocdoni/albatross-zkp/crypto/pedersen"
)

// Committer computes Pedersen commitments inside a circuit.
type Committer struct {
	api        frontend.API
	curve      twistededwards.Curve
	generators []twistededwards.Point
}

// NewCommitter returns a Committer for the given parameters. It fails if
// the circuit is not defined over the BW6-761 scalar field.
func NewCommitter(api frontend.API, params *cpedersen.Params) (*Committer, error) {
	if api.Compiler().Field().Cmp(ecc.BW6_761.ScalarField()) != 0 {
		return nil, fmt.Errorf("pedersen commitments require a BW6-761 circuit")
	}
	curve, err := twistededwards.NewEdCurve(api, tedwards.BW6_761)
	if err != nil {
		return nil, fmt.Errorf("init ed_bw6761: %w", err)
	}
	gens := make([]twistededwards.Point, params.Len())
	for i := range gens {
		g := params.Generator(i)
		gens[i] = twistededwards.Point{X: g.X.String(), Y: g.Y.String()}
	}
	return &Committer{api: api, curve: curve, generators: gens}, nil
}

// CommitChunks constrains every chunk to ChunkBits bits and returns the x
// coordinate of the commitment.
func (c *Committer) CommitChunks(chunks ...frontend.Variable) (frontend.Variable, error) {
	if len(chunks) > len(c.generators) {
		return nil, fmt.Errorf("%d chunks exceed the %d available generators", len(chunks), len(c.generators))
	}
	acc := twistededwards.Point{X: 0, Y: 1}
	for i, chunk := range chunks {
		c.api.ToBinary(chunk, cpedersen.ChunkBits)
		acc = c.curve.Add(acc, c.curve.ScalarMul(c.generators[i], chunk))
	}
	return acc.X, nil
}

// Split returns the low ChunkBits bits of e and the remaining high bits,
// using a canonical decomposition of e.
func (c *Committer) Split(e frontend.Variable) (lo, hi frontend.Variable) {
	b := bits.ToBinary(c.api, e)
	return bits.FromBinary(c.api, b[:cpedersen.ChunkBits]), bits.FromBinary(c.api, b[cpedersen.ChunkBits:])
}

// Commit splits every element into two chunks and commits to them.
func (c *Committer) Commit(elems ...frontend.Variable) (frontend.Variable, error) {
	chunks := make([]frontend.Variable, 0, len(elems)*cpedersen.ChunksPerElement)
	for _, e := range elems {
		lo, hi := c.Split(e)
		chunks = append(chunks, lo, hi)
	}
	return c.CommitChunks(chunks...)
}

// CommitDomain commits to the domain tag followed by the elements.
func (c *Committer) CommitDomain(d cpedersen.Domain, elems ...frontend.Variable) (frontend.Variable, error) {
	return c.Commit(append([]frontend.Variable{uint64(d)}, elems...)...)
}

// Digest returns the low ChunkBits bits of x.
func (c *Committer) Digest(x frontend.Variable) frontend.Variable {
	lo, _ := c.Split(x)
	return lo
}

// AssertIsDigest constrains v to fit in a digest.
func (c *Committer) AssertIsDigest(v frontend.Variable) {
	c.api.ToBinary(v, cpedersen.ChunkBits)
}
