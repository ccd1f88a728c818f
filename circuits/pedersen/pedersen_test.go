package pedersen

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bw6-761/fr"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/test"
	qt "github.com/frankban/quicktest"
	cpedersen "github.com/vocdoni/albatross-zkp/crypto/pedersen"
	"github.com/vocdoni/albatross-zkp/util"
)

const (
	batchSize = 25
	width     = 4
	// every round checks batchSize element commitments and batchSize chunk
	// commitments
	rounds      = 200
	shortRounds = 4
)

type diffCircuit struct {
	params *cpedersen.Params

	Elems        [batchSize][width]frontend.Variable
	Chunks       [batchSize][2 * width]frontend.Variable
	ElemCommits  [batchSize]frontend.Variable `gnark:",public"`
	ChunkCommits [batchSize]frontend.Variable `gnark:",public"`
	Digests      [batchSize]frontend.Variable `gnark:",public"`
}

func (c *diffCircuit) Define(api frontend.API) error {
	committer, err := NewCommitter(api, c.params)
	if err != nil {
		return err
	}
	for i := 0; i < batchSize; i++ {
		x, err := committer.Commit(c.Elems[i][:]...)
		if err != nil {
			return err
		}
		api.AssertIsEqual(x, c.ElemCommits[i])
		api.AssertIsEqual(committer.Digest(x), c.Digests[i])

		y, err := committer.CommitChunks(c.Chunks[i][:]...)
		if err != nil {
			return err
		}
		api.AssertIsEqual(y, c.ChunkCommits[i])
	}
	return nil
}

func randomAssignment(c *qt.C, params *cpedersen.Params) *diffCircuit {
	a := &diffCircuit{}
	for i := 0; i < batchSize; i++ {
		elems := make([]*big.Int, width)
		for j := range elems {
			elems[j] = util.RandomFieldElement(fr.Modulus())
			a.Elems[i][j] = elems[j]
		}
		// exercise the edges of the input range too
		if i == 0 {
			elems[0] = new(big.Int).Sub(fr.Modulus(), big.NewInt(1))
			elems[1] = big.NewInt(0)
			a.Elems[i][0], a.Elems[i][1] = elems[0], elems[1]
		}
		x, err := params.Commit(elems...)
		c.Assert(err, qt.IsNil)
		a.ElemCommits[i] = x
		a.Digests[i] = cpedersen.Digest(x)

		chunks := make([]*big.Int, 2*width)
		for j := range chunks {
			chunks[j] = util.RandomBits(cpedersen.ChunkBits)
			a.Chunks[i][j] = chunks[j]
		}
		y, err := params.CommitChunks(chunks...)
		c.Assert(err, qt.IsNil)
		a.ChunkCommits[i] = y
	}
	return a
}

func TestNativeCircuitEquivalence(t *testing.T) {
	c := qt.New(t)
	params := cpedersen.DefaultParams()
	n := rounds
	if testing.Short() {
		n = shortRounds
	}
	for r := 0; r < n; r++ {
		assignment := randomAssignment(c, params)
		err := test.IsSolved(&diffCircuit{params: params}, assignment, ecc.BW6_761.ScalarField())
		c.Assert(err, qt.IsNil, qt.Commentf("round %d", r))
	}
}

type chunkCircuit struct {
	params *cpedersen.Params
	Chunk  frontend.Variable
	Commit frontend.Variable `gnark:",public"`
}

func (c *chunkCircuit) Define(api frontend.API) error {
	committer, err := NewCommitter(api, c.params)
	if err != nil {
		return err
	}
	x, err := committer.CommitChunks(c.Chunk)
	if err != nil {
		return err
	}
	api.AssertIsEqual(x, c.Commit)
	return nil
}

func TestChunkRangeIsEnforced(t *testing.T) {
	c := qt.New(t)
	params := cpedersen.DefaultParams()

	// a chunk of 2^248 would be accepted by plain scalar multiplication, so
	// compute the expected point by hand
	big248 := new(big.Int).Lsh(big.NewInt(1), cpedersen.ChunkBits)
	g := params.Generator(0)
	g.ScalarMultiplication(&g, big248)
	err := test.IsSolved(&chunkCircuit{params: params}, &chunkCircuit{
		Chunk:  big248,
		Commit: g.X.BigInt(new(big.Int)),
	}, ecc.BW6_761.ScalarField())
	c.Assert(err, qt.IsNotNil)

	max := new(big.Int).Sub(big248, big.NewInt(1))
	x, err := params.CommitChunks(max)
	c.Assert(err, qt.IsNil)
	err = test.IsSolved(&chunkCircuit{params: params}, &chunkCircuit{
		Chunk:  max,
		Commit: x,
	}, ecc.BW6_761.ScalarField())
	c.Assert(err, qt.IsNil)
}

func TestCommitterRequiresBW6761(t *testing.T) {
	c := qt.New(t)
	err := test.IsSolved(&chunkCircuit{params: cpedersen.DefaultParams()}, &chunkCircuit{
		Chunk:  1,
		Commit: 1,
	}, ecc.BLS12_377.ScalarField())
	c.Assert(err, qt.ErrorMatches, ".*BW6-761.*")
}
