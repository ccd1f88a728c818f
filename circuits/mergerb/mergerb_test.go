package mergerb

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	backend_groth16 "github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/test"
	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/albatross-zkp/circuits"
	"github.com/vocdoni/albatross-zkp/circuits/dummy"
)

// transitionCircuit has the public inputs of a wrapper proof and accepts any
// transition that increases the height.
type transitionCircuit struct {
	Prev   frontend.Variable `gnark:",public"`
	New    frontend.Variable `gnark:",public"`
	Height frontend.Variable `gnark:",public"`
}

func (c *transitionCircuit) Define(api frontend.API) error {
	api.AssertIsDifferent(c.Height, 0)
	api.AssertIsDifferent(c.Prev, c.New)
	return nil
}

type keys struct {
	ccs constraint.ConstraintSystem
	pk  backend_groth16.ProvingKey
	vk  backend_groth16.VerifyingKey
}

func setupKeys(c *qt.C, placeholder frontend.Circuit) keys {
	ccs, err := frontend.Compile(ecc.BLS12_377.ScalarField(), r1cs.NewBuilder, placeholder)
	c.Assert(err, qt.IsNil)
	pk, vk, err := backend_groth16.Setup(ccs)
	c.Assert(err, qt.IsNil)
	return keys{ccs, pk, vk}
}

func (k keys) prove(c *qt.C, assignment frontend.Circuit) backend_groth16.Proof {
	w, err := frontend.NewWitness(assignment, ecc.BLS12_377.ScalarField())
	c.Assert(err, qt.IsNil)
	proof, err := backend_groth16.Prove(k.ccs, k.pk, w, circuits.ProverOptions(ecc.BLS12_377))
	c.Assert(err, qt.IsNil)
	return proof
}

type fixture struct {
	dummy, block keys
	placeholder  *Circuit
}

func newFixture(c *qt.C) *fixture {
	f := &fixture{
		dummy: setupKeys(c, dummy.PlaceholderWithConstraints(10)),
		block: setupKeys(c, &transitionCircuit{}),
	}
	var err error
	f.placeholder, err = Placeholder(f.dummy.ccs, f.block.ccs, f.block.vk)
	c.Assert(err, qt.IsNil)
	return f
}

func (f *fixture) solve(c *qt.C, prior circuits.AggregateInputs, priorProof backend_groth16.Proof,
	priorVK backend_groth16.VerifyingKey, blockHeight uint64, newState *big.Int,
) error {
	blockProof := f.block.prove(c, &transitionCircuit{
		Prev:   prior.StateCommitment,
		New:    newState,
		Height: blockHeight,
	})
	assignment, inputs, err := Assignment(prior, priorProof, priorVK, blockProof, newState)
	c.Assert(err, qt.IsNil)
	c.Assert(inputs.Height, qt.Equals, prior.Height+1)
	return test.IsSolved(f.placeholder, assignment, ecc.BW6_761.ScalarField())
}

func (f *fixture) dummyProof(c *qt.C, in circuits.AggregateInputs) backend_groth16.Proof {
	proof, _, err := dummy.Prove(f.dummy.ccs, f.dummy.pk, f.dummy.vk, dummy.Assignment(
		in.GenesisStateCommitment, in.StateCommitment, in.Height, in.MergerADigest))
	c.Assert(err, qt.IsNil)
	return proof
}

func TestMergerBGenesis(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping recursion tests in short mode")
	}
	c := qt.New(t)
	f := newFixture(c)
	genesis := circuits.GenesisInputs(big.NewInt(1000), big.NewInt(77))
	proof := f.dummyProof(c, genesis)

	c.Assert(f.solve(c, genesis, proof, f.dummy.vk, 1, big.NewInt(1001)), qt.IsNil)
	// the block proof must be for the next height
	c.Assert(f.solve(c, genesis, proof, f.dummy.vk, 2, big.NewInt(1001)), qt.IsNotNil)
}

func TestMergerBPriorKeyDigest(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping recursion tests in short mode")
	}
	c := qt.New(t)
	f := newFixture(c)
	// past genesis the prior key must hash to the merger A digest, which is
	// the digest computed natively
	digest, err := circuits.VerifyingKeyDigest(f.dummy.vk)
	c.Assert(err, qt.IsNil)
	prior := circuits.AggregateInputs{
		GenesisStateCommitment: big.NewInt(1000),
		StateCommitment:        big.NewInt(1002),
		Height:                 2,
		MergerADigest:          digest,
	}
	c.Assert(f.solve(c, prior, f.dummyProof(c, prior), f.dummy.vk, 3, big.NewInt(1003)), qt.IsNil)

	prior.MergerADigest = new(big.Int).Add(digest, big.NewInt(1))
	c.Assert(f.solve(c, prior, f.dummyProof(c, prior), f.dummy.vk, 3, big.NewInt(1003)), qt.IsNotNil)
}

func TestMergerBGenesisHeight(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping recursion tests in short mode")
	}
	c := qt.New(t)
	f := newFixture(c)
	// a prior at the genesis state must be at height 0
	prior := circuits.AggregateInputs{
		GenesisStateCommitment: big.NewInt(1000),
		StateCommitment:        big.NewInt(1000),
		Height:                 4,
		MergerADigest:          big.NewInt(77),
	}
	c.Assert(f.solve(c, prior, f.dummyProof(c, prior), f.dummy.vk, 5, big.NewInt(1005)), qt.IsNotNil)
}
