package mergera

import (
	"math/big"
	"os"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	backend_groth16 "github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/test"
	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/albatross-zkp/circuits"
)

type aggregateCircuit struct {
	Genesis frontend.Variable `gnark:",public"`
	State   frontend.Variable `gnark:",public"`
	Height  frontend.Variable `gnark:",public"`
	Digest  frontend.Variable `gnark:",public"`
}

func (c *aggregateCircuit) Define(api frontend.API) error {
	api.AssertIsDifferent(c.Height, 0)
	api.AssertIsDifferent(api.Add(c.Genesis, c.State, c.Digest), 0)
	return nil
}

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
	ccs, err := frontend.Compile(ecc.BW6_761.ScalarField(), r1cs.NewBuilder, placeholder)
	c.Assert(err, qt.IsNil)
	pk, vk, err := backend_groth16.Setup(ccs)
	c.Assert(err, qt.IsNil)
	return keys{ccs, pk, vk}
}

func (k keys) prove(c *qt.C, assignment frontend.Circuit) backend_groth16.Proof {
	w, err := frontend.NewWitness(assignment, ecc.BW6_761.ScalarField())
	c.Assert(err, qt.IsNil)
	proof, err := backend_groth16.Prove(k.ccs, k.pk, w, circuits.ProverOptions(ecc.BW6_761))
	c.Assert(err, qt.IsNil)
	return proof
}

func TestMergerA(t *testing.T) {
	if os.Getenv("RUN_CIRCUIT_TESTS") == "" {
		t.Skip("skipping circuit tests...")
	}
	c := qt.New(t)
	mergerB := setupKeys(c, &aggregateCircuit{})
	block := setupKeys(c, &transitionCircuit{})
	placeholder, err := Placeholder(mergerB.ccs, mergerB.vk, block.ccs, block.vk)
	c.Assert(err, qt.IsNil)

	prior := circuits.AggregateInputs{
		GenesisStateCommitment: big.NewInt(1000),
		StateCommitment:        big.NewInt(1001),
		Height:                 1,
		MergerADigest:          big.NewInt(77),
	}
	priorProof := mergerB.prove(c, &aggregateCircuit{
		Genesis: prior.GenesisStateCommitment,
		State:   prior.StateCommitment,
		Height:  prior.Height,
		Digest:  prior.MergerADigest,
	})
	solveFrom := func(prev *big.Int, height uint64, newState *big.Int) error {
		blockProof := block.prove(c, &transitionCircuit{
			Prev:   prev,
			New:    newState,
			Height: height,
		})
		assignment, _, err := Assignment(prior, priorProof, blockProof, newState)
		c.Assert(err, qt.IsNil)
		return test.IsSolved(placeholder, assignment, ecc.BLS12_377.ScalarField())
	}
	solve := func(height uint64, newState *big.Int) error {
		return solveFrom(prior.StateCommitment, height, newState)
	}
	c.Assert(solve(2, big.NewInt(1002)), qt.IsNil)
	c.Assert(solve(3, big.NewInt(1002)), qt.IsNotNil)
	// the block must start from the prior aggregate state
	c.Assert(solveFrom(big.NewInt(999), 2, big.NewInt(1002)), qt.IsNotNil)
}
