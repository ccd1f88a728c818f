package dummy

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/std/algebra/native/sw_bls12377"
	stdgroth16 "github.com/consensys/gnark/std/recursion/groth16"
	"github.com/consensys/gnark/test"
	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/albatross-zkp/circuits"
)

func TestDummyVerifierShape(t *testing.T) {
	c := qt.New(t)
	ccs, err := frontend.Compile(Curve.ScalarField(), r1cs.NewBuilder, PlaceholderWithConstraints(10))
	c.Assert(err, qt.IsNil)

	vk := stdgroth16.PlaceholderVerifyingKey[sw_bls12377.G1Affine, sw_bls12377.G2Affine, sw_bls12377.GT](ccs)
	c.Assert(vk.CommitmentKeys, qt.HasLen, 1)
	c.Assert(vk.PublicAndCommitmentCommitted, qt.HasLen, 1)
	c.Assert(vk.PublicAndCommitmentCommitted[0], qt.HasLen, 0)
}

func TestDummySolves(t *testing.T) {
	assert := test.NewAssert(t)
	assignment := Assignment(big.NewInt(12345), big.NewInt(12345), 0, big.NewInt(987))
	assert.CheckCircuit(PlaceholderWithConstraints(10),
		test.WithValidAssignment(assignment),
		test.WithCurves(Curve),
		test.WithBackends(backend.GROTH16),
		test.NoFuzzing(),
	)
}

func TestDummyProve(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping dummy setup in short mode")
	}
	c := qt.New(t)
	ccs, pk, vk, err := CompileAndSetup(PlaceholderWithConstraints(10))
	c.Assert(err, qt.IsNil)
	proof, pub, err := Prove(ccs, pk, vk, Assignment(big.NewInt(1), big.NewInt(2), 3, big.NewInt(4)))
	c.Assert(err, qt.IsNil)
	c.Assert(proof, qt.IsNotNil)
	values, err := circuits.PublicValues(pub)
	c.Assert(err, qt.IsNil)
	c.Assert(values, qt.HasLen, circuits.AggregatePublicInputs)
	c.Assert(values[2].Int64(), qt.Equals, int64(3))
}
