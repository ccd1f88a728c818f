package dummy

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/vocdoni/albatross-zkp/circuits"
)

// Curve is the curve the dummy proofs are produced on.
const Curve = ecc.BLS12_377

// Prove generates a dummy proof for the assignment using the given keys. The
// proof is verified before returning, with the options merger B verifies it
// with.
func Prove(ccs constraint.ConstraintSystem, pk groth16.ProvingKey, vk groth16.VerifyingKey, assignment *Circuit) (groth16.Proof, witness.Witness, error) {
	fullWitness, err := frontend.NewWitness(assignment, Curve.ScalarField())
	if err != nil {
		return nil, nil, fmt.Errorf("full witness error: %w", err)
	}
	defer circuits.WipeWitness(fullWitness)
	proof, err := groth16.Prove(ccs, pk, fullWitness, circuits.ProverOptions(Curve))
	if err != nil {
		return nil, nil, fmt.Errorf("proof error: %w", err)
	}
	publicWitness, err := fullWitness.Public()
	if err != nil {
		return nil, nil, fmt.Errorf("pub witness error: %w", err)
	}
	if err = groth16.Verify(proof, vk, publicWitness, circuits.VerifierOptions(Curve)); err != nil {
		return nil, nil, fmt.Errorf("verify error: %w", err)
	}
	return proof, publicWitness, nil
}

// CompileAndSetup compiles the placeholder and runs a groth16 setup for it.
func CompileAndSetup(placeholder *Circuit) (constraint.ConstraintSystem, groth16.ProvingKey, groth16.VerifyingKey, error) {
	ccs, err := frontend.Compile(Curve.ScalarField(), r1cs.NewBuilder, placeholder)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("compile error: %w", err)
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("setup error: %w", err)
	}
	return ccs, pk, vk, nil
}
