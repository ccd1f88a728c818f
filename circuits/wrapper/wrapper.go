// Package wrapper re-proves a block proof on BLS12-377. The block proof is a
// BW6-761 proof, which merger B (itself a BW6-761 circuit) cannot verify
// natively; the wrapper verifies it with emulated arithmetic and exposes the
// same public inputs, so merger B can verify the wrapper proof instead.
package wrapper

import (
	"fmt"

	backend_groth16 "github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/emulated/sw_bw6761"
	"github.com/consensys/gnark/std/recursion/groth16"
	"github.com/vocdoni/albatross-zkp/circuits"
)

type Circuit struct {
	PrevStateCommitment frontend.Variable `gnark:",public"`
	NewStateCommitment  frontend.Variable `gnark:",public"`
	Height              frontend.Variable `gnark:",public"`

	BlockProof        circuits.ProofBW6761
	BlockVerifyingKey circuits.VKBW6761 `gnark:"-"`
}

func (c *Circuit) Define(api frontend.API) error {
	verifier, err := groth16.NewVerifier[sw_bw6761.ScalarField, sw_bw6761.G1Affine, sw_bw6761.G2Affine, sw_bw6761.GTEl](api)
	if err != nil {
		circuits.FrontendError(api, "failed to create bw6761 verifier", err)
		return err
	}
	witness := circuits.InnerWitness[sw_bw6761.ScalarField](api, c.PrevStateCommitment, c.NewStateCommitment, c.Height)
	if err := verifier.AssertProof(c.BlockVerifyingKey, c.BlockProof, witness, groth16.WithCompleteArithmetic()); err != nil {
		circuits.FrontendError(api, "failed to verify block proof", err)
		return err
	}
	return nil
}

// Placeholder returns the circuit to compile for the given block circuit and
// verifying key.
func Placeholder(blockCCS constraint.ConstraintSystem, blockVK backend_groth16.VerifyingKey) (*Circuit, error) {
	vk, err := groth16.ValueOfVerifyingKeyFixed[sw_bw6761.G1Affine, sw_bw6761.G2Affine, sw_bw6761.GTEl](blockVK)
	if err != nil {
		return nil, fmt.Errorf("fixed block verifying key: %w", err)
	}
	return &Circuit{
		BlockProof:        groth16.PlaceholderProof[sw_bw6761.G1Affine, sw_bw6761.G2Affine](blockCCS),
		BlockVerifyingKey: vk,
	}, nil
}
