// Package mergera defines the aggregate circuit of even heights. It is a
// BLS12-377 circuit that verifies, with emulated arithmetic, two BW6-761
// proofs: the previous aggregate proof (merger B) and the block proof of the
// height. Both verifying keys are constants of the circuit.
package mergera

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/emulated/sw_bw6761"
	"github.com/consensys/gnark/std/recursion/groth16"
	"github.com/vocdoni/albatross-zkp/circuits"
)

type Circuit struct {
	GenesisStateCommitment frontend.Variable `gnark:",public"`
	StateCommitment        frontend.Variable `gnark:",public"`
	Height                 frontend.Variable `gnark:",public"`
	MergerADigest          frontend.Variable `gnark:",public"`

	PriorStateCommitment frontend.Variable
	PriorHeight          frontend.Variable
	PriorProof           circuits.ProofBW6761
	BlockProof           circuits.ProofBW6761

	MergerBVerifyingKey circuits.VKBW6761 `gnark:"-"`
	BlockVerifyingKey   circuits.VKBW6761 `gnark:"-"`
}

func (c *Circuit) Define(api frontend.API) error {
	api.AssertIsEqual(c.Height, api.Add(c.PriorHeight, 1))

	verifier, err := groth16.NewVerifier[sw_bw6761.ScalarField, sw_bw6761.G1Affine, sw_bw6761.G2Affine, sw_bw6761.GTEl](api)
	if err != nil {
		circuits.FrontendError(api, "failed to create bw6761 verifier", err)
		return err
	}
	prior := circuits.InnerWitness[sw_bw6761.ScalarField](api,
		c.GenesisStateCommitment, c.PriorStateCommitment, c.PriorHeight, c.MergerADigest)
	if err := verifier.AssertProof(c.MergerBVerifyingKey, c.PriorProof, prior, groth16.WithCompleteArithmetic()); err != nil {
		circuits.FrontendError(api, "failed to verify prior proof", err)
		return err
	}
	block := circuits.InnerWitness[sw_bw6761.ScalarField](api,
		c.PriorStateCommitment, c.StateCommitment, c.Height)
	if err := verifier.AssertProof(c.BlockVerifyingKey, c.BlockProof, block, groth16.WithCompleteArithmetic()); err != nil {
		circuits.FrontendError(api, "failed to verify block proof", err)
		return err
	}
	return nil
}
