// Package mergerb defines the aggregate circuit of odd heights. It is a
// BW6-761 circuit that verifies natively two BLS12-377 proofs: the previous
// aggregate proof (merger A, or the dummy proof at the first height) and the
// wrapped block proof of the height.
package mergerb

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/native/sw_bls12377"
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
	PriorProof           circuits.ProofBLS12377
	// PriorVerifyingKey is a witness because merger A embeds the verifying
	// key of this circuit. It is bound to MergerADigest instead.
	PriorVerifyingKey circuits.VKBLS12377

	BlockProof          circuits.ProofBLS12377
	WrapperVerifyingKey circuits.VKBLS12377 `gnark:"-"`
}

func (c *Circuit) Define(api frontend.API) error {
	api.AssertIsEqual(c.Height, api.Add(c.PriorHeight, 1))

	// the first height starts from the genesis state, proven by the dummy
	// circuit with any key
	isGenesis := api.IsZero(api.Sub(c.PriorStateCommitment, c.GenesisStateCommitment))
	api.AssertIsEqual(api.Mul(isGenesis, c.PriorHeight), 0)
	digest, err := circuits.VerifyingKeyDigestVar(api, c.PriorVerifyingKey)
	if err != nil {
		circuits.FrontendError(api, "failed to hash prior verifying key", err)
		return err
	}
	api.AssertIsEqual(api.Mul(api.Sub(1, isGenesis), api.Sub(digest, c.MergerADigest)), 0)

	verifier, err := groth16.NewVerifier[sw_bls12377.ScalarField, sw_bls12377.G1Affine, sw_bls12377.G2Affine, sw_bls12377.GT](api)
	if err != nil {
		circuits.FrontendError(api, "failed to create bls12377 verifier", err)
		return err
	}
	prior := circuits.InnerWitness[sw_bls12377.ScalarField](api,
		c.GenesisStateCommitment, c.PriorStateCommitment, c.PriorHeight, c.MergerADigest)
	if err := verifier.AssertProof(c.PriorVerifyingKey, c.PriorProof, prior, groth16.WithCompleteArithmetic()); err != nil {
		circuits.FrontendError(api, "failed to verify prior proof", err)
		return err
	}
	block := circuits.InnerWitness[sw_bls12377.ScalarField](api,
		c.PriorStateCommitment, c.StateCommitment, c.Height)
	if err := verifier.AssertProof(c.WrapperVerifyingKey, c.BlockProof, block, groth16.WithCompleteArithmetic()); err != nil {
		circuits.FrontendError(api, "failed to verify block proof", err)
		return err
	}
	return nil
}
