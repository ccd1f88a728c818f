package mergerb

import (
	"fmt"
	"math/big"

	backend_groth16 "github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/std/algebra/native/sw_bls12377"
	"github.com/consensys/gnark/std/recursion/groth16"
	"github.com/vocdoni/albatross-zkp/circuits"
)

// Placeholder returns the circuit to compile. The prior proof and key take
// the shape of the dummy circuit, which merger A must reproduce.
func Placeholder(dummyCCS, wrapperCCS constraint.ConstraintSystem, wrapperVK backend_groth16.VerifyingKey) (*Circuit, error) {
	fixed, err := groth16.ValueOfVerifyingKeyFixed[sw_bls12377.G1Affine, sw_bls12377.G2Affine, sw_bls12377.GT](wrapperVK)
	if err != nil {
		return nil, fmt.Errorf("fixed wrapper verifying key: %w", err)
	}
	return &Circuit{
		PriorProof:          groth16.PlaceholderProof[sw_bls12377.G1Affine, sw_bls12377.G2Affine](dummyCCS),
		PriorVerifyingKey:   groth16.PlaceholderVerifyingKey[sw_bls12377.G1Affine, sw_bls12377.G2Affine, sw_bls12377.GT](dummyCCS),
		BlockProof:          groth16.PlaceholderProof[sw_bls12377.G1Affine, sw_bls12377.G2Affine](wrapperCCS),
		WrapperVerifyingKey: fixed,
	}, nil
}

// Assignment builds the witness merging the prior aggregate proof at
// prior.Height, made with priorVK (the dummy key at genesis), with the
// wrapped block proof that moves the state to newState.
func Assignment(prior circuits.AggregateInputs, priorProof backend_groth16.Proof, priorVK backend_groth16.VerifyingKey,
	wrapperProof backend_groth16.Proof, newState *big.Int,
) (*Circuit, *circuits.AggregateInputs, error) {
	proof, err := groth16.ValueOfProof[sw_bls12377.G1Affine, sw_bls12377.G2Affine](priorProof)
	if err != nil {
		return nil, nil, fmt.Errorf("prior proof: %w", err)
	}
	vk, err := groth16.ValueOfVerifyingKey[sw_bls12377.G1Affine, sw_bls12377.G2Affine, sw_bls12377.GT](priorVK)
	if err != nil {
		return nil, nil, fmt.Errorf("prior verifying key: %w", err)
	}
	block, err := groth16.ValueOfProof[sw_bls12377.G1Affine, sw_bls12377.G2Affine](wrapperProof)
	if err != nil {
		return nil, nil, fmt.Errorf("wrapper proof: %w", err)
	}
	inputs := prior.Next(newState)
	return &Circuit{
		GenesisStateCommitment: inputs.GenesisStateCommitment,
		StateCommitment:        inputs.StateCommitment,
		Height:                 inputs.Height,
		MergerADigest:          inputs.MergerADigest,
		PriorStateCommitment:   prior.StateCommitment,
		PriorHeight:            prior.Height,
		PriorProof:             proof,
		PriorVerifyingKey:      vk,
		BlockProof:             block,
	}, &inputs, nil
}
