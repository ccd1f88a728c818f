package mergera

import (
	"fmt"
	"math/big"

	backend_groth16 "github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/std/algebra/emulated/sw_bw6761"
	"github.com/consensys/gnark/std/recursion/groth16"
	"github.com/vocdoni/albatross-zkp/circuits"
)

// Placeholder returns the circuit to compile with the merger B and block
// verifying keys fixed.
func Placeholder(mergerBCCS constraint.ConstraintSystem, mergerBVK backend_groth16.VerifyingKey,
	blockCCS constraint.ConstraintSystem, blockVK backend_groth16.VerifyingKey,
) (*Circuit, error) {
	fixedB, err := groth16.ValueOfVerifyingKeyFixed[sw_bw6761.G1Affine, sw_bw6761.G2Affine, sw_bw6761.GTEl](mergerBVK)
	if err != nil {
		return nil, fmt.Errorf("fixed merger B verifying key: %w", err)
	}
	fixedBlock, err := groth16.ValueOfVerifyingKeyFixed[sw_bw6761.G1Affine, sw_bw6761.G2Affine, sw_bw6761.GTEl](blockVK)
	if err != nil {
		return nil, fmt.Errorf("fixed block verifying key: %w", err)
	}
	return &Circuit{
		PriorProof:          groth16.PlaceholderProof[sw_bw6761.G1Affine, sw_bw6761.G2Affine](mergerBCCS),
		BlockProof:          groth16.PlaceholderProof[sw_bw6761.G1Affine, sw_bw6761.G2Affine](blockCCS),
		MergerBVerifyingKey: fixedB,
		BlockVerifyingKey:   fixedBlock,
	}, nil
}

// Assignment builds the witness merging the merger B proof at prior.Height
// with the block proof that moves the state to newState.
func Assignment(prior circuits.AggregateInputs, priorProof, blockProof backend_groth16.Proof, newState *big.Int,
) (*Circuit, *circuits.AggregateInputs, error) {
	proof, err := groth16.ValueOfProof[sw_bw6761.G1Affine, sw_bw6761.G2Affine](priorProof)
	if err != nil {
		return nil, nil, fmt.Errorf("prior proof: %w", err)
	}
	block, err := groth16.ValueOfProof[sw_bw6761.G1Affine, sw_bw6761.G2Affine](blockProof)
	if err != nil {
		return nil, nil, fmt.Errorf("block proof: %w", err)
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
		BlockProof:             block,
	}, &inputs, nil
}
