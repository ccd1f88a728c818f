package wrapper

import (
	"fmt"
	"math/big"

	backend_groth16 "github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/std/algebra/emulated/sw_bw6761"
	"github.com/consensys/gnark/std/recursion/groth16"
)

// Assignment returns the witness wrapping a block proof with the given public
// inputs (previous state, new state and height).
func Assignment(blockProof backend_groth16.Proof, prevState, newState *big.Int, height uint64) (*Circuit, error) {
	proof, err := groth16.ValueOfProof[sw_bw6761.G1Affine, sw_bw6761.G2Affine](blockProof)
	if err != nil {
		return nil, fmt.Errorf("block proof: %w", err)
	}
	return &Circuit{
		PrevStateCommitment: prevState,
		NewStateCommitment:  newState,
		Height:              height,
		BlockProof:          proof,
	}, nil
}
