package macroblock

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark/std/algebra/native/sw_bls12377"
	"github.com/vocdoni/albatross-zkp/chain"
	"github.com/vocdoni/albatross-zkp/circuits/pktree"
	"github.com/vocdoni/albatross-zkp/crypto/bls"
	"github.com/vocdoni/albatross-zkp/crypto/pedersen"
)

// Inputs are the public inputs of a block proof, in circuit order.
type Inputs struct {
	PrevStateCommitment *big.Int
	NewStateCommitment  *big.Int
	Height              uint64
}

// Values returns the public inputs as a slice, in circuit order.
func (i Inputs) Values() []*big.Int {
	return []*big.Int{i.PrevStateCommitment, i.NewStateCommitment, new(big.Int).SetUint64(i.Height)}
}

// Placeholder returns the circuit used to compile a committee capacity.
func Placeholder(params *pedersen.Params, capacity int) *Circuit {
	keys, weights, bitmap := pktree.PlaceholderSlots(capacity)
	return &Circuit{
		Keys:    keys,
		Weights: weights,
		Bitmap:  bitmap,
		params:  params,
	}
}

// Assignment builds the witness that proves the transition from prev to
// the block header. It does not check the block; callers validate it first
// so that failures are reported before any witness is built.
func Assignment(params *pedersen.Params, capacity int, prev *chain.Header, b *chain.Block) (*Circuit, *Inputs, error) {
	prevState, err := chain.StateCommitment(params, prev)
	if err != nil {
		return nil, nil, fmt.Errorf("previous state: %w", err)
	}
	newState, err := chain.StateCommitment(params, b.Header)
	if err != nil {
		return nil, nil, fmt.Errorf("new state: %w", err)
	}
	mp, err := bls.HashToG1(bls.TagMessage, b.Header.Message())
	if err != nil {
		return nil, nil, fmt.Errorf("hash header: %w", err)
	}
	keys, weights, bitmap := pktree.SlotsAssignment(b.Committee, capacity, b.Bitmap)
	inputs := &Inputs{
		PrevStateCommitment: prevState,
		NewStateCommitment:  newState,
		Height:              b.Header.Height,
	}
	return &Circuit{
		PrevStateCommitment:     prevState,
		NewStateCommitment:      newState,
		Height:                  b.Header.Height,
		PrevHeight:              prev.Height,
		PrevParentCommitment:    prev.ParentCommitment,
		PrevNextCommitteeCommit: prev.NextCommitteeCommitment,
		NextCommitteeCommit:     b.Header.NextCommitteeCommitment,
		Keys:                    keys,
		Weights:                 weights,
		Bitmap:                  bitmap,
		Signature:               sw_bls12377.NewG1Affine(b.Signature.G1Affine),
		HashCounter:             mp.Counter,
		HashY:                   mp.Y.BigInt(new(big.Int)),
	}, inputs, nil
}
