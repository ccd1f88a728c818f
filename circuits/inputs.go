package circuits

import (
	"fmt"
	"math/big"

	"github.com/vocdoni/albatross-zkp/crypto/pedersen"
)

// AggregateInputs are the public inputs of merger and dummy proofs, in
// circuit order.
type AggregateInputs struct {
	GenesisStateCommitment *big.Int
	StateCommitment        *big.Int
	Height                 uint64
	MergerADigest          *big.Int
}

// GenesisInputs returns the inputs of the dummy proof that stands for the
// aggregate proof at height 0.
func GenesisInputs(genesisState, mergerADigest *big.Int) AggregateInputs {
	return AggregateInputs{
		GenesisStateCommitment: genesisState,
		StateCommitment:        genesisState,
		Height:                 0,
		MergerADigest:          mergerADigest,
	}
}

// Values returns the public inputs as a slice, in circuit order.
func (i AggregateInputs) Values() []*big.Int {
	return []*big.Int{
		i.GenesisStateCommitment,
		i.StateCommitment,
		new(big.Int).SetUint64(i.Height),
		i.MergerADigest,
	}
}

// Next returns the inputs of the aggregate proof that extends i to newState.
func (i AggregateInputs) Next(newState *big.Int) AggregateInputs {
	return AggregateInputs{
		GenesisStateCommitment: i.GenesisStateCommitment,
		StateCommitment:        newState,
		Height:                 i.Height + 1,
		MergerADigest:          i.MergerADigest,
	}
}

// Validate checks that every commitment is a digest.
func (i AggregateInputs) Validate() error {
	if !pedersen.IsDigest(i.GenesisStateCommitment) {
		return fmt.Errorf("genesis state is not a digest")
	}
	if !pedersen.IsDigest(i.StateCommitment) {
		return fmt.Errorf("state is not a digest")
	}
	if !pedersen.IsDigest(i.MergerADigest) {
		return fmt.Errorf("merger A digest is not a digest")
	}
	return nil
}

// AggregateInputsFromValues is the inverse of Values.
func AggregateInputsFromValues(values []*big.Int) (AggregateInputs, error) {
	if len(values) != AggregatePublicInputs {
		return AggregateInputs{}, fmt.Errorf("expected %d public inputs, got %d", AggregatePublicInputs, len(values))
	}
	if !values[2].IsUint64() {
		return AggregateInputs{}, fmt.Errorf("height out of range")
	}
	return AggregateInputs{
		GenesisStateCommitment: values[0],
		StateCommitment:        values[1],
		Height:                 values[2].Uint64(),
		MergerADigest:          values[3],
	}, nil
}
