// Package dummy defines a BLS12-377 circuit with the verifier shape of merger
// A: the same public inputs and a single commitment. Its proof stands in for
// the previous aggregate proof when merger B proves the first block.
package dummy

import (
	"errors"

	"github.com/consensys/gnark/frontend"
)

type Circuit struct {
	nbConstraints int

	GenesisStateCommitment frontend.Variable `gnark:",public"`
	StateCommitment        frontend.Variable `gnark:",public"`
	Height                 frontend.Variable `gnark:",public"`
	MergerADigest          frontend.Variable `gnark:",public"`

	SecretInput frontend.Variable
}

func (c *Circuit) Define(api frontend.API) error {
	cmtr, ok := api.(frontend.Committer)
	if !ok {
		return errors.New("api is not a commiter")
	}
	commitment, err := cmtr.Commit(c.SecretInput)
	if err != nil {
		return err
	}
	// every public input takes part in a constraint, so none of the
	// verifying key points is the identity
	acc := commitment
	for _, pub := range []frontend.Variable{c.GenesisStateCommitment, c.StateCommitment, c.Height, c.MergerADigest} {
		acc = api.Add(acc, api.Mul(pub, c.SecretInput))
	}
	api.AssertIsDifferent(acc, 0)

	res := api.Mul(c.SecretInput, c.SecretInput)
	for i := 2; i < c.nbConstraints; i++ {
		res = api.Mul(res, c.SecretInput)
	}
	return nil
}

// PlaceholderWithConstraints returns the placeholder of a dummy circuit
// with the desired number of constraints.
func PlaceholderWithConstraints(nbConstraints int) *Circuit {
	return &Circuit{nbConstraints: nbConstraints}
}

// Assignment returns the assignment of a dummy circuit exposing the given
// public inputs.
func Assignment(genesis, state, height, mergerADigest frontend.Variable) *Circuit {
	return &Circuit{
		GenesisStateCommitment: genesis,
		StateCommitment:        state,
		Height:                 height,
		MergerADigest:          mergerADigest,
		SecretInput:            1,
	}
}
