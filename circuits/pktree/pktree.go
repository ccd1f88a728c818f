// Package pktree constrains the committee tree: it recomputes the Pedersen
// tree over the committee slots and aggregates the public keys of the
// signers selected by the bitmap. It runs in BW6-761 circuits, where the
// BLS12-377 G2 arithmetic is native.
package pktree

import (
	"fmt"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/native/sw_bls12377"
	"github.com/vocdoni/albatross-zkp/circuits/pedersen"
	"github.com/vocdoni/albatross-zkp/committee"
	"github.com/vocdoni/albatross-zkp/crypto/bls"
	cpedersen "github.com/vocdoni/albatross-zkp/crypto/pedersen"
)

// Result is the output of Aggregate.
type Result struct {
	// Levels holds the node commitments of every level, from the leaves to
	// the root.
	Levels        [][]frontend.Variable
	Root          frontend.Variable
	AggregatedKey sw_bls12377.G2Affine
	SignerWeight  frontend.Variable
	TotalWeight   frontend.Variable
	Signers       frontend.Variable
}

// Aggregate recomputes the committee tree and the aggregated signer key.
// The number of slots must be a power of two. It constrains every bitmap
// bit to be boolean, rejects set bits on zero-weight slots and rejects an
// empty signer set.
func Aggregate(api frontend.API, committer *pedersen.Committer, keys []sw_bls12377.G2Affine,
	weights, bitmap []frontend.Variable,
) (*Result, error) {
	n := len(keys)
	if !committee.IsPowerOfTwo(n) {
		return nil, fmt.Errorf("%d slots is not a power of two", n)
	}
	if len(weights) != n || len(bitmap) != n {
		return nil, fmt.Errorf("slots, weights and bitmap lengths differ: %d, %d, %d", n, len(weights), len(bitmap))
	}

	leaves := make([]frontend.Variable, n)
	for i := range keys {
		api.ToBinary(weights[i], committee.WeightBits)
		leaf, err := committer.CommitDomain(cpedersen.DomainCommitteeLeaf,
			keys[i].P.X.A0, keys[i].P.X.A1, keys[i].P.Y.A0, keys[i].P.Y.A1, weights[i])
		if err != nil {
			return nil, fmt.Errorf("leaf %d: %w", i, err)
		}
		leaves[i] = leaf
	}
	res := &Result{Levels: [][]frontend.Variable{leaves}}
	for level := leaves; len(level) > 1; {
		next := make([]frontend.Variable, len(level)/2)
		for i := range next {
			node, err := committer.CommitDomain(cpedersen.DomainCommitteeNode, level[2*i], level[2*i+1])
			if err != nil {
				return nil, fmt.Errorf("node %d of level %d: %w", i, len(res.Levels), err)
			}
			next[i] = node
		}
		res.Levels = append(res.Levels, next)
		level = next
	}
	res.Root = res.Levels[len(res.Levels)-1][0]

	var signed, total, signers frontend.Variable = 0, 0, 0
	offset := sw_bls12377.NewG2Affine(bls.AggregationOffset().G2Affine)
	acc := offset
	for i := range keys {
		api.AssertIsBoolean(bitmap[i])
		// a signer cannot sit on a padding slot
		api.AssertIsEqual(api.Mul(bitmap[i], api.IsZero(weights[i])), 0)
		signed = api.Add(signed, api.Mul(bitmap[i], weights[i]))
		total = api.Add(total, weights[i])
		signers = api.Add(signers, bitmap[i])

		sum := acc
		sum.P.AddAssign(api, keys[i].P)
		acc.P.Select(api, bitmap[i], sum.P, acc.P)
	}
	api.AssertIsDifferent(signers, 0)
	api.AssertIsDifferent(signed, 0)

	var negOffset sw_bls12377.G2Affine
	negOffset.P.Neg(api, offset.P)
	acc.P.AddAssign(api, negOffset.P)

	res.AggregatedKey = sw_bls12377.G2Affine{P: acc.P}
	res.SignerWeight = signed
	res.TotalWeight = total
	res.Signers = signers
	return res, nil
}

// AssertThreshold constrains 3*signed >= 2*total. The difference is range
// checked, so it cannot wrap around the field.
func AssertThreshold(api frontend.API, signed, total frontend.Variable) {
	diff := api.Sub(api.Mul(signed, 3), api.Mul(total, 2))
	api.ToBinary(diff, committee.WeightBits+committee.Depth(committee.MaxCapacity)+2)
}
