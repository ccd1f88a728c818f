// Package macroblock implements the block validity circuit. It proves, over
// BW6-761, that a committed previous header elected a committee whose
// signers (at least two thirds of the weight) signed the new header, and
// exposes the previous and new state commitments and the new height.
package macroblock

import (
	"fmt"

	bls12377 "github.com/consensys/gnark-crypto/ecc/bls12-377"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/native/sw_bls12377"
	"github.com/vocdoni/albatross-zkp/circuits/pedersen"
	"github.com/vocdoni/albatross-zkp/circuits/pktree"
	"github.com/vocdoni/albatross-zkp/crypto/bls"
	cpedersen "github.com/vocdoni/albatross-zkp/crypto/pedersen"
)

// HeightBits bounds block heights.
const HeightBits = 64

type Circuit struct {
	PrevStateCommitment frontend.Variable `gnark:",public"`
	NewStateCommitment  frontend.Variable `gnark:",public"`
	Height              frontend.Variable `gnark:",public"`

	// previous header, opened against PrevStateCommitment
	PrevHeight              frontend.Variable
	PrevParentCommitment    frontend.Variable
	PrevNextCommitteeCommit frontend.Variable
	// new header, its parent is PrevStateCommitment and its height Height
	NextCommitteeCommit frontend.Variable

	// signing committee elected by the previous header
	Keys    []sw_bls12377.G2Affine
	Weights []frontend.Variable
	Bitmap  []frontend.Variable

	Signature   sw_bls12377.G1Affine
	HashCounter frontend.Variable
	HashY       frontend.Variable

	params *cpedersen.Params
}

func (c *Circuit) Define(api frontend.API) error {
	committer, err := pedersen.NewCommitter(api, c.params)
	if err != nil {
		return err
	}
	api.ToBinary(c.Height, HeightBits)
	committer.AssertIsDigest(c.NextCommitteeCommit)

	// 1. open the previous header
	prev, err := committer.CommitDomain(cpedersen.DomainState,
		c.PrevHeight, c.PrevParentCommitment, c.PrevNextCommitteeCommit)
	if err != nil {
		return err
	}
	api.AssertIsEqual(committer.Digest(prev), c.PrevStateCommitment)

	// 2. the new header follows it
	api.AssertIsEqual(c.Height, api.Add(c.PrevHeight, 1))

	// 3. the signing committee is the one the previous header elected
	res, err := pktree.Aggregate(api, committer, c.Keys, c.Weights, c.Bitmap)
	if err != nil {
		return err
	}
	api.AssertIsEqual(committer.Digest(res.Root), c.PrevNextCommitteeCommit)

	// 4. two thirds of the weight signed
	pktree.AssertThreshold(api, res.SignerWeight, res.TotalWeight)

	// 5. e(H(m), apk) * e(-sig, g2) == 1
	msg := []frontend.Variable{c.Height, c.PrevStateCommitment, c.NextCommitteeCommit}
	h, err := hashToG1(api, bls.TagMessage, msg, c.HashCounter, c.HashY)
	if err != nil {
		return err
	}
	pairing := sw_bls12377.NewPairing(api)
	// a signature off the r-torsion plus a point of cofactor order would
	// pass the pairing check as well
	pairing.AssertIsOnG1(&c.Signature)
	var negSig sw_bls12377.G1Affine
	negSig.Neg(api, c.Signature)
	_, _, _, g2 := bls12377.Generators()
	g2Gen := sw_bls12377.NewG2Affine(g2)
	if err := pairing.PairingCheck(
		[]*sw_bls12377.G1Affine{h, &negSig},
		[]*sw_bls12377.G2Affine{&res.AggregatedKey, &g2Gen},
	); err != nil {
		return fmt.Errorf("pairing check: %w", err)
	}

	// 6. expose the new state
	next, err := committer.CommitDomain(cpedersen.DomainState,
		c.Height, c.PrevStateCommitment, c.NextCommitteeCommit)
	if err != nil {
		return err
	}
	api.AssertIsEqual(committer.Digest(next), c.NewStateCommitment)
	return nil
}
