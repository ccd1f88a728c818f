package chain

import (
	"github.com/vocdoni/albatross-zkp/committee"
	"github.com/vocdoni/albatross-zkp/crypto/bls"
	"github.com/vocdoni/albatross-zkp/crypto/pedersen"
)

// NextBlock builds and signs the block that follows prev. The signing
// committee must be the one elected by prev, and sks its secret keys in
// committee order.
func NextBlock(params *pedersen.Params, capacity int, prev *Header,
	signing, next *committee.Committee, sks []*bls.SecretKey, signers ...int,
) (*Block, error) {
	parent, err := StateCommitment(params, prev)
	if err != nil {
		return nil, err
	}
	nextCommitment, err := next.Commitment(params, capacity)
	if err != nil {
		return nil, err
	}
	h := &Header{
		Height:                  prev.Height + 1,
		ParentCommitment:        parent,
		NextCommitteeCommitment: nextCommitment,
	}
	sig, err := Sign(h, sks, signers...)
	if err != nil {
		return nil, err
	}
	return &Block{
		Header:        h,
		Committee:     signing,
		NextCommittee: next,
		Bitmap:        committee.BitmapOf(capacity, signers...),
		Signature:     sig,
	}, nil
}
