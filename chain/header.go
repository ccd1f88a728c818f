// Package chain defines macro block headers, the state commitment chained by
// the recursive proofs and the native validation of a block transition.
package chain

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/vocdoni/albatross-zkp/committee"
	"github.com/vocdoni/albatross-zkp/crypto/pedersen"
	"github.com/vocdoni/albatross-zkp/types"
)

// HeaderSize is the length of the canonical header encoding.
const HeaderSize = 8 + 2*pedersen.ChunkBytes

// Header is a macro block header. Commitments are digests, so they fit in
// the scalar field of both curves of the cycle.
type Header struct {
	Height                  uint64   `json:"height" cbor:"0,keyasint"`
	ParentCommitment        *big.Int `json:"parentCommitment" cbor:"1,keyasint"`
	NextCommitteeCommitment *big.Int `json:"nextCommitteeCommitment" cbor:"2,keyasint"`
}

// Validate checks both commitments are digests.
func (h *Header) Validate() error {
	if h == nil {
		return types.Malformed("nil header")
	}
	if !pedersen.IsDigest(h.ParentCommitment) {
		return types.Malformed("parent commitment at height %d is not a digest", h.Height)
	}
	if !pedersen.IsDigest(h.NextCommitteeCommitment) {
		return types.Malformed("next committee commitment at height %d is not a digest", h.Height)
	}
	return nil
}

// Message returns the field elements signed by the committee.
func (h *Header) Message() []*big.Int {
	return []*big.Int{
		new(big.Int).SetUint64(h.Height),
		new(big.Int).Set(h.ParentCommitment),
		new(big.Int).Set(h.NextCommitteeCommitment),
	}
}

// Bytes returns the canonical encoding: the big-endian height followed by
// both commitments as ChunkBytes big-endian chunks.
func (h *Header) Bytes() []byte {
	buf := make([]byte, HeaderSize)
	binary.BigEndian.PutUint64(buf[:8], h.Height)
	h.ParentCommitment.FillBytes(buf[8 : 8+pedersen.ChunkBytes])
	h.NextCommitteeCommitment.FillBytes(buf[8+pedersen.ChunkBytes:])
	return buf
}

// HeaderFromBytes decodes a header encoded by Bytes.
func HeaderFromBytes(data []byte) (*Header, error) {
	if len(data) != HeaderSize {
		return nil, types.Malformed("header encoding of %d bytes, want %d", len(data), HeaderSize)
	}
	return &Header{
		Height:                  binary.BigEndian.Uint64(data[:8]),
		ParentCommitment:        new(big.Int).SetBytes(data[8 : 8+pedersen.ChunkBytes]),
		NextCommitteeCommitment: new(big.Int).SetBytes(data[8+pedersen.ChunkBytes:]),
	}, nil
}

// StateCommitment returns the digest that represents the chain state after
// the header. It is the value exposed by every proof of the pipeline.
func StateCommitment(params *pedersen.Params, h *Header) (*big.Int, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	x, err := params.CommitDomain(pedersen.DomainState, h.Message()...)
	if err != nil {
		return nil, err
	}
	return pedersen.Digest(x), nil
}

// Genesis returns the height zero header that hands control to the genesis
// committee.
func Genesis(params *pedersen.Params, genesis *committee.Committee, capacity int) (*Header, error) {
	cc, err := genesis.Commitment(params, capacity)
	if err != nil {
		return nil, fmt.Errorf("genesis committee: %w", err)
	}
	return &Header{
		Height:                  0,
		ParentCommitment:        big.NewInt(0),
		NextCommitteeCommitment: cc,
	}, nil
}
