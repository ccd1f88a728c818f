// Package lightclient verifies aggregate proofs. A light client trusts the
// genesis state commitment and the verifying keys of both mergers; a single
// valid aggregate proof at height h then proves the state committed at h.
package lightclient

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/lru"
	"github.com/vocdoni/albatross-zkp/circuits"
	"github.com/vocdoni/albatross-zkp/log"
	"github.com/vocdoni/albatross-zkp/setup"
	"github.com/vocdoni/albatross-zkp/types"
)

// DefaultCacheSize is the number of verified proofs a client remembers.
const DefaultCacheSize = 128

// ErrGenesisMismatch is returned for proofs that start from another genesis
// state than the trusted one.
var ErrGenesisMismatch = errors.New("proof does not start from the trusted genesis state")

// Client verifies aggregate proofs against a pair of trusted merger keys.
// It is safe for concurrent use.
type Client struct {
	mergerA  *setup.KeyPair
	mergerB  *setup.KeyPair
	digest   *big.Int
	verified *lru.Cache[common.Hash, struct{}]
}

// New returns a client that trusts the given merger verifying keys.
func New(mergerA, mergerB VerifyingKey) (*Client, error) {
	a, err := decodeKey(mergerA, circuits.NameMergerA, ecc.BLS12_377)
	if err != nil {
		return nil, err
	}
	b, err := decodeKey(mergerB, circuits.NameMergerB, ecc.BW6_761)
	if err != nil {
		return nil, err
	}
	digest, err := circuits.VerifyingKeyDigest(a.VK)
	if err != nil {
		return nil, types.Malformed("merger A verifying key: %v", err)
	}
	return &Client{
		mergerA:  a,
		mergerB:  b,
		digest:   digest,
		verified: lru.NewCache[common.Hash, struct{}](DefaultCacheSize),
	}, nil
}

func decodeKey(k VerifyingKey, circuit string, curve ecc.ID) (*setup.KeyPair, error) {
	if k.Circuit != circuit {
		return nil, types.Malformed("expected %s verifying key, got %q", circuit, k.Circuit)
	}
	vk := groth16.NewVerifyingKey(curve)
	if err := circuits.Deserialize(vk, k.Key); err != nil {
		return nil, types.Malformed("%s verifying key: %v", circuit, err)
	}
	return &setup.KeyPair{
		Circuit: circuit,
		Curve:   curve,
		ShapeID: k.ShapeID,
		VK:      vk,
	}, nil
}

// MergerADigest returns the digest of the trusted merger A verifying key.
func (c *Client) MergerADigest() *big.Int {
	return new(big.Int).Set(c.digest)
}

// Verify checks the export against the trusted keys and genesis state. The
// shape of the proof is checked first, then the merger A key digest it was
// proven with, and only then the proof itself.
func (c *Client) Verify(e *Export, trustedGenesis *big.Int) error {
	if e == nil || trustedGenesis == nil {
		return types.Malformed("nil export or genesis")
	}
	if e.Height == 0 {
		return types.Malformed("there is no aggregate proof at genesis")
	}
	role := circuits.RoleForHeight(e.Height)
	kp := c.mergerA
	if role == circuits.RoleB {
		kp = c.mergerB
	}
	if err := kp.Expect(e.ShapeID); err != nil {
		return err
	}
	inputs, err := e.Inputs()
	if err != nil {
		return types.Malformed("export inputs: %v", err)
	}
	if err := inputs.Validate(); err != nil {
		return types.Malformed("export inputs: %v", err)
	}
	if inputs.MergerADigest.Cmp(c.digest) != 0 {
		return fmt.Errorf("%w: proof bound to merger A digest %s, trusted %s",
			types.ErrShapeMismatch, inputs.MergerADigest, c.digest)
	}
	if inputs.Height != e.Height {
		return types.Malformed("export of height %d proves height %d", e.Height, inputs.Height)
	}
	if inputs.GenesisStateCommitment.Cmp(trustedGenesis) != 0 {
		return ErrGenesisMismatch
	}

	key := cacheKey(e)
	if c.verified.Contains(key) {
		return nil
	}
	proof := groth16.NewProof(kp.Curve)
	if err := circuits.Deserialize(proof, e.Proof); err != nil {
		return types.Malformed("proof: %v", err)
	}
	if err := setup.Verify(kp, &setup.Proof{
		Circuit:      kp.Circuit,
		ShapeID:      e.ShapeID,
		Proof:        proof,
		PublicInputs: inputs.Values(),
	}); err != nil {
		return err
	}
	c.verified.Add(key, struct{}{})
	log.Debugw("aggregate proof verified", "height", e.Height, "state", inputs.StateCommitment.String())
	return nil
}

// Verify checks the export against the verifying keys it carries. The
// caller must have checked those keys, for example against the shape
// identifiers and hashes published by the setup.
func Verify(e *Export, trustedGenesis *big.Int) error {
	if e == nil {
		return types.Malformed("nil export")
	}
	c, err := New(e.MergerA, e.MergerB)
	if err != nil {
		return err
	}
	return c.Verify(e, trustedGenesis)
}

// cacheKey is the sha256 of the shape, the proof and the public inputs.
func cacheKey(e *Export) common.Hash {
	h := sha256.New()
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], e.Height)
	h.Write(n[:])
	h.Write([]byte(e.ShapeID))
	h.Write(e.Proof)
	for _, v := range e.PublicInputs {
		var buf [32]byte
		v.MathBigInt().FillBytes(buf[:])
		h.Write(buf[:])
	}
	return common.BytesToHash(h.Sum(nil))
}
