// Package committee models the validator sets that sign macro blocks and
// their Pedersen tree commitments.
package committee

import (
	"bytes"
	"math/big"
	"math/bits"

	"github.com/vocdoni/albatross-zkp/crypto/bls"
	"github.com/vocdoni/albatross-zkp/crypto/pedersen"
	"github.com/vocdoni/albatross-zkp/types"
)

const (
	// WeightBits bounds the weight of a single validator.
	WeightBits = 48
	// MaxCapacity bounds the number of committee slots, so that the total
	// weight always fits in 64 bits.
	MaxCapacity = 1 << 12
)

// Validator is a committee member: its BLS voting key and its stake weight.
// Possession is the proof of possession registered with the key.
type Validator struct {
	PublicKey  bls.PublicKey
	Weight     uint64
	Possession bls.Signature
}

// Committee is an ordered validator set. The order is significant: it
// defines the tree leaves and the bit positions of signer bitmaps.
type Committee struct {
	Validators []Validator
}

// Bitmap selects the signers of a committee by position.
type Bitmap []bool

// New returns a committee with the given validators.
func New(validators ...Validator) *Committee {
	return &Committee{Validators: validators}
}

// Len returns the number of validators.
func (c *Committee) Len() int {
	return len(c.Validators)
}

// IsPowerOfTwo reports whether n is a valid tree capacity.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Depth returns log2(capacity).
func Depth(capacity int) int {
	return bits.Len(uint(capacity)) - 1
}

// Validate checks the structural invariants of the committee for a tree of
// the given capacity.
func (c *Committee) Validate(capacity int) error {
	if !IsPowerOfTwo(capacity) || capacity > MaxCapacity {
		return types.Malformed("capacity %d is not a power of two up to %d", capacity, MaxCapacity)
	}
	if c == nil || len(c.Validators) == 0 {
		return types.Malformed("empty committee")
	}
	if len(c.Validators) > capacity {
		return types.Malformed("committee of %d validators exceeds capacity %d", len(c.Validators), capacity)
	}
	seen := make(map[[bls.PublicKeySize]byte]int, len(c.Validators))
	for i, v := range c.Validators {
		if v.Weight == 0 {
			return types.Malformed("validator %d has zero weight", i)
		}
		if v.Weight >= 1<<WeightBits {
			return types.Malformed("validator %d weight exceeds %d bits", i, WeightBits)
		}
		if err := v.PublicKey.Validate(); err != nil {
			return types.Malformed("validator %d: %v", i, err)
		}
		key := v.PublicKey.Bytes()
		if j, ok := seen[key]; ok {
			return types.Malformed("validators %d and %d share a public key", j, i)
		}
		seen[key] = i
	}
	return nil
}

// VerifyPossession checks the proof of possession of every validator.
func (c *Committee) VerifyPossession() error {
	for i, v := range c.Validators {
		if err := bls.VerifyPossession(v.PublicKey, v.Possession); err != nil {
			return types.Malformed("validator %d: proof of possession: %v", i, err)
		}
	}
	return nil
}

// TotalWeight returns the sum of all weights.
func (c *Committee) TotalWeight() uint64 {
	var total uint64
	for _, v := range c.Validators {
		total += v.Weight
	}
	return total
}

// Slots returns the keys and weights of the committee padded to capacity
// with the dummy key and zero weight.
func (c *Committee) Slots(capacity int) ([]bls.PublicKey, []uint64) {
	keys := make([]bls.PublicKey, capacity)
	weights := make([]uint64, capacity)
	dummy := bls.DummyPublicKey()
	for i := range keys {
		if i < len(c.Validators) {
			keys[i] = c.Validators[i].PublicKey
			weights[i] = c.Validators[i].Weight
			continue
		}
		keys[i] = dummy
	}
	return keys, weights
}

// Commitment returns the digest of the committee tree root.
func (c *Committee) Commitment(params *pedersen.Params, capacity int) (*big.Int, error) {
	tree, err := NewTree(params, c, capacity)
	if err != nil {
		return nil, err
	}
	return tree.Commitment(), nil
}

// Aggregate returns the sum of the keys selected by the bitmap, the signed
// weight and the total weight of the committee. Bits beyond the committee
// size must be unset.
func (c *Committee) Aggregate(bitmap Bitmap) (bls.PublicKey, uint64, uint64, error) {
	if len(bitmap) < len(c.Validators) {
		return bls.PublicKey{}, 0, 0, types.Malformed("bitmap of %d bits for %d validators", len(bitmap), len(c.Validators))
	}
	var keys []bls.PublicKey
	var signed uint64
	for i, set := range bitmap {
		if !set {
			continue
		}
		if i >= len(c.Validators) {
			return bls.PublicKey{}, 0, 0, types.Malformed("bit %d set on a padding slot", i)
		}
		keys = append(keys, c.Validators[i].PublicKey)
		signed += c.Validators[i].Weight
	}
	if signed == 0 {
		return bls.PublicKey{}, 0, 0, types.ErrEmptySignerSet
	}
	return bls.AggregatePublicKeys(keys...), signed, c.TotalWeight(), nil
}

// MeetsThreshold reports whether signed is at least two thirds of total,
// computed exactly as 3*signed >= 2*total.
func MeetsThreshold(signed, total uint64) bool {
	s := new(big.Int).Mul(big.NewInt(3), new(big.Int).SetUint64(signed))
	t := new(big.Int).Mul(big.NewInt(2), new(big.Int).SetUint64(total))
	return s.Cmp(t) >= 0
}

// Equal reports whether both committees have the same ordered keys and
// weights.
func (c *Committee) Equal(o *Committee) bool {
	if c.Len() != o.Len() {
		return false
	}
	for i := range c.Validators {
		a, b := c.Validators[i].PublicKey.Bytes(), o.Validators[i].PublicKey.Bytes()
		if !bytes.Equal(a[:], b[:]) || c.Validators[i].Weight != o.Validators[i].Weight {
			return false
		}
	}
	return true
}
