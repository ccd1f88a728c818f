package pktree

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/native/sw_bls12377"
	"github.com/vocdoni/albatross-zkp/committee"
)

// SlotsAssignment returns the key, weight and bitmap witness values of a
// committee padded to capacity.
func SlotsAssignment(c *committee.Committee, capacity int, bitmap committee.Bitmap) (
	[]sw_bls12377.G2Affine, []frontend.Variable, []frontend.Variable,
) {
	keys, weights := c.Slots(capacity)
	k := make([]sw_bls12377.G2Affine, capacity)
	w := make([]frontend.Variable, capacity)
	b := make([]frontend.Variable, capacity)
	for i := 0; i < capacity; i++ {
		k[i] = sw_bls12377.NewG2Affine(keys[i].G2Affine)
		w[i] = weights[i]
		b[i] = 0
		if i < len(bitmap) && bitmap[i] {
			b[i] = 1
		}
	}
	return k, w, b
}

// PlaceholderSlots returns empty slot slices for circuit compilation.
func PlaceholderSlots(capacity int) ([]sw_bls12377.G2Affine, []frontend.Variable, []frontend.Variable) {
	return make([]sw_bls12377.G2Affine, capacity), make([]frontend.Variable, capacity), make([]frontend.Variable, capacity)
}
