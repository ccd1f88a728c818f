package committee

import (
	"math/big"

	"github.com/vocdoni/albatross-zkp/crypto/bls"
	"github.com/vocdoni/albatross-zkp/crypto/pedersen"
)

// Tree is the balanced Pedersen tree over the committee slots. Levels[0]
// holds the leaves and the last level holds the root only.
type Tree struct {
	Levels [][]*big.Int
}

// Leaf returns the commitment of a single slot.
func Leaf(params *pedersen.Params, pk bls.PublicKey, weight uint64) (*big.Int, error) {
	elems := append(pk.Coordinates(), new(big.Int).SetUint64(weight))
	return params.CommitDomain(pedersen.DomainCommitteeLeaf, elems...)
}

// Node returns the commitment of an inner node.
func Node(params *pedersen.Params, left, right *big.Int) (*big.Int, error) {
	return params.CommitDomain(pedersen.DomainCommitteeNode, left, right)
}

// NewTree validates the committee and builds its tree with the given
// capacity. Padding slots repeat the same leaf, so only the ordered real
// validators determine the root.
func NewTree(params *pedersen.Params, c *Committee, capacity int) (*Tree, error) {
	if err := c.Validate(capacity); err != nil {
		return nil, err
	}
	keys, weights := c.Slots(capacity)
	leaves := make([]*big.Int, capacity)
	var padding *big.Int
	for i := range leaves {
		if i >= c.Len() && padding != nil {
			leaves[i] = padding
			continue
		}
		leaf, err := Leaf(params, keys[i], weights[i])
		if err != nil {
			return nil, err
		}
		leaves[i] = leaf
		if i >= c.Len() {
			padding = leaf
		}
	}
	t := &Tree{Levels: [][]*big.Int{leaves}}
	for level := leaves; len(level) > 1; {
		next := make([]*big.Int, len(level)/2)
		for i := range next {
			n, err := Node(params, level[2*i], level[2*i+1])
			if err != nil {
				return nil, err
			}
			next[i] = n
		}
		t.Levels = append(t.Levels, next)
		level = next
	}
	return t, nil
}

// Root returns the root node.
func (t *Tree) Root() *big.Int {
	return t.Levels[len(t.Levels)-1][0]
}

// Commitment returns the digest of the root, the value stored in headers.
func (t *Tree) Commitment() *big.Int {
	return pedersen.Digest(t.Root())
}

// Depth returns the number of levels above the leaves.
func (t *Tree) Depth() int {
	return len(t.Levels) - 1
}
