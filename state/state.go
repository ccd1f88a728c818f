// Package state keeps the checkpoint history of the prover: an arbo tree
// that maps every proven height to its state commitment. Its root lets a
// light client audit any past state with a single inclusion proof.
package state

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/vocdoni/albatross-zkp/crypto/pedersen"
	"github.com/vocdoni/arbo"
	"go.vocdoni.io/dvote/db"
)

const (
	// MaxLevels is the depth of the checkpoint tree. Heights are uint64.
	MaxLevels = 64
	// MaxKeyLen is ceil(MaxLevels/8)
	MaxKeyLen = (MaxLevels + 7) / 8
)

// hashFunc is the hash function used in the checkpoint tree.
var hashFunc = arbo.HashFunctionMiMC_BLS12_377

// Checkpoints is the checkpoint tree.
type Checkpoints struct {
	tree *arbo.Tree
	mtx  sync.Mutex
}

// CheckpointProof is an inclusion proof of the state commitment of a height.
type CheckpointProof struct {
	Root            *big.Int `json:"root"`
	Height          uint64   `json:"height"`
	StateCommitment *big.Int `json:"stateCommitment"`
	Siblings        []byte   `json:"siblings"`
}

// New creates or opens the checkpoint tree stored in the passed database.
func New(database db.Database) (*Checkpoints, error) {
	tree, err := arbo.NewTree(arbo.Config{
		Database:     database,
		MaxLevels:    MaxLevels,
		HashFunction: hashFunc,
	})
	if err != nil {
		return nil, err
	}
	return &Checkpoints{tree: tree}, nil
}

func heightKey(h uint64) []byte {
	return arbo.BigIntToBytes(MaxKeyLen, new(big.Int).SetUint64(h))
}

func stateValue(state *big.Int) []byte {
	return arbo.BigIntToBytes(hashFunc.Len(), state)
}

// Add records the state commitment of a height. A height is recorded once.
func (c *Checkpoints) Add(height uint64, state *big.Int) error {
	if !pedersen.IsDigest(state) {
		return fmt.Errorf("state commitment at height %d is not a digest", height)
	}
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if err := c.tree.Add(heightKey(height), stateValue(state)); err != nil {
		return fmt.Errorf("add checkpoint %d: %w", height, err)
	}
	return nil
}

// Get returns the state commitment recorded for a height.
func (c *Checkpoints) Get(height uint64) (*big.Int, error) {
	_, v, err := c.tree.Get(heightKey(height))
	if err != nil {
		return nil, fmt.Errorf("get checkpoint %d: %w", height, err)
	}
	return arbo.BytesToBigInt(v), nil
}

// Root returns the root of the checkpoint tree.
func (c *Checkpoints) Root() (*big.Int, error) {
	root, err := c.tree.Root()
	if err != nil {
		return nil, err
	}
	return arbo.BytesToBigInt(root), nil
}

// Proof returns the inclusion proof of the state commitment of a height.
func (c *Checkpoints) Proof(height uint64) (*CheckpointProof, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	root, err := c.tree.Root()
	if err != nil {
		return nil, err
	}
	_, v, siblings, exists, err := c.tree.GenProof(heightKey(height))
	if err != nil {
		return nil, fmt.Errorf("checkpoint proof %d: %w", height, err)
	}
	if !exists {
		return nil, fmt.Errorf("checkpoint %d: %w", height, arbo.ErrKeyNotFound)
	}
	return &CheckpointProof{
		Root:            arbo.BytesToBigInt(root),
		Height:          height,
		StateCommitment: arbo.BytesToBigInt(v),
		Siblings:        siblings,
	}, nil
}

// Verify checks the proof against its root.
func (p *CheckpointProof) Verify() (bool, error) {
	return arbo.CheckProof(hashFunc, heightKey(p.Height), stateValue(p.StateCommitment),
		arbo.BigIntToBytes(hashFunc.Len(), p.Root), p.Siblings)
}
