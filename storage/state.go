package storage

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/vocdoni/albatross-zkp/committee"
)

// RecursionState returns the latest recursion state. It returns ErrNotFound
// before the first call to SetRecursionState.
func (s *Storage) RecursionState() (*RecursionState, error) {
	st := &RecursionState{}
	if err := s.getArtifact(statePrefix, latestStateKey, st); err != nil {
		return nil, err
	}
	return st, nil
}

// SetRecursionState stores st as the latest recursion state and, if it
// carries a proof, appends the proof to the history.
func (s *Storage) SetRecursionState(st *RecursionState) error {
	if st == nil || st.Header == nil {
		return fmt.Errorf("nil recursion state")
	}
	s.globalLock.Lock()
	defer s.globalLock.Unlock()
	if len(st.Latest.Proof) > 0 {
		if err := s.setArtifact(proofPrefix, heightKey(st.Latest.Height), &st.Latest); err != nil {
			return fmt.Errorf("set proof: %w", err)
		}
	}
	return s.setArtifact(statePrefix, latestStateKey, st)
}

// Proof returns the aggregate proof stored for the height.
func (s *Storage) Proof(height uint64) (*ProofRecord, error) {
	p := &ProofRecord{}
	if err := s.getArtifact(proofPrefix, heightKey(height), p); err != nil {
		return nil, err
	}
	return p, nil
}

// ProofHeights returns the heights with a stored proof, in increasing order.
func (s *Storage) ProofHeights() ([]uint64, error) {
	keys, err := s.listArtifacts(proofPrefix)
	if err != nil {
		return nil, err
	}
	heights := make([]uint64, 0, len(keys))
	for _, k := range keys {
		heights = append(heights, binary.BigEndian.Uint64(k))
	}
	return heights, nil
}

// SetCommittee stores a committee under its commitment.
func (s *Storage) SetCommittee(commitment *big.Int, c *committee.Committee) error {
	if c == nil {
		return fmt.Errorf("nil committee")
	}
	return s.setArtifact(committeePrefix, commitment.Bytes(), c)
}

// Committee returns the committee with the given commitment.
func (s *Storage) Committee(commitment *big.Int) (*committee.Committee, error) {
	c := &committee.Committee{}
	if err := s.getArtifact(committeePrefix, commitment.Bytes(), c); err != nil {
		return nil, err
	}
	return c, nil
}

// heightKey encodes heights big-endian so that keys iterate in height order.
func heightKey(h uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, h)
	return k
}
