package driver

import (
	"fmt"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/vocdoni/albatross-zkp/chain"
	"github.com/vocdoni/albatross-zkp/circuits"
	"github.com/vocdoni/albatross-zkp/committee"
	"github.com/vocdoni/albatross-zkp/crypto/pedersen"
	"github.com/vocdoni/albatross-zkp/setup"
	"github.com/vocdoni/albatross-zkp/storage"
	"github.com/vocdoni/albatross-zkp/types"
)

// RecursionState is the point the recursion has reached: the latest proven
// header, the committee it elected and the aggregate proof of it. Proof is
// nil at genesis.
type RecursionState struct {
	Header    *chain.Header
	Committee *committee.Committee
	Inputs    circuits.AggregateInputs
	Proof     *setup.Proof
}

// Genesis returns the recursion state at height zero for the genesis
// committee.
func Genesis(params *pedersen.Params, keys *setup.Keys, genesis *committee.Committee) (*RecursionState, error) {
	if err := genesis.Validate(keys.Shape.Validators); err != nil {
		return nil, err
	}
	header, err := chain.Genesis(params, genesis, keys.Shape.Validators)
	if err != nil {
		return nil, err
	}
	state, err := chain.StateCommitment(params, header)
	if err != nil {
		return nil, err
	}
	return &RecursionState{
		Header:    header,
		Committee: genesis,
		Inputs:    circuits.GenesisInputs(state, keys.MergerADigest),
	}, nil
}

// Height returns the height of the latest proven header.
func (st *RecursionState) Height() uint64 {
	return st.Header.Height
}

// Role returns the role of the latest aggregate proof.
func (st *RecursionState) Role() circuits.Role {
	return circuits.RoleForHeight(st.Header.Height)
}

// Record returns the storage record of the state.
func (st *RecursionState) Record() (*storage.RecursionState, error) {
	rec := &storage.RecursionState{
		Header:        st.Header,
		NextCommittee: st.Committee,
		Latest: storage.ProofRecord{
			Height:       st.Inputs.Height,
			Role:         string(st.Role()),
			PublicInputs: st.Inputs.Values(),
		},
	}
	if st.Proof != nil {
		proof, err := st.Proof.Bytes()
		if err != nil {
			return nil, fmt.Errorf("serialize proof: %w", err)
		}
		rec.Latest.Proof = proof
		rec.Latest.ShapeID = st.Proof.ShapeID
	}
	return rec, nil
}

// StateFromRecord rebuilds a state from its storage record.
func StateFromRecord(rec *storage.RecursionState) (*RecursionState, error) {
	if rec == nil || rec.Header == nil || rec.NextCommittee == nil {
		return nil, types.Malformed("incomplete recursion state record")
	}
	inputs, err := circuits.AggregateInputsFromValues(rec.Latest.PublicInputs)
	if err != nil {
		return nil, types.Malformed("recursion state inputs: %v", err)
	}
	st := &RecursionState{
		Header:    rec.Header,
		Committee: rec.NextCommittee,
		Inputs:    inputs,
	}
	if len(rec.Latest.Proof) == 0 {
		return st, nil
	}
	role := circuits.RoleForHeight(rec.Latest.Height)
	proof := groth16.NewProof(role.Curve())
	if err := circuits.Deserialize(proof, rec.Latest.Proof); err != nil {
		return nil, types.Malformed("recursion state proof: %v", err)
	}
	circuit := circuits.NameMergerA
	if role == circuits.RoleB {
		circuit = circuits.NameMergerB
	}
	st.Proof = &setup.Proof{
		Circuit:      circuit,
		ShapeID:      rec.Latest.ShapeID,
		Proof:        proof,
		PublicInputs: rec.Latest.PublicInputs,
	}
	return st, nil
}

// LoadState returns the state stored in stg, or nil and storage.ErrNotFound
// if the prover never persisted one.
func LoadState(stg *storage.Storage) (*RecursionState, error) {
	rec, err := stg.RecursionState()
	if err != nil {
		return nil, err
	}
	return StateFromRecord(rec)
}
