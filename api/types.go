package api

import (
	"github.com/vocdoni/albatross-zkp/types"
)

// StateResponse is the latest proven state with its aggregate proof. At
// genesis there is no proof.
type StateResponse struct {
	Height                 uint64          `json:"height"`
	Role                   string          `json:"role"`
	ShapeID                string          `json:"shapeId,omitempty"`
	GenesisStateCommitment *types.BigInt   `json:"genesisStateCommitment"`
	StateCommitment        *types.BigInt   `json:"stateCommitment"`
	MergerADigest          *types.BigInt   `json:"mergerADigest"`
	PublicInputs           []*types.BigInt `json:"publicInputs"`
	Proof                  types.HexBytes  `json:"proof,omitempty"`
	Header                 types.HexBytes  `json:"header"`
	CheckpointRoot         *types.BigInt   `json:"checkpointRoot,omitempty"`
}

// KeyResponse is the verifying key of a merger role.
type KeyResponse struct {
	Role         string         `json:"role"`
	Circuit      string         `json:"circuit"`
	Curve        string         `json:"curve"`
	ShapeID      string         `json:"shapeId"`
	Hash         types.HexBytes `json:"hash"`
	VerifyingKey types.HexBytes `json:"verifyingKey"`
}

// CheckpointResponse is the inclusion proof of the state commitment of a
// height in the checkpoint tree.
type CheckpointResponse struct {
	Height          uint64         `json:"height"`
	StateCommitment *types.BigInt  `json:"stateCommitment"`
	Root            *types.BigInt  `json:"root"`
	Siblings        types.HexBytes `json:"siblings"`
}
