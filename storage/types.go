package storage

import (
	"math/big"

	"github.com/vocdoni/albatross-zkp/chain"
	"github.com/vocdoni/albatross-zkp/committee"
	"github.com/vocdoni/albatross-zkp/types"
)

// ProofRecord is an aggregate proof together with its public inputs. The
// proof is serialized on the curve of its role.
type ProofRecord struct {
	Height       uint64         `json:"height" cbor:"0,keyasint"`
	Role         string         `json:"role" cbor:"1,keyasint"`
	ShapeID      string         `json:"shapeId" cbor:"2,keyasint"`
	PublicInputs []*big.Int     `json:"publicInputs" cbor:"3,keyasint"`
	Proof        types.HexBytes `json:"proof" cbor:"4,keyasint"`
}

// RecursionState is the state the prover resumes from: the latest aggregate
// proof, the header it commits to and the committee elected in it. At
// genesis Proof is empty.
type RecursionState struct {
	Latest        ProofRecord          `cbor:"0,keyasint"`
	Header        *chain.Header        `cbor:"1,keyasint"`
	NextCommittee *committee.Committee `cbor:"2,keyasint"`
}

// KeyRecord indexes the setup artifacts of a circuit for a committee
// capacity. CCS, PK and VK are the content hashes of the artifacts in the
// circuits artifact cache; Hash is the hash of the key pair. ArtifactsURL,
// if set, is the base URL the artifacts are published under, so a node with
// an empty cache can fetch them.
type KeyRecord struct {
	Circuit    string         `json:"circuit" cbor:"0,keyasint"`
	Curve      string         `json:"curve" cbor:"1,keyasint"`
	Validators int            `json:"validators" cbor:"2,keyasint"`
	ShapeID    string         `json:"shapeId" cbor:"3,keyasint"`
	CCS        types.HexBytes `json:"ccs" cbor:"4,keyasint"`
	PK         types.HexBytes `json:"pk" cbor:"5,keyasint"`
	VK         types.HexBytes `json:"vk" cbor:"6,keyasint"`
	Hash       types.HexBytes `json:"hash" cbor:"7,keyasint"`

	ArtifactsURL string `json:"artifactsUrl,omitempty" cbor:"8,keyasint,omitempty"`
}
