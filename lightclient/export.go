package lightclient

import (
	"fmt"
	"math/big"

	"github.com/vocdoni/albatross-zkp/circuits"
	"github.com/vocdoni/albatross-zkp/setup"
	"github.com/vocdoni/albatross-zkp/storage"
	"github.com/vocdoni/albatross-zkp/types"
)

// VerifyingKey is the serialized verifying key of a merger circuit.
type VerifyingKey struct {
	Circuit string         `json:"circuit"`
	ShapeID string         `json:"shapeId"`
	Key     types.HexBytes `json:"key"`
}

// Export is everything a light client needs to check the latest aggregate
// proof: the proof with its public inputs and the verifying keys of both
// mergers.
type Export struct {
	Height       uint64          `json:"height"`
	ShapeID      string          `json:"shapeId"`
	PublicInputs []*types.BigInt `json:"publicInputs"`
	Proof        types.HexBytes  `json:"proof"`
	MergerA      VerifyingKey    `json:"mergerA"`
	MergerB      VerifyingKey    `json:"mergerB"`
}

// ExportKey serializes the verifying key of the key pair.
func ExportKey(kp *setup.KeyPair) (VerifyingKey, error) {
	vk, err := kp.VerifyingKeyBytes()
	if err != nil {
		return VerifyingKey{}, err
	}
	return VerifyingKey{Circuit: kp.Circuit, ShapeID: kp.ShapeID, Key: vk}, nil
}

// NewExport builds the export of a stored aggregate proof.
func NewExport(keys *setup.Keys, rec *storage.ProofRecord) (*Export, error) {
	if rec == nil || len(rec.Proof) == 0 {
		return nil, types.Malformed("no aggregate proof to export")
	}
	a, err := ExportKey(keys.MergerA)
	if err != nil {
		return nil, fmt.Errorf("merger A key: %w", err)
	}
	b, err := ExportKey(keys.MergerB)
	if err != nil {
		return nil, fmt.Errorf("merger B key: %w", err)
	}
	inputs := make([]*types.BigInt, len(rec.PublicInputs))
	for i, v := range rec.PublicInputs {
		inputs[i] = types.ToBigInt(v)
	}
	return &Export{
		Height:       rec.Height,
		ShapeID:      rec.ShapeID,
		PublicInputs: inputs,
		Proof:        rec.Proof,
		MergerA:      a,
		MergerB:      b,
	}, nil
}

// Inputs returns the aggregate public inputs of the export.
func (e *Export) Inputs() (circuits.AggregateInputs, error) {
	values := make([]*big.Int, len(e.PublicInputs))
	for i, v := range e.PublicInputs {
		if v == nil {
			return circuits.AggregateInputs{}, types.Malformed("nil public input %d", i)
		}
		values[i] = v.MathBigInt()
	}
	return circuits.AggregateInputsFromValues(values)
}
