package setup

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/vocdoni/albatross-zkp/circuits"
	"github.com/vocdoni/albatross-zkp/types"
)

// KeyPair holds the compiled circuit and the groth16 keys of a circuit.
type KeyPair struct {
	Circuit string
	Curve   ecc.ID
	ShapeID string
	CCS     constraint.ConstraintSystem
	PK      groth16.ProvingKey
	VK      groth16.VerifyingKey
	// Hash is the sha256 of the serialized verifying key, proving key and
	// constraint system, in that order.
	Hash types.HexBytes
}

// NewKeyPair builds the key pair of a circuit compiled for the given
// committee capacity, computing its shape identifier and hash.
func NewKeyPair(circuit string, curve ecc.ID, validators int,
	ccs constraint.ConstraintSystem, pk groth16.ProvingKey, vk groth16.VerifyingKey,
) (*KeyPair, error) {
	kp := &KeyPair{
		Circuit: circuit,
		Curve:   curve,
		ShapeID: ShapeID(circuit, curve, ccs.GetNbConstraints(), ccs.GetNbPublicVariables(), validators),
		CCS:     ccs,
		PK:      pk,
		VK:      vk,
	}
	ccsBytes, pkBytes, vkBytes, err := kp.encode()
	if err != nil {
		return nil, err
	}
	kp.Hash = hashKeyPair(ccsBytes, pkBytes, vkBytes)
	return kp, nil
}

// encode serializes the constraint system, the proving key and the verifying
// key.
func (kp *KeyPair) encode() (ccsBytes, pkBytes, vkBytes []byte, err error) {
	if ccsBytes, err = circuits.Serialize(kp.CCS); err != nil {
		return nil, nil, nil, fmt.Errorf("serialize %s constraint system: %w", kp.Circuit, err)
	}
	if pkBytes, err = circuits.SerializeRaw(kp.PK); err != nil {
		return nil, nil, nil, fmt.Errorf("serialize %s proving key: %w", kp.Circuit, err)
	}
	if vkBytes, err = circuits.Serialize(kp.VK); err != nil {
		return nil, nil, nil, fmt.Errorf("serialize %s verifying key: %w", kp.Circuit, err)
	}
	return ccsBytes, pkBytes, vkBytes, nil
}

func hashKeyPair(ccsBytes, pkBytes, vkBytes []byte) []byte {
	h := sha256.New()
	h.Write(vkBytes)
	h.Write(pkBytes)
	h.Write(ccsBytes)
	return h.Sum(nil)
}

// Check recomputes the hash of the key pair and compares it with Hash.
func (kp *KeyPair) Check() error {
	ccsBytes, pkBytes, vkBytes, err := kp.encode()
	if err != nil {
		return err
	}
	if got := hashKeyPair(ccsBytes, pkBytes, vkBytes); !bytes.Equal(got, kp.Hash) {
		return fmt.Errorf("%w: %s keys: expected %x, got %x", types.ErrArtifactCorrupted, kp.Circuit, []byte(kp.Hash), got)
	}
	return nil
}

// Expect returns ErrShapeMismatch unless the key pair has the given shape
// identifier.
func (kp *KeyPair) Expect(shapeID string) error {
	if kp.ShapeID != shapeID {
		return fmt.Errorf("%w: %s keys have shape %s, expected %s", types.ErrShapeMismatch, kp.Circuit, kp.ShapeID, shapeID)
	}
	return nil
}

// VerifyingKeyBytes returns the serialized verifying key.
func (kp *KeyPair) VerifyingKeyBytes() ([]byte, error) {
	return circuits.Serialize(kp.VK)
}
