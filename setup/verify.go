package setup

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/vocdoni/albatross-zkp/circuits"
	"github.com/vocdoni/albatross-zkp/types"
)

// Proof is a groth16 proof together with the shape it was produced for and
// its public inputs.
type Proof struct {
	Circuit      string
	ShapeID      string
	Proof        groth16.Proof
	PublicInputs []*big.Int
}

// Bytes returns the serialized groth16 proof.
func (p *Proof) Bytes() ([]byte, error) {
	return circuits.Serialize(p.Proof)
}

// Verify checks the proof with the verifying key of the key pair. A proof of
// another shape is rejected with ErrShapeMismatch before any pairing; a
// proof that does not verify is a constraint violation of the circuit.
func Verify(kp *KeyPair, p *Proof) error {
	if p == nil || p.Proof == nil {
		return types.Malformed("nil proof")
	}
	if err := kp.Expect(p.ShapeID); err != nil {
		return err
	}
	if n := kp.VK.NbPublicWitness(); n != len(p.PublicInputs) {
		return types.Malformed("%s expects %d public inputs, got %d", kp.Circuit, n, len(p.PublicInputs))
	}
	pub, err := circuits.PublicWitness(kp.Curve, p.PublicInputs)
	if err != nil {
		return types.Malformed("%s public inputs: %v", kp.Circuit, err)
	}
	if err := groth16.Verify(p.Proof, kp.VK, pub, circuits.VerifierOptions(kp.Curve)); err != nil {
		return types.NewConstraintViolation(kp.Circuit, err)
	}
	return nil
}
