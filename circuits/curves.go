package circuits

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/std/algebra/emulated/sw_bw6761"
	"github.com/consensys/gnark/std/algebra/native/sw_bls12377"
	"github.com/consensys/gnark/std/recursion/groth16"
)

// These are the curves used by each circuit
//
// ### macroblock
// native bw6761
//
// ### wrapper
// native bls12377
// inner bw6761 (macroblock)
//
// ### merger A (even heights)
// native bls12377
// inner bw6761 (merger B, macroblock)
//
// ### merger B (odd heights)
// native bw6761
// inner bls12377 (merger A or dummy, wrapper)
//
// ### dummy
// native bls12377

// Role is the curve side of the recursion a height is proven on.
type Role string

const (
	RoleA Role = "A"
	RoleB Role = "B"
)

// RoleForHeight returns the role of the aggregate proof at height h: odd
// heights are proven by merger B, even heights by merger A.
func RoleForHeight(h uint64) Role {
	if h%2 == 1 {
		return RoleB
	}
	return RoleA
}

// Curve returns the curve the aggregate proofs of the role are produced on.
func (r Role) Curve() ecc.ID {
	if r == RoleB {
		return ecc.BW6_761
	}
	return ecc.BLS12_377
}

// Outer returns the scalar field of the circuits that verify proofs made on
// the given curve, which fixes the hash-to-field used by the commitments of
// the proof.
func Outer(curve ecc.ID) *big.Int {
	if curve == ecc.BW6_761 {
		return ecc.BLS12_377.ScalarField()
	}
	return ecc.BW6_761.ScalarField()
}

// ProverOptions returns the native prover options for a proof on the given
// curve, which will be verified inside a circuit of the other curve.
func ProverOptions(curve ecc.ID) backend.ProverOption {
	return groth16.GetNativeProverOptions(Outer(curve), curve.ScalarField())
}

// VerifierOptions are the counterpart of ProverOptions.
func VerifierOptions(curve ecc.ID) backend.VerifierOption {
	return groth16.GetNativeVerifierOptions(Outer(curve), curve.ScalarField())
}

type (
	ProofBLS12377 = groth16.Proof[sw_bls12377.G1Affine, sw_bls12377.G2Affine]
	VKBLS12377    = groth16.VerifyingKey[sw_bls12377.G1Affine, sw_bls12377.G2Affine, sw_bls12377.GT]
	ProofBW6761   = groth16.Proof[sw_bw6761.G1Affine, sw_bw6761.G2Affine]
	VKBW6761      = groth16.VerifyingKey[sw_bw6761.G1Affine, sw_bw6761.G2Affine, sw_bw6761.GTEl]
)
