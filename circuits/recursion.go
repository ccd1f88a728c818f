package circuits

import (
	"fmt"
	"math/big"

	fp_bls12377 "github.com/consensys/gnark-crypto/ecc/bls12-377/fp"
	fr_bw6761 "github.com/consensys/gnark-crypto/ecc/bw6-761/fr"
	"github.com/consensys/gnark-crypto/ecc/bw6-761/fr/mimc"
	backend_groth16 "github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/native/fields_bls12377"
	"github.com/consensys/gnark/std/algebra/native/sw_bls12377"
	"github.com/consensys/gnark/std/math/bits"
	"github.com/consensys/gnark/std/math/emulated"
	"github.com/consensys/gnark/std/recursion/groth16"
	"github.com/vocdoni/albatross-zkp/crypto/pedersen"
	"github.com/vocdoni/gnark-crypto-primitives/utils"
)

const limbBits = 64

// DigestVar returns the low pedersen.ChunkBits bits of x, using a canonical
// decomposition of x in the native field.
func DigestVar(api frontend.API, x frontend.Variable) frontend.Variable {
	b := bits.ToBinary(api, x)
	return bits.FromBinary(api, b[:pedersen.ChunkBits])
}

// DigestToElement converts a native variable that must fit in a digest into
// an element of the emulated field FR, so that it can be used as a public
// input of an inner proof. The limbs come from a bit decomposition, so the
// element is always canonical.
func DigestToElement[FR emulated.FieldParams](api frontend.API, v frontend.Variable) emulated.Element[FR] {
	var fr FR
	if fr.BitsPerLimb() != limbBits {
		panic(fmt.Sprintf("unsupported limb size %d", fr.BitsPerLimb()))
	}
	b := api.ToBinary(v, pedersen.ChunkBits)
	limbs := make([]frontend.Variable, fr.NbLimbs())
	for i := range limbs {
		lo, hi := i*limbBits, (i+1)*limbBits
		if lo >= len(b) {
			limbs[i] = 0
			continue
		}
		if hi > len(b) {
			hi = len(b)
		}
		limbs[i] = bits.FromBinary(api, b[lo:hi])
	}
	return emulated.Element[FR]{Limbs: limbs}
}

// InnerWitness builds the public witness of an inner proof from native
// variables.
func InnerWitness[FR emulated.FieldParams](api frontend.API, values ...frontend.Variable) groth16.Witness[FR] {
	w := groth16.Witness[FR]{Public: make([]emulated.Element[FR], len(values))}
	for i, v := range values {
		w.Public[i] = DigestToElement[FR](api, v)
	}
	return w
}

// VerifyingKeyLeaves flattens a BLS12-377 verifying key into the native
// BW6-761 field elements that identify it. It works both on circuit
// variables and on the values returned by ValueOfVerifyingKey.
func VerifyingKeyLeaves(vk VKBLS12377) []frontend.Variable {
	var leaves []frontend.Variable
	e2 := func(e fields_bls12377.E2) {
		leaves = append(leaves, e.A0, e.A1)
	}
	g2 := func(p sw_bls12377.G2Affine) {
		e2(p.P.X)
		e2(p.P.Y)
	}
	for _, e6 := range []fields_bls12377.E6{vk.E.C0, vk.E.C1} {
		e2(e6.B0)
		e2(e6.B1)
		e2(e6.B2)
	}
	for _, k := range vk.G1.K {
		leaves = append(leaves, k.X, k.Y)
	}
	g2(vk.G2.GammaNeg)
	g2(vk.G2.DeltaNeg)
	for _, ck := range vk.CommitmentKeys {
		g2(ck.G)
		g2(ck.GSigmaNeg)
	}
	return leaves
}

// VerifyingKeyDigestVar constrains the digest of a witness verifying key.
func VerifyingKeyDigestVar(api frontend.API, vk VKBLS12377) (frontend.Variable, error) {
	h, err := utils.MiMCHasher(api, VerifyingKeyLeaves(vk)...)
	if err != nil {
		return nil, err
	}
	return DigestVar(api, h), nil
}

// VerifyingKeyDigest computes natively the value VerifyingKeyDigestVar
// constrains for a BLS12-377 verifying key.
func VerifyingKeyDigest(vk backend_groth16.VerifyingKey) (*big.Int, error) {
	cvk, err := groth16.ValueOfVerifyingKey[sw_bls12377.G1Affine, sw_bls12377.G2Affine, sw_bls12377.GT](vk)
	if err != nil {
		return nil, fmt.Errorf("circuit verifying key: %w", err)
	}
	h := mimc.NewMiMC()
	for i, leaf := range VerifyingKeyLeaves(cvk) {
		v, err := valueToBig(leaf)
		if err != nil {
			return nil, fmt.Errorf("leaf %d: %w", i, err)
		}
		var buf [fr_bw6761.Bytes]byte
		v.FillBytes(buf[:])
		if _, err := h.Write(buf[:]); err != nil {
			return nil, fmt.Errorf("leaf %d: %w", i, err)
		}
	}
	return pedersen.Digest(new(big.Int).SetBytes(h.Sum(nil))), nil
}

func valueToBig(v frontend.Variable) (*big.Int, error) {
	switch x := v.(type) {
	case fr_bw6761.Element:
		return x.BigInt(new(big.Int)), nil
	case *fr_bw6761.Element:
		return x.BigInt(new(big.Int)), nil
	case fp_bls12377.Element:
		return x.BigInt(new(big.Int)), nil
	case *fp_bls12377.Element:
		return x.BigInt(new(big.Int)), nil
	case *big.Int:
		return new(big.Int).Mod(x, fr_bw6761.Modulus()), nil
	case big.Int:
		return new(big.Int).Mod(&x, fr_bw6761.Modulus()), nil
	case string:
		b, ok := new(big.Int).SetString(x, 0)
		if !ok {
			return nil, fmt.Errorf("invalid constant %q", x)
		}
		return b.Mod(b, fr_bw6761.Modulus()), nil
	case int:
		return new(big.Int).Mod(big.NewInt(int64(x)), fr_bw6761.Modulus()), nil
	case uint64:
		return new(big.Int).SetUint64(x), nil
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}
