package macroblock

import (
	"fmt"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/native/sw_bls12377"
	"github.com/consensys/gnark/std/hash/mimc"
	"github.com/vocdoni/albatross-zkp/crypto/bls"
)

// hashToG1 constrains the message point exactly as bls.HashToG1 computes
// it: x = MiMC(tag, msg..., counter), (x, y) on the curve and the cofactor
// cleared by double-and-add. The counter and y are witness values.
func hashToG1(api frontend.API, tag uint64, msg []frontend.Variable, counter, y frontend.Variable) (*sw_bls12377.G1Affine, error) {
	h, err := mimc.NewMiMC(api)
	if err != nil {
		return nil, fmt.Errorf("init mimc: %w", err)
	}
	h.Write(tag)
	h.Write(msg...)
	h.Write(counter)
	x := h.Sum()
	// the counter is bounded like the native search
	api.AssertIsLessOrEqual(counter, bls.MaxHashAttempts-1)

	// y^2 = x^3 + 1
	api.AssertIsEqual(api.Mul(y, y), api.Add(api.Mul(x, x, x), 1))
	raw := sw_bls12377.G1Affine{X: x, Y: y}
	return clearCofactor(api, raw), nil
}

func clearCofactor(api frontend.API, p sw_bls12377.G1Affine) *sw_bls12377.G1Affine {
	acc := p
	for i := bls.G1Cofactor.BitLen() - 2; i >= 0; i-- {
		acc.Double(api, acc)
		if bls.G1Cofactor.Bit(i) == 1 {
			acc.AddAssign(api, p)
		}
	}
	return &acc
}
