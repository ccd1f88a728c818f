// Package bls implements BLS signatures over BLS12-377 as used by the macro
// block committees. Public keys live in G2 and signatures in G1, so that the
// message point, the signature and the aggregation of public keys can all be
// handled with native arithmetic inside BW6-761 circuits.
//
// Messages are sequences of BW6-761 scalar field elements (which is also the
// BLS12-377 base field). They are hashed onto G1 with MiMC and a
// try-and-increment search for a valid x coordinate; the cofactor is then
// cleared with a plain double-and-add, which is reproduced step by step by
// the in-circuit verifier.
package bls

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"sync"

	bls12377 "github.com/consensys/gnark-crypto/ecc/bls12-377"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fp"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	frbw6 "github.com/consensys/gnark-crypto/ecc/bw6-761/fr"
	"github.com/consensys/gnark-crypto/ecc/bw6-761/fr/mimc"
	"github.com/vocdoni/albatross-zkp/types"
)

const (
	// TagMessage prefixes every signed message before hashing.
	TagMessage = 0x6d61636f // "maco"
	// TagPossession prefixes proof-of-possession messages.
	TagPossession = 0x706f7373 // "poss"
	// MaxHashAttempts bounds the try-and-increment search.
	MaxHashAttempts = 256

	PublicKeySize = bls12377.SizeOfG2AffineCompressed
	SignatureSize = bls12377.SizeOfG1AffineCompressed
)

// G1Cofactor is the cofactor of the BLS12-377 G1 group.
var G1Cofactor, _ = new(big.Int).SetString("170b5d44300000000000000000000000", 16)

var ErrInvalidSignature = errors.New("invalid BLS signature")

// SecretKey is a BLS secret scalar.
type SecretKey struct {
	s big.Int
}

// PublicKey is a BLS12-377 G2 point.
type PublicKey struct {
	bls12377.G2Affine
}

// Signature is a BLS12-377 G1 point.
type Signature struct {
	bls12377.G1Affine
}

// MessagePoint is the result of hashing a message onto G1. X, Y and Counter
// are the witness of the in-circuit hash: (X, Y) is the curve point found by
// the search and Point is (X, Y) multiplied by the cofactor.
type MessagePoint struct {
	Point   bls12377.G1Affine
	X, Y    fp.Element
	Counter uint64
}

// GenerateKey generates a secret key reading randomness from r.
func GenerateKey(r io.Reader) (*SecretKey, error) {
	buf := make([]byte, fr.Bytes+16)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("read randomness: %w", err)
	}
	sk := &SecretKey{}
	sk.s.SetBytes(buf)
	sk.s.Mod(&sk.s, fr.Modulus())
	if sk.s.Sign() == 0 {
		return nil, fmt.Errorf("zero secret key")
	}
	return sk, nil
}

// PublicKey returns the public key of sk.
func (sk *SecretKey) PublicKey() PublicKey {
	_, _, _, g2 := bls12377.Generators()
	var pk PublicKey
	pk.ScalarMultiplication(&g2, &sk.s)
	return pk
}

// Sign signs the message, returning the signature and the hashed message
// point.
func (sk *SecretKey) Sign(msg []*big.Int) (Signature, *MessagePoint, error) {
	mp, err := HashToG1(TagMessage, msg)
	if err != nil {
		return Signature{}, nil, err
	}
	var sig Signature
	sig.ScalarMultiplication(&mp.Point, &sk.s)
	return sig, mp, nil
}

// Verify checks sig over msg under pk.
func Verify(pk PublicKey, msg []*big.Int, sig Signature) error {
	mp, err := HashToG1(TagMessage, msg)
	if err != nil {
		return err
	}
	return verifyPoint(pk, mp.Point, sig)
}

func verifyPoint(pk PublicKey, h bls12377.G1Affine, sig Signature) error {
	if !sig.IsOnCurve() || !sig.IsInSubGroup() {
		return fmt.Errorf("%w: signature not in G1", ErrInvalidSignature)
	}
	_, _, _, g2 := bls12377.Generators()
	var negSig bls12377.G1Affine
	negSig.Neg(&sig.G1Affine)
	ok, err := bls12377.PairingCheck(
		[]bls12377.G1Affine{h, negSig},
		[]bls12377.G2Affine{pk.G2Affine, g2},
	)
	if err != nil {
		return fmt.Errorf("pairing check: %w", err)
	}
	if !ok {
		return ErrInvalidSignature
	}
	return nil
}

// AggregatePublicKeys returns the sum of the keys.
func AggregatePublicKeys(keys ...PublicKey) PublicKey {
	var acc bls12377.G2Jac
	for i := range keys {
		acc.AddMixed(&keys[i].G2Affine)
	}
	var agg PublicKey
	agg.FromJacobian(&acc)
	return agg
}

// AggregateSignatures returns the sum of the signatures.
func AggregateSignatures(sigs ...Signature) Signature {
	var acc bls12377.G1Jac
	for i := range sigs {
		acc.AddMixed(&sigs[i].G1Affine)
	}
	var agg Signature
	agg.FromJacobian(&acc)
	return agg
}

// ProvePossession signs the public key itself, proving knowledge of the
// secret key. Committees only admit keys with a valid proof, which rules out
// rogue-key attacks on aggregated signatures.
func (sk *SecretKey) ProvePossession() (Signature, error) {
	pk := sk.PublicKey()
	mp, err := HashToG1(TagPossession, pk.Coordinates())
	if err != nil {
		return Signature{}, err
	}
	var sig Signature
	sig.ScalarMultiplication(&mp.Point, &sk.s)
	return sig, nil
}

// VerifyPossession checks a proof of possession for pk.
func VerifyPossession(pk PublicKey, proof Signature) error {
	mp, err := HashToG1(TagPossession, pk.Coordinates())
	if err != nil {
		return err
	}
	return verifyPoint(pk, mp.Point, proof)
}

// Coordinates returns X.A0, X.A1, Y.A0, Y.A1 as integers. They are
// canonical BW6-761 scalar field elements.
func (pk PublicKey) Coordinates() []*big.Int {
	return []*big.Int{
		pk.X.A0.BigInt(new(big.Int)),
		pk.X.A1.BigInt(new(big.Int)),
		pk.Y.A0.BigInt(new(big.Int)),
		pk.Y.A1.BigInt(new(big.Int)),
	}
}

// Validate checks the key is a non-identity point of the G2 subgroup.
func (pk PublicKey) Validate() error {
	if pk.IsInfinity() || !pk.IsOnCurve() || !pk.IsInSubGroup() {
		return types.Malformed("public key is not a G2 subgroup point")
	}
	return nil
}

// HashToG1 maps (tag, msg...) to a G1 subgroup point. For counter = 0, 1...
// it computes x = MiMC(tag, msg..., counter) and returns the first point
// with that x coordinate (taking the lexicographically smaller y), with the
// cofactor cleared.
func HashToG1(tag uint64, msg []*big.Int) (*MessagePoint, error) {
	for i, m := range msg {
		if m == nil || m.Sign() < 0 || m.Cmp(frbw6.Modulus()) >= 0 {
			return nil, types.Malformed("message element %d is not a field element", i)
		}
	}
	var one fp.Element
	one.SetOne()
	for ctr := uint64(0); ctr < MaxHashAttempts; ctr++ {
		x, err := MessageHash(tag, msg, ctr)
		if err != nil {
			return nil, err
		}
		var px, rhs, py fp.Element
		px.SetBigInt(x)
		rhs.Square(&px).Mul(&rhs, &px).Add(&rhs, &one)
		if py.Sqrt(&rhs) == nil {
			continue
		}
		if py.LexicographicallyLargest() {
			py.Neg(&py)
		}
		raw := bls12377.G1Affine{X: px, Y: py}
		point := ClearCofactor(raw)
		if point.IsInfinity() {
			continue
		}
		return &MessagePoint{Point: point, X: px, Y: py, Counter: ctr}, nil
	}
	return nil, fmt.Errorf("no G1 point found after %d attempts", MaxHashAttempts)
}

// MessageHash returns MiMC(tag, msg..., counter) over the BW6-761 scalar
// field.
func MessageHash(tag uint64, msg []*big.Int, counter uint64) (*big.Int, error) {
	h := mimc.NewMiMC()
	write := func(v *big.Int) error {
		var buf [frbw6.Bytes]byte
		v.FillBytes(buf[:])
		_, err := h.Write(buf[:])
		return err
	}
	if err := write(new(big.Int).SetUint64(tag)); err != nil {
		return nil, err
	}
	for _, m := range msg {
		if err := write(m); err != nil {
			return nil, fmt.Errorf("hash message: %w", err)
		}
	}
	if err := write(new(big.Int).SetUint64(counter)); err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(h.Sum(nil)), nil
}

// ClearCofactor multiplies p by G1Cofactor with a most-significant-bit-first
// double-and-add.
func ClearCofactor(p bls12377.G1Affine) bls12377.G1Affine {
	var acc bls12377.G1Jac
	acc.FromAffine(&p)
	for i := G1Cofactor.BitLen() - 2; i >= 0; i-- {
		acc.DoubleAssign()
		if G1Cofactor.Bit(i) == 1 {
			acc.AddMixed(&p)
		}
	}
	var res bls12377.G1Affine
	res.FromJacobian(&acc)
	return res
}

var (
	fixedPointsOnce sync.Once
	dummyKey        PublicKey
	aggOffset       PublicKey
)

func deriveFixedPoints() {
	fixedPointsOnce.Do(func() {
		dst := []byte("ALBATROSS-ZKP-V01-CS01-with-BLS12377G2_XMD:SHA-256_SSWU_RO_")
		d, err := bls12377.HashToG2([]byte("committee padding key"), dst)
		if err != nil {
			panic(err)
		}
		o, err := bls12377.HashToG2([]byte("aggregation offset"), dst)
		if err != nil {
			panic(err)
		}
		dummyKey = PublicKey{d}
		aggOffset = PublicKey{o}
	})
}

// DummyPublicKey is the neutral key committees are padded with. Nobody
// knows its discrete logarithm, so it can never contribute a valid
// signature share.
func DummyPublicKey() PublicKey {
	deriveFixedPoints()
	return dummyKey
}

// AggregationOffset is the starting point of the in-circuit key
// accumulator, which keeps the incomplete addition formulas away from the
// identity.
func AggregationOffset() PublicKey {
	deriveFixedPoints()
	return aggOffset
}
