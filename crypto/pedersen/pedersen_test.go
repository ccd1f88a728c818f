package pedersen

import (
	"errors"
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bw6-761/fr"
	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/albatross-zkp/types"
	"github.com/vocdoni/albatross-zkp/util"
)

func TestGeneratorsAreReproducible(t *testing.T) {
	c := qt.New(t)

	a, err := NewParams([]byte("seed"), 4)
	c.Assert(err, qt.IsNil)
	b, err := NewParams([]byte("seed"), 4)
	c.Assert(err, qt.IsNil)
	other, err := NewParams([]byte("other seed"), 4)
	c.Assert(err, qt.IsNil)

	c.Assert(a.Len(), qt.Equals, 4)
	for i := 0; i < a.Len(); i++ {
		ga, gb := a.Generator(i), b.Generator(i)
		c.Assert(ga.Equal(&gb), qt.IsTrue)
		c.Assert(ga.IsOnCurve(), qt.IsTrue)
		c.Assert(isIdentity(&ga), qt.IsFalse)
		g := other.Generator(i)
		c.Assert(ga.Equal(&g), qt.IsFalse)
		for j := 0; j < i; j++ {
			gj := a.Generator(j)
			c.Assert(ga.Equal(&gj), qt.IsFalse, qt.Commentf("generators %d and %d collide", i, j))
		}
	}
}

func TestDefaultParamsOnce(t *testing.T) {
	c := qt.New(t)
	c.Assert(DefaultParams(), qt.Equals, DefaultParams())
	c.Assert(DefaultParams().Len(), qt.Equals, DefaultGenerators)
	c.Assert(DefaultParams().Seed(), qt.DeepEquals, DefaultSeed)
}

func TestCommitBytesLength(t *testing.T) {
	c := qt.New(t)
	p, err := NewParams([]byte("seed"), 4)
	c.Assert(err, qt.IsNil)

	_, err = p.CommitBytes(make([]byte, ChunkBytes+1))
	c.Assert(errors.Is(err, types.ErrMalformedInput), qt.IsTrue)
	_, err = p.CommitBytes(nil)
	c.Assert(errors.Is(err, types.ErrMalformedInput), qt.IsTrue)
	_, err = p.CommitBytes(make([]byte, 5*ChunkBytes))
	c.Assert(errors.Is(err, types.ErrMalformedInput), qt.IsTrue, qt.Commentf("more chunks than generators"))

	data := util.RandomBytes(2 * ChunkBytes)
	fromBytes, err := p.CommitBytes(data)
	c.Assert(err, qt.IsNil)
	fromChunks, err := p.CommitChunks(
		new(big.Int).SetBytes(data[:ChunkBytes]),
		new(big.Int).SetBytes(data[ChunkBytes:]),
	)
	c.Assert(err, qt.IsNil)
	c.Assert(fromBytes.Cmp(fromChunks), qt.Equals, 0)
}

func TestCommitRejectsOutOfRange(t *testing.T) {
	c := qt.New(t)
	p, err := NewParams([]byte("seed"), 4)
	c.Assert(err, qt.IsNil)

	_, err = p.CommitChunks(new(big.Int).Lsh(big.NewInt(1), ChunkBits))
	c.Assert(errors.Is(err, types.ErrMalformedInput), qt.IsTrue)
	_, err = p.CommitChunks(big.NewInt(-1))
	c.Assert(errors.Is(err, types.ErrMalformedInput), qt.IsTrue)
	_, err = p.Commit(fr.Modulus())
	c.Assert(errors.Is(err, types.ErrMalformedInput), qt.IsTrue)
}

func TestCommitSplitsElements(t *testing.T) {
	c := qt.New(t)
	p, err := NewParams([]byte("seed"), 4)
	c.Assert(err, qt.IsNil)

	e1 := util.RandomFieldElement(fr.Modulus())
	e2 := util.RandomFieldElement(fr.Modulus())
	got, err := p.Commit(e1, e2)
	c.Assert(err, qt.IsNil)

	lo1, hi1 := SplitElement(e1)
	lo2, hi2 := SplitElement(e2)
	c.Assert(new(big.Int).Add(new(big.Int).Lsh(hi1, ChunkBits), lo1).Cmp(e1), qt.Equals, 0)
	want, err := p.CommitChunks(lo1, hi1, lo2, hi2)
	c.Assert(err, qt.IsNil)
	c.Assert(got.Cmp(want), qt.Equals, 0)

	// order matters
	swapped, err := p.Commit(e2, e1)
	c.Assert(err, qt.IsNil)
	c.Assert(swapped.Cmp(got), qt.Not(qt.Equals), 0)
}

func TestEmptyCommitmentIsIdentity(t *testing.T) {
	c := qt.New(t)
	p, err := NewParams([]byte("seed"), 2)
	c.Assert(err, qt.IsNil)

	x, err := p.CommitChunks()
	c.Assert(err, qt.IsNil)
	c.Assert(x.Sign(), qt.Equals, 0)
	zero, err := p.CommitChunks(big.NewInt(0), big.NewInt(0))
	c.Assert(err, qt.IsNil)
	c.Assert(zero.Sign(), qt.Equals, 0)
}

func TestDigest(t *testing.T) {
	c := qt.New(t)
	for i := 0; i < 32; i++ {
		x := util.RandomFieldElement(fr.Modulus())
		d := Digest(x)
		c.Assert(IsDigest(d), qt.IsTrue)
		c.Assert(d.Cmp(new(big.Int).Mod(x, chunkBound)), qt.Equals, 0)
	}
	c.Assert(IsDigest(chunkBound), qt.IsFalse)
}
