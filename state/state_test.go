package state

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/dvote/db/metadb"
)

func TestCheckpoints(t *testing.T) {
	c := qt.New(t)
	cp, err := New(metadb.NewTest(t))
	c.Assert(err, qt.IsNil)

	for h := uint64(0); h < 8; h++ {
		c.Assert(cp.Add(h, big.NewInt(int64(1000+h))), qt.IsNil)
	}
	// heights are recorded once
	c.Assert(cp.Add(3, big.NewInt(1)), qt.IsNotNil)
	// values must be digests
	c.Assert(cp.Add(9, new(big.Int).Lsh(big.NewInt(1), 250)), qt.IsNotNil)

	v, err := cp.Get(5)
	c.Assert(err, qt.IsNil)
	c.Assert(v.Int64(), qt.Equals, int64(1005))

	proof, err := cp.Proof(5)
	c.Assert(err, qt.IsNil)
	root, err := cp.Root()
	c.Assert(err, qt.IsNil)
	c.Assert(proof.Root.Cmp(root), qt.Equals, 0)
	ok, err := proof.Verify()
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)

	proof.StateCommitment = big.NewInt(1006)
	ok, err = proof.Verify()
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)

	_, err = cp.Proof(42)
	c.Assert(err, qt.IsNotNil)
}
