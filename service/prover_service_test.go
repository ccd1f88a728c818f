package service

import (
	"context"
	"math/big"
	mrand "math/rand/v2"
	"testing"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/albatross-zkp/circuits"
	"github.com/vocdoni/albatross-zkp/crypto/pedersen"
	"github.com/vocdoni/albatross-zkp/driver"
	"github.com/vocdoni/albatross-zkp/setup"
	"github.com/vocdoni/albatross-zkp/storage"
	"go.vocdoni.io/dvote/db/metadb"
)

// publicBackend returns empty proofs exposing the public inputs of the
// assignment.
type publicBackend struct{}

func (publicBackend) Prove(_ context.Context, kp *setup.KeyPair, assignment frontend.Circuit) (*setup.Proof, error) {
	w, err := frontend.NewWitness(assignment, kp.Curve.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return nil, err
	}
	values, err := circuits.PublicValues(w)
	if err != nil {
		return nil, err
	}
	return &setup.Proof{
		Circuit:      kp.Circuit,
		ShapeID:      kp.ShapeID,
		Proof:        groth16.NewProof(kp.Curve),
		PublicInputs: values,
	}, nil
}

func testKeys() *setup.Keys {
	kp := func(name string, curve ecc.ID) *setup.KeyPair {
		return &setup.KeyPair{
			Circuit: name,
			Curve:   curve,
			ShapeID: setup.ShapeID(name, curve, 1, 1, circuits.DefaultValidators),
			VK:      groth16.NewVerifyingKey(curve),
		}
	}
	return &setup.Keys{
		Shape:         setup.Shape{Validators: circuits.DefaultValidators},
		MacroBlock:    kp(circuits.NameMacroBlock, ecc.BW6_761),
		Wrapper:       kp(circuits.NameWrapper, ecc.BLS12_377),
		Dummy:         kp(circuits.NameDummy, ecc.BLS12_377),
		MergerB:       kp(circuits.NameMergerB, ecc.BW6_761),
		MergerA:       kp(circuits.NameMergerA, ecc.BLS12_377),
		MergerADigest: big.NewInt(77),
	}
}

// waitHeight polls the storage until the stored state reaches the height.
func waitHeight(c *qt.C, stg *storage.Storage, height uint64, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if st, err := driver.LoadState(stg); err == nil && st.Height() >= height {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	c.Fatalf("height %d not reached", height)
}

func TestProverService(t *testing.T) {
	c := qt.New(t)
	params := pedersen.DefaultParams()
	stg := storage.New(metadb.NewTest(t))
	defer stg.Close()

	local, err := NewLocalChain(params, circuits.DefaultValidators, 0, nil)
	c.Assert(err, qt.IsNil)
	keys := testKeys()
	d, err := driver.New(keys, params, driver.WithBackend(publicBackend{}), driver.WithStorage(stg))
	c.Assert(err, qt.IsNil)
	genesis, err := driver.Genesis(params, keys, local.Genesis())
	c.Assert(err, qt.IsNil)

	prover := NewProver(d, local, genesis)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	c.Assert(prover.Start(ctx), qt.IsNil)
	c.Assert(prover.Start(ctx), qt.ErrorMatches, "prover service already running")

	for i := 0; i < 3; i++ {
		_, err := local.Produce()
		c.Assert(err, qt.IsNil)
	}
	waitHeight(c, stg, 3, 30*time.Second)
	prover.Stop()
	c.Assert(prover.Err(), qt.IsNil)
	c.Assert(prover.State().Height(), qt.Equals, uint64(3))

	// restart from the last proven state, with blocks produced meanwhile
	_, err = local.Produce()
	c.Assert(err, qt.IsNil)
	c.Assert(prover.Start(ctx), qt.IsNil)
	waitHeight(c, stg, 4, 30*time.Second)
	prover.Stop()
	c.Assert(prover.State().Height(), qt.Equals, uint64(4))
}

func TestLocalChainProduces(t *testing.T) {
	c := qt.New(t)
	local, err := NewLocalChain(pedersen.DefaultParams(), circuits.DefaultValidators, 10*time.Millisecond, nil)
	c.Assert(err, qt.IsNil)
	genesis, err := driver.Genesis(pedersen.DefaultParams(), testKeys(), local.Genesis())
	c.Assert(err, qt.IsNil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	blocks, err := local.MonitorBlocks(ctx, genesis.Header)
	c.Assert(err, qt.IsNil)
	prev := genesis.Header
	for i := 0; i < 3; i++ {
		b := <-blocks
		c.Assert(b.Validate(pedersen.DefaultParams(), circuits.DefaultValidators, prev), qt.IsNil)
		prev = b.Header
	}
	cancel()
	for range blocks {
	}

	ahead := *prev
	ahead.Height = local.Height() + 10
	_, err = local.MonitorBlocks(context.Background(), &ahead)
	c.Assert(err, qt.IsNotNil)
}

func TestLocalChainSeed(t *testing.T) {
	c := qt.New(t)
	params := pedersen.DefaultParams()
	seed := [32]byte{1, 2, 3}
	a, err := NewLocalChain(params, circuits.DefaultValidators, 0, mrand.NewChaCha8(seed))
	c.Assert(err, qt.IsNil)
	b, err := NewLocalChain(params, circuits.DefaultValidators, 0, mrand.NewChaCha8(seed))
	c.Assert(err, qt.IsNil)

	c.Assert(a.FastForward(2), qt.IsNil)
	c.Assert(b.FastForward(2), qt.IsNil)
	c.Assert(a.Height(), qt.Equals, uint64(2))
	for h := uint64(0); h <= 2; h++ {
		c.Assert(a.Header(h).Bytes(), qt.DeepEquals, b.Header(h).Bytes())
	}
	c.Assert(a.Header(3), qt.IsNil)
}
