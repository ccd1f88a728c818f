package setup

import (
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/albatross-zkp/circuits"
	"github.com/vocdoni/albatross-zkp/circuits/dummy"
	"github.com/vocdoni/albatross-zkp/crypto/pedersen"
	"github.com/vocdoni/albatross-zkp/storage"
	"github.com/vocdoni/albatross-zkp/types"
	"go.vocdoni.io/dvote/db/metadb"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "albatross-zkp-setup")
	if err != nil {
		panic(err)
	}
	circuits.BaseDir = dir
	code := m.Run()
	if err := os.RemoveAll(dir); err != nil {
		panic(err)
	}
	os.Exit(code)
}

func dummyKeyPair(c *qt.C, constraints int) *KeyPair {
	ccs, pk, vk, err := dummy.CompileAndSetup(dummy.PlaceholderWithConstraints(constraints))
	c.Assert(err, qt.IsNil)
	kp, err := NewKeyPair(circuits.NameDummy, dummy.Curve, 4, ccs, pk, vk)
	c.Assert(err, qt.IsNil)
	return kp
}

func TestShape(t *testing.T) {
	c := qt.New(t)
	c.Assert(Shape{Validators: 4}.Validate(), qt.IsNil)
	c.Assert(Shape{Validators: 4}.Depth(), qt.Equals, 2)
	c.Assert(Shape{Validators: 3}.Validate(), qt.ErrorIs, types.ErrMalformedInput)
	c.Assert(Shape{Validators: 8192}.Validate(), qt.ErrorIs, types.ErrMalformedInput)

	id := ShapeID("merger_a", dummy.Curve, 100, 5, 4)
	c.Assert(id, qt.Equals, ShapeID("merger_a", dummy.Curve, 100, 5, 4))
	c.Assert(id, qt.Not(qt.Equals), ShapeID("merger_a", dummy.Curve, 100, 5, 8))
	c.Assert(id, qt.Not(qt.Equals), ShapeID("merger_b", dummy.Curve, 100, 5, 4))

	c.Assert(Lock(Shape{Validators: 4}), qt.Equals, Lock(Shape{Validators: 4}))
}

func TestKeyPairCheck(t *testing.T) {
	c := qt.New(t)
	kp := dummyKeyPair(c, 8)
	c.Assert(kp.Check(), qt.IsNil)
	c.Assert(kp.Expect(kp.ShapeID), qt.IsNil)
	c.Assert(kp.Expect("other"), qt.ErrorIs, types.ErrShapeMismatch)

	other := dummyKeyPair(c, 8)
	kp.VK = other.VK
	c.Assert(kp.Check(), qt.ErrorIs, types.ErrArtifactCorrupted)
}

func TestCheckPublicInputs(t *testing.T) {
	c := qt.New(t)
	kp := dummyKeyPair(c, 8)
	c.Assert(checkPublicInputs(kp), qt.IsNil)

	// an aggregate shaped key cannot stand for a block circuit
	kp.Circuit = circuits.NameWrapper
	c.Assert(checkPublicInputs(kp), qt.ErrorIs, types.ErrShapeMismatch)
}

func TestVerify(t *testing.T) {
	c := qt.New(t)
	kp := dummyKeyPair(c, 8)
	inputs := circuits.GenesisInputs(big.NewInt(100), big.NewInt(200))
	proof, _, err := dummy.Prove(kp.CCS, kp.PK, kp.VK, dummy.Assignment(
		inputs.GenesisStateCommitment, inputs.StateCommitment, inputs.Height, inputs.MergerADigest))
	c.Assert(err, qt.IsNil)

	p := &Proof{Circuit: kp.Circuit, ShapeID: kp.ShapeID, Proof: proof, PublicInputs: inputs.Values()}
	c.Assert(Verify(kp, p), qt.IsNil)

	wrongShape := *p
	wrongShape.ShapeID = ShapeID(circuits.NameDummy, dummy.Curve, 8, 5, 8)
	c.Assert(Verify(kp, &wrongShape), qt.ErrorIs, types.ErrShapeMismatch)

	wrongInputs := *p
	wrongInputs.PublicInputs = circuits.GenesisInputs(big.NewInt(101), big.NewInt(200)).Values()
	err = Verify(kp, &wrongInputs)
	c.Assert(err, qt.ErrorIs, types.ErrConstraintViolation)
	var cv *types.ConstraintViolationError
	c.Assert(err, qt.ErrorAs, &cv)
	c.Assert(cv.Circuit, qt.Equals, circuits.NameDummy)

	fewInputs := *p
	fewInputs.PublicInputs = p.PublicInputs[:3]
	c.Assert(Verify(kp, &fewInputs), qt.ErrorIs, types.ErrMalformedInput)
}

func TestSaveLoadKeyPair(t *testing.T) {
	c := qt.New(t)
	stg := storage.New(metadb.NewTest(t))
	shape := Shape{Validators: 4}
	kp := dummyKeyPair(c, 8)

	_, err := LoadKeyPair(context.Background(), stg, circuits.NameDummy, shape, "")
	c.Assert(err, qt.ErrorIs, storage.ErrNotFound)
	c.Assert(IsNotFound(err), qt.IsTrue)

	c.Assert(saveKeyPair(stg, kp, shape, ""), qt.IsNil)
	loaded, err := LoadKeyPair(context.Background(), stg, circuits.NameDummy, shape, "")
	c.Assert(err, qt.IsNil)
	c.Assert(loaded.ShapeID, qt.Equals, kp.ShapeID)
	c.Assert([]byte(loaded.Hash), qt.DeepEquals, []byte(kp.Hash))
	c.Assert(loaded.Curve, qt.Equals, kp.Curve)
	c.Assert(loaded.Check(), qt.IsNil)

	// a record claiming another shape is rejected
	rec, err := stg.Key(circuits.NameDummy, 4)
	c.Assert(err, qt.IsNil)
	rec.ShapeID = "dummy/bls12_377/c1/p5/v4"
	c.Assert(stg.SetKey(rec), qt.IsNil)
	_, err = LoadKeyPair(context.Background(), stg, circuits.NameDummy, shape, "")
	c.Assert(err, qt.ErrorIs, types.ErrShapeMismatch)

	// a record with another key pair hash is rejected
	rec.ShapeID = kp.ShapeID
	rec.Hash = make([]byte, 32)
	c.Assert(stg.SetKey(rec), qt.IsNil)
	_, err = LoadKeyPair(context.Background(), stg, circuits.NameDummy, shape, "")
	c.Assert(err, qt.ErrorIs, types.ErrArtifactCorrupted)
}

func TestLoadKeyPairDownload(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	stg := storage.New(metadb.NewTest(t))
	shape := Shape{Validators: 4}
	kp := dummyKeyPair(c, 8)

	published := circuits.BaseDir
	server := httptest.NewServer(http.StripPrefix("/artifacts", http.FileServer(http.Dir(published))))
	defer server.Close()
	c.Assert(saveKeyPair(stg, kp, shape, server.URL+"/artifacts"), qt.IsNil)
	rec, err := stg.Key(circuits.NameDummy, shape.Validators)
	c.Assert(err, qt.IsNil)
	c.Assert(rec.ArtifactsURL, qt.Equals, server.URL+"/artifacts")

	// a node with an empty artifact cache fetches the recorded artifacts
	circuits.BaseDir = c.TempDir()
	c.Cleanup(func() { circuits.BaseDir = published })
	loaded, err := LoadKeyPair(ctx, stg, circuits.NameDummy, shape, "")
	c.Assert(err, qt.IsNil)
	c.Assert(loaded.ShapeID, qt.Equals, kp.ShapeID)
	c.Assert(loaded.Check(), qt.IsNil)
	for _, hash := range [][]byte{rec.CCS, rec.PK, rec.VK} {
		_, err := os.Stat(circuits.ArtifactPath(hash))
		c.Assert(err, qt.IsNil)
	}

	// the given URL takes precedence over the recorded one
	circuits.BaseDir = c.TempDir()
	_, err = LoadKeyPair(ctx, stg, circuits.NameDummy, shape, server.URL+"/elsewhere")
	c.Assert(err, qt.ErrorMatches, ".*http status 404")
}

type threeInputs struct {
	A frontend.Variable `gnark:",public"`
	B frontend.Variable `gnark:",public"`
	C frontend.Variable `gnark:",public"`
}

func (c *threeInputs) Define(api frontend.API) error {
	api.AssertIsEqual(api.Add(c.A, c.B), c.C)
	return nil
}

func TestCheckVerifierShape(t *testing.T) {
	c := qt.New(t)
	small, err := frontend.Compile(dummy.Curve.ScalarField(), r1cs.NewBuilder, dummy.PlaceholderWithConstraints(4))
	c.Assert(err, qt.IsNil)
	large, err := frontend.Compile(dummy.Curve.ScalarField(), r1cs.NewBuilder, dummy.PlaceholderWithConstraints(64))
	c.Assert(err, qt.IsNil)
	c.Assert(CheckVerifierShape(small, large), qt.IsNil)

	other, err := frontend.Compile(dummy.Curve.ScalarField(), r1cs.NewBuilder, &threeInputs{})
	c.Assert(err, qt.IsNil)
	c.Assert(CheckVerifierShape(small, other), qt.ErrorIs, types.ErrShapeMismatch)
}

func TestBootstrapValidation(t *testing.T) {
	c := qt.New(t)
	_, err := Bootstrap(context.Background(), pedersen.DefaultParams(), Shape{Validators: 6})
	c.Assert(err, qt.ErrorIs, types.ErrMalformedInput)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Bootstrap(ctx, pedersen.DefaultParams(), Shape{Validators: 4})
	c.Assert(err, qt.ErrorIs, context.Canceled)
}

func TestBootstrap(t *testing.T) {
	if os.Getenv("RUN_CIRCUIT_TESTS") == "" {
		t.Skip("skipping circuit tests...")
	}
	c := qt.New(t)
	shape := Shape{Validators: circuits.DefaultValidators}
	var (
		mtx  sync.Mutex
		done []string
	)
	keys, err := Bootstrap(context.Background(), pedersen.DefaultParams(), shape, WithProgress(func(name string) {
		mtx.Lock()
		defer mtx.Unlock()
		done = append(done, name)
	}))
	c.Assert(err, qt.IsNil)
	c.Assert(done, qt.HasLen, Steps)
	c.Assert(keys.ForRole(circuits.RoleA), qt.Equals, keys.MergerA)
	c.Assert(keys.ForRole(circuits.RoleB), qt.Equals, keys.MergerB)

	stg := storage.New(metadb.NewTest(t))
	c.Assert(keys.Save(stg, ""), qt.IsNil)
	loaded, err := Load(context.Background(), stg, shape, "")
	c.Assert(err, qt.IsNil)
	c.Assert(loaded.MergerADigest.Cmp(keys.MergerADigest), qt.Equals, 0)
	for i, kp := range loaded.All() {
		c.Assert(kp.ShapeID, qt.Equals, keys.All()[i].ShapeID)
	}
}
