package setup

import (
	"context"
	"fmt"
	"math/big"
	"slices"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/std/algebra/native/sw_bls12377"
	stdgroth16 "github.com/consensys/gnark/std/recursion/groth16"
	"github.com/vocdoni/albatross-zkp/circuits"
	"github.com/vocdoni/albatross-zkp/circuits/dummy"
	"github.com/vocdoni/albatross-zkp/circuits/macroblock"
	"github.com/vocdoni/albatross-zkp/circuits/mergera"
	"github.com/vocdoni/albatross-zkp/circuits/mergerb"
	"github.com/vocdoni/albatross-zkp/circuits/wrapper"
	"github.com/vocdoni/albatross-zkp/crypto/pedersen"
	"github.com/vocdoni/albatross-zkp/log"
	"github.com/vocdoni/albatross-zkp/types"
	"golang.org/x/sync/errgroup"
)

// DummyConstraints is the size of the dummy circuit. Its verifier shape does
// not depend on it.
const DummyConstraints = 1 << 4

// Steps is the number of circuits Bootstrap compiles.
const Steps = 5

// Keys are the key pairs of every circuit of a shape.
type Keys struct {
	Shape      Shape
	MacroBlock *KeyPair
	Wrapper    *KeyPair
	Dummy      *KeyPair
	MergerB    *KeyPair
	MergerA    *KeyPair
	// MergerADigest is the digest of the merger A verifying key exposed by
	// every aggregate proof.
	MergerADigest *big.Int
}

// All returns the key pairs in bootstrap order.
func (k *Keys) All() []*KeyPair {
	return []*KeyPair{k.MacroBlock, k.Wrapper, k.Dummy, k.MergerB, k.MergerA}
}

// ForRole returns the merger key pair of the role.
func (k *Keys) ForRole(role circuits.Role) *KeyPair {
	if role == circuits.RoleB {
		return k.MergerB
	}
	return k.MergerA
}

// Option configures Bootstrap.
type Option func(*options)

type options struct {
	progress func(circuit string)
}

// WithProgress sets a callback called after every circuit is set up. It may
// be called concurrently.
func WithProgress(fn func(circuit string)) Option {
	return func(o *options) {
		o.progress = fn
	}
}

// Bootstrap compiles every circuit for the shape and runs its groth16 setup.
// The order is fixed by the keys each circuit embeds: the block circuit,
// then the wrapper (embeds the block key), the dummy, merger B (takes the
// shape of the dummy key and embeds the wrapper key) and last merger A
// (embeds the block and merger B keys). Merger A must end up with the
// verifier shape of the dummy, which merger B was compiled for; otherwise
// ErrShapeMismatch is returned.
func Bootstrap(ctx context.Context, params *pedersen.Params, shape Shape, opts ...Option) (*Keys, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	o := &options{progress: func(string) {}}
	for _, opt := range opts {
		opt(o)
	}
	lock := Lock(shape)
	lock.Lock()
	defer lock.Unlock()

	keys := &Keys{Shape: shape}
	// the dummy does not depend on the block keys
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		keys.MacroBlock, err = compileAndSetup(gctx, circuits.NameMacroBlock, ecc.BW6_761, shape,
			macroblock.Placeholder(params, shape.Validators))
		if err != nil {
			return err
		}
		o.progress(circuits.NameMacroBlock)
		placeholder, err := wrapper.Placeholder(keys.MacroBlock.CCS, keys.MacroBlock.VK)
		if err != nil {
			return err
		}
		if keys.Wrapper, err = compileAndSetup(gctx, circuits.NameWrapper, ecc.BLS12_377, shape, placeholder); err != nil {
			return err
		}
		o.progress(circuits.NameWrapper)
		return nil
	})
	g.Go(func() error {
		var err error
		keys.Dummy, err = compileAndSetup(gctx, circuits.NameDummy, dummy.Curve, shape,
			dummy.PlaceholderWithConstraints(DummyConstraints))
		if err != nil {
			return err
		}
		o.progress(circuits.NameDummy)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	placeholderB, err := mergerb.Placeholder(keys.Dummy.CCS, keys.Wrapper.CCS, keys.Wrapper.VK)
	if err != nil {
		return nil, err
	}
	if keys.MergerB, err = compileAndSetup(ctx, circuits.NameMergerB, ecc.BW6_761, shape, placeholderB); err != nil {
		return nil, err
	}
	o.progress(circuits.NameMergerB)

	placeholderA, err := mergera.Placeholder(keys.MergerB.CCS, keys.MergerB.VK, keys.MacroBlock.CCS, keys.MacroBlock.VK)
	if err != nil {
		return nil, err
	}
	if keys.MergerA, err = compileAndSetup(ctx, circuits.NameMergerA, ecc.BLS12_377, shape, placeholderA); err != nil {
		return nil, err
	}
	o.progress(circuits.NameMergerA)

	if err := CheckVerifierShape(keys.Dummy.CCS, keys.MergerA.CCS); err != nil {
		return nil, err
	}
	if keys.MergerADigest, err = circuits.VerifyingKeyDigest(keys.MergerA.VK); err != nil {
		return nil, fmt.Errorf("merger A digest: %w", err)
	}
	log.Infow("setup completed", "shape", shape.String(), "mergerADigest", keys.MergerADigest.String())
	return keys, nil
}

func compileAndSetup(ctx context.Context, name string, curve ecc.ID, shape Shape, placeholder frontend.Circuit) (*KeyPair, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	startTime := time.Now()
	ccs, err := frontend.Compile(curve.ScalarField(), r1cs.NewBuilder, placeholder)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	log.Debugw("circuit compiled", "circuit", name, "constraints", ccs.GetNbConstraints(), "took", time.Since(startTime).String())
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	startTime = time.Now()
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, fmt.Errorf("setup %s: %w", name, err)
	}
	log.Debugw("circuit setup done", "circuit", name, "took", time.Since(startTime).String())
	kp, err := NewKeyPair(name, curve, shape.Validators, ccs, pk, vk)
	if err != nil {
		return nil, err
	}
	if err := checkPublicInputs(kp); err != nil {
		return nil, err
	}
	return kp, nil
}

// checkPublicInputs returns ErrShapeMismatch if the circuit does not expose
// the public inputs of its kind: those of a block transition for the block
// and wrapper circuits, and the aggregate ones for the rest.
func checkPublicInputs(kp *KeyPair) error {
	expected := circuits.AggregatePublicInputs
	if kp.Circuit == circuits.NameMacroBlock || kp.Circuit == circuits.NameWrapper {
		expected = circuits.BlockPublicInputs
	}
	if n := kp.VK.NbPublicWitness(); n != expected {
		return fmt.Errorf("%w: %s has %d public inputs, expected %d", types.ErrShapeMismatch, kp.Circuit, n, expected)
	}
	return nil
}

// CheckVerifierShape returns ErrShapeMismatch unless a BLS12-377 verifier
// compiled for the first constraint system can verify proofs of the second
// one: same number of public inputs and commitments, and same committed
// public inputs.
func CheckVerifierShape(expected, got constraint.ConstraintSystem) error {
	ve := stdgroth16.PlaceholderVerifyingKey[sw_bls12377.G1Affine, sw_bls12377.G2Affine, sw_bls12377.GT](expected)
	vg := stdgroth16.PlaceholderVerifyingKey[sw_bls12377.G1Affine, sw_bls12377.G2Affine, sw_bls12377.GT](got)
	switch {
	case len(ve.G1.K) != len(vg.G1.K):
		return fmt.Errorf("%w: %d public inputs, expected %d", types.ErrShapeMismatch, len(vg.G1.K), len(ve.G1.K))
	case len(ve.CommitmentKeys) != len(vg.CommitmentKeys):
		return fmt.Errorf("%w: %d commitments, expected %d", types.ErrShapeMismatch, len(vg.CommitmentKeys), len(ve.CommitmentKeys))
	case !slices.EqualFunc(ve.PublicAndCommitmentCommitted, vg.PublicAndCommitmentCommitted, slices.Equal[[]int]):
		return fmt.Errorf("%w: committed public inputs %v, expected %v", types.ErrShapeMismatch,
			vg.PublicAndCommitmentCommitted, ve.PublicAndCommitmentCommitted)
	}
	return nil
}
