package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/vocdoni/albatross-zkp/chain"
	"github.com/vocdoni/albatross-zkp/circuits"
	"github.com/vocdoni/albatross-zkp/circuits/dummy"
	"github.com/vocdoni/albatross-zkp/circuits/macroblock"
	"github.com/vocdoni/albatross-zkp/circuits/mergera"
	"github.com/vocdoni/albatross-zkp/circuits/mergerb"
	"github.com/vocdoni/albatross-zkp/circuits/wrapper"
	"github.com/vocdoni/albatross-zkp/log"
	"github.com/vocdoni/albatross-zkp/setup"
	"github.com/vocdoni/albatross-zkp/types"
)

// Step proves the block on top of st and returns the new state. Input
// problems are reported before any witness is built: structural ones as
// ErrMalformedInput, and blocks the circuits would reject (signature or
// signer weight) as constraint violations of the macroblock circuit. st is
// never modified.
func (d *Driver) Step(ctx context.Context, st *RecursionState, b *chain.Block) (*RecursionState, error) {
	lock := setup.Lock(d.keys.Shape)
	lock.RLock()
	defer lock.RUnlock()

	if err := d.checkState(st); err != nil {
		return nil, err
	}
	if err := b.Validate(d.params, d.keys.Shape.Validators, st.Header); err != nil {
		return nil, err
	}
	startTime := time.Now()
	height := b.Header.Height
	role := circuits.RoleForHeight(height)

	assignment, blockInputs, err := macroblock.Assignment(d.params, d.keys.Shape.Validators, st.Header, b)
	if err != nil {
		return nil, err
	}
	blockProof, err := d.prove(ctx, d.keys.MacroBlock, assignment)
	if err != nil {
		return nil, fmt.Errorf("block proof at height %d: %w", height, err)
	}
	newState := blockInputs.NewStateCommitment

	var (
		merger *setup.Proof
		next   *circuits.AggregateInputs
	)
	switch role {
	case circuits.RoleB:
		prior, priorVK := st.Proof, d.keys.MergerA.VK
		if prior == nil {
			// genesis: the prior aggregate is a dummy proof of the genesis
			// inputs
			if prior, err = d.prove(ctx, d.keys.Dummy, dummy.Assignment(
				st.Inputs.GenesisStateCommitment, st.Inputs.StateCommitment, st.Inputs.Height, st.Inputs.MergerADigest,
			)); err != nil {
				return nil, fmt.Errorf("dummy proof: %w", err)
			}
			priorVK = d.keys.Dummy.VK
		}
		wa, err := wrapper.Assignment(blockProof.Proof, blockInputs.PrevStateCommitment, newState, height)
		if err != nil {
			return nil, err
		}
		wrapped, err := d.prove(ctx, d.keys.Wrapper, wa)
		if err != nil {
			return nil, fmt.Errorf("wrapper proof at height %d: %w", height, err)
		}
		ma, inputs, err := mergerb.Assignment(st.Inputs, prior.Proof, priorVK, wrapped.Proof, newState)
		if err != nil {
			return nil, err
		}
		if merger, err = d.prove(ctx, d.keys.MergerB, ma); err != nil {
			return nil, fmt.Errorf("merger B proof at height %d: %w", height, err)
		}
		next = inputs
	case circuits.RoleA:
		ma, inputs, err := mergera.Assignment(st.Inputs, st.Proof.Proof, blockProof.Proof, newState)
		if err != nil {
			return nil, err
		}
		if merger, err = d.prove(ctx, d.keys.MergerA, ma); err != nil {
			return nil, fmt.Errorf("merger A proof at height %d: %w", height, err)
		}
		next = inputs
	}
	if err := checkInputs(merger, next); err != nil {
		return nil, err
	}
	log.Infow("aggregate proof generated",
		"height", height,
		"role", string(role),
		"state", newState.String(),
		"took", time.Since(startTime).String())
	return &RecursionState{
		Header:    b.Header,
		Committee: b.NextCommittee,
		Inputs:    *next,
		Proof:     merger,
	}, nil
}

// checkState validates the state a step starts from.
func (d *Driver) checkState(st *RecursionState) error {
	if st == nil || st.Header == nil || st.Committee == nil {
		return types.Malformed("incomplete recursion state")
	}
	if err := st.Inputs.Validate(); err != nil {
		return types.Malformed("recursion state: %v", err)
	}
	if st.Inputs.Height != st.Header.Height {
		return types.Malformed("recursion state at height %d has inputs of height %d", st.Header.Height, st.Inputs.Height)
	}
	state, err := chain.StateCommitment(d.params, st.Header)
	if err != nil {
		return err
	}
	if state.Cmp(st.Inputs.StateCommitment) != 0 {
		return types.Malformed("recursion state commitment does not match its header")
	}
	if st.Inputs.MergerADigest.Cmp(d.keys.MergerADigest) != 0 {
		return fmt.Errorf("%w: recursion state proven with other merger A keys", types.ErrShapeMismatch)
	}
	if st.Proof == nil {
		if st.Header.Height != 0 {
			return types.Malformed("missing aggregate proof at height %d", st.Header.Height)
		}
		if st.Inputs.GenesisStateCommitment.Cmp(st.Inputs.StateCommitment) != 0 {
			return types.Malformed("genesis state does not match the genesis inputs")
		}
		return nil
	}
	if st.Header.Height == 0 {
		return types.Malformed("unexpected aggregate proof at genesis")
	}
	return d.keys.ForRole(st.Role()).Expect(st.Proof.ShapeID)
}

// checkInputs asserts the merger proof exposes the expected public inputs.
func checkInputs(p *setup.Proof, expected *circuits.AggregateInputs) error {
	values := expected.Values()
	if len(p.PublicInputs) != len(values) {
		return fmt.Errorf("%s proof has %d public inputs, expected %d", p.Circuit, len(p.PublicInputs), len(values))
	}
	for i := range values {
		if p.PublicInputs[i].Cmp(values[i]) != 0 {
			return fmt.Errorf("%s proof public input %d is %s, expected %s", p.Circuit, i, p.PublicInputs[i], values[i])
		}
	}
	return nil
}
