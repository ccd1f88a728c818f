package driver

import (
	"context"
	"errors"
	"fmt"

	"github.com/vocdoni/albatross-zkp/chain"
	"github.com/vocdoni/albatross-zkp/log"
	"github.com/vocdoni/albatross-zkp/types"
)

// Run proves the blocks received from the channel one at a time, starting
// from st, and persists every new state. It returns the last proven state
// when the channel is closed, or that state together with the error that
// stopped it. Blocks the circuits reject stop the pipeline: they can not
// be skipped without breaking the chain.
func (d *Driver) Run(ctx context.Context, st *RecursionState, blocks <-chan *chain.Block) (*RecursionState, error) {
	if err := d.Persist(st); err != nil {
		return st, err
	}
	for {
		select {
		case <-ctx.Done():
			return st, ctx.Err()
		case b, ok := <-blocks:
			if !ok {
				return st, nil
			}
			next, err := d.Step(ctx, st, b)
			if err != nil {
				var height uint64
				if b != nil && b.Header != nil {
					height = b.Header.Height
				}
				logStepError(height, err)
				return st, err
			}
			if err := d.Persist(next); err != nil {
				return st, err
			}
			st = next
		}
	}
}

// Persist stores the committee elected by the state, its checkpoint and
// the state itself, if the driver has a storage and a checkpoint tree. The
// state is written last: after a failure the stored state is still the
// previous one, and persisting the same state again succeeds.
func (d *Driver) Persist(st *RecursionState) error {
	if d.stg != nil {
		if err := d.stg.SetCommittee(st.Header.NextCommitteeCommitment, st.Committee); err != nil {
			return fmt.Errorf("persist committee at height %d: %w", st.Height(), err)
		}
	}
	if d.checkpoints != nil {
		known, err := d.checkpoints.Get(st.Height())
		switch {
		case err != nil:
			if err := d.checkpoints.Add(st.Height(), st.Inputs.StateCommitment); err != nil {
				return err
			}
		case known.Cmp(st.Inputs.StateCommitment) != 0:
			return fmt.Errorf("checkpoint at height %d differs from the proven state", st.Height())
		}
	}
	if d.stg == nil {
		return nil
	}
	rec, err := st.Record()
	if err != nil {
		return err
	}
	if err := d.stg.SetRecursionState(rec); err != nil {
		return fmt.Errorf("persist state at height %d: %w", st.Height(), err)
	}
	return nil
}

func logStepError(height uint64, err error) {
	var cv *types.ConstraintViolationError
	switch {
	case errors.As(err, &cv):
		log.Warnw("block rejected", "height", height, "circuit", cv.Circuit, "error", err.Error())
	case errors.Is(err, types.ErrMalformedInput):
		log.Warnw("malformed block", "height", height, "error", err.Error())
	default:
		log.Errorw(err, fmt.Sprintf("failed to prove block at height %d", height))
	}
}
