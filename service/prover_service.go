package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vocdoni/albatross-zkp/chain"
	"github.com/vocdoni/albatross-zkp/driver"
	"github.com/vocdoni/albatross-zkp/log"
)

// ProverService runs the proof pipeline in background: it proves every block
// the source delivers on top of the last proven state.
type ProverService struct {
	driver *driver.Driver
	source BlockSource

	mu     sync.Mutex
	state  *driver.RecursionState
	err    error
	cancel context.CancelFunc
	done   chan struct{}
}

// NewProver creates a new ProverService that starts proving from st.
func NewProver(d *driver.Driver, source BlockSource, st *driver.RecursionState) *ProverService {
	return &ProverService{
		driver: d,
		source: source,
		state:  st,
	}
}

// Start begins the proving service. It returns an error if the service is
// already running.
func (ps *ProverService) Start(ctx context.Context) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.cancel != nil {
		return fmt.Errorf("prover service already running")
	}
	ctx, cancel := context.WithCancel(ctx)
	blocks, err := ps.source.MonitorBlocks(ctx, ps.state.Header)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to monitor blocks: %w", err)
	}
	ps.cancel = cancel
	ps.err = nil
	ps.done = make(chan struct{})
	go ps.run(ctx, ps.state, blocks, ps.done)
	log.Infow("prover service started", "height", ps.state.Height())
	return nil
}

func (ps *ProverService) run(ctx context.Context, st *driver.RecursionState, blocks <-chan *chain.Block, done chan struct{}) {
	defer close(done)
	last, err := ps.driver.Run(ctx, st, blocks)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if err != nil {
		log.Errorw(err, "prover service stopped")
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.state, ps.err = last, err
}

// Stop halts the proving service and waits for the proof in progress to
// be abandoned. It can be started again from the last proven state.
func (ps *ProverService) Stop() {
	ps.mu.Lock()
	if ps.cancel == nil {
		ps.mu.Unlock()
		return
	}
	ps.cancel()
	done := ps.done
	ps.mu.Unlock()

	<-done

	ps.mu.Lock()
	ps.cancel = nil
	ps.mu.Unlock()
}

// Done returns a channel closed when the pipeline stops, either because
// of Stop or because of an error.
func (ps *ProverService) Done() <-chan struct{} {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.done
}

// State returns the last proven state once the pipeline stopped, and the
// initial state before.
func (ps *ProverService) State() *driver.RecursionState {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.state
}

// Err returns the error that stopped the pipeline, if any.
func (ps *ProverService) Err() error {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.err
}
