package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/vocdoni/albatross-zkp/chain"
	"github.com/vocdoni/albatross-zkp/committee"
	"github.com/vocdoni/albatross-zkp/crypto/bls"
	"github.com/vocdoni/albatross-zkp/crypto/pedersen"
	"github.com/vocdoni/albatross-zkp/log"
)

// BlockSource delivers the macro blocks that follow a header, in height
// order. The channel is closed when ctx is done.
type BlockSource interface {
	MonitorBlocks(ctx context.Context, after *chain.Header) (<-chan *chain.Block, error)
}

// pollInterval is how often a LocalChain checks for new blocks to deliver.
const pollInterval = 10 * time.Millisecond

// LocalChain is a BlockSource that produces its own blocks: every block
// elects a fresh committee of equal weights and is signed by all the
// validators of the previous one. It is used by tests and local networks.
type LocalChain struct {
	params   *pedersen.Params
	capacity int
	interval time.Duration
	rnd      io.Reader

	genesis       *committee.Committee
	genesisHeader *chain.Header

	mu        sync.Mutex
	head      *chain.Header
	committee *committee.Committee
	sks       []*bls.SecretKey
	blocks    []*chain.Block
}

// NewLocalChain creates a chain with a random genesis committee. If interval
// is not zero a block is produced every interval while some monitor runs,
// otherwise blocks are produced with Produce. The validator keys are read
// from rnd, or from crypto/rand if nil; two chains with the same rnd stream
// produce the same blocks.
func NewLocalChain(params *pedersen.Params, capacity int, interval time.Duration, rnd io.Reader) (*LocalChain, error) {
	if rnd == nil {
		rnd = rand.Reader
	}
	genesis, sks, err := newCommittee(rnd, capacity)
	if err != nil {
		return nil, err
	}
	head, err := chain.Genesis(params, genesis, capacity)
	if err != nil {
		return nil, err
	}
	return &LocalChain{
		params:        params,
		capacity:      capacity,
		interval:      interval,
		rnd:           rnd,
		genesis:       genesis,
		genesisHeader: head,
		head:          head,
		committee:     genesis,
		sks:           sks,
	}, nil
}

func newCommittee(rnd io.Reader, capacity int) (*committee.Committee, []*bls.SecretKey, error) {
	weights := make([]uint64, capacity)
	for i := range weights {
		weights[i] = 1
	}
	return committee.Generate(rnd, weights...)
}

// Genesis returns the genesis committee.
func (l *LocalChain) Genesis() *committee.Committee {
	return l.genesis
}

// Height returns the height of the last produced block.
func (l *LocalChain) Height() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.head.Height
}

// Produce appends a new block to the chain and returns it.
func (l *LocalChain) Produce() (*chain.Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	next, sks, err := newCommittee(l.rnd, l.capacity)
	if err != nil {
		return nil, err
	}
	signers := make([]int, l.committee.Len())
	for i := range signers {
		signers[i] = i
	}
	b, err := chain.NextBlock(l.params, l.capacity, l.head, l.committee, next, l.sks, signers...)
	if err != nil {
		return nil, fmt.Errorf("produce block %d: %w", l.head.Height+1, err)
	}
	l.blocks = append(l.blocks, b)
	l.head, l.committee, l.sks = b.Header, next, sks
	log.Debugw("local block produced", "height", b.Header.Height)
	return b, nil
}

// FastForward produces blocks until the chain reaches the height.
func (l *LocalChain) FastForward(height uint64) error {
	for l.Height() < height {
		if _, err := l.Produce(); err != nil {
			return err
		}
	}
	return nil
}

// Header returns the header at height h, or nil if not produced yet.
func (l *LocalChain) Header(h uint64) *chain.Header {
	if h == 0 {
		return l.genesisHeader
	}
	if b := l.block(h); b != nil {
		return b.Header
	}
	return nil
}

// block returns the block at height h, if already produced.
func (l *LocalChain) block(h uint64) *chain.Block {
	l.mu.Lock()
	defer l.mu.Unlock()
	if h == 0 || h > uint64(len(l.blocks)) {
		return nil
	}
	return l.blocks[h-1]
}

// MonitorBlocks implements BlockSource.
func (l *LocalChain) MonitorBlocks(ctx context.Context, after *chain.Header) (<-chan *chain.Block, error) {
	if after == nil {
		return nil, fmt.Errorf("nil header")
	}
	if after.Height > l.Height() {
		return nil, fmt.Errorf("header at height %d is ahead of the chain at %d", after.Height, l.Height())
	}
	ch := make(chan *chain.Block)
	go func() {
		defer close(ch)
		poll := time.NewTicker(pollInterval)
		defer poll.Stop()
		var produce <-chan time.Time
		if l.interval > 0 {
			t := time.NewTicker(l.interval)
			defer t.Stop()
			produce = t.C
		}
		next := after.Height + 1
		for {
			if b := l.block(next); b != nil {
				select {
				case <-ctx.Done():
					return
				case ch <- b:
					next++
				}
				continue
			}
			select {
			case <-ctx.Done():
				return
			case <-poll.C:
			case <-produce:
				if _, err := l.Produce(); err != nil {
					log.Warnw("failed to produce local block", "error", err)
				}
			}
		}
	}()
	return ch, nil
}
