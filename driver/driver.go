// Package driver turns a stream of macro blocks into a chain of aggregate
// proofs. For every block it proves the block transition, wraps the block
// proof when the height is proven on BW6-761 and merges it with the previous
// aggregate proof. A step either returns the next state or leaves the input
// state untouched.
package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/consensys/gnark/frontend"
	"github.com/vocdoni/albatross-zkp/crypto/pedersen"
	"github.com/vocdoni/albatross-zkp/log"
	"github.com/vocdoni/albatross-zkp/setup"
	"github.com/vocdoni/albatross-zkp/state"
	"github.com/vocdoni/albatross-zkp/storage"
)

const (
	// DefaultMaxAttempts is the number of times a proof is attempted when
	// the backend reports transient failures.
	DefaultMaxAttempts = 3
	// DefaultRetryInterval is the wait before the first retry. It doubles
	// with every attempt.
	DefaultRetryInterval = 2 * time.Second
)

// Driver proves macro blocks with the keys of a shape.
type Driver struct {
	keys        *setup.Keys
	params      *pedersen.Params
	backend     Backend
	maxAttempts uint64
	retryWait   time.Duration

	stg         *storage.Storage
	checkpoints *state.Checkpoints
}

// Option configures a Driver.
type Option func(*Driver)

// WithBackend replaces the groth16 backend.
func WithBackend(b Backend) Option {
	return func(d *Driver) {
		d.backend = b
	}
}

// WithMaxAttempts sets the number of attempts of a proof with transient
// failures.
func WithMaxAttempts(n uint64) Option {
	return func(d *Driver) {
		d.maxAttempts = n
	}
}

// WithRetryInterval sets the wait before the first retry.
func WithRetryInterval(wait time.Duration) Option {
	return func(d *Driver) {
		d.retryWait = wait
	}
}

// WithStorage makes Run persist every new state.
func WithStorage(stg *storage.Storage) Option {
	return func(d *Driver) {
		d.stg = stg
	}
}

// WithCheckpoints makes Run record the state commitment of every proven
// height.
func WithCheckpoints(cp *state.Checkpoints) Option {
	return func(d *Driver) {
		d.checkpoints = cp
	}
}

// New creates a driver for the keys.
func New(keys *setup.Keys, params *pedersen.Params, opts ...Option) (*Driver, error) {
	if keys == nil {
		return nil, fmt.Errorf("keys cannot be nil")
	}
	for _, kp := range keys.All() {
		if kp == nil {
			return nil, fmt.Errorf("incomplete keys for shape %s", keys.Shape)
		}
	}
	if keys.MergerADigest == nil {
		return nil, fmt.Errorf("keys without merger A digest")
	}
	if params == nil {
		params = pedersen.DefaultParams()
	}
	d := &Driver{
		keys:        keys,
		params:      params,
		backend:     Groth16Backend(),
		maxAttempts: DefaultMaxAttempts,
		retryWait:   DefaultRetryInterval,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.maxAttempts == 0 {
		d.maxAttempts = 1
	}
	log.Debugw("driver initialized", "shape", keys.Shape.String(), "maxAttempts", d.maxAttempts)
	return d, nil
}

// Keys returns the keys of the driver.
func (d *Driver) Keys() *setup.Keys {
	return d.keys
}

// prove runs the backend, retrying transient failures with an exponential
// backoff. Any other failure is returned as is.
func (d *Driver) prove(ctx context.Context, kp *setup.KeyPair, assignment frontend.Circuit) (*setup.Proof, error) {
	var (
		proof   *setup.Proof
		attempt uint64
	)
	op := func() error {
		attempt++
		p, err := d.backend.Prove(ctx, kp, assignment)
		if err != nil {
			if isTransient(err) {
				log.Warnw("transient proving failure", "circuit", kp.Circuit, "attempt", attempt, "error", err.Error())
				return err
			}
			return backoff.Permanent(err)
		}
		proof = p
		return nil
	}
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = d.retryWait
	policy.MaxElapsedTime = 0
	policy.Reset()
	b := backoff.WithContext(backoff.WithMaxRetries(policy, d.maxAttempts-1), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return nil, err
	}
	return proof, nil
}
