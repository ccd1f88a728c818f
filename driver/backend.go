package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/vocdoni/albatross-zkp/circuits"
	"github.com/vocdoni/albatross-zkp/log"
	"github.com/vocdoni/albatross-zkp/setup"
	"github.com/vocdoni/albatross-zkp/types"
)

// Backend produces the proof of a circuit assignment with its key pair.
// Implementations report transient failures wrapping ErrBackendResource and
// unsatisfied witnesses as constraint violations of kp.Circuit.
type Backend interface {
	Prove(ctx context.Context, kp *setup.KeyPair, assignment frontend.Circuit) (*setup.Proof, error)
}

type groth16Backend struct{}

// Groth16Backend returns the gnark groth16 backend. Proofs are produced with
// the options of the circuit that verifies them and checked before they are
// returned.
func Groth16Backend() Backend {
	return groth16Backend{}
}

func (groth16Backend) Prove(ctx context.Context, kp *setup.KeyPair, assignment frontend.Circuit) (p *setup.Proof, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if kp == nil || kp.CCS == nil || kp.PK == nil {
		return nil, fmt.Errorf("%w: missing proving keys", types.ErrShapeMismatch)
	}
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, fmt.Errorf("%w: %s prover panic: %v", types.ErrBackendResource, kp.Circuit, r)
		}
	}()
	fullWitness, err := frontend.NewWitness(assignment, kp.Curve.ScalarField())
	if err != nil {
		return nil, types.Malformed("%s witness: %v", kp.Circuit, err)
	}
	defer circuits.WipeWitness(fullWitness)

	startTime := time.Now()
	proof, err := groth16.Prove(kp.CCS, kp.PK, fullWitness, circuits.ProverOptions(kp.Curve))
	if err != nil {
		return nil, types.NewConstraintViolation(kp.Circuit, err)
	}
	publicWitness, err := fullWitness.Public()
	if err != nil {
		return nil, fmt.Errorf("%s public witness: %w", kp.Circuit, err)
	}
	values, err := circuits.PublicValues(publicWitness)
	if err != nil {
		return nil, fmt.Errorf("%s public inputs: %w", kp.Circuit, err)
	}
	p = &setup.Proof{
		Circuit:      kp.Circuit,
		ShapeID:      kp.ShapeID,
		Proof:        proof,
		PublicInputs: values,
	}
	if err := setup.Verify(kp, p); err != nil {
		return nil, err
	}
	log.Debugw("proof generated", "circuit", kp.Circuit, "took", time.Since(startTime).String())
	return p, nil
}

// isTransient reports whether a backend error may go away by retrying.
func isTransient(err error) bool {
	return errors.Is(err, types.ErrBackendResource)
}
