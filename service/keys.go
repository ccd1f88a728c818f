package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vocdoni/albatross-zkp/crypto/pedersen"
	"github.com/vocdoni/albatross-zkp/log"
	"github.com/vocdoni/albatross-zkp/setup"
	"github.com/vocdoni/albatross-zkp/storage"
)

// LoadKeys loads the keys of the shape from the storage. The key pairs of
// every circuit are read and checked concurrently, and artifacts missing
// from the local cache are fetched from artifactsURL. If they were never
// generated and bootstrap is set, they are generated and stored instead,
// which may take long.
func LoadKeys(ctx context.Context, stg *storage.Storage, params *pedersen.Params,
	shape setup.Shape, artifactsURL string, bootstrap bool, timeout time.Duration,
) (*setup.Keys, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	keys, err := setup.Load(ctx, stg, shape, artifactsURL)
	if err == nil {
		return keys, nil
	}
	if !setup.IsNotFound(err) || !bootstrap {
		return nil, fmt.Errorf("load %s keys: %w", shape, err)
	}
	log.Warnw("no keys found, bootstrapping", "shape", shape.String())
	startTime := time.Now()
	if keys, err = setup.Bootstrap(ctx, params, shape); err != nil {
		return nil, err
	}
	if err := keys.Save(stg, ""); err != nil {
		return nil, err
	}
	log.Infow("keys bootstrapped", "shape", shape.String(), "took", time.Since(startTime).String())
	return keys, nil
}
