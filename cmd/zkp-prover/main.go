// zkp-prover runs a prover node on a local chain: it proves every macro
// block as it is produced and serves the aggregate proofs to light clients.
package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"
	"github.com/vocdoni/albatross-zkp/api"
	"github.com/vocdoni/albatross-zkp/config"
	"github.com/vocdoni/albatross-zkp/crypto/pedersen"
	"github.com/vocdoni/albatross-zkp/driver"
	"github.com/vocdoni/albatross-zkp/log"
	"github.com/vocdoni/albatross-zkp/service"
	"github.com/vocdoni/albatross-zkp/setup"
	"github.com/vocdoni/albatross-zkp/state"
	"github.com/vocdoni/albatross-zkp/storage"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"
)

func main() {
	conf := config.Default()
	if err := conf.LoadEnv(); err != nil {
		panic(err)
	}
	conf.BindFlags(flag.CommandLine)
	seed := flag.String("seed", "albatross", "seed of the validator keys of the local chain")
	flag.Parse()
	log.Init(conf.LogLevel, conf.LogOutput, nil)
	if err := conf.Validate(); err != nil {
		log.Fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	database, err := metadb.New(db.TypePebble, conf.DatabaseDir())
	if err != nil {
		log.Fatal(err)
	}
	stg := storage.New(database)
	defer stg.Close()
	checkpoints, err := state.New(stg.CheckpointDB())
	if err != nil {
		log.Fatal(err)
	}

	params := pedersen.DefaultParams()
	keys, err := service.LoadKeys(ctx, stg, params, setup.Shape{Validators: conf.Validators},
		conf.ArtifactsURL, conf.Bootstrap, conf.KeysTimeout)
	if err != nil {
		log.Fatal(err)
	}
	d, err := driver.New(keys, params,
		driver.WithMaxAttempts(conf.MaxAttempts),
		driver.WithRetryInterval(conf.RetryInterval),
		driver.WithStorage(stg),
		driver.WithCheckpoints(checkpoints),
	)
	if err != nil {
		log.Fatal(err)
	}

	// the local chain is not persisted: it is replayed from the seed up to
	// the stored state, if any
	local, err := service.NewLocalChain(params, conf.Validators, conf.BlockInterval,
		rand.NewChaCha8(sha256.Sum256([]byte(*seed))))
	if err != nil {
		log.Fatal(err)
	}
	st, err := driver.LoadState(stg)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		if st, err = driver.Genesis(params, keys, local.Genesis()); err != nil {
			log.Fatal(err)
		}
	case err != nil:
		log.Fatal(err)
	default:
		if err := local.FastForward(st.Height()); err != nil {
			log.Fatal(err)
		}
		if !bytes.Equal(local.Header(st.Height()).Bytes(), st.Header.Bytes()) {
			log.Fatalf("stored state at height %d does not belong to the chain of seed %q", st.Height(), *seed)
		}
		log.Infow("resuming from stored state", "height", st.Height())
	}

	apiService := service.NewAPI(api.APIConfig{
		Host:        conf.APIHost,
		Port:        conf.APIPort,
		Storage:     stg,
		Keys:        keys,
		Checkpoints: checkpoints,
	})
	if err := apiService.Start(ctx); err != nil {
		log.Fatal(err)
	}
	defer apiService.Stop()

	prover := service.NewProver(d, local, st)
	if err := prover.Start(ctx); err != nil {
		log.Fatal(err)
	}
	log.Infow("prover node running",
		"validators", conf.Validators,
		"api", apiService.Addr(),
		"height", st.Height(),
		"genesisState", st.Inputs.GenesisStateCommitment.String())

	select {
	case <-ctx.Done():
		log.Infow("shutting down")
	case <-prover.Done():
	}
	prover.Stop()
	if err := prover.Err(); err != nil {
		log.Errorw(err, "prover stopped")
	}
}
