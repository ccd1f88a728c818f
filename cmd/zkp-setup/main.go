// zkp-setup compiles every circuit for a committee capacity, runs the groth16
// setup and stores the keys in the node database. With --artifactsURL the
// keys are indexed as published under that URL, which is where provers with
// an empty artifact cache fetch them from.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	flag "github.com/spf13/pflag"
	"github.com/vocdoni/albatross-zkp/config"
	"github.com/vocdoni/albatross-zkp/crypto/pedersen"
	"github.com/vocdoni/albatross-zkp/log"
	"github.com/vocdoni/albatross-zkp/setup"
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
	force := flag.Bool("force", false, "generate new keys even if they already exist")
	flag.Parse()
	log.Init(conf.LogLevel, conf.LogOutput, nil)
	if err := conf.Validate(); err != nil {
		log.Fatal(err)
	}
	shape := setup.Shape{Validators: conf.Validators}
	if err := shape.Validate(); err != nil {
		log.Fatal(err)
	}

	database, err := metadb.New(db.TypePebble, conf.DatabaseDir())
	if err != nil {
		log.Fatal(err)
	}
	stg := storage.New(database)
	defer stg.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if !*force {
		if keys, err := setup.Load(ctx, stg, shape, ""); err == nil {
			log.Infow("keys already exist", "shape", shape.String(), "mergerADigest", keys.MergerADigest.String())
			return
		} else if !setup.IsNotFound(err) {
			log.Fatalf("existing keys: %v", err)
		}
	}

	bar := progressbar.NewOptions(setup.Steps,
		progressbar.OptionSetDescription("setup "+shape.String()),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
	)
	startTime := time.Now()
	keys, err := setup.Bootstrap(ctx, pedersen.DefaultParams(), shape, setup.WithProgress(func(circuit string) {
		bar.Describe(circuit + " ready")
		if err := bar.Add(1); err != nil {
			log.Warnw("progress bar", "error", err)
		}
	}))
	if err != nil {
		log.Fatal(err)
	}
	if err := bar.Finish(); err != nil {
		log.Warnw("progress bar", "error", err)
	}
	if err := keys.Save(stg, conf.ArtifactsURL); err != nil {
		log.Fatal(err)
	}
	for _, kp := range keys.All() {
		log.Infow("keys stored", "circuit", kp.Circuit, "shapeId", kp.ShapeID, "hash", kp.Hash.String())
	}
	log.Infow("setup completed",
		"shape", shape.String(),
		"mergerADigest", keys.MergerADigest.String(),
		"took", time.Since(startTime).String())
}
