package setup

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/vocdoni/albatross-zkp/circuits"
	"github.com/vocdoni/albatross-zkp/log"
	"github.com/vocdoni/albatross-zkp/storage"
	"github.com/vocdoni/albatross-zkp/types"
	"golang.org/x/sync/errgroup"
)

// Save stores the artifacts of every key pair in the circuits artifact cache
// and indexes them in the storage. A non empty artifactsURL is recorded as
// the place the artifacts are published at.
func (k *Keys) Save(stg *storage.Storage, artifactsURL string) error {
	for _, kp := range k.All() {
		if kp == nil {
			return fmt.Errorf("incomplete keys for shape %s", k.Shape)
		}
		if err := saveKeyPair(stg, kp, k.Shape, artifactsURL); err != nil {
			return err
		}
	}
	return nil
}

func saveKeyPair(stg *storage.Storage, kp *KeyPair, shape Shape, artifactsURL string) error {
	ccsBytes, pkBytes, vkBytes, err := kp.encode()
	if err != nil {
		return err
	}
	if h := hashKeyPair(ccsBytes, pkBytes, vkBytes); !bytes.Equal(h, kp.Hash) {
		return fmt.Errorf("%w: %s keys changed since setup", types.ErrArtifactCorrupted, kp.Circuit)
	}
	artifacts := circuits.NewCircuitArtifacts(
		&circuits.Artifact{Content: ccsBytes},
		&circuits.Artifact{Content: pkBytes},
		&circuits.Artifact{Content: vkBytes},
	)
	if err := artifacts.StoreAll(); err != nil {
		return fmt.Errorf("store %s artifacts: %w", kp.Circuit, err)
	}
	rec := &storage.KeyRecord{
		Circuit:    kp.Circuit,
		Curve:      kp.Curve.String(),
		Validators: shape.Validators,
		ShapeID:    kp.ShapeID,
		CCS:        artifacts.CircuitHash(),
		PK:         artifacts.ProvingKeyHash(),
		VK:         artifacts.VerifyingKeyHash(),
		Hash:       kp.Hash,

		ArtifactsURL: artifactsURL,
	}
	if err := stg.SetKey(rec); err != nil {
		return fmt.Errorf("index %s keys: %w", kp.Circuit, err)
	}
	log.Debugw("keys stored", "circuit", kp.Circuit, "shapeID", kp.ShapeID, "hash", kp.Hash.String())
	return nil
}

// Load loads the key pairs of every circuit of the shape, checking their
// content hashes and shape identifiers. Artifacts missing from the cache are
// downloaded from artifactsURL or, if it is empty, from the URL recorded at
// setup. It returns storage.ErrNotFound if the shape was never set up.
func Load(ctx context.Context, stg *storage.Storage, shape Shape, artifactsURL string) (*Keys, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	lock := Lock(shape)
	lock.RLock()
	defer lock.RUnlock()

	keys := &Keys{Shape: shape}
	targets := map[string]**KeyPair{
		circuits.NameMacroBlock: &keys.MacroBlock,
		circuits.NameWrapper:    &keys.Wrapper,
		circuits.NameDummy:      &keys.Dummy,
		circuits.NameMergerB:    &keys.MergerB,
		circuits.NameMergerA:    &keys.MergerA,
	}
	g, gctx := errgroup.WithContext(ctx)
	for name, target := range targets {
		g.Go(func() error {
			kp, err := LoadKeyPair(gctx, stg, name, shape, artifactsURL)
			if err != nil {
				return err
			}
			*target = kp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := CheckVerifierShape(keys.Dummy.CCS, keys.MergerA.CCS); err != nil {
		return nil, err
	}
	var err error
	if keys.MergerADigest, err = circuits.VerifyingKeyDigest(keys.MergerA.VK); err != nil {
		return nil, fmt.Errorf("merger A digest: %w", err)
	}
	return keys, nil
}

// LoadKeyPair loads the key pair of a single circuit of the shape.
func LoadKeyPair(ctx context.Context, stg *storage.Storage, circuit string, shape Shape, artifactsURL string) (*KeyPair, error) {
	rec, err := stg.Key(circuit, shape.Validators)
	if err != nil {
		return nil, fmt.Errorf("%s keys for shape %s: %w", circuit, shape, err)
	}
	curve, err := ecc.IDFromString(rec.Curve)
	if err != nil {
		return nil, fmt.Errorf("%s keys: %w", circuit, err)
	}
	if artifactsURL == "" {
		artifactsURL = rec.ArtifactsURL
	}
	ccs, err := remoteArtifact(artifactsURL, rec.CCS)
	if err != nil {
		return nil, err
	}
	pk, err := remoteArtifact(artifactsURL, rec.PK)
	if err != nil {
		return nil, err
	}
	vk, err := remoteArtifact(artifactsURL, rec.VK)
	if err != nil {
		return nil, err
	}
	artifacts := circuits.NewCircuitArtifacts(ccs, pk, vk)
	if err := artifacts.LoadAll(ctx); err != nil {
		return nil, fmt.Errorf("load %s artifacts: %w", circuit, err)
	}
	if h := hashKeyPair(artifacts.CircuitDefinition(), artifacts.ProvingKey(), artifacts.VerifyingKey()); !bytes.Equal(h, rec.Hash) {
		return nil, fmt.Errorf("%w: %s keys: expected %x, got %x", types.ErrArtifactCorrupted, circuit, []byte(rec.Hash), h)
	}
	kp := &KeyPair{
		Circuit: circuit,
		Curve:   curve,
		CCS:     groth16.NewCS(curve),
		PK:      groth16.NewProvingKey(curve),
		VK:      groth16.NewVerifyingKey(curve),
		Hash:    rec.Hash,
	}
	if err := circuits.Deserialize(kp.CCS, artifacts.CircuitDefinition()); err != nil {
		return nil, fmt.Errorf("read %s constraint system: %w", circuit, err)
	}
	if err := circuits.Deserialize(kp.PK, artifacts.ProvingKey()); err != nil {
		return nil, fmt.Errorf("read %s proving key: %w", circuit, err)
	}
	if err := circuits.Deserialize(kp.VK, artifacts.VerifyingKey()); err != nil {
		return nil, fmt.Errorf("read %s verifying key: %w", circuit, err)
	}
	kp.ShapeID = ShapeID(circuit, curve, kp.CCS.GetNbConstraints(), kp.CCS.GetNbPublicVariables(), shape.Validators)
	if err := kp.Expect(rec.ShapeID); err != nil {
		return nil, err
	}
	return kp, nil
}

func remoteArtifact(baseURL string, hash []byte) (*circuits.Artifact, error) {
	a := &circuits.Artifact{Hash: hash}
	if baseURL == "" {
		return a, nil
	}
	var err error
	if a.RemoteURL, err = circuits.ArtifactURL(baseURL, hash); err != nil {
		return nil, fmt.Errorf("artifact url: %w", err)
	}
	return a, nil
}

// IsNotFound reports whether err means the keys of a shape are not stored.
func IsNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
