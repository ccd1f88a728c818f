package api

import (
	"errors"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/vocdoni/albatross-zkp/circuits"
	"github.com/vocdoni/albatross-zkp/lightclient"
	"github.com/vocdoni/albatross-zkp/storage"
	"github.com/vocdoni/albatross-zkp/types"
)

// state returns the latest proven state
// GET /state
func (a *API) state(w http.ResponseWriter, r *http.Request) {
	rec, err := a.storage.RecursionState()
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			ErrStateNotFound.Write(w)
			return
		}
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	inputs, err := circuits.AggregateInputsFromValues(rec.Latest.PublicInputs)
	if err != nil {
		ErrGenericInternalServerError.Withf("stored inputs: %v", err).Write(w)
		return
	}
	resp := &StateResponse{
		Height:                 rec.Latest.Height,
		Role:                   rec.Latest.Role,
		ShapeID:                rec.Latest.ShapeID,
		GenesisStateCommitment: types.ToBigInt(inputs.GenesisStateCommitment),
		StateCommitment:        types.ToBigInt(inputs.StateCommitment),
		MergerADigest:          types.ToBigInt(inputs.MergerADigest),
		PublicInputs:           bigInts(rec.Latest.PublicInputs),
		Proof:                  rec.Latest.Proof,
		Header:                 rec.Header.Bytes(),
	}
	if a.checkpoints != nil {
		root, err := a.checkpoints.Root()
		if err != nil {
			ErrGenericInternalServerError.Withf("checkpoint root: %v", err).Write(w)
			return
		}
		resp.CheckpointRoot = types.ToBigInt(root)
	}
	httpWriteJSON(w, resp)
}

// export returns the light client export of the latest aggregate proof
// GET /export
func (a *API) export(w http.ResponseWriter, r *http.Request) {
	if a.keys == nil {
		ErrKeysNotAvailable.Write(w)
		return
	}
	rec, err := a.storage.RecursionState()
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			ErrStateNotFound.Write(w)
			return
		}
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	if len(rec.Latest.Proof) == 0 {
		ErrStateNotFound.With("no aggregate proof at genesis").Write(w)
		return
	}
	e, err := lightclient.NewExport(a.keys, &rec.Latest)
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, e)
}

// verifyingKey returns the verifying key of a merger role
// GET /keys/{role}
func (a *API) verifyingKey(w http.ResponseWriter, r *http.Request) {
	var role circuits.Role
	switch strings.ToUpper(chi.URLParam(r, RoleURLParam)) {
	case string(circuits.RoleA):
		role = circuits.RoleA
	case string(circuits.RoleB):
		role = circuits.RoleB
	default:
		ErrMalformedRole.Write(w)
		return
	}
	if a.keys == nil {
		ErrKeysNotAvailable.Write(w)
		return
	}
	kp := a.keys.ForRole(role)
	vk, err := kp.VerifyingKeyBytes()
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, &KeyResponse{
		Role:         string(role),
		Circuit:      kp.Circuit,
		Curve:        kp.Curve.String(),
		ShapeID:      kp.ShapeID,
		Hash:         kp.Hash,
		VerifyingKey: vk,
	})
}

// checkpoint returns the checkpoint proof of a height
// GET /checkpoints/{height}
func (a *API) checkpoint(w http.ResponseWriter, r *http.Request) {
	height, err := strconv.ParseUint(chi.URLParam(r, HeightURLParam), 10, 64)
	if err != nil {
		ErrMalformedHeight.WithErr(err).Write(w)
		return
	}
	if a.checkpoints == nil {
		ErrCheckpointNotFound.Write(w)
		return
	}
	proof, err := a.checkpoints.Proof(height)
	if err != nil {
		ErrCheckpointNotFound.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, &CheckpointResponse{
		Height:          proof.Height,
		StateCommitment: types.ToBigInt(proof.StateCommitment),
		Root:            types.ToBigInt(proof.Root),
		Siblings:        proof.Siblings,
	})
}

func bigInts(values []*big.Int) []*types.BigInt {
	out := make([]*types.BigInt, len(values))
	for i, v := range values {
		out[i] = types.ToBigInt(v)
	}
	return out
}
