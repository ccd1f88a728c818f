package api

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/vocdoni/albatross-zkp/circuits"
)

// artifact serves a key artifact of the local cache. Range requests are
// honored, so interrupted downloads resume.
// GET /artifacts/{hash}
func (a *API) artifact(w http.ResponseWriter, r *http.Request) {
	hash, err := hex.DecodeString(chi.URLParam(r, HashURLParam))
	if err != nil || len(hash) != sha256.Size {
		ErrMalformedHash.Write(w)
		return
	}
	fd, err := os.Open(circuits.ArtifactPath(hash))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			ErrArtifactNotFound.Write(w)
			return
		}
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	defer fd.Close()
	info, err := fd.Stat()
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	http.ServeContent(w, r, info.Name(), info.ModTime(), fd)
}
