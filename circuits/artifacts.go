package circuits

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/vocdoni/albatross-zkp/log"
	"github.com/vocdoni/albatross-zkp/types"
)

// CheckHashes is a flag that determines if the hashes of the artifacts should
// be checked when they are loaded or downloaded. It can be set to false by
// setting the ALBATROSS_ZKP_CHECK_HASHES environment variable to false or 0.
var CheckHashes = true

// BaseDir is the path where the key artifacts (constraint systems, proving
// and verifying keys) are stored by content hash. If an artifact is not found
// there, it will be downloaded and stored. It can be set to a different path
// if needed from other packages. Defaults to the env var
// ALBATROSS_ZKP_ARTIFACTS_DIR or the user home directory.
var BaseDir string

func init() {
	// if the ALBATROSS_ZKP_CHECK_HASHES environment variable is set to false
	// or 0, the hashes of the artifacts will not be checked
	if checkHashes := os.Getenv("ALBATROSS_ZKP_CHECK_HASHES"); checkHashes != "" {
		if strings.ToLower(checkHashes) == "false" || checkHashes == "0" {
			CheckHashes = false
		}
	}
	// if the ALBATROSS_ZKP_ARTIFACTS_DIR environment variable is set, it will
	// be used as the BaseDir, otherwise it will use the user home directory
	if dir := os.Getenv("ALBATROSS_ZKP_ARTIFACTS_DIR"); dir != "" {
		BaseDir = dir
	} else {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			log.Warnf("unable to access user home directory, using temporary directory: %v", err)
			BaseDir = filepath.Join(os.TempDir(), "albatross-zkp-artifacts")
		} else {
			BaseDir = filepath.Join(home, ".cache", "albatross-zkp-artifacts")
		}
	}

	// Create BaseDir if it doesn't exist.
	if err := os.MkdirAll(BaseDir, 0o755); err != nil {
		log.Errorf("failed to create BaseDir %s: %v", BaseDir, err)
	}
}

// DownloadRetries is the number of times a failed artifact download is
// retried before giving up.
var DownloadRetries uint64 = 3

// Artifact is a content addressed file of the artifact cache. Hash is the
// sha256 of Content and names the file in BaseDir. RemoteURL, if set, is
// where the content is fetched from when it is not cached.
type Artifact struct {
	RemoteURL string
	Hash      []byte
	Content   []byte
}

// ArtifactPath returns the path of the cached artifact with the given hash.
func ArtifactPath(hash []byte) string {
	return filepath.Join(BaseDir, hex.EncodeToString(hash))
}

// ArtifactURL returns the location of the artifact with the given hash under
// the base URL where a set of artifacts is published.
func ArtifactURL(baseURL string, hash []byte) (string, error) {
	return url.JoinPath(baseURL, hex.EncodeToString(hash))
}

// Load fills the content of the artifact. Cached content is read and checked
// against the hash; if it is not cached and a remote URL is set, it is
// downloaded first.
func (k *Artifact) Load(ctx context.Context) error {
	if len(k.Content) != 0 {
		return nil
	}
	if len(k.Hash) == 0 {
		return fmt.Errorf("key hash not provided")
	}
	content, err := load(k.Hash)
	if err != nil {
		return err
	}
	if content == nil {
		if err := k.Download(ctx); err != nil {
			return err
		}
		if content, err = load(k.Hash); err != nil {
			return err
		}
		if content == nil {
			return fmt.Errorf("no content found")
		}
	}
	k.Content = content
	return nil
}

// Store writes the content to the cache. The hash is computed if it is not
// set, and must match the content otherwise.
func (k *Artifact) Store() error {
	if len(k.Content) == 0 {
		return fmt.Errorf("no content to store")
	}
	hash := sha256.Sum256(k.Content)
	if len(k.Hash) == 0 {
		k.Hash = hash[:]
	} else if !bytes.Equal(k.Hash, hash[:]) {
		return fmt.Errorf("%w: expected %x, got %x", types.ErrArtifactCorrupted, k.Hash, hash)
	}
	if err := os.MkdirAll(BaseDir, 0o755); err != nil {
		return fmt.Errorf("error creating the base directory: %w", err)
	}
	path := ArtifactPath(k.Hash)
	tmp := path + ".partial"
	if err := os.WriteFile(tmp, k.Content, 0o644); err != nil {
		return fmt.Errorf("error writing artifact %s: %w", path, err)
	}
	return os.Rename(tmp, path)
}

// Download fetches the artifact from its remote URL into the cache.
func (k *Artifact) Download(ctx context.Context) error {
	if k.RemoteURL == "" {
		return fmt.Errorf("artifact %x not cached and remote url not provided", k.Hash)
	}
	return downloadAndStore(ctx, k.Hash, k.RemoteURL)
}

// CircuitArtifacts groups the artifacts of a circuit: its constraint system
// and its proving and verifying keys. Any of them can be nil.
type CircuitArtifacts struct {
	circuitDefinition *Artifact
	provingKey        *Artifact
	verifyingKey      *Artifact
}

// NewCircuitArtifacts returns the artifacts of a circuit.
func NewCircuitArtifacts(circuit, provingKey, verifyingKey *Artifact) *CircuitArtifacts {
	return &CircuitArtifacts{
		circuitDefinition: circuit,
		provingKey:        provingKey,
		verifyingKey:      verifyingKey,
	}
}

// LoadAll loads every artifact that is set.
func (ca *CircuitArtifacts) LoadAll(ctx context.Context) error {
	if ca.circuitDefinition != nil {
		if err := ca.circuitDefinition.Load(ctx); err != nil {
			return fmt.Errorf("error loading circuit definition: %w", err)
		}
	}
	if ca.provingKey != nil {
		if err := ca.provingKey.Load(ctx); err != nil {
			return fmt.Errorf("error loading proving key: %w", err)
		}
	}
	if ca.verifyingKey != nil {
		if err := ca.verifyingKey.Load(ctx); err != nil {
			return fmt.Errorf("error loading verifying key: %w", err)
		}
	}
	return nil
}

// StoreAll writes every artifact that is set to the cache.
func (ca *CircuitArtifacts) StoreAll() error {
	for _, a := range []*Artifact{ca.circuitDefinition, ca.provingKey, ca.verifyingKey} {
		if a == nil {
			continue
		}
		if err := a.Store(); err != nil {
			return err
		}
	}
	return nil
}

// CircuitDefinition returns the content of the constraint system, nil if it
// is not set.
func (ca *CircuitArtifacts) CircuitDefinition() types.HexBytes {
	if ca.circuitDefinition == nil {
		return nil
	}
	return ca.circuitDefinition.Content
}

func (ca *CircuitArtifacts) ProvingKey() types.HexBytes {
	if ca.provingKey == nil {
		return nil
	}
	return ca.provingKey.Content
}

func (ca *CircuitArtifacts) VerifyingKey() types.HexBytes {
	if ca.verifyingKey == nil {
		return nil
	}
	return ca.verifyingKey.Content
}

// CircuitHash returns the content hash of the circuit definition, set after
// it is stored or loaded.
func (ca *CircuitArtifacts) CircuitHash() types.HexBytes {
	if ca.circuitDefinition == nil {
		return nil
	}
	return ca.circuitDefinition.Hash
}

// ProvingKeyHash returns the content hash of the proving key.
func (ca *CircuitArtifacts) ProvingKeyHash() types.HexBytes {
	if ca.provingKey == nil {
		return nil
	}
	return ca.provingKey.Hash
}

// VerifyingKeyHash returns the content hash of the verifying key.
func (ca *CircuitArtifacts) VerifyingKeyHash() types.HexBytes {
	if ca.verifyingKey == nil {
		return nil
	}
	return ca.verifyingKey.Hash
}

// load returns the cached content with the given hash, or nil if it is not
// cached.
func load(hash []byte) ([]byte, error) {
	path := ArtifactPath(hash)
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading file %s: %w", path, err)
	}
	if CheckHashes {
		if got := sha256.Sum256(content); !bytes.Equal(got[:], hash) {
			return nil, fmt.Errorf("%w: file %s: expected %x, got %x", types.ErrArtifactCorrupted, path, hash, got)
		}
	}
	return content, nil
}

// statusError is returned when the artifact server answers with an
// unexpected status code.
type statusError struct {
	url  string
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("error downloading %s: http status %d", e.url, e.code)
}

// downloadAndStore fetches fileURL into the cache under expectedHash. The
// transfer resumes from a previous partial download and is retried with
// exponential backoff; client errors are not retried. The file is moved in
// place only after its hash is checked.
func downloadAndStore(ctx context.Context, expectedHash []byte, fileURL string) error {
	if _, err := url.Parse(fileURL); err != nil {
		return fmt.Errorf("error parsing the artifact url: %w", err)
	}
	if err := os.MkdirAll(BaseDir, 0o755); err != nil {
		return fmt.Errorf("error creating the base directory: %w", err)
	}
	path := ArtifactPath(expectedHash)
	partial := path + ".partial"
	startTime := time.Now()

	op := func() error {
		err := fetch(ctx, fileURL, partial)
		var serr *statusError
		if errors.As(err, &serr) && serr.code < http.StatusInternalServerError {
			return backoff.Permanent(err)
		}
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), DownloadRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return err
	}

	if CheckHashes {
		got, err := fileHash(partial)
		if err != nil {
			return err
		}
		if !bytes.Equal(got, expectedHash) {
			// start over next time
			_ = os.Remove(partial)
			return fmt.Errorf("%w: %s: expected %x, got %x", types.ErrArtifactCorrupted, fileURL, expectedHash, got)
		}
	}
	if err := os.Rename(partial, path); err != nil {
		return fmt.Errorf("error renaming file: %w", err)
	}
	log.Infow("artifact downloaded", "url", fileURL, "took", time.Since(startTime).String())
	return nil
}

// fetch appends the remaining bytes of fileURL to the partial file.
func fetch(ctx context.Context, fileURL, partial string) error {
	var offset int64
	if info, err := os.Stat(partial); err == nil {
		offset = info.Size()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return fmt.Errorf("error creating the artifact request: %w", err)
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("error performing the request: %w", err)
	}
	defer res.Body.Close()

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	switch {
	case res.StatusCode == http.StatusOK:
	case res.StatusCode == http.StatusPartialContent && offset > 0:
		flags = os.O_APPEND | os.O_WRONLY
	case res.StatusCode == http.StatusRequestedRangeNotSatisfiable && offset > 0:
		// the partial file is already complete
		return nil
	default:
		return &statusError{url: fileURL, code: res.StatusCode}
	}
	fd, err := os.OpenFile(partial, flags, 0o644)
	if err != nil {
		return fmt.Errorf("error opening artifact file: %w", err)
	}
	_, err = io.Copy(fd, res.Body)
	if cerr := fd.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("error writing artifact file: %w", err)
	}
	return nil
}

func fileHash(path string) ([]byte, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()
	hasher := sha256.New()
	if _, err := io.Copy(hasher, fd); err != nil {
		return nil, fmt.Errorf("error hashing %s: %w", path, err)
	}
	return hasher.Sum(nil), nil
}
