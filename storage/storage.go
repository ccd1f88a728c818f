// storage package contains all the artifacts of the prover that are stored in
// the database. It is a prefixed key-value store where every artifact is
// encoded with deterministic CBOR. The following prefixes are used:
//   - 's/' for the recursion state (the latest aggregate proof)
//   - 'k/' for the key index (content hashes of the setup artifacts)
//   - 'p/' for the aggregate proof history, by height
//   - 'c/' for committees, by commitment
//   - 'h/' for the checkpoint tree of the state package
//
// The key artifacts themselves are too large for the database; they are
// stored in the circuits artifact cache and addressed by their hash.
package storage

import (
	"errors"
	"sync"

	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

var (
	// Prefixes for the keys in the database.
	statePrefix      = []byte("s/")
	keyPrefix        = []byte("k/")
	proofPrefix      = []byte("p/")
	committeePrefix  = []byte("c/")
	checkpointPrefix = []byte("h/")

	// latestStateKey is the key of the recursion state under statePrefix.
	latestStateKey = []byte("latest")
)

// ErrNotFound is returned when an artifact does not exist in the storage.
var ErrNotFound = errors.New("not found")

// Storage wraps the database with the typed accessors of every artifact.
type Storage struct {
	db         db.Database
	globalLock sync.Mutex
}

// New creates a new Storage instance.
func New(db db.Database) *Storage {
	return &Storage{db: db}
}

// Close closes the storage.
func (s *Storage) Close() {
	s.db.Close()
}

// CheckpointDB returns the database namespace reserved for the checkpoint
// tree.
func (s *Storage) CheckpointDB() db.Database {
	return prefixeddb.NewPrefixedDatabase(s.db, checkpointPrefix)
}
