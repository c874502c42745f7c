// Package storage selects the persistence backends configured for a node.
package storage

import (
	"fmt"
	"strings"

	"github.com/LeJamon/goEscrow/internal/storage/keyValueDb"
	"github.com/LeJamon/goEscrow/internal/storage/keyValueDb/leveldb"
	"github.com/LeJamon/goEscrow/internal/storage/keyValueDb/pebble"
)

// Backend names accepted by OpenKV.
const (
	BackendMemory  = "memory"
	BackendPebble  = "pebble"
	BackendLevelDB = "leveldb"
)

// OpenKV returns a database manager for the named backend rooted at path.
func OpenKV(backend, path string) (keyValueDb.Manager, error) {
	switch strings.ToLower(backend) {
	case "", BackendMemory:
		return keyValueDb.NewMemoryManager(), nil
	case BackendPebble:
		return pebble.NewManager(path), nil
	case BackendLevelDB:
		return leveldb.NewManager(path), nil
	default:
		return nil, fmt.Errorf("%w: %q", keyValueDb.ErrUnknownBackend, backend)
	}
}
