// Package seenstore persists the set of content ids the pipeline has
// already observed. A single logical keyspace is shared by all feed
// types across all runs.
package seenstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// Supported backends.
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

// Store is the seen-set contract the pipeline depends on. InsertIfAbsent
// is idempotent: inserting an already-present id is a no-op.
type Store interface {
	Exists(id string) (bool, error)
	InsertIfAbsent(id, firstSeenAt string) error
	Close() error
}

// Open opens the seen-set store for the configured backend at path.
// An empty backend defaults to sqlite.
func Open(backend, path string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendSQLite:
		return OpenSQLite(path)
	case BackendBolt:
		return OpenBolt(path)
	default:
		return nil, fmt.Errorf("unsupported seen-store backend %q", backend)
	}
}

// ensureDir creates the parent directory of path if needed.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	return nil
}
