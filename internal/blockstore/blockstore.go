// Package blockstore provides the keyed, versioned block store that holds the
// web backend's database image. A store contains keyspaces; a keyspace is
// created on first open and carries a schema version.
package blockstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Block store errors.
var (
	ErrVersionDowngrade = errors.New("keyspace version is newer than requested")
	ErrInvalidKey       = errors.New("invalid key")
	ErrInvalidVersion   = errors.New("version must be positive")
)

// Store opens keyspaces.
type Store interface {
	// Open returns the named keyspace, creating it when absent. Opening an
	// existing keyspace at a higher version upgrades its marker; opening at
	// a lower version than stored fails with ErrVersionDowngrade.
	Open(ctx context.Context, keyspace string, version int) (Keyspace, error)
}

// Keyspace is a flat key/value namespace.
type Keyspace interface {
	// Get returns the value and true, or nil and false when the key is absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Put replaces the value stored under key.
	Put(ctx context.Context, key string, data []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Version returns the keyspace version.
	Version() int
}

// checkName rejects empty names and names that would escape a directory.
func checkName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, name)
	}
	return nil
}

// resolveVersion applies the open rules to a stored and requested version.
func resolveVersion(stored, requested int) (int, error) {
	if requested < 1 {
		return 0, ErrInvalidVersion
	}
	if stored > requested {
		return 0, fmt.Errorf("%w: stored %d, requested %d", ErrVersionDowngrade, stored, requested)
	}
	return requested, nil
}
