package storage

import (
	"context"
	"strings"
	"time"
)

// KeyPrefix is the namespace shared by every key this module persists.
// Storage reclaim only ever touches keys under this prefix.
const KeyPrefix = "cartsync:"

// KV defines durable key-value storage used by the operation log,
// the snapshot store and the error log.
// Every Set replaces the whole value atomically: either the new blob is
// stored or the previous one stays intact.
type KV interface {
	// Get returns the stored value.
	// Returns ErrKeyNotFound if nothing is stored under key
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	// Returns ErrQuotaExceeded when the write does not fit
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes key. Removing a missing key is not an error
	Remove(ctx context.Context, key string) error

	// Keys lists stored keys in lexical order
	Keys(ctx context.Context) ([]string, error)
}

// OwnKey reports whether key belongs to this module.
func OwnKey(key string) bool {
	return strings.HasPrefix(key, KeyPrefix)
}

// KeyInfo describes a stored value without loading it.
type KeyInfo struct {
	ModTime time.Time
	Key     string
	Size    int64
}

// Inspector is implemented by storages that track per-key metadata.
// Storage reclaim relies on it to find stale entries.
type Inspector interface {
	// Stat returns metadata of key.
	// Returns ErrKeyNotFound if nothing is stored under key
	Stat(ctx context.Context, key string) (*KeyInfo, error)
}
