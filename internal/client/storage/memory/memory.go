// Package memory provides an in-memory storage.KV used by tests and by the
// CLI when no database path is configured.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iudanet/cartsync/internal/client/storage"
)

type entry struct {
	modTime time.Time
	value   []byte
}

// Storage is a map-backed storage.KV with an optional byte quota.
type Storage struct {
	data  map[string]entry
	now   func() time.Time
	quota int64
	mu    sync.Mutex
}

var (
	_ storage.KV        = (*Storage)(nil)
	_ storage.Inspector = (*Storage)(nil)
)

// New creates an empty storage. quota <= 0 means unlimited.
func New(quota int64) *Storage {
	return &Storage{
		data:  make(map[string]entry),
		now:   time.Now,
		quota: quota,
	}
}

// SetClock overrides the clock used for modification times
func (s *Storage) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// SetQuota changes the byte quota
func (s *Storage) SetQuota(quota int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quota = quota
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[key]
	if !ok {
		return nil, storage.ErrKeyNotFound
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.quota > 0 {
		used := s.usageLocked() - int64(len(s.data[key].value))
		if used+int64(len(value)) > s.quota {
			return storage.ErrQuotaExceeded
		}
	}

	v := make([]byte, len(value))
	copy(v, value)
	s.data[key] = entry{value: v, modTime: s.now()}
	return nil
}

func (s *Storage) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *Storage) Keys(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Storage) Stat(ctx context.Context, key string) (*storage.KeyInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[key]
	if !ok {
		return nil, storage.ErrKeyNotFound
	}
	return &storage.KeyInfo{Key: key, ModTime: e.modTime, Size: int64(len(e.value))}, nil
}

// Usage returns the total size of stored values in bytes
func (s *Storage) Usage() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usageLocked()
}

func (s *Storage) usageLocked() int64 {
	var used int64
	for _, e := range s.data {
		used += int64(len(e.value))
	}
	return used
}
