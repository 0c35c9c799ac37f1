package boltdb

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/cartsync/internal/client/storage"
)

var (
	// BoltDB bucket names
	bucketValues = []byte("kv")
	bucketMeta   = []byte("kv_meta")
)

// metaSize размер записи метаданных: mod time (unix ns) + size
const metaSize = 16

// Storage represents BoltDB storage implementation for client
type Storage struct {
	db    *bbolt.DB
	now   func() time.Time
	quota int64
}

var (
	_ storage.KV        = (*Storage)(nil)
	_ storage.Inspector = (*Storage)(nil)
)

// Option configures Storage
type Option func(*Storage)

// WithQuota limits the total size of stored values in bytes.
// Zero means unlimited.
func WithQuota(bytes int64) Option {
	return func(s *Storage) {
		s.quota = bytes
	}
}

// WithClock overrides the clock used for modification times
func WithClock(now func() time.Time) Option {
	return func(s *Storage) {
		s.now = now
	}
}

// New creates a new BoltDB storage instance
// dbPath is the path to the BoltDB database file
func New(ctx context.Context, dbPath string, opts ...Option) (*Storage, error) {
	// Открываем BoltDB
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	s := &Storage{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	// Инициализируем buckets
	if err := s.initBuckets(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// initBuckets создает необходимые buckets если они не существуют
func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketValues); err != nil {
			return fmt.Errorf("failed to create values bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists(bucketMeta); err != nil {
			return fmt.Errorf("failed to create meta bucket: %w", err)
		}
		return nil
	})
}

// Get returns the value stored under key
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var value []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketValues).Get([]byte(key))
		if data == nil {
			return storage.ErrKeyNotFound
		}
		// bbolt отдает память, валидную только внутри транзакции
		value = make([]byte, len(data))
		copy(value, data)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return value, nil
}

// Set stores value under key in a single transaction.
// If the quota would be exceeded the transaction is rolled back
// and storage.ErrQuotaExceeded is returned.
func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		values := tx.Bucket(bucketValues)
		meta := tx.Bucket(bucketMeta)

		if s.quota > 0 {
			used, err := usage(meta)
			if err != nil {
				return err
			}
			if prev := meta.Get([]byte(key)); prev != nil {
				_, prevSize := decodeMeta(prev)
				used -= prevSize
			}
			if used+int64(len(value)) > s.quota {
				return storage.ErrQuotaExceeded
			}
		}

		if err := values.Put([]byte(key), value); err != nil {
			return fmt.Errorf("failed to save value: %w", err)
		}
		if err := meta.Put([]byte(key), encodeMeta(s.now(), int64(len(value)))); err != nil {
			return fmt.Errorf("failed to save metadata: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}

	return nil
}

// Remove deletes key together with its metadata
func (s *Storage) Remove(ctx context.Context, key string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketValues).Delete([]byte(key)); err != nil {
			return fmt.Errorf("failed to delete value: %w", err)
		}
		if err := tx.Bucket(bucketMeta).Delete([]byte(key)); err != nil {
			return fmt.Errorf("failed to delete metadata: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}

	return nil
}

// Keys lists stored keys in lexical order (bbolt keeps keys sorted)
func (s *Storage) Keys(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var keys []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketValues).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	return keys, nil
}

// Stat returns modification time and size of key
func (s *Storage) Stat(ctx context.Context, key string) (*storage.KeyInfo, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var info *storage.KeyInfo
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get([]byte(key))
		if data == nil {
			return storage.ErrKeyNotFound
		}
		modTime, size := decodeMeta(data)
		info = &storage.KeyInfo{Key: key, ModTime: modTime, Size: size}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return info, nil
}

// Usage returns the total size of stored values in bytes
func (s *Storage) Usage(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, storage.ErrStorageClosed
	}

	var used int64
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		used, err = usage(tx.Bucket(bucketMeta))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to compute usage: %w", err)
	}

	return used, nil
}

func usage(meta *bbolt.Bucket) (int64, error) {
	var used int64
	err := meta.ForEach(func(_, v []byte) error {
		if len(v) != metaSize {
			return fmt.Errorf("corrupt metadata record of %d bytes", len(v))
		}
		_, size := decodeMeta(v)
		used += size
		return nil
	})
	return used, err
}

func encodeMeta(modTime time.Time, size int64) []byte {
	buf := make([]byte, metaSize)
	binary.BigEndian.PutUint64(buf[:8], uint64(modTime.UnixNano()))
	binary.BigEndian.PutUint64(buf[8:], uint64(size))
	return buf
}

func decodeMeta(buf []byte) (time.Time, int64) {
	if len(buf) != metaSize {
		return time.Time{}, 0
	}
	modTime := time.Unix(0, int64(binary.BigEndian.Uint64(buf[:8])))
	size := int64(binary.BigEndian.Uint64(buf[8:]))
	return modTime, size
}
