// Package oplog implements the durable, ordered log of cart mutations that
// have not been confirmed by the server yet.
package oplog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/cartsync/internal/client/storage"
	"github.com/iudanet/cartsync/internal/models"
)

// StorageKey is the key under which the whole log is persisted as one blob.
const StorageKey = storage.KeyPrefix + "oplog"

// DefaultRetention is how long SYNCED operations are kept before purge.
const DefaultRetention = 7 * 24 * time.Hour

// Log хранит операции в порядке воспроизведения (CreatedAt, Seq).
// Каждое изменение записывает журнал целиком, поэтому неудачная запись
// оставляет и хранилище, и состояние в памяти без изменений. Исключение
// MarkSynced: см. его описание.
type Log struct {
	kv      storage.KV
	clock   *Clock
	logger  *slog.Logger
	now     func() time.Time
	ops     []*models.Operation
	nextSeq uint64
	loaded  bool
	mu      sync.Mutex
}

// Option configures Log
type Option func(*Log)

// WithClock overrides the timestamp source of appended operations
func WithClock(c *Clock) Option {
	return func(l *Log) {
		l.clock = c
	}
}

// WithNow overrides wall time used for SyncedAt and retention
func WithNow(now func() time.Time) Option {
	return func(l *Log) {
		l.now = now
	}
}

// New creates a log backed by kv. The persisted state is loaded lazily
// on first use or explicitly via Load.
func New(kv storage.KV, logger *slog.Logger, opts ...Option) *Log {
	l := &Log{
		kv:     kv,
		clock:  NewClock(),
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the persisted log, restoring the original replay order.
func (l *Log) Load(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.loaded = false
	return l.ensureLoaded(ctx)
}

func (l *Log) ensureLoaded(ctx context.Context) error {
	if l.loaded {
		return nil
	}

	data, err := l.kv.Get(ctx, StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			l.ops = nil
			l.nextSeq = 1
			l.loaded = true
			return nil
		}
		return &PersistenceError{Op: "load", Err: err}
	}

	var ops []*models.Operation
	if err := json.Unmarshal(data, &ops); err != nil {
		return &PersistenceError{Op: "load", Err: fmt.Errorf("%w: %v", ErrCorruptLog, err)}
	}

	sort.SliceStable(ops, func(i, j int) bool { return ops[i].Before(ops[j]) })

	var maxSeq uint64
	for _, op := range ops {
		l.clock.Observe(op.CreatedAt)
		if op.Seq > maxSeq {
			maxSeq = op.Seq
		}
	}

	l.ops = ops
	l.nextSeq = maxSeq + 1
	l.loaded = true

	l.logger.Debug("Operation log loaded", "operations", len(ops))
	return nil
}

// persist записывает новое состояние и только после успешной записи
// заменяет им состояние в памяти.
func (l *Log) persist(ctx context.Context, op string, next []*models.Operation) error {
	data, err := json.Marshal(next)
	if err != nil {
		return &PersistenceError{Op: op, Err: fmt.Errorf("failed to marshal log: %w", err)}
	}
	if err := l.kv.Set(ctx, StorageKey, data); err != nil {
		return &PersistenceError{Op: op, Err: err}
	}
	l.ops = next
	return nil
}

// Append creates a PENDING operation with a strictly increasing CreatedAt,
// persists it and returns a copy.
// payload may be a json.RawMessage or any JSON-serializable value; nil is
// allowed for CLEAR_CART.
func (l *Log) Append(ctx context.Context, kind models.OperationKind, payload any) (*models.Operation, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}

	raw, err := encodePayload(payload)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	op := &models.Operation{
		ID:        uuid.New().String(),
		Kind:      kind,
		Payload:   raw,
		CreatedAt: l.clock.Tick(),
		Seq:       l.nextSeq,
		SyncState: models.SyncPending,
	}

	next := make([]*models.Operation, 0, len(l.ops)+1)
	next = append(next, l.ops...)
	next = append(next, op)

	if err := l.persist(ctx, "append", next); err != nil {
		l.logger.Warn("Failed to persist appended operation", "kind", kind, "error", err)
		return nil, err
	}
	l.nextSeq++

	l.logger.Debug("Operation appended", "op_id", op.ID, "kind", kind, "created_at", op.CreatedAt)
	return op.Clone(), nil
}

func encodePayload(payload any) (json.RawMessage, error) {
	switch p := payload.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		out := make(json.RawMessage, len(p))
		copy(out, p)
		return out, nil
	default:
		raw, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		return raw, nil
	}
}

// ListPending returns PENDING and FAILED operations in replay order.
func (l *Log) ListPending(ctx context.Context) ([]*models.Operation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	var out []*models.Operation
	for _, op := range l.ops {
		if op.IsPending() {
			out = append(out, op.Clone())
		}
	}
	return out, nil
}

// PendingCount returns the number of PENDING and FAILED operations.
func (l *Log) PendingCount(ctx context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoaded(ctx); err != nil {
		return 0, err
	}

	n := 0
	for _, op := range l.ops {
		if op.IsPending() {
			n++
		}
	}
	return n, nil
}

// All returns every operation in replay order, including SYNCED ones.
func (l *Log) All(ctx context.Context) ([]*models.Operation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	out := make([]*models.Operation, 0, len(l.ops))
	for _, op := range l.ops {
		out = append(out, op.Clone())
	}
	return out, nil
}

// Get returns a copy of the operation with the given ID.
func (l *Log) Get(ctx context.Context, id string) (*models.Operation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	idx := l.indexOf(id)
	if idx < 0 {
		return nil, ErrOperationNotFound
	}
	return l.ops[idx].Clone(), nil
}

func (l *Log) indexOf(id string) int {
	for i, op := range l.ops {
		if op.ID == id {
			return i
		}
	}
	return -1
}

// MarkSynced transitions the operation to SYNCED.
// Marking an already SYNCED operation is a no-op.
// The server has already applied the operation, so if the new state
// cannot be written the operation is still marked SYNCED in memory and
// the error is returned. It is not replayed again by this process, and the
// next successful write of the log persists the mark.
func (l *Log) MarkSynced(ctx context.Context, id string) error {
	return l.update(ctx, "mark synced", id, true, func(op *models.Operation) bool {
		if op.SyncState == models.SyncSynced {
			return false
		}
		now := l.now()
		op.SyncState = models.SyncSynced
		op.SyncedAt = &now
		op.LastError = ""
		return true
	})
}

// MarkFailed transitions the operation to FAILED, incrementing SyncAttempts
// and recording cause. A SYNCED operation is never downgraded.
func (l *Log) MarkFailed(ctx context.Context, id string, cause error) error {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	return l.update(ctx, "mark failed", id, false, func(op *models.Operation) bool {
		if op.SyncState == models.SyncSynced {
			return false
		}
		op.SyncState = models.SyncFailed
		op.SyncAttempts++
		op.LastError = msg
		return true
	})
}

// update применяет mutate к копии операции id и записывает журнал.
// keep оставляет изменение в памяти, даже если запись не удалась.
func (l *Log) update(ctx context.Context, name, id string, keep bool, mutate func(op *models.Operation) bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoaded(ctx); err != nil {
		return err
	}

	idx := l.indexOf(id)
	if idx < 0 {
		return ErrOperationNotFound
	}

	updated := l.ops[idx].Clone()
	if !mutate(updated) {
		return nil
	}

	next := make([]*models.Operation, len(l.ops))
	copy(next, l.ops)
	next[idx] = updated

	err := l.persist(ctx, name, next)
	if err != nil && keep {
		l.ops = next
		l.logger.Warn("Operation state kept in memory only", "op_id", id, "op", name, "error", err)
	}
	return err
}

// PurgeOlderThan removes SYNCED operations confirmed more than d ago.
// PENDING and FAILED operations are never removed.
func (l *Log) PurgeOlderThan(ctx context.Context, d time.Duration) (int, error) {
	cutoff := l.now().Add(-d)
	removed, _, err := l.removeSynced(ctx, "purge", func(op *models.Operation) bool {
		syncedAt := time.UnixMilli(op.CreatedAt)
		if op.SyncedAt != nil {
			syncedAt = *op.SyncedAt
		}
		return syncedAt.Before(cutoff)
	})
	return removed, err
}

// Compact removes every SYNCED operation regardless of age and returns the
// number of bytes freed in storage. Used by storage reclaim.
func (l *Log) Compact(ctx context.Context) (int64, error) {
	_, freed, err := l.removeSynced(ctx, "compact", func(*models.Operation) bool { return true })
	return freed, err
}

func (l *Log) removeSynced(ctx context.Context, name string, match func(op *models.Operation) bool) (int, int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoaded(ctx); err != nil {
		return 0, 0, err
	}

	next := make([]*models.Operation, 0, len(l.ops))
	for _, op := range l.ops {
		if op.SyncState == models.SyncSynced && match(op) {
			continue
		}
		next = append(next, op)
	}

	removed := len(l.ops) - len(next)
	if removed == 0 {
		return 0, 0, nil
	}

	before, err := json.Marshal(l.ops)
	if err != nil {
		return 0, 0, &PersistenceError{Op: name, Err: err}
	}
	if err := l.persist(ctx, name, next); err != nil {
		return 0, 0, err
	}
	after, err := json.Marshal(next)
	if err != nil {
		return removed, 0, nil
	}

	l.logger.Info("Synced operations removed", "reason", name, "removed", removed)
	return removed, int64(len(before) - len(after)), nil
}
