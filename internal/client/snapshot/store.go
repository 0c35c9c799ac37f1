// Package snapshot holds the last server-authoritative cart and the local
// projection derived from it.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/iudanet/cartsync/internal/client/projector"
	"github.com/iudanet/cartsync/internal/client/storage"
	"github.com/iudanet/cartsync/internal/models"
)

// StorageKey is the key of the persisted snapshot pair.
const StorageKey = storage.KeyPrefix + "snapshot"

// ErrCorruptSnapshot indicates that the persisted snapshot could not be decoded
var ErrCorruptSnapshot = errors.New("corrupt snapshot")

// persisted формат blob в хранилище
type persisted struct {
	Server    models.CartSnapshot `json:"server"`
	Local     models.CartSnapshot `json:"local"`
	HasServer bool                `json:"has_server"`
}

// Store хранит серверный снимок и локальную проекцию.
// Все геттеры возвращают копии, изменять состояние может только владелец
// через методы Store. Запись идет одним blob: при ошибке записи состояние
// в памяти не меняется.
type Store struct {
	kv        storage.KV
	logger    *slog.Logger
	server    models.CartSnapshot
	local     models.CartSnapshot
	hasServer bool
	mu        sync.RWMutex
}

// New creates an empty store backed by kv.
func New(kv storage.KV, logger *slog.Logger) *Store {
	return &Store{
		kv:     kv,
		logger: logger,
		server: models.CartSnapshot{Items: []models.CartItem{}},
		local:  models.CartSnapshot{Items: []models.CartItem{}},
	}
}

// Load restores the persisted snapshot pair. A missing key leaves the
// store empty.
func (s *Store) Load(ctx context.Context) error {
	data, err := s.kv.Get(ctx, StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if p.Server.Items == nil {
		p.Server.Items = []models.CartItem{}
	}
	if p.Local.Items == nil {
		p.Local.Items = []models.CartItem{}
	}

	// Итоги не доверяем сохраненным значениям
	p.Server.Recalculate()
	p.Local.Recalculate()

	s.mu.Lock()
	s.server = p.Server
	s.local = p.Local
	s.hasServer = p.HasServer
	s.mu.Unlock()

	s.logger.Debug("Snapshot loaded", "items", len(p.Local.Items), "has_server", p.HasServer)
	return nil
}

// Current returns the snapshot that should be shown to the shopper.
func (s *Store) Current() models.CartSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.local.Clone()
}

// Server returns the last snapshot received from the server.
func (s *Store) Server() models.CartSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.server.Clone()
}

// HasServer reports whether a server snapshot was ever stored.
func (s *Store) HasServer() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasServer
}

// ReplaceServer stores an authoritative snapshot and discards the local
// projection in its favor.
func (s *Store) ReplaceServer(ctx context.Context, snap models.CartSnapshot) error {
	snap = snap.Clone()
	snap.Recalculate()

	return s.write(ctx, snap, snap.Clone(), true)
}

// SetLocal replaces the local projection, keeping the server snapshot.
func (s *Store) SetLocal(ctx context.Context, snap models.CartSnapshot) error {
	if err := snap.CheckTotals(); err != nil {
		return fmt.Errorf("refusing to store projection: %w", err)
	}

	s.mu.RLock()
	server := s.server
	hasServer := s.hasServer
	s.mu.RUnlock()

	return s.write(ctx, server, snap.Clone(), hasServer)
}

// Rebuild recomputes the local projection as the server snapshot with
// pending applied in order. Operations that cannot be applied are skipped.
func (s *Store) Rebuild(ctx context.Context, pending []*models.Operation) (models.CartSnapshot, error) {
	s.mu.RLock()
	server := s.server
	hasServer := s.hasServer
	s.mu.RUnlock()

	local := s.project(server, pending)
	if err := s.write(ctx, server, local, hasServer); err != nil {
		return models.CartSnapshot{}, err
	}
	return local.Clone(), nil
}

// Reconcile stores an authoritative snapshot and rebuilds the local
// projection on top of it from pending. With no pending operations it is
// the same as ReplaceServer.
func (s *Store) Reconcile(ctx context.Context, snap models.CartSnapshot, pending []*models.Operation) (models.CartSnapshot, error) {
	server := snap.Clone()
	server.Recalculate()

	local := s.project(server, pending)
	if err := s.write(ctx, server, local, true); err != nil {
		return models.CartSnapshot{}, err
	}
	return local.Clone(), nil
}

// Adopt replaces the local projection in memory only. Used when the
// operation behind it is already in the log but the projection could not
// be written: Start rebuilds it from the log anyway.
func (s *Store) Adopt(local models.CartSnapshot) {
	local = local.Clone()
	local.Recalculate()

	s.mu.Lock()
	s.local = local
	s.mu.Unlock()
}

func (s *Store) project(server models.CartSnapshot, pending []*models.Operation) models.CartSnapshot {
	local := server.Clone()
	for _, op := range pending {
		next, err := projector.Apply(local, op)
		if err != nil {
			s.logger.Warn("Skipping operation during rebuild", "op_id", op.ID, "kind", op.Kind, "error", err)
			continue
		}
		local = next
	}
	return local
}

// Clear drops both snapshots and the persisted blob.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Remove(ctx, StorageKey); err != nil {
		return fmt.Errorf("failed to remove snapshot: %w", err)
	}

	s.mu.Lock()
	s.server = models.CartSnapshot{Items: []models.CartItem{}}
	s.local = models.CartSnapshot{Items: []models.CartItem{}}
	s.hasServer = false
	s.mu.Unlock()
	return nil
}

func (s *Store) write(ctx context.Context, server, local models.CartSnapshot, hasServer bool) error {
	data, err := json.Marshal(persisted{Server: server, Local: local, HasServer: hasServer})
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := s.kv.Set(ctx, StorageKey, data); err != nil {
		return fmt.Errorf("failed to persist snapshot: %w", err)
	}

	s.mu.Lock()
	s.server = server
	s.local = local
	s.hasServer = hasServer
	s.mu.Unlock()
	return nil
}
