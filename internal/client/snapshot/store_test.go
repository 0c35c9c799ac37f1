package snapshot

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/cartsync/internal/client/storage"
	"github.com/iudanet/cartsync/internal/client/storage/memory"
	"github.com/iudanet/cartsync/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func serverCart() models.CartSnapshot {
	s := models.CartSnapshot{
		Currency: "EUR",
		Token:    "cart-token",
		Items: []models.CartItem{
			{ID: "1", Key: "1:a", Quantity: 2, Price: 500},
		},
	}
	s.Recalculate()
	return s
}

func TestStore_EmptyByDefault(t *testing.T) {
	s := New(memory.New(0), testLogger())
	require.NoError(t, s.Load(context.Background()))

	cur := s.Current()
	assert.True(t, cur.IsEmpty())
	assert.NotNil(t, cur.Items)
	assert.False(t, s.HasServer())
}

func TestStore_ReplaceServerAndReload(t *testing.T) {
	ctx := context.Background()
	kv := memory.New(0)
	s := New(kv, testLogger())

	require.NoError(t, s.ReplaceServer(ctx, serverCart()))
	assert.True(t, s.HasServer())
	assert.Equal(t, 2, s.Current().ItemCount)
	assert.Equal(t, int64(1000), s.Server().TotalPrice)

	reloaded := New(kv, testLogger())
	require.NoError(t, reloaded.Load(ctx))
	assert.True(t, reloaded.HasServer())
	assert.Equal(t, s.Current(), reloaded.Current())
	assert.Equal(t, "cart-token", reloaded.Server().Token)
}

func TestStore_Rebuild(t *testing.T) {
	ctx := context.Background()
	s := New(memory.New(0), testLogger())
	require.NoError(t, s.ReplaceServer(ctx, serverCart()))

	add := &models.Operation{
		ID: "op-1", Kind: models.OpAddItem, CreatedAt: 10,
		Payload: []byte(`{"item":{"id":"42","quantity":2,"price":1000}}`),
	}
	bad := &models.Operation{ID: "op-2", Kind: "BOGUS", CreatedAt: 11}
	update := &models.Operation{
		ID: "op-3", Kind: models.OpUpdateItem, CreatedAt: 12,
		Payload: []byte(`{"key":"1:a","quantity":0}`),
	}

	local, err := s.Rebuild(ctx, []*models.Operation{add, bad, update})
	require.NoError(t, err)
	require.NoError(t, local.CheckTotals())
	assert.Equal(t, 2, local.ItemCount)
	assert.Equal(t, int64(2000), local.TotalPrice)
	require.Len(t, local.Items, 1)
	assert.Equal(t, "tmp-op-1", local.Items[0].Key)

	// Серверный снимок не тронут
	assert.Equal(t, serverCart().Items, s.Server().Items)

	// Повторная сборка по тем же операциям дает тот же результат
	again, err := s.Rebuild(ctx, []*models.Operation{add, bad, update})
	require.NoError(t, err)
	assert.Equal(t, local.Items, again.Items)
}

func TestStore_ReconcileKeepsPendingOnTop(t *testing.T) {
	ctx := context.Background()
	kv := memory.New(0)
	s := New(kv, testLogger())

	clearOp := &models.Operation{ID: "op-1", Kind: models.OpClearCart, CreatedAt: 10}
	add := &models.Operation{
		ID: "op-2", Kind: models.OpAddItem, CreatedAt: 11,
		Payload: []byte(`{"item":{"id":"7","quantity":2,"price":300}}`),
	}

	local, err := s.Reconcile(ctx, serverCart(), []*models.Operation{clearOp, add})
	require.NoError(t, err)
	require.Len(t, local.Items, 1)
	assert.Equal(t, "7", local.Items[0].ID)
	assert.Equal(t, 2, local.ItemCount)

	// Сервер остается основой, проекция поверх него
	assert.True(t, s.HasServer())
	assert.Equal(t, serverCart().Items, s.Server().Items)
	assert.Equal(t, local, s.Current())

	// После перезапуска Rebuild по тем же операциям дает ту же проекцию
	reloaded := New(kv, testLogger())
	require.NoError(t, reloaded.Load(ctx))
	rebuilt, err := reloaded.Rebuild(ctx, []*models.Operation{clearOp, add})
	require.NoError(t, err)
	assert.Equal(t, local.Items, rebuilt.Items)
}

func TestStore_ReconcileWithoutPending(t *testing.T) {
	s := New(memory.New(0), testLogger())

	local, err := s.Reconcile(context.Background(), serverCart(), nil)
	require.NoError(t, err)
	assert.Equal(t, serverCart().Items, local.Items)
	assert.Equal(t, s.Server(), s.Current())
}

func TestStore_AdoptIsNotPersisted(t *testing.T) {
	ctx := context.Background()
	kv := memory.New(0)
	s := New(kv, testLogger())
	require.NoError(t, s.ReplaceServer(ctx, serverCart()))

	next := serverCart()
	next.Items = append(next.Items, models.CartItem{ID: "2", Key: "tmp-op-1", Quantity: 1, Price: 1})
	s.Adopt(next)

	assert.Equal(t, 3, s.Current().ItemCount)
	assert.Equal(t, 2, s.Server().ItemCount)

	reloaded := New(kv, testLogger())
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, 2, reloaded.Current().ItemCount)
}

func TestStore_WriteFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	kv := memory.New(0)
	s := New(kv, testLogger())
	require.NoError(t, s.ReplaceServer(ctx, serverCart()))

	kv.SetQuota(1)

	next := serverCart()
	next.Items = append(next.Items, models.CartItem{ID: "2", Key: "2:b", Quantity: 1, Price: 1})
	next.Recalculate()

	err := s.SetLocal(ctx, next)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrQuotaExceeded)
	assert.Len(t, s.Current().Items, 1)
}

func TestStore_SetLocalRejectsBrokenTotals(t *testing.T) {
	s := New(memory.New(0), testLogger())
	broken := serverCart()
	broken.TotalPrice = 1

	require.Error(t, s.SetLocal(context.Background(), broken))
	cur := s.Current()
	assert.True(t, cur.IsEmpty())
}

func TestStore_Corrupt(t *testing.T) {
	ctx := context.Background()
	kv := memory.New(0)
	require.NoError(t, kv.Set(ctx, StorageKey, []byte("nope")))

	err := New(kv, testLogger()).Load(ctx)
	assert.ErrorIs(t, err, ErrCorruptSnapshot)
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New(memory.New(0), testLogger())
	require.NoError(t, s.ReplaceServer(ctx, serverCart()))

	cur := s.Current()
	cur.Items[0].Quantity = 99

	assert.Equal(t, 2, s.Current().Items[0].Quantity)
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	kv := memory.New(0)
	s := New(kv, testLogger())
	require.NoError(t, s.ReplaceServer(ctx, serverCart()))

	require.NoError(t, s.Clear(ctx))
	assert.False(t, s.HasServer())
	_, err := kv.Get(ctx, StorageKey)
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)
}
