package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOperation(t *testing.T, kind OperationKind, payload any) *Operation {
	t.Helper()
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		raw = data
	}
	return &Operation{ID: "op-1", Kind: kind, SyncState: SyncPending, Payload: raw}
}

func TestOperationKind_Valid(t *testing.T) {
	for _, k := range []OperationKind{OpAddItem, OpUpdateItem, OpRemoveItem, OpClearCart} {
		assert.True(t, k.Valid(), k)
	}
	assert.False(t, OperationKind("MERGE").Valid())
	assert.False(t, OperationKind("").Valid())
}

func TestOperation_IsPending(t *testing.T) {
	op := &Operation{SyncState: SyncPending}
	assert.True(t, op.IsPending())
	op.SyncState = SyncFailed
	assert.True(t, op.IsPending())
	op.SyncState = SyncSynced
	assert.False(t, op.IsPending())
}

func TestOperation_Before(t *testing.T) {
	a := &Operation{CreatedAt: 100, Seq: 5}
	b := &Operation{CreatedAt: 101, Seq: 1}
	c := &Operation{CreatedAt: 101, Seq: 2}

	assert.True(t, a.Before(b))
	assert.False(t, b.Before(a))
	assert.True(t, b.Before(c), "same timestamp falls back to seq")
	assert.False(t, c.Before(c))
}

func TestOperation_Clone(t *testing.T) {
	synced := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	op := &Operation{ID: "op-1", SyncedAt: &synced, SyncAttempts: 1}

	c := op.Clone()
	*c.SyncedAt = synced.Add(time.Hour)
	c.SyncAttempts = 3

	assert.Equal(t, synced, *op.SyncedAt)
	assert.Equal(t, 1, op.SyncAttempts)
}

func TestOperation_Decode(t *testing.T) {
	add := newOperation(t, OpAddItem, AddItemPayload{Item: CartItem{ID: "42", Quantity: 2, Price: 1250}})
	p, err := add.DecodeAdd()
	require.NoError(t, err)
	assert.Equal(t, "42", p.Item.ID)
	assert.Equal(t, 2, p.Item.Quantity)

	upd := newOperation(t, OpUpdateItem, UpdateItemPayload{Key: "tmp-op0", ItemID: "42", Quantity: 5})
	u, err := upd.DecodeUpdate()
	require.NoError(t, err)
	assert.Equal(t, UpdateItemPayload{Key: "tmp-op0", ItemID: "42", Quantity: 5}, *u)

	rm := newOperation(t, OpRemoveItem, RemoveItemPayload{Key: "42:abc"})
	r, err := rm.DecodeRemove()
	require.NoError(t, err)
	assert.Equal(t, "42:abc", r.Key)

	// неверный тип операции
	_, err = add.DecodeUpdate()
	assert.ErrorContains(t, err, "not UPDATE_ITEM")
	_, err = upd.DecodeRemove()
	assert.Error(t, err)

	// поврежденный payload
	broken := &Operation{ID: "op-2", Kind: OpAddItem, Payload: json.RawMessage(`{"item":`)}
	_, err = broken.DecodeAdd()
	assert.ErrorContains(t, err, "failed to decode add payload")
}
