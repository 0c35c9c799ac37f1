package projector

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/cartsync/internal/models"
)

func newOp(t *testing.T, id string, kind models.OperationKind, payload any) *models.Operation {
	t.Helper()
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		raw = b
	}
	return &models.Operation{ID: id, Kind: kind, Payload: raw, CreatedAt: 1000, SyncState: models.SyncPending}
}

func snapshotOf(items ...models.CartItem) models.CartSnapshot {
	s := models.CartSnapshot{Items: items}
	s.Recalculate()
	return s
}

func TestApply(t *testing.T) {
	base := snapshotOf(
		models.CartItem{ID: "1", Key: "1:a", Quantity: 2, Price: 500},
		models.CartItem{ID: "2", Key: "2:b", Quantity: 1, Price: 1500},
	)

	tests := []struct {
		op        func(t *testing.T) *models.Operation
		name      string
		wantKeys  []string
		wantQty   []int
		wantCount int
		wantTotal int64
	}{
		{
			name: "add new item synthesizes temp key",
			op: func(t *testing.T) *models.Operation {
				return newOp(t, "op-1", models.OpAddItem, models.AddItemPayload{Item: models.CartItem{ID: "3", Quantity: 2, Price: 100}})
			},
			wantKeys:  []string{"1:a", "2:b", "tmp-op-1"},
			wantQty:   []int{2, 1, 2},
			wantCount: 5,
			wantTotal: 2*500 + 1500 + 2*100,
		},
		{
			name: "add existing key increments quantity",
			op: func(t *testing.T) *models.Operation {
				return newOp(t, "op-2", models.OpAddItem, models.AddItemPayload{Item: models.CartItem{ID: "1", Key: "1:a", Quantity: 3, Price: 500}})
			},
			wantKeys:  []string{"1:a", "2:b"},
			wantQty:   []int{5, 1},
			wantCount: 6,
			wantTotal: 5*500 + 1500,
		},
		{
			name: "add same id without key merges",
			op: func(t *testing.T) *models.Operation {
				return newOp(t, "op-3", models.OpAddItem, models.AddItemPayload{Item: models.CartItem{ID: "2", Quantity: 1, Price: 1500}})
			},
			wantKeys:  []string{"1:a", "2:b"},
			wantQty:   []int{2, 2},
			wantCount: 4,
			wantTotal: 2*500 + 2*1500,
		},
		{
			name: "update sets quantity",
			op: func(t *testing.T) *models.Operation {
				return newOp(t, "op-4", models.OpUpdateItem, models.UpdateItemPayload{Key: "2:b", Quantity: 4})
			},
			wantKeys:  []string{"1:a", "2:b"},
			wantQty:   []int{2, 4},
			wantCount: 6,
			wantTotal: 2*500 + 4*1500,
		},
		{
			name: "update to zero removes",
			op: func(t *testing.T) *models.Operation {
				return newOp(t, "op-5", models.OpUpdateItem, models.UpdateItemPayload{Key: "1:a", Quantity: 0})
			},
			wantKeys:  []string{"2:b"},
			wantQty:   []int{1},
			wantCount: 1,
			wantTotal: 1500,
		},
		{
			name: "update negative removes",
			op: func(t *testing.T) *models.Operation {
				return newOp(t, "op-6", models.OpUpdateItem, models.UpdateItemPayload{Key: "2:b", Quantity: -3})
			},
			wantKeys:  []string{"1:a"},
			wantQty:   []int{2},
			wantCount: 2,
			wantTotal: 1000,
		},
		{
			name: "remove existing",
			op: func(t *testing.T) *models.Operation {
				return newOp(t, "op-7", models.OpRemoveItem, models.RemoveItemPayload{Key: "1:a"})
			},
			wantKeys:  []string{"2:b"},
			wantQty:   []int{1},
			wantCount: 1,
			wantTotal: 1500,
		},
		{
			name: "remove missing is no-op",
			op: func(t *testing.T) *models.Operation {
				return newOp(t, "op-8", models.OpRemoveItem, models.RemoveItemPayload{Key: "nope"})
			},
			wantKeys:  []string{"1:a", "2:b"},
			wantQty:   []int{2, 1},
			wantCount: 3,
			wantTotal: 2500,
		},
		{
			name: "clear empties",
			op: func(t *testing.T) *models.Operation {
				return newOp(t, "op-9", models.OpClearCart, nil)
			},
			wantKeys:  []string{},
			wantQty:   []int{},
			wantCount: 0,
			wantTotal: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(base, tt.op(t))
			require.NoError(t, err)
			require.NoError(t, got.CheckTotals())

			keys := []string{}
			qty := []int{}
			for _, it := range got.Items {
				keys = append(keys, it.Key)
				qty = append(qty, it.Quantity)
			}
			assert.Equal(t, tt.wantKeys, keys)
			assert.Equal(t, tt.wantQty, qty)
			assert.Equal(t, tt.wantCount, got.ItemCount)
			assert.Equal(t, tt.wantTotal, got.TotalPrice)
		})
	}

	// Исходный снимок не изменился
	assert.Len(t, base.Items, 2)
	assert.Equal(t, 2, base.Items[0].Quantity)
	assert.Equal(t, 3, base.ItemCount)
}

func TestApply_TempKeyResolvesLaterOps(t *testing.T) {
	add := newOp(t, "op-add", models.OpAddItem, models.AddItemPayload{Item: models.CartItem{ID: "42", Quantity: 2, Price: 1000}})
	s, err := Apply(models.CartSnapshot{}, add)
	require.NoError(t, err)
	require.Len(t, s.Items, 1)
	key := s.Items[0].Key
	assert.True(t, IsTempKey(key))
	assert.Equal(t, TempKey("op-add"), key)

	update := newOp(t, "op-upd", models.OpUpdateItem, models.UpdateItemPayload{Key: key, ItemID: "42", Quantity: 5})
	s, err = Apply(s, update)
	require.NoError(t, err)
	assert.Equal(t, 5, s.ItemCount)
	assert.Equal(t, int64(5000), s.TotalPrice)

	// Сервер заменил временный ключ: строка находится по ID товара
	server := snapshotOf(models.CartItem{ID: "42", Key: "42:srv", Quantity: 5, Price: 1000})
	remove := newOp(t, "op-rm", models.OpRemoveItem, models.RemoveItemPayload{Key: key, ItemID: "42"})
	s, err = Apply(server, remove)
	require.NoError(t, err)
	assert.Empty(t, s.Items)
	assert.Zero(t, s.TotalPrice)
}

func TestApply_Errors(t *testing.T) {
	tests := []struct {
		op      *models.Operation
		wantErr error
		name    string
	}{
		{
			name:    "unknown kind",
			op:      &models.Operation{ID: "x", Kind: "BOGUS"},
			wantErr: ErrUnknownKind,
		},
		{
			name:    "malformed payload",
			op:      &models.Operation{ID: "x", Kind: models.OpAddItem, Payload: json.RawMessage(`{"item":`)},
			wantErr: ErrInvalidPayload,
		},
		{
			name:    "add without identity",
			op:      newOp(t, "x", models.OpAddItem, models.AddItemPayload{Item: models.CartItem{Quantity: 1}}),
			wantErr: ErrInvalidPayload,
		},
		{
			name:    "add zero quantity",
			op:      newOp(t, "x", models.OpAddItem, models.AddItemPayload{Item: models.CartItem{ID: "1", Quantity: 0}}),
			wantErr: ErrInvalidPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := snapshotOf(models.CartItem{ID: "1", Key: "k", Quantity: 1, Price: 10})
			got, err := Apply(base, tt.op)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, base, got)
		})
	}
}

// TestApply_TotalsInvariant применяет случайные последовательности операций
// и проверяет инвариант итогов после каждого шага.
func TestApply_TotalsInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(20261019))
	ids := []string{"a", "b", "c", "d"}

	for run := 0; run < 200; run++ {
		s := models.CartSnapshot{}
		for step := 0; step < 30; step++ {
			var op *models.Operation
			opID := "op"
			switch rng.Intn(4) {
			case 0:
				op = newOp(t, opID, models.OpAddItem, models.AddItemPayload{Item: models.CartItem{
					ID:       ids[rng.Intn(len(ids))],
					Quantity: 1 + rng.Intn(5),
					Price:    int64(rng.Intn(10_000)),
				}})
			case 1:
				key := "missing"
				if len(s.Items) > 0 {
					key = s.Items[rng.Intn(len(s.Items))].Key
				}
				op = newOp(t, opID, models.OpUpdateItem, models.UpdateItemPayload{Key: key, Quantity: rng.Intn(6) - 1})
			case 2:
				key := "missing"
				if len(s.Items) > 0 {
					key = s.Items[rng.Intn(len(s.Items))].Key
				}
				op = newOp(t, opID, models.OpRemoveItem, models.RemoveItemPayload{Key: key})
			default:
				if rng.Intn(5) != 0 {
					continue
				}
				op = newOp(t, opID, models.OpClearCart, nil)
			}

			next, err := Apply(s, op)
			require.NoError(t, err)
			require.NoError(t, next.CheckTotals(), "run %d step %d", run, step)
			s = next
		}
	}
}

func TestApplyAll_StopsAtError(t *testing.T) {
	ops := []*models.Operation{
		newOp(t, "1", models.OpAddItem, models.AddItemPayload{Item: models.CartItem{ID: "1", Quantity: 1, Price: 10}}),
		{ID: "2", Kind: "BOGUS"},
		newOp(t, "3", models.OpClearCart, nil),
	}

	got, err := ApplyAll(models.CartSnapshot{}, ops)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apply BOGUS 2")
	assert.Equal(t, 1, got.ItemCount)
}
