package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot() CartSnapshot {
	s := CartSnapshot{
		Currency: "USD",
		Items: []CartItem{
			{ID: "42", Key: "42:abc", Quantity: 2, Price: 1250},
			{ID: "7", Quantity: 1, Price: 300, Properties: map[string]string{"color": "red"}},
			{ID: "7", Key: "tmp-op1", Quantity: 3, Price: 300},
		},
	}
	s.Recalculate()
	return s
}

func TestCartSnapshot_Totals(t *testing.T) {
	s := testSnapshot()
	assert.Equal(t, 6, s.ItemCount)
	assert.Equal(t, int64(2500+300+900), s.TotalPrice)
	require.NoError(t, s.CheckTotals())

	s.TotalPrice++
	assert.ErrorContains(t, s.CheckTotals(), "total_price mismatch")

	s.Recalculate()
	s.ItemCount = 1
	assert.ErrorContains(t, s.CheckTotals(), "item_count mismatch")

	s.Recalculate()
	s.Items[0].Quantity = 0
	assert.ErrorContains(t, s.CheckTotals(), "non-positive quantity")
}

func TestCartSnapshot_FindIndex(t *testing.T) {
	s := testSnapshot()

	tests := []struct {
		name     string
		identity string
		want     int
	}{
		{name: "server key", identity: "42:abc", want: 0},
		{name: "temp key", identity: "tmp-op1", want: 2},
		{name: "id of line without key", identity: "7", want: 1},
		{name: "id of keyed line is not matched", identity: "42", want: -1},
		{name: "empty", identity: "", want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.FindIndex(tt.identity))
		})
	}
}

func TestCartSnapshot_FindMergeIndex(t *testing.T) {
	s := testSnapshot()

	assert.Equal(t, 1, s.FindMergeIndex(&CartItem{ID: "7", Properties: map[string]string{"color": "red"}}))
	assert.Equal(t, 2, s.FindMergeIndex(&CartItem{ID: "7"}))
	assert.Equal(t, -1, s.FindMergeIndex(&CartItem{ID: "7", Properties: map[string]string{"color": "blue"}}))
	assert.Equal(t, 0, s.FindMergeIndex(&CartItem{ID: "other", Key: "42:abc"}))
}

func TestCartSnapshot_CloneIsDeep(t *testing.T) {
	s := testSnapshot()
	s.Items[1].Vendor = map[string]any{"sku": "X"}

	c := s.Clone()
	c.Items[1].Properties["color"] = "green"
	c.Items[1].Vendor["sku"] = "Y"
	c.Items[0].Quantity = 99

	assert.Equal(t, "red", s.Items[1].Properties["color"])
	assert.Equal(t, "X", s.Items[1].Vendor["sku"])
	assert.Equal(t, 2, s.Items[0].Quantity)
	assert.False(t, c.IsEmpty())
	assert.True(t, (&CartSnapshot{}).IsEmpty())
}

func TestServerCart_Totals(t *testing.T) {
	c := ServerCart{Lines: []ServerLine{
		{VariantID: "42", Quantity: 2, Price: 1250},
		{VariantID: "7", Quantity: 1, Price: 300},
	}}
	assert.Equal(t, 3, c.ItemCount())
	assert.Equal(t, int64(2800), c.TotalPrice())
}
