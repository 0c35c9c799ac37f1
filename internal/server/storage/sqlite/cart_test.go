package sqlite

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/cartsync/internal/models"
	"github.com/iudanet/cartsync/internal/server/storage"
)

func TestCartStorage_CreateCart(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	token := createTestCart(t, ctx, s)

	cart, err := s.GetCart(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, token, cart.Token)
	assert.Equal(t, "USD", cart.Currency)
	assert.Empty(t, cart.Lines)
	assert.False(t, cart.CreatedAt.IsZero())

	// Повторное создание с тем же токеном
	err = s.CreateCart(ctx, &models.ServerCart{Token: token, Currency: "USD"})
	assert.ErrorIs(t, err, storage.ErrCartAlreadyExists)
}

func TestCartStorage_GetCart_NotFound(t *testing.T) {
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := s.GetCart(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrCartNotFound)
}

func TestCartStorage_AddLine(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	token := createTestCart(t, ctx, s)

	first, err := s.AddLine(ctx, token, &models.ServerLine{VariantID: "42", Title: "Mug", Quantity: 1, Price: 1250})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first.Key, "42:"))
	assert.Len(t, first.Key, len("42:")+8)
	assert.Equal(t, 0, first.Position)

	tests := []struct {
		line      *models.ServerLine
		name      string
		wantKey   string
		wantQty   int
		wantLines int
	}{
		{
			name:      "same variant merges into existing line",
			line:      &models.ServerLine{VariantID: "42", Quantity: 2, Price: 1250},
			wantKey:   first.Key,
			wantQty:   3,
			wantLines: 1,
		},
		{
			name: "different properties create new line",
			line: &models.ServerLine{
				VariantID:  "42",
				Quantity:   1,
				Price:      1250,
				Properties: map[string]string{"engraving": "Hi"},
			},
			wantQty:   1,
			wantLines: 2,
		},
		{
			name:      "different variant creates new line",
			line:      &models.ServerLine{VariantID: "7", Quantity: 5, Price: 100},
			wantQty:   5,
			wantLines: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.AddLine(ctx, token, tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.wantQty, got.Quantity)
			if tt.wantKey != "" {
				assert.Equal(t, tt.wantKey, got.Key)
			} else {
				assert.NotEqual(t, first.Key, got.Key)
			}

			cart, err := s.GetCart(ctx, token)
			require.NoError(t, err)
			assert.Len(t, cart.Lines, tt.wantLines)
		})
	}

	cart, err := s.GetCart(ctx, token)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 3)
	for i, line := range cart.Lines {
		assert.Equal(t, i, line.Position)
	}
	assert.Equal(t, map[string]string{"engraving": "Hi"}, cart.Lines[1].Properties)
	assert.Nil(t, cart.Lines[0].Properties)
	assert.Equal(t, 9, cart.ItemCount())
	assert.Equal(t, int64(3*1250+1250+500), cart.TotalPrice())
}

func TestCartStorage_AddLine_UnknownCart(t *testing.T) {
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := s.AddLine(context.Background(), "missing", &models.ServerLine{VariantID: "1", Quantity: 1})
	assert.ErrorIs(t, err, storage.ErrCartNotFound)
}

func TestCartStorage_ChangeLine(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	token := createTestCart(t, ctx, s)
	mug, err := s.AddLine(ctx, token, &models.ServerLine{VariantID: "42", Quantity: 1, Price: 1250})
	require.NoError(t, err)
	_, err = s.AddLine(ctx, token, &models.ServerLine{VariantID: "7", Quantity: 2, Price: 100})
	require.NoError(t, err)

	tests := []struct {
		wantErr  error
		want     map[string]int
		name     string
		id       string
		quantity int
	}{
		{
			name:     "by line key",
			id:       mug.Key,
			quantity: 4,
			want:     map[string]int{"42": 4, "7": 2},
		},
		{
			name:     "by variant id",
			id:       "7",
			quantity: 3,
			want:     map[string]int{"42": 4, "7": 3},
		},
		{
			name:     "zero removes line",
			id:       mug.Key,
			quantity: 0,
			want:     map[string]int{"7": 3},
		},
		{
			name:     "unknown line",
			id:       "999",
			quantity: 1,
			wantErr:  storage.ErrLineNotFound,
			want:     map[string]int{"7": 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.ChangeLine(ctx, token, tt.id, tt.quantity)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			cart, err := s.GetCart(ctx, token)
			require.NoError(t, err)
			got := make(map[string]int, len(cart.Lines))
			for _, line := range cart.Lines {
				got[line.VariantID] = line.Quantity
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCartStorage_ClearCart(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	token := createTestCart(t, ctx, s)
	_, err := s.AddLine(ctx, token, &models.ServerLine{VariantID: "42", Quantity: 1, Price: 1250})
	require.NoError(t, err)

	require.NoError(t, s.ClearCart(ctx, token))

	cart, err := s.GetCart(ctx, token)
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)

	assert.ErrorIs(t, s.ClearCart(ctx, "missing"), storage.ErrCartNotFound)
}

func TestCartStorage_DeleteStaleCarts(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	base := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	stale := createTestCart(t, ctx, s)
	_, err := s.AddLine(ctx, stale, &models.ServerLine{VariantID: "1", Quantity: 1})
	require.NoError(t, err)

	s.now = func() time.Time { return base.Add(48 * time.Hour) }
	fresh := createTestCart(t, ctx, s)

	deleted, err := s.DeleteStaleCarts(ctx, base.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	_, err = s.GetCart(ctx, stale)
	assert.ErrorIs(t, err, storage.ErrCartNotFound)
	_, err = s.GetCart(ctx, fresh)
	assert.NoError(t, err)
}

func TestCartStorage_WriteTouchesUpdatedAt(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	base := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	token := createTestCart(t, ctx, s)

	s.now = func() time.Time { return base.Add(time.Hour) }
	_, err := s.AddLine(ctx, token, &models.ServerLine{VariantID: "1", Quantity: 1})
	require.NoError(t, err)

	cart, err := s.GetCart(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, base, cart.CreatedAt)
	assert.Equal(t, base.Add(time.Hour), cart.UpdatedAt)
}

func TestStorage_Ping(t *testing.T) {
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	assert.NoError(t, s.Ping(context.Background()))
}

func setupTestStorage(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	// Используем in-memory database для тестов
	s, err := New(ctx, ":memory:")
	require.NoError(t, err)

	cleanup := func() {
		_ = s.Close()
	}

	return s, cleanup
}

func createTestCart(t *testing.T, ctx context.Context, s *Storage) string {
	token := uuid.NewString()
	require.NoError(t, s.CreateCart(ctx, &models.ServerCart{Token: token, Currency: "USD"}))
	return token
}
