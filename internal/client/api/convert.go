package api

import (
	"time"

	"github.com/iudanet/cartsync/internal/models"
	"github.com/iudanet/cartsync/pkg/api"
)

// ToSnapshot converts a server cart to a snapshot. Totals are recomputed
// from the items rather than copied from the response.
func ToSnapshot(cart *api.Cart, at time.Time) models.CartSnapshot {
	s := models.CartSnapshot{
		Token:     cart.Token,
		Currency:  cart.Currency,
		UpdatedAt: at,
		Items:     make([]models.CartItem, 0, len(cart.Items)),
	}
	for _, li := range cart.Items {
		if li.Quantity < 1 {
			continue
		}
		s.Items = append(s.Items, models.CartItem{
			ID:         li.ID,
			Key:        li.Key,
			Title:      li.Title,
			Quantity:   li.Quantity,
			Price:      li.Price,
			Properties: li.Properties,
			Vendor:     li.Vendor,
		}.Clone())
	}
	s.Recalculate()
	return s
}

// ToAddItem converts a cart item to an add request entry
func ToAddItem(item models.CartItem) api.AddItem {
	return api.AddItem{
		ID:         item.ID,
		Title:      item.Title,
		Quantity:   item.Quantity,
		Price:      item.Price,
		Properties: item.Clone().Properties,
	}
}
