package storage

import (
	"context"
	"time"

	"github.com/iudanet/cartsync/internal/models"
)

// CartStorage defines interface for cart persistence
type CartStorage interface {
	// CreateCart stores a new empty cart.
	// Returns ErrCartAlreadyExists if the token is taken
	CreateCart(ctx context.Context, cart *models.ServerCart) error

	// GetCart retrieves the cart with its lines ordered by position.
	// Returns ErrCartNotFound if cart doesn't exist
	GetCart(ctx context.Context, token string) (*models.ServerCart, error)

	// AddLine adds quantity of a variant. A line with the same variant id
	// and properties is merged, otherwise a new line is appended.
	// Returns the resulting line
	AddLine(ctx context.Context, token string, line *models.ServerLine) (*models.ServerLine, error)

	// ChangeLine sets the quantity of the line addressed by its key or,
	// if no key matches, by variant id. Quantity 0 removes the line.
	// Returns ErrLineNotFound if nothing matches
	ChangeLine(ctx context.Context, token, id string, quantity int) error

	// ClearCart removes every line of the cart
	ClearCart(ctx context.Context, token string) error

	// DeleteStaleCarts removes carts not updated since before
	// Returns number of deleted carts
	DeleteStaleCarts(ctx context.Context, before time.Time) (int, error)

	// Ping checks that the database is reachable
	Ping(ctx context.Context) error
}
