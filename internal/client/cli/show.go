package cli

import (
	"context"

	"github.com/iudanet/cartsync/internal/models"
)

func (c *Cli) runShow(ctx context.Context) error {
	snap, err := c.svc.GetCart(ctx)
	if err != nil {
		return err
	}
	if err := c.render("cart", snap); err != nil {
		return err
	}
	c.printPending(ctx)
	return nil
}

// printMutation выводит корзину после изменения
func (c *Cli) printMutation(ctx context.Context, snap models.CartSnapshot) error {
	if err := c.render("cart", snap); err != nil {
		return err
	}
	c.printPending(ctx)
	return nil
}

// printPending напоминает о неотправленных изменениях
func (c *Cli) printPending(ctx context.Context) {
	pending, err := c.svc.PendingCount(ctx)
	if err != nil || pending == 0 {
		return
	}
	c.io.Println()
	if c.svc.Online() {
		c.hint("%d change(s) waiting to be sent to the server.", pending)
		return
	}
	c.hint("Offline: %d change(s) saved locally, run 'cartsync sync' when the server is reachable.", pending)
}
