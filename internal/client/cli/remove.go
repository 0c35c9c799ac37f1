package cli

import (
	"context"
	"strings"
)

func (c *Cli) runUpdate(ctx context.Context, key string, quantity int) error {
	snap, err := c.svc.UpdateItemQuantity(ctx, key, quantity)
	if err != nil {
		return err
	}
	return c.printMutation(ctx, snap)
}

func (c *Cli) runRemove(ctx context.Context, key string) error {
	snap, err := c.svc.RemoveItem(ctx, key)
	if err != nil {
		return err
	}
	return c.printMutation(ctx, snap)
}

func (c *Cli) runClear(ctx context.Context, confirmed bool) error {
	if !confirmed {
		answer, err := c.io.ReadInput("Remove every item from the cart? [y/N]: ")
		if err != nil {
			return err
		}
		switch strings.ToLower(answer) {
		case "y", "yes":
		default:
			c.io.Println("Cancelled.")
			return nil
		}
	}

	snap, err := c.svc.ClearCart(ctx)
	if err != nil {
		return err
	}
	return c.printMutation(ctx, snap)
}
