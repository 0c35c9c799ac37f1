package cli

import (
	"context"
)

func (c *Cli) runSync(ctx context.Context) error {
	res, err := c.svc.SyncNow(ctx)
	if err != nil {
		return err
	}

	if res.Skipped {
		c.io.Printf("Nothing to do: %s\n", res.Reason)
		return nil
	}

	if err := c.render("sync", res); err != nil {
		return err
	}
	if res.Err == nil {
		c.io.Println()
		c.success("✓ Cart is in sync with the server")
	}
	return nil
}
