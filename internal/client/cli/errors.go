package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/cartsync/internal/client/recovery"
)

type statRow struct {
	Category recovery.Category
	recovery.CategoryStats
}

func (c *Cli) runErrors(ctx context.Context) error {
	return c.render("errors", c.svc.Errors(ctx))
}

func (c *Cli) runErrorStats(ctx context.Context) error {
	stats := c.svc.ErrorStats(ctx)
	rows := make([]statRow, 0, len(stats))
	for _, category := range recovery.Categories {
		if s, ok := stats[category]; ok && s.Total > 0 {
			rows = append(rows, statRow{Category: category, CategoryStats: s})
		}
	}
	if len(rows) == 0 {
		c.io.Println("No errors recorded")
		return nil
	}
	return c.render("stats", rows)
}

func (c *Cli) runClearErrors(ctx context.Context) error {
	if err := c.svc.ClearErrors(ctx); err != nil {
		return fmt.Errorf("failed to clear error log: %w", err)
	}
	c.success("✓ Error log cleared")
	return nil
}

func (c *Cli) runOperations(ctx context.Context) error {
	ops, err := c.svc.Operations(ctx)
	if err != nil {
		return fmt.Errorf("failed to read operation log: %w", err)
	}
	return c.render("operations", ops)
}
