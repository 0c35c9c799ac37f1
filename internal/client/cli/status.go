package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/cartsync/internal/client/cart"
	syncengine "github.com/iudanet/cartsync/internal/client/sync"
)

type statusView struct {
	LastError *cart.ErrorInfo
	SyncState syncengine.State
	Pending   int
	Online    bool
}

func (c *Cli) runStatus(ctx context.Context) error {
	pending, err := c.svc.PendingCount(ctx)
	if err != nil {
		return fmt.Errorf("failed to count pending operations: %w", err)
	}

	view := statusView{
		Online:    c.svc.Online(),
		SyncState: c.svc.SyncState(),
		Pending:   pending,
		LastError: c.svc.LastError(),
	}
	if err := c.render("status", view); err != nil {
		return err
	}

	c.io.Println()
	if pending > 0 {
		c.hint("Run 'cartsync sync' to send queued changes.")
	} else {
		c.success("✓ No changes waiting for sync")
	}
	return nil
}
