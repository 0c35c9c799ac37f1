package cart

import (
	"context"

	httpClient "github.com/iudanet/cartsync/internal/client/api"
	"github.com/iudanet/cartsync/internal/client/events"
	"github.com/iudanet/cartsync/internal/client/recovery"
	syncengine "github.com/iudanet/cartsync/internal/client/sync"
	"github.com/iudanet/cartsync/pkg/api"
)

// SyncNow отправляет накопленные операции и после любого не пропущенного
// прохода берет снимок с сервера за основу проекции. Операции, оставшиеся
// в журнале, применяются поверх него.
// Ошибка возвращается только при отказе по безопасности; остальные
// неудачи отражаются в Result и LastError.
func (c *Cart) SyncNow(ctx context.Context) (*syncengine.Result, error) {
	const name = "sync"

	res, err := c.engine.Drain(ctx)
	if err != nil {
		c.report(ctx, err, name)
		return &syncengine.Result{State: syncengine.StateIdle, Err: err}, nil
	}
	if res.Skipped {
		c.logger.Debug("Sync skipped", "reason", res.Reason)
		return res, nil
	}

	var secErr error
	if res.Err != nil {
		// Ошибка уже записана движком восстановления
		if recovery.Classify(res.Err) == recovery.CategorySecurity {
			secErr = c.security(res.Err, name)
		} else {
			c.surface(res.Err, name)
		}
	}

	c.refresh(ctx, res.Cart)

	if res.State == syncengine.StateCompleted && c.cfg.AutoSync {
		// Операции, поставленные в журнал во время прохода
		if n, err := c.log.PendingCount(ctx); err == nil && n > 0 {
			c.triggerSync()
		}
	}
	return res, secErr
}

// refresh обновляет серверный снимок и собирает проекцию заново.
// fallback используется, если сервер не ответил на GET.
func (c *Cart) refresh(ctx context.Context, fallback *api.Cart) {
	c.mu.Lock()
	defer c.mu.Unlock()

	remote, err := c.client.GetCart(ctx, httpClient.NoCache())
	if err != nil {
		c.logger.Warn("Failed to refresh cart after sync", "error", err)
		if fallback == nil {
			return
		}
		remote = fallback
	}

	snap := httpClient.ToSnapshot(remote, c.now())
	if local, ok := c.adoptServer(ctx, "refresh", snap); ok {
		c.bus.Publish(events.Updated, local)
	}
}
