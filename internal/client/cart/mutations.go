package cart

import (
	"context"
	"errors"
	"fmt"

	httpClient "github.com/iudanet/cartsync/internal/client/api"
	"github.com/iudanet/cartsync/internal/client/events"
	"github.com/iudanet/cartsync/internal/client/projector"
	"github.com/iudanet/cartsync/internal/client/recovery"
	"github.com/iudanet/cartsync/internal/models"
	"github.com/iudanet/cartsync/internal/validation"
	"github.com/iudanet/cartsync/pkg/api"
)

// ChangeEvent payload событий cart:item-added, cart:item-updated,
// cart:item-removed и cart:cleared
type ChangeEvent struct {
	Item     *models.CartItem    `json:"item,omitempty"`
	Key      string              `json:"key,omitempty"`
	Cart     models.CartSnapshot `json:"cart"`
	Quantity int                 `json:"quantity,omitempty"`
	Queued   bool                `json:"queued"` // Queued мутация сохранена в журнал и ждет синхронизации
}

// intent одна мутация в двух представлениях: запрос к серверу и операция
// журнала
type intent struct {
	payload any
	send    func(ctx context.Context) (*api.Cart, error)
	change  ChangeEvent
	name    string
	event   string
	kind    models.OperationKind
}

// AddItem добавляет товар. Строка с тем же ID и свойствами объединяется
// с существующей.
func (c *Cart) AddItem(ctx context.Context, item models.CartItem) (models.CartSnapshot, error) {
	const name = "add item"

	if err := validation.ValidateLine(item.ID, item.Quantity, item.Price, item.Properties); err != nil {
		return c.reject(ctx, name, invalid(err))
	}

	item = item.Clone()
	item.Key = ""

	return c.mutate(ctx, intent{
		name:    name,
		kind:    models.OpAddItem,
		payload: models.AddItemPayload{Item: item},
		event:   events.ItemAdded,
		change:  ChangeEvent{Item: &item, Quantity: item.Quantity},
		send: func(ctx context.Context) (*api.Cart, error) {
			return c.client.AddItems(ctx, api.AddRequest{Items: []api.AddItem{httpClient.ToAddItem(item)}})
		},
	})
}

// UpdateItemQuantity меняет количество строки key. Количество 0 удаляет
// строку.
func (c *Cart) UpdateItemQuantity(ctx context.Context, key string, quantity int) (models.CartSnapshot, error) {
	const name = "update item"

	switch {
	case key == "":
		return c.reject(ctx, name, &recovery.ValidationError{Field: "key", Err: errors.New("line key is required")})
	case quantity < 0:
		return c.reject(ctx, name, &recovery.ValidationError{Field: "quantity", Err: fmt.Errorf("quantity must not be negative, got %d", quantity)})
	}

	event := events.ItemUpdated
	if quantity == 0 {
		event = events.ItemRemoved
	}

	return c.mutate(ctx, intent{
		name:    name,
		kind:    models.OpUpdateItem,
		payload: models.UpdateItemPayload{Key: key, ItemID: c.itemIDOf(key), Quantity: quantity},
		event:   event,
		change:  ChangeEvent{Key: key, Quantity: quantity},
		send: func(ctx context.Context) (*api.Cart, error) {
			return c.client.ChangeItem(ctx, api.ChangeRequest{ID: key, Quantity: quantity})
		},
	})
}

// RemoveItem удаляет строку key
func (c *Cart) RemoveItem(ctx context.Context, key string) (models.CartSnapshot, error) {
	const name = "remove item"

	if key == "" {
		return c.reject(ctx, name, &recovery.ValidationError{Field: "key", Err: errors.New("line key is required")})
	}

	return c.mutate(ctx, intent{
		name:    name,
		kind:    models.OpRemoveItem,
		payload: models.RemoveItemPayload{Key: key, ItemID: c.itemIDOf(key)},
		event:   events.ItemRemoved,
		change:  ChangeEvent{Key: key},
		send: func(ctx context.Context) (*api.Cart, error) {
			return c.client.ChangeItem(ctx, api.ChangeRequest{ID: key, Quantity: 0})
		},
	})
}

// ClearCart удаляет все строки
func (c *Cart) ClearCart(ctx context.Context) (models.CartSnapshot, error) {
	return c.mutate(ctx, intent{
		name:  "clear cart",
		kind:  models.OpClearCart,
		event: events.Cleared,
		send: func(ctx context.Context) (*api.Cart, error) {
			return c.client.ClearCart(ctx)
		},
	})
}

func (c *Cart) itemIDOf(key string) string {
	snap := c.store.Current()
	if idx := snap.FindIndex(key); idx >= 0 {
		return snap.Items[idx].ID
	}
	return ""
}

// mutate отправляет мутацию на сервер или ставит ее в журнал.
// Пока в журнале есть неотправленные операции или идет синхронизация,
// новые мутации тоже идут в журнал, иначе сервер получил бы их раньше
// более старых.
func (c *Cart) mutate(ctx context.Context, in intent) (models.CartSnapshot, error) {
	if !c.signal.Online() || c.engine.Draining() {
		// Проход сам запустит следующий, если после него остались операции
		return c.enqueue(ctx, in, false), nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.signal.Online() {
		return c.enqueue(ctx, in, false), nil
	}

	pending, err := c.log.PendingCount(ctx)
	if err != nil {
		c.report(ctx, err, in.name)
		return c.store.Current(), nil
	}
	if pending > 0 {
		snap := c.enqueue(ctx, in, false)
		if c.cfg.AutoSync {
			c.triggerSync()
		}
		return snap, nil
	}

	remote, err := in.send(ctx)
	if err != nil {
		if recovery.Classify(err) == recovery.CategoryNetwork {
			c.logger.Info("Server unreachable, operation queued", "operation", in.name, "error", err)
			return c.enqueue(ctx, in, true), nil
		}
		return c.store.Current(), c.handleRemoteError(ctx, err, in.name)
	}

	snap := httpClient.ToSnapshot(remote, c.now())
	if local, ok := c.adoptServer(ctx, in.name, snap); ok {
		snap = local
	}
	c.publishChange(in, snap, false)
	return snap, nil
}

// enqueue записывает операцию в журнал и применяет ее к локальной проекции.
// Если операцию не удалось сохранить, проекция не меняется. Если не
// удалось сохранить только проекцию, она остается в памяти: журнал уже
// содержит операцию, и Start соберет проекцию из него.
func (c *Cart) enqueue(ctx context.Context, in intent, fallback bool) models.CartSnapshot {
	c.viewMu.Lock()
	defer c.viewMu.Unlock()

	var op *models.Operation
	ok := c.persist(ctx, in.name, func(ctx context.Context) error {
		var err error
		op, err = c.log.Append(ctx, in.kind, in.payload)
		return err
	})
	if !ok {
		return c.store.Current()
	}

	next, err := projector.Apply(c.store.Current(), op)
	if err != nil {
		c.report(ctx, &recovery.ValidationError{Field: "payload", Err: err}, in.name)
		return c.store.Current()
	}

	if err := c.store.SetLocal(ctx, next); err != nil {
		c.logger.Warn("Local projection kept in memory only", "op_id", op.ID, "error", err)
		c.store.Adopt(next)
	}

	c.logger.Debug("Operation queued", "op_id", op.ID, "kind", op.Kind, "fallback", fallback)
	c.publishChange(in, next, true)
	return next
}

func (c *Cart) publishChange(in intent, snap models.CartSnapshot, queued bool) {
	ev := in.change
	ev.Cart = snap
	ev.Queued = queued
	c.bus.Publish(in.event, ev)
	c.bus.Publish(events.Updated, snap)
}

// persist выполняет запись в хранилище. При переполнении хранилища
// запускает восстановление и повторяет запись один раз. Исход попадает в
// журнал ошибок одной записью и только после повтора: журнал ошибок живет
// в том же хранилище и не должен занять освобожденное место раньше нее.
// Возвращает false, если запись так и не удалась; ошибка к этому моменту
// уже показана.
func (c *Cart) persist(ctx context.Context, operation string, write func(ctx context.Context) error) bool {
	err := write(ctx)
	if err == nil {
		return true
	}

	if recovery.Classify(err) != recovery.CategoryPersistence {
		c.report(ctx, err, operation)
		return false
	}

	rc := &recovery.Context{Operation: operation}
	recovered, strategy := c.recovery.Recover(ctx, err, rc)
	if recovered {
		retryErr := write(ctx)
		if retryErr == nil {
			c.recovery.RecordOutcome(ctx, err, rc, true, strategy)
			c.logger.Info("Write succeeded after recovery", "operation", operation, "strategy", strategy)
			return true
		}
		c.logger.Warn("Write failed after recovery", "operation", operation, "strategy", strategy, "error", retryErr)
		err = retryErr
	}

	c.recovery.RecordOutcome(ctx, err, rc, false, strategy)
	c.surface(err, operation)
	return false
}

// handleRemoteError обрабатывает ответ сервера, который не будет повторяться.
// Ошибка возвращается вызывающему коду только для отказа по безопасности.
func (c *Cart) handleRemoteError(ctx context.Context, err error, operation string) error {
	if recovery.Classify(err) == recovery.CategorySecurity {
		c.recovery.Record(ctx, err, &recovery.Context{Operation: operation})
		return c.security(err, operation)
	}
	if recovery.Classify(err) == recovery.CategoryNetwork {
		c.logger.Info("Server unreachable", "operation", operation, "error", err)
		return nil
	}
	c.report(ctx, err, operation)
	return nil
}

// security сбрасывает CSRF токен и показывает ошибку
func (c *Cart) security(err error, operation string) error {
	if c.csrf != nil {
		c.csrf.Invalidate()
	}
	c.surface(err, operation)
	return &SecurityError{Operation: operation, Err: err}
}

// invalid переводит ошибку проверки поля в ошибку категории Validation
func invalid(err error) error {
	var fe *validation.FieldError
	if errors.As(err, &fe) {
		return &recovery.ValidationError{Field: fe.Field, Err: errors.New(fe.Message)}
	}
	return &recovery.ValidationError{Err: err}
}

// reject показывает ошибку проверки входных данных
func (c *Cart) reject(ctx context.Context, operation string, err error) (models.CartSnapshot, error) {
	c.report(ctx, err, operation)
	return c.store.Current(), nil
}

// report записывает ошибку в журнал и показывает ее
func (c *Cart) report(ctx context.Context, err error, operation string) {
	c.recovery.Record(ctx, err, &recovery.Context{Operation: operation})
	c.surface(err, operation)
}

// surface делает ошибку последней и публикует cart:error
func (c *Cart) surface(err error, operation string) {
	category := recovery.Classify(err)
	info := ErrorInfo{
		At:        c.now(),
		Err:       err,
		Category:  category,
		Severity:  recovery.SeverityOf(category),
		Message:   recovery.UserMessage(err),
		Operation: operation,
	}

	c.errMu.Lock()
	c.lastErr = &info
	c.errMu.Unlock()

	c.logger.Warn("Cart operation failed",
		"operation", operation, "category", category, "severity", info.Severity, "error", err)
	c.bus.Publish(events.Error, info)
}
