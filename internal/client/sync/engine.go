// Package sync replays the operation log against the remote cart endpoint.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	gosync "sync"
	"sync/atomic"

	httpClient "github.com/iudanet/cartsync/internal/client/api"
	"github.com/iudanet/cartsync/internal/client/events"
	"github.com/iudanet/cartsync/internal/client/projector"
	"github.com/iudanet/cartsync/internal/client/recovery"
	"github.com/iudanet/cartsync/internal/models"
	"github.com/iudanet/cartsync/pkg/api"
)

// DefaultMaxOpRetries сколько раз одна операция повторяется после успешного
// восстановления, прежде чем проход остановится
const DefaultMaxOpRetries = 5

// Причины пропуска прохода
const (
	ReasonAlreadyDraining = "already draining"
	ReasonOffline         = "offline"
	ReasonNothingPending  = "nothing to sync"
)

// State состояние прохода
type State string

const (
	StateIdle      State = "IDLE"
	StateDraining  State = "DRAINING"
	StateCompleted State = "COMPLETED"
	StatePartial   State = "PARTIAL"
)

//go:generate moq -out cart_api_mock.go . CartAPI

// CartAPI изменяющие вызовы cart endpoint, которые нужны для воспроизведения
type CartAPI interface {
	AddItems(ctx context.Context, req api.AddRequest, opts ...httpClient.SendOption) (*api.Cart, error)
	ChangeItem(ctx context.Context, req api.ChangeRequest, opts ...httpClient.SendOption) (*api.Cart, error)
	ClearCart(ctx context.Context, opts ...httpClient.SendOption) (*api.Cart, error)
}

// OperationLog журнал, который проход заимствует на время работы
type OperationLog interface {
	ListPending(ctx context.Context) ([]*models.Operation, error)
	MarkSynced(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, cause error) error
}

// Recoverer решает, можно ли повторить операцию после ошибки
type Recoverer interface {
	Handle(ctx context.Context, err error, rc *recovery.Context) bool
}

// Connectivity сообщает, доступна ли сеть
type Connectivity interface {
	Online() bool
}

// Result итог одного прохода
type Result struct {
	Err       error     // Err ошибка операции, остановившей проход
	Cart      *api.Cart // Cart последний ответ сервера, nil если запросов не было
	State     State
	Reason    string // Reason причина пропуска
	FailedOp  string // FailedOp ID операции, остановившей проход
	Completed int
	Failed    int
	Skipped   bool
}

// SyncCompletePayload payload события cart:sync-complete
type SyncCompletePayload struct {
	State     State `json:"state"`
	Completed int   `json:"completed"`
	Failed    int   `json:"failed"`
}

// SyncStartPayload payload события cart:sync-start
type SyncStartPayload struct {
	Pending int `json:"pending"`
}

// Engine воспроизводит операции строго по порядку журнала.
// Одновременно выполняется не более одного прохода.
type Engine struct {
	client       CartAPI
	log          OperationLog
	recoverer    Recoverer
	online       Connectivity
	bus          events.Publisher
	locker       gosync.Locker
	logger       *slog.Logger
	state        State
	maxOpRetries int
	stateMu      gosync.Mutex
	draining     atomic.Bool
}

// Option настраивает Engine
type Option func(*Engine)

// WithMaxOpRetries задает предел повторов одной операции
func WithMaxOpRetries(n int) Option {
	return func(e *Engine) { e.maxOpRetries = n }
}

// WithLocker задает блокировку, которая удерживается на время прохода.
// Фасад передает сюда свой мьютекс, чтобы мутации не пересекались с проходом.
func WithLocker(l gosync.Locker) Option {
	return func(e *Engine) { e.locker = l }
}

// NewEngine создает Engine
func NewEngine(
	client CartAPI,
	log OperationLog,
	recoverer Recoverer,
	online Connectivity,
	bus events.Publisher,
	logger *slog.Logger,
	opts ...Option,
) *Engine {
	e := &Engine{
		client:       client,
		log:          log,
		recoverer:    recoverer,
		online:       online,
		bus:          bus,
		logger:       logger,
		state:        StateIdle,
		maxOpRetries: DefaultMaxOpRetries,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Draining сообщает, идет ли сейчас проход
func (e *Engine) Draining() bool {
	return e.draining.Load()
}

// State возвращает состояние последнего прохода
func (e *Engine) State() State {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.state
}

func (e *Engine) setState(s State) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	e.state = s
}

// Drain выполняет один проход по ожидающим операциям.
// Проход, начатый во время другого, сразу возвращает Skipped.
// Ошибка операции не является ошибкой Drain: она отражается в Result.
func (e *Engine) Drain(ctx context.Context) (*Result, error) {
	if !e.draining.CompareAndSwap(false, true) {
		e.logger.Debug("Drain skipped", "reason", ReasonAlreadyDraining)
		return &Result{State: e.State(), Skipped: true, Reason: ReasonAlreadyDraining}, nil
	}
	defer e.draining.Store(false)

	if e.locker != nil {
		e.locker.Lock()
		defer e.locker.Unlock()
	}

	if !e.online.Online() {
		e.logger.Debug("Drain skipped", "reason", ReasonOffline)
		return &Result{State: StateIdle, Skipped: true, Reason: ReasonOffline}, nil
	}

	pending, err := e.log.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending operations: %w", err)
	}
	if len(pending) == 0 {
		return &Result{State: StateIdle, Skipped: true, Reason: ReasonNothingPending}, nil
	}

	e.setState(StateDraining)
	e.logger.Info("Starting synchronization", "pending", len(pending))
	e.bus.Publish(events.SyncStart, SyncStartPayload{Pending: len(pending)})

	result := &Result{}
	keys := make(map[string]string)

	for _, op := range pending {
		cart, err := e.replay(ctx, op, keys)
		if cart != nil {
			result.Cart = cart
		}
		if err != nil {
			result.Failed++
			result.FailedOp = op.ID
			result.Err = err
			e.logger.Warn("Synchronization stopped",
				"op_id", op.ID, "kind", op.Kind, "remaining", len(pending)-result.Completed-1, "error", err)
			break
		}
		result.Completed++
	}

	result.State = StateCompleted
	if result.Failed > 0 {
		result.State = StatePartial
	}
	e.setState(result.State)

	e.logger.Info("Synchronization completed",
		"state", result.State, "completed", result.Completed, "failed", result.Failed)
	e.bus.Publish(events.SyncComplete, SyncCompletePayload{
		State:     result.State,
		Completed: result.Completed,
		Failed:    result.Failed,
	})

	return result, nil
}

// replay отправляет одну операцию, повторяя ее, пока recoverer разрешает
func (e *Engine) replay(ctx context.Context, op *models.Operation, keys map[string]string) (*api.Cart, error) {
	if op.SyncState == models.SyncSynced {
		return nil, nil
	}

	rc := &recovery.Context{
		Operation: "sync " + string(op.Kind),
		Payload:   op.Payload,
	}

	for attempt := 0; ; attempt++ {
		cart, err := e.send(ctx, op, rc.Payload, keys)
		if err == nil {
			if err := e.markSynced(ctx, op); err != nil {
				// Сервер операцию применил; журнал держит отметку в памяти
				e.logger.Warn("Failed to persist synced mark", "op_id", op.ID, "error", err)
			}
			e.logger.Debug("Operation synced", "op_id", op.ID, "kind", op.Kind, "attempt", attempt+1)
			return cart, nil
		}

		if mErr := e.log.MarkFailed(ctx, op.ID, err); mErr != nil {
			e.logger.Warn("Failed to mark operation failed", "op_id", op.ID, "error", mErr)
		}

		if ctx.Err() != nil || attempt >= e.maxOpRetries {
			return nil, err
		}

		rc.RetryCount = attempt
		if !e.recoverer.Handle(ctx, err, rc) {
			return nil, err
		}
		e.logger.Info("Retrying operation after recovery", "op_id", op.ID, "kind", op.Kind, "retry", attempt+1)
	}
}

// markSynced отмечает операцию; при ошибке хранилища один раз пробует
// восстановиться и повторить отметку
func (e *Engine) markSynced(ctx context.Context, op *models.Operation) error {
	err := e.log.MarkSynced(ctx, op.ID)
	if err == nil {
		return nil
	}
	rc := &recovery.Context{Operation: "mark synced"}
	if !e.recoverer.Handle(ctx, err, rc) {
		return err
	}
	return e.log.MarkSynced(ctx, op.ID)
}

// send переводит операцию в запрос к серверу
func (e *Engine) send(ctx context.Context, op *models.Operation, payload json.RawMessage, keys map[string]string) (*api.Cart, error) {
	view := &models.Operation{ID: op.ID, Kind: op.Kind, Payload: payload}

	switch op.Kind {
	case models.OpAddItem:
		p, err := view.DecodeAdd()
		if err != nil {
			return nil, &recovery.ValidationError{Field: "payload", Err: err}
		}
		if p.Item.ID == "" && p.Item.Key == "" {
			// payload-repair удалил товар целиком: отправлять нечего
			e.logger.Warn("Operation has no item left after repair", "op_id", op.ID)
			return nil, nil
		}
		cart, err := e.client.AddItems(ctx, api.AddRequest{Items: []api.AddItem{httpClient.ToAddItem(p.Item)}})
		if err != nil {
			return nil, err
		}
		if p.Item.Key == "" {
			if key := lineKeyFor(cart, &p.Item); key != "" {
				keys[projector.TempKey(op.ID)] = key
			}
		}
		return cart, nil

	case models.OpUpdateItem:
		p, err := view.DecodeUpdate()
		if err != nil {
			return nil, &recovery.ValidationError{Field: "payload", Err: err}
		}
		quantity := p.Quantity
		if quantity < 0 {
			quantity = 0
		}
		return e.client.ChangeItem(ctx, api.ChangeRequest{ID: resolve(p.Key, p.ItemID, keys), Quantity: quantity})

	case models.OpRemoveItem:
		p, err := view.DecodeRemove()
		if err != nil {
			return nil, &recovery.ValidationError{Field: "payload", Err: err}
		}
		return e.client.ChangeItem(ctx, api.ChangeRequest{ID: resolve(p.Key, p.ItemID, keys), Quantity: 0})

	case models.OpClearCart:
		return e.client.ClearCart(ctx)
	}

	return nil, &recovery.ValidationError{Field: "kind", Err: fmt.Errorf("%w: %q", projector.ErrUnknownKind, op.Kind)}
}

// resolve возвращает идентификатор строки, понятный серверу.
// Временный ключ заменяется серверным, полученным в этом проходе,
// иначе используется ID товара.
func resolve(key, itemID string, keys map[string]string) string {
	if !projector.IsTempKey(key) {
		return key
	}
	if serverKey, ok := keys[key]; ok {
		return serverKey
	}
	if itemID != "" {
		return itemID
	}
	return key
}

// lineKeyFor находит в ответе строку, в которую попал добавленный товар
func lineKeyFor(cart *api.Cart, item *models.CartItem) string {
	if cart == nil {
		return ""
	}
	for i := len(cart.Items) - 1; i >= 0; i-- {
		li := cart.Items[i]
		if li.ID != item.ID {
			continue
		}
		if len(li.Properties) != len(item.Properties) {
			continue
		}
		same := true
		for k, v := range item.Properties {
			if li.Properties[k] != v {
				same = false
				break
			}
		}
		if same {
			return li.Key
		}
	}
	return ""
}
