// Package cart is the entry point of the client: it routes cart mutations to
// the server when it is reachable and into the operation log when it is not,
// keeps the snapshot current and reports what happened on the event bus.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	httpClient "github.com/iudanet/cartsync/internal/client/api"
	"github.com/iudanet/cartsync/internal/client/connectivity"
	"github.com/iudanet/cartsync/internal/client/csrf"
	"github.com/iudanet/cartsync/internal/client/events"
	"github.com/iudanet/cartsync/internal/client/oplog"
	"github.com/iudanet/cartsync/internal/client/recovery"
	"github.com/iudanet/cartsync/internal/client/snapshot"
	"github.com/iudanet/cartsync/internal/client/storage"
	syncengine "github.com/iudanet/cartsync/internal/client/sync"
	"github.com/iudanet/cartsync/internal/models"
	"github.com/iudanet/cartsync/pkg/api"
)

// CartClient вызовы cart endpoint, которые использует фасад
type CartClient interface {
	syncengine.CartAPI
	GetCart(ctx context.Context, opts ...httpClient.SendOption) (*api.Cart, error)
}

var _ CartClient = (*httpClient.Client)(nil)

// TokenHolder клиент, который хранит токен корзины между запросами.
// Start восстанавливает в нем токен из сохраненного снимка.
type TokenHolder interface {
	CartToken() string
	SetCartToken(token string)
}

var _ TokenHolder = (*httpClient.Client)(nil)

// Config параметры фасада
type Config struct {
	Retention       time.Duration // Retention сколько хранить синхронизированные операции
	ReclaimHorizon  time.Duration // ReclaimHorizon ключи старше удаляются при переполнении хранилища
	RetryBaseDelay  time.Duration // RetryBaseDelay базовая пауза network-retry
	StrategyTimeout time.Duration
	RetryMaxRetries int // RetryMaxRetries сколько раз network-retry разрешает повтор операции
	MaxOpRetries    int
	ErrorLogSize    int
	AutoSync        bool // AutoSync запускать синхронизацию при восстановлении сети
}

// DefaultConfig возвращает настройки по умолчанию
func DefaultConfig() Config {
	return Config{
		Retention:       oplog.DefaultRetention,
		ReclaimHorizon:  24 * time.Hour,
		RetryBaseDelay:  httpClient.DefaultBaseDelay,
		StrategyTimeout: recovery.DefaultTimeout,
		RetryMaxRetries: httpClient.DefaultMaxRetries,
		MaxOpRetries:    syncengine.DefaultMaxOpRetries,
		ErrorLogSize:    recovery.DefaultErrorLogSize,
		AutoSync:        true,
	}
}

// Deps внешние зависимости фасада.
// Client, Storage и Signal обязательны.
type Deps struct {
	Client  CartClient
	Storage storage.KV
	Signal  connectivity.Signal
	Bus     events.Publisher   // Bus по умолчанию шина без подписчиков
	CSRF    csrf.TokenProvider // CSRF сбрасывается после отказа по безопасности
	Logger  *slog.Logger
	Now     func() time.Time
	Sleep   recovery.Sleeper // Sleep подменяет ожидание network-retry
}

// Cart фасад корзины. Мутации, идущие на сервер, выполняются строго по
// одной; синхронизация удерживает ту же блокировку на время прохода.
// Мутации, которые ставятся в журнал, и чтение во время прохода ее не
// ждут: журнал и проекция защищены viewMu.
type Cart struct {
	client   CartClient
	signal   connectivity.Signal
	bus      events.Publisher
	csrf     csrf.TokenProvider
	log      *oplog.Log
	store    *snapshot.Store
	recovery *recovery.Engine
	engine   *syncengine.Engine
	logger   *slog.Logger
	now      func() time.Time
	lastErr  *ErrorInfo
	sub      *events.Subscription
	runCtx   context.Context
	cancel   context.CancelFunc
	cfg      Config
	wg       sync.WaitGroup
	mu       sync.Mutex // mu сериализует мутации и проход синхронизации
	viewMu   sync.Mutex // viewMu связывает запись в журнал с обновлением проекции
	errMu    sync.RWMutex
	life     sync.Mutex
	started  bool
	closed   bool
}

// New собирает фасад и все внутренние компоненты поверх deps.
// Перед использованием нужно вызвать Start.
func New(deps Deps, cfg Config) (*Cart, error) {
	switch {
	case deps.Client == nil:
		return nil, fmt.Errorf("%w: client", ErrMissingDependency)
	case deps.Storage == nil:
		return nil, fmt.Errorf("%w: storage", ErrMissingDependency)
	case deps.Signal == nil:
		return nil, fmt.Errorf("%w: connectivity signal", ErrMissingDependency)
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	bus := deps.Bus
	if bus == nil {
		bus = events.NewBus(logger)
	}

	c := &Cart{
		client: deps.Client,
		signal: deps.Signal,
		bus:    bus,
		csrf:   deps.CSRF,
		logger: logger,
		now:    now,
		cfg:    cfg,
	}

	c.log = oplog.New(deps.Storage, logger, oplog.WithNow(now))
	c.store = snapshot.New(deps.Storage, logger)

	network := recovery.NewNetworkRetryStrategy(cfg.RetryBaseDelay, cfg.RetryMaxRetries)
	if deps.Sleep != nil {
		network.WithSleeper(deps.Sleep)
	}
	inspector, _ := deps.Storage.(storage.Inspector)
	reclaim := recovery.NewStorageReclaimStrategy(
		deps.Storage,
		inspector,
		cfg.ReclaimHorizon,
		[]recovery.Compactor{c.log},
		[]string{oplog.StorageKey, snapshot.StorageKey},
		logger,
	)

	recOpts := []recovery.Option{
		recovery.WithErrorLog(recovery.NewErrorLog(deps.Storage, cfg.ErrorLogSize, logger)),
		recovery.WithNow(now),
	}
	if cfg.StrategyTimeout > 0 {
		recOpts = append(recOpts, recovery.WithTimeout(cfg.StrategyTimeout))
	}
	c.recovery = recovery.NewEngine(logger, recovery.DefaultStrategies(network, reclaim), recOpts...)

	engineOpts := []syncengine.Option{syncengine.WithLocker(&c.mu)}
	if cfg.MaxOpRetries > 0 {
		engineOpts = append(engineOpts, syncengine.WithMaxOpRetries(cfg.MaxOpRetries))
	}
	c.engine = syncengine.NewEngine(deps.Client, c.log, c.recovery, deps.Signal, bus, logger, engineOpts...)

	return c, nil
}

// Start загружает журнал и снимок, удаляет устаревшие операции и
// подписывается на изменения сети. Повторный вызов ничего не делает.
func (c *Cart) Start(ctx context.Context) error {
	c.life.Lock()
	defer c.life.Unlock()

	if c.closed {
		return errors.New("cart is closed")
	}
	if c.started {
		return nil
	}

	if err := c.log.Load(ctx); err != nil {
		return fmt.Errorf("failed to load operation log: %w", err)
	}

	if err := c.store.Load(ctx); err != nil {
		if !errors.Is(err, snapshot.ErrCorruptSnapshot) {
			return fmt.Errorf("failed to load snapshot: %w", err)
		}
		c.logger.Warn("Discarding corrupt snapshot", "error", err)
		c.recovery.Record(ctx, err, &recovery.Context{Operation: "start"})
		if err := c.store.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear corrupt snapshot: %w", err)
		}
	}

	if holder, ok := c.client.(TokenHolder); ok && holder.CartToken() == "" {
		if token := c.store.Current().Token; token != "" {
			holder.SetCartToken(token)
		}
	}

	if removed, err := c.log.PurgeOlderThan(ctx, c.cfg.Retention); err != nil {
		c.logger.Warn("Failed to purge synced operations", "error", err)
	} else if removed > 0 {
		c.logger.Info("Synced operations purged", "removed", removed)
	}

	pending, err := c.log.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pending operations: %w", err)
	}
	if len(pending) > 0 {
		if _, err := c.store.Rebuild(ctx, pending); err != nil {
			c.logger.Warn("Failed to rebuild local projection", "error", err)
		}
	}

	c.runCtx, c.cancel = context.WithCancel(context.WithoutCancel(ctx))
	c.sub = c.signal.Subscribe(c.onConnectivity)
	c.started = true

	c.logger.Info("Cart started", "pending", len(pending), "online", c.signal.Online())

	if c.cfg.AutoSync && len(pending) > 0 && c.signal.Online() {
		c.triggerSyncLocked()
	}
	return nil
}

// Close освобождает подписку на сеть и дожидается фоновой синхронизации
func (c *Cart) Close() error {
	c.life.Lock()
	if c.closed {
		c.life.Unlock()
		return nil
	}
	c.closed = true
	sub, cancel := c.sub, c.cancel
	c.life.Unlock()

	_ = sub.Close()
	if cancel != nil {
		cancel()
	}
	c.wg.Wait()

	c.logger.Info("Cart closed")
	return nil
}

func (c *Cart) onConnectivity(online bool) {
	if !online {
		c.logger.Info("Connection lost")
		c.bus.Publish(events.Offline, nil)
		return
	}

	c.logger.Info("Connection restored")
	c.bus.Publish(events.Online, nil)
	if c.cfg.AutoSync {
		c.triggerSync()
	}
}

func (c *Cart) triggerSync() {
	c.life.Lock()
	defer c.life.Unlock()
	c.triggerSyncLocked()
}

// triggerSyncLocked запускает фоновую синхронизацию. Вызывается под c.life.
func (c *Cart) triggerSyncLocked() {
	if c.closed || c.runCtx == nil {
		return
	}
	c.wg.Add(1)
	go func(ctx context.Context) {
		defer c.wg.Done()
		if _, err := c.SyncNow(ctx); err != nil {
			c.logger.Warn("Background sync failed", "error", err)
		}
	}(c.runCtx)
}

// GetCart возвращает корзину. Пока в журнале есть неотправленные операции,
// сеть недоступна или идет синхронизация, возвращается локальная проекция;
// иначе снимок обновляется с сервера.
func (c *Cart) GetCart(ctx context.Context) (models.CartSnapshot, error) {
	if c.engine.Draining() {
		return c.store.Current(), nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.signal.Online() {
		return c.store.Current(), nil
	}
	pending, err := c.log.PendingCount(ctx)
	if err != nil {
		c.report(ctx, err, "get cart")
		return c.store.Current(), nil
	}
	if pending > 0 {
		return c.store.Current(), nil
	}

	remote, err := c.client.GetCart(ctx)
	if err != nil {
		return c.store.Current(), c.handleRemoteError(ctx, err, "get cart")
	}

	snap := httpClient.ToSnapshot(remote, c.now())
	if local, ok := c.adoptServer(ctx, "get cart", snap); ok {
		return local, nil
	}
	return snap, nil
}

// adoptServer сохраняет серверный снимок и накладывает на него операции,
// которые еще ждут отправки. Возвращает новую проекцию и false, если ее
// не удалось сохранить.
func (c *Cart) adoptServer(ctx context.Context, operation string, snap models.CartSnapshot) (models.CartSnapshot, bool) {
	c.viewMu.Lock()
	defer c.viewMu.Unlock()

	pending, err := c.log.ListPending(ctx)
	if err != nil {
		c.report(ctx, err, operation)
		return c.store.Current(), false
	}

	var local models.CartSnapshot
	ok := c.persist(ctx, operation, func(ctx context.Context) error {
		var err error
		local, err = c.store.Reconcile(ctx, snap, pending)
		return err
	})
	if !ok {
		return c.store.Current(), false
	}
	return local, true
}

// PendingCount возвращает число операций, ожидающих отправки
func (c *Cart) PendingCount(ctx context.Context) (int, error) {
	return c.log.PendingCount(ctx)
}

// Operations возвращает весь журнал операций, включая синхронизированные
func (c *Cart) Operations(ctx context.Context) ([]*models.Operation, error) {
	return c.log.All(ctx)
}

// LastError возвращает последнюю показанную ошибку или nil
func (c *Cart) LastError() *ErrorInfo {
	c.errMu.RLock()
	defer c.errMu.RUnlock()
	if c.lastErr == nil {
		return nil
	}
	info := *c.lastErr
	return &info
}

// Errors возвращает журнал ошибок от старых к новым
func (c *Cart) Errors(ctx context.Context) []recovery.Entry {
	if l := c.recovery.ErrorLog(); l != nil {
		return l.Entries(ctx)
	}
	return nil
}

// ErrorStats возвращает долю восстановленных ошибок по категориям
func (c *Cart) ErrorStats(ctx context.Context) map[recovery.Category]recovery.CategoryStats {
	if l := c.recovery.ErrorLog(); l != nil {
		return l.Stats(ctx)
	}
	return nil
}

// ClearErrors очищает журнал ошибок и последнюю ошибку
func (c *Cart) ClearErrors(ctx context.Context) error {
	c.errMu.Lock()
	c.lastErr = nil
	c.errMu.Unlock()

	if l := c.recovery.ErrorLog(); l != nil {
		return l.Clear(ctx)
	}
	return nil
}

// Online сообщает, считается ли сервер доступным
func (c *Cart) Online() bool {
	return c.signal.Online()
}

// SyncState возвращает состояние последнего прохода синхронизации
func (c *Cart) SyncState() syncengine.State {
	return c.engine.State()
}
