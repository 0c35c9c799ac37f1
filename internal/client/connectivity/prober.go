package connectivity

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultProbeInterval период опроса по умолчанию
const DefaultProbeInterval = 15 * time.Second

// HealthFunc проверяет доступность сервера; nil означает online
type HealthFunc func(ctx context.Context) error

// Prober опрашивает HealthFunc с интервалом и переключает состояние.
// Начальное состояние online, пока первая проверка не покажет обратное.
type Prober struct {
	*notifier
	check    HealthFunc
	logger   *slog.Logger
	cancel   context.CancelFunc
	interval time.Duration
	wg       sync.WaitGroup
	mu       sync.Mutex
}

var _ Signal = (*Prober)(nil)

// NewProber создает Prober; interval <= 0 означает DefaultProbeInterval
func NewProber(check HealthFunc, interval time.Duration, logger *slog.Logger) *Prober {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	return &Prober{
		notifier: newNotifier(true),
		check:    check,
		interval: interval,
		logger:   logger,
	}
}

// Probe выполняет одну проверку и возвращает новое состояние
func (p *Prober) Probe(ctx context.Context) bool {
	err := p.check(ctx)
	if ctx.Err() != nil {
		// остановка не означает потерю сети
		return p.Online()
	}
	online := err == nil
	if p.set(online) {
		if online {
			p.logger.Info("Server is reachable again")
		} else {
			p.logger.Warn("Server is unreachable", "error", err)
		}
	}
	return online
}

// Start запускает фоновый опрос. Повторный вызов без Stop ничего не делает.
func (p *Prober) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.run(ctx)
	}()
}

func (p *Prober) run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Probe(ctx)
		}
	}
}

// Stop останавливает опрос и ждет завершения горутины
func (p *Prober) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
}
