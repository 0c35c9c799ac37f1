// Package recovery classifies failures and runs pluggable strategies that
// try to neutralize them.
package recovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/iudanet/cartsync/internal/models"
)

// DefaultTimeout ограничение на одно выполнение стратегии
const DefaultTimeout = 30 * time.Second

// errStrategyTimeout стратегия не уложилась в таймаут
var errStrategyTimeout = errors.New("strategy timed out")

// Context описывает обстоятельства ошибки.
// Стратегии могут менять Payload и Cart: вызывающий код использует
// исправленные данные при повторе. Engine передает стратегии копию и
// переносит изменения только от стратегии, которая восстановила ошибку.
type Context struct {
	Cart       *models.CartSnapshot // Cart данные корзины, приложенные к ошибке
	Operation  string               // Operation имя операции, например "sync ADD_ITEM"
	Payload    json.RawMessage      // Payload тело запроса в форме корзины
	RetryCount int                  // RetryCount сколько раз операция уже повторялась
}

// clone копирует контекст вместе с данными корзины и телом запроса
func (rc *Context) clone() *Context {
	out := *rc
	if rc.Cart != nil {
		cart := rc.Cart.Clone()
		out.Cart = &cart
	}
	if rc.Payload != nil {
		out.Payload = append(json.RawMessage(nil), rc.Payload...)
	}
	return &out
}

//go:generate moq -out strategy_mock.go . Strategy

// Strategy именованный обработчик одного класса ошибок
type Strategy interface {
	// Name возвращает имя стратегии для логов и журнала
	Name() string

	// CanHandle сообщает, применима ли стратегия к ошибке
	CanHandle(err error, rc *Context) bool

	// Execute пытается нейтрализовать ошибку. true означает, что
	// вызывающий код может повторить операцию
	Execute(ctx context.Context, err error, rc *Context) (bool, error)
}

// Engine перебирает стратегии в порядке регистрации.
// Handle никогда не возвращает ошибку и не паникует.
type Engine struct {
	errlog     *ErrorLog
	logger     *slog.Logger
	now        func() time.Time
	strategies []Strategy
	timeout    time.Duration
	mu         sync.RWMutex
}

// Option настраивает Engine
type Option func(*Engine)

// WithTimeout задает таймаут одной стратегии
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithErrorLog задает журнал, в который записывается каждая ошибка
func WithErrorLog(l *ErrorLog) Option {
	return func(e *Engine) { e.errlog = l }
}

// WithNow подменяет источник времени записей журнала
func WithNow(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine создает движок со стратегиями strategies
func NewEngine(logger *slog.Logger, strategies []Strategy, opts ...Option) *Engine {
	e := &Engine{
		logger:     logger,
		strategies: append([]Strategy(nil), strategies...),
		timeout:    DefaultTimeout,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register добавляет стратегию в конец списка
func (e *Engine) Register(s Strategy) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.strategies = append(e.strategies, s)
}

// Handle пытается восстановиться после err, записывает исход в журнал
// ошибок и сообщает, удалось ли.
func (e *Engine) Handle(ctx context.Context, err error, rc *Context) bool {
	if err == nil {
		return true
	}
	if rc == nil {
		rc = &Context{}
	}

	recovered, used := e.Recover(ctx, err, rc)
	e.record(ctx, err, rc, Classify(err), recovered, used)
	return recovered
}

// Recover перебирает стратегии, но не пишет в журнал ошибок. Возвращает
// исход и имя сработавшей стратегии. Вызывающий код, которому нужно
// повторить запись в то же хранилище до фиксации исхода, записывает его
// сам через RecordOutcome.
// Каждая стратегия работает с копией rc; изменения переносятся в rc только
// после успешного восстановления.
func (e *Engine) Recover(ctx context.Context, err error, rc *Context) (bool, string) {
	if err == nil {
		return true, ""
	}
	if rc == nil {
		rc = &Context{}
	}

	e.mu.RLock()
	strategies := append([]Strategy(nil), e.strategies...)
	e.mu.RUnlock()

	category := Classify(err)
	for _, s := range strategies {
		if !e.canHandle(s, err, rc) {
			continue
		}

		attempt := rc.clone()
		ok, execErr := e.run(ctx, s, err, attempt)
		if execErr != nil {
			e.logger.Warn("Recovery strategy failed",
				"strategy", s.Name(), "category", category, "error", execErr)
			continue
		}
		if ok {
			*rc = *attempt
			return true, s.Name()
		}
		e.logger.Debug("Recovery strategy did not recover", "strategy", s.Name(), "category", category)
	}
	return false, ""
}

// Record заносит ошибку в журнал без запуска стратегий. Используется для
// ошибок, которые не восстанавливаются по определению.
func (e *Engine) Record(ctx context.Context, err error, rc *Context) {
	e.RecordOutcome(ctx, err, rc, false, "")
}

// RecordOutcome заносит в журнал ошибку с уже известным исходом
func (e *Engine) RecordOutcome(ctx context.Context, err error, rc *Context, recovered bool, strategy string) {
	if err == nil {
		return
	}
	if rc == nil {
		rc = &Context{}
	}
	e.record(ctx, err, rc, Classify(err), recovered, strategy)
}

func (e *Engine) record(ctx context.Context, err error, rc *Context, category Category, recovered bool, strategy string) {
	severity := SeverityOf(category)
	if recovered && severity > SeverityLow {
		severity--
	}

	e.logger.Info("Error handled",
		"category", category, "severity", severity, "recovered", recovered,
		"strategy", strategy, "operation", rc.Operation, "error", err)

	if e.errlog == nil {
		return
	}
	e.errlog.Add(context.WithoutCancel(ctx), Entry{
		At:        e.now(),
		Category:  category,
		Severity:  severity,
		Message:   err.Error(),
		Operation: rc.Operation,
		Strategy:  strategy,
		Recovered: recovered,
	})
}

// ErrorLog возвращает журнал ошибок или nil
func (e *Engine) ErrorLog() *ErrorLog {
	return e.errlog
}

func (e *Engine) canHandle(s Strategy, err error, rc *Context) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Recovery strategy panicked in CanHandle", "strategy", s.Name(), "panic", r)
			ok = false
		}
	}()
	return s.CanHandle(err, rc)
}

type runResult struct {
	err error
	ok  bool
}

// run выполняет стратегию с таймаутом. Стратегия, проигнорировавшая
// отмену контекста, считается неуспешной по истечении таймаута.
func (e *Engine) run(ctx context.Context, s Strategy, err error, rc *Context) (bool, error) {
	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	done := make(chan runResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- runResult{err: fmt.Errorf("strategy panicked: %v", r)}
			}
		}()
		ok, execErr := s.Execute(runCtx, err, rc)
		done <- runResult{ok: ok, err: execErr}
	}()

	select {
	case res := <-done:
		return res.ok, res.err
	case <-runCtx.Done():
		return false, fmt.Errorf("%w after %s: %v", errStrategyTimeout, e.timeout, runCtx.Err())
	}
}
