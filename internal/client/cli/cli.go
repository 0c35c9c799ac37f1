// Package cli implements the cartsync command line on top of the cart facade.
package cli

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/iudanet/cartsync/internal/client/cart"
	"github.com/iudanet/cartsync/internal/client/events"
	"github.com/iudanet/cartsync/internal/client/iocli"
	"github.com/iudanet/cartsync/internal/client/recovery"
	syncengine "github.com/iudanet/cartsync/internal/client/sync"
	"github.com/iudanet/cartsync/internal/config"
	"github.com/iudanet/cartsync/internal/models"
)

//go:generate moq -out service_mock.go . Service

// Service операции корзины, доступные из командной строки
type Service interface {
	AddItem(ctx context.Context, item models.CartItem) (models.CartSnapshot, error)
	UpdateItemQuantity(ctx context.Context, key string, quantity int) (models.CartSnapshot, error)
	RemoveItem(ctx context.Context, key string) (models.CartSnapshot, error)
	ClearCart(ctx context.Context) (models.CartSnapshot, error)
	GetCart(ctx context.Context) (models.CartSnapshot, error)
	SyncNow(ctx context.Context) (*syncengine.Result, error)
	PendingCount(ctx context.Context) (int, error)
	Operations(ctx context.Context) ([]*models.Operation, error)
	LastError() *cart.ErrorInfo
	Errors(ctx context.Context) []recovery.Entry
	ErrorStats(ctx context.Context) map[recovery.Category]recovery.CategoryStats
	ClearErrors(ctx context.Context) error
	Online() bool
	SyncState() syncengine.State
}

var _ Service = (*cart.Cart)(nil)

// Subscriber источник событий корзины
type Subscriber interface {
	Subscribe(pattern string, h events.Handler) *events.Subscription
}

// ErrReported команда не выполнена, причина уже показана пользователю
var ErrReported = errors.New("operation failed")

// Session корзина, открытая на время одной команды
type Session struct {
	Service Service
	Events  Subscriber   // Events nil, если события не нужны
	Close   func() error // Close освобождает хранилище и сетевые ресурсы
}

// Opener открывает корзину по итоговой конфигурации
type Opener func(ctx context.Context, cfg config.Config) (*Session, error)

type Cli struct {
	io       iocli.IO
	svc      Service
	open     Opener
	session  *Session
	sub      *events.Subscription
	styles   styles
	flags    globalFlags
	failures atomic.Int32
	watching bool
}

// New создает CLI. Корзина открывается через open перед первой командой.
func New(io iocli.IO, open Opener) *Cli {
	return &Cli{io: io, open: open, styles: newStyles(io)}
}

// Close закрывает открытую сессию
func (c *Cli) Close() error {
	if c.sub != nil {
		_ = c.sub.Close()
		c.sub = nil
	}
	if c.session == nil || c.session.Close == nil {
		return nil
	}
	s := c.session
	c.session = nil
	return s.Close()
}

// connect загружает конфигурацию и открывает корзину, если она еще не открыта
func (c *Cli) connect(ctx context.Context, cfg config.Config) error {
	if c.svc != nil {
		return nil
	}
	if c.open == nil {
		return errors.New("cart is not configured")
	}

	s, err := c.open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open cart: %w", err)
	}
	c.session = s
	c.svc = s.Service
	if s.Events != nil {
		c.watch(s.Events)
	}
	return nil
}

// watch печатает ошибки корзины по мере их появления, в том числе
// из фоновой синхронизации
func (c *Cli) watch(sub Subscriber) {
	c.sub = sub.Subscribe(events.Error, c.onError)
	c.watching = true
}

func (c *Cli) onError(ev events.Event) {
	info, ok := ev.Payload.(cart.ErrorInfo)
	if !ok {
		return
	}
	c.failures.Add(1)
	c.notice(info)
}

// finish превращает итог команды в код возврата. Ошибки, показанные через
// события, не печатаются второй раз.
func (c *Cli) finish(err error) error {
	if !c.watching {
		if info := c.svc.LastError(); info != nil {
			c.failures.Add(1)
			c.notice(*info)
		}
	}

	if c.failures.Load() == 0 {
		return err
	}
	var secErr *cart.SecurityError
	if err == nil || errors.As(err, &secErr) {
		return ErrReported
	}
	return err
}
