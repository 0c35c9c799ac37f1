// Package events is an in-process notification bus. Publishing is
// fire-and-forget: the publisher never waits for or sees handler results.
package events

import (
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
)

// Имена событий корзины
const (
	ItemAdded    = "cart:item-added"
	ItemUpdated  = "cart:item-updated"
	ItemRemoved  = "cart:item-removed"
	Cleared      = "cart:cleared"
	Updated      = "cart:updated"
	SyncStart    = "cart:sync-start"
	SyncComplete = "cart:sync-complete"
	Error        = "cart:error"
	Offline      = "cart:offline"
	Online       = "cart:online"
)

//go:generate moq -out publisher_mock.go . Publisher

// Publisher публикует именованные события
type Publisher interface {
	Publish(name string, payload any)
}

// Event одно опубликованное событие
type Event struct {
	At      time.Time
	Payload any
	Name    string
}

// Handler обрабатывает событие
type Handler func(Event)

type subscriber struct {
	handler Handler
	pattern string
}

// Bus доставляет события подписчикам синхронно в порядке подписки.
// Паника обработчика логируется и не доходит до издателя.
type Bus struct {
	subs   map[uint64]subscriber
	logger *slog.Logger
	now    func() time.Time
	next   uint64
	mu     sync.RWMutex
}

var _ Publisher = (*Bus)(nil)

// NewBus создает пустую шину
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		subs:   make(map[uint64]subscriber),
		logger: logger,
		now:    time.Now,
	}
}

// Subscribe registers h for events matching pattern and returns the handle
// that releases the subscription. Pattern is an exact event name, a prefix
// ending with "*" (e.g. "cart:sync-*"), or "*" for every event.
func (b *Bus) Subscribe(pattern string, h Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.next++
	id := b.next
	b.subs[id] = subscriber{pattern: pattern, handler: h}
	return &Subscription{release: func() { b.unsubscribe(id) }}
}

func (b *Bus) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, id)
}

// Publish delivers the event to every matching subscriber.
func (b *Bus) Publish(name string, payload any) {
	ev := Event{Name: name, Payload: payload, At: b.now()}

	b.mu.RLock()
	ids := make([]uint64, 0, len(b.subs))
	for id, s := range b.subs {
		if match(s.pattern, name) {
			ids = append(ids, id)
		}
	}
	handlers := make([]Handler, 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		handlers = append(handlers, b.subs[id].handler)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		b.deliver(h, ev)
	}
}

func (b *Bus) deliver(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Event handler panicked", "event", ev.Name, "panic", r)
		}
	}()
	h(ev)
}

// SubscriberCount возвращает число активных подписок
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func match(pattern, name string) bool {
	switch {
	case pattern == "*":
		return true
	case strings.HasSuffix(pattern, "*"):
		return strings.HasPrefix(name, strings.TrimSuffix(pattern, "*"))
	default:
		return pattern == name
	}
}

// Subscription handle of a registered handler. Close releases it; calling
// Close more than once is safe.
type Subscription struct {
	release func()
	once    sync.Once
}

// NewSubscription wraps release into a handle. Used by other packages that
// hand out subscriptions of their own.
func NewSubscription(release func()) *Subscription {
	return &Subscription{release: release}
}

// Close releases the subscription
func (s *Subscription) Close() error {
	if s == nil {
		return nil
	}
	s.once.Do(func() {
		if s.release != nil {
			s.release()
		}
	})
	return nil
}
