// Package connectivity tracks whether the remote cart endpoint is reachable.
package connectivity

import (
	"slices"
	"sync"

	"github.com/iudanet/cartsync/internal/client/events"
)

// Signal сообщает текущее состояние сети и переходы online/offline
type Signal interface {
	// Online возвращает текущее состояние
	Online() bool

	// Subscribe регистрирует fn, вызываемую при каждом переходе.
	// Подписка освобождается через Close у возвращенного handle
	Subscribe(fn func(online bool)) *events.Subscription
}

// notifier хранит состояние и рассылает только настоящие переходы
type notifier struct {
	subs   map[uint64]func(bool)
	next   uint64
	online bool
	mu     sync.Mutex
}

func newNotifier(online bool) *notifier {
	return &notifier{subs: make(map[uint64]func(bool)), online: online}
}

func (n *notifier) Online() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.online
}

func (n *notifier) Subscribe(fn func(online bool)) *events.Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.next++
	id := n.next
	n.subs[id] = fn
	return events.NewSubscription(func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	})
}

// set меняет состояние и возвращает true, если это был переход
func (n *notifier) set(online bool) bool {
	n.mu.Lock()
	if n.online == online {
		n.mu.Unlock()
		return false
	}
	n.online = online

	ids := make([]uint64, 0, len(n.subs))
	for id := range n.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(bool), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, n.subs[id])
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(online)
	}
	return true
}

func (n *notifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

// Manual сигнал, состояние которого задается вызывающим кодом.
// Используется CLI (флаг --offline) и тестами.
type Manual struct {
	*notifier
}

var _ Signal = (*Manual)(nil)

// NewManual создает сигнал с начальным состоянием online
func NewManual(online bool) *Manual {
	return &Manual{notifier: newNotifier(online)}
}

// Set меняет состояние; подписчики вызываются только при переходе
func (m *Manual) Set(online bool) {
	m.set(online)
}

// SubscriberCount возвращает число активных подписок
func (m *Manual) SubscriberCount() int {
	return m.count()
}
