package recovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/iudanet/cartsync/internal/client/storage"
)

// ErrorLogKey ключ, под которым хранится журнал ошибок
const ErrorLogKey = storage.KeyPrefix + "errorlog"

// DefaultErrorLogSize емкость журнала ошибок
const DefaultErrorLogSize = 50

// Entry запись журнала ошибок
type Entry struct {
	At        time.Time `json:"at"`
	Category  Category  `json:"category"`
	Message   string    `json:"message"`
	Operation string    `json:"operation,omitempty"`
	Strategy  string    `json:"strategy,omitempty"`
	Severity  Severity  `json:"severity"`
	Recovered bool      `json:"recovered"`
}

// CategoryStats статистика по категории
type CategoryStats struct {
	Total     int     `json:"total"`
	Recovered int     `json:"recovered"`
	Rate      float64 `json:"rate"` // Rate доля восстановленных, 0 если ошибок не было
}

// ErrorLog кольцевой журнал последних ошибок с сохранением в storage.KV.
// Ошибки записи логируются и не возвращаются: журнал диагностический
// и не должен мешать основной работе.
type ErrorLog struct {
	kv      storage.KV
	logger  *slog.Logger
	entries []Entry
	size    int
	loaded  bool
	mu      sync.Mutex
}

// NewErrorLog создает журнал емкостью size (<= 0 означает DefaultErrorLogSize)
func NewErrorLog(kv storage.KV, size int, logger *slog.Logger) *ErrorLog {
	if size <= 0 {
		size = DefaultErrorLogSize
	}
	return &ErrorLog{kv: kv, size: size, logger: logger}
}

func (l *ErrorLog) ensureLoaded(ctx context.Context) {
	if l.loaded {
		return
	}
	l.loaded = true

	data, err := l.kv.Get(ctx, ErrorLogKey)
	if err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			l.logger.Warn("Failed to load error log", "error", err)
		}
		return
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		l.logger.Warn("Discarding corrupt error log", "error", err)
		return
	}
	if len(entries) > l.size {
		entries = entries[len(entries)-l.size:]
	}
	l.entries = entries
}

// Add добавляет запись, вытесняя самую старую при переполнении
func (l *ErrorLog) Add(ctx context.Context, e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ensureLoaded(ctx)

	l.entries = append(l.entries, e)
	if len(l.entries) > l.size {
		l.entries = append([]Entry(nil), l.entries[len(l.entries)-l.size:]...)
	}

	data, err := json.Marshal(l.entries)
	if err != nil {
		l.logger.Warn("Failed to marshal error log", "error", err)
		return
	}
	if err := l.kv.Set(ctx, ErrorLogKey, data); err != nil {
		l.logger.Warn("Failed to persist error log", "error", err)
	}
}

// Entries возвращает записи от старых к новым
func (l *ErrorLog) Entries(ctx context.Context) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ensureLoaded(ctx)
	return append([]Entry(nil), l.entries...)
}

// Last возвращает последнюю запись или nil
func (l *ErrorLog) Last(ctx context.Context) *Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ensureLoaded(ctx)
	if len(l.entries) == 0 {
		return nil
	}
	e := l.entries[len(l.entries)-1]
	return &e
}

// Stats возвращает долю восстановленных ошибок по категориям
func (l *ErrorLog) Stats(ctx context.Context) map[Category]CategoryStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ensureLoaded(ctx)

	out := make(map[Category]CategoryStats)
	for _, e := range l.entries {
		s := out[e.Category]
		s.Total++
		if e.Recovered {
			s.Recovered++
		}
		out[e.Category] = s
	}
	for c, s := range out {
		s.Rate = float64(s.Recovered) / float64(s.Total)
		out[c] = s
	}
	return out
}

// Clear удаляет все записи
func (l *ErrorLog) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.kv.Remove(ctx, ErrorLogKey); err != nil {
		return fmt.Errorf("failed to remove error log: %w", err)
	}
	l.entries = nil
	l.loaded = true
	return nil
}
