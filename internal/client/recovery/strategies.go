package recovery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/iudanet/cartsync/internal/client/storage"
	"github.com/iudanet/cartsync/internal/models"
)

// Sleeper ждет d или отмены ctx
type Sleeper func(ctx context.Context, d time.Duration) error

// NetworkRetryStrategy выжидает экспоненциальную паузу и разрешает повтор,
// пока RetryCount меньше MaxRetries. Сам запрос не повторяет.
type NetworkRetryStrategy struct {
	sleep      Sleeper
	baseDelay  time.Duration
	maxRetries int
}

// NewNetworkRetryStrategy создает стратегию сетевых повторов
func NewNetworkRetryStrategy(baseDelay time.Duration, maxRetries int) *NetworkRetryStrategy {
	return &NetworkRetryStrategy{
		baseDelay:  baseDelay,
		maxRetries: maxRetries,
		sleep:      sleepContext,
	}
}

// WithSleeper подменяет ожидание. Используется в тестах.
func (s *NetworkRetryStrategy) WithSleeper(sleep Sleeper) *NetworkRetryStrategy {
	s.sleep = sleep
	return s
}

func (s *NetworkRetryStrategy) Name() string { return "network-retry" }

func (s *NetworkRetryStrategy) CanHandle(err error, rc *Context) bool {
	return Classify(err) == CategoryNetwork && rc.RetryCount < s.maxRetries
}

func (s *NetworkRetryStrategy) Execute(ctx context.Context, _ error, rc *Context) (bool, error) {
	if err := s.sleep(ctx, s.Delay(rc.RetryCount)); err != nil {
		return false, err
	}
	return true, nil
}

// Delay возвращает паузу перед повтором номер retryCount+1: base*2^retryCount
// с разбросом 20%.
func (s *NetworkRetryStrategy) Delay(retryCount int) time.Duration {
	b := retry.WithJitterPercent(20, retry.NewExponential(s.baseDelay))
	var d time.Duration
	for i := 0; i <= retryCount; i++ {
		d, _ = b.Next()
	}
	return d
}

// Compactor освобождает место, удаляя данные, которые больше не нужны
type Compactor interface {
	Compact(ctx context.Context) (int64, error)
}

// StorageReclaimStrategy освобождает место при переполнении хранилища:
// уплотняет журнал операций и удаляет собственные ключи старше горизонта.
// Ключи из protected не удаляются никогда.
type StorageReclaimStrategy struct {
	kv         storage.KV
	inspector  storage.Inspector
	compactors []Compactor
	protected  map[string]struct{}
	logger     *slog.Logger
	now        func() time.Time
	horizon    time.Duration
}

// NewStorageReclaimStrategy создает стратегию. inspector может быть nil:
// тогда удаление по возрасту не выполняется.
func NewStorageReclaimStrategy(
	kv storage.KV,
	inspector storage.Inspector,
	horizon time.Duration,
	compactors []Compactor,
	protected []string,
	logger *slog.Logger,
) *StorageReclaimStrategy {
	p := make(map[string]struct{}, len(protected))
	for _, k := range protected {
		p[k] = struct{}{}
	}
	return &StorageReclaimStrategy{
		kv:         kv,
		inspector:  inspector,
		horizon:    horizon,
		compactors: compactors,
		protected:  p,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *StorageReclaimStrategy) Name() string { return "storage-reclaim" }

func (s *StorageReclaimStrategy) CanHandle(err error, _ *Context) bool {
	return errors.Is(err, storage.ErrQuotaExceeded)
}

func (s *StorageReclaimStrategy) Execute(ctx context.Context, _ error, _ *Context) (bool, error) {
	var freed int64

	for _, c := range s.compactors {
		n, err := c.Compact(ctx)
		if err != nil {
			s.logger.Warn("Compaction failed during reclaim", "error", err)
			continue
		}
		freed += n
	}

	if s.inspector != nil {
		n, err := s.removeStale(ctx)
		if err != nil {
			return freed > 0, err
		}
		freed += n
	}

	s.logger.Info("Storage reclaim finished", "freed_bytes", freed)
	return freed > 0, nil
}

func (s *StorageReclaimStrategy) removeStale(ctx context.Context) (int64, error) {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list keys: %w", err)
	}

	cutoff := s.now().Add(-s.horizon)
	var freed int64
	for _, key := range keys {
		if !storage.OwnKey(key) {
			continue
		}
		if _, ok := s.protected[key]; ok {
			continue
		}
		info, err := s.inspector.Stat(ctx, key)
		if err != nil {
			continue
		}
		if !info.ModTime.Before(cutoff) {
			continue
		}
		if err := s.kv.Remove(ctx, key); err != nil {
			s.logger.Warn("Failed to remove stale key", "key", key, "error", err)
			continue
		}
		s.logger.Debug("Stale key removed", "key", key, "size", info.Size)
		freed += info.Size
	}
	return freed, nil
}

// PayloadRepairStrategy удаляет из приложенных данных корзины строки без
// идентификатора и строки с неположительным или нечисловым количеством.
type PayloadRepairStrategy struct{}

func (PayloadRepairStrategy) Name() string { return "payload-repair" }

func (PayloadRepairStrategy) CanHandle(err error, rc *Context) bool {
	return Classify(err) == CategoryValidation && (rc.Cart != nil || len(rc.Payload) > 0)
}

func (PayloadRepairStrategy) Execute(_ context.Context, _ error, rc *Context) (bool, error) {
	mutated := false

	if rc.Cart != nil {
		kept := make([]models.CartItem, 0, len(rc.Cart.Items))
		for _, it := range rc.Cart.Items {
			if it.Quantity < 1 || (it.ID == "" && it.Key == "") {
				mutated = true
				continue
			}
			kept = append(kept, it)
		}
		if mutated {
			rc.Cart.Items = kept
			rc.Cart.Recalculate()
		}
	}

	if len(rc.Payload) > 0 {
		repaired, changed, err := repairPayload(rc.Payload)
		if err != nil {
			return mutated, err
		}
		if changed {
			rc.Payload = repaired
			mutated = true
		}
	}

	return mutated, nil
}

// repairPayload чинит JSON вида {"items":[...]} и {"item":{...}}
func repairPayload(raw json.RawMessage) (json.RawMessage, bool, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, false, fmt.Errorf("payload is not a json object: %w", err)
	}

	changed := false
	if items, ok := doc["items"].([]any); ok {
		kept := make([]any, 0, len(items))
		for _, it := range items {
			if validItem(it) {
				kept = append(kept, it)
			}
		}
		if len(kept) != len(items) {
			doc["items"] = kept
			changed = true
		}
	}
	if it, ok := doc["item"]; ok && !validItem(it) {
		delete(doc, "item")
		changed = true
	}

	if !changed {
		return raw, false, nil
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal repaired payload: %w", err)
	}
	return out, true, nil
}

func validItem(v any) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}
	id, _ := m["id"].(string)
	key, _ := m["key"].(string)
	if id == "" && key == "" {
		return false
	}
	q, ok := m["quantity"].(json.Number)
	if !ok {
		return false
	}
	n, err := q.Int64()
	return err == nil && n > 0
}

// DefaultStrategies возвращает встроенные стратегии в рекомендуемом порядке
func DefaultStrategies(network *NetworkRetryStrategy, reclaim *StorageReclaimStrategy) []Strategy {
	out := make([]Strategy, 0, 3)
	if network != nil {
		out = append(out, network)
	}
	if reclaim != nil {
		out = append(out, reclaim)
	}
	return append(out, PayloadRepairStrategy{})
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
