package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/iudanet/cartsync/pkg/api"
)

// RateLimiter ограничивает число запросов на ключ в фиксированном окне.
// Ключ это токен корзины, а без него IP адрес клиента.
type RateLimiter struct {
	buckets map[string]*bucket
	logger  *slog.Logger
	stop    chan struct{}
	now     func() time.Time
	rate    int
	window  time.Duration
	mu      sync.Mutex
	once    sync.Once
}

type bucket struct {
	windowStart time.Time
	tokens      int
}

// NewRateLimiter создает limiter на rate запросов за window и запускает
// фоновую очистку неактивных ключей. Остановка через Stop.
func NewRateLimiter(rate int, window time.Duration, logger *slog.Logger) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		logger:  logger,
		stop:    make(chan struct{}),
		now:     time.Now,
		rate:    rate,
		window:  window,
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window * 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evict()
		case <-rl.stop:
			return
		}
	}
}

// evict удаляет ключи, не использованные дольше двух окон
func (rl *RateLimiter) evict() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, b := range rl.buckets {
		if now.Sub(b.windowStart) > rl.window*2 {
			delete(rl.buckets, key)
		}
	}
}

// Stop останавливает фоновую очистку. Повторный вызов безопасен.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// Allow расходует один запрос ключа. Если лимит исчерпан, возвращает false
// и время до начала следующего окна.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok || now.Sub(b.windowStart) >= rl.window {
		b = &bucket{windowStart: now, tokens: rl.rate}
		rl.buckets[key] = b
	}

	if b.tokens > 0 {
		b.tokens--
		return true, 0
	}
	return false, b.windowStart.Add(rl.window).Sub(now)
}

// Middleware отвечает 429 с заголовком Retry-After, когда ключ исчерпал лимит
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := limitKey(r)
		allowed, wait := rl.Allow(key)
		if !allowed {
			rl.logger.Warn("Rate limit exceeded",
				"key", maskToken(key),
				"method", r.Method,
				"path", r.URL.Path,
			)
			seconds := int(wait.Round(time.Second) / time.Second)
			w.Header().Set("Retry-After", strconv.Itoa(max(seconds, 1)))
			writeError(w, rl.logger, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded, please try again later")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// limitKey выбирает ключ лимита: токен корзины или IP клиента
func limitKey(r *http.Request) string {
	if token := r.Header.Get(api.HeaderCartToken); token != "" {
		return "cart:" + token
	}
	return "ip:" + clientIP(r)
}

// clientIP извлекает IP адрес клиента с учетом X-Forwarded-For и X-Real-IP
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
