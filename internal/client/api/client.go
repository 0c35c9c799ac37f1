// Package api implements the retrying HTTP client of the remote cart endpoint.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/iudanet/cartsync/pkg/api"
)

// Значения по умолчанию
const (
	DefaultTimeout       = 10 * time.Second
	DefaultBaseDelay     = 500 * time.Millisecond
	DefaultMaxRetries    = 3
	DefaultJitterPercent = 20
	DefaultCacheTTL      = 5 * time.Minute
	DefaultCacheSize     = 256
)

// TokenFunc возвращает CSRF токен для изменяющих запросов
type TokenFunc func(ctx context.Context) (string, error)

// Sleeper ждет d или отмены ctx
type Sleeper func(ctx context.Context, d time.Duration) error

// Request описывает один логический запрос
type Request struct {
	Body   any
	Header http.Header
	Method string
	Path   string
	ID     string // ID идентификатор запроса, одинаковый для всех попыток; генерируется, если пуст
}

func (r *Request) mutating() bool {
	return r.Method != http.MethodGet && r.Method != http.MethodHead
}

// Meta описывает, как был получен ответ
type Meta struct {
	RequestID string
	Elapsed   time.Duration
	Retries   int
	Cached    bool
}

// Response успешный ответ сервера
type Response struct {
	Header     http.Header
	Body       []byte
	Meta       Meta
	StatusCode int
}

// Decode декодирует тело ответа в v
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (r *Response) clone() *Response {
	out := *r
	out.Body = append([]byte(nil), r.Body...)
	out.Header = r.Header.Clone()
	return &out
}

// Client HTTP клиент с повторами, таймаутом на попытку и кэшем GET запросов
type Client struct {
	httpClient    *http.Client
	logger        *slog.Logger
	cache         *responseCache
	sleep         Sleeper
	tokenSource   TokenFunc
	now           func() time.Time
	baseURL       string
	cartToken     string
	timeout       time.Duration
	baseDelay     time.Duration
	cacheTTL      time.Duration
	maxRetries    int
	jitterPercent uint64
	cacheSize     int
	mu            sync.RWMutex
}

// Option настраивает Client
type Option func(*Client)

// WithHTTPClient задает http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout задает жесткий таймаут одной попытки
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithBaseDelay задает базовую задержку экспоненциального backoff
func WithBaseDelay(d time.Duration) Option {
	return func(c *Client) { c.baseDelay = d }
}

// WithMaxRetries задает число повторов после первой попытки
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithJitterPercent задает разброс задержки в процентах
func WithJitterPercent(p uint64) Option {
	return func(c *Client) { c.jitterPercent = p }
}

// WithCache задает TTL и размер кэша; ttl <= 0 отключает кэш
func WithCache(ttl time.Duration, size int) Option {
	return func(c *Client) {
		c.cacheTTL = ttl
		c.cacheSize = size
	}
}

// WithSleeper подменяет ожидание между попытками. Используется в тестах.
func WithSleeper(s Sleeper) Option {
	return func(c *Client) { c.sleep = s }
}

// WithNow подменяет источник времени
func WithNow(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithTokenSource задает источник CSRF токена
func WithTokenSource(fn TokenFunc) Option {
	return func(c *Client) { c.tokenSource = fn }
}

// NewClient создает новый API клиент
func NewClient(baseURL string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		logger:        logger,
		httpClient:    &http.Client{},
		timeout:       DefaultTimeout,
		baseDelay:     DefaultBaseDelay,
		maxRetries:    DefaultMaxRetries,
		jitterPercent: DefaultJitterPercent,
		cacheTTL:      DefaultCacheTTL,
		cacheSize:     DefaultCacheSize,
		sleep:         sleepContext,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.cache = newResponseCache(c.cacheTTL, c.cacheSize, c.now)
	return c
}

// SetTokenSource задает источник CSRF токена после создания клиента.
// Нужен, когда сам источник использует этот клиент.
func (c *Client) SetTokenSource(fn TokenFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokenSource = fn
}

// SetCartToken задает токен корзины, отправляемый в каждом запросе
func (c *Client) SetCartToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.cartToken {
		c.cartToken = token
		c.cache.clear()
	}
}

// CartToken возвращает текущий токен корзины
func (c *Client) CartToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cartToken
}

// InvalidateCache удаляет все закэшированные ответы
func (c *Client) InvalidateCache() {
	c.cache.clear()
}

// sendOptions параметры одного вызова Send
type sendOptions struct {
	maxRetries int
	noCache    bool
}

// SendOption настраивает один вызов Send
type SendOption func(*sendOptions)

// Retries переопределяет бюджет повторов для одного запроса
func Retries(n int) SendOption {
	return func(o *sendOptions) { o.maxRetries = n }
}

// NoCache запрещает ответ из кэша
func NoCache() SendOption {
	return func(o *sendOptions) { o.noCache = true }
}

// Send выполняет запрос с повторами.
// Повторяются только сетевые ошибки и статусы 408, 429, 5xx; задержка перед
// попыткой n (n >= 1) равна base*2^(n-1) с разбросом jitterPercent.
// Любая неудача возвращается как *TerminalError.
func (c *Client) Send(ctx context.Context, req *Request, opts ...SendOption) (*Response, error) {
	o := sendOptions{maxRetries: c.maxRetries}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxRetries < 0 {
		o.maxRetries = 0
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	start := c.now()
	cacheKey := c.cacheKey(req)

	if !req.mutating() && !o.noCache {
		if resp, ok := c.cache.get(cacheKey); ok {
			resp.Meta = Meta{RequestID: req.ID, Cached: true}
			c.logger.Debug("Response served from cache", "method", req.Method, "path", req.Path)
			return resp, nil
		}
	}

	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, c.terminal(req, err, 0, start)
	}

	backoff := c.backoff(o.maxRetries)
	var lastErr error
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			delay, stop := backoff.Next()
			if stop {
				break
			}
			c.logger.Debug("Retrying request",
				"request_id", req.ID, "path", req.Path, "attempt", attempt+1, "delay", delay, "error", lastErr)
			if err := c.sleep(ctx, delay); err != nil {
				return nil, c.terminal(req, err, attempt-1, start)
			}
		}

		resp, err := c.attempt(ctx, req, body)
		if err == nil {
			resp.Meta = Meta{RequestID: req.ID, Retries: attempt, Elapsed: c.now().Sub(start)}
			if req.mutating() {
				// Любая успешная мутация делает закэшированную корзину устаревшей
				c.cache.clear()
			} else {
				c.cache.put(cacheKey, resp)
			}
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil || !retryable(err) || attempt >= o.maxRetries {
			return nil, c.terminal(req, err, attempt, start)
		}
	}

	return nil, c.terminal(req, lastErr, o.maxRetries, start)
}

func (c *Client) backoff(maxRetries int) retry.Backoff {
	b := retry.NewExponential(c.baseDelay)
	if c.jitterPercent > 0 {
		b = retry.WithJitterPercent(c.jitterPercent, b)
	}
	return retry.WithMaxRetries(uint64(maxRetries), b)
}

func (c *Client) terminal(req *Request, err error, retries int, start time.Time) *TerminalError {
	terr := &TerminalError{
		Err:        err,
		RequestID:  req.ID,
		Method:     req.Method,
		Path:       req.Path,
		Retries:    retries,
		Elapsed:    c.now().Sub(start),
		StatusCode: StatusCode(err),
		Transient:  retryable(err) && !errors.Is(err, context.Canceled),
	}
	c.logger.Warn("Request failed",
		"request_id", req.ID, "method", req.Method, "path", req.Path,
		"retries", retries, "status", terr.StatusCode, "error", err)
	return terr
}

// attempt выполняет одну попытку с жестким таймаутом
func (c *Client) attempt(ctx context.Context, req *Request, body []byte) (*Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(attemptCtx, req.Method, c.baseURL+req.Path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vals := range req.Header {
		for _, v := range vals {
			httpReq.Header.Add(k, v)
		}
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(api.HeaderRequestID, req.ID)
	if token := c.CartToken(); token != "" {
		httpReq.Header.Set(api.HeaderCartToken, token)
	}
	if req.mutating() && httpReq.Header.Get(api.HeaderCSRF) == "" {
		token, err := c.csrfToken(ctx)
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set(api.HeaderCSRF, token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	// Проверяем статус код
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		httpErr := &HTTPError{StatusCode: resp.StatusCode, Body: respBody}
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil {
			httpErr.Message = firstNonEmpty(errResp.Description, errResp.Message, errResp.Error)
		}
		return nil, httpErr
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: respBody}, nil
}

func (c *Client) csrfToken(ctx context.Context) (string, error) {
	c.mu.RLock()
	source := c.tokenSource
	c.mu.RUnlock()

	if source == nil {
		return "", ErrNoTokenSource
	}
	token, err := source(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get csrf token: %w", err)
	}
	return token, nil
}

func (c *Client) cacheKey(req *Request) string {
	return req.Method + " " + req.Path + " " + c.CartToken()
}

func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return data, nil
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

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
