// Package csrf supplies the token attached to mutating cart requests.
package csrf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/iudanet/cartsync/pkg/api"
)

// ErrEmptyToken возвращается, если сервер выдал пустой токен
var ErrEmptyToken = errors.New("empty csrf token")

// refreshSkew запас до истечения токена, после которого он обновляется заранее
const refreshSkew = 30 * time.Second

// TokenProvider выдает CSRF токен
type TokenProvider interface {
	// Token возвращает действующий токен
	Token(ctx context.Context) (string, error)

	// Invalidate сбрасывает закэшированный токен, например после отказа сервера
	Invalidate()
}

// Static всегда возвращает один и тот же токен
type Static struct {
	token string
}

var _ TokenProvider = (*Static)(nil)

// NewStatic создает провайдер с фиксированным токеном
func NewStatic(token string) *Static {
	return &Static{token: token}
}

func (s *Static) Token(context.Context) (string, error) {
	if s.token == "" {
		return "", ErrEmptyToken
	}
	return s.token, nil
}

func (s *Static) Invalidate() {}

//go:generate moq -out fetcher_mock.go . Fetcher

// Fetcher запрашивает новый токен у сервера
type Fetcher interface {
	CSRFToken(ctx context.Context) (*api.CSRFResponse, error)
}

// HTTPProvider получает токен через GET /api/v1/csrf и кэширует его до
// истечения срока или до Invalidate.
type HTTPProvider struct {
	expires time.Time
	fetcher Fetcher
	logger  *slog.Logger
	now     func() time.Time
	token   string
	mu      sync.Mutex
}

var _ TokenProvider = (*HTTPProvider)(nil)

// NewHTTPProvider создает провайдер поверх fetcher
func NewHTTPProvider(fetcher Fetcher, logger *slog.Logger) *HTTPProvider {
	return &HTTPProvider{fetcher: fetcher, logger: logger, now: time.Now}
}

func (p *HTTPProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && (p.expires.IsZero() || p.now().Add(refreshSkew).Before(p.expires)) {
		return p.token, nil
	}

	resp, err := p.fetcher.CSRFToken(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch csrf token: %w", err)
	}
	if resp.Token == "" {
		return "", ErrEmptyToken
	}

	p.token = resp.Token
	p.expires = time.Time{}
	if resp.ExpiresIn > 0 {
		p.expires = p.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	p.logger.Debug("CSRF token refreshed", "expires_in", resp.ExpiresIn)
	return p.token, nil
}

func (p *HTTPProvider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = ""
	p.expires = time.Time{}
}
