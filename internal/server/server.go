// Package server собирает эталонный cart сервер: хранилище, обработчики
// и middleware.
package server

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/iudanet/cartsync/internal/server/csrf"
	"github.com/iudanet/cartsync/internal/server/handlers"
	"github.com/iudanet/cartsync/internal/server/middleware"
	"github.com/iudanet/cartsync/internal/server/storage/sqlite"
	"github.com/iudanet/cartsync/pkg/api"
)

// Config содержит конфигурацию сервера
type Config struct {
	Addr            string        // адрес для прослушивания
	DBPath          string        // путь к SQLite базе, ":memory:" для временной
	Currency        string        // валюта новых корзин
	CSRFSecret      []byte        // секрет подписи CSRF токенов, пустой генерируется
	CSRFTTL         time.Duration // время жизни CSRF токена
	RateLimit       int           // запросов на корзину или IP за RateWindow, 0 отключает
	RateWindow      time.Duration
	CartTTL         time.Duration // корзины без изменений дольше удаляются, 0 отключает
	CleanupInterval time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		DBPath:          "cartsync-server.db",
		Currency:        "USD",
		CSRFTTL:         time.Hour,
		RateLimit:       120,
		RateWindow:      time.Minute,
		CartTTL:         30 * 24 * time.Hour,
		CleanupInterval: time.Hour,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Server эталонный cart сервер
type Server struct {
	logger  *slog.Logger
	storage *sqlite.Storage
	limiter *middleware.RateLimiter
	handler http.Handler
	cfg     Config
}

// New открывает хранилище и собирает маршруты
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Server, error) {
	if len(cfg.CSRFSecret) == 0 {
		cfg.CSRFSecret = make([]byte, 32)
		if _, err := rand.Read(cfg.CSRFSecret); err != nil {
			return nil, fmt.Errorf("failed to generate csrf secret: %w", err)
		}
		logger.Warn("CSRF secret is not set, tokens will not survive a restart")
	}

	issuer, err := csrf.NewIssuer(csrf.Config{Secret: cfg.CSRFSecret, TTL: cfg.CSRFTTL})
	if err != nil {
		return nil, err
	}

	store, err := sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	s := &Server{
		logger:  logger,
		storage: store,
		cfg:     cfg,
	}

	cartHandler := handlers.NewCartHandler(logger, store, cfg.Currency)
	csrfHandler := handlers.NewCSRFHandler(logger, issuer)
	healthHandler := handlers.NewHealthHandler(logger, store)

	cartMux := http.NewServeMux()
	cartMux.HandleFunc("GET "+api.PathCart, cartHandler.Get)
	cartMux.HandleFunc("POST "+api.PathAdd, cartHandler.Add)
	cartMux.HandleFunc("POST "+api.PathChange, cartHandler.Change)
	cartMux.HandleFunc("POST "+api.PathClear, cartHandler.Clear)
	cartMux.HandleFunc("GET "+api.PathCSRF, csrfHandler.Token)

	var routes http.Handler = middleware.CSRFMiddleware(logger, issuer)(cartMux)
	if cfg.RateLimit > 0 {
		s.limiter = middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow, logger)
		routes = s.limiter.Middleware(routes)
	}

	// health check не ограничивается: клиент опрашивает его постоянно
	root := http.NewServeMux()
	root.HandleFunc("GET "+api.PathHealth, healthHandler.Health)
	root.Handle("/", routes)

	s.handler = middleware.LoggingWithSkip(logger, []string{api.PathHealth})(
		middleware.RecoveryMiddleware(logger)(root),
	)
	return s, nil
}

// Handler возвращает корневой http.Handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run слушает cfg.Addr до отмены ctx, затем корректно завершает
// обработку текущих запросов
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve обслуживает ln до отмены ctx
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	if s.cfg.CartTTL > 0 && s.cfg.CleanupInterval > 0 {
		go s.sweep(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server started", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// sweep периодически удаляет заброшенные корзины
func (s *Server) sweep(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.DeleteStaleCarts(ctx)
		}
	}
}

// DeleteStaleCarts удаляет корзины, не менявшиеся дольше CartTTL
func (s *Server) DeleteStaleCarts(ctx context.Context) int {
	n, err := s.storage.DeleteStaleCarts(ctx, time.Now().Add(-s.cfg.CartTTL))
	if err != nil {
		s.logger.Error("Failed to delete stale carts", "error", err)
		return 0
	}
	if n > 0 {
		s.logger.Info("Stale carts deleted", "count", n)
	}
	return n
}

// Close останавливает rate limiter и закрывает хранилище
func (s *Server) Close() error {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	return s.storage.Close()
}
