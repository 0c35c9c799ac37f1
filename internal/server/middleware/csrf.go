package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/iudanet/cartsync/internal/server/csrf"
	"github.com/iudanet/cartsync/pkg/api"
)

// StatusCSRFExpired статус ответа на просроченный CSRF токен
const StatusCSRFExpired = 419

// TokenVerifier проверяет CSRF токен
type TokenVerifier interface {
	Verify(token string) error
}

// CSRFMiddleware создает middleware для проверки CSRF токена в
// изменяющих запросах. GET, HEAD и OPTIONS пропускаются.
// Нет токена или он поддельный: 403, срок истек: 419.
func CSRFMiddleware(logger *slog.Logger, verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			token := r.Header.Get(api.HeaderCSRF)
			if token == "" {
				logger.Warn("Missing CSRF token", "method", r.Method, "path", r.URL.Path)
				writeError(w, logger, http.StatusForbidden, "csrf_missing", "CSRF token is required")
				return
			}

			if err := verifier.Verify(token); err != nil {
				if errors.Is(err, csrf.ErrExpiredToken) {
					logger.Info("Expired CSRF token", "path", r.URL.Path)
					writeError(w, logger, StatusCSRFExpired, "csrf_expired", "CSRF token expired")
					return
				}
				logger.Warn("Invalid CSRF token", "path", r.URL.Path, "error", err)
				writeError(w, logger, http.StatusForbidden, "csrf_invalid", "CSRF token is invalid")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeError отправляет JSON ответ с ошибкой
func writeError(w http.ResponseWriter, logger *slog.Logger, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := api.ErrorResponse{Error: code, Message: message, Status: status}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("failed to encode error response", slog.Any("error", err))
	}
}
