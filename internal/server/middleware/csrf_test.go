package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/cartsync/internal/server/csrf"
	"github.com/iudanet/cartsync/pkg/api"
)

// setupTestLogger creates a logger for testing
func setupTestLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelError,
	}
	handler := slog.NewTextHandler(os.Stdout, opts)
	return slog.New(handler)
}

type verifierFunc func(token string) error

func (f verifierFunc) Verify(token string) error { return f(token) }

func okHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

func TestCSRFMiddleware(t *testing.T) {
	logger := setupTestLogger()

	issuer, err := csrf.NewIssuer(csrf.Config{Secret: []byte("test-secret-key"), TTL: 15 * time.Minute})
	require.NoError(t, err)
	valid, _, err := issuer.Issue()
	require.NoError(t, err)

	expired := verifierFunc(func(string) error { return csrf.ErrExpiredToken })

	tests := []struct {
		verifier   TokenVerifier
		name       string
		method     string
		token      string
		wantCode   string
		wantStatus int
	}{
		{
			name:       "GET passes without token",
			verifier:   issuer,
			method:     http.MethodGet,
			wantStatus: http.StatusOK,
		},
		{
			name:       "POST with valid token",
			verifier:   issuer,
			method:     http.MethodPost,
			token:      valid,
			wantStatus: http.StatusOK,
		},
		{
			name:       "POST without token",
			verifier:   issuer,
			method:     http.MethodPost,
			wantStatus: http.StatusForbidden,
			wantCode:   "csrf_missing",
		},
		{
			name:       "POST with forged token",
			verifier:   issuer,
			method:     http.MethodPost,
			token:      "forged",
			wantStatus: http.StatusForbidden,
			wantCode:   "csrf_invalid",
		},
		{
			name:       "POST with expired token",
			verifier:   expired,
			method:     http.MethodPost,
			token:      "old",
			wantStatus: StatusCSRFExpired,
			wantCode:   "csrf_expired",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := CSRFMiddleware(logger, tt.verifier)(okHandler())

			req := httptest.NewRequest(tt.method, api.PathAdd, nil)
			if tt.token != "" {
				req.Header.Set(api.HeaderCSRF, tt.token)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode != "" {
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
				var resp api.ErrorResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Equal(t, tt.wantCode, resp.Error)
				assert.Equal(t, tt.wantStatus, resp.Status)
			}
		})
	}
}
