package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/cartsync/internal/server/storage/sqlite"
	"github.com/iudanet/cartsync/pkg/api"
)

// setupTestLogger creates a logger for testing
func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func setupTestStorage(t *testing.T) *sqlite.Storage {
	t.Helper()
	s, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// doRequest выполняет запрос к handler и декодирует JSON ответ в out
func doRequest(t *testing.T, h http.HandlerFunc, method, path, cartToken string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if cartToken != "" {
		req.Header.Set(api.HeaderCartToken, cartToken)
	}
	rec := httptest.NewRecorder()
	h(rec, req)

	if out != nil {
		require.NoError(t, json.NewDecoder(rec.Body).Decode(out), rec.Body.String())
	}
	return rec
}

type failingPinger struct{ err error }

func (p failingPinger) Ping(context.Context) error { return p.err }

func TestHealthHandler_Health(t *testing.T) {
	tests := []struct {
		pinger     Pinger
		name       string
		wantStatus string
		wantCode   int
	}{
		{name: "database available", pinger: failingPinger{}, wantCode: http.StatusOK, wantStatus: "ok"},
		{
			name:       "database unavailable",
			pinger:     failingPinger{err: errors.New("database is closed")},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(setupTestLogger(), tt.pinger)

			var resp api.HealthResponse
			rec := doRequest(t, handler.Health, http.MethodGet, api.PathHealth, "", nil, &resp)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantStatus, resp.Status)
		})
	}
}

type issuerFunc func() (string, int64, error)

func (f issuerFunc) Issue() (string, int64, error) { return f() }

func TestCSRFHandler_Token(t *testing.T) {
	t.Run("issues token", func(t *testing.T) {
		handler := NewCSRFHandler(setupTestLogger(), issuerFunc(func() (string, int64, error) {
			return "tok-1", 900, nil
		}))

		var resp api.CSRFResponse
		rec := doRequest(t, handler.Token, http.MethodGet, api.PathCSRF, "", nil, &resp)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
		assert.Equal(t, "tok-1", resp.Token)
		assert.Equal(t, int64(900), resp.ExpiresIn)
	})

	t.Run("issuer failure", func(t *testing.T) {
		handler := NewCSRFHandler(setupTestLogger(), issuerFunc(func() (string, int64, error) {
			return "", 0, errors.New("sign failed")
		}))

		rec := doRequest(t, handler.Token, http.MethodGet, api.PathCSRF, "", nil, nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
