package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// RecoveryMiddleware перехватывает panic в обработчике, логирует стек
// и отвечает 500 с JSON телом. Детали паники клиенту не отдаются.
// http.ErrAbortHandler пробрасывается дальше: net/http сам обрывает
// соединение.
func RecoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.Error("Panic recovered",
					"error", rec,
					"request_id", RequestID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)

				writeError(w, logger, http.StatusInternalServerError, "internal_error", "Internal Server Error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
