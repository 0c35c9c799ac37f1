package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/iudanet/cartsync/pkg/api"
)

// sendJSON отправляет JSON ответ
func sendJSON(w http.ResponseWriter, logger *slog.Logger, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError отправляет JSON ответ с ошибкой. description попадает в
// сообщение, которое клиент показывает пользователю.
func sendError(w http.ResponseWriter, logger *slog.Logger, statusCode int, code, description string) {
	resp := api.ErrorResponse{
		Error:       code,
		Description: description,
		Status:      statusCode,
	}
	sendJSON(w, logger, resp, statusCode)
}
