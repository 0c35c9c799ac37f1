package handlers

import (
	"log/slog"
	"net/http"

	"github.com/iudanet/cartsync/pkg/api"
)

// TokenIssuer выдает CSRF токены
type TokenIssuer interface {
	Issue() (token string, expiresIn int64, err error)
}

// CSRFHandler выдает CSRF токены клиентам
type CSRFHandler struct {
	logger *slog.Logger
	issuer TokenIssuer
}

// NewCSRFHandler создает новый CSRFHandler
func NewCSRFHandler(logger *slog.Logger, issuer TokenIssuer) *CSRFHandler {
	return &CSRFHandler{logger: logger, issuer: issuer}
}

// Token обрабатывает GET /api/v1/csrf
func (h *CSRFHandler) Token(w http.ResponseWriter, r *http.Request) {
	token, expiresIn, err := h.issuer.Issue()
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to issue csrf token", slog.Any("error", err))
		sendError(w, h.logger, http.StatusInternalServerError, "internal_error", "")
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	sendJSON(w, h.logger, api.CSRFResponse{Token: token, ExpiresIn: expiresIn}, http.StatusOK)
}
