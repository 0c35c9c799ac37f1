package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/iudanet/cartsync/internal/models"
	"github.com/iudanet/cartsync/internal/server/storage"
	"github.com/iudanet/cartsync/internal/validation"
	"github.com/iudanet/cartsync/pkg/api"
)

// maxBodyBytes ограничение размера тела запроса
const maxBodyBytes = 64 << 10

// CartHandler обрабатывает запросы к корзине.
// Корзина определяется заголовком X-Cart-Token; если заголовка нет или
// корзина неизвестна, создается новая и ее токен возвращается клиенту.
type CartHandler struct {
	logger   *slog.Logger
	storage  storage.CartStorage
	currency string
}

// NewCartHandler создает новый CartHandler
func NewCartHandler(logger *slog.Logger, cartStorage storage.CartStorage, currency string) *CartHandler {
	return &CartHandler{
		logger:   logger,
		storage:  cartStorage,
		currency: currency,
	}
}

// Get обрабатывает GET /cart.js
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	token, err := h.resolveCart(r)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	h.sendCart(w, r, token)
}

// Add обрабатывает POST /cart/add.js
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req api.AddRequest
	if err := decodeBody(w, r, &req); err != nil {
		sendError(w, h.logger, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if len(req.Items) == 0 {
		sendError(w, h.logger, http.StatusBadRequest, "bad_request", "items are required")
		return
	}
	for _, item := range req.Items {
		err := validation.ValidateLine(item.ID, item.Quantity, item.Price, item.Properties)
		var fe *validation.FieldError
		if !errors.As(err, &fe) {
			continue
		}
		switch fe.Field {
		case "quantity", "price":
			sendError(w, h.logger, http.StatusUnprocessableEntity, "invalid_quantity",
				fmt.Sprintf("%s cannot be added in the requested quantity", item.ID))
		default:
			sendError(w, h.logger, http.StatusBadRequest, "bad_request", fe.Error())
		}
		return
	}

	token, err := h.resolveCart(r)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	for _, item := range req.Items {
		line, err := h.storage.AddLine(r.Context(), token, &models.ServerLine{
			VariantID:  item.ID,
			Title:      item.Title,
			Quantity:   item.Quantity,
			Price:      item.Price,
			Properties: item.Properties,
		})
		if err != nil {
			h.internalError(w, r, err)
			return
		}
		h.logger.DebugContext(r.Context(), "line added",
			slog.String("key", line.Key), slog.Int("quantity", line.Quantity))
	}

	h.sendCart(w, r, token)
}

// Change обрабатывает POST /cart/change.js
func (h *CartHandler) Change(w http.ResponseWriter, r *http.Request) {
	var req api.ChangeRequest
	if err := decodeBody(w, r, &req); err != nil {
		sendError(w, h.logger, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if req.ID == "" {
		sendError(w, h.logger, http.StatusBadRequest, "bad_request", "id is required")
		return
	}
	if req.Quantity < 0 {
		sendError(w, h.logger, http.StatusUnprocessableEntity, "invalid_quantity", "quantity must not be negative")
		return
	}

	token, err := h.resolveCart(r)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	if err := h.storage.ChangeLine(r.Context(), token, req.ID, req.Quantity); err != nil {
		if errors.Is(err, storage.ErrLineNotFound) {
			sendError(w, h.logger, http.StatusNotFound, "line_not_found",
				fmt.Sprintf("no line %s in the cart", req.ID))
			return
		}
		h.internalError(w, r, err)
		return
	}

	h.sendCart(w, r, token)
}

// Clear обрабатывает POST /cart/clear.js
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	token, err := h.resolveCart(r)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	if err := h.storage.ClearCart(r.Context(), token); err != nil {
		h.internalError(w, r, err)
		return
	}

	h.sendCart(w, r, token)
}

// resolveCart возвращает токен существующей корзины или создает новую
func (h *CartHandler) resolveCart(r *http.Request) (string, error) {
	ctx := r.Context()
	token := r.Header.Get(api.HeaderCartToken)
	if token != "" {
		_, err := h.storage.GetCart(ctx, token)
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, storage.ErrCartNotFound) {
			return "", err
		}
	}
	return h.createCart(ctx)
}

func (h *CartHandler) createCart(ctx context.Context) (string, error) {
	cart := &models.ServerCart{Token: uuid.NewString(), Currency: h.currency}
	if err := h.storage.CreateCart(ctx, cart); err != nil {
		return "", fmt.Errorf("failed to create cart: %w", err)
	}
	h.logger.InfoContext(ctx, "cart created", slog.String("currency", cart.Currency))
	return cart.Token, nil
}

// sendCart отправляет корзину целиком
func (h *CartHandler) sendCart(w http.ResponseWriter, r *http.Request, token string) {
	cart, err := h.storage.GetCart(r.Context(), token)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	w.Header().Set(api.HeaderCartToken, token)
	sendJSON(w, h.logger, toAPICart(cart), http.StatusOK)
}

func (h *CartHandler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "cart request failed",
		slog.String("path", r.URL.Path), slog.Any("error", err))
	sendError(w, h.logger, http.StatusInternalServerError, "internal_error", "")
}

// decodeBody читает JSON тело не больше maxBodyBytes
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// toAPICart преобразует корзину хранилища в ответ API
func toAPICart(cart *models.ServerCart) api.Cart {
	items := make([]api.LineItem, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		items = append(items, api.LineItem{
			Properties: line.Properties,
			ID:         line.VariantID,
			Key:        line.Key,
			Title:      line.Title,
			Quantity:   line.Quantity,
			Price:      line.Price,
			LinePrice:  int64(line.Quantity) * line.Price,
		})
	}

	return api.Cart{
		Token:      cart.Token,
		Currency:   cart.Currency,
		Items:      items,
		ItemCount:  cart.ItemCount(),
		TotalPrice: cart.TotalPrice(),
	}
}
