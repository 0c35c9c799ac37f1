package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/iudanet/cartsync/pkg/api"
)

// GetCart получает текущую корзину
func (c *Client) GetCart(ctx context.Context, opts ...SendOption) (*api.Cart, error) {
	var cart api.Cart
	if err := c.do(ctx, http.MethodGet, api.PathCart, nil, &cart, opts...); err != nil {
		return nil, fmt.Errorf("get cart request failed: %w", err)
	}
	return &cart, nil
}

// AddItems добавляет товары в корзину
func (c *Client) AddItems(ctx context.Context, req api.AddRequest, opts ...SendOption) (*api.Cart, error) {
	var cart api.Cart
	if err := c.do(ctx, http.MethodPost, api.PathAdd, req, &cart, opts...); err != nil {
		return nil, fmt.Errorf("add items request failed: %w", err)
	}
	return &cart, nil
}

// ChangeItem изменяет количество строки; quantity 0 удаляет строку
func (c *Client) ChangeItem(ctx context.Context, req api.ChangeRequest, opts ...SendOption) (*api.Cart, error) {
	var cart api.Cart
	if err := c.do(ctx, http.MethodPost, api.PathChange, req, &cart, opts...); err != nil {
		return nil, fmt.Errorf("change item request failed: %w", err)
	}
	return &cart, nil
}

// ClearCart очищает корзину
func (c *Client) ClearCart(ctx context.Context, opts ...SendOption) (*api.Cart, error) {
	var cart api.Cart
	if err := c.do(ctx, http.MethodPost, api.PathClear, struct{}{}, &cart, opts...); err != nil {
		return nil, fmt.Errorf("clear cart request failed: %w", err)
	}
	return &cart, nil
}

// CSRFToken получает новый CSRF токен
func (c *Client) CSRFToken(ctx context.Context) (*api.CSRFResponse, error) {
	var resp api.CSRFResponse
	if err := c.do(ctx, http.MethodGet, api.PathCSRF, nil, &resp, NoCache()); err != nil {
		return nil, fmt.Errorf("csrf request failed: %w", err)
	}
	return &resp, nil
}

// Health проверяет доступность сервера одной попыткой без кэша
func (c *Client) Health(ctx context.Context) error {
	var resp api.HealthResponse
	if err := c.do(ctx, http.MethodGet, api.PathHealth, nil, &resp, NoCache(), Retries(0)); err != nil {
		return fmt.Errorf("health request failed: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, result any, opts ...SendOption) error {
	resp, err := c.Send(ctx, &Request{Method: method, Path: path, Body: body}, opts...)
	if err != nil {
		return err
	}

	if cart, ok := result.(*api.Cart); ok {
		if err := resp.Decode(cart); err != nil {
			return err
		}
		if cart.Token != "" {
			c.rememberCartToken(cart.Token)
		}
		return nil
	}

	if result != nil {
		return resp.Decode(result)
	}
	return nil
}

// rememberCartToken запоминает токен корзины из ответа, не сбрасывая кэш
func (c *Client) rememberCartToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cartToken = token
}
