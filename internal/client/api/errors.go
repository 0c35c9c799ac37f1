package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"
)

// ErrNoTokenSource is returned when a mutating request is sent without a
// configured CSRF token source
var ErrNoTokenSource = errors.New("csrf token source is not configured")

// HTTPError описывает ответ сервера со статусом вне 2xx
type HTTPError struct {
	Message    string
	Body       []byte
	StatusCode int
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// Retryable reports whether the status is worth retrying: 408, 429 and 5xx
func (e *HTTPError) Retryable() bool {
	return retryableStatus(e.StatusCode)
}

// TerminalError возвращается Send, когда запрос больше не будет повторяться:
// бюджет повторов исчерпан или ошибка не подлежит повтору.
type TerminalError struct {
	Err        error
	RequestID  string
	Method     string
	Path       string
	Elapsed    time.Duration
	Retries    int
	StatusCode int  // StatusCode 0, если ответ не был получен
	Transient  bool // Transient true, если последняя ошибка была сетевой или 408/429/5xx
}

func (e *TerminalError) Error() string {
	return fmt.Sprintf("%s %s (request %s) failed after %d retries in %s: %v",
		e.Method, e.Path, e.RequestID, e.Retries, e.Elapsed.Round(time.Millisecond), e.Err)
}

func (e *TerminalError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// IsTransient reports whether err is a terminal error caused by a network
// failure or a retryable status, i.e. the same request may succeed later.
func IsTransient(err error) bool {
	var terr *TerminalError
	if errors.As(err, &terr) {
		return terr.Transient
	}
	return isNetworkError(err)
}

func retryableStatus(code int) bool {
	return code == http.StatusRequestTimeout ||
		code == http.StatusTooManyRequests ||
		code >= http.StatusInternalServerError
}

// isNetworkError определяет ошибки транспортного уровня
func isNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// retryable решает, стоит ли повторять попытку
func retryable(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Retryable()
	}
	return isNetworkError(err)
}
