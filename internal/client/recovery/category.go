package recovery

import (
	"context"
	"errors"
	"net/http"

	"github.com/iudanet/cartsync/internal/client/api"
	"github.com/iudanet/cartsync/internal/client/csrf"
	"github.com/iudanet/cartsync/internal/client/oplog"
	"github.com/iudanet/cartsync/internal/client/projector"
	"github.com/iudanet/cartsync/internal/client/snapshot"
	"github.com/iudanet/cartsync/internal/client/storage"
)

// Category класс ошибки
type Category string

const (
	CategoryNetwork     Category = "network"
	CategoryPersistence Category = "persistence"
	CategoryValidation  Category = "validation"
	CategorySecurity    Category = "security"
	CategoryUnknown     Category = "unknown"
)

// Categories перечисляет все категории в порядке вывода
var Categories = []Category{
	CategoryNetwork,
	CategoryPersistence,
	CategoryValidation,
	CategorySecurity,
	CategoryUnknown,
}

// Severity важность ошибки
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	}
	return "unknown"
}

// MarshalText кодирует Severity строкой
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText декодирует Severity из строки
func (s *Severity) UnmarshalText(b []byte) error {
	switch string(b) {
	case "low":
		*s = SeverityLow
	case "medium":
		*s = SeverityMedium
	case "high":
		*s = SeverityHigh
	case "critical":
		*s = SeverityCritical
	default:
		return errors.New("unknown severity " + string(b))
	}
	return nil
}

// ValidationError ошибка формы мутации
type ValidationError struct {
	Err   error
	Field string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Err.Error()
	}
	return "validation failed on " + e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Classify определяет категорию ошибки
func Classify(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	switch status := api.StatusCode(err); {
	case status == http.StatusUnauthorized || status == http.StatusForbidden || status == 419:
		return CategorySecurity
	case status == http.StatusBadRequest || status == http.StatusNotFound || status == http.StatusUnprocessableEntity:
		return CategoryValidation
	case status == http.StatusConflict:
		return CategoryUnknown
	case status == http.StatusRequestTimeout || status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
		return CategoryNetwork
	case status != 0:
		return CategoryUnknown
	}

	var (
		perr *oplog.PersistenceError
		verr *ValidationError
	)
	switch {
	case errors.Is(err, api.ErrNoTokenSource), errors.Is(err, csrf.ErrEmptyToken):
		return CategorySecurity
	case errors.As(err, &perr),
		errors.Is(err, storage.ErrQuotaExceeded),
		errors.Is(err, storage.ErrStorageClosed),
		errors.Is(err, snapshot.ErrCorruptSnapshot):
		return CategoryPersistence
	case errors.As(err, &verr),
		errors.Is(err, projector.ErrInvalidPayload),
		errors.Is(err, projector.ErrUnknownKind),
		errors.Is(err, oplog.ErrInvalidKind):
		return CategoryValidation
	case errors.Is(err, context.Canceled):
		return CategoryUnknown
	case api.IsTransient(err):
		return CategoryNetwork
	}
	return CategoryUnknown
}

// SeverityOf возвращает важность по умолчанию для категории
func SeverityOf(c Category) Severity {
	switch c {
	case CategoryNetwork:
		return SeverityMedium
	case CategoryPersistence:
		return SeverityHigh
	case CategoryValidation:
		return SeverityLow
	case CategorySecurity:
		return SeverityCritical
	}
	return SeverityMedium
}

// UserMessage возвращает сообщение для покупателя
func UserMessage(err error) string {
	switch status := api.StatusCode(err); {
	case status == http.StatusBadRequest:
		return "the request was rejected by the store"
	case status == http.StatusUnauthorized || status == http.StatusForbidden || status == 419:
		return "your session has expired, please reload the page"
	case status == http.StatusNotFound:
		return "this item is no longer in your cart"
	case status == http.StatusConflict:
		return "cart was modified elsewhere"
	case status == http.StatusUnprocessableEntity:
		return "this item cannot be added in the requested quantity"
	case status == http.StatusTooManyRequests:
		return "too many requests, please try again shortly"
	case status >= http.StatusInternalServerError:
		return "the store is temporarily unavailable"
	}

	switch Classify(err) {
	case CategoryNetwork:
		return "you appear to be offline, changes will be synced later"
	case CategoryPersistence:
		return "local storage is full, some changes may not be saved"
	case CategoryValidation:
		return "the cart update was invalid and has been skipped"
	case CategorySecurity:
		return "the request could not be verified, please reload the page"
	}
	return "something went wrong with your cart"
}
