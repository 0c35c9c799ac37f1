package cart

import (
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/cartsync/internal/client/recovery"
)

// ErrMissingDependency is returned by New when a required dependency is nil
var ErrMissingDependency = errors.New("missing dependency")

// SecurityError возвращается, когда сервер отклонил запрос по соображениям
// безопасности (401/403/419 или отсутствующий CSRF токен). Такие ошибки
// никогда не повторяются автоматически.
type SecurityError struct {
	Err       error
	Operation string
}

func (e *SecurityError) Error() string {
	return fmt.Sprintf("%s rejected: %v", e.Operation, e.Err)
}

func (e *SecurityError) Unwrap() error {
	return e.Err
}

// ErrorInfo описывает последнюю ошибку, показанную покупателю.
// Это же значение публикуется как payload события cart:error.
type ErrorInfo struct {
	At        time.Time         `json:"at"`
	Err       error             `json:"-"`
	Category  recovery.Category `json:"category"`
	Message   string            `json:"message"`
	Operation string            `json:"operation"`
	Severity  recovery.Severity `json:"severity"`
}
