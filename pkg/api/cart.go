// Package api содержит типы запросов и ответов удаленного cart endpoint.
package api

// Пути cart endpoint
const (
	PathCart   = "/cart.js"
	PathAdd    = "/cart/add.js"
	PathChange = "/cart/change.js"
	PathClear  = "/cart/clear.js"
	PathCSRF   = "/api/v1/csrf"
	PathHealth = "/healthz"
)

// Заголовки
const (
	// HeaderCSRF несет CSRF токен в каждом изменяющем запросе
	HeaderCSRF = "X-CSRF-Token"
	// HeaderCartToken идентифицирует корзину на сервере
	HeaderCartToken = "X-Cart-Token"
	// HeaderRequestID идентификатор логического запроса, одинаковый для всех попыток
	HeaderRequestID = "X-Request-ID"
)

// LineItem представляет строку корзины в ответе сервера
type LineItem struct {
	Properties map[string]string `json:"properties,omitempty"` // свойства строки
	Vendor     map[string]any    `json:"vendor,omitempty"`     // метаданные площадки
	ID         string            `json:"id"`                   // идентификатор варианта товара
	Key        string            `json:"key"`                  // ключ строки, назначенный сервером
	Title      string            `json:"title,omitempty"`      // название
	Quantity   int               `json:"quantity"`             // количество
	Price      int64             `json:"price"`                // цена за единицу в минорных единицах
	LinePrice  int64             `json:"line_price"`           // quantity * price
}

// Cart представляет корзину целиком
type Cart struct {
	Token      string     `json:"token"`       // токен корзины
	Currency   string     `json:"currency"`    // код валюты ISO 4217
	Items      []LineItem `json:"items"`       // строки в порядке добавления
	ItemCount  int        `json:"item_count"`  // сумма quantity
	TotalPrice int64      `json:"total_price"` // сумма line_price
}

// AddItem описывает один добавляемый товар
type AddItem struct {
	Properties map[string]string `json:"properties,omitempty"`
	ID         string            `json:"id"`
	Title      string            `json:"title,omitempty"`
	Quantity   int               `json:"quantity"`
	Price      int64             `json:"price"`
}

// AddRequest представляет запрос на добавление товаров
type AddRequest struct {
	Items []AddItem `json:"items"`
}

// ChangeRequest представляет запрос на изменение количества.
// ID это ключ строки или, если ключ неизвестен, идентификатор варианта.
// Quantity 0 удаляет строку.
type ChangeRequest struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// CSRFResponse представляет ответ с CSRF токеном
type CSRFResponse struct {
	Token     string `json:"token"`      // CSRF токен
	ExpiresIn int64  `json:"expires_in"` // время жизни токена в секундах
}

// HealthResponse представляет ответ /healthz
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error       string `json:"error"`                 // код ошибки
	Message     string `json:"message,omitempty"`     // дополнительное сообщение
	Description string `json:"description,omitempty"` // описание для пользователя
	Status      int    `json:"status,omitempty"`      // HTTP статус
}
