package models

import "time"

// ServerCart корзина, хранимая эталонным сервером
type ServerCart struct {
	CreatedAt time.Time    `json:"created_at"` // время создания
	UpdatedAt time.Time    `json:"updated_at"` // время последнего изменения
	Token     string       `json:"token"`      // токен корзины из заголовка X-Cart-Token
	Currency  string       `json:"currency"`   // код валюты ISO 4217
	Lines     []ServerLine `json:"lines"`      // строки в порядке добавления
}

// ServerLine строка корзины на сервере
type ServerLine struct {
	Properties map[string]string `json:"properties,omitempty"`
	Key        string            `json:"key"` // ключ строки: <variant id>:<суффикс>
	VariantID  string            `json:"variant_id"`
	Title      string            `json:"title,omitempty"`
	Quantity   int               `json:"quantity"`
	Price      int64             `json:"price"`
	Position   int               `json:"position"` // порядок добавления
}

// ItemCount возвращает сумму количеств по строкам
func (c *ServerCart) ItemCount() int {
	n := 0
	for i := range c.Lines {
		n += c.Lines[i].Quantity
	}
	return n
}

// TotalPrice возвращает сумму quantity*price по строкам
func (c *ServerCart) TotalPrice() int64 {
	var total int64
	for i := range c.Lines {
		total += int64(c.Lines[i].Quantity) * c.Lines[i].Price
	}
	return total
}
