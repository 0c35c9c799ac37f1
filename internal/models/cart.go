package models

import (
	"fmt"
	"time"
)

// CartItem представляет одну строку корзины.
// Identity строки: Key, если он задан, иначе ID товара.
type CartItem struct {
	Properties map[string]string `json:"properties,omitempty"` // Properties произвольные свойства строки (гравировка, размер)
	Vendor     map[string]any    `json:"vendor,omitempty"`     // Vendor метаданные площадки, не интерпретируются
	ID         string            `json:"id"`                   // ID идентификатор варианта товара
	Key        string            `json:"key,omitempty"`        // Key ключ строки, назначенный сервером (или временный tmp-*)
	Title      string            `json:"title,omitempty"`      // Title название для отображения
	Quantity   int               `json:"quantity"`             // Quantity количество, >= 1 в любом снимке
	Price      int64             `json:"price"`                // Price цена за единицу в минорных единицах валюты
}

// Identity возвращает ключ, по которому строки сливаются и адресуются.
func (i *CartItem) Identity() string {
	if i.Key != "" {
		return i.Key
	}
	return i.ID
}

// LinePrice возвращает quantity*price.
func (i *CartItem) LinePrice() int64 {
	return int64(i.Quantity) * i.Price
}

// Clone создает глубокую копию строки
func (i CartItem) Clone() CartItem {
	out := i
	if i.Properties != nil {
		out.Properties = make(map[string]string, len(i.Properties))
		for k, v := range i.Properties {
			out.Properties[k] = v
		}
	}
	if i.Vendor != nil {
		out.Vendor = make(map[string]any, len(i.Vendor))
		for k, v := range i.Vendor {
			out.Vendor[k] = v
		}
	}
	return out
}

// CartSnapshot материализованное состояние корзины на момент времени.
// ItemCount и TotalPrice всегда равны свертке Items.
type CartSnapshot struct {
	UpdatedAt  time.Time  `json:"updated_at"`
	Currency   string     `json:"currency,omitempty"`
	Token      string     `json:"token,omitempty"`
	Items      []CartItem `json:"items"`
	ItemCount  int        `json:"item_count"`
	TotalPrice int64      `json:"total_price"`
}

// Recalculate пересчитывает итоги с нуля по списку строк.
func (s *CartSnapshot) Recalculate() {
	count := 0
	var total int64
	for i := range s.Items {
		count += s.Items[i].Quantity
		total += s.Items[i].LinePrice()
	}
	s.ItemCount = count
	s.TotalPrice = total
}

// CheckTotals проверяет инвариант итогов и отсутствие строк с quantity < 1.
func (s *CartSnapshot) CheckTotals() error {
	count := 0
	var total int64
	for i := range s.Items {
		if s.Items[i].Quantity < 1 {
			return fmt.Errorf("item %q has non-positive quantity %d", s.Items[i].Identity(), s.Items[i].Quantity)
		}
		count += s.Items[i].Quantity
		total += s.Items[i].LinePrice()
	}
	if count != s.ItemCount {
		return fmt.Errorf("item_count mismatch: stored %d, computed %d", s.ItemCount, count)
	}
	if total != s.TotalPrice {
		return fmt.Errorf("total_price mismatch: stored %d, computed %d", s.TotalPrice, total)
	}
	return nil
}

// FindIndex возвращает индекс строки с заданным identity или -1.
// Сравнивается как Key, так и ID, чтобы операции, созданные до назначения
// серверного ключа, продолжали находить свою строку.
func (s *CartSnapshot) FindIndex(identity string) int {
	if identity == "" {
		return -1
	}
	for i := range s.Items {
		if s.Items[i].Key == identity {
			return i
		}
	}
	for i := range s.Items {
		if s.Items[i].Key == "" && s.Items[i].ID == identity {
			return i
		}
	}
	return -1
}

// FindMergeIndex возвращает индекс строки, с которой сливается добавляемый
// товар: по Key, если он задан, иначе по ID с теми же properties.
func (s *CartSnapshot) FindMergeIndex(item *CartItem) int {
	if item.Key != "" {
		return s.FindIndex(item.Key)
	}
	for i := range s.Items {
		if s.Items[i].ID == item.ID && sameProperties(s.Items[i].Properties, item.Properties) {
			return i
		}
	}
	return -1
}

func sameProperties(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

// Clone создает глубокую копию снимка
func (s CartSnapshot) Clone() CartSnapshot {
	out := s
	out.Items = make([]CartItem, len(s.Items))
	for i := range s.Items {
		out.Items[i] = s.Items[i].Clone()
	}
	return out
}

// IsEmpty возвращает true, если в корзине нет строк
func (s CartSnapshot) IsEmpty() bool {
	return len(s.Items) == 0
}
