package validation

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// ItemIDPattern определяет допустимый формат идентификатора варианта
// Латинские буквы, цифры и символы _ . : -
var ItemIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_.:\-]+$`)

const (
	// MaxItemIDLen максимальная длина идентификатора варианта
	MaxItemIDLen = 64
	// MaxProperties максимальное число свойств строки
	MaxProperties = 20
	// MaxPropertyNameLen максимальная длина имени свойства
	MaxPropertyNameLen = 64
	// MaxPropertyValueLen максимальная длина значения свойства в символах
	MaxPropertyValueLen = 255
)

// FieldError ошибка проверки одного поля строки корзины
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidateItemID проверяет идентификатор варианта
func ValidateItemID(id string) error {
	if id == "" {
		return &FieldError{Field: "id", Message: "item id is required"}
	}

	if len(id) > MaxItemIDLen {
		return &FieldError{Field: "id", Message: fmt.Sprintf("item id must not exceed %d characters", MaxItemIDLen)}
	}

	if !ItemIDPattern.MatchString(id) {
		return &FieldError{Field: "id", Message: "item id can only contain letters, numbers and _ . : -"}
	}

	return nil
}

// ValidateQuantity проверяет количество добавляемого товара: минимум 1
func ValidateQuantity(quantity int) error {
	if quantity < 1 {
		return &FieldError{Field: "quantity", Message: fmt.Sprintf("quantity must be positive, got %d", quantity)}
	}
	return nil
}

// ValidatePrice проверяет цену за единицу в минорных единицах
func ValidatePrice(price int64) error {
	if price < 0 {
		return &FieldError{Field: "price", Message: fmt.Sprintf("price must not be negative, got %d", price)}
	}
	return nil
}

// ValidateProperties проверяет свойства строки
func ValidateProperties(props map[string]string) error {
	if len(props) > MaxProperties {
		return &FieldError{Field: "properties", Message: fmt.Sprintf("at most %d properties are allowed", MaxProperties)}
	}

	for name, value := range props {
		if name == "" {
			return &FieldError{Field: "properties", Message: "property name cannot be empty"}
		}
		if len(name) > MaxPropertyNameLen {
			return &FieldError{Field: "properties", Message: fmt.Sprintf("property name must not exceed %d characters", MaxPropertyNameLen)}
		}
		if utf8.RuneCountInString(value) > MaxPropertyValueLen {
			return &FieldError{Field: "properties", Message: fmt.Sprintf("property %s must not exceed %d characters", name, MaxPropertyValueLen)}
		}
	}

	return nil
}

// ValidateLine проверяет добавляемую строку целиком.
// Возвращает первую найденную ошибку в порядке: id, quantity, price, properties.
func ValidateLine(id string, quantity int, price int64, props map[string]string) error {
	if err := ValidateItemID(id); err != nil {
		return err
	}
	if err := ValidateQuantity(quantity); err != nil {
		return err
	}
	if err := ValidatePrice(price); err != nil {
		return err
	}
	return ValidateProperties(props)
}
