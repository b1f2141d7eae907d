package domain

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IDSuffixLength — длина короткого кода заказа, который видит покупатель.
const IDSuffixLength = 6

// NewID генерирует идентификатор сущности в формате ObjectID (24 hex-символа).
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// IsValidID проверяет, что строка является корректным ObjectID.
func IsValidID(id string) bool {
	return len(id) == 24 && primitive.IsValidObjectID(id)
}

// NormalizeID приводит идентификатор к нижнему регистру и проверяет формат.
func NormalizeID(id string) (string, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	if !IsValidID(id) {
		return "", ErrInvalidID
	}
	return id, nil
}

// IsHex проверяет, что строка состоит только из hex-символов.
func IsHex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

// IDSuffix возвращает последние символы идентификатора в нижнем регистре.
func IDSuffix(id string) string {
	id = strings.ToLower(id)
	if len(id) <= IDSuffixLength {
		return id
	}
	return id[len(id)-IDSuffixLength:]
}
