// Package validation содержит проверки пользовательского ввода
package validation

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

const maxEmailLength = 254 // RFC 5321

var (
	ErrEmailEmpty   = errors.New("email cannot be empty")
	ErrEmailTooLong = fmt.Errorf("email cannot be longer than %d characters", maxEmailLength)
	ErrEmailInvalid = errors.New("invalid email format")
)

// ValidateEmail проверяет, что строка является корректным email адресом
func ValidateEmail(email string) error {
	if email == "" {
		return ErrEmailEmpty
	}
	if len(email) > maxEmailLength {
		return ErrEmailTooLong
	}

	addr, err := mail.ParseAddress(email)
	if err != nil {
		return ErrEmailInvalid
	}
	// ParseAddress принимает формы вида "Name <user@host>", нам нужен голый адрес
	if addr.Address != email {
		return ErrEmailInvalid
	}
	if !strings.Contains(email, ".") {
		return ErrEmailInvalid
	}

	return nil
}

// NormalizeEmail приводит email к каноническому виду для сравнения и хранения
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
