package provider

import (
	"errors"
	"fmt"
)

var (
	ErrCodeInvalid        = errors.New("phone code invalid")
	ErrCodeExpired        = errors.New("phone code expired")
	ErrPasswordAlreadySet = errors.New("password already set")
)

// GatewayError — ошибка, которую шлюз вернул телом ответа.
type GatewayError struct {
	Code        string
	Description string
}

func (e *GatewayError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("gateway: %s (%s)", e.Code, e.Description)
	}
	return fmt.Sprintf("gateway: %s", e.Code)
}

// mapError переводит коды шлюза в sentinel-ошибки.
func mapError(code, description string) error {
	switch code {
	case "PHONE_CODE_INVALID":
		return ErrCodeInvalid
	case "PHONE_CODE_EXPIRED":
		return ErrCodeExpired
	case "PASSWORD_ALREADY_SET":
		return ErrPasswordAlreadySet
	default:
		return &GatewayError{Code: code, Description: description}
	}
}

// IsWrongCode — оба кода ("неверный" и "протухший") ретраябельны на месте.
func IsWrongCode(err error) bool {
	return errors.Is(err, ErrCodeInvalid) || errors.Is(err, ErrCodeExpired)
}
