package services

import (
	"context"
	"fmt"

	"tgreceiver/internal/provider"
)

// TwoFAService ставит на верифицированный аккаунт фиксированный облачный
// пароль. Вызов не идемпотентен: повтор на аккаунте с паролем упадёт,
// ретраев нет.
type TwoFAService struct {
	Password string
	Hint     string
}

func NewTwoFAService(password, hint string) *TwoFAService {
	return &TwoFAService{Password: password, Hint: hint}
}

func (s *TwoFAService) Enroll(ctx context.Context, client provider.Client) error {
	if err := client.SetPassword(ctx, s.Password, s.Hint); err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	return nil
}
