package services

import (
	"context"
	"fmt"

	"tgreceiver/internal/provider"
)

// Политика: любая вторая активная сессия на аккаунте — фрод, без порогов.
const maxAllowedSessions = 1

type FraudService struct{}

func NewFraudService() *FraudService {
	return &FraudService{}
}

// CheckSessions возвращает число активных сессий аккаунта.
func (s *FraudService) CheckSessions(ctx context.Context, client provider.Client) (int, error) {
	count, err := client.ActiveSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("active sessions: %w", err)
	}
	return count, nil
}

// IsMultiSession — решение политики по результату CheckSessions.
func (s *FraudService) IsMultiSession(count int) bool {
	return count > maxAllowedSessions
}
