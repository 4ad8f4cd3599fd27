package services

import (
	"context"
	"fmt"

	"tgreceiver/internal/provider"
)

// ExportService выгружает строку сессии. Строка эквивалентна полному
// доступу к аккаунту: в логи не пишется, в БД не сохраняется.
type ExportService struct{}

func NewExportService() *ExportService {
	return &ExportService{}
}

func (s *ExportService) Export(ctx context.Context, client provider.Client) (string, error) {
	session, err := client.ExportSession(ctx)
	if err != nil {
		return "", fmt.Errorf("export session: %w", err)
	}
	if session == "" {
		return "", fmt.Errorf("export session: empty credential")
	}
	return session, nil
}
