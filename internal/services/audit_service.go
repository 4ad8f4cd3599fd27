package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"tgreceiver/internal/config"
	"tgreceiver/internal/models"
	"tgreceiver/internal/repositories"
)

// AuditSink — приёмник итоговых записей: документ в канал + строка в БД.
type AuditSink interface {
	Submit(ctx context.Context, o models.Outcome) error
}

type AuditService struct {
	Notifier Notifier
	Repo     repositories.OutcomeRepository
	Channels config.TelegramConfig
}

func NewAuditService(notifier Notifier, repo repositories.OutcomeRepository, channels config.TelegramConfig) *AuditService {
	return &AuditService{Notifier: notifier, Repo: repo, Channels: channels}
}

// channelFor — pending в канал заявок, verified/completed в канал
// подтверждённых, rejected/failed — в канал отклонённых.
func (s *AuditService) channelFor(status models.OutcomeStatus) int64 {
	switch status {
	case models.StatusPending:
		return s.Channels.PendingChannel
	case models.StatusVerified, models.StatusCompleted:
		return s.Channels.VerifiedChannel
	default:
		return s.Channels.RejectedChannel
	}
}

func (s *AuditService) Submit(ctx context.Context, o models.Outcome) error {
	// сперва строка в БД — канал уже best-effort поверх неё
	if s.Repo != nil {
		if err := s.Repo.Create(ctx, &o); err != nil {
			return fmt.Errorf("persist outcome: %w", err)
		}
	}

	data, err := json.MarshalIndent(o, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal outcome: %w", err)
	}

	channel := s.channelFor(o.Status)
	if err := s.Notifier.SendDocument(channel, o.FileName(), data, o.Caption()); err != nil {
		return fmt.Errorf("send to channel %d: %w", channel, err)
	}
	log.Printf("[audit][submit] status=%s user_id=%d phone=%s channel=%d", o.Status, o.UserID, o.Phone, channel)
	return nil
}
