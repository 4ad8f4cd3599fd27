package services

import (
	"context"
	"time"

	"tgreceiver/internal/models"
	"tgreceiver/internal/pdf"
	"tgreceiver/internal/repositories"
)

type ReportService struct {
	Outcomes repositories.OutcomeRepository
	Gen      pdf.Generator
}

func NewReportService(outcomes repositories.OutcomeRepository, gen pdf.Generator) *ReportService {
	return &ReportService{Outcomes: outcomes, Gen: gen}
}

func (s *ReportService) GetSummary(ctx context.Context) (map[string]int, error) {
	return s.Outcomes.CountByStatus(ctx)
}

func (s *ReportService) ListOutcomes(ctx context.Context, status string, limit, offset int) ([]*models.Outcome, error) {
	return s.Outcomes.ListRecent(ctx, status, limit, offset)
}

// GeneratePDF — PDF-отчёт для оператора: сводка + последние записи.
func (s *ReportService) GeneratePDF(ctx context.Context) (string, error) {
	counts, err := s.Outcomes.CountByStatus(ctx)
	if err != nil {
		return "", err
	}
	recent, err := s.Outcomes.ListRecent(ctx, "", 50, 0)
	if err != nil {
		return "", err
	}

	data := pdf.ReportData{
		GeneratedAt: time.Now(),
		Counts:      counts,
	}
	for _, o := range recent {
		data.Rows = append(data.Rows, pdf.ReportRow{
			UserID:       o.UserID,
			Phone:        o.Phone,
			Status:       string(o.Status),
			BalanceAdded: o.BalanceAdded,
			CreatedAt:    o.CreatedAt,
		})
	}
	return s.Gen.GenerateVerificationReport(data)
}
