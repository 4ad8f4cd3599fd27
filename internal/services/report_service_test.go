package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tgreceiver/internal/models"
	"tgreceiver/internal/pdf"
)

type stubGenerator struct {
	last pdf.ReportData
	path string
}

func (g *stubGenerator) GenerateVerificationReport(data pdf.ReportData) (string, error) {
	g.last = data
	return g.path, nil
}

func TestReportService_GeneratePDF(t *testing.T) {
	outcomes := &stubOutcomes{rows: []*models.Outcome{
		{UserID: 42, Phone: testPhone, Status: models.StatusVerified, BalanceAdded: 5, CreatedAt: time.Now()},
		{UserID: 43, Phone: "+15550000001", Status: models.StatusRejected, CreatedAt: time.Now()},
	}}
	gen := &stubGenerator{path: "/tmp/report.pdf"}
	svc := NewReportService(outcomes, gen)

	path, err := svc.GeneratePDF(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/tmp/report.pdf", path)

	assert.Equal(t, 1, gen.last.Counts["verified"])
	assert.Equal(t, 1, gen.last.Counts["rejected"])
	require.Len(t, gen.last.Rows, 2)
	assert.Equal(t, testPhone, gen.last.Rows[0].Phone)
	assert.Equal(t, "verified", gen.last.Rows[0].Status)
}

func TestReportService_GetSummary(t *testing.T) {
	outcomes := &stubOutcomes{rows: []*models.Outcome{
		{Status: models.StatusPending},
		{Status: models.StatusPending},
		{Status: models.StatusFailed},
	}}
	svc := NewReportService(outcomes, &stubGenerator{})

	counts, err := svc.GetSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"pending": 2, "failed": 1}, counts)
}
