package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Generator — интерфейс (удобно мокать в тестах)
type Generator interface {
	GenerateVerificationReport(data ReportData) (string, error)
}

type ReportGenerator struct {
	RootDir string // корень хранения, например "./files"
}

type ReportRow struct {
	UserID       int64
	Phone        string
	Status       string
	BalanceAdded float64
	CreatedAt    time.Time
}

type ReportData struct {
	GeneratedAt time.Time
	Counts      map[string]int
	Rows        []ReportRow
	Filename    string // имя файла (без путей); если пусто — сгенерируем
}

func NewReportGenerator(rootDir string) *ReportGenerator {
	return &ReportGenerator{RootDir: filepath.Clean(rootDir)}
}

func (g *ReportGenerator) GenerateVerificationReport(data ReportData) (string, error) {
	filename := data.Filename
	if filename == "" {
		filename = fmt.Sprintf("verifications_%s.pdf", data.GeneratedAt.Format("20060102_150405"))
	}
	absPath, err := g.ensureTarget(filename)
	if err != nil {
		return "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Verification report", false)
	pdf.SetAuthor("tgreceiver", false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	// ===== Заголовок
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "VERIFICATION REPORT", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 7, data.GeneratedAt.Format("02.01.2006 15:04"), "", 1, "C", false, 0, "")
	g.hr(pdf)

	// ===== Сводка по статусам
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, "Totals", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	for _, status := range []string{"pending", "verified", "rejected", "completed", "failed"} {
		pdf.CellFormat(0, 6, fmt.Sprintf("%-10s %d", status, data.Counts[status]), "", 1, "L", false, 0, "")
	}
	g.hr(pdf)

	// ===== Последние записи
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, "Recent outcomes", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(30, 6, "User", "B", 0, "L", false, 0, "")
	pdf.CellFormat(45, 6, "Phone", "B", 0, "L", false, 0, "")
	pdf.CellFormat(30, 6, "Status", "B", 0, "L", false, 0, "")
	pdf.CellFormat(25, 6, "Credit", "B", 0, "R", false, 0, "")
	pdf.CellFormat(40, 6, "Date", "B", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range data.Rows {
		pdf.CellFormat(30, 6, fmt.Sprintf("%d", row.UserID), "", 0, "L", false, 0, "")
		pdf.CellFormat(45, 6, row.Phone, "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, row.Status, "", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%.2f", row.BalanceAdded), "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, row.CreatedAt.Format("02.01.2006 15:04"), "", 1, "L", false, 0, "")
	}

	if err := pdf.OutputFileAndClose(absPath); err != nil {
		return "", fmt.Errorf("write pdf: %w", err)
	}
	return absPath, nil
}

func (g *ReportGenerator) ensureTarget(filename string) (string, error) {
	dir := filepath.Join(g.RootDir, "reports")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create reports dir: %w", err)
	}
	return filepath.Join(dir, filepath.Base(filename)), nil
}

func (g *ReportGenerator) hr(pdf *gofpdf.Fpdf) {
	pdf.Ln(2)
	x, y := pdf.GetXY()
	pdf.Line(x, y, 190, y)
	pdf.Ln(4)
}
