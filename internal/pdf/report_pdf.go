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
	GenerateSummary(data SummaryData) (string, error)
}

// ReportGenerator renders pipeline statistics into a one-page PDF summary.
type ReportGenerator struct {
	RootDir string // корень хранения, например "./files"
}

type SummaryRow struct {
	StageLabel string
	Count      int
}

type SummaryData struct {
	Kind             string
	Scope            string
	GeneratedAt      time.Time
	Rows             []SummaryRow
	TotalValue       string
	ConversionRate   float64
	AvgDaysToConvert *float64
	PendingCount     int
	Filename         string // имя файла (без путей); если пусто — сгенерируем
}

func NewReportGenerator(rootDir string) *ReportGenerator {
	return &ReportGenerator{RootDir: filepath.Clean(rootDir)}
}

func (g *ReportGenerator) GenerateSummary(data SummaryData) (string, error) {
	filename := data.Filename
	if filename == "" {
		filename = fmt.Sprintf("pipeline_%s_%s_%s.pdf", data.Kind, data.Scope,
			data.GeneratedAt.Format("20060102_150405"))
	}
	absPath, err := g.ensureTarget(filename)
	if err != nil {
		return "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Pipeline summary", false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "PIPELINE SUMMARY", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	sub := fmt.Sprintf("%s / scope %s / %s", data.Kind, data.Scope,
		data.GeneratedAt.Format("02.01.2006 15:04"))
	pdf.CellFormat(0, 7, sub, "", 1, "C", false, 0, "")
	g.hr(pdf)
	pdf.Ln(3)

	g.sectionTitle(pdf, "Per stage")
	for _, row := range data.Rows {
		g.kvLine(pdf, row.StageLabel, fmt.Sprintf("%d", row.Count))
	}
	pdf.Ln(2)
	g.hr(pdf)

	g.sectionTitle(pdf, "Aggregates")
	g.kvLine(pdf, "Total estimated value", data.TotalValue)
	g.kvLine(pdf, "Conversion rate", fmt.Sprintf("%.1f%%", data.ConversionRate))
	if data.AvgDaysToConvert != nil {
		g.kvLine(pdf, "Avg days to convert", fmt.Sprintf("%.1f", *data.AvgDaysToConvert))
	} else {
		g.kvLine(pdf, "Avg days to convert", "—")
	}
	g.kvLine(pdf, "Pending", fmt.Sprintf("%d", data.PendingCount))

	if err := pdf.OutputFileAndClose(absPath); err != nil {
		return "", fmt.Errorf("write pdf: %w", err)
	}
	return absPath, nil
}

func (g *ReportGenerator) ensureTarget(filename string) (string, error) {
	if err := os.MkdirAll(g.RootDir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", g.RootDir, err)
	}
	return filepath.Join(g.RootDir, filepath.Base(filename)), nil
}

func (g *ReportGenerator) sectionTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
}

func (g *ReportGenerator) kvLine(pdf *gofpdf.Fpdf, key, value string) {
	pdf.CellFormat(70, 7, key, "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 7, value, "", 1, "L", false, 0, "")
}

func (g *ReportGenerator) hr(pdf *gofpdf.Fpdf) {
	x, y := pdf.GetXY()
	pdf.SetDrawColor(180, 180, 180)
	pdf.Line(20, y, 190, y)
	pdf.SetXY(x, y+2)
}
