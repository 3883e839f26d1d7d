package render

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"

	"FinAgent/internal/model"
)

// RenderPDF writes a one-page report with the summary table and, when
// imagePath exists, the static chart.
func (r *Renderer) RenderPDF(series *model.PriceSeries, summary model.TrendSummary, imagePath, path string) error {
	if series.Empty() {
		return &model.NoDataError{Symbol: symbolOf(series)}
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "Report for "+series.Symbol, "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	first, last := series.Bars[0].Time, series.Last().Time
	pdf.CellFormat(0, 6, fmt.Sprintf("Period %s, %s to %s, %d bars",
		series.Period, first.Format("2006-01-02"), last.Format("2006-01-02"), len(series.Bars)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	rows := [][]string{
		{"Metric", "Value"},
		{"Mean price", fmt.Sprintf("%.2f", summary.MeanPrice)},
		{"Max price", fmt.Sprintf("%.2f", summary.MaxPrice)},
		{"Min price", fmt.Sprintf("%.2f", summary.MinPrice)},
		{"Last close", fmt.Sprintf("%.2f", series.Last().Close)},
	}
	for i, row := range rows {
		if i == 0 {
			pdf.SetFont("Arial", "B", 10)
			pdf.SetFillColor(230, 230, 230)
		} else {
			pdf.SetFont("Arial", "", 10)
			pdf.SetFillColor(255, 255, 255)
		}
		pdf.CellFormat(60, 7, row[0], "1", 0, "L", true, 0, "")
		pdf.CellFormat(40, 7, row[1], "1", 1, "R", true, 0, "")
	}
	pdf.Ln(6)

	if _, err := os.Stat(imagePath); err == nil {
		pdf.ImageOptions(imagePath, 10, pdf.GetY(), 190, 0, false,
			fpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}, 0, "")
	}

	pdf.SetY(-15)
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(0, 6, "Generated "+time.Now().UTC().Format(time.RFC3339), "", 0, "R", false, 0, "")

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
