// Package render turns price series into charts and agent markdown into tables.
package render

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/phuslu/log"
	"github.com/wcharczuk/go-chart/v2"

	"FinAgent/internal/calculator"
	"FinAgent/internal/model"
)

// Renderer draws price charts and writes chart artifacts under OutputDir.
type Renderer struct {
	OutputDir string
	Width     int
	Height    int
	// SMAWindow adds a moving-average overlay when > 0.
	SMAWindow int
	// PDF enables the per-symbol PDF report.
	PDF bool
}

// NewRenderer creates a Renderer with the default 1024x576 canvas.
func NewRenderer(outputDir string) *Renderer {
	return &Renderer{OutputDir: outputDir, Width: 1024, Height: 576}
}

// PlotPath is where the static chart of symbol is written. The file always
// lands directly in OutputDir.
func (r *Renderer) PlotPath(symbol string) string {
	return filepath.Join(r.OutputDir, fileStem(symbol)+"_plot.png")
}

// ReportPath is where the PDF report of symbol is written.
func (r *Renderer) ReportPath(symbol string) string {
	return filepath.Join(r.OutputDir, fileStem(symbol)+"_report.pdf")
}

// fileStem replaces every rune that cannot appear in a ticker with '_', so
// path separators never reach the file name.
func fileStem(symbol string) string {
	stem := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune(".-=^&", r) {
			return r
		}
		return '_'
	}, symbol)
	if stem == "" {
		return "_"
	}
	return stem
}

func chartTitle(symbol string) string {
	return fmt.Sprintf("Stock Prices for %s Over Time", symbol)
}

// RenderInteractive returns a self-contained HTML page with a line chart of
// close price over time.
func (r *Renderer) RenderInteractive(series *model.PriceSeries) (string, error) {
	if series.Empty() {
		return "", &model.NoDataError{Symbol: symbolOf(series)}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: series.Symbol,
			Width:     fmt.Sprintf("%dpx", r.Width),
			Height:    fmt.Sprintf("%dpx", r.Height),
		}),
		charts.WithTitleOpts(opts.Title{Title: chartTitle(series.Symbol)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Date"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Price"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)

	dates := make([]string, len(series.Bars))
	closes := make([]opts.LineData, len(series.Bars))
	for i, b := range series.Bars {
		dates[i] = b.Time.Format("2006-01-02")
		closes[i] = opts.LineData{Value: b.Close}
	}
	line.SetXAxis(dates).AddSeries("Close", closes)

	if values, ok := r.overlay(series); values != nil {
		data := make([]opts.LineData, len(values))
		for i, v := range values {
			if ok[i] {
				data[i] = opts.LineData{Value: v}
			} else {
				data[i] = opts.LineData{Value: "-"}
			}
		}
		line.AddSeries(fmt.Sprintf("SMA %d", r.SMAWindow), data)
	}

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return "", fmt.Errorf("render interactive chart: %w", err)
	}
	return buf.String(), nil
}

// RenderStatic writes the chart as a PNG at path, creating the directory and
// replacing any existing file.
func (r *Renderer) RenderStatic(series *model.PriceSeries, path string) error {
	if series.Empty() {
		return &model.NoDataError{Symbol: symbolOf(series)}
	}

	xs := make([]time.Time, len(series.Bars))
	for i, b := range series.Bars {
		xs[i] = b.Time
	}
	ys := series.Closes()

	graph := chart.Chart{
		Title:  chartTitle(series.Symbol),
		Width:  r.Width,
		Height: r.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: chart.TimeDateValueFormatter,
			Range:          timeRange(xs),
		},
		YAxis: chart.YAxis{
			Name:  "Price",
			Range: priceRange(ys),
		},
		Series: []chart.Series{
			chart.TimeSeries{Name: "Close", XValues: xs, YValues: ys},
		},
	}

	if values, ok := r.overlay(series); values != nil {
		var mx []time.Time
		var my []float64
		for i, v := range values {
			if ok[i] {
				mx = append(mx, xs[i])
				my = append(my, v)
			}
		}
		if len(mx) > 0 {
			graph.Series = append(graph.Series, chart.TimeSeries{
				Name:    fmt.Sprintf("SMA %d", r.SMAWindow),
				XValues: mx,
				YValues: my,
				Style:   chart.Style{StrokeDashArray: []float64{5, 5}},
			})
		}
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return fmt.Errorf("render static chart: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.Debug().Str("symbol", series.Symbol).Str("path", path).Msg("plot saved")
	return nil
}

func (r *Renderer) overlay(series *model.PriceSeries) ([]float64, []bool) {
	if r.SMAWindow <= 0 || len(series.Bars) < r.SMAWindow {
		return nil, nil
	}
	values, ok, err := calculator.MovingAverage(series.Bars, r.SMAWindow)
	if err != nil {
		return nil, nil
	}
	return values, ok
}

// timeRange pads a single-day series so the axis has a non-zero span.
func timeRange(xs []time.Time) chart.Range {
	lo, hi := xs[0], xs[len(xs)-1]
	if !hi.After(lo) {
		lo = lo.AddDate(0, 0, -1)
		hi = hi.AddDate(0, 0, 1)
	}
	return &chart.ContinuousRange{Min: chart.TimeToFloat64(lo), Max: chart.TimeToFloat64(hi)}
}

func priceRange(ys []float64) chart.Range {
	lo, hi := ys[0], ys[0]
	for _, y := range ys {
		if y < lo {
			lo = y
		}
		if y > hi {
			hi = y
		}
	}
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = 1
		if lo != 0 {
			pad = lo * 0.01
			if pad < 0 {
				pad = -pad
			}
		}
	}
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func symbolOf(series *model.PriceSeries) string {
	if series == nil {
		return ""
	}
	return series.Symbol
}

// FormatSummary renders a trend summary as a single markdown line.
func FormatSummary(symbol string, s model.TrendSummary) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("**%s** trend summary: ", symbol))
	b.WriteString(fmt.Sprintf("mean %.2f, max %.2f, min %.2f", s.MeanPrice, s.MaxPrice, s.MinPrice))
	return b.String()
}

// ComparisonTable lays out two summaries side by side.
func ComparisonTable(a, b string, sa, sb model.TrendSummary) *model.Table {
	row := func(name string, x, y float64) []string {
		return []string{name, fmt.Sprintf("%.2f", x), fmt.Sprintf("%.2f", y)}
	}
	return &model.Table{
		Header: []string{"Metric", a, b},
		Rows: [][]string{
			row("Mean price", sa.MeanPrice, sb.MeanPrice),
			row("Max price", sa.MaxPrice, sb.MaxPrice),
			row("Min price", sa.MinPrice, sb.MinPrice),
		},
	}
}
