package calculator

import (
	"math"

	"FinAgent/internal/model"
)

// Summarize computes mean, max and min of the close prices in series.
// An empty series yields *model.NoDataError.
func Summarize(series *model.PriceSeries) (model.TrendSummary, error) {
	if series.Empty() {
		symbol := ""
		if series != nil {
			symbol = series.Symbol
		}
		return model.TrendSummary{}, &model.NoDataError{Symbol: symbol}
	}

	high := math.Inf(-1)
	low := math.Inf(1)
	sum := 0.0
	for _, c := range extractCloses(series.Bars) {
		sum += c
		if c > high {
			high = c
		}
		if c < low {
			low = c
		}
	}
	mean := sum / float64(len(series.Bars))

	// Float rounding can push the mean a hair outside [low, high] on flat series.
	mean = math.Min(math.Max(mean, low), high)

	return model.TrendSummary{MeanPrice: mean, MaxPrice: high, MinPrice: low}, nil
}
