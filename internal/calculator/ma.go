package calculator

import (
	"errors"

	"FinAgent/internal/model"
)

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// MovingAverage returns the rolling SMA of closes aligned with bars.
// Entries before the first full window are reported as not ok.
func MovingAverage(bars []model.OHLCV, window int) (values []float64, ok []bool, err error) {
	if window <= 0 {
		return nil, nil, errors.New("window must be positive")
	}
	closes := extractCloses(bars)
	values = make([]float64, len(closes))
	ok = make([]bool, len(closes))
	for i := window - 1; i < len(closes); i++ {
		v, err := CalculateSMA(closes[:i+1], window)
		if err != nil {
			return nil, nil, err
		}
		values[i] = v
		ok[i] = true
	}
	return values, ok, nil
}

func extractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
