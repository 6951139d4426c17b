package analytics

import (
	"ForexPulse/internal/domain/models"
	"ForexPulse/internal/services/features"
)

const (
	FastWindow = 20
	SlowWindow = 50
	// MinForecastSamples is the fewest closes a symbol needs before it gets a bias.
	MinForecastSamples = SlowWindow
)

// ComputeBias compares SMA20 with SMA50 at the last point of the series.
// A series shorter than MinForecastSamples yields an InsufficientData error.
func ComputeBias(s models.Series) (models.ForecastResult, error) {
	closes := s.Closes()
	if len(closes) < MinForecastSamples {
		return models.ForecastResult{}, models.NewFetchError(models.InsufficientData, s.Symbol, "need at least 50 closes", nil)
	}
	fast, _ := features.LastSMA(closes, FastWindow)
	slow, _ := features.LastSMA(closes, SlowWindow)

	bias := models.Neutral
	switch {
	case fast > slow:
		bias = models.Bullish
	case fast < slow:
		bias = models.Bearish
	}
	last, _ := s.Last()
	return models.ForecastResult{
		Symbol: s.Symbol,
		Bias:   bias,
		Last:   last.Price,
		SMA20:  round(fast),
		SMA50:  round(slow),
		AsOf:   last.AsOf,
	}, nil
}

// Forecasts computes a bias for every series with enough data, in series order.
func Forecasts(series []models.Series) []models.ForecastResult {
	out := make([]models.ForecastResult, 0, len(series))
	for _, s := range series {
		f, err := ComputeBias(s)
		if err != nil {
			continue
		}
		out = append(out, f)
	}
	return out
}
