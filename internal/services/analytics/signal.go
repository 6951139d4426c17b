package analytics

import (
	"math"

	"ForexPulse/internal/domain/models"
	"ForexPulse/internal/domain/service"
	"ForexPulse/internal/services/features"

	"github.com/shopspring/decimal"
)

const (
	StrategyMomentum = "momentum"
	StrategySession  = "session"

	pricePlaces = 5
)

// BandConfig holds the fixed percentage bands around the last price.
// These are placeholder heuristics, not a calibrated model.
type BandConfig struct {
	EntryPct    float64 // half-width of the entry zone, 0.002 = 0.2%
	TargetPct   float64 // distance of target and invalidation, 0.006 = 0.6%
	ScoreScale  float64 // score points per 1% move, capped at 100
	RangeEpsPct float64 // |change%| at or below this is Range; 0 means exact equality only
}

var DefaultBands = BandConfig{EntryPct: 0.002, TargetPct: 0.006, ScoreScale: 100}

// MomentumStrategy compares the last price with the price Lookback samples earlier.
type MomentumStrategy struct {
	Lookback int
	Bands    BandConfig
}

func NewMomentumStrategy(lookback int, bands BandConfig) *MomentumStrategy {
	if lookback <= 0 {
		lookback = 6
	}
	return &MomentumStrategy{Lookback: lookback, Bands: bands}
}

func (m *MomentumStrategy) Name() string { return StrategyMomentum }

func (m *MomentumStrategy) Compute(cur, _ models.Series) (models.SignalResult, bool) {
	closes := cur.Closes()
	if len(closes) <= m.Lookback {
		return models.SignalResult{}, false
	}
	last := cur.Points[len(cur.Points)-1]
	ref := closes[len(closes)-1-m.Lookback]
	return buildSignal(cur.Symbol, m.Name(), last, features.PctChange(ref, last.Price), m.Bands), true
}

// SessionStrategy compares the last price with the last price of the previous snapshot.
// Symbols without a previous snapshot are omitted.
type SessionStrategy struct {
	Bands BandConfig
}

func NewSessionStrategy(bands BandConfig) *SessionStrategy {
	return &SessionStrategy{Bands: bands}
}

func (s *SessionStrategy) Name() string { return StrategySession }

func (s *SessionStrategy) Compute(cur, prev models.Series) (models.SignalResult, bool) {
	last, ok := cur.Last()
	if !ok {
		return models.SignalResult{}, false
	}
	before, ok := prev.Last()
	if !ok {
		return models.SignalResult{}, false
	}
	return buildSignal(cur.Symbol, s.Name(), last, features.PctChange(before.Price, last.Price), s.Bands), true
}

// NewStrategy returns the strategy registered under name, defaulting to momentum.
func NewStrategy(name string, lookback int, bands BandConfig) service.SignalStrategy {
	if name == StrategySession {
		return NewSessionStrategy(bands)
	}
	return NewMomentumStrategy(lookback, bands)
}

// Signals runs strategy over every current series, in series order.
func Signals(strategy service.SignalStrategy, cur, prev models.MarketSnapshot) []models.SignalResult {
	out := make([]models.SignalResult, 0, len(cur.Series))
	for _, s := range cur.Series {
		p, _ := prev.SeriesFor(s.Symbol)
		if res, ok := strategy.Compute(s, p); ok {
			out = append(out, res)
		}
	}
	return out
}

func buildSignal(symbol, strategy string, last models.QuotePoint, pct float64, b BandConfig) models.SignalResult {
	dir := models.Range
	switch {
	case pct > b.RangeEpsPct:
		dir = models.Up
	case pct < -b.RangeEpsPct:
		dir = models.Down
	}

	price := decimal.NewFromFloat(last.Price)
	one := decimal.NewFromInt(1)
	entry := decimal.NewFromFloat(b.EntryPct)
	band := decimal.NewFromFloat(b.TargetPct)

	res := models.SignalResult{
		Symbol:    symbol,
		Strategy:  strategy,
		Direction: dir,
		Last:      last.Price,
		ChangePct: round(pct),
		EntryLow:  toFloat(price.Mul(one.Sub(entry))),
		EntryHigh: toFloat(price.Mul(one.Add(entry))),
		AsOf:      last.AsOf,
	}
	up := toFloat(price.Mul(one.Add(band)))
	down := toFloat(price.Mul(one.Sub(band)))
	switch dir {
	case models.Up:
		res.Target, res.Invalidation = &up, &down
	case models.Down:
		res.Target, res.Invalidation = &down, &up
	}

	scale := b.ScoreScale
	if scale <= 0 {
		scale = DefaultBands.ScoreScale
	}
	res.Score = math.Min(100, round(math.Abs(pct)*scale))
	res.Confidence = ConfidenceLabel(res.Score)
	return res
}

// ConfidenceLabel buckets a 0-100 score.
func ConfidenceLabel(score float64) models.Confidence {
	switch {
	case score >= 66:
		return models.ConfidenceHigh
	case score >= 33:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Round(pricePlaces).Float64()
	return f
}

func round(f float64) float64 {
	return toFloat(decimal.NewFromFloat(f))
}
