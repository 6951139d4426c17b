package models

import "time"

type QuotePoint struct {
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	AsOf   time.Time `json:"as_of"`
}

// Series is the retained price history for one symbol, ascending by AsOf.
type Series struct {
	Symbol string       `json:"symbol"`
	Points []QuotePoint `json:"points"`
}

// Closes returns the prices of the series in order.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Price
	}
	return out
}

// Last returns the newest point, or false on an empty series.
func (s Series) Last() (QuotePoint, bool) {
	if len(s.Points) == 0 {
		return QuotePoint{}, false
	}
	return s.Points[len(s.Points)-1], true
}

type Bias string

const (
	Bullish Bias = "Bullish"
	Bearish Bias = "Bearish"
	Neutral Bias = "Neutral"
)

type ForecastResult struct {
	Symbol string    `json:"symbol"`
	Bias   Bias      `json:"bias"`
	Last   float64   `json:"last"`
	SMA20  float64   `json:"sma20"`
	SMA50  float64   `json:"sma50"`
	AsOf   time.Time `json:"as_of"`
}

type Direction string

const (
	Up    Direction = "Up"
	Down  Direction = "Down"
	Range Direction = "Range"
)

type Confidence string

const (
	ConfidenceLow    Confidence = "Low"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceHigh   Confidence = "High"
)

type SignalResult struct {
	Symbol       string     `json:"symbol"`
	Strategy     string     `json:"strategy"`
	Direction    Direction  `json:"direction"`
	Last         float64    `json:"last"`
	ChangePct    float64    `json:"change_pct"`
	EntryLow     float64    `json:"entry_low"`
	EntryHigh    float64    `json:"entry_high"`
	Target       *float64   `json:"target"`
	Invalidation *float64   `json:"invalidation"`
	Confidence   Confidence `json:"confidence"`
	Score        float64    `json:"score"`
	AsOf         time.Time  `json:"as_of"`
}

// MarketSnapshot is the committed value of the quote slot.
type MarketSnapshot struct {
	Series    []Series         `json:"series"`
	Forecasts []ForecastResult `json:"forecasts"`
	Signals   []SignalResult   `json:"signals"`
}

// SeriesFor returns the series for symbol, if present.
func (m MarketSnapshot) SeriesFor(symbol string) (Series, bool) {
	for _, s := range m.Series {
		if s.Symbol == symbol {
			return s, true
		}
	}
	return Series{}, false
}
