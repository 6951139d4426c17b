package analytics

import (
	"testing"
	"time"

	"ForexPulse/internal/domain/models"
)

var t0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func series(symbol string, prices ...float64) models.Series {
	pts := make([]models.QuotePoint, len(prices))
	for i, p := range prices {
		pts[i] = models.QuotePoint{Symbol: symbol, Price: p, AsOf: t0.Add(time.Duration(i) * time.Hour)}
	}
	return models.Series{Symbol: symbol, Points: pts}
}

func ramp(from, to int) []float64 {
	var out []float64
	if from <= to {
		for i := from; i <= to; i++ {
			out = append(out, float64(i))
		}
	} else {
		for i := from; i >= to; i-- {
			out = append(out, float64(i))
		}
	}
	return out
}

func TestComputeBiasBullishOnRisingSeries(t *testing.T) {
	f, err := ComputeBias(series("EURUSD", ramp(1, 60)...))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Bias != models.Bullish {
		t.Fatalf("bias = %s, want Bullish", f.Bias)
	}
	if f.SMA20 != 50.5 || f.SMA50 != 35.5 || f.Last != 60 {
		t.Fatalf("unexpected values %+v", f)
	}
}

func TestComputeBiasBearishAndNeutral(t *testing.T) {
	f, err := ComputeBias(series("X", ramp(60, 1)...))
	if err != nil || f.Bias != models.Bearish {
		t.Fatalf("falling series: %+v %v", f, err)
	}

	flat := make([]float64, 55)
	for i := range flat {
		flat[i] = 1.1
	}
	f, err = ComputeBias(series("Y", flat...))
	if err != nil || f.Bias != models.Neutral {
		t.Fatalf("flat series: %+v %v", f, err)
	}
}

func TestComputeBiasInsufficientData(t *testing.T) {
	_, err := ComputeBias(series("X", ramp(1, 49)...))
	if models.ErrorKind(err) != models.InsufficientData {
		t.Fatalf("expected InsufficientData, got %v", err)
	}
}

func TestForecastsOmitsShortSeries(t *testing.T) {
	out := Forecasts([]models.Series{
		series("A", ramp(1, 60)...),
		series("B", ramp(1, 10)...),
		series("C", ramp(60, 1)...),
	})
	if len(out) != 2 || out[0].Symbol != "A" || out[1].Symbol != "C" {
		t.Fatalf("unexpected forecasts %+v", out)
	}
}

func TestMomentumUpBands(t *testing.T) {
	s := NewMomentumStrategy(6, DefaultBands)
	res, ok := s.Compute(series("EURUSD", 1.0, 1.0, 1.0, 1.0, 1.0, 1.0, 1.0, 1.0, 1.005), models.Series{})
	if !ok {
		t.Fatalf("expected a signal")
	}
	if res.Direction != models.Up {
		t.Fatalf("direction = %s", res.Direction)
	}
	if res.EntryLow != 1.00299 || res.EntryHigh != 1.00701 {
		t.Fatalf("entry zone = [%v, %v]", res.EntryLow, res.EntryHigh)
	}
	if res.Target == nil || *res.Target != 1.01103 {
		t.Fatalf("target = %v", res.Target)
	}
	if res.Invalidation == nil || *res.Invalidation != 0.99897 {
		t.Fatalf("invalidation = %v", res.Invalidation)
	}
	if res.ChangePct != 0.5 || res.Score != 50 || res.Confidence != models.ConfidenceMedium {
		t.Fatalf("pct=%v score=%v conf=%s", res.ChangePct, res.Score, res.Confidence)
	}
}

func TestMomentumDownSwapsBands(t *testing.T) {
	s := NewMomentumStrategy(2, DefaultBands)
	res, ok := s.Compute(series("X", 100, 100, 99), models.Series{})
	if !ok || res.Direction != models.Down {
		t.Fatalf("unexpected %+v", res)
	}
	if *res.Target != 98.406 || *res.Invalidation != 99.594 {
		t.Fatalf("target=%v invalidation=%v", *res.Target, *res.Invalidation)
	}
	if res.Score != 100 || res.Confidence != models.ConfidenceHigh {
		t.Fatalf("score=%v conf=%s", res.Score, res.Confidence)
	}
}

func TestMomentumRangeHasNoTarget(t *testing.T) {
	s := NewMomentumStrategy(2, DefaultBands)
	res, ok := s.Compute(series("X", 5, 7, 5), models.Series{})
	if !ok || res.Direction != models.Range {
		t.Fatalf("unexpected %+v", res)
	}
	if res.Target != nil || res.Invalidation != nil {
		t.Fatalf("range signal must not carry target/invalidation")
	}
	if res.Confidence != models.ConfidenceLow {
		t.Fatalf("confidence = %s", res.Confidence)
	}
}

func TestMomentumNeedsLookback(t *testing.T) {
	s := NewMomentumStrategy(6, DefaultBands)
	if _, ok := s.Compute(series("X", 1, 2, 3, 4, 5, 6), models.Series{}); ok {
		t.Fatalf("six points cannot look back six samples")
	}
}

func TestSessionComparesWithPreviousSnapshot(t *testing.T) {
	s := NewSessionStrategy(DefaultBands)
	if _, ok := s.Compute(series("X", 1, 2), models.Series{}); ok {
		t.Fatalf("no previous snapshot should omit the symbol")
	}
	res, ok := s.Compute(series("X", 100, 100.2), series("X", 100))
	if !ok || res.Direction != models.Up {
		t.Fatalf("unexpected %+v", res)
	}
	if res.Score != 20 || res.Confidence != models.ConfidenceLow {
		t.Fatalf("score=%v conf=%s", res.Score, res.Confidence)
	}
}

func TestSignalsKeepsSeriesOrder(t *testing.T) {
	cur := models.MarketSnapshot{Series: []models.Series{
		series("B", 1, 1, 2),
		series("A", 1),
		series("C", 3, 3, 1),
	}}
	out := Signals(NewMomentumStrategy(2, DefaultBands), cur, models.MarketSnapshot{})
	if len(out) != 2 || out[0].Symbol != "B" || out[1].Symbol != "C" {
		t.Fatalf("unexpected signals %+v", out)
	}
}

func TestNewStrategy(t *testing.T) {
	if NewStrategy("session", 6, DefaultBands).Name() != StrategySession {
		t.Fatalf("expected session strategy")
	}
	if NewStrategy("", 6, DefaultBands).Name() != StrategyMomentum {
		t.Fatalf("expected momentum by default")
	}
}
