package normalizer

import (
	"encoding/json"
	"errors"
	"fmt"

	"ForexPulse/internal/domain/models"
	"ForexPulse/pkg/util"
)

type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// parseYahooChart reads timestamp/close pairs. Null and non-positive closes are skipped.
func parseYahooChart(symbol string, payload []byte) ([]models.QuotePoint, error) {
	var doc yahooChart
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("decode chart: %w", err)
	}
	if doc.Chart.Error != nil {
		return nil, fmt.Errorf("chart error %s: %s", doc.Chart.Error.Code, doc.Chart.Error.Description)
	}
	if len(doc.Chart.Result) == 0 {
		return nil, errors.New("chart has no result")
	}
	res := doc.Chart.Result[0]
	if len(res.Indicators.Quote) == 0 {
		return nil, errors.New("chart has no quote indicator")
	}
	closes := res.Indicators.Quote[0].Close

	n := len(res.Timestamp)
	if len(closes) < n {
		n = len(closes)
	}
	out := make([]models.QuotePoint, 0, n)
	for i := 0; i < n; i++ {
		c := closes[i]
		if c == nil || *c <= 0 {
			continue
		}
		at, ok := util.FromEpoch(res.Timestamp[i])
		if !ok {
			continue
		}
		out = append(out, models.QuotePoint{Symbol: symbol, Price: *c, AsOf: at})
	}
	return out, nil
}
