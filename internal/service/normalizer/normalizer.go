package normalizer

import (
	"fmt"

	"ForexPulse/internal/domain/models"
)

// Normalizer maps raw payloads to canonical items. It is stateless and safe for concurrent use.
// Every error it returns is a *models.FetchError of kind MalformedPayload.
type Normalizer struct{}

func New() *Normalizer { return &Normalizer{} }

// News parses a news payload according to src.Parser and applies the per-source cap.
func (n *Normalizer) News(src models.Source, raw models.RawFetchResult) ([]models.NewsItem, error) {
	var (
		items []models.NewsItem
		err   error
	)
	switch src.Parser {
	case models.ParserRSS, "":
		items, err = parseFeed(src, raw)
	case models.ParserJSONNews:
		items, err = parseJSONNews(src, raw)
	default:
		return nil, malformed(src, fmt.Errorf("parser %q cannot produce news", src.Parser))
	}
	if err != nil {
		return nil, malformed(src, err)
	}
	if src.MaxItems > 0 && len(items) > src.MaxItems {
		items = items[:src.MaxItems]
	}
	return items, nil
}

// Events parses a calendar payload.
func (n *Normalizer) Events(src models.Source, raw models.RawFetchResult) ([]models.CalendarEvent, error) {
	switch src.Parser {
	case models.ParserForexFactory, "":
		events, err := parseForexFactory(raw.Payload)
		if err != nil {
			return nil, malformed(src, err)
		}
		return events, nil
	default:
		return nil, malformed(src, fmt.Errorf("parser %q cannot produce events", src.Parser))
	}
}

// Quotes parses a price history payload for src.Symbol.
func (n *Normalizer) Quotes(src models.Source, raw models.RawFetchResult) ([]models.QuotePoint, error) {
	switch src.Parser {
	case models.ParserYahooChart, "":
		points, err := parseYahooChart(src.Symbol, raw.Payload)
		if err != nil {
			return nil, malformed(src, err)
		}
		return points, nil
	default:
		return nil, malformed(src, fmt.Errorf("parser %q cannot produce quotes", src.Parser))
	}
}

func malformed(src models.Source, err error) error {
	return models.NewFetchError(models.MalformedPayload, src.ID, "", err)
}
