package normalizer

import (
	"encoding/json"
	"fmt"
	"strings"

	"ForexPulse/internal/domain/models"
	"ForexPulse/pkg/util"
)

type ffEvent struct {
	Title     string     `json:"title"`
	Country   string     `json:"country"`
	Date      string     `json:"date"`
	Timestamp flexInt    `json:"timestamp"`
	Impact    string     `json:"impact"`
	Actual    flexString `json:"actual"`
	Forecast  flexString `json:"forecast"`
	Previous  flexString `json:"previous"`
}

// parseForexFactory decodes the weekly calendar export. Events without any
// usable date are dropped; an epoch timestamp wins over the date string.
func parseForexFactory(payload []byte) ([]models.CalendarEvent, error) {
	var raw []ffEvent
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("decode calendar: %w", err)
	}

	out := make([]models.CalendarEvent, 0, len(raw))
	for _, e := range raw {
		title := strings.TrimSpace(e.Title)
		if title == "" {
			continue
		}
		ev := models.CalendarEvent{
			Title:    title,
			Country:  strings.TrimSpace(e.Country),
			Impact:   models.ParseImpact(e.Impact),
			Actual:   e.Actual.v,
			Forecast: e.Forecast.v,
			Previous: e.Previous.v,
		}
		if t, ok := util.FromEpoch(int64(e.Timestamp)); ok {
			ev.Time = t
		} else if t, ok := util.ParseTime(strings.TrimSpace(e.Date)); ok {
			ev.Time = t.UTC()
		} else {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}
