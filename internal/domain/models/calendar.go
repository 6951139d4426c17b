package models

import (
	"encoding/json"
	"strings"
	"time"
)

type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// ParseImpact maps upstream labels onto the three known levels. Anything unrecognised is low.
func ParseImpact(s string) Impact {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return ImpactHigh
	case "medium":
		return ImpactMedium
	default:
		return ImpactLow
	}
}

// CalendarEvent is a scheduled macro release. Missing optional values stay nil and serialise as null.
type CalendarEvent struct {
	Title    string
	Country  string
	Impact   Impact
	Time     time.Time
	Actual   *string
	Forecast *string
	Previous *string
}

func (e CalendarEvent) Fingerprint() string {
	return e.Title + "|" + e.Time.UTC().Format(time.RFC3339)
}

type calendarEventJSON struct {
	Title     string  `json:"title"`
	Country   string  `json:"country"`
	Impact    Impact  `json:"impact"`
	Date      string  `json:"date"`
	Timestamp int64   `json:"timestamp"`
	Actual    *string `json:"actual"`
	Forecast  *string `json:"forecast"`
	Previous  *string `json:"previous"`
}

func (e CalendarEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(calendarEventJSON{
		Title:     e.Title,
		Country:   e.Country,
		Impact:    e.Impact,
		Date:      e.Time.UTC().Format(time.RFC3339),
		Timestamp: e.Time.Unix(),
		Actual:    e.Actual,
		Forecast:  e.Forecast,
		Previous:  e.Previous,
	})
}

func (e *CalendarEvent) UnmarshalJSON(b []byte) error {
	var raw calendarEventJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*e = CalendarEvent{
		Title:    raw.Title,
		Country:  raw.Country,
		Impact:   ParseImpact(string(raw.Impact)),
		Actual:   raw.Actual,
		Forecast: raw.Forecast,
		Previous: raw.Previous,
	}
	if raw.Timestamp > 0 {
		e.Time = time.Unix(raw.Timestamp, 0).UTC()
	} else if t, err := time.Parse(time.RFC3339, raw.Date); err == nil {
		e.Time = t.UTC()
	}
	return nil
}
