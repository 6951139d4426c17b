package models

import (
	"time"

	"ForexPulse/pkg/util"
)

type NewsItem struct {
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"date"`
}

// Fingerprint is the dedup key: folded title followed by the link.
func (n NewsItem) Fingerprint() string {
	return util.Fold(n.Title) + n.Link
}
