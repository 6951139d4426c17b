package normalizer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ForexPulse/internal/domain/models"
	"ForexPulse/pkg/util"

	"github.com/mmcdole/gofeed"
)

// parseFeed handles RSS, Atom and JSON Feed documents.
func parseFeed(src models.Source, raw models.RawFetchResult) ([]models.NewsItem, error) {
	// gofeed parsers keep per-parse state, so each call gets its own.
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(raw.Payload))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	out := make([]models.NewsItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil {
			continue
		}
		title := strings.TrimSpace(it.Title)
		if title == "" {
			continue
		}
		link := strings.TrimSpace(it.Link)
		if link == "" && len(it.Links) > 0 {
			link = strings.TrimSpace(it.Links[0])
		}
		out = append(out, models.NewsItem{
			Title:       title,
			Link:        link,
			Source:      sourceName(src),
			PublishedAt: itemTime(it, raw.FetchedAt),
		})
	}
	return out, nil
}

func itemTime(it *gofeed.Item, fetched time.Time) time.Time {
	switch {
	case it.PublishedParsed != nil:
		return it.PublishedParsed.UTC()
	case it.UpdatedParsed != nil:
		return it.UpdatedParsed.UTC()
	}
	if t, ok := util.ParseTime(it.Published); ok {
		return t.UTC()
	}
	return fetched.UTC()
}

type jsonNewsItem struct {
	Title       string  `json:"title"`
	Headline    string  `json:"headline"`
	Link        string  `json:"link"`
	URL         string  `json:"url"`
	Source      string  `json:"source"`
	Datetime    flexInt `json:"datetime"`
	Timestamp   flexInt `json:"timestamp"`
	Date        string  `json:"date"`
	PublishedAt string  `json:"published_at"`
}

type jsonNewsEnvelope struct {
	Items    []jsonNewsItem `json:"items"`
	Articles []jsonNewsItem `json:"articles"`
}

// parseJSONNews accepts a bare array of articles or an object wrapping one in "items" or "articles".
func parseJSONNews(src models.Source, raw models.RawFetchResult) ([]models.NewsItem, error) {
	body := bytes.TrimSpace(raw.Payload)
	var list []jsonNewsItem
	if len(body) > 0 && body[0] == '[' {
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, fmt.Errorf("decode news array: %w", err)
		}
	} else {
		var env jsonNewsEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("decode news object: %w", err)
		}
		list = env.Items
		if len(list) == 0 {
			list = env.Articles
		}
	}

	out := make([]models.NewsItem, 0, len(list))
	for _, it := range list {
		title := strings.TrimSpace(firstNonEmpty(it.Title, it.Headline))
		if title == "" {
			continue
		}
		name := strings.TrimSpace(it.Source)
		if name == "" {
			name = sourceName(src)
		}
		out = append(out, models.NewsItem{
			Title:       title,
			Link:        strings.TrimSpace(firstNonEmpty(it.Link, it.URL)),
			Source:      name,
			PublishedAt: jsonNewsTime(it, raw.FetchedAt),
		})
	}
	return out, nil
}

// Epoch seconds win over ISO strings when both are present.
func jsonNewsTime(it jsonNewsItem, fetched time.Time) time.Time {
	for _, sec := range []flexInt{it.Datetime, it.Timestamp} {
		if t, ok := util.FromEpoch(int64(sec)); ok {
			return t
		}
	}
	for _, s := range []string{it.Date, it.PublishedAt} {
		if t, ok := util.ParseTime(s); ok {
			return t.UTC()
		}
	}
	return fetched.UTC()
}

func sourceName(src models.Source) string {
	if src.Name != "" {
		return src.Name
	}
	return src.ID
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
