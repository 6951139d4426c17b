package usecase

import (
	"sort"
	"time"

	"ForexPulse/internal/domain/models"
	"ForexPulse/pkg/util"
)

// MergeNews combines per-source lists in registry order, then the existing collection.
// The first item with a given fingerprint wins. The result is sorted newest first
// and capped at limit after sorting.
func MergeNews(existing []models.NewsItem, lists [][]models.NewsItem, limit int) []models.NewsItem {
	seen := make(map[string]struct{})
	out := make([]models.NewsItem, 0, limit)
	add := func(items []models.NewsItem) {
		for _, it := range items {
			fp := it.Fingerprint()
			if _, dup := seen[fp]; dup {
				continue
			}
			seen[fp] = struct{}{}
			out = append(out, it)
		}
	}
	for _, l := range lists {
		add(l)
	}
	add(existing)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// MergeEvents dedups calendar lists in registry order and sorts them by event time.
func MergeEvents(lists [][]models.CalendarEvent) []models.CalendarEvent {
	seen := make(map[string]struct{})
	out := make([]models.CalendarEvent, 0)
	for _, l := range lists {
		for _, ev := range l {
			fp := ev.Fingerprint()
			if _, dup := seen[fp]; dup {
				continue
			}
			seen[fp] = struct{}{}
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time.Before(out[j].Time)
	})
	return out
}

// MergeQuotes extends each symbol's series with freshly fetched points.
// Fresh points replace existing ones with the same timestamp, and only the last
// window points are retained. Series come back in symbols order; symbols with
// no points at all are left out.
func MergeQuotes(existing []models.Series, lists [][]models.QuotePoint, symbols []string, window int) []models.Series {
	bySymbol := make(map[string]map[int64]models.QuotePoint, len(symbols))
	put := func(p models.QuotePoint) {
		m, ok := bySymbol[p.Symbol]
		if !ok {
			m = make(map[int64]models.QuotePoint)
			bySymbol[p.Symbol] = m
		}
		m[p.AsOf.UnixNano()] = p
	}
	for _, s := range existing {
		for _, p := range s.Points {
			put(p)
		}
	}
	for _, l := range lists {
		for _, p := range l {
			put(p)
		}
	}

	out := make([]models.Series, 0, len(symbols))
	for _, sym := range symbols {
		m := bySymbol[sym]
		if len(m) == 0 {
			continue
		}
		pts := make([]models.QuotePoint, 0, len(m))
		for _, p := range m {
			pts = append(pts, p)
		}
		sort.Slice(pts, func(i, j int) bool { return pts[i].AsOf.Before(pts[j].AsOf) })
		if window > 0 && len(pts) > window {
			pts = pts[len(pts)-window:]
		}
		out = append(out, models.Series{Symbol: sym, Points: pts})
	}
	return out
}

// EventsForDay returns the high and medium impact events whose UTC date is
// today plus offset days. Low impact events are never returned.
func EventsForDay(events []models.CalendarEvent, offset int, now time.Time) []models.CalendarEvent {
	target := util.AddUTCDays(now, offset)
	out := make([]models.CalendarEvent, 0)
	for _, ev := range events {
		if ev.Impact != models.ImpactHigh && ev.Impact != models.ImpactMedium {
			continue
		}
		if util.UTCDay(ev.Time) != target {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// TopNews returns at most k items from the head of a merged news collection.
func TopNews(items []models.NewsItem, k int) []models.NewsItem {
	if k <= 0 || k > len(items) {
		k = len(items)
	}
	return append(make([]models.NewsItem, 0, k), items[:k]...)
}
