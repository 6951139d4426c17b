package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"ForexPulse/internal/domain/models"
)

func TestQueryColdStartReturnsEmptyLists(t *testing.T) {
	q := NewQueryService(NewSlots(time.Minute, time.Minute, time.Minute))
	if v := q.News(0); v == nil || len(v) != 0 {
		t.Fatalf("news = %#v", v)
	}
	if v := q.Events(0); v == nil || len(v) != 0 {
		t.Fatalf("events = %#v", v)
	}
	if v := q.Forecast(); v == nil || len(v) != 0 {
		t.Fatalf("forecast = %#v", v)
	}
	if v := q.Signals(); v == nil || len(v) != 0 {
		t.Fatalf("signals = %#v", v)
	}
}

func TestQueryNewsLimit(t *testing.T) {
	slots := NewSlots(time.Minute, time.Minute, time.Minute)
	items := make([]models.NewsItem, 30)
	for i := range items {
		items[i] = item("t", string(rune('a'+i)), "s", time.Duration(i)*time.Minute)
	}
	slots.News.TryBegin()
	slots.News.Commit(items, nil)
	slots.News.End()

	q := NewQueryService(slots, WithDefaultNewsLimit(20))
	if n := len(q.News(0)); n != 20 {
		t.Fatalf("default limit: got %d", n)
	}
	if n := len(q.News(5)); n != 5 {
		t.Fatalf("explicit limit: got %d", n)
	}
}

func TestQueryEventsFiltersAtReadTime(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	slots := NewSlots(time.Hour, time.Hour, time.Hour)
	slots.Calendar.TryBegin()
	slots.Calendar.Commit([]models.CalendarEvent{
		event("Retail Sales", time.Date(2024, 5, 11, 12, 30, 0, 0, time.UTC), models.ImpactHigh),
		event("Holiday", time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), models.ImpactLow),
	}, nil)
	slots.Calendar.End()

	q := NewQueryService(slots, withClock(func() time.Time { return now }))
	if got := q.Events(0); len(got) != 0 {
		t.Fatalf("events(0) = %v", got)
	}
	if got := q.Events(1); len(got) != 1 || got[0].Title != "Retail Sales" {
		t.Fatalf("events(1) = %v", got)
	}
	if n := len(slots.Calendar.Load().Value); n != 2 {
		t.Fatalf("cached collection must stay unfiltered, got %d", n)
	}
}

func TestQueryReadDuringHungRefreshReturnsLastCommitted(t *testing.T) {
	f := newStubFetcher()
	f.set("a", newsPayload(newsJSON{"A", "l1", time.Now().Unix()}))
	r := newTestRefresher(f, []models.Source{newsSource("a")}, WithCycleGrace(time.Hour))
	if err := r.RefreshNews(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	q := NewQueryService(r.Slots())

	f.block["a"] = true
	done := make(chan error, 1)
	go func() { done <- r.RefreshNews(context.Background()) }()
	waitFor(t, func() bool { return r.InFlight(models.KindNews) })

	got := make(chan []models.NewsItem, 1)
	go func() { got <- q.News(0) }()
	select {
	case items := <-got:
		if len(items) != 1 || items[0].Title != "A" {
			t.Fatalf("unexpected items %v", items)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("read blocked on an in-flight refresh")
	}

	close(f.release)
	<-done
}

func TestQueryKicksStaleSlot(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	slots := NewSlots(time.Minute, time.Minute, time.Minute)
	k := &countingKicker{}
	q := NewQueryService(slots, WithKicker(k), withClock(func() time.Time { return now }))

	q.News(0)
	if k.count() != 1 {
		t.Fatalf("empty slot read should kick a refresh")
	}

	slots.News.TryBegin()
	slots.News.Commit([]models.NewsItem{}, nil)
	slots.News.End()
	now = time.Now()
	q.News(0)
	if k.count() != 1 {
		t.Fatalf("fresh slot must not kick")
	}

	slots.Calendar.TryBegin()
	slots.Calendar.Fail(errors.New("down"), nil)
	slots.Calendar.End()
	q.Events(0)
	if k.count() != 1 {
		t.Fatalf("slot that just failed must not kick")
	}
}

type fixedCount int

func (c fixedCount) Count() int { return int(c) }

func TestQueryStatusAndHealth(t *testing.T) {
	start := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	now := start
	slots := NewSlots(time.Minute, time.Minute, time.Minute)
	q := NewQueryService(slots,
		WithSubscriberCounter(fixedCount(3)),
		WithStrategyName("momentum"),
		withClock(func() time.Time { return now }),
	)

	slots.News.TryBegin()
	slots.News.Commit([]models.NewsItem{}, map[string]string{"b": "down"})
	slots.News.End()
	slots.Calendar.TryBegin()
	slots.Calendar.Fail(errors.New("all sources failed"), nil)
	slots.Calendar.End()

	now = start.Add(90 * time.Second)
	h := q.Health()
	if !h.OK || h.Uptime != 90 {
		t.Fatalf("health = %+v", h)
	}

	st := q.Status()
	if st.Subscribers != 3 || st.Strategy != "momentum" || len(st.Slots) != 3 {
		t.Fatalf("status = %+v", st)
	}
	news, cal, quote := st.Slots[0], st.Slots[1], st.Slots[2]
	if news.State != "ready" || news.UpdatedAt == nil || news.SourceErrors["b"] != "down" {
		t.Fatalf("news status = %+v", news)
	}
	if cal.State != "empty" || cal.LastError == "" || cal.LastErrorAt == nil || !cal.Stale {
		t.Fatalf("calendar status = %+v", cal)
	}
	if quote.State != "empty" || quote.UpdatedAt != nil {
		t.Fatalf("quote status = %+v", quote)
	}
}
