package usecase

import (
	"time"

	"ForexPulse/internal/domain/models"
	domrepo "ForexPulse/internal/domain/repository"
	"ForexPulse/internal/service/cache"
)

// Kicker starts a background refresh of a kind without waiting for it.
type Kicker interface {
	Kick(kind models.Kind)
}

// SubscriberCounter reports the number of live stream subscribers.
type SubscriberCounter interface {
	Count() int
}

// QueryOption configures QueryService.
type QueryOption func(*QueryService)

// QueryService is the read side. Every accessor returns the last committed
// value immediately; a stale slot only schedules a refresh in the background.
type QueryService struct {
	slots       *Slots
	kicker      Kicker
	subscribers SubscriberCounter
	metrics     domrepo.Metrics
	strategy    string
	newsLimit   int
	started     time.Time
	now         func() time.Time
}

func NewQueryService(slots *Slots, opts ...QueryOption) *QueryService {
	q := &QueryService{
		slots:     slots,
		newsLimit: defaultNewsLimit,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.started = q.now()
	return q
}

// News returns up to limit items, freshest first. A non-positive limit uses the configured cap.
func (q *QueryService) News(limit int) []models.NewsItem {
	snap := q.slots.News.Load()
	q.kickIfStale(models.KindNews, q.slots.News.Due(q.now()))
	if limit <= 0 {
		limit = q.newsLimit
	}
	return TopNews(snap.Value, limit)
}

// Events filters the cached calendar to high and medium impact events on today+day (UTC).
func (q *QueryService) Events(day int) []models.CalendarEvent {
	snap := q.slots.Calendar.Load()
	now := q.now()
	q.kickIfStale(models.KindCalendar, q.slots.Calendar.Due(now))
	return EventsForDay(snap.Value, day, now)
}

func (q *QueryService) Forecast() []models.ForecastResult {
	snap := q.slots.Market.Load()
	q.kickIfStale(models.KindQuote, q.slots.Market.Due(q.now()))
	if snap.Value.Forecasts == nil {
		return []models.ForecastResult{}
	}
	return snap.Value.Forecasts
}

func (q *QueryService) Signals() []models.SignalResult {
	snap := q.slots.Market.Load()
	q.kickIfStale(models.KindQuote, q.slots.Market.Due(q.now()))
	if snap.Value.Signals == nil {
		return []models.SignalResult{}
	}
	return snap.Value.Signals
}

// Health is liveness only; it checks no dependency.
func (q *QueryService) Health() models.Health {
	now := q.now()
	return models.Health{
		OK:        true,
		Uptime:    now.Sub(q.started).Seconds(),
		Timestamp: now.UTC(),
	}
}

// Status describes every slot for operators.
func (q *QueryService) Status() models.Status {
	now := q.now()
	st := models.Status{
		Slots: []models.SlotStatus{
			slotStatus(models.KindNews, q.slots.News, now),
			slotStatus(models.KindCalendar, q.slots.Calendar, now),
			slotStatus(models.KindQuote, q.slots.Market, now),
		},
		Strategy:  q.strategy,
		Timestamp: now.UTC(),
	}
	if q.subscribers != nil {
		st.Subscribers = q.subscribers.Count()
	}
	if q.metrics != nil {
		for _, s := range st.Slots {
			q.metrics.RecordSlotAge(s.Kind, s.AgeSeconds)
		}
	}
	return st
}

func slotStatus[T any](kind models.Kind, slot *cache.Slot[T], now time.Time) models.SlotStatus {
	snap := slot.Load()
	st := models.SlotStatus{
		Kind:         kind,
		State:        string(slot.State()),
		AgeSeconds:   slot.Age(now).Seconds(),
		Stale:        slot.Stale(now),
		SourceErrors: snap.SourceErrors,
	}
	if snap.Ready {
		at := snap.UpdatedAt.UTC()
		st.UpdatedAt = &at
	}
	if snap.LastError != nil {
		st.LastError = snap.LastError.Error()
		at := snap.LastErrorAt.UTC()
		st.LastErrorAt = &at
	}
	return st
}

func (q *QueryService) kickIfStale(kind models.Kind, due bool) {
	if due && q.kicker != nil {
		q.kicker.Kick(kind)
	}
}

func WithKicker(k Kicker) QueryOption {
	return func(q *QueryService) { q.kicker = k }
}

func WithSubscriberCounter(c SubscriberCounter) QueryOption {
	return func(q *QueryService) { q.subscribers = c }
}

func WithQueryMetrics(m domrepo.Metrics) QueryOption {
	return func(q *QueryService) { q.metrics = m }
}

func WithStrategyName(name string) QueryOption {
	return func(q *QueryService) { q.strategy = name }
}

func WithDefaultNewsLimit(n int) QueryOption {
	return func(q *QueryService) {
		if n > 0 {
			q.newsLimit = n
		}
	}
}

func withClock(now func() time.Time) QueryOption {
	return func(q *QueryService) { q.now = now }
}
