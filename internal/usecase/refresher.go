package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"ForexPulse/internal/domain/models"
	domrepo "ForexPulse/internal/domain/repository"
	"ForexPulse/internal/domain/service"
	"ForexPulse/internal/service/cache"
	"ForexPulse/internal/service/normalizer"
	"ForexPulse/internal/service/registry"
	"ForexPulse/internal/services/analytics"
	applogger "ForexPulse/pkg/logger"
)

// ErrRefreshInFlight is returned when a refresh for the same slot is already running.
var ErrRefreshInFlight = errors.New("refresh already in flight")

const (
	defaultCycleGrace = 2 * time.Second
	defaultNewsLimit  = 20
	defaultWindow     = 100
	sinkTimeout       = 5 * time.Second
)

// Slots is the set of per-kind caches shared by the refresher and the read side.
type Slots struct {
	News     *cache.Slot[[]models.NewsItem]
	Calendar *cache.Slot[[]models.CalendarEvent]
	Market   *cache.Slot[models.MarketSnapshot]
}

// NewSlots creates empty slots with the given freshness windows.
func NewSlots(newsTTL, calendarTTL, quoteTTL time.Duration) *Slots {
	return &Slots{
		News:     cache.NewSlot(string(models.KindNews), newsTTL, []models.NewsItem{}),
		Calendar: cache.NewSlot(string(models.KindCalendar), calendarTTL, []models.CalendarEvent{}),
		Market: cache.NewSlot(string(models.KindQuote), quoteTTL, models.MarketSnapshot{
			Series:    []models.Series{},
			Forecasts: []models.ForecastResult{},
			Signals:   []models.SignalResult{},
		}),
	}
}

// RefresherOption configures Refresher.
type RefresherOption func(*Refresher)

// Refresher runs one fetch, normalise, merge and commit cycle per data kind.
type Refresher struct {
	registry   *registry.Registry
	fetcher    domrepo.Fetcher
	normalizer *normalizer.Normalizer
	slots      *Slots
	strategy   service.SignalStrategy
	sinks      []domrepo.SnapshotSink
	archive    domrepo.QuoteArchive
	metrics    domrepo.Metrics
	log        *applogger.Logger

	newsLimit int
	window    int
	grace     time.Duration
}

func NewRefresher(reg *registry.Registry, f domrepo.Fetcher, slots *Slots, opts ...RefresherOption) *Refresher {
	r := &Refresher{
		registry:   reg,
		fetcher:    f,
		normalizer: normalizer.New(),
		slots:      slots,
		strategy:   analytics.NewMomentumStrategy(6, analytics.DefaultBands),
		log:        applogger.Nop(),
		newsLimit:  defaultNewsLimit,
		window:     defaultWindow,
		grace:      defaultCycleGrace,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Refresher) Slots() *Slots { return r.slots }

func (r *Refresher) Strategy() string { return r.strategy.Name() }

// Refresh runs the cycle for kind.
func (r *Refresher) Refresh(ctx context.Context, kind models.Kind) error {
	switch kind {
	case models.KindNews:
		return r.RefreshNews(ctx)
	case models.KindCalendar:
		return r.RefreshCalendar(ctx)
	case models.KindQuote:
		return r.RefreshQuotes(ctx)
	default:
		return fmt.Errorf("unknown kind %q", kind)
	}
}

// InFlight reports whether a refresh of kind is running.
func (r *Refresher) InFlight(kind models.Kind) bool {
	switch kind {
	case models.KindNews:
		return r.slots.News.InFlight()
	case models.KindCalendar:
		return r.slots.Calendar.InFlight()
	case models.KindQuote:
		return r.slots.Market.InFlight()
	}
	return false
}

func (r *Refresher) RefreshNews(ctx context.Context) error {
	slot := r.slots.News
	if !slot.TryBegin() {
		return ErrRefreshInFlight
	}
	defer slot.End()

	start := time.Now()
	out := collect(ctx, r, models.KindNews, r.normalizer.News)
	if out.ok == 0 {
		return r.fail(models.KindNews, start, out.errorsOrNil(), slot.Fail)
	}
	merged := MergeNews(slot.Load().Value, out.lists, r.newsLimit)
	slot.Commit(merged, out.errorsOrNil())
	r.committed(ctx, models.KindNews, start, len(merged), merged)
	return nil
}

func (r *Refresher) RefreshCalendar(ctx context.Context) error {
	slot := r.slots.Calendar
	if !slot.TryBegin() {
		return ErrRefreshInFlight
	}
	defer slot.End()

	start := time.Now()
	out := collect(ctx, r, models.KindCalendar, r.normalizer.Events)
	if out.ok == 0 {
		return r.fail(models.KindCalendar, start, out.errorsOrNil(), slot.Fail)
	}
	merged := MergeEvents(out.lists)
	slot.Commit(merged, out.errorsOrNil())
	r.committed(ctx, models.KindCalendar, start, len(merged), merged)
	return nil
}

// RefreshQuotes extends the price series and recomputes forecasts and signals
// from the merged series in the same commit.
func (r *Refresher) RefreshQuotes(ctx context.Context) error {
	slot := r.slots.Market
	if !slot.TryBegin() {
		return ErrRefreshInFlight
	}
	defer slot.End()

	start := time.Now()
	out := collect(ctx, r, models.KindQuote, r.normalizer.Quotes)
	if out.ok == 0 {
		return r.fail(models.KindQuote, start, out.errorsOrNil(), slot.Fail)
	}
	prev := slot.Load().Value
	cur := models.MarketSnapshot{
		Series: MergeQuotes(prev.Series, out.lists, r.registry.Symbols(), r.window),
	}
	cur.Forecasts = analytics.Forecasts(cur.Series)
	cur.Signals = analytics.Signals(r.strategy, cur, prev)
	slot.Commit(cur, out.errorsOrNil())
	r.committed(ctx, models.KindQuote, start, len(cur.Series), cur)
	r.archiveQuotes(ctx, out.lists)
	return nil
}

type cycleResult[T any] struct {
	lists  [][]T
	errors map[string]string
	ok     int
	total  int
}

func (c cycleResult[T]) errorsOrNil() map[string]string {
	if len(c.errors) == 0 {
		return nil
	}
	return c.errors
}

// collect fans out one fetch per source and joins the results in registry order.
// Sources that have not answered by the cycle deadline are recorded as timeouts
// and left behind.
func collect[T any](ctx context.Context, r *Refresher, kind models.Kind, parse func(models.Source, models.RawFetchResult) ([]T, error)) cycleResult[T] {
	sources := r.registry.Sources(kind)
	res := cycleResult[T]{
		lists:  make([][]T, len(sources)),
		errors: map[string]string{},
		total:  len(sources),
	}
	if len(sources) == 0 {
		return res
	}

	var longest time.Duration
	for _, s := range sources {
		if s.Timeout > longest {
			longest = s.Timeout
		}
	}
	if longest <= 0 {
		longest = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, longest+r.grace)
	defer cancel()

	type item struct {
		idx   int
		items []T
		err   error
	}
	ch := make(chan item, len(sources))
	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src models.Source) {
			defer wg.Done()
			raw := r.fetcher.Fetch(ctx, src)
			if raw.Err != nil {
				ch <- item{idx: i, err: raw.Err}
				return
			}
			items, err := parse(src, raw)
			ch <- item{idx: i, items: items, err: err}
		}(i, src)
	}
	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	answered := make([]bool, len(sources))
	pending := len(sources)
	for pending > 0 {
		select {
		case it := <-ch:
			pending--
			answered[it.idx] = true
			src := sources[it.idx]
			if it.err != nil {
				res.errors[src.ID] = it.err.Error()
				r.log.Warn("source contributed no items",
					applogger.String("kind", string(kind)),
					applogger.String("source", src.ID),
					applogger.String("reason", string(models.ErrorKind(it.err))),
					applogger.Error(it.err),
				)
				continue
			}
			res.lists[it.idx] = it.items
			res.ok++
		case <-ctx.Done():
			for i, src := range sources {
				if answered[i] {
					continue
				}
				err := models.NewFetchError(models.UpstreamTimeout, src.ID, "cycle deadline exceeded", ctx.Err())
				res.errors[src.ID] = err.Error()
				r.log.Warn("source abandoned",
					applogger.String("kind", string(kind)),
					applogger.String("source", src.ID),
				)
			}
			return res
		}
	}
	<-done
	return res
}

func (r *Refresher) fail(kind models.Kind, start time.Time, errs map[string]string, record func(error, map[string]string)) error {
	err := fmt.Errorf("%s refresh: all %d sources failed", kind, len(errs))
	if len(errs) == 0 {
		err = fmt.Errorf("%s refresh: no sources configured", kind)
	}
	record(err, errs)
	r.log.Error("refresh failed, keeping last known good",
		applogger.String("kind", string(kind)),
		applogger.Duration("took", time.Since(start)),
		applogger.Error(err),
	)
	if r.metrics != nil {
		r.metrics.RecordRefresh(kind, "failed", time.Since(start).Seconds())
	}
	return err
}

func (r *Refresher) committed(ctx context.Context, kind models.Kind, start time.Time, n int, value any) {
	took := time.Since(start)
	r.log.Info("refresh committed",
		applogger.String("kind", string(kind)),
		applogger.Int("items", n),
		applogger.Duration("took", took),
	)
	if r.metrics != nil {
		r.metrics.RecordRefresh(kind, "ok", took.Seconds())
		r.metrics.RecordItems(kind, n)
	}
	if len(r.sinks) == 0 {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		r.log.Error("encode snapshot", applogger.String("kind", string(kind)), applogger.Error(err))
		return
	}
	for _, s := range r.sinks {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sinkTimeout)
		err := s.Publish(sctx, kind, payload)
		cancel()
		if err != nil {
			r.log.Warn("snapshot sink failed",
				applogger.String("sink", s.Name()),
				applogger.String("kind", string(kind)),
				applogger.Error(err),
			)
			if r.metrics != nil {
				r.metrics.RecordSinkError(s.Name())
			}
		}
	}
}

func (r *Refresher) archiveQuotes(ctx context.Context, lists [][]models.QuotePoint) {
	if r.archive == nil {
		return
	}
	var pts []models.QuotePoint
	for _, l := range lists {
		pts = append(pts, l...)
	}
	if len(pts) == 0 {
		return
	}
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sinkTimeout)
	defer cancel()
	if err := r.archive.StoreQuotes(actx, pts); err != nil {
		r.log.Warn("quote archive failed", applogger.Int("points", len(pts)), applogger.Error(err))
		if r.metrics != nil {
			r.metrics.RecordSinkError("archive")
		}
	}
}

func WithStrategy(s service.SignalStrategy) RefresherOption {
	return func(r *Refresher) {
		if s != nil {
			r.strategy = s
		}
	}
}

func WithNormalizer(n *normalizer.Normalizer) RefresherOption {
	return func(r *Refresher) { r.normalizer = n }
}

func WithSinks(sinks ...domrepo.SnapshotSink) RefresherOption {
	return func(r *Refresher) { r.sinks = append(r.sinks, sinks...) }
}

func WithArchive(a domrepo.QuoteArchive) RefresherOption {
	return func(r *Refresher) { r.archive = a }
}

func WithRefreshMetrics(m domrepo.Metrics) RefresherOption {
	return func(r *Refresher) { r.metrics = m }
}

func WithRefreshLogger(l *applogger.Logger) RefresherOption {
	return func(r *Refresher) {
		if l != nil {
			r.log = l
		}
	}
}

func WithNewsLimit(n int) RefresherOption {
	return func(r *Refresher) {
		if n > 0 {
			r.newsLimit = n
		}
	}
}

func WithWindow(n int) RefresherOption {
	return func(r *Refresher) {
		if n > 0 {
			r.window = n
		}
	}
}

func WithCycleGrace(d time.Duration) RefresherOption {
	return func(r *Refresher) {
		if d > 0 {
			r.grace = d
		}
	}
}
