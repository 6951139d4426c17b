package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"ForexPulse/internal/domain/models"
	"ForexPulse/internal/service/registry"
)

// stubFetcher answers from a per-source table. Sources listed in block wait
// on release and ignore the context, like an upstream that never answers.
type stubFetcher struct {
	mu       sync.Mutex
	payloads map[string]string
	failures map[string]models.FetchErrorKind
	block    map[string]bool
	release  chan struct{}
	calls    atomic.Int32
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{
		payloads: map[string]string{},
		failures: map[string]models.FetchErrorKind{},
		block:    map[string]bool{},
		release:  make(chan struct{}),
	}
}

func (f *stubFetcher) set(id, payload string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads[id] = payload
	delete(f.failures, id)
}

func (f *stubFetcher) fail(id string, kind models.FetchErrorKind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[id] = kind
}

func (f *stubFetcher) Fetch(ctx context.Context, src models.Source) models.RawFetchResult {
	f.calls.Add(1)
	f.mu.Lock()
	blocked := f.block[src.ID]
	payload := f.payloads[src.ID]
	kind, failed := f.failures[src.ID]
	f.mu.Unlock()

	if blocked {
		<-f.release
	}
	res := models.RawFetchResult{SourceID: src.ID, FetchedAt: time.Now()}
	if failed {
		res.Err = models.NewFetchError(kind, src.ID, "stub failure", nil)
		return res
	}
	res.Payload = []byte(payload)
	return res
}

func newsSource(id string) models.Source {
	return models.Source{ID: id, Name: id, Kind: models.KindNews, Parser: models.ParserJSONNews, Timeout: 50 * time.Millisecond, Enabled: true}
}

func calendarSource(id string) models.Source {
	return models.Source{ID: id, Kind: models.KindCalendar, Parser: models.ParserForexFactory, Timeout: 50 * time.Millisecond, Enabled: true}
}

func quoteSource(symbol string) models.Source {
	return models.Source{ID: "yahoo-" + symbol, Kind: models.KindQuote, Parser: models.ParserYahooChart, Symbol: symbol, Timeout: 50 * time.Millisecond, Enabled: true}
}

type newsJSON struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Datetime int64  `json:"datetime"`
}

func newsPayload(items ...newsJSON) string {
	b, _ := json.Marshal(items)
	return string(b)
}

func calendarPayload(events ...map[string]any) string {
	b, _ := json.Marshal(events)
	return string(b)
}

// yahooPayload builds a chart response with one close per hour starting at start.
func yahooPayload(start time.Time, closes ...float64) string {
	ts := make([]int64, len(closes))
	for i := range closes {
		ts[i] = start.Add(time.Duration(i) * time.Hour).Unix()
	}
	tsJSON, _ := json.Marshal(ts)
	clJSON, _ := json.Marshal(closes)
	return fmt.Sprintf(`{"chart":{"result":[{"timestamp":%s,"indicators":{"quote":[{"close":%s}]}}],"error":null}}`, tsJSON, clJSON)
}

func newTestRefresher(f *stubFetcher, sources []models.Source, opts ...RefresherOption) *Refresher {
	slots := NewSlots(time.Minute, time.Minute, time.Minute)
	opts = append([]RefresherOption{WithCycleGrace(20 * time.Millisecond)}, opts...)
	return NewRefresher(registry.New(sources...), f, slots, opts...)
}

type recordingSink struct {
	mu       sync.Mutex
	name     string
	err      error
	payloads map[models.Kind][]byte
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Publish(_ context.Context, kind models.Kind, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.payloads == nil {
		s.payloads = map[models.Kind][]byte{}
	}
	s.payloads[kind] = payload
	return s.err
}

func (s *recordingSink) Close() error { return nil }

func (s *recordingSink) get(kind models.Kind) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payloads[kind]
}

type recordingArchive struct {
	mu     sync.Mutex
	points []models.QuotePoint
}

func (a *recordingArchive) StoreQuotes(_ context.Context, pts []models.QuotePoint) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.points = append(a.points, pts...)
	return nil
}

func (a *recordingArchive) Close() error { return nil }

type countingKicker struct {
	mu    sync.Mutex
	kinds []models.Kind
}

func (k *countingKicker) Kick(kind models.Kind) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.kinds = append(k.kinds, kind)
}

func (k *countingKicker) count() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.kinds)
}
