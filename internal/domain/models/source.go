package models

import "time"

// Kind identifies a data kind served by the aggregator. Each kind owns one cache slot.
type Kind string

const (
	KindNews     Kind = "news"
	KindCalendar Kind = "calendar"
	KindQuote    Kind = "quote"
)

// Parser names understood by the normalizer.
const (
	ParserRSS          = "rss"
	ParserJSONNews     = "json"
	ParserForexFactory = "forexfactory"
	ParserYahooChart   = "yahoo"
)

// Source is one upstream endpoint. Sources are built once at startup and never mutated.
type Source struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Kind     Kind          `json:"kind"`
	Endpoint string        `json:"endpoint"`
	Parser   string        `json:"parser"`
	Symbol   string        `json:"symbol,omitempty"` // quote sources only
	Timeout  time.Duration `json:"timeout"`
	MaxItems int           `json:"max_items,omitempty"`
	Enabled  bool          `json:"enabled"`
}

// RawFetchResult is the outcome of a single fetch: either a payload or an error, never both.
type RawFetchResult struct {
	SourceID  string
	Payload   []byte
	Err       *FetchError
	FetchedAt time.Time
}

// OK reports whether the fetch produced a payload.
func (r RawFetchResult) OK() bool { return r.Err == nil }
