package repository

import (
	"context"

	"ForexPulse/internal/domain/models"
)

// Fetcher performs one bounded request against a source. It never returns an error;
// failures are carried in RawFetchResult.Err.
type Fetcher interface {
	Fetch(ctx context.Context, src models.Source) models.RawFetchResult
}

// SnapshotSink receives the JSON encoding of every committed slot value.
// Sinks are write-only; nothing is read back from them.
type SnapshotSink interface {
	Name() string
	Publish(ctx context.Context, kind models.Kind, payload []byte) error
	Close() error
}

// QuoteArchive stores price points for offline analysis.
type QuoteArchive interface {
	StoreQuotes(ctx context.Context, points []models.QuotePoint) error
	Close() error
}

type Metrics interface {
	RecordFetch(kind models.Kind, source string, outcome string, seconds float64)
	RecordRefresh(kind models.Kind, outcome string, seconds float64)
	RecordItems(kind models.Kind, n int)
	RecordSlotAge(kind models.Kind, seconds float64)
	RecordSubscribers(n int)
	RecordSinkError(sink string)
	RecordBreakerState(source string, state int)
}
