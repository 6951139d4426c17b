package repository

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	"ForexPulse/internal/domain/models"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// QuoteArchive appends fetched price points to a ClickHouse table.
// Re-fetched points collapse on (symbol, ts) through ReplacingMergeTree.
type QuoteArchive struct {
	db     execer
	table  string
	closer io.Closer
}

// NewQuoteArchive creates the archive. closer, if set, is closed with the archive.
func NewQuoteArchive(db execer, table string, closer io.Closer) *QuoteArchive {
	return &QuoteArchive{db: db, table: table, closer: closer}
}

// QuoteArchiveSchema returns the idempotent DDL for the archive table.
func QuoteArchiveSchema(database, table string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	ts DateTime64(3, 'UTC'),
	symbol LowCardinality(String),
	price Float64,
	inserted_at DateTime DEFAULT now()
) ENGINE = ReplacingMergeTree(inserted_at)
PARTITION BY toYYYYMM(ts)
ORDER BY (symbol, ts)`, table),
	}
}

func (a *QuoteArchive) StoreQuotes(ctx context.Context, points []models.QuotePoint) error {
	const chunkSize = 2000
	for start := 0; start < len(points); start += chunkSize {
		end := start + chunkSize
		if end > len(points) {
			end = len(points)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*3)
		for _, p := range points[start:end] {
			if p.Symbol == "" || p.Price <= 0 || p.AsOf.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?)")
			args = append(args, p.AsOf.UTC(), p.Symbol, p.Price)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (ts, symbol, price) VALUES %s", a.table, strings.Join(values, ","))
		if _, err := a.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("archive %d quotes: %w", len(values), err)
		}
	}
	return nil
}

func (a *QuoteArchive) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}
