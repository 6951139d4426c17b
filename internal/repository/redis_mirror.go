package repository

import (
	"context"
	"io"
	"time"

	"ForexPulse/internal/domain/models"
	icache "ForexPulse/internal/service/cache"
)

// SnapshotMirror writes every committed snapshot under prefix+"snapshot:"+kind
// so other processes can read the latest state. Nothing here reads it back.
type SnapshotMirror struct {
	cache  icache.BytesCache
	name   string
	prefix string
	ttl    time.Duration
}

func NewSnapshotMirror(c icache.BytesCache, name, prefix string, ttl time.Duration) *SnapshotMirror {
	if name == "" {
		name = "redis"
	}
	return &SnapshotMirror{cache: c, name: name, prefix: prefix, ttl: ttl}
}

func (m *SnapshotMirror) Name() string { return m.name }

// Key returns the cache key used for kind.
func (m *SnapshotMirror) Key(kind models.Kind) string {
	return m.prefix + "snapshot:" + string(kind)
}

func (m *SnapshotMirror) Publish(ctx context.Context, kind models.Kind, payload []byte) error {
	return m.cache.SetBytes(ctx, m.Key(kind), payload, m.ttl)
}

func (m *SnapshotMirror) Close() error {
	if c, ok := m.cache.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
