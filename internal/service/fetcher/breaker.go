package fetcher

import (
	"errors"
	"sync"
	"time"

	"ForexPulse/internal/domain/models"
	domrepo "ForexPulse/internal/domain/repository"
	applogger "ForexPulse/pkg/logger"

	"github.com/sony/gobreaker/v2"
)

// BreakerConfig holds configuration for the per-source circuit breakers.
type BreakerConfig struct {
	MaxRequests         uint32        // probes allowed in half-open state
	Interval            time.Duration // closed-state count reset period
	Timeout             time.Duration // open-state duration before half-open
	ConsecutiveFailures uint32        // failures in a row that trip the breaker
}

var DefaultBreakerConfig = BreakerConfig{
	MaxRequests:         1,
	Interval:            10 * time.Minute,
	Timeout:             60 * time.Second,
	ConsecutiveFailures: 3,
}

// breakers lazily creates one breaker per source id.
type breakers struct {
	mu      sync.RWMutex
	m       map[string]*gobreaker.CircuitBreaker[[]byte]
	cfg     BreakerConfig
	metrics domrepo.Metrics
	log     *applogger.Logger
}

func newBreakers(cfg BreakerConfig, m domrepo.Metrics, l *applogger.Logger) *breakers {
	return &breakers{m: make(map[string]*gobreaker.CircuitBreaker[[]byte]), cfg: cfg, metrics: m, log: l}
}

func (b *breakers) get(id string) *gobreaker.CircuitBreaker[[]byte] {
	b.mu.RLock()
	cb, ok := b.m[id]
	b.mu.RUnlock()
	if ok {
		return cb
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if cb, ok = b.m[id]; ok {
		return cb
	}

	trips := b.cfg.ConsecutiveFailures
	cb = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        id,
		MaxRequests: b.cfg.MaxRequests,
		Interval:    b.cfg.Interval,
		Timeout:     b.cfg.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= trips
		},
		// A payload that arrived but does not parse says nothing about reachability.
		IsSuccessful: func(err error) bool {
			return err == nil || models.ErrorKind(err) == models.MalformedPayload
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.log.Warn("circuit breaker state change",
				applogger.String("source", name),
				applogger.String("from", from.String()),
				applogger.String("to", to.String()),
			)
			if b.metrics != nil {
				b.metrics.RecordBreakerState(name, stateToInt(to))
			}
		},
	})
	b.m[id] = cb
	return cb
}

// State returns the breaker state name for a source, or "closed" if none exists yet.
func (b *breakers) state(id string) string {
	b.mu.RLock()
	cb, ok := b.m[id]
	b.mu.RUnlock()
	if !ok {
		return gobreaker.StateClosed.String()
	}
	return cb.State().String()
}

func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// 0=closed, 1=half-open, 2=open
func stateToInt(s gobreaker.State) int {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
