package cache

import (
	"sync/atomic"
	"time"
)

// State of a slot as seen by readers.
type State string

const (
	StateEmpty      State = "empty"
	StateRefreshing State = "refreshing"
	StateReady      State = "ready"
)

// Snapshot is an immutable committed view of a slot. Readers get a pointer
// to it and must not modify Value.
type Snapshot[T any] struct {
	Value        T
	Ready        bool
	UpdatedAt    time.Time
	LastError    error
	LastErrorAt  time.Time
	SourceErrors map[string]string
}

// Slot holds the last-known-good value for one data kind.
//
// Writers must hold the in-flight flag (TryBegin) before calling Commit or Fail,
// which makes the slot single-writer. Readers Load lock-free and never wait on a refresh.
type Slot[T any] struct {
	name     string
	ttl      time.Duration
	cur      atomic.Pointer[Snapshot[T]]
	inFlight atomic.Bool
	now      func() time.Time
}

// NewSlot creates an empty slot holding zero, which is what readers see until the first commit.
func NewSlot[T any](name string, ttl time.Duration, zero T) *Slot[T] {
	s := &Slot[T]{name: name, ttl: ttl, now: time.Now}
	s.cur.Store(&Snapshot[T]{Value: zero})
	return s
}

func (s *Slot[T]) Name() string { return s.name }

func (s *Slot[T]) TTL() time.Duration { return s.ttl }

// Load returns the last committed snapshot. Never nil.
func (s *Slot[T]) Load() *Snapshot[T] {
	return s.cur.Load()
}

// TryBegin claims the in-flight flag. It returns false when a refresh is already running.
func (s *Slot[T]) TryBegin() bool {
	return s.inFlight.CompareAndSwap(false, true)
}

// End releases the in-flight flag.
func (s *Slot[T]) End() {
	s.inFlight.Store(false)
}

// InFlight reports whether a refresh holds the slot.
func (s *Slot[T]) InFlight() bool {
	return s.inFlight.Load()
}

// Commit replaces the value in one atomic swap and clears the error annotation.
func (s *Slot[T]) Commit(v T, sourceErrors map[string]string) {
	s.cur.Store(&Snapshot[T]{
		Value:        v,
		Ready:        true,
		UpdatedAt:    s.now(),
		SourceErrors: sourceErrors,
	})
}

// Fail records a failed cycle. The previous value and its readiness are kept.
func (s *Slot[T]) Fail(err error, sourceErrors map[string]string) {
	prev := s.cur.Load()
	next := *prev
	next.LastError = err
	next.LastErrorAt = s.now()
	next.SourceErrors = sourceErrors
	s.cur.Store(&next)
}

// State derives the slot state from readiness and the in-flight flag.
func (s *Slot[T]) State() State {
	if s.inFlight.Load() {
		return StateRefreshing
	}
	if s.cur.Load().Ready {
		return StateReady
	}
	return StateEmpty
}

// Age is the time since the last commit, or zero if the slot was never committed.
func (s *Slot[T]) Age(now time.Time) time.Duration {
	snap := s.cur.Load()
	if !snap.Ready {
		return 0
	}
	return now.Sub(snap.UpdatedAt)
}

// Stale reports whether the slot is empty or older than its freshness window.
func (s *Slot[T]) Stale(now time.Time) bool {
	snap := s.cur.Load()
	if !snap.Ready {
		return true
	}
	return s.ttl > 0 && now.Sub(snap.UpdatedAt) > s.ttl
}

// Due reports whether a read should trigger a refresh: the slot is stale and
// has not failed within the last freshness window.
func (s *Slot[T]) Due(now time.Time) bool {
	if !s.Stale(now) {
		return false
	}
	snap := s.cur.Load()
	if snap.LastErrorAt.IsZero() || s.ttl <= 0 {
		return true
	}
	return now.Sub(snap.LastErrorAt) > s.ttl
}
