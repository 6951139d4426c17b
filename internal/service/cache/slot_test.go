package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSlotStartsEmpty(t *testing.T) {
	s := NewSlot("news", time.Minute, []string{})
	if s.State() != StateEmpty {
		t.Fatalf("state = %s, want empty", s.State())
	}
	snap := s.Load()
	if snap == nil || snap.Value == nil || len(snap.Value) != 0 {
		t.Fatalf("expected empty non-nil value, got %#v", snap)
	}
	if !s.Stale(time.Now()) {
		t.Fatalf("empty slot must be stale")
	}
}

func TestSlotLifecycle(t *testing.T) {
	s := NewSlot("news", time.Minute, 0)
	if !s.TryBegin() {
		t.Fatalf("first TryBegin must succeed")
	}
	if s.State() != StateRefreshing {
		t.Fatalf("state = %s, want refreshing", s.State())
	}
	s.Commit(7, nil)
	s.End()
	if s.State() != StateReady {
		t.Fatalf("state = %s, want ready", s.State())
	}
	if got := s.Load().Value; got != 7 {
		t.Fatalf("value = %d", got)
	}
}

func TestSlotFailKeepsLastKnownGood(t *testing.T) {
	s := NewSlot("calendar", time.Minute, "")
	s.TryBegin()
	s.Commit("good", nil)
	s.End()

	s.TryBegin()
	boom := errors.New("all sources failed")
	s.Fail(boom, map[string]string{"ff": "upstream_timeout"})
	s.End()

	snap := s.Load()
	if snap.Value != "good" || !snap.Ready {
		t.Fatalf("value lost after failure: %#v", snap)
	}
	if !errors.Is(snap.LastError, boom) || snap.LastErrorAt.IsZero() {
		t.Fatalf("missing error annotation: %#v", snap)
	}
	if s.State() != StateReady {
		t.Fatalf("slot regressed to %s", s.State())
	}
}

func TestSlotFailBeforeFirstCommitStaysEmpty(t *testing.T) {
	s := NewSlot("quote", time.Minute, 0)
	s.TryBegin()
	s.Fail(errors.New("down"), nil)
	s.End()
	if s.State() != StateEmpty {
		t.Fatalf("state = %s, want empty", s.State())
	}
	if s.Load().LastError == nil {
		t.Fatalf("expected error recorded")
	}
}

func TestSlotCommitClearsError(t *testing.T) {
	s := NewSlot("news", time.Minute, 0)
	s.TryBegin()
	s.Fail(errors.New("x"), nil)
	s.Commit(1, nil)
	s.End()
	if s.Load().LastError != nil {
		t.Fatalf("error should be cleared by a successful commit")
	}
}

func TestSlotSingleFlight(t *testing.T) {
	s := NewSlot("news", time.Minute, 0)
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.TryBegin() {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	if wins.Load() != 1 {
		t.Fatalf("%d concurrent refreshes admitted, want 1", wins.Load())
	}
	s.End()
	if !s.TryBegin() {
		t.Fatalf("flag not released by End")
	}
}

func TestSlotStaleness(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewSlot("quote", 30*time.Second, 0)
	s.now = func() time.Time { return base }
	s.TryBegin()
	s.Commit(1, nil)
	s.End()

	if s.Stale(base.Add(10 * time.Second)) {
		t.Fatalf("fresh slot reported stale")
	}
	if !s.Stale(base.Add(31 * time.Second)) {
		t.Fatalf("old slot not reported stale")
	}
	if got := s.Age(base.Add(5 * time.Second)); got != 5*time.Second {
		t.Fatalf("age = %v", got)
	}
}

func TestSlotReadersDuringRefresh(t *testing.T) {
	s := NewSlot("news", time.Minute, 0)
	s.TryBegin()
	s.Commit(1, nil)
	s.End()

	s.TryBegin()
	done := make(chan int)
	go func() { done <- s.Load().Value }()
	select {
	case v := <-done:
		if v != 1 {
			t.Fatalf("reader saw %d", v)
		}
	case <-time.After(time.Second):
		t.Fatalf("reader blocked on in-flight refresh")
	}
	s.End()
}

func TestSlotDueBacksOffAfterFailure(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewSlot("news", time.Minute, 0)
	s.now = func() time.Time { return base }

	if !s.Due(base) {
		t.Fatalf("empty slot with no failure should be due")
	}
	s.TryBegin()
	s.Fail(errors.New("down"), nil)
	s.End()
	if s.Due(base.Add(30 * time.Second)) {
		t.Fatalf("slot that just failed should wait a freshness window")
	}
	if !s.Due(base.Add(61 * time.Second)) {
		t.Fatalf("slot should be due again after the window")
	}
}
