package usecase

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"ForexPulse/internal/domain/models"
	"ForexPulse/internal/service/cache"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (r *countingRefresher) RefreshNews(context.Context) error {
	r.calls.Add(1)
	return r.err
}

func seededNewsSlot(n int) *cache.Slot[[]models.NewsItem] {
	slot := cache.NewSlot("news", time.Minute, []models.NewsItem{})
	items := make([]models.NewsItem, n)
	for i := range items {
		items[i] = item(string(rune('A'+i)), string(rune('a'+i)), "s", time.Duration(i)*time.Minute)
	}
	slot.TryBegin()
	slot.Commit(items, nil)
	slot.End()
	return slot
}

func TestNotifierTickPushesTopK(t *testing.T) {
	ref := &countingRefresher{}
	n := NewNotifier(ref, seededNewsSlot(8), WithTopK(5))
	a, _ := n.Subscribe()
	b, _ := n.Subscribe()
	if a.ID == b.ID {
		t.Fatalf("subscription ids must be unique")
	}

	n.Tick(context.Background())
	for _, s := range []*Subscription{a, b} {
		select {
		case batch := <-s.C:
			if len(batch.Items) != 5 || batch.Items[0].Title != "A" {
				t.Fatalf("unexpected batch %+v", batch.Items)
			}
		default:
			t.Fatalf("subscriber %s got nothing", s.ID)
		}
	}
	if ref.calls.Load() != 1 {
		t.Fatalf("tick should run the news refresh once, got %d", ref.calls.Load())
	}
}

func TestNotifierTickWithoutSubscribersDoesNothing(t *testing.T) {
	ref := &countingRefresher{}
	n := NewNotifier(ref, seededNewsSlot(3))
	n.Tick(context.Background())
	if ref.calls.Load() != 0 {
		t.Fatalf("refresh ran with no subscribers")
	}
}

func TestNotifierTickInFlightStillPushes(t *testing.T) {
	ref := &countingRefresher{err: ErrRefreshInFlight}
	n := NewNotifier(ref, seededNewsSlot(2))
	s, _ := n.Subscribe()
	n.Tick(context.Background())
	select {
	case batch := <-s.C:
		if len(batch.Items) != 2 {
			t.Fatalf("unexpected batch %+v", batch)
		}
	default:
		t.Fatalf("cached items should be pushed when the refresh is in flight")
	}
}

func TestNotifierSlowSubscriberGetsLatestBatch(t *testing.T) {
	n := NewNotifier(nil, seededNewsSlot(1))
	s, _ := n.Subscribe()

	n.Broadcast([]models.NewsItem{{Title: "first"}})
	n.Broadcast([]models.NewsItem{{Title: "second"}})

	batch := <-s.C
	if batch.Items[0].Title != "second" {
		t.Fatalf("pending batch should be replaced, got %q", batch.Items[0].Title)
	}
	select {
	case extra := <-s.C:
		t.Fatalf("unexpected extra batch %+v", extra)
	default:
	}
}

func TestNotifierCloseUnsubscribes(t *testing.T) {
	n := NewNotifier(nil, seededNewsSlot(1))
	s, _ := n.Subscribe()
	other, _ := n.Subscribe()
	if n.Count() != 2 {
		t.Fatalf("count = %d", n.Count())
	}

	s.Close()
	s.Close()
	if n.Count() != 1 {
		t.Fatalf("count after close = %d", n.Count())
	}
	if _, ok := <-s.C; ok {
		t.Fatalf("closed subscription channel must be closed")
	}

	n.Broadcast([]models.NewsItem{{Title: "x"}})
	if _, ok := <-other.C; !ok {
		t.Fatalf("remaining subscriber should still receive")
	}
}

func TestNotifierLateJoinerGetsOnlyFutureTicks(t *testing.T) {
	n := NewNotifier(nil, seededNewsSlot(1))
	early, _ := n.Subscribe()
	n.Broadcast([]models.NewsItem{{Title: "past"}})
	<-early.C

	late, _ := n.Subscribe()
	select {
	case b := <-late.C:
		t.Fatalf("late joiner received replay %+v", b)
	default:
	}
}

func TestNotifierStopClosesSubscriptions(t *testing.T) {
	n := NewNotifier(&countingRefresher{}, seededNewsSlot(1), WithTickInterval(time.Hour))
	n.Start(context.Background())
	s, _ := n.Subscribe()

	n.Stop()
	if _, ok := <-s.C; ok {
		t.Fatalf("stop must close subscriber channels")
	}
	if n.Count() != 0 {
		t.Fatalf("count = %d", n.Count())
	}
	if _, err := n.Subscribe(); err != ErrNotifierClosed {
		t.Fatalf("subscribe after stop err = %v", err)
	}
}

func TestNotifierLoopTicks(t *testing.T) {
	ref := &countingRefresher{}
	n := NewNotifier(ref, seededNewsSlot(3), WithTickInterval(10*time.Millisecond))
	s, _ := n.Subscribe()
	n.Start(context.Background())
	defer n.Stop()

	select {
	case batch := <-s.C:
		if len(batch.Items) != 3 {
			t.Fatalf("unexpected batch %+v", batch)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no batch delivered by the tick loop")
	}
}
