package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"ForexPulse/internal/domain/models"
	domrepo "ForexPulse/internal/domain/repository"
	"ForexPulse/internal/service/cache"
	applogger "ForexPulse/pkg/logger"

	"github.com/google/uuid"
)

// ErrNotifierClosed is returned by Subscribe after Stop.
var ErrNotifierClosed = errors.New("notifier closed")

// NewsRefresher runs the news refresh path.
type NewsRefresher interface {
	RefreshNews(ctx context.Context) error
}

// Subscription receives news batches on C until it is closed.
// C holds at most one pending batch; a newer batch replaces an unread one.
type Subscription struct {
	ID string
	C  <-chan models.NewsBatch

	ch   chan models.NewsBatch
	n    *Notifier
	once sync.Once
}

// Close unsubscribes and closes C. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() { s.n.remove(s) })
}

// NotifierOption configures Notifier.
type NotifierOption func(*Notifier)

// Notifier pushes the top news items to every subscriber on a fixed cadence.
type Notifier struct {
	refresher NewsRefresher
	slot      *cache.Slot[[]models.NewsItem]
	interval  time.Duration
	topK      int
	metrics   domrepo.Metrics
	log       *applogger.Logger
	now       func() time.Time

	mu     sync.RWMutex
	subs   map[string]*Subscription
	closed bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewNotifier(r NewsRefresher, slot *cache.Slot[[]models.NewsItem], opts ...NotifierOption) *Notifier {
	n := &Notifier{
		refresher: r,
		slot:      slot,
		interval:  5 * time.Minute,
		topK:      5,
		log:       applogger.Nop(),
		now:       time.Now,
		subs:      make(map[string]*Subscription),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Subscribe registers a new subscriber. It only receives batches from future ticks.
func (n *Notifier) Subscribe() (*Subscription, error) {
	ch := make(chan models.NewsBatch, 1)
	s := &Subscription{ID: uuid.NewString(), C: ch, ch: ch, n: n}

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil, ErrNotifierClosed
	}
	n.subs[s.ID] = s
	count := len(n.subs)
	n.mu.Unlock()

	n.recordSubscribers(count)
	n.log.Debug("subscriber added", applogger.String("id", s.ID), applogger.Int("subscribers", count))
	return s, nil
}

func (n *Notifier) remove(s *Subscription) {
	n.mu.Lock()
	if _, ok := n.subs[s.ID]; ok {
		delete(n.subs, s.ID)
		close(s.ch)
	}
	count := len(n.subs)
	n.mu.Unlock()

	n.recordSubscribers(count)
	n.log.Debug("subscriber removed", applogger.String("id", s.ID), applogger.Int("subscribers", count))
}

// Count returns the number of active subscribers.
func (n *Notifier) Count() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs)
}

// Start runs the tick loop until ctx is done or Stop is called.
func (n *Notifier) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	n.mu.Lock()
	n.cancel = cancel
	n.mu.Unlock()

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		t := time.NewTicker(n.interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				n.Tick(ctx)
			}
		}
	}()
	n.log.Info("notifier started", applogger.Duration("interval", n.interval), applogger.Int("top_k", n.topK))
}

// Tick refreshes news and pushes the top items, if anyone is listening.
func (n *Notifier) Tick(ctx context.Context) {
	if n.Count() == 0 {
		return
	}
	if n.refresher != nil {
		if err := n.refresher.RefreshNews(ctx); err != nil && !errors.Is(err, ErrRefreshInFlight) {
			n.log.Warn("news refresh before push failed, sending cached items", applogger.Error(err))
		}
	}
	n.Broadcast(TopNews(n.slot.Load().Value, n.topK))
}

// Broadcast delivers items to every subscriber without blocking.
func (n *Notifier) Broadcast(items []models.NewsItem) {
	batch := models.NewsBatch{Items: items, At: n.now().UTC()}

	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, s := range n.subs {
		select {
		case s.ch <- batch:
			continue
		default:
		}
		// Replace the unread batch.
		select {
		case <-s.ch:
		default:
		}
		select {
		case s.ch <- batch:
		default:
		}
	}
}

// Stop ends the tick loop and closes every subscription.
func (n *Notifier) Stop() {
	n.mu.Lock()
	n.closed = true
	cancel := n.cancel
	subs := make([]*Subscription, 0, len(n.subs))
	for _, s := range n.subs {
		subs = append(subs, s)
	}
	n.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	n.wg.Wait()
	for _, s := range subs {
		s.Close()
	}
	n.log.Info("notifier stopped", applogger.Int("closed_subscribers", len(subs)))
}

func (n *Notifier) recordSubscribers(count int) {
	if n.metrics != nil {
		n.metrics.RecordSubscribers(count)
	}
}

func WithTickInterval(d time.Duration) NotifierOption {
	return func(n *Notifier) {
		if d > 0 {
			n.interval = d
		}
	}
}

func WithTopK(k int) NotifierOption {
	return func(n *Notifier) {
		if k > 0 {
			n.topK = k
		}
	}
}

func WithNotifierMetrics(m domrepo.Metrics) NotifierOption {
	return func(n *Notifier) { n.metrics = m }
}

func WithNotifierLogger(l *applogger.Logger) NotifierOption {
	return func(n *Notifier) {
		if l != nil {
			n.log = l
		}
	}
}
