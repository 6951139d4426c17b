package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"ForexPulse/internal/domain/models"
	domrepo "ForexPulse/internal/domain/repository"
	applogger "ForexPulse/pkg/logger"
)

// Intervals holds the refresh period per kind.
type Intervals struct {
	News     time.Duration
	Calendar time.Duration
	Quotes   time.Duration
}

func (i Intervals) of(kind models.Kind) time.Duration {
	switch kind {
	case models.KindNews:
		return i.News
	case models.KindCalendar:
		return i.Calendar
	case models.KindQuote:
		return i.Quotes
	}
	return 0
}

// Scheduler drives the refresher on an independent timer per kind.
type Scheduler struct {
	refresher *Refresher
	intervals Intervals
	log       *applogger.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(r *Refresher, intervals Intervals, l *applogger.Logger) *Scheduler {
	if l == nil {
		l = applogger.Nop()
	}
	return &Scheduler{refresher: r, intervals: intervals, log: l}
}

// Start refreshes every kind once in the background and then on its interval.
// It returns immediately.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	for _, kind := range domrepo.Kinds() {
		s.wg.Add(1)
		go s.loop(s.ctx, kind, s.intervals.of(kind))
	}
	s.log.Info("scheduler started",
		applogger.Duration("news", s.intervals.News),
		applogger.Duration("calendar", s.intervals.Calendar),
		applogger.Duration("quotes", s.intervals.Quotes),
	)
}

func (s *Scheduler) loop(ctx context.Context, kind models.Kind, every time.Duration) {
	defer s.wg.Done()
	s.run(ctx, kind)
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.run(ctx, kind)
		}
	}
}

func (s *Scheduler) run(ctx context.Context, kind models.Kind) {
	err := s.refresher.Refresh(ctx, kind)
	if errors.Is(err, ErrRefreshInFlight) {
		s.log.Debug("refresh skipped, already in flight", applogger.String("kind", string(kind)))
	}
}

// Kick starts a background refresh of kind unless one is already running.
// It never blocks the caller.
func (s *Scheduler) Kick(kind models.Kind) {
	if s.refresher.InFlight(kind) {
		return
	}
	s.mu.Lock()
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	go func() {
		defer s.wg.Done()
		s.run(ctx, kind)
	}()
}

// Stop cancels the timers and waits for running refreshes to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
	s.log.Info("scheduler stopped")
}
