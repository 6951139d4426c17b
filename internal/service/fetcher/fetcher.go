package fetcher

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"ForexPulse/internal/domain/models"
	domrepo "ForexPulse/internal/domain/repository"
	xhttp "ForexPulse/pkg/http"
	applogger "ForexPulse/pkg/logger"

	"golang.org/x/time/rate"
)

const defaultTimeout = 10 * time.Second

// Option configures Fetcher.
type Option func(*Fetcher)

// Fetcher issues one bounded GET per call. It implements domain.repository.Fetcher.
type Fetcher struct {
	client    *xhttp.Client
	maxBody   int64
	userAgent string
	perMinute float64
	burst     int
	breakCfg  BreakerConfig
	metrics   domrepo.Metrics
	log       *applogger.Logger
	now       func() time.Time

	breakers *breakers
	limMu    sync.Mutex
	limiters map[string]*rate.Limiter
}

// New creates a fetcher. Without options it sends no User-Agent, caps bodies at 5 MiB
// and applies no rate limit.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		maxBody:  5 << 20,
		burst:    1,
		breakCfg: DefaultBreakerConfig,
		log:      applogger.Nop(),
		now:      time.Now,
		limiters: make(map[string]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = xhttp.NewClient(xhttp.WithUserAgent(f.userAgent))
	}
	f.breakers = newBreakers(f.breakCfg, f.metrics, f.log)
	return f
}

// Fetch requests src.Endpoint. It never returns an error; failures are
// classified into RawFetchResult.Err.
func (f *Fetcher) Fetch(ctx context.Context, src models.Source) models.RawFetchResult {
	start := f.now()
	timeout := src.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res := models.RawFetchResult{SourceID: src.ID}
	payload, err := f.do(ctx, src)
	res.FetchedAt = f.now()
	if err != nil {
		res.Err = classify(src.ID, err)
		f.log.Warn("fetch failed",
			applogger.String("source", src.ID),
			applogger.String("kind", string(src.Kind)),
			applogger.String("reason", string(res.Err.Kind)),
			applogger.Error(err),
		)
	} else {
		res.Payload = payload
	}

	if f.metrics != nil {
		outcome := "ok"
		if res.Err != nil {
			outcome = string(res.Err.Kind)
		}
		f.metrics.RecordFetch(src.Kind, src.ID, outcome, res.FetchedAt.Sub(start).Seconds())
	}
	return res
}

func (f *Fetcher) do(ctx context.Context, src models.Source) ([]byte, error) {
	if lim := f.limiter(src.ID); lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return nil, models.NewFetchError(models.UpstreamTimeout, src.ID, "rate limit wait", err)
		}
	}
	return f.breakers.get(src.ID).Execute(func() ([]byte, error) {
		b, err := f.client.Get(ctx, src.Endpoint, f.maxBody)
		if errors.Is(err, xhttp.ErrBodyTooLarge) {
			return nil, models.NewFetchError(models.MalformedPayload, src.ID, "body exceeds limit", err)
		}
		return b, err
	})
}

func (f *Fetcher) limiter(id string) *rate.Limiter {
	if f.perMinute <= 0 {
		return nil
	}
	f.limMu.Lock()
	defer f.limMu.Unlock()
	lim, ok := f.limiters[id]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(f.perMinute/60.0), f.burst)
		f.limiters[id] = lim
	}
	return lim
}

// BreakerState reports the circuit breaker state of a source.
func (f *Fetcher) BreakerState(sourceID string) string {
	return f.breakers.state(sourceID)
}

func classify(source string, err error) *models.FetchError {
	var fe *models.FetchError
	if errors.As(err, &fe) {
		return fe
	}
	if isBreakerRejection(err) {
		return models.NewFetchError(models.UpstreamUnreachable, source, "circuit open", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return models.NewFetchError(models.UpstreamTimeout, source, "deadline exceeded", err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return models.NewFetchError(models.UpstreamTimeout, source, "", err)
	}
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return models.NewFetchError(models.UpstreamUnreachable, source, se.Error(), err)
	}
	return models.NewFetchError(models.UpstreamUnreachable, source, "", err)
}

// WithClient overrides the HTTP client.
func WithClient(c *xhttp.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithUserAgent sets the User-Agent header. Ignored when WithClient is used.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxBody caps payload size in bytes.
func WithMaxBody(n int64) Option {
	return func(f *Fetcher) {
		f.maxBody = n
	}
}

// WithRateLimit limits requests per source. perMinute <= 0 disables limiting.
func WithRateLimit(perMinute float64, burst int) Option {
	return func(f *Fetcher) {
		f.perMinute = perMinute
		if burst > 0 {
			f.burst = burst
		}
	}
}

// WithBreaker sets the circuit breaker configuration.
func WithBreaker(cfg BreakerConfig) Option {
	return func(f *Fetcher) {
		f.breakCfg = cfg
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m domrepo.Metrics) Option {
	return func(f *Fetcher) {
		f.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(l *applogger.Logger) Option {
	return func(f *Fetcher) {
		f.log = l
	}
}
