package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"ForexPulse/internal/domain/models"

	"github.com/go-playground/assert/v2"
)

func source(url string, timeout time.Duration) models.Source {
	return models.Source{ID: "test", Kind: models.KindNews, Endpoint: url, Timeout: timeout, Enabled: true}
}

func TestFetchOK(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("<rss></rss>"))
	}))
	defer srv.Close()

	f := New(WithUserAgent("Mozilla/5.0 ForexPulse"))
	res := f.Fetch(context.Background(), source(srv.URL, time.Second))

	assert.Equal(t, true, res.OK())
	assert.Equal(t, "<rss></rss>", string(res.Payload))
	assert.Equal(t, "test", res.SourceID)
	assert.Equal(t, "Mozilla/5.0 ForexPulse", ua)
	assert.Equal(t, false, res.FetchedAt.IsZero())
}

func TestFetchNon2xxIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	res := New().Fetch(context.Background(), source(srv.URL, time.Second))
	assert.NotEqual(t, nil, res.Err)
	assert.Equal(t, models.UpstreamUnreachable, res.Err.Kind)
	assert.Equal(t, 0, len(res.Payload))
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	res := New().Fetch(context.Background(), source(srv.URL, 50*time.Millisecond))
	if time.Since(start) > 2*time.Second {
		t.Fatalf("fetch not bounded by source timeout")
	}
	assert.NotEqual(t, nil, res.Err)
	assert.Equal(t, models.UpstreamTimeout, res.Err.Kind)
}

func TestFetchOversizedBodyIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer srv.Close()

	res := New(WithMaxBody(10)).Fetch(context.Background(), source(srv.URL, time.Second))
	assert.NotEqual(t, nil, res.Err)
	assert.Equal(t, models.MalformedPayload, res.Err.Kind)
}

func TestFetchUnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	res := New().Fetch(context.Background(), source(url, time.Second))
	assert.NotEqual(t, nil, res.Err)
	assert.Equal(t, models.UpstreamUnreachable, res.Err.Kind)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := New(WithBreaker(BreakerConfig{MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, ConsecutiveFailures: 2}))
	src := source(srv.URL, time.Second)
	for i := 0; i < 2; i++ {
		f.Fetch(context.Background(), src)
	}
	assert.Equal(t, "open", f.BreakerState("test"))

	res := f.Fetch(context.Background(), src)
	assert.Equal(t, models.UpstreamUnreachable, res.Err.Kind)
	assert.Equal(t, int32(2), hits.Load())
}

func TestRateLimitWaitBoundedByTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	// one request per minute, burst 1: the second call cannot get a token within 50ms
	f := New(WithRateLimit(1, 1))
	src := source(srv.URL, 50*time.Millisecond)
	first := f.Fetch(context.Background(), src)
	assert.Equal(t, true, first.OK())

	second := f.Fetch(context.Background(), src)
	assert.NotEqual(t, nil, second.Err)
	assert.Equal(t, models.UpstreamTimeout, second.Err.Kind)
}
