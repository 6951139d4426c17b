package metrics

import (
	"ForexPulse/internal/domain/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetchTotal    *prometheus.CounterVec
	fetchLatency  *prometheus.HistogramVec
	refreshTotal  *prometheus.CounterVec
	refreshLat    *prometheus.HistogramVec
	items         *prometheus.GaugeVec
	slotAge       *prometheus.GaugeVec
	subscribers   prometheus.Gauge
	sinkErrors    *prometheus.CounterVec
	breakerStates *prometheus.GaugeVec
}

// New creates a metrics recorder registered on reg. A nil reg means the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		fetchTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forexpulse_fetch_total",
				Help: "Upstream fetches by kind, source and outcome",
			},
			[]string{"kind", "source", "outcome"},
		),
		fetchLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "forexpulse_fetch_duration_seconds",
				Help:    "Duration of upstream fetches in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
			},
			[]string{"kind", "source"},
		),
		refreshTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forexpulse_refresh_total",
				Help: "Refresh cycles by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		refreshLat: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "forexpulse_refresh_duration_seconds",
				Help:    "Duration of refresh cycles in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		items: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "forexpulse_slot_items",
				Help: "Number of items in the committed slot value",
			},
			[]string{"kind"},
		),
		slotAge: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "forexpulse_slot_age_seconds",
				Help: "Seconds since the slot was last committed",
			},
			[]string{"kind"},
		),
		subscribers: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "forexpulse_stream_subscribers",
				Help: "Active news stream subscribers",
			},
		),
		sinkErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forexpulse_sink_errors_total",
				Help: "Snapshot export failures by sink",
			},
			[]string{"sink"},
		),
		breakerStates: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "forexpulse_breaker_state",
				Help: "Circuit breaker state per source (0=closed, 1=half-open, 2=open)",
			},
			[]string{"source"},
		),
	}
}

func (r *Recorder) RecordFetch(kind models.Kind, source, outcome string, seconds float64) {
	r.fetchTotal.WithLabelValues(string(kind), source, outcome).Inc()
	r.fetchLatency.WithLabelValues(string(kind), source).Observe(seconds)
}

func (r *Recorder) RecordRefresh(kind models.Kind, outcome string, seconds float64) {
	r.refreshTotal.WithLabelValues(string(kind), outcome).Inc()
	r.refreshLat.WithLabelValues(string(kind)).Observe(seconds)
}

func (r *Recorder) RecordItems(kind models.Kind, n int) {
	r.items.WithLabelValues(string(kind)).Set(float64(n))
}

func (r *Recorder) RecordSlotAge(kind models.Kind, seconds float64) {
	r.slotAge.WithLabelValues(string(kind)).Set(seconds)
}

func (r *Recorder) RecordSubscribers(n int) {
	r.subscribers.Set(float64(n))
}

func (r *Recorder) RecordSinkError(sink string) {
	r.sinkErrors.WithLabelValues(sink).Inc()
}

func (r *Recorder) RecordBreakerState(source string, state int) {
	r.breakerStates.WithLabelValues(source).Set(float64(state))
}
