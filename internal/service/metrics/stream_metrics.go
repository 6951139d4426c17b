package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// StreamMetrics counts pushes to streaming clients per transport (sse, ws).
type StreamMetrics struct {
	Connections *prometheus.GaugeVec
	Batches     *prometheus.CounterVec
	Errors      *prometheus.CounterVec
}

// NewStreamMetrics registers the stream collectors on reg, or on the default registerer when reg is nil.
func NewStreamMetrics(reg prometheus.Registerer) *StreamMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &StreamMetrics{
		Connections: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "forexpulse",
			Subsystem: "stream",
			Name:      "connections",
			Help:      "Open streaming connections",
		}, []string{"transport"}),
		Batches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forexpulse",
			Subsystem: "stream",
			Name:      "batches_total",
			Help:      "News batches written to streaming clients",
		}, []string{"transport"}),
		Errors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forexpulse",
			Subsystem: "stream",
			Name:      "errors_total",
			Help:      "Write failures on streaming connections",
		}, []string{"transport"}),
	}
}

func (m *StreamMetrics) Opened(transport string) {
	if m != nil {
		m.Connections.WithLabelValues(transport).Inc()
	}
}

func (m *StreamMetrics) Closed(transport string) {
	if m != nil {
		m.Connections.WithLabelValues(transport).Dec()
	}
}

func (m *StreamMetrics) Sent(transport string) {
	if m != nil {
		m.Batches.WithLabelValues(transport).Inc()
	}
}

func (m *StreamMetrics) Failed(transport string) {
	if m != nil {
		m.Errors.WithLabelValues(transport).Inc()
	}
}
