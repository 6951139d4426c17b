package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStreamMetrics(t *testing.T) {
	m := NewStreamMetrics(prometheus.NewRegistry())
	m.Opened("sse")
	m.Opened("sse")
	m.Closed("sse")
	m.Sent("ws")
	m.Failed("ws")

	if got := testutil.ToFloat64(m.Connections.WithLabelValues("sse")); got != 1 {
		t.Fatalf("connections = %v", got)
	}
	if got := testutil.ToFloat64(m.Batches.WithLabelValues("ws")); got != 1 {
		t.Fatalf("batches = %v", got)
	}
	if got := testutil.ToFloat64(m.Errors.WithLabelValues("ws")); got != 1 {
		t.Fatalf("errors = %v", got)
	}
}

func TestNilStreamMetricsIsSafe(t *testing.T) {
	var m *StreamMetrics
	m.Opened("sse")
	m.Sent("sse")
	m.Failed("sse")
	m.Closed("sse")
}
