package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()

	m.RecordRequest("/orders/:id", "GET", 200, 15*time.Millisecond)
	m.RecordRequest("/orders/:id", "GET", 200, 5*time.Millisecond)
	m.RecordError("/orders/:id/status", "PATCH", "INVALID_TRANSITION")
	m.RecordEmail("order_status", "sent")
	m.RecordStatusChange("completed")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.requestCount.WithLabelValues("GET", "/orders/:id", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.errorCount.WithLabelValues("PATCH", "/orders/:id/status", "INVALID_TRANSITION")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.emailCount.WithLabelValues("order_status", "sent")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.statusChanges.WithLabelValues("completed")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.RecordError("/", "GET", "X")
		m.RecordEmail("c", "s")
		m.RecordStatusChange("pending")
	})
	assert.Nil(t, m.Registry())
}
