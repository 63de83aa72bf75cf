package api

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type alertRecorder struct {
	mu     sync.Mutex
	alerts []AlertEvent
}

func (ar *alertRecorder) record(e AlertEvent) {
	ar.mu.Lock()
	ar.alerts = append(ar.alerts, e)
	ar.mu.Unlock()
}

func (ar *alertRecorder) snapshot() []AlertEvent {
	ar.mu.Lock()
	defer ar.mu.Unlock()
	return append([]AlertEvent(nil), ar.alerts...)
}

func TestLoginFailureSpikeAlert(t *testing.T) {
	rec := &alertRecorder{}
	collector := newMetricsCollector(rec.record)
	collector.loginFailures.threshold = 5

	for i := 0; i < 4; i++ {
		collector.recordEvent(AuditLoginFailure)
	}
	assert.Empty(t, rec.snapshot(), "no alert below threshold")

	collector.recordEvent(AuditLoginFailure)
	alerts := rec.snapshot()
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertLoginFailureSpike, alerts[0].Type)
	assert.Equal(t, 5, alerts[0].Count)
	assert.Equal(t, 5, alerts[0].Threshold)
}

func TestUnauthorizedSpikeAlert(t *testing.T) {
	rec := &alertRecorder{}
	collector := newMetricsCollector(rec.record)
	collector.unauthorized.threshold = 3

	collector.recordEvent(AuditUnauthorized)
	collector.recordEvent(AuditUnauthorized)
	// Unrelated events do not count.
	collector.recordEvent(AuditLoginFailure)
	collector.recordEvent(AuditStoryCreated)
	assert.Empty(t, rec.snapshot(), "no alert below threshold")

	collector.recordEvent(AuditUnauthorized)
	alerts := rec.snapshot()
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertUnauthorizedSpike, alerts[0].Type)
	assert.Equal(t, 3, alerts[0].Count)
}

func TestMetricsNoAlertWithoutCallback(t *testing.T) {
	collector := newMetricsCollector(nil)
	collector.recordEvent(AuditLoginFailure)
}

func TestMetricsNilCollector(t *testing.T) {
	var collector *metricsCollector
	collector.recordEvent(AuditLoginFailure)
}

func TestMetricsSlidingWindowExpiry(t *testing.T) {
	rec := &alertRecorder{}
	collector := newMetricsCollector(rec.record)
	collector.loginFailures.threshold = 5

	clock := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	collector.now = func() time.Time { return clock }

	for i := 0; i < 4; i++ {
		collector.recordEvent(AuditLoginFailure)
	}

	// Old failures slide out of the window.
	clock = clock.Add(defaultLoginFailureWindow + time.Second)
	collector.recordEvent(AuditLoginFailure)
	assert.Empty(t, rec.snapshot(), "old failures should not count after window expiry")
}

func TestMetricsResetAfterAlert(t *testing.T) {
	rec := &alertRecorder{}
	collector := newMetricsCollector(rec.record)
	collector.loginFailures.threshold = 3

	for i := 0; i < 3; i++ {
		collector.recordEvent(AuditLoginFailure)
	}
	require.Len(t, rec.snapshot(), 1, "first alert triggered")

	for i := 0; i < 2; i++ {
		collector.recordEvent(AuditLoginFailure)
	}
	assert.Len(t, rec.snapshot(), 1, "no second alert yet")

	collector.recordEvent(AuditLoginFailure)
	assert.Len(t, rec.snapshot(), 2, "second alert triggered")
}

func TestTrimWindow(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	times := []time.Time{now.Add(-3 * time.Minute), now.Add(-2 * time.Minute), now.Add(-30 * time.Second), now}
	got := trimWindow(times, now, time.Minute)
	assert.Equal(t, []time.Time{now.Add(-30 * time.Second), now}, got)
	assert.Empty(t, trimWindow(nil, now, time.Minute))
}
