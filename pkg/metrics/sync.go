package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics records outcomes of GIAV sync attempts.
type SyncMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	skipped  *prometheus.CounterVec
}

// NewSyncMetrics registers the sync metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "giav_sync_duration_seconds",
		Help:    "Duration of GIAV sync attempts in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "giav_sync_success",
		Help: "Successful GIAV sync attempts.",
	}, []string{"trigger"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "giav_sync_failure",
		Help: "Failed GIAV sync attempts.",
	}, []string{"trigger"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "giav_sync_skipped",
		Help: "Sync attempts skipped because the version was already synced or locked.",
	}, []string{"reason"})
	reg.MustRegister(duration, success, failure, skipped)
	return &SyncMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		skipped:  skipped,
	}
}

// ObserveDuration records the duration for a sync attempt outcome.
func (m *SyncMetrics) ObserveDuration(outcome string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the given trigger.
func (m *SyncMetrics) IncSuccess(trigger string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(trigger)).Inc()
}

// IncFailure increments the failure counter for the given trigger.
func (m *SyncMetrics) IncFailure(trigger string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(trigger)).Inc()
}

// IncSkipped increments the skipped counter for the given reason.
func (m *SyncMetrics) IncSkipped(reason string) {
	if m == nil || m.skipped == nil {
		return
	}
	m.skipped.WithLabelValues(normalizeLabel(reason)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
