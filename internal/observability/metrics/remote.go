// Package metrics provides remote API client metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RemoteMetrics tracks calls to third-party HTTP APIs, labelled by provider.
type RemoteMetrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	quotaRemaining  *prometheus.GaugeVec
}

// NewRemoteMetrics creates and registers remote API metrics.
func NewRemoteMetrics(registry *prometheus.Registry) (*RemoteMetrics, error) {
	m := &RemoteMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *RemoteMetrics) initMetrics() {
	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "danbi_remote_requests_total",
			Help: "Total number of remote API operations",
		},
		[]string{"provider", "operation", "status"},
	)

	m.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "danbi_remote_errors_total",
			Help: "Total number of remote API errors by category",
		},
		[]string{"provider", "operation", "error_type"},
	)

	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "danbi_remote_request_duration_seconds",
			Help:    "Time taken by remote API operations",
			Buckets: prometheus.ExponentialBuckets(BucketStart100ms, BucketFactor2, BucketCount10),
		},
		[]string{"provider", "operation"},
	)

	m.quotaRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "danbi_remote_quota_remaining",
			Help: "Remaining request quota reported by the provider",
		},
		[]string{"provider"},
	)
}

// Describe implements the Collector interface.
func (m *RemoteMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.requestsTotal.Describe(ch)
	m.errorsTotal.Describe(ch)
	m.requestDuration.Describe(ch)
	m.quotaRemaining.Describe(ch)
}

// Collect implements the Collector interface.
func (m *RemoteMetrics) Collect(ch chan<- prometheus.Metric) {
	m.requestsTotal.Collect(ch)
	m.errorsTotal.Collect(ch)
	m.requestDuration.Collect(ch)
	m.quotaRemaining.Collect(ch)
}

// SetQuotaRemaining records the provider's remaining quota.
func (m *RemoteMetrics) SetQuotaRemaining(provider string, remaining int) {
	m.quotaRemaining.WithLabelValues(provider).Set(float64(remaining))
}

// For returns a Recorder bound to one provider.
func (m *RemoteMetrics) For(provider string) Recorder {
	return &providerRecorder{m: m, provider: provider}
}

type providerRecorder struct {
	m        *RemoteMetrics
	provider string
}

func (r *providerRecorder) RecordOperation(operation, status string) {
	r.m.requestsTotal.WithLabelValues(r.provider, operation, status).Inc()
}

func (r *providerRecorder) RecordDuration(operation string, seconds float64) {
	r.m.requestDuration.WithLabelValues(r.provider, operation).Observe(seconds)
}

func (r *providerRecorder) RecordError(operation, errorType string) {
	r.m.errorsTotal.WithLabelValues(r.provider, operation, errorType).Inc()
}
