package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ReminderMetrics tracks local watering reminders.
type ReminderMetrics struct {
	registry *prometheus.Registry

	operationsTotal *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	sendDuration    *prometheus.HistogramVec
	pending         prometheus.Gauge
}

// NewReminderMetrics creates and registers reminder metrics.
func NewReminderMetrics(registry *prometheus.Registry) (*ReminderMetrics, error) {
	m := &ReminderMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *ReminderMetrics) initMetrics() {
	m.operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "danbi_reminder_operations_total",
			Help: "Total number of reminder operations",
		},
		[]string{"operation", "status"}, // operation: schedule, cancel, fire, restore
	)

	m.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "danbi_reminder_errors_total",
			Help: "Total number of reminder errors",
		},
		[]string{"operation", "error_type"},
	)

	m.sendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "danbi_reminder_duration_seconds",
			Help:    "Time taken by reminder operations",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount10),
		},
		[]string{"operation"},
	)

	m.pending = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "danbi_reminders_pending",
		Help: "Number of armed watering reminders",
	})
}

// Describe implements the Collector interface.
func (m *ReminderMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.operationsTotal.Describe(ch)
	m.errorsTotal.Describe(ch)
	m.sendDuration.Describe(ch)
	m.pending.Describe(ch)
}

// Collect implements the Collector interface.
func (m *ReminderMetrics) Collect(ch chan<- prometheus.Metric) {
	m.operationsTotal.Collect(ch)
	m.errorsTotal.Collect(ch)
	m.sendDuration.Collect(ch)
	m.pending.Collect(ch)
}

// RecordOperation implements Recorder.
func (m *ReminderMetrics) RecordOperation(operation, status string) {
	m.operationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordDuration implements Recorder.
func (m *ReminderMetrics) RecordDuration(operation string, seconds float64) {
	m.sendDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordError implements Recorder.
func (m *ReminderMetrics) RecordError(operation, errorType string) {
	m.errorsTotal.WithLabelValues(operation, errorType).Inc()
}

// SetPending records the number of armed reminders.
func (m *ReminderMetrics) SetPending(n int) {
	m.pending.Set(float64(n))
}
