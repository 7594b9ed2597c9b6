package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// IdentifyMetrics tracks species identification outcomes and inference.
type IdentifyMetrics struct {
	registry *prometheus.Registry

	outcomesTotal   *prometheus.CounterVec
	operationsTotal *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	durationSeconds *prometheus.HistogramVec
	topConfidence   *prometheus.HistogramVec
}

// NewIdentifyMetrics creates and registers identification metrics.
func NewIdentifyMetrics(registry *prometheus.Registry) (*IdentifyMetrics, error) {
	m := &IdentifyMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *IdentifyMetrics) initMetrics() {
	m.outcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "danbi_identify_outcomes_total",
			Help: "Total number of identification results by outcome",
		},
		[]string{"outcome"}, // outcome: identified, plant_detected, not_plant
	)

	m.operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "danbi_identify_operations_total",
			Help: "Total number of identification stage runs",
		},
		[]string{"operation", "status"},
	)

	m.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "danbi_identify_errors_total",
			Help: "Total number of identification stage errors",
		},
		[]string{"operation", "error_type"},
	)

	m.durationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "danbi_identify_duration_seconds",
			Help:    "Time taken by identification stages",
			Buckets: prometheus.ExponentialBuckets(BucketStart10ms, BucketFactor2, BucketCount10),
		},
		[]string{"operation"},
	)

	m.topConfidence = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "danbi_identify_top_confidence",
			Help:    "Confidence of the best candidate per stage",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
		[]string{"operation"},
	)
}

// Describe implements the Collector interface.
func (m *IdentifyMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.outcomesTotal.Describe(ch)
	m.operationsTotal.Describe(ch)
	m.errorsTotal.Describe(ch)
	m.durationSeconds.Describe(ch)
	m.topConfidence.Describe(ch)
}

// Collect implements the Collector interface.
func (m *IdentifyMetrics) Collect(ch chan<- prometheus.Metric) {
	m.outcomesTotal.Collect(ch)
	m.operationsTotal.Collect(ch)
	m.errorsTotal.Collect(ch)
	m.durationSeconds.Collect(ch)
	m.topConfidence.Collect(ch)
}

// RecordOutcome counts one identification result.
func (m *IdentifyMetrics) RecordOutcome(outcome string) {
	m.outcomesTotal.WithLabelValues(outcome).Inc()
}

// RecordConfidence records the best candidate confidence of a stage.
func (m *IdentifyMetrics) RecordConfidence(operation string, confidence float64) {
	m.topConfidence.WithLabelValues(operation).Observe(confidence)
}

// RecordOperation implements Recorder.
func (m *IdentifyMetrics) RecordOperation(operation, status string) {
	m.operationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordDuration implements Recorder.
func (m *IdentifyMetrics) RecordDuration(operation string, seconds float64) {
	m.durationSeconds.WithLabelValues(operation).Observe(seconds)
}

// RecordError implements Recorder.
func (m *IdentifyMetrics) RecordError(operation, errorType string) {
	m.errorsTotal.WithLabelValues(operation, errorType).Inc()
}
