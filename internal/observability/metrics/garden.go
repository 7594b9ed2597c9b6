package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// GardenMetrics tracks plant registry operations.
type GardenMetrics struct {
	registry *prometheus.Registry

	operationsTotal *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	plants          prometheus.Gauge
	adsShown        *prometheus.CounterVec
}

// NewGardenMetrics creates and registers garden metrics.
func NewGardenMetrics(registry *prometheus.Registry) (*GardenMetrics, error) {
	m := &GardenMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *GardenMetrics) initMetrics() {
	m.operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "danbi_plant_operations_total",
			Help: "Total number of plant registry operations",
		},
		[]string{"operation", "status"},
	)

	m.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "danbi_plant_errors_total",
			Help: "Total number of plant registry errors",
		},
		[]string{"operation", "error_type"},
	)

	m.duration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "danbi_plant_operation_duration_seconds",
			Help:    "Time taken by plant registry operations",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount10),
		},
		[]string{"operation"},
	)

	m.plants = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "danbi_plants_registered",
		Help: "Number of registered plants",
	})

	m.adsShown = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "danbi_ads_presented_total",
			Help: "Total number of advertisement presentations",
		},
		[]string{"format", "status"}, // format: rewarded, app_open
	)
}

// Describe implements the Collector interface.
func (m *GardenMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.operationsTotal.Describe(ch)
	m.errorsTotal.Describe(ch)
	m.duration.Describe(ch)
	m.plants.Describe(ch)
	m.adsShown.Describe(ch)
}

// Collect implements the Collector interface.
func (m *GardenMetrics) Collect(ch chan<- prometheus.Metric) {
	m.operationsTotal.Collect(ch)
	m.errorsTotal.Collect(ch)
	m.duration.Collect(ch)
	m.plants.Collect(ch)
	m.adsShown.Collect(ch)
}

// RecordOperation implements Recorder.
func (m *GardenMetrics) RecordOperation(operation, status string) {
	m.operationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordDuration implements Recorder.
func (m *GardenMetrics) RecordDuration(operation string, seconds float64) {
	m.duration.WithLabelValues(operation).Observe(seconds)
}

// RecordError implements Recorder.
func (m *GardenMetrics) RecordError(operation, errorType string) {
	m.errorsTotal.WithLabelValues(operation, errorType).Inc()
}

// SetPlants records the registry size.
func (m *GardenMetrics) SetPlants(n int) {
	m.plants.Set(float64(n))
}

// RecordAd counts one advertisement presentation.
func (m *GardenMetrics) RecordAd(format, status string) {
	m.adsShown.WithLabelValues(format, status).Inc()
}
