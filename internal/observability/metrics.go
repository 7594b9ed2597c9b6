// Package observability provides metrics for the Danbi application.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danbi-garden/danbi/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry *prometheus.Registry
	Remote   *metrics.RemoteMetrics
	Reminder *metrics.ReminderMetrics
	Identify *metrics.IdentifyMetrics
	Garden   *metrics.GardenMetrics
}

// NewMetrics creates a new instance of Metrics, initializing all metric collectors.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("failed to register go collector: %w", err)
	}

	remoteMetrics, err := metrics.NewRemoteMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create remote metrics: %w", err)
	}

	reminderMetrics, err := metrics.NewReminderMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create reminder metrics: %w", err)
	}

	identifyMetrics, err := metrics.NewIdentifyMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create identify metrics: %w", err)
	}

	gardenMetrics, err := metrics.NewGardenMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create garden metrics: %w", err)
	}

	return &Metrics{
		registry: registry,
		Remote:   remoteMetrics,
		Reminder: reminderMetrics,
		Identify: identifyMetrics,
		Garden:   gardenMetrics,
	}, nil
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}
