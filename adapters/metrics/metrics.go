// Package metrics provides Prometheus metrics collection for the
// routing core.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/artpar/pathsource/ports"
)

// Collector holds all Prometheus metrics for route resolution.
type Collector struct {
	// Registration metrics
	RoutesRegistered prometheus.Gauge

	// Resolution metrics
	ResolveTotal    *prometheus.CounterVec
	ResolveDuration *prometheus.HistogramVec

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
}

// New creates a new metrics collector registered on the default
// Prometheus registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new metrics collector registered on a
// custom registry. Useful for tests.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		RoutesRegistered: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "pathsource",
				Name:      "routes_registered",
				Help:      "Number of registered service paths",
			},
		),
		ResolveTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pathsource",
				Name:      "resolve_total",
				Help:      "Total number of path resolutions",
			},
			[]string{"result", "path"},
		),
		ResolveDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "pathsource",
				Name:      "resolve_duration_seconds",
				Help:      "Path resolution duration in seconds",
				Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
			},
			[]string{"result"},
		),
		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "pathsource",
				Name:      "config_reloads_total",
				Help:      "Total number of configuration reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "pathsource",
				Name:      "config_reload_errors_total",
				Help:      "Total number of failed configuration reloads",
			},
		),
	}
}

// RouteRegistered implements ports.Metrics.
func (c *Collector) RouteRegistered(template string) {
	c.RoutesRegistered.Inc()
}

// ResolveHit implements ports.Metrics.
func (c *Collector) ResolveHit(template string, d time.Duration) {
	c.ResolveTotal.WithLabelValues("hit", template).Inc()
	c.ResolveDuration.WithLabelValues("hit").Observe(d.Seconds())
}

// ResolveMiss implements ports.Metrics.
func (c *Collector) ResolveMiss(d time.Duration) {
	c.ResolveTotal.WithLabelValues("miss", "").Inc()
	c.ResolveDuration.WithLabelValues("miss").Observe(d.Seconds())
}

// ResolveError implements ports.Metrics.
func (c *Collector) ResolveError(template string, d time.Duration) {
	c.ResolveTotal.WithLabelValues("error", template).Inc()
	c.ResolveDuration.WithLabelValues("error").Observe(d.Seconds())
}

// Ensure interface compliance.
var _ ports.Metrics = (*Collector)(nil)
