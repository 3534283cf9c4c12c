package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/graywire/internal/registry"
)

const namespace = "graywire"

// Build results used as the "result" label.
const (
	ResultBuilt  = "built"
	ResultCached = "cached"
	ResultFailed = "failed"
)

// Metrics holds the graywire collectors and the registry they are
// registered on.
type Metrics struct {
	registry *prometheus.Registry

	builds        *prometheus.CounterVec
	buildDuration *prometheus.HistogramVec
	cacheLookups  *prometheus.CounterVec
	cacheStores   prometheus.Counter
}

// New creates the collectors and registers them, together with the Go
// runtime and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "service",
			Name:      "builds_total",
			Help:      "Service lookups by class and result",
		}, []string{"class", "result"}),
		buildDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "service",
			Name:      "build_duration_seconds",
			Help:      "Time spent in service constructors",
			Buckets:   prometheus.DefBuckets,
		}, []string{"class"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "config_cache",
			Name:      "lookups_total",
			Help:      "Configuration cache lookups by result",
		}, []string{"result"}),
		cacheStores: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "config_cache",
			Name:      "stores_total",
			Help:      "Configuration trees written to the cache",
		}),
	}

	m.registry.MustRegister(
		m.builds,
		m.buildDuration,
		m.cacheLookups,
		m.cacheStores,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveBuild records one registry build event. Suitable for
// registry.SetBuildHook.
func (m *Metrics) ObserveBuild(ev registry.BuildEvent) {
	switch {
	case ev.Err != nil:
		m.builds.WithLabelValues(ev.Class, ResultFailed).Inc()
	case ev.Cached:
		m.builds.WithLabelValues(ev.Class, ResultCached).Inc()
	default:
		m.builds.WithLabelValues(ev.Class, ResultBuilt).Inc()
		m.buildDuration.WithLabelValues(ev.Class).Observe(ev.Duration.Seconds())
	}
}

// RegistrySizes is the part of *registry.Registry the size gauges read.
type RegistrySizes interface {
	Names() []string
	Instances() []string
}

// WatchRegistry adds gauges for the number of configured names and the
// number of instantiated services. Call it at most once.
func (m *Metrics) WatchRegistry(reg RegistrySizes) {
	m.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "services_configured",
			Help:      "Service names in the loaded configuration, aliases included",
		}, func() float64 { return float64(len(reg.Names())) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "services_instantiated",
			Help:      "Services built and held by the registry",
		}, func() float64 { return float64(len(reg.Instances())) }),
	)
}
