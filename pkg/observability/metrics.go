package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Crafting metrics
	Combines           *prometheus.CounterVec
	CombineDuration    *prometheus.HistogramVec
	Generations        *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec
	Discoveries        *prometheus.CounterVec

	// Seeding metrics
	SeededElements     prometheus.Counter
	SeededCombinations prometheus.Counter
	SeedRowsSkipped    prometheus.Counter
}

// NewCollector creates a collector with its own registry so tests and
// multiple containers never collide on registration
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Combines: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "combines_total",
				Help:      "Total number of combine requests by outcome",
			},
			[]string{"outcome"},
		),
		CombineDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "combine_duration_seconds",
				Help:      "Combine duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		Generations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generations_total",
				Help:      "Total number of text generation attempts by outcome",
			},
			[]string{"outcome"},
		),
		GenerationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "generation_duration_seconds",
				Help:      "Text generation duration in seconds",
				Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"outcome"},
		),
		Discoveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "discoveries_total",
				Help:      "Successful combines split by whether the result was new to the user",
			},
			[]string{"new"},
		),
		SeededElements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seed_elements_created_total",
			Help:      "Elements created while seeding",
		}),
		SeededCombinations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seed_combinations_inserted_total",
			Help:      "Combinations inserted while seeding",
		}),
		SeedRowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seed_rows_skipped_total",
			Help:      "Malformed seed rows skipped",
		}),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.Combines,
		c.CombineDuration,
		c.Generations,
		c.GenerationDuration,
		c.Discoveries,
		c.SeededElements,
		c.SeededCombinations,
		c.SeedRowsSkipped,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// RecordCombine implements ports.Metrics
func (c *Collector) RecordCombine(outcome string, duration time.Duration) {
	c.Combines.WithLabelValues(outcome).Inc()
	c.CombineDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordGeneration implements ports.Metrics
func (c *Collector) RecordGeneration(outcome string, duration time.Duration) {
	c.Generations.WithLabelValues(outcome).Inc()
	c.GenerationDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordDiscovery implements ports.Metrics
func (c *Collector) RecordDiscovery(isNew bool) {
	c.Discoveries.WithLabelValues(strconv.FormatBool(isNew)).Inc()
}

// RecordSeed implements ports.Metrics
func (c *Collector) RecordSeed(elements, combinations, skipped int) {
	c.SeededElements.Add(float64(elements))
	c.SeededCombinations.Add(float64(combinations))
	c.SeedRowsSkipped.Add(float64(skipped))
}

// RecordHTTPRequest records one served request
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler exposes the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// GetRegistry returns the Prometheus registry for this collector
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}
