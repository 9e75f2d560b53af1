// Package prom implements a Prometheus scrape backend for the metrics package.
//
// Collectors are created on first use from the metric name and the label keys
// of that first observation; later observations must use the same label keys.
package prom

import (
	"net/http"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/locvowork/hiring_analytics/internal/metrics"
)

// Backend is a Prometheus metrics backend with its own registry.
type Backend struct {
	namespace string
	reg       *prometheus.Registry

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
}

// NewBackend constructs a backend whose metric names are prefixed with namespace.
func NewBackend(namespace string) *Backend {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Backend{
		namespace:  namespace,
		reg:        reg,
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

// Registry exposes the underlying registry.
func (b *Backend) Registry() *prometheus.Registry { return b.reg }

// Handler serves the registry in the Prometheus exposition format.
func (b *Backend) Handler() http.Handler {
	return promhttp.HandlerFor(b.reg, promhttp.HandlerOpts{Registry: b.reg})
}

// IncCounter implements metrics.Backend.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if delta < 0 {
		return
	}
	b.mu.Lock()
	vec, ok := b.counters[name]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: b.namespace,
			Name:      name,
			Help:      name,
		}, labelNames(labels))
		b.reg.MustRegister(vec)
		b.counters[name] = vec
	}
	b.mu.Unlock()

	vec.With(prometheus.Labels(labels)).Add(delta)
}

// ObserveHistogram implements metrics.Backend.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	b.mu.Lock()
	vec, ok := b.histograms[name]
	if !ok {
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: b.namespace,
			Name:      name,
			Help:      name,
			Buckets:   prometheus.DefBuckets,
		}, labelNames(labels))
		b.reg.MustRegister(vec)
		b.histograms[name] = vec
	}
	b.mu.Unlock()

	vec.With(prometheus.Labels(labels)).Observe(value)
}

// Flush implements metrics.Backend. Scraped metrics need no flushing.
func (b *Backend) Flush() error { return nil }

func labelNames(lbls metrics.Labels) []string {
	names := make([]string, 0, len(lbls))
	for k := range lbls {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
