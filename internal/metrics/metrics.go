// Package metrics khai báo các Prometheus collector của dịch vụ trên một registry riêng
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Metrics struct {
	Registry        *prometheus.Registry
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	ProductSearches *prometheus.CounterVec
	IndexedProducts *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route template and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route template.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ProductSearches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "product_search_total",
			Help: "Product searches by the engine that answered.",
		}, []string{"engine"}),
		IndexedProducts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "product_index_operations_total",
			Help: "Documents written to or removed from the search index.",
		}, []string{"action"}),
	}
	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPDuration,
		m.ProductSearches,
		m.IndexedProducts,
	)
	return m
}

// SearchServed tolerates a nil receiver so callers without metrics need no guard.
func (m *Metrics) SearchServed(engine string) {
	if m == nil {
		return
	}
	m.ProductSearches.WithLabelValues(engine).Inc()
}

func (m *Metrics) Indexed(action string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.IndexedProducts.WithLabelValues(action).Add(float64(n))
}
