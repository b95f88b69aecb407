// Package metrics exposes Prometheus metrics for the agent registry
// backend on a dedicated listen address.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer serves the Prometheus registry over HTTP.
type MetricsServer struct {
	srv      *http.Server
	registry *prometheus.Registry

	// FeedbackSubmissions counts pipeline submissions by outcome.
	FeedbackSubmissions *prometheus.CounterVec

	// CrawlResults counts capability crawls by result kind.
	CrawlResults *prometheus.CounterVec
}

// New creates a metrics server listening on addr, with all collectors
// registered under the given namespace.
func New(namespace, addr string) (*MetricsServer, error) {
	registry := prometheus.NewRegistry()

	feedback := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feedback_submissions_total",
		Help:      "Feedback submissions by outcome.",
	}, []string{"outcome"})

	crawls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "capability_crawls_total",
		Help:      "Capability crawls by result.",
	}, []string{"result"})

	for _, c := range []prometheus.Collector{feedback, crawls} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &MetricsServer{
		srv:                 &http.Server{Addr: addr, Handler: mux},
		registry:            registry,
		FeedbackSubmissions: feedback,
		CrawlResults:        crawls,
	}, nil
}

// ListenAndServe serves the metrics endpoint until Shutdown.
func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

// Shutdown gracefully stops the metrics server.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
