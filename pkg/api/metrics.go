package api

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hazyhaar/touchstone-factors/pkg/analysis"
	"github.com/hazyhaar/touchstone-factors/pkg/kit"
)

// Metrics holds the Prometheus collectors for one service instance.
// Each instance owns its registry so tests can build routers side by side.
type Metrics struct {
	registry *prometheus.Registry
	analyses prometheus.Counter
	matches  *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics registers the collectors. The entries gauge reads the service's
// active table at scrape time.
func NewMetrics(svc *analysis.Service) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "factors_analyses_total",
			Help: "Reports analyzed successfully.",
		}),
		matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "factors_matches_total",
			Help: "Term matches found, by kind (exact or fuzzy).",
		}, []string{"kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "factors_detect_duration_seconds",
			Help:    "Time spent analyzing one report.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	entries := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "factors_taxonomy_entries",
		Help: "Entries in the active taxonomy table.",
	}, func() float64 { return float64(svc.EntryCount()) })

	m.registry.MustRegister(m.analyses, m.matches, m.duration, entries)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observe(res *analysis.Result) {
	exact, fuzzy := res.Matches.Counts()
	m.analyses.Inc()
	m.matches.WithLabelValues("exact").Add(float64(exact))
	m.matches.WithLabelValues("fuzzy").Add(float64(fuzzy))
	m.duration.Observe(res.Elapsed.Seconds())
}

// instrument records every successful analysis passing through an endpoint.
// A nil Metrics records nothing.
func (m *Metrics) instrument() kit.Middleware {
	return func(next kit.Endpoint) kit.Endpoint {
		if m == nil {
			return next
		}
		return func(ctx context.Context, request any) (any, error) {
			resp, err := next(ctx, request)
			if err != nil {
				return resp, err
			}
			switch r := resp.(type) {
			case *analysis.Result:
				m.observe(r)
			case *exportResponse:
				m.observe(r.Result)
			}
			return resp, nil
		}
	}
}
