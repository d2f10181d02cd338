// Package metrics holds the Prometheus collectors of the chart service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics of the chart session.
type Metrics struct {
	RequestsTotal       *prometheus.CounterVec // labels: mode
	StaleDiscards       prometheus.Counter
	FetchFailures       *prometheus.CounterVec // labels: data_type
	RenderFailures      prometheus.Counter
	IndicatorComputeDur prometheus.Histogram
	SessionState        prometheus.Gauge // 0=empty, 1=loading, 2=ready, 3=error

	// Fetch cache
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Gateway
	WSClients prometheus.Gauge
}

// New builds the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chartview_requests_total",
			Help: "Chart render cycles started (by mode)",
		}, []string{"mode"}),
		StaleDiscards: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chartview_stale_discards_total",
			Help: "Fetch results discarded because a newer request superseded them",
		}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chartview_fetch_failures_total",
			Help: "DataSource fetch failures (by data type)",
		}, []string{"data_type"}),
		RenderFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chartview_render_failures_total",
			Help: "Render cycles that stopped on a drawing error",
		}),
		IndicatorComputeDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chartview_indicator_compute_duration_seconds",
			Help:    "Validation, indicator and pane computation latency per render cycle",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		SessionState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chartview_session_state",
			Help: "Current session state (0=empty, 1=loading, 2=ready, 3=error)",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chartview_cache_hits_total",
			Help: "Fetches served from the Redis cache",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chartview_cache_misses_total",
			Help: "Fetches that went to the DataSource",
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chartview_ws_clients",
			Help: "Connected WebSocket clients",
		}),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.StaleDiscards,
		m.FetchFailures,
		m.RenderFailures,
		m.IndicatorComputeDur,
		m.SessionState,
		m.CacheHits,
		m.CacheMisses,
		m.WSClients,
	)
	return m
}

// NewNop returns collectors registered nowhere, for tests and one-shot commands.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

// Handler exposes the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
