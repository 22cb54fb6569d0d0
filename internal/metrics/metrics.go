// Package metrics registers the server's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Mark-Phillipson/Risk/pkg/render"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "risk_http_requests_total",
		Help: "HTTP requests by route and status class",
	}, []string{"route", "status"})
	HTTPDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "risk_http_duration_ms",
		Help:    "HTTP request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"route"})
	ConquestsAppliedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "risk_conquests_applied_total",
		Help: "Regions styled as conquered",
	})
	UnmatchedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "risk_unmatched_ids_total",
		Help: "Conquest ids that matched no region",
	})
	RetryResolvedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "risk_retry_resolved_total",
		Help: "Ids resolved by the delayed batch retry",
	})
	RetryRemainingTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "risk_retry_remaining_total",
		Help: "Ids still unresolved after the delayed batch retry",
	})
	LabelsPlacedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "risk_labels_placed_total",
		Help: "Labels placed by placement state",
	}, []string{"state"})
	CapitalLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "risk_capital_lookups_total",
		Help: "Capital enrichment requests by outcome",
	}, []string{"outcome"})
	CapitalDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "risk_capital_duration_ms",
		Help:    "Capital enrichment request duration in milliseconds",
		Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000},
	})
	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "risk_active_sessions",
		Help: "Map sessions currently held in memory",
	})
)

func init() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPDurationMs)
	prometheus.MustRegister(ConquestsAppliedTotal)
	prometheus.MustRegister(UnmatchedTotal)
	prometheus.MustRegister(RetryResolvedTotal)
	prometheus.MustRegister(RetryRemainingTotal)
	prometheus.MustRegister(LabelsPlacedTotal)
	prometheus.MustRegister(CapitalLookupsTotal)
	prometheus.MustRegister(CapitalDurationMs)
	prometheus.MustRegister(ActiveSessions)
}

// Handler exposes the registered collectors for scraping.
func Handler() http.Handler { return promhttp.Handler() }

// RenderObserver feeds engine events into the collectors.
type RenderObserver struct{}

var _ render.Observer = RenderObserver{}

func (RenderObserver) Applied(string)   { ConquestsAppliedTotal.Inc() }
func (RenderObserver) Unmatched(string) { UnmatchedTotal.Inc() }

func (RenderObserver) Retried(resolved, remaining int) {
	RetryResolvedTotal.Add(float64(resolved))
	RetryRemainingTotal.Add(float64(remaining))
}

func (RenderObserver) LabelPlaced(state render.LabelState) {
	LabelsPlacedTotal.WithLabelValues(state.String()).Inc()
}
