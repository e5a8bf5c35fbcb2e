package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels shared by request and attempt counters.
const (
	OutcomeSuccess     = "success"
	OutcomeOverloaded  = "overloaded"
	OutcomeFailed      = "failed"
	OutcomeUnavailable = "unavailable"
	OutcomeInvalid     = "invalid"
	OutcomeCanceled    = "canceled"
)

var (
	recommendationRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "toolrec_recommendation_requests_total",
		Help: "Total recommendation requests by outcome",
	}, []string{"outcome"})

	upstreamAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "toolrec_upstream_attempts_total",
		Help: "Total upstream completion attempts by outcome",
	}, []string{"outcome"})

	degradedRecordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "toolrec_degraded_records_total",
		Help: "Parsed recommendations that used at least one fallback value",
	})

	panicsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "toolrec_http_panics_total",
		Help: "Handler panics recovered by route",
	}, []string{"route"})

	recommendationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "toolrec_recommendation_duration_seconds",
		Help:    "End-to-end recommendation duration in seconds",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
	})
)

// IncRequest counts a finished recommendation request.
func IncRequest(outcome string) {
	recommendationRequestsTotal.WithLabelValues(outcome).Inc()
}

// IncAttempt counts a finished upstream attempt.
func IncAttempt(outcome string) {
	upstreamAttemptsTotal.WithLabelValues(outcome).Inc()
}

// AddDegraded adds n parse-degraded records.
func AddDegraded(n int) {
	if n <= 0 {
		return
	}
	degradedRecordsTotal.Add(float64(n))
}

// IncPanic counts a recovered handler panic. Unmatched routes are reported as "unmatched".
func IncPanic(route string) {
	if route == "" {
		route = "unmatched"
	}
	panicsTotal.WithLabelValues(route).Inc()
}

// ObserveDuration records an end-to-end recommendation duration.
func ObserveDuration(d time.Duration) {
	if d < 0 {
		d = 0
	}
	recommendationDuration.Observe(d.Seconds())
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
