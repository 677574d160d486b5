// Package metrics exposes Prometheus counters for the session and caches.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Session metrics
	AuthAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coachfinder_auth_attempts_total",
		Help: "Authentication attempts by mode and result.",
	}, []string{"mode", "result"})
	SessionRestores = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coachfinder_session_restores_total",
		Help: "Session restore outcomes at startup.",
	}, []string{"outcome"})
	SessionExpirations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coachfinder_session_expirations_total",
		Help: "Sessions terminated by the expiration timer.",
	})
	SignOuts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coachfinder_sign_outs_total",
		Help: "Explicit sign-outs.",
	})

	// Cache metrics
	CacheRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coachfinder_cache_refreshes_total",
		Help: "Collection refreshes by collection and outcome (hit, miss, error).",
	}, []string{"collection", "outcome"})

	// Write metrics
	RemoteWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coachfinder_remote_writes_total",
		Help: "Writes to the document store by kind and result.",
	}, []string{"kind", "result"})

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coachfinder_http_requests_total",
		Help: "API requests by method, route and status.",
	}, []string{"method", "route", "status"})
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "coachfinder_http_request_duration_seconds",
		Help:    "API request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
