package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// LoginAttempts counts login outcomes by result label.
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_login_attempts_total",
		Help: "Login attempts by outcome.",
	}, []string{"result"})

	// SessionsCleaned counts sessions removed by the expiry sweep.
	SessionsCleaned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_sessions_cleaned_total",
		Help: "Expired sessions removed by the cleanup job.",
	})

	// EnrichmentFailures counts swallowed customer enrichment failures.
	EnrichmentFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_enrichment_failures_total",
		Help: "Customer enrichment calls that failed or timed out.",
	})
)

// PrometheusMiddleware records request counts and latency per route template.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
