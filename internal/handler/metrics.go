package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	anchorRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "medanchor_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	anchorRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "medanchor_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	anchorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "medanchor_anchors_total",
		Help: "Total anchor submissions by record type and outcome.",
	}, []string{"type", "outcome"})

	replaysTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "medanchor_replays_total",
		Help: "Total ledger replays by mode and completeness.",
	}, []string{"mode", "complete"})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		anchorRequestsTotal.WithLabelValues(method, path, status).Inc()
		anchorRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordAnchor records an anchor submission outcome.
func RecordAnchor(recordType string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	anchorsTotal.WithLabelValues(recordType, outcome).Inc()
}

// RecordReplay records one ledger replay.
func RecordReplay(mode string, complete bool) {
	replaysTotal.WithLabelValues(mode, strconv.FormatBool(complete)).Inc()
}
