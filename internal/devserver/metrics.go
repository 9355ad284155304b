package devserver

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the dev server's Prometheus collectors. Each server owns
// its registry so several can run in one process.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	TogglesTotal        *prometheus.CounterVec
	CommentsPosted      prometheus.Counter
	InjectedFailures    *prometheus.CounterVec
	LiveClients         prometheus.Gauge
}

// NewMetrics creates and registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reels_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "reels_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"method", "path"},
		),
		TogglesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reels_toggles_total",
				Help: "Accepted like and save toggles",
			},
			[]string{"kind", "state"},
		),
		CommentsPosted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "reels_comments_posted_total",
				Help: "Comments and replies created",
			},
		),
		InjectedFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reels_injected_failures_total",
				Help: "Mutations rejected by fault injection",
			},
			[]string{"path"},
		),
		LiveClients: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "reels_live_clients",
				Help: "Connected live counter websocket clients",
			},
		),
	}
}

// Middleware records request count and latency by route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

func toggleState(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
