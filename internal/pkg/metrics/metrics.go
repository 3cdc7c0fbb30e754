package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "regrid",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "regrid",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 10},
	}, []string{"method", "path"})

	// Resampling metrics
	ResampleRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "regrid",
		Subsystem: "resample",
		Name:      "requests_total",
		Help:      "Total resample operations by source grid kind, method and outcome",
	}, []string{"kind", "method", "status"})

	ResampleDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "regrid",
		Subsystem: "resample",
		Name:      "duration_seconds",
		Help:      "Duration of resample operations",
		Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"kind"})

	IndexBuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "regrid",
		Subsystem: "index",
		Name:      "build_duration_seconds",
		Help:      "Duration of spatial index builds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"kind"})

	ConvertersCached = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "regrid",
		Subsystem: "converter",
		Name:      "cached",
		Help:      "Number of converters currently cached",
	})
)

// ObserveIndexBuild records a spatial index build for a grid kind.
func ObserveIndexBuild(kind string, took time.Duration) {
	IndexBuildDuration.WithLabelValues(kind).Observe(took.Seconds())
}

// ObserveResample records the outcome and duration of a resample operation.
func ObserveResample(kind, method string, took time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	ResampleRequests.WithLabelValues(kind, method, status).Inc()
	if err == nil {
		ResampleDuration.WithLabelValues(kind).Observe(took.Seconds())
	}
}

// Middleware records request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler returns a gin handler serving the Prometheus /metrics endpoint.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
