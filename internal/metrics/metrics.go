package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ucdp_dashboard_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ucdp_dashboard_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ucdp_dashboard_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Dataset metrics
	DatasetLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ucdp_dashboard_dataset_loads_total",
			Help: "Total number of dataset load attempts",
		},
		[]string{"status"},
	)

	DatasetLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ucdp_dashboard_dataset_load_duration_seconds",
			Help:    "Duration of dataset loads in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		},
	)

	DatasetRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ucdp_dashboard_dataset_rows",
			Help: "Number of records in the loaded dataset",
		},
	)

	DatasetDroppedRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ucdp_dashboard_dataset_dropped_rows",
			Help: "Number of source rows skipped for lacking a usable year",
		},
	)
)

// Middleware returns an echo middleware that records HTTP metrics.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			HTTPRequestsInFlight.Inc()
			defer HTTPRequestsInFlight.Dec()

			err := next(c)

			// Use the route pattern if available, otherwise use the path
			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}

			status := strconv.Itoa(statusOf(c, err))
			duration := time.Since(start).Seconds()

			HTTPRequestsTotal.WithLabelValues(c.Request().Method, path, status).Inc()
			HTTPRequestDuration.WithLabelValues(c.Request().Method, path).Observe(duration)
			return err
		}
	}
}

// statusOf reports the status the error handler will write when the handler
// returned an error before committing a response.
func statusOf(c echo.Context, err error) int {
	if err == nil || c.Response().Committed {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

// Handler serves the default Prometheus registry.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}

// RecordDatasetLoad records metrics for a dataset load. rows and dropped are
// ignored when err is set.
func RecordDatasetLoad(duration time.Duration, rows, dropped int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	DatasetLoadsTotal.WithLabelValues(status).Inc()
	DatasetLoadDuration.Observe(duration.Seconds())
	if err == nil {
		DatasetRows.Set(float64(rows))
		DatasetDroppedRows.Set(float64(dropped))
	}
}
