// Package metrics exposes Prometheus instrumentation for the clinic server:
// HTTP request counters and latency histograms, database pool gauges, and a
// /metrics exposition handler.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so repeated construction (tests, embedded
// servers) never trips duplicate-registration panics.
type Collector struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	poolConnections *prometheus.GaugeVec
	storeErrors     *prometheus.CounterVec
	auditEvents     *prometheus.CounterVec
}

// NewCollector builds and registers the clinic metric set.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clinic_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "clinic_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		poolConnections: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "clinic_db_pool_connections",
				Help: "Database pool connections by state",
			},
			[]string{"state"},
		),
		storeErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clinic_store_errors_total",
				Help: "Total number of store constraint rejections",
			},
			[]string{"kind"},
		),
		auditEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clinic_audit_events_total",
				Help: "Total number of audit records written",
			},
			[]string{"entity", "action"},
		),
	}

	c.registry.MustRegister(
		c.requestsTotal,
		c.requestDuration,
		c.poolConnections,
		c.storeErrors,
		c.auditEvents,
	)

	return c
}

// RecordRequest records one completed HTTP request.
func (c *Collector) RecordRequest(method, route string, status int, duration time.Duration) {
	c.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordPoolStats updates the database pool gauges.
func (c *Collector) RecordPoolStats(total, idle, acquired int) {
	c.poolConnections.WithLabelValues("total").Set(float64(total))
	c.poolConnections.WithLabelValues("idle").Set(float64(idle))
	c.poolConnections.WithLabelValues("acquired").Set(float64(acquired))
}

// RecordStoreError counts a constraint rejection by kind
// (validation, uniqueness, reference, restricted_delete, conflict).
func (c *Collector) RecordStoreError(kind string) {
	c.storeErrors.WithLabelValues(kind).Inc()
}

// RecordAuditEvent counts an audit append.
func (c *Collector) RecordAuditEvent(entity, action string) {
	c.auditEvents.WithLabelValues(entity, action).Inc()
}

// Handler returns the Prometheus exposition handler for this collector's
// registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Middleware instruments each request with the route template rather than the
// raw path, keeping label cardinality bounded.
func (c *Collector) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ec echo.Context) error {
			start := time.Now()

			err := next(ec)

			route := ec.Path()
			if route == "" {
				route = "unmatched"
			}

			status := ec.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else if !ec.Response().Committed {
					status = http.StatusInternalServerError
				}
			}

			c.RecordRequest(ec.Request().Method, route, status, time.Since(start))
			return err
		}
	}
}
