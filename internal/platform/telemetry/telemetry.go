// Package telemetry exposes Prometheus metrics for the hospital service:
// HTTP server metrics, bed and dispensation counters, medicine stock
// levels, and database pool gauges.
package telemetry

import (
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/apperr"
)

const namespace = "hms"

// Provider owns a registry so tests can create isolated instances.
type Provider struct {
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	activeRequests prometheus.Gauge
	bedOps         *prometheus.CounterVec
	dispensations  *prometheus.CounterVec
	stock          *prometheus.GaugeVec
}

func NewProvider() *Provider {
	p := &Provider{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		activeRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_active_requests",
			Help:      "Requests currently being served",
		}),
		bedOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bed_operations_total",
			Help:      "Bed reserve and release attempts by outcome",
		}, []string{"op", "result"}),
		dispensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispensations_total",
			Help:      "Prescription dispensations by outcome",
		}, []string{"result"}),
		stock: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "medicine_stock_units",
			Help:      "Last observed stock of each medicine",
		}, []string{"medicine_id"}),
	}

	p.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		p.httpRequests, p.httpDuration, p.activeRequests,
		p.bedOps, p.dispensations, p.stock,
	)
	return p
}

func (p *Provider) Registry() *prometheus.Registry { return p.registry }

// BedOperation counts a reserve/release attempt. result is "ok" or an
// error kind.
func (p *Provider) BedOperation(op, result string) {
	p.bedOps.WithLabelValues(op, result).Inc()
}

func (p *Provider) Dispensation(result string) {
	p.dispensations.WithLabelValues(result).Inc()
}

func (p *Provider) StockLevel(medicineID int64, units float64) {
	p.stock.WithLabelValues(strconv.FormatInt(medicineID, 10)).Set(units)
}

// RegisterPool exports pgxpool statistics, sampled at scrape time.
func (p *Provider) RegisterPool(pool *pgxpool.Pool) {
	gauge := func(name, help string, f func(*pgxpool.Stat) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db_pool",
			Name:      name,
			Help:      help,
		}, func() float64 { return f(pool.Stat()) })
	}
	p.registry.MustRegister(
		gauge("total_conns", "Open connections", func(s *pgxpool.Stat) float64 { return float64(s.TotalConns()) }),
		gauge("idle_conns", "Idle connections", func(s *pgxpool.Stat) float64 { return float64(s.IdleConns()) }),
		gauge("acquired_conns", "Connections in use", func(s *pgxpool.Stat) float64 { return float64(s.AcquiredConns()) }),
		gauge("max_conns", "Configured maximum", func(s *pgxpool.Stat) float64 { return float64(s.MaxConns()) }),
	)
}

// MetricsMiddleware records request count, latency and in-flight requests.
// Routes are labelled by their registered pattern to keep cardinality low.
func (p *Provider) MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p.activeRequests.Inc()
			defer p.activeRequests.Dec()

			start := time.Now()
			err := next(c)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			} else if err != nil {
				// the error handler has not written the response yet
				status = apperr.StatusCode(apperr.KindOf(err))
			}

			method := c.Request().Method
			p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			p.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

func (p *Provider) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{}))
}
