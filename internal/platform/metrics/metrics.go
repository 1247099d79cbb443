package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private Prometheus registry for HTTP traffic and payroll
// engine invocations. A nil *Collector is valid and records nothing.
type Collector struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	computations    *prometheus.CounterVec
	negativeNet     *prometheus.CounterVec
}

func New() *Collector {
	registry := prometheus.NewRegistry()
	c := &Collector{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bizdash_http_requests_total",
			Help: "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bizdash_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		computations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bizdash_payroll_computations_total",
			Help: "Payroll engine invocations by engine.",
		}, []string{"engine"}),
		negativeNet: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bizdash_payroll_negative_net_total",
			Help: "Engine results whose net or payable amount was below zero.",
		}, []string{"engine"}),
	}
	registry.MustRegister(
		c.requestsTotal,
		c.requestDuration,
		c.computations,
		c.negativeNet,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) Middleware(next http.Handler) http.Handler {
	if c == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		c.Record(routePattern(r), r.Method, recorder.status, time.Since(start))
	})
}

func (c *Collector) Record(route, method string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// ObserveComputation counts one engine run and flags negative results.
func (c *Collector) ObserveComputation(engine string, net float64) {
	if c == nil {
		return
	}
	c.computations.WithLabelValues(engine).Inc()
	if net < 0 {
		c.negativeNet.WithLabelValues(engine).Inc()
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
