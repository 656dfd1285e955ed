package metric

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kvsession"

// Operation results used as the "result" label.
const (
	ResultOK    = "ok"
	ResultNoop  = "noop"
	ResultMiss  = "miss"
	ResultError = "error"
)

// Registry holds all application metrics.
type Registry struct {
	reg *prometheus.Registry

	// Session metrics
	SessionOps        *prometheus.CounterVec
	RenewalsInflight  prometheus.Gauge
	RenewalsCompleted *prometheus.CounterVec

	// KV metrics
	KVDuration *prometheus.HistogramVec

	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewRegistry creates a registry with every application metric plus the
// Go runtime and process collectors.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		SessionOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_operations_total",
			Help:      "Session engine operations by kind and result.",
		}, []string{"op", "result"}),
		RenewalsInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "detached_renewals_inflight",
			Help:      "Renewal writes running after their request returned.",
		}),
		RenewalsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detached_renewals_total",
			Help:      "Completed detached renewal writes by result.",
		}, []string{"result"}),
		KVDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kv_operation_duration_seconds",
			Help:      "Latency of key-value adapter calls.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"backend", "op"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	r.reg.MustRegister(
		r.SessionOps,
		r.RenewalsInflight,
		r.RenewalsCompleted,
		r.KVDuration,
		r.RequestsTotal,
		r.RequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// Registerer exposes the underlying registry for components that
// register their own metrics.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.reg
}

// Gatherer exposes the underlying registry for tests and handlers.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// SessionOp counts one session engine operation.
func (r *Registry) SessionOp(op, result string) {
	r.SessionOps.WithLabelValues(op, result).Inc()
}

// RenewalStarted marks a detached renewal as in flight.
func (r *Registry) RenewalStarted() {
	r.RenewalsInflight.Inc()
}

// RenewalFinished marks a detached renewal as done.
func (r *Registry) RenewalFinished(err error) {
	r.RenewalsInflight.Dec()
	r.RenewalsCompleted.WithLabelValues(resultOf(err)).Inc()
}

// ObserveKV implements storage.Observer.
func (r *Registry) ObserveKV(backend, op string, elapsed time.Duration, _ error) {
	r.KVDuration.WithLabelValues(backend, op).Observe(elapsed.Seconds())
}

// ObserveRequest records one served HTTP request.
func (r *Registry) ObserveRequest(method string, status int, elapsed time.Duration) {
	r.RequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	r.RequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func resultOf(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
