package middleware

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/toyz/dispatch/pkg/dispatch"
)

// Metrics holds the Prometheus collectors of the metrics middleware.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge
}

// NewMetrics registers the request collectors with reg. A nil reg uses the
// default Prometheus registerer.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "dispatch",
				Name:      "requests_total",
				Help:      "Total number of dispatched requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "dispatch",
				Name:      "request_duration_seconds",
				Help:      "Duration of dispatched requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		inFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "dispatch",
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being dispatched",
			},
		),
	}
}

// Middleware records every request under its route pattern, not its raw
// path, so label cardinality stays bounded by the route table.
func (m *Metrics) Middleware() dispatch.Middleware {
	return dispatch.MiddlewareFunc(func(next dispatch.Invocation) (*dispatch.ActionResult, error) {
		c := next.Context()
		method := string(c.Route.Method)
		start := time.Now()
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		result, err := next.Proceed()

		m.requestDuration.WithLabelValues(method, c.Route.URL).Observe(time.Since(start).Seconds())
		m.requestsTotal.WithLabelValues(method, c.Route.URL, strconv.Itoa(statusOf(result, err))).Inc()
		return result, err
	})
}
