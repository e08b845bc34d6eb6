package middleware

import (
	"strconv"
	"time"

	"github.com/advdv/bexpress"
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the request collectors. Labels are kept to method and status to avoid cardinality explosions from
// raw URIs.
type Metrics struct {
	inflight prometheus.Gauge
	reqTotal *prometheus.CounterVec
	reqDur   *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bexpress_inflight_requests",
			Help: "Current number of requests without an ended response",
		}),
		reqTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bexpress_requests_total",
			Help: "Total requests by method and status",
		}, []string{"method", "status"}),
		reqDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bexpress_request_duration_seconds",
			Help:    "Time from dispatch to response end by method",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method"}),
	}

	for _, c := range []prometheus.Collector{m.inflight, m.reqTotal, m.reqDur} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "register collector")
		}
	}

	return m, nil
}

// Middleware measures in-flight requests, totals and durations.
func (m *Metrics) Middleware() bexpress.Middleware {
	return bexpress.MiddlewareFunc(func(req *bexpress.Request, res *bexpress.Response, next bexpress.Next) {
		start := time.Now()
		method := req.Method()

		m.inflight.Inc()
		res.OnEnd(func() {
			m.inflight.Dec()
			m.reqTotal.WithLabelValues(method, strconv.Itoa(res.Status())).Inc()
			m.reqDur.WithLabelValues(method).Observe(time.Since(start).Seconds())
		})

		next()
	})
}
