package httpclient

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics records the engine's outbound traffic.
type metrics struct {
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	rateLimited *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vonage",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Outbound API requests by host, method and result code",
			},
			[]string{"host", "method", "code"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "vonage",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Latency of outbound API requests",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
			},
			[]string{"host", "method"},
		),
		rateLimited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vonage",
				Subsystem: "http",
				Name:      "rate_limited_total",
				Help:      "Requests rejected by the client-side rate limiter",
			},
			[]string{"host"},
		),
	}

	var err error
	if m.requests, err = register(reg, m.requests); err != nil {
		return nil, err
	}
	if m.latency, err = register(reg, m.latency); err != nil {
		return nil, err
	}
	if m.rateLimited, err = register(reg, m.rateLimited); err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to reg, reusing the collector already registered by an
// earlier client on the same registry.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		var zero T
		return zero, err
	}
	return c, nil
}

// observe records one exchange. status 0 means the request never got a response.
func (m *metrics) observe(host, method string, status int, took time.Duration) {
	if m == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(host, method, code).Inc()
	m.latency.WithLabelValues(host, method).Observe(took.Seconds())
}

func (m *metrics) limited(host string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(host).Inc()
}
