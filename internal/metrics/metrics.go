// Package metrics exports Prometheus collectors for SMS operations and the
// HTTP surface.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spachava753/smskit/sms"
)

// Metrics implements [sms.Observer].
type Metrics struct {
	ReadsTotal    *prometheus.CounterVec
	SendsTotal    *prometheus.CounterVec
	RowsReturned  prometheus.Histogram
	SegmentsSent  prometheus.Histogram
	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New registers every collector on reg. Passing a fresh
// prometheus.NewRegistry() keeps instances independent.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ReadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smskit_reads_total",
				Help: "Message queries by outcome.",
			},
			[]string{"outcome"},
		),
		SendsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smskit_sends_total",
				Help: "Send requests by outcome.",
			},
			[]string{"outcome"},
		),
		RowsReturned: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "smskit_read_rows",
			Help:    "Records returned per successful query.",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
		}),
		SegmentsSent: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "smskit_send_segments",
			Help:    "Segments submitted per successful send.",
			Buckets: []float64{1, 2, 3, 4, 6, 8, 10},
		}),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smskit_http_requests_total",
				Help: "HTTP requests by method, route and status.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDurations: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "smskit_http_request_duration_seconds",
				Help:    "HTTP request latency.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		gatherer: reg,
	}
}

func (m *Metrics) ObserveRead(outcome string, rows int) {
	m.ReadsTotal.WithLabelValues(outcome).Inc()
	if outcome == sms.OutcomeSucceeded {
		m.RowsReturned.Observe(float64(rows))
	}
}

func (m *Metrics) ObserveSend(outcome string, segments int) {
	m.SendsTotal.WithLabelValues(outcome).Inc()
	if outcome == sms.OutcomeSucceeded {
		m.SegmentsSent.Observe(float64(segments))
	}
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route, status string, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	m.HTTPDurations.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

var _ sms.Observer = (*Metrics)(nil)
