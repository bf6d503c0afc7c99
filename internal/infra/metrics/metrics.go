package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the business counters exposed on /metrics.
type Metrics struct {
	attendance    *prometheus.CounterVec
	duplicates    prometheus.Counter
	payments      *prometheus.CounterVec
	revenue       *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	sweepFailures prometheus.Counter
	requests      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		attendance: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gym",
			Name:      "attendance_marked_total",
			Help:      "Attendance records created, by marking source.",
		}, []string{"marked_by"}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gym",
			Name:      "attendance_duplicate_total",
			Help:      "Attendance marks rejected because the member was already marked that day.",
		}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gym",
			Name:      "payments_recorded_total",
			Help:      "Payments recorded, by method.",
		}, []string{"method"}),
		revenue: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gym",
			Name:      "payments_amount_total",
			Help:      "Sum of recorded payment amounts, by method.",
		}, []string{"method"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gym",
			Name:      "member_status_transitions_total",
			Help:      "Status changes applied by the reconciliation sweep.",
		}, []string{"to"}),
		sweepFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gym",
			Name:      "reconcile_failures_total",
			Help:      "Per-member failures during the reconciliation sweep.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gym",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"route", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gym",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	reg.MustRegister(m.attendance, m.duplicates, m.payments, m.revenue, m.transitions, m.sweepFailures, m.requests, m.latency)
	return m
}

func (m *Metrics) AttendanceMarked(markedBy string) { m.attendance.WithLabelValues(markedBy).Inc() }

func (m *Metrics) AttendanceDuplicate() { m.duplicates.Inc() }

func (m *Metrics) PaymentRecorded(method string, amount float64) {
	m.payments.WithLabelValues(method).Inc()
	m.revenue.WithLabelValues(method).Add(amount)
}

func (m *Metrics) StatusTransition(to string) { m.transitions.WithLabelValues(to).Inc() }

func (m *Metrics) SweepFailure() { m.sweepFailures.Inc() }

func (m *Metrics) Request(route, code string, seconds float64) {
	m.requests.WithLabelValues(route, code).Inc()
	m.latency.WithLabelValues(route).Observe(seconds)
}
