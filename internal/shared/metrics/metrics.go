package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultSuccess = "success"
	ResultFail    = "fail"
)

type Metrics struct {
	TransitionsTotal *prometheus.CounterVec   // operation=apply|decide|cancel, result=success|fail
	DaysTotal        *prometheus.CounterVec   // direction=reserved|credited, category
	OpLatencyMS      *prometheus.HistogramVec // operation
	OutboxSentTotal  prometheus.Counter
	OutboxFailTotal  prometheus.Counter
}

// New builds the leave metrics and registers them on reg. A nil reg skips
// registration, which keeps tests free of global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leave_transitions_total",
				Help: "Leave workflow operations by result",
			},
			[]string{"operation", "result"},
		),
		DaysTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leave_balance_days_total",
				Help: "Whole days reserved from or credited back to balances",
			},
			[]string{"direction", "category"},
		),
		OpLatencyMS: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leave_op_latency_ms",
				Help:    "Latency of leave workflow operations (ms)",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"operation"},
		),
		OutboxSentTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "leave_outbox_sent_total",
			Help: "Outbox events relayed to Kafka",
		}),
		OutboxFailTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "leave_outbox_failed_total",
			Help: "Outbox publish attempts rejected by Kafka",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.TransitionsTotal,
			m.DaysTotal,
			m.OpLatencyMS,
			m.OutboxSentTotal,
			m.OutboxFailTotal,
		)
	}

	return m
}

// Observe records one finished operation. Safe on a nil receiver.
func (m *Metrics) Observe(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultFail
	}
	m.TransitionsTotal.WithLabelValues(operation, result).Inc()
	m.OpLatencyMS.WithLabelValues(operation).Observe(float64(time.Since(started).Milliseconds()))
}

func (m *Metrics) Reserved(category string, days int) {
	if m == nil || days <= 0 {
		return
	}
	m.DaysTotal.WithLabelValues("reserved", category).Add(float64(days))
}

func (m *Metrics) Credited(category string, days int) {
	if m == nil || days <= 0 {
		return
	}
	m.DaysTotal.WithLabelValues("credited", category).Add(float64(days))
}

func (m *Metrics) Sent(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.OutboxSentTotal.Add(float64(n))
}

func (m *Metrics) RelayFailed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.OutboxFailTotal.Add(float64(n))
}
