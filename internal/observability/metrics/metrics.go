package metrics

import "github.com/prometheus/client_golang/prometheus"

// SubmissionMetrics exposes counters/histograms for contact and booking submissions.
type SubmissionMetrics struct {
	outcomes        *prometheus.CounterVec
	gateDecisions   *prometheus.CounterVec
	dispatchLatency *prometheus.HistogramVec
	openSessions    prometheus.Gauge
}

func NewSubmissionMetrics(reg prometheus.Registerer) *SubmissionMetrics {
	m := &SubmissionMetrics{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studio",
			Subsystem: "submissions",
			Name:      "total",
			Help:      "Form submissions by action and final outcome",
		}, []string{"action", "outcome"}),
		gateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studio",
			Subsystem: "gate",
			Name:      "decisions_total",
			Help:      "Submission gate decisions by reason",
		}, []string{"action", "reason"}),
		dispatchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "studio",
			Subsystem: "notify",
			Name:      "dispatch_latency_seconds",
			Help:      "Latency of notification dispatch per submission",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action", "status"}),
		openSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "studio",
			Subsystem: "calendar",
			Name:      "open_sessions",
			Help:      "Calendar sessions currently open",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.outcomes, m.gateDecisions, m.dispatchLatency, m.openSessions)
	return m
}

func (m *SubmissionMetrics) ObserveOutcome(action, outcome string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(action, outcome).Inc()
}

func (m *SubmissionMetrics) ObserveGateDecision(action, reason string) {
	if m == nil {
		return
	}
	m.gateDecisions.WithLabelValues(action, reason).Inc()
}

func (m *SubmissionMetrics) ObserveDispatch(action string, ok bool, seconds float64) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.dispatchLatency.WithLabelValues(action, status).Observe(seconds)
}

func (m *SubmissionMetrics) SetOpenSessions(n int) {
	if m == nil {
		return
	}
	m.openSessions.Set(float64(n))
}
