package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the eligibility module.
type Metrics struct {
	// Stage latencies: rules, near_miss, risk
	StageLatency *prometheus.HistogramVec

	// Rule results by scheme
	RuleOutcome *prometheus.CounterVec

	// Arm assignments by scheme
	ArmAssigned *prometheus.CounterVec

	// Risk scorer availability: scored / unavailable
	RiskAvailability *prometheus.CounterVec

	// Audit flags raised by scheme and arm
	AuditFlagged *prometheus.CounterVec

	// Operator dispositions by action and arm
	Dispositions *prometheus.CounterVec

	// Submissions rejected by the velocity limit
	VelocityRejected prometheus.Counter

	// Overall adjudication latency
	AdjudicateLatency prometheus.Histogram
}

// New creates a new Metrics instance registered on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the metrics on reg, so tests can use a private registry.
func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		StageLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "saral_eligibility_stage_duration_seconds",
			Help:    "Duration of adjudication stages",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}, []string{"stage"}),

		RuleOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Name: "saral_eligibility_rule_outcomes_total",
			Help: "Rule engine results by scheme",
		}, []string{"scheme", "result"}),

		ArmAssigned: f.NewCounterVec(prometheus.CounterOpts{
			Name: "saral_eligibility_arm_assignments_total",
			Help: "RCT arm assignments by scheme",
		}, []string{"scheme", "arm"}),

		RiskAvailability: f.NewCounterVec(prometheus.CounterOpts{
			Name: "saral_eligibility_risk_predictions_total",
			Help: "Risk predictions by availability",
		}, []string{"outcome"}),

		AuditFlagged: f.NewCounterVec(prometheus.CounterOpts{
			Name: "saral_eligibility_audit_flags_total",
			Help: "Cases routed to mandatory review by scheme and arm",
		}, []string{"scheme", "arm"}),

		Dispositions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "saral_eligibility_dispositions_total",
			Help: "Operator dispositions by action and arm",
		}, []string{"action", "arm"}),

		VelocityRejected: f.NewCounter(prometheus.CounterOpts{
			Name: "saral_eligibility_velocity_rejections_total",
			Help: "Submissions rejected by the per-citizen attempt limit",
		}),

		AdjudicateLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "saral_eligibility_adjudicate_duration_seconds",
			Help:    "Duration of full adjudication including persistence",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveStageLatency records the duration of one adjudication stage.
func (m *Metrics) ObserveStageLatency(stage string, d time.Duration) {
	if m != nil {
		m.StageLatency.WithLabelValues(stage).Observe(d.Seconds())
	}
}

// IncrementRuleOutcome records a rule result.
func (m *Metrics) IncrementRuleOutcome(scheme, result string) {
	if m != nil {
		m.RuleOutcome.WithLabelValues(scheme, result).Inc()
	}
}

// IncrementArm records an arm assignment.
func (m *Metrics) IncrementArm(scheme, arm string) {
	if m != nil {
		m.ArmAssigned.WithLabelValues(scheme, arm).Inc()
	}
}

// IncrementRisk records whether the classifier produced a score.
func (m *Metrics) IncrementRisk(available bool) {
	if m == nil {
		return
	}
	outcome := "scored"
	if !available {
		outcome = "unavailable"
	}
	m.RiskAvailability.WithLabelValues(outcome).Inc()
}

// IncrementAuditFlag records a case routed to mandatory review.
func (m *Metrics) IncrementAuditFlag(scheme, arm string) {
	if m != nil {
		m.AuditFlagged.WithLabelValues(scheme, arm).Inc()
	}
}

// IncrementDisposition records an operator disposition.
func (m *Metrics) IncrementDisposition(action, arm string) {
	if m != nil {
		m.Dispositions.WithLabelValues(action, arm).Inc()
	}
}

// IncrementVelocityRejected records a rejected submission.
func (m *Metrics) IncrementVelocityRejected() {
	if m != nil {
		m.VelocityRejected.Inc()
	}
}

// ObserveAdjudicateLatency records the total adjudication duration.
func (m *Metrics) ObserveAdjudicateLatency(d time.Duration) {
	if m != nil {
		m.AdjudicateLatency.Observe(d.Seconds())
	}
}
