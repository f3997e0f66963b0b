package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrchestrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goal_orchestrations_total",
			Help: "Total number of goal orchestration passes by outcome",
		},
		[]string{"tenant_id", "outcome"},
	)

	OrchestrationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "goal_orchestration_duration_seconds",
			Help:    "Duration of one goal orchestration pass in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"tenant_id"},
	)

	GoalTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goal_transitions_total",
			Help: "Goals moved into the activated, completed or declined set",
		},
		[]string{"tenant_id", "goal_id", "transition"},
	)

	TriggeredIntents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goal_triggered_intents_total",
			Help: "Business intents fired by completion triggers",
		},
		[]string{"tenant_id", "intent"},
	)

	IntentDispatchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goal_intent_dispatch_failures_total",
			Help: "Triggered intents that could not be handed to the dispatcher",
		},
		[]string{"tenant_id"},
	)

	StateConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "goal_state_conflicts_total",
			Help: "Orchestration passes aborted by concurrent state writes",
		},
	)
)

const (
	TransitionActivated = "activated"
	TransitionCompleted = "completed"
	TransitionDeclined  = "declined"

	OutcomeOK       = "ok"
	OutcomeInvalid  = "invalid"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)
