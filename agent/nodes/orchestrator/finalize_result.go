package orchestratornode

import (
	"fmt"

	contractx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/contract"
	metricsx "github.com/tanpawarit/Chative-Goal-Orchestrator/pkg/metrics"
)

func FinalizeResult(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	tenant := in.Key.TenantID
	for _, id := range in.StateUpdates.NewlyActivated {
		metricsx.GoalTransitions.WithLabelValues(tenant, id, metricsx.TransitionActivated).Inc()
	}
	for _, id := range in.StateUpdates.NewlyCompleted {
		metricsx.GoalTransitions.WithLabelValues(tenant, id, metricsx.TransitionCompleted).Inc()
	}
	for _, id := range in.StateUpdates.Declined {
		metricsx.GoalTransitions.WithLabelValues(tenant, id, metricsx.TransitionDeclined).Inc()
	}
	for _, intent := range in.TriggeredIntents {
		metricsx.TriggeredIntents.WithLabelValues(tenant, intent).Inc()
	}

	return GraphOutput{
		Result: &contractx.GoalOrchestrationResult{
			OrchestrationID:  in.OrchestrationID,
			Recommendations:  in.Recommendations,
			ExtractedInfo:    in.Extracted,
			InterestAnalysis: in.Analysis,
			StateUpdates:     in.StateUpdates,
			TriggeredIntents: in.TriggeredIntents,
		},
	}, nil
}
