package orchestratornode

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/contract"
)

const declineConfidenceThreshold = 0.7

// ApplyDeclines declines at most one active collect_ goal, the earliest
// activated, when the message refuses to share information.
func ApplyDeclines(ctx context.Context, in *GraphState, mgr StateManager, extractor contractx.InfoExtractor) (*GraphState, error) {
	if in == nil || in.State == nil {
		return nil, fmt.Errorf("%w: graph state is incomplete", contractx.ErrValidation)
	}

	d := extractor.DetectInformationDecline(in.Message)
	if !d.Declined || d.Confidence <= declineConfidenceThreshold {
		return in, nil
	}

	for _, id := range in.State.ActiveGoals {
		if !strings.HasPrefix(id, "collect_") {
			continue
		}
		st, err := mgr.DeclineGoal(ctx, in.Key, id)
		if err != nil {
			return nil, err
		}
		in.State = st
		in.StateUpdates.Declined = append(in.StateUpdates.Declined, id)
		break
	}
	return in, nil
}
