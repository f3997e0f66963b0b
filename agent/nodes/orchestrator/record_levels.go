package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/contract"
	statex "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/state"
)

// RecordLevels stores the fresh interest and urgency. IncrementMessage also
// bumps the counter here, so each inbound message counts twice.
func RecordLevels(ctx context.Context, in *GraphState, mgr StateManager) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	st, err := mgr.IncrementMessage(ctx, in.Key, &statex.Levels{
		Interest: in.Analysis.InterestLevel,
		Urgency:  in.Analysis.UrgencyLevel,
	})
	if err != nil {
		return nil, err
	}
	in.State = st
	return in, nil
}
