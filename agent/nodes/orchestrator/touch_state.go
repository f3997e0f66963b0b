package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/contract"
)

// TouchState counts the inbound message before any analysis runs.
func TouchState(ctx context.Context, in *GraphState, mgr StateManager) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	st, err := mgr.IncrementMessage(ctx, in.Key, nil)
	if err != nil {
		return nil, err
	}
	in.State = st
	return in, nil
}
