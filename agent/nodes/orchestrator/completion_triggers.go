package orchestratornode

import (
	"fmt"
	"slices"

	contractx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/contract"
	goalx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/goal"
	statex "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/state"
)

// CompletionTriggers collects the intents whose goal sets are fully
// completed. Each intent appears at most once per result.
func CompletionTriggers(in *GraphState) (*GraphState, error) {
	if in == nil || in.State == nil || in.Config == nil {
		return nil, fmt.Errorf("%w: graph state is incomplete", contractx.ErrValidation)
	}
	in.TriggeredIntents = triggeredIntents(in.Config, in.State)
	return in, nil
}

func triggeredIntents(cfg *goalx.Configuration, st *statex.ConversationGoalState) []string {
	intents := []string{}
	add := func(intent string) {
		if intent != "" && !slices.Contains(intents, intent) {
			intents = append(intents, intent)
		}
	}

	for _, combo := range cfg.CompletionTriggers.CustomCombinations {
		if allCompleted(st, combo.GoalIDs) {
			add(combo.TriggerIntent)
		}
	}

	if intent := cfg.CompletionTriggers.AllCriticalComplete; intent != "" {
		if critical := cfg.CriticalGoalIDs(); len(critical) > 0 && allCompleted(st, critical) {
			add(intent)
		}
	}
	return intents
}

func allCompleted(st *statex.ConversationGoalState, ids []string) bool {
	for _, id := range ids {
		if !st.IsCompleted(id) {
			return false
		}
	}
	return true
}
