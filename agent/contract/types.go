package contract

import (
	extractx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/extract"
	goalx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/goal"
	interestx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/interest"
)

type GoalRecommendation struct {
	GoalID       string           `json:"goalId"`
	Priority     float64          `json:"priority"`
	Reason       string           `json:"reason"`
	Approach     goalx.Directness `json:"approach"`
	Message      string           `json:"message"`
	ShouldPursue bool             `json:"shouldPursue"`
}

type StateUpdates struct {
	NewlyCompleted []string `json:"newlyCompleted"`
	NewlyActivated []string `json:"newlyActivated"`
	Declined       []string `json:"declined"`
}

type GoalOrchestrationResult struct {
	OrchestrationID  string               `json:"orchestrationId"`
	Recommendations  []GoalRecommendation `json:"recommendations"`
	ExtractedInfo    extractx.Info        `json:"extractedInfo"`
	InterestAnalysis interestx.Analysis   `json:"interestAnalysis"`
	StateUpdates     StateUpdates         `json:"stateUpdates"`
	TriggeredIntents []string             `json:"triggeredIntents"`
}

// PursuedCount returns how many recommendations are marked for pursuit.
func (r *GoalOrchestrationResult) PursuedCount() int {
	n := 0
	for _, rec := range r.Recommendations {
		if rec.ShouldPursue {
			n++
		}
	}
	return n
}
