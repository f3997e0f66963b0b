package orchestratornode

import (
	"context"
	"fmt"
	"time"

	contractx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/contract"
	extractx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/extract"
	goalx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/goal"
	interestx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/interest"
	statex "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/state"
)

// StateManager is the slice of state.Manager the steps depend on.
type StateManager interface {
	IncrementMessage(ctx context.Context, key statex.Key, levels *statex.Levels) (*statex.ConversationGoalState, error)
	CollectInformation(ctx context.Context, key statex.Key, field, value string, validated bool) (*statex.ConversationGoalState, error)
	ActivateGoal(ctx context.Context, key statex.Key, goalID string) (*statex.ConversationGoalState, bool, error)
	CompleteGoal(ctx context.Context, key statex.Key, goalID string) (*statex.ConversationGoalState, error)
	DeclineGoal(ctx context.Context, key statex.Key, goalID string) (*statex.ConversationGoalState, error)
}

type GraphInput struct {
	Key     statex.Key
	Message string
	Config  *goalx.Configuration
	History []string
}

type GraphOutput struct {
	Result *contractx.GoalOrchestrationResult
}

type GraphState struct {
	Key             statex.Key
	Message         string
	Config          *goalx.Configuration
	History         []string
	Now             time.Time
	OrchestrationID string

	State     *statex.ConversationGoalState
	Analysis  interestx.Analysis
	Extracted extractx.Info

	Recommendations  []contractx.GoalRecommendation
	StateUpdates     contractx.StateUpdates
	TriggeredIntents []string
}

func ValidateRequest(in GraphInput, nowFn func() time.Time, newID func() string) (*GraphState, error) {
	if err := in.Key.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}
	if err := in.Config.Validate(); err != nil {
		return nil, err
	}

	return &GraphState{
		Key:             in.Key,
		Message:         in.Message,
		Config:          in.Config,
		History:         in.History,
		Now:             nowFn().UTC(),
		OrchestrationID: newID(),
		StateUpdates: contractx.StateUpdates{
			NewlyCompleted: []string{},
			NewlyActivated: []string{},
			Declined:       []string{},
		},
		Recommendations:  []contractx.GoalRecommendation{},
		TriggeredIntents: []string{},
	}, nil
}
