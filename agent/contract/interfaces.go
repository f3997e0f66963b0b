package contract

import (
	"context"

	extractx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/extract"
	goalx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/goal"
	interestx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/interest"
	statex "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/state"
)

type InfoExtractor interface {
	ExtractInfo(message string) extractx.Info
	DetectInformationDecline(message string) extractx.Decline
}

type InterestAnalyzer interface {
	AnalyzeMessage(message string, history []string) interestx.Analysis
}

type MessageRenderer interface {
	Render(g goalx.ConversationGoal, approach goalx.Directness, overrides map[string]goalx.Messages) string
}

// IntentDispatcher hands triggered business intents to whatever executes them.
type IntentDispatcher interface {
	Dispatch(ctx context.Context, key statex.Key, orchestrationID string, intents []string) error
}
