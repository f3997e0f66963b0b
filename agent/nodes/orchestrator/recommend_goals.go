package orchestratornode

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	contractx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/contract"
	goalx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/goal"
	interestx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/interest"
	statex "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/state"
)

// RecommendGoals scores every eligible goal and activates the ones marked for
// pursuit. It is a no-op when the configuration is disabled.
func RecommendGoals(ctx context.Context, in *GraphState, mgr StateManager, renderer contractx.MessageRenderer) (*GraphState, error) {
	if in == nil || in.State == nil || in.Config == nil {
		return nil, fmt.Errorf("%w: graph state is incomplete", contractx.ErrValidation)
	}
	if !in.Config.Enabled {
		return in, nil
	}

	in.Recommendations = recommend(in.Config, in.State, in.Analysis, in.Now, renderer)

	for _, rec := range in.Recommendations {
		if !rec.ShouldPursue {
			continue
		}
		st, added, err := mgr.ActivateGoal(ctx, in.Key, rec.GoalID)
		if err != nil {
			return nil, err
		}
		in.State = st
		if added {
			in.StateUpdates.NewlyActivated = append(in.StateUpdates.NewlyActivated, rec.GoalID)
		}
	}
	return in, nil
}

func recommend(
	cfg *goalx.Configuration,
	st *statex.ConversationGoalState,
	analysis interestx.Analysis,
	now time.Time,
	renderer contractx.MessageRenderer,
) []contractx.GoalRecommendation {
	candidates := make([]goalx.ConversationGoal, 0, len(cfg.Goals))
	for _, g := range cfg.Goals {
		if eligible(g, st, now) {
			candidates = append(candidates, g)
		}
	}
	sortCandidates(candidates, analysis.InterestLevel)

	out := make([]contractx.GoalRecommendation, 0, len(candidates))
	pursued := 0
	for _, g := range candidates {
		score := priorityScore(g, analysis)
		approach := chooseApproach(g, analysis)
		rec := contractx.GoalRecommendation{
			GoalID:       g.ID,
			Priority:     score,
			Reason:       reason(g, analysis),
			Approach:     approach,
			Message:      renderer.Render(g, approach, cfg.MessageTemplates),
			ShouldPursue: shouldPursue(g, st, analysis, score),
		}
		out = append(out, rec)
		if rec.ShouldPursue {
			pursued++
			if pursued >= cfg.GlobalSettings.MaxActiveGoals {
				break
			}
		}
	}
	return out
}

func eligible(g goalx.ConversationGoal, st *statex.ConversationGoalState, now time.Time) bool {
	if st.IsCompleted(g.ID) || st.IsDeclined(g.ID) {
		return false
	}
	for _, dep := range g.Dependencies.Requires {
		if !st.IsCompleted(dep) {
			return false
		}
	}

	t := g.Timing
	if t.MinMessages != nil && st.MessageCount < *t.MinMessages {
		return false
	}
	if t.MaxMessages != nil && st.MessageCount > *t.MaxMessages {
		return false
	}
	if t.Cooldown != nil {
		if last, ok := lastAttempt(g, st); ok && now.Sub(last) < time.Duration(*t.Cooldown)*time.Minute {
			return false
		}
	}

	if len(t.Triggers) == 0 {
		return true
	}
	for _, trig := range t.Triggers {
		if statex.EvaluateTrigger(st, trig) {
			return true
		}
	}
	return false
}

// lastAttempt prefers the attempt recorded in conversation state over the
// one seeded in configuration.
func lastAttempt(g goalx.ConversationGoal, st *statex.ConversationGoalState) (time.Time, bool) {
	if at, ok := st.LastAttempt(g.ID); ok {
		return at, true
	}
	if g.Tracking.LastAttempt != nil {
		return *g.Tracking.LastAttempt, true
	}
	return time.Time{}, false
}

// sortCandidates orders by priority rank, highest first. On equal rank and
// high interest, collect_info goals move ahead of the rest.
func sortCandidates(goals []goalx.ConversationGoal, interest interestx.Level) {
	slices.SortStableFunc(goals, func(a, b goalx.ConversationGoal) int {
		if c := cmp.Compare(b.Priority.Rank(), a.Priority.Rank()); c != 0 {
			return c
		}
		if interest != interestx.LevelHigh {
			return 0
		}
		aCollect := a.Type == goalx.TypeCollectInfo
		bCollect := b.Type == goalx.TypeCollectInfo
		switch {
		case aCollect && !bCollect:
			return -1
		case bCollect && !aCollect:
			return 1
		}
		return 0
	})
}

func priorityScore(g goalx.ConversationGoal, analysis interestx.Analysis) float64 {
	score := float64(g.Priority.Rank())
	if analysis.InterestLevel == interestx.LevelHigh {
		score++
	}
	if analysis.UrgencyLevel == interestx.UrgencyUrgent {
		score += 0.5
	}
	if analysis.InterestLevel == interestx.LevelLow {
		score--
	}
	return score
}

// chooseApproach applies the low-interest override first so urgency wins
// when both hold.
func chooseApproach(g goalx.ConversationGoal, analysis interestx.Analysis) goalx.Directness {
	approach := g.Approach.Directness
	if approach == "" {
		approach = goalx.DirectnessContextual
	}
	if analysis.InterestLevel == interestx.LevelLow {
		approach = goalx.DirectnessSubtle
	}
	if analysis.UrgencyLevel == interestx.UrgencyUrgent {
		approach = goalx.DirectnessDirect
	}
	return approach
}

func shouldPursue(g goalx.ConversationGoal, st *statex.ConversationGoalState, analysis interestx.Analysis, score float64) bool {
	if st.IsActive(g.ID) {
		return false
	}
	critical := g.Priority == goalx.PriorityCritical
	if critical && score >= 4 {
		return true
	}
	if analysis.InterestLevel.Score() < interestx.LevelMedium.Score() && !critical {
		return false
	}
	return score >= 3
}

func reason(g goalx.ConversationGoal, analysis interestx.Analysis) string {
	return fmt.Sprintf("%s priority goal; interest %s, urgency %s",
		g.Priority, analysis.InterestLevel, analysis.UrgencyLevel)
}
