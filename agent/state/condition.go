package state

import (
	"strconv"
	"strings"

	goalx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/goal"
	interestx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/interest"
)

// EvaluateCondition reports whether cond holds for st. Unknown condition
// types, operators and unparsable values evaluate to false.
func EvaluateCondition(st *ConversationGoalState, cond goalx.Condition) bool {
	if st == nil {
		return false
	}
	value := strings.TrimSpace(cond.Value)

	switch cond.Type {
	case goalx.ConditionMessageCount:
		want, err := strconv.Atoi(value)
		if err != nil {
			return false
		}
		return compareInt(st.MessageCount, want, cond.Operator)

	case goalx.ConditionInterestLevel:
		have := st.InterestLevel.Score()
		want := interestx.Level(strings.ToLower(value)).Score()
		if have == 0 || want == 0 {
			return false
		}
		return compareInt(have, want, cond.Operator)

	case goalx.ConditionUrgencyLevel:
		have := st.UrgencyLevel.Score()
		want := interestx.Urgency(strings.ToLower(value)).Score()
		if have == 0 || want == 0 {
			return false
		}
		return compareInt(have, want, cond.Operator)

	case goalx.ConditionGoalCompleted:
		return membership(st.IsCompleted(value), cond.Operator)
	case goalx.ConditionGoalActive:
		return membership(st.IsActive(value), cond.Operator)
	case goalx.ConditionGoalDeclined:
		return membership(st.IsDeclined(value), cond.Operator)

	case goalx.ConditionInfoCollected:
		return membership(st.HasCollected(value), cond.Operator)
	}
	return false
}

// EvaluateTrigger combines a trigger's conditions with its AND/OR logic.
func EvaluateTrigger(st *ConversationGoalState, trigger goalx.Trigger) bool {
	if len(trigger.Conditions) == 0 {
		return false
	}
	switch trigger.Logic {
	case goalx.LogicOr:
		for _, c := range trigger.Conditions {
			if EvaluateCondition(st, c) {
				return true
			}
		}
		return false
	case goalx.LogicAnd:
		for _, c := range trigger.Conditions {
			if !EvaluateCondition(st, c) {
				return false
			}
		}
		return true
	}
	return false
}

func compareInt(have, want int, op goalx.Operator) bool {
	switch op {
	case goalx.OpEq:
		return have == want
	case goalx.OpNeq:
		return have != want
	case goalx.OpGt:
		return have > want
	case goalx.OpGte:
		return have >= want
	case goalx.OpLt:
		return have < want
	case goalx.OpLte:
		return have <= want
	}
	return false
}

// membership handles set-style predicates: eq/exists test presence,
// neq/not_exists test absence.
func membership(present bool, op goalx.Operator) bool {
	switch op {
	case goalx.OpEq, goalx.OpExists:
		return present
	case goalx.OpNeq, goalx.OpNotExists:
		return !present
	}
	return false
}
