// Package goal holds the persona-authored goal configuration: the goals a
// conversation may pursue, how they are gated, and which business intents fire
// once a set of them is complete.
package goal

import "time"

type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Rank orders priorities: critical=4 > high=3 > medium=2 > low=1.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

type Directness string

const (
	DirectnessDirect     Directness = "direct"
	DirectnessContextual Directness = "contextual"
	DirectnessSubtle     Directness = "subtle"
)

type TriggerLogic string

const (
	LogicAnd TriggerLogic = "AND"
	LogicOr  TriggerLogic = "OR"
)

// TypeCollectInfo is the goal type that gets the high-interest tie-break.
const TypeCollectInfo = "collect_info"

type ConditionType string

const (
	ConditionMessageCount  ConditionType = "message_count"
	ConditionInterestLevel ConditionType = "interest_level"
	ConditionUrgencyLevel  ConditionType = "urgency_level"
	ConditionGoalCompleted ConditionType = "goal_completed"
	ConditionGoalActive    ConditionType = "goal_active"
	ConditionGoalDeclined  ConditionType = "goal_declined"
	ConditionInfoCollected ConditionType = "info_collected"
)

type Operator string

const (
	OpEq        Operator = "eq"
	OpNeq       Operator = "neq"
	OpGt        Operator = "gt"
	OpGte       Operator = "gte"
	OpLt        Operator = "lt"
	OpLte       Operator = "lte"
	OpExists    Operator = "exists"
	OpNotExists Operator = "not_exists"
)

// Configuration is read-only once loaded and safe to share across conversations.
type Configuration struct {
	Enabled            bool                `json:"enabled" yaml:"enabled"`
	Goals              []ConversationGoal  `json:"goals" yaml:"goals" validate:"dive"`
	GlobalSettings     GlobalSettings      `json:"globalSettings" yaml:"globalSettings"`
	CompletionTriggers CompletionTriggers  `json:"completionTriggers" yaml:"completionTriggers"`
	MessageTemplates   map[string]Messages `json:"messageTemplates,omitempty" yaml:"messageTemplates,omitempty"`
}

type GlobalSettings struct {
	MaxActiveGoals int `json:"maxActiveGoals" yaml:"maxActiveGoals" validate:"min=1"`
}

type CompletionTriggers struct {
	CustomCombinations  []CustomCombination `json:"customCombinations,omitempty" yaml:"customCombinations,omitempty" validate:"dive"`
	AllCriticalComplete string              `json:"allCriticalComplete,omitempty" yaml:"allCriticalComplete,omitempty"`
}

type CustomCombination struct {
	GoalIDs       []string `json:"goalIds" yaml:"goalIds" validate:"min=1,dive,required"`
	TriggerIntent string   `json:"triggerIntent" yaml:"triggerIntent" validate:"required"`
}

type ConversationGoal struct {
	ID           string       `json:"id" yaml:"id" validate:"required"`
	Name         string       `json:"name" yaml:"name"`
	Type         string       `json:"type" yaml:"type"`
	Priority     Priority     `json:"priority" yaml:"priority" validate:"oneof=critical high medium low"`
	Dependencies Dependencies `json:"dependencies" yaml:"dependencies"`
	Timing       Timing       `json:"timing" yaml:"timing"`
	Approach     Approach     `json:"approach" yaml:"approach"`
	Tracking     Tracking     `json:"tracking" yaml:"tracking"`
}

type Dependencies struct {
	Requires []string `json:"requires,omitempty" yaml:"requires,omitempty" validate:"dive,required"`
}

// Timing bounds are optional; a nil bound means no constraint.
type Timing struct {
	MinMessages *int      `json:"minMessages,omitempty" yaml:"minMessages,omitempty" validate:"omitempty,min=0"`
	MaxMessages *int      `json:"maxMessages,omitempty" yaml:"maxMessages,omitempty" validate:"omitempty,min=0"`
	Cooldown    *int      `json:"cooldown,omitempty" yaml:"cooldown,omitempty" validate:"omitempty,min=0"` // minutes
	Triggers    []Trigger `json:"triggers,omitempty" yaml:"triggers,omitempty" validate:"dive"`
}

type Trigger struct {
	Logic      TriggerLogic `json:"logic" yaml:"logic" validate:"oneof=AND OR"`
	Conditions []Condition  `json:"conditions" yaml:"conditions" validate:"min=1,dive"`
}

type Condition struct {
	Type     ConditionType `json:"type" yaml:"type" validate:"oneof=message_count interest_level urgency_level goal_completed goal_active goal_declined info_collected"`
	Operator Operator      `json:"operator" yaml:"operator" validate:"oneof=eq neq gt gte lt lte exists not_exists"`
	Value    string        `json:"value" yaml:"value"`
}

type Approach struct {
	Directness       Directness `json:"directness" yaml:"directness" validate:"omitempty,oneof=direct contextual subtle"`
	ValueProposition string     `json:"valueProposition,omitempty" yaml:"valueProposition,omitempty"`
}

// Tracking may be seeded by the persona service; attempts recorded in
// conversation state take precedence.
type Tracking struct {
	LastAttempt *time.Time `json:"lastAttempt,omitempty" yaml:"lastAttempt,omitempty"`
}

// Messages maps an approach to its rendered prompt for one goal id.
type Messages map[Directness]string

func (c *Configuration) Goal(id string) (*ConversationGoal, bool) {
	if c == nil {
		return nil, false
	}
	for i := range c.Goals {
		if c.Goals[i].ID == id {
			return &c.Goals[i], true
		}
	}
	return nil, false
}

// CriticalGoalIDs returns ids of every goal with critical priority, in config order.
func (c *Configuration) CriticalGoalIDs() []string {
	if c == nil {
		return nil
	}
	var ids []string
	for _, g := range c.Goals {
		if g.Priority == PriorityCritical {
			ids = append(ids, g.ID)
		}
	}
	return ids
}
