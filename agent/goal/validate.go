package goal

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrConfiguration = errors.New("invalid goal configuration")

var validate = validator.New()

// Validate checks tags first and then the cross-field rules tags cannot express.
// Every failure wraps ErrConfiguration.
func (c *Configuration) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: configuration is nil", ErrConfiguration)
	}

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("%w: %s", ErrConfiguration, describe(verrs))
		}
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	ids := make(map[string]struct{}, len(c.Goals))
	for _, g := range c.Goals {
		if _, dup := ids[g.ID]; dup {
			return fmt.Errorf("%w: duplicate goal id %q", ErrConfiguration, g.ID)
		}
		ids[g.ID] = struct{}{}
	}

	for _, g := range c.Goals {
		for _, dep := range g.Dependencies.Requires {
			if dep == g.ID {
				return fmt.Errorf("%w: goal %q depends on itself", ErrConfiguration, g.ID)
			}
			if _, ok := ids[dep]; !ok {
				return fmt.Errorf("%w: goal %q requires unknown goal %q", ErrConfiguration, g.ID, dep)
			}
		}
		t := g.Timing
		if t.MinMessages != nil && t.MaxMessages != nil && *t.MinMessages > *t.MaxMessages {
			return fmt.Errorf("%w: goal %q has minMessages %d > maxMessages %d",
				ErrConfiguration, g.ID, *t.MinMessages, *t.MaxMessages)
		}
		for i, trig := range t.Triggers {
			for j, cond := range trig.Conditions {
				if err := validateCondition(cond); err != nil {
					return fmt.Errorf("%w: goal %q trigger %d condition %d: %v", ErrConfiguration, g.ID, i, j, err)
				}
			}
		}
	}

	for i, combo := range c.CompletionTriggers.CustomCombinations {
		for _, id := range combo.GoalIDs {
			if _, ok := ids[id]; !ok {
				return fmt.Errorf("%w: customCombinations[%d] references unknown goal %q", ErrConfiguration, i, id)
			}
		}
	}

	return nil
}

func validateCondition(c Condition) error {
	switch c.Type {
	case ConditionMessageCount:
		switch c.Operator {
		case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte:
		default:
			return fmt.Errorf("operator %q not supported for %s", c.Operator, c.Type)
		}
		if _, err := strconv.Atoi(strings.TrimSpace(c.Value)); err != nil {
			return fmt.Errorf("message_count value %q is not an integer", c.Value)
		}
	case ConditionInterestLevel, ConditionUrgencyLevel:
		switch c.Operator {
		case OpEq, OpNeq, OpGte, OpLte:
		default:
			return fmt.Errorf("operator %q not supported for %s", c.Operator, c.Type)
		}
		if strings.TrimSpace(c.Value) == "" {
			return fmt.Errorf("%s value is empty", c.Type)
		}
	case ConditionGoalCompleted, ConditionGoalActive, ConditionGoalDeclined:
		if c.Operator != OpEq && c.Operator != OpNeq {
			return fmt.Errorf("operator %q not supported for %s", c.Operator, c.Type)
		}
		if strings.TrimSpace(c.Value) == "" {
			return fmt.Errorf("%s value is empty", c.Type)
		}
	case ConditionInfoCollected:
		if c.Operator != OpExists && c.Operator != OpNotExists {
			return fmt.Errorf("operator %q not supported for %s", c.Operator, c.Type)
		}
		if strings.TrimSpace(c.Value) == "" {
			return fmt.Errorf("%s value is empty", c.Type)
		}
	}
	return nil
}

func describe(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
