package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/contract"
	extractx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/extract"
)

// Collected field names, also usable as info_collected condition values.
const (
	FieldEmail     = "email"
	FieldPhone     = "phone"
	FieldFirstName = "firstName"
	FieldLastName  = "lastName"
	FieldFullName  = "fullName"
)

type collectedField struct {
	field     string
	value     string
	validated bool
	// completes is the collect goal satisfied by this field; empty for none.
	completes string
}

func collectedFields(info extractx.Info) []collectedField {
	var out []collectedField
	if info.Email != nil {
		out = append(out, collectedField{FieldEmail, info.Email.Value, info.Email.Validated, "collect_email"})
	}
	if info.Phone != nil {
		out = append(out, collectedField{FieldPhone, info.Phone.Value, info.Phone.Validated, "collect_phone"})
	}
	if info.FirstName != nil {
		out = append(out, collectedField{FieldFirstName, info.FirstName.Value, false, "collect_name_first"})
	}
	if info.LastName != nil {
		out = append(out, collectedField{FieldLastName, info.LastName.Value, false, ""})
	}
	if info.FullName != nil {
		out = append(out, collectedField{FieldFullName, info.FullName.Value, false, "collect_name"})
	}
	return out
}

// ApplyExtractedInfo records every extracted field and completes the matching
// collect goal when it is currently active.
func ApplyExtractedInfo(ctx context.Context, in *GraphState, mgr StateManager) (*GraphState, error) {
	if in == nil || in.State == nil {
		return nil, fmt.Errorf("%w: graph state is incomplete", contractx.ErrValidation)
	}

	for _, f := range collectedFields(in.Extracted) {
		st, err := mgr.CollectInformation(ctx, in.Key, f.field, f.value, f.validated)
		if err != nil {
			return nil, err
		}
		in.State = st

		if f.completes == "" || !in.State.IsActive(f.completes) {
			continue
		}
		st, err = mgr.CompleteGoal(ctx, in.Key, f.completes)
		if err != nil {
			return nil, err
		}
		in.State = st
		in.StateUpdates.NewlyCompleted = append(in.StateUpdates.NewlyCompleted, f.completes)
	}
	return in, nil
}
