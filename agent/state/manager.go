package state

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"
)

const defaultSaveRetries = 3

// Manager applies goal-state mutations through a Store. Every mutation is a
// load, modify, versioned save cycle retried on ErrStateConflict.
type Manager struct {
	store   Store
	now     func() time.Time
	retries int
}

type ManagerOption func(*Manager)

func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func WithRetries(n int) ManagerOption {
	return func(m *Manager) {
		if n > 0 {
			m.retries = n
		}
	}
}

func NewManager(store Store, opts ...ManagerOption) (*Manager, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	m := &Manager{
		store:   store,
		now:     time.Now,
		retries: defaultSaveRetries,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m, nil
}

// Summary is a read-only digest of a conversation's goal state.
type Summary struct {
	MessageCount    int      `json:"message_count"`
	ActiveGoals     []string `json:"active_goals"`
	CompletedGoals  []string `json:"completed_goals"`
	DeclinedGoals   []string `json:"declined_goals"`
	CollectedFields []string `json:"collected_fields"`
	InterestLevel   string   `json:"interest_level"`
	UrgencyLevel    string   `json:"urgency_level"`
}

// Now returns the manager's clock reading.
func (m *Manager) Now() time.Time {
	return m.now()
}

// IncrementMessage bumps the message counter and, when levels is non-nil,
// records the latest interest and urgency.
func (m *Manager) IncrementMessage(ctx context.Context, key Key, levels *Levels) (*ConversationGoalState, error) {
	return m.update(ctx, key, func(st *ConversationGoalState, _ time.Time) (bool, error) {
		st.MessageCount++
		if levels != nil {
			st.InterestLevel = levels.Interest
			st.UrgencyLevel = levels.Urgency
		}
		return true, nil
	})
}

func (m *Manager) CollectInformation(ctx context.Context, key Key, field, value string, validated bool) (*ConversationGoalState, error) {
	return m.update(ctx, key, func(st *ConversationGoalState, now time.Time) (bool, error) {
		if err := st.Collect(field, value, validated, now); err != nil {
			return false, err
		}
		return true, nil
	})
}

// ActivateGoal marks goalID active and records the attempt time. The bool
// reports whether the goal newly entered the active set.
func (m *Manager) ActivateGoal(ctx context.Context, key Key, goalID string) (*ConversationGoalState, bool, error) {
	var added bool
	st, err := m.update(ctx, key, func(st *ConversationGoalState, now time.Time) (bool, error) {
		if st.IsCompleted(goalID) || st.IsDeclined(goalID) {
			added = false
			return false, nil
		}
		ok, err := st.Activate(goalID, now)
		if err != nil {
			return false, err
		}
		added = ok
		return true, nil
	})
	return st, added, err
}

func (m *Manager) CompleteGoal(ctx context.Context, key Key, goalID string) (*ConversationGoalState, error) {
	return m.update(ctx, key, func(st *ConversationGoalState, _ time.Time) (bool, error) {
		if st.IsCompleted(goalID) {
			return false, nil
		}
		return true, st.Complete(goalID)
	})
}

func (m *Manager) DeclineGoal(ctx context.Context, key Key, goalID string) (*ConversationGoalState, error) {
	return m.update(ctx, key, func(st *ConversationGoalState, _ time.Time) (bool, error) {
		if st.IsDeclined(goalID) {
			return false, nil
		}
		return true, st.Decline(goalID)
	})
}

// GetState returns the stored state or nil when the conversation is unknown.
func (m *Manager) GetState(ctx context.Context, key Key) (*ConversationGoalState, error) {
	st, err := m.store.Load(ctx, key)
	if errors.Is(err, ErrStateNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (m *Manager) GetStateSummary(ctx context.Context, key Key) (*Summary, error) {
	st, err := m.GetState(ctx, key)
	if err != nil || st == nil {
		return nil, err
	}
	fields := make([]string, 0, len(st.CollectedInformation))
	for k := range st.CollectedInformation {
		fields = append(fields, k)
	}
	slices.Sort(fields)
	return &Summary{
		MessageCount:    st.MessageCount,
		ActiveGoals:     st.ActiveGoals,
		CompletedGoals:  st.CompletedGoals,
		DeclinedGoals:   st.DeclinedGoals,
		CollectedFields: fields,
		InterestLevel:   string(st.InterestLevel),
		UrgencyLevel:    string(st.UrgencyLevel),
	}, nil
}

func (m *Manager) ClearState(ctx context.Context, key Key) error {
	if err := key.Validate(); err != nil {
		return err
	}
	return m.store.Delete(ctx, key)
}

// update loads (or creates) the state for key, applies fn and saves it.
// fn returns false to skip the save.
func (m *Manager) update(ctx context.Context, key Key, fn func(*ConversationGoalState, time.Time) (bool, error)) (*ConversationGoalState, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		now := m.now()
		st, err := m.store.Load(ctx, key)
		switch {
		case errors.Is(err, ErrStateNotFound):
			st = NewConversationGoalState(key, now)
		case err != nil:
			return nil, fmt.Errorf("load goal state: %w", err)
		}

		changed, err := fn(st, now)
		if err != nil {
			return nil, err
		}
		if !changed && st.Version > 0 {
			return st, nil
		}

		st.Touch(now)
		err = m.store.Save(ctx, st)
		if err == nil {
			return st, nil
		}
		if !errors.Is(err, ErrStateConflict) {
			return nil, fmt.Errorf("save goal state: %w", err)
		}
		if attempt+1 >= m.retries {
			return nil, fmt.Errorf("%w: key %s after %d attempts", ErrStateConflict, key, m.retries)
		}
	}
}
