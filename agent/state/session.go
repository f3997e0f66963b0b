package state

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	interestx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/interest"
)

// Key identifies one conversation. All three parts are opaque strings from the
// calling pipeline.
type Key struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	TenantID  string `json:"tenant_id"`
}

func (k Key) Validate() error {
	if strings.TrimSpace(k.SessionID) == "" {
		return ErrInvalidSession
	}
	if strings.TrimSpace(k.UserID) == "" {
		return ErrInvalidUser
	}
	if strings.TrimSpace(k.TenantID) == "" {
		return ErrInvalidTenant
	}
	return nil
}

func (k Key) String() string {
	return k.TenantID + ":" + k.UserID + ":" + k.SessionID
}

// ConversationGoalState is the per-conversation bookkeeping for goal pursuit.
// A goal id is in at most one of ActiveGoals, CompletedGoals, DeclinedGoals.
// Goal lists keep insertion order.
type ConversationGoalState struct {
	Key Key `json:"key"`

	MessageCount int `json:"message_count"`

	ActiveGoals    []string `json:"active_goals,omitempty"`
	CompletedGoals []string `json:"completed_goals,omitempty"`
	DeclinedGoals  []string `json:"declined_goals,omitempty"`

	CollectedInformation map[string]CollectedField `json:"collected_information,omitempty"`

	InterestLevel interestx.Level   `json:"interest_level,omitempty"`
	UrgencyLevel  interestx.Urgency `json:"urgency_level,omitempty"`

	Tracking map[string]GoalTracking `json:"tracking,omitempty"`

	// Version is bumped by the store on every successful Save.
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CollectedField struct {
	Value       string    `json:"value"`
	Validated   bool      `json:"validated"`
	CollectedAt time.Time `json:"collected_at"`
}

type GoalTracking struct {
	LastAttempt *time.Time `json:"last_attempt,omitempty"`
	Attempts    int        `json:"attempts"`
}

// Levels carries the analysis results written by IncrementMessage.
type Levels struct {
	Interest interestx.Level
	Urgency  interestx.Urgency
}

var (
	ErrNilGoalID = errors.New("goal id is empty")
	ErrNilField  = errors.New("field name is empty")
)

func NewConversationGoalState(key Key, now time.Time) *ConversationGoalState {
	return &ConversationGoalState{
		Key:                  key,
		CollectedInformation: make(map[string]CollectedField, 4),
		Tracking:             make(map[string]GoalTracking, 4),
		CreatedAt:            now.UTC(),
		UpdatedAt:            now.UTC(),
	}
}

func (s *ConversationGoalState) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

// EnsureMaps makes sure the map fields are initialized after decoding.
func (s *ConversationGoalState) EnsureMaps() {
	if s.CollectedInformation == nil {
		s.CollectedInformation = make(map[string]CollectedField, 4)
	}
	if s.Tracking == nil {
		s.Tracking = make(map[string]GoalTracking, 4)
	}
}

func (s *ConversationGoalState) IsActive(goalID string) bool {
	return s != nil && slices.Contains(s.ActiveGoals, goalID)
}

func (s *ConversationGoalState) IsCompleted(goalID string) bool {
	return s != nil && slices.Contains(s.CompletedGoals, goalID)
}

func (s *ConversationGoalState) IsDeclined(goalID string) bool {
	return s != nil && slices.Contains(s.DeclinedGoals, goalID)
}

func (s *ConversationGoalState) HasCollected(field string) bool {
	if s == nil {
		return false
	}
	_, ok := s.CollectedInformation[field]
	return ok
}

// LastAttempt returns when goalID was last pursued in this conversation.
func (s *ConversationGoalState) LastAttempt(goalID string) (time.Time, bool) {
	if s == nil {
		return time.Time{}, false
	}
	t, ok := s.Tracking[goalID]
	if !ok || t.LastAttempt == nil {
		return time.Time{}, false
	}
	return *t.LastAttempt, true
}

// Activate marks goalID active and records the attempt. Completed and declined
// goals cannot be re-activated.
func (s *ConversationGoalState) Activate(goalID string, now time.Time) (bool, error) {
	if goalID == "" {
		return false, ErrNilGoalID
	}
	if s.IsCompleted(goalID) || s.IsDeclined(goalID) {
		return false, nil
	}
	s.EnsureMaps()
	at := now.UTC()
	tr := s.Tracking[goalID]
	tr.LastAttempt = &at
	tr.Attempts++
	s.Tracking[goalID] = tr

	if s.IsActive(goalID) {
		return false, nil
	}
	s.ActiveGoals = append(s.ActiveGoals, goalID)
	return true, nil
}

func (s *ConversationGoalState) Complete(goalID string) error {
	if goalID == "" {
		return ErrNilGoalID
	}
	s.ActiveGoals = remove(s.ActiveGoals, goalID)
	s.DeclinedGoals = remove(s.DeclinedGoals, goalID)
	if !s.IsCompleted(goalID) {
		s.CompletedGoals = append(s.CompletedGoals, goalID)
	}
	return nil
}

func (s *ConversationGoalState) Decline(goalID string) error {
	if goalID == "" {
		return ErrNilGoalID
	}
	s.ActiveGoals = remove(s.ActiveGoals, goalID)
	s.CompletedGoals = remove(s.CompletedGoals, goalID)
	if !s.IsDeclined(goalID) {
		s.DeclinedGoals = append(s.DeclinedGoals, goalID)
	}
	return nil
}

func (s *ConversationGoalState) Collect(field, value string, validated bool, now time.Time) error {
	if strings.TrimSpace(field) == "" {
		return ErrNilField
	}
	s.EnsureMaps()
	s.CollectedInformation[field] = CollectedField{
		Value:       value,
		Validated:   validated,
		CollectedAt: now.UTC(),
	}
	return nil
}

// Validate checks the set-exclusivity invariant.
func (s *ConversationGoalState) Validate() error {
	seen := make(map[string]string, len(s.ActiveGoals)+len(s.CompletedGoals)+len(s.DeclinedGoals))
	for _, group := range []struct {
		name string
		ids  []string
	}{
		{"active", s.ActiveGoals},
		{"completed", s.CompletedGoals},
		{"declined", s.DeclinedGoals},
	} {
		for _, id := range group.ids {
			if prev, ok := seen[id]; ok {
				return fmt.Errorf("goal %s is both %s and %s", id, prev, group.name)
			}
			seen[id] = group.name
		}
	}
	return nil
}

// Clone returns a deep copy so callers can read state without sharing maps.
func (s *ConversationGoalState) Clone() *ConversationGoalState {
	if s == nil {
		return nil
	}
	out := *s
	out.ActiveGoals = slices.Clone(s.ActiveGoals)
	out.CompletedGoals = slices.Clone(s.CompletedGoals)
	out.DeclinedGoals = slices.Clone(s.DeclinedGoals)
	out.CollectedInformation = make(map[string]CollectedField, len(s.CollectedInformation))
	for k, v := range s.CollectedInformation {
		out.CollectedInformation[k] = v
	}
	out.Tracking = make(map[string]GoalTracking, len(s.Tracking))
	for k, v := range s.Tracking {
		if v.LastAttempt != nil {
			at := *v.LastAttempt
			v.LastAttempt = &at
		}
		out.Tracking[k] = v
	}
	return &out
}

func remove(ids []string, id string) []string {
	i := slices.Index(ids, id)
	if i < 0 {
		return ids
	}
	return slices.Delete(ids, i, i+1)
}
