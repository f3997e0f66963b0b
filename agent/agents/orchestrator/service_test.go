package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	goalx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/goal"
	statex "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/state"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type dispatchCall struct {
	key             statex.Key
	orchestrationID string
	intents         []string
}

type fakeDispatcher struct {
	mu    sync.Mutex
	err   error
	calls []dispatchCall
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, key statex.Key, orchestrationID string, intents []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, dispatchCall{key: key, orchestrationID: orchestrationID, intents: append([]string(nil), intents...)})
	return f.err
}

type harness struct {
	o       *Orchestrator
	manager *statex.Manager
	clock   *fakeClock
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()

	clock := &fakeClock{now: time.Date(2025, 5, 5, 10, 0, 0, 0, time.UTC)}
	manager, err := statex.NewManager(statex.NewMemoryStore(statex.WithMemoryClock(clock.Now)), statex.WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	opts = append([]Option{WithClock(clock.Now), WithIDGenerator(func() string { return "orch-1" })}, opts...)
	o, err := New(manager, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return &harness{o: o, manager: manager, clock: clock}
}

func intPtr(v int) *int { return &v }

func baseConfig(goals ...goalx.ConversationGoal) *goalx.Configuration {
	return &goalx.Configuration{
		Enabled:        true,
		Goals:          goals,
		GlobalSettings: goalx.GlobalSettings{MaxActiveGoals: 2},
	}
}

func request(msg string, cfg *goalx.Configuration) Request {
	return Request{Message: msg, SessionID: "s-1", UserID: "u-1", TenantID: "gym", Config: cfg}
}

var key = statex.Key{SessionID: "s-1", UserID: "u-1", TenantID: "gym"}

func TestOrchestrateGoalsInvalidInput(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()

	_, err := h.o.OrchestrateGoals(ctx, Request{Message: "hi", UserID: "u", TenantID: "t", Config: baseConfig()})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	_, err = h.o.OrchestrateGoals(ctx, request("hi", nil))
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for nil config, got %v", err)
	}

	bad := baseConfig(goalx.ConversationGoal{ID: "a", Priority: "urgent-ish"})
	_, err = h.o.OrchestrateGoals(ctx, request("hi", bad))
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}

	st, err := h.o.GetGoalState(ctx, key)
	if err != nil || st != nil {
		t.Fatalf("no state may be written for rejected requests: %+v, %v", st, err)
	}
}

func TestOrchestrateGoalsExtractsIntroduction(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	cfg := baseConfig(
		goalx.ConversationGoal{ID: "collect_email", Type: goalx.TypeCollectInfo, Priority: goalx.PriorityHigh},
		goalx.ConversationGoal{ID: "collect_name", Type: goalx.TypeCollectInfo, Priority: goalx.PriorityMedium},
	)

	// Activate both collect goals first.
	if _, _, err := h.manager.ActivateGoal(ctx, key, "collect_email"); err != nil {
		t.Fatalf("ActivateGoal() error = %v", err)
	}
	if _, _, err := h.manager.ActivateGoal(ctx, key, "collect_name"); err != nil {
		t.Fatalf("ActivateGoal() error = %v", err)
	}

	res, err := h.o.OrchestrateGoals(ctx, request("Hi, my name is John Smith and my email is John.Smith@Example.com", cfg))
	if err != nil {
		t.Fatalf("OrchestrateGoals() error = %v", err)
	}

	if res.OrchestrationID != "orch-1" {
		t.Fatalf("OrchestrationID = %q", res.OrchestrationID)
	}
	if e := res.ExtractedInfo.Email; e == nil || e.Value != "john.smith@example.com" || !e.Validated {
		t.Fatalf("email = %+v", e)
	}
	if n := res.ExtractedInfo.FullName; n == nil || n.Value != "John Smith" {
		t.Fatalf("full name = %+v", n)
	}
	if got := res.StateUpdates.NewlyCompleted; len(got) != 2 || got[0] != "collect_email" || got[1] != "collect_name" {
		t.Fatalf("NewlyCompleted = %v", got)
	}

	st, _ := h.o.GetGoalState(ctx, key)
	if st.MessageCount != 2 {
		t.Fatalf("MessageCount = %d, want 2 (counted before and after analysis)", st.MessageCount)
	}
	for _, field := range []string{"email", "firstName", "lastName", "fullName"} {
		if !st.HasCollected(field) {
			t.Fatalf("field %s not collected", field)
		}
	}
	if !st.CollectedInformation["email"].Validated {
		t.Fatal("email must be stored as validated")
	}
	if st.InterestLevel != res.InterestAnalysis.InterestLevel {
		t.Fatalf("stored interest %q != analysis %q", st.InterestLevel, res.InterestAnalysis.InterestLevel)
	}
}

func TestOrchestrateGoalsPhoneDecline(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	cfg := baseConfig(goalx.ConversationGoal{ID: "collect_phone", Priority: goalx.PriorityHigh})

	if _, _, err := h.manager.ActivateGoal(ctx, key, "collect_phone"); err != nil {
		t.Fatalf("ActivateGoal() error = %v", err)
	}

	msg := "No thanks, I'd rather not share my phone number"
	res, err := h.o.OrchestrateGoals(ctx, request(msg, cfg))
	if err != nil {
		t.Fatalf("OrchestrateGoals() error = %v", err)
	}
	if got := res.StateUpdates.Declined; len(got) != 1 || got[0] != "collect_phone" {
		t.Fatalf("Declined = %v", got)
	}
	for _, r := range res.Recommendations {
		if r.GoalID == "collect_phone" {
			t.Fatal("declined goal must not be recommended")
		}
	}

	// Nothing left to decline on a repeat.
	for range 2 {
		res, err = h.o.OrchestrateGoals(ctx, request(msg, cfg))
		if err != nil {
			t.Fatalf("OrchestrateGoals() error = %v", err)
		}
		if len(res.StateUpdates.Declined) != 0 {
			t.Fatalf("Declined = %v, want empty", res.StateUpdates.Declined)
		}
	}
}

func TestOrchestrateGoalsDeclinesOnlyFirstCollectGoal(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()

	for _, id := range []string{"schedule_visit", "collect_email", "collect_phone"} {
		if _, _, err := h.manager.ActivateGoal(ctx, key, id); err != nil {
			t.Fatalf("ActivateGoal() error = %v", err)
		}
	}

	res, err := h.o.OrchestrateGoals(ctx, request("I'd rather not say", baseConfig()))
	if err != nil {
		t.Fatalf("OrchestrateGoals() error = %v", err)
	}
	if got := res.StateUpdates.Declined; len(got) != 1 || got[0] != "collect_email" {
		t.Fatalf("Declined = %v, want [collect_email]", got)
	}

	st, _ := h.o.GetGoalState(ctx, key)
	if !st.IsActive("collect_phone") || !st.IsActive("schedule_visit") {
		t.Fatalf("other goals must stay active: %+v", st.ActiveGoals)
	}
}

func TestOrchestrateGoalsPursuesCriticalGoal(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	cfg := baseConfig(goalx.ConversationGoal{ID: "collect_email", Priority: goalx.PriorityCritical})

	res, err := h.o.OrchestrateGoals(context.Background(), request("ok", cfg))
	if err != nil {
		t.Fatalf("OrchestrateGoals() error = %v", err)
	}
	if len(res.Recommendations) != 1 || !res.Recommendations[0].ShouldPursue {
		t.Fatalf("Recommendations = %+v", res.Recommendations)
	}
	if res.Recommendations[0].Message == "" {
		t.Fatal("recommendation message is empty")
	}
	if got := res.StateUpdates.NewlyActivated; len(got) != 1 || got[0] != "collect_email" {
		t.Fatalf("NewlyActivated = %v", got)
	}

	// Already active now, so it is listed but not pursued again.
	res, err = h.o.OrchestrateGoals(context.Background(), request("ok", cfg))
	if err != nil {
		t.Fatalf("OrchestrateGoals() error = %v", err)
	}
	if len(res.Recommendations) != 1 || res.Recommendations[0].ShouldPursue {
		t.Fatalf("Recommendations = %+v", res.Recommendations)
	}
	if len(res.StateUpdates.NewlyActivated) != 0 {
		t.Fatalf("NewlyActivated = %v, want empty", res.StateUpdates.NewlyActivated)
	}
}

func TestOrchestrateGoalsDependencyGating(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	cfg := baseConfig(
		goalx.ConversationGoal{ID: "collect_email", Priority: goalx.PriorityCritical},
		goalx.ConversationGoal{ID: "schedule_visit", Priority: goalx.PriorityCritical,
			Dependencies: goalx.Dependencies{Requires: []string{"collect_email"}}},
	)

	res, err := h.o.OrchestrateGoals(ctx, request("hello", cfg))
	if err != nil {
		t.Fatalf("OrchestrateGoals() error = %v", err)
	}
	for _, r := range res.Recommendations {
		if r.GoalID == "schedule_visit" {
			t.Fatalf("schedule_visit recommended before its dependency: %+v", r)
		}
	}

	res, err = h.o.OrchestrateGoals(ctx, request("sure, it's sam@example.com", cfg))
	if err != nil {
		t.Fatalf("OrchestrateGoals() error = %v", err)
	}
	if got := res.StateUpdates.NewlyCompleted; len(got) != 1 || got[0] != "collect_email" {
		t.Fatalf("NewlyCompleted = %v", got)
	}
	var found bool
	for _, r := range res.Recommendations {
		if r.GoalID == "schedule_visit" && r.ShouldPursue {
			found = true
		}
	}
	if !found {
		t.Fatalf("schedule_visit must be pursued once collect_email completes: %+v", res.Recommendations)
	}
}

func TestOrchestrateGoalsCooldown(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		ago     time.Duration
		present bool
	}{
		{"ten minutes", 10 * time.Minute, false},
		{"forty minutes", 40 * time.Minute, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t)
			last := h.clock.Now().Add(-tt.ago)
			cfg := baseConfig(goalx.ConversationGoal{
				ID:       "collect_phone",
				Priority: goalx.PriorityHigh,
				Timing:   goalx.Timing{Cooldown: intPtr(30)},
				Tracking: goalx.Tracking{LastAttempt: &last},
			})

			res, err := h.o.OrchestrateGoals(context.Background(), request("hello", cfg))
			if err != nil {
				t.Fatalf("OrchestrateGoals() error = %v", err)
			}
			if got := len(res.Recommendations) == 1; got != tt.present {
				t.Fatalf("recommended = %v, want %v", got, tt.present)
			}
		})
	}
}

func TestOrchestrateGoalsCooldownAfterActivation(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	cfg := baseConfig(goalx.ConversationGoal{ID: "collect_email", Priority: goalx.PriorityCritical, Timing: goalx.Timing{Cooldown: intPtr(30)}})

	res, _ := h.o.OrchestrateGoals(ctx, request("hi", cfg))
	if len(res.StateUpdates.NewlyActivated) != 1 {
		t.Fatalf("NewlyActivated = %v", res.StateUpdates.NewlyActivated)
	}

	h.clock.Advance(5 * time.Minute)
	res, _ = h.o.OrchestrateGoals(ctx, request("hi", cfg))
	if len(res.Recommendations) != 0 {
		t.Fatalf("goal in cooldown recommended: %+v", res.Recommendations)
	}

	h.clock.Advance(30 * time.Minute)
	res, _ = h.o.OrchestrateGoals(ctx, request("hi", cfg))
	if len(res.Recommendations) != 1 {
		t.Fatalf("goal past cooldown must be listed: %+v", res.Recommendations)
	}
}

func TestOrchestrateGoalsCap(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	cfg := baseConfig(
		goalx.ConversationGoal{ID: "a", Priority: goalx.PriorityCritical},
		goalx.ConversationGoal{ID: "b", Priority: goalx.PriorityCritical},
		goalx.ConversationGoal{ID: "c", Priority: goalx.PriorityCritical},
	)
	cfg.GlobalSettings.MaxActiveGoals = 1

	res, err := h.o.OrchestrateGoals(context.Background(), request("hello", cfg))
	if err != nil {
		t.Fatalf("OrchestrateGoals() error = %v", err)
	}
	if n := res.PursuedCount(); n != 1 {
		t.Fatalf("pursued = %d, want 1", n)
	}
	if len(res.StateUpdates.NewlyActivated) != 1 {
		t.Fatalf("NewlyActivated = %v", res.StateUpdates.NewlyActivated)
	}
}

func TestOrchestrateGoalsDisabledStillTriggers(t *testing.T) {
	t.Parallel()

	dispatcher := &fakeDispatcher{}
	h := newHarness(t, WithIntentDispatcher(dispatcher))
	ctx := context.Background()

	cfg := baseConfig(goalx.ConversationGoal{ID: "collect_email", Priority: goalx.PriorityCritical})
	cfg.Enabled = false
	cfg.CompletionTriggers = goalx.CompletionTriggers{
		CustomCombinations:  []goalx.CustomCombination{{GoalIDs: []string{"collect_email"}, TriggerIntent: "send_welcome"}},
		AllCriticalComplete: "send_welcome",
	}

	if _, err := h.manager.CompleteGoal(ctx, key, "collect_email"); err != nil {
		t.Fatalf("CompleteGoal() error = %v", err)
	}

	for range 2 {
		res, err := h.o.OrchestrateGoals(ctx, request("thanks", cfg))
		if err != nil {
			t.Fatalf("OrchestrateGoals() error = %v", err)
		}
		if len(res.Recommendations) != 0 {
			t.Fatalf("disabled config must not recommend: %+v", res.Recommendations)
		}
		if got := res.TriggeredIntents; len(got) != 1 || got[0] != "send_welcome" {
			t.Fatalf("TriggeredIntents = %v", got)
		}
	}

	if len(dispatcher.calls) != 2 {
		t.Fatalf("dispatch calls = %d, want 2", len(dispatcher.calls))
	}
	if c := dispatcher.calls[0]; c.key != key || c.orchestrationID != "orch-1" {
		t.Fatalf("dispatch call = %+v", c)
	}
}

func TestOrchestrateGoalsDispatchFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	dispatcher := &fakeDispatcher{err: errors.New("queue down")}
	h := newHarness(t, WithIntentDispatcher(dispatcher))
	ctx := context.Background()

	cfg := baseConfig(goalx.ConversationGoal{ID: "collect_email", Priority: goalx.PriorityCritical})
	cfg.CompletionTriggers.AllCriticalComplete = "handoff"
	_, _ = h.manager.CompleteGoal(ctx, key, "collect_email")

	res, err := h.o.OrchestrateGoals(ctx, request("ok", cfg))
	if err != nil {
		t.Fatalf("OrchestrateGoals() error = %v", err)
	}
	if len(res.TriggeredIntents) != 1 {
		t.Fatalf("TriggeredIntents = %v", res.TriggeredIntents)
	}
}

func TestOrchestrateGoalsConcurrentSameKey(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	cfg := baseConfig(goalx.ConversationGoal{ID: "collect_email", Priority: goalx.PriorityCritical})

	const calls = 10
	var wg sync.WaitGroup
	wg.Add(calls)
	for range calls {
		go func() {
			defer wg.Done()
			if _, err := h.o.OrchestrateGoals(context.Background(), request("hello", cfg)); err != nil {
				t.Errorf("OrchestrateGoals() error = %v", err)
			}
		}()
	}
	wg.Wait()

	st, _ := h.o.GetGoalState(context.Background(), key)
	if st.MessageCount != 2*calls {
		t.Fatalf("MessageCount = %d, want %d", st.MessageCount, 2*calls)
	}
	if got := st.Tracking["collect_email"].Attempts; got != 1 {
		t.Fatalf("Attempts = %d, want 1", got)
	}
	if h.o.locks.size() != 0 {
		t.Fatalf("key locks leaked: %d", h.o.locks.size())
	}
}

func TestResetGoalState(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.o.OrchestrateGoals(ctx, request("hello", baseConfig())); err != nil {
		t.Fatalf("OrchestrateGoals() error = %v", err)
	}
	if err := h.o.ResetGoalState(ctx, key); err != nil {
		t.Fatalf("ResetGoalState() error = %v", err)
	}
	st, err := h.o.GetGoalState(ctx, key)
	if err != nil || st != nil {
		t.Fatalf("GetGoalState() = %+v, %v", st, err)
	}
}
