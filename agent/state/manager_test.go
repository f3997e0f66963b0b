package state

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	interestx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/interest"
)

func newTestManager(t *testing.T, store Store, clock *fakeClock) *Manager {
	t.Helper()

	m, err := NewManager(store, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return m
}

func TestManagerIncrementMessage(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	m := newTestManager(t, NewMemoryStore(), clock)
	ctx := context.Background()

	st, err := m.IncrementMessage(ctx, testKey, nil)
	if err != nil {
		t.Fatalf("IncrementMessage() error = %v", err)
	}
	if st.MessageCount != 1 || st.InterestLevel != "" {
		t.Fatalf("unexpected state: %+v", st)
	}

	st, err = m.IncrementMessage(ctx, testKey, &Levels{Interest: interestx.LevelHigh, Urgency: interestx.UrgencyUrgent})
	if err != nil {
		t.Fatalf("IncrementMessage() error = %v", err)
	}
	if st.MessageCount != 2 || st.InterestLevel != interestx.LevelHigh || st.UrgencyLevel != interestx.UrgencyUrgent {
		t.Fatalf("unexpected state: %+v", st)
	}
	if st.Version != 2 {
		t.Fatalf("Version = %d, want 2", st.Version)
	}
}

func TestManagerGoalLifecycle(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	m := newTestManager(t, NewMemoryStore(), clock)
	ctx := context.Background()

	_, added, err := m.ActivateGoal(ctx, testKey, "collect_email")
	if err != nil || !added {
		t.Fatalf("ActivateGoal() = %v, %v", added, err)
	}

	clock.Advance(time.Minute)
	st, added, err := m.ActivateGoal(ctx, testKey, "collect_email")
	if err != nil || added {
		t.Fatalf("second ActivateGoal() = %v, %v", added, err)
	}
	if at, _ := st.LastAttempt("collect_email"); !at.Equal(clock.Now()) {
		t.Fatalf("LastAttempt = %v, want %v", at, clock.Now())
	}

	if _, err := m.CollectInformation(ctx, testKey, "email", "a@b.co", true); err != nil {
		t.Fatalf("CollectInformation() error = %v", err)
	}
	if _, err := m.CompleteGoal(ctx, testKey, "collect_email"); err != nil {
		t.Fatalf("CompleteGoal() error = %v", err)
	}
	if _, err := m.DeclineGoal(ctx, testKey, "collect_phone"); err != nil {
		t.Fatalf("DeclineGoal() error = %v", err)
	}
	before, _ := m.GetState(ctx, testKey)
	st, err = m.DeclineGoal(ctx, testKey, "collect_phone")
	if err != nil {
		t.Fatalf("DeclineGoal() error = %v", err)
	}
	if st.Version != before.Version || len(st.DeclinedGoals) != 1 {
		t.Fatalf("repeat decline must be a no-op: %+v", st)
	}

	_, added, err = m.ActivateGoal(ctx, testKey, "collect_phone")
	if err != nil || added {
		t.Fatalf("ActivateGoal(declined) = %v, %v", added, err)
	}

	sum, err := m.GetStateSummary(ctx, testKey)
	if err != nil {
		t.Fatalf("GetStateSummary() error = %v", err)
	}
	if len(sum.ActiveGoals) != 0 || len(sum.CompletedGoals) != 1 || len(sum.DeclinedGoals) != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if len(sum.CollectedFields) != 1 || sum.CollectedFields[0] != "email" {
		t.Fatalf("CollectedFields = %v", sum.CollectedFields)
	}

	if err := m.ClearState(ctx, testKey); err != nil {
		t.Fatalf("ClearState() error = %v", err)
	}
	st, err = m.GetState(ctx, testKey)
	if err != nil || st != nil {
		t.Fatalf("GetState() after clear = %+v, %v", st, err)
	}
	sum, err = m.GetStateSummary(ctx, testKey)
	if err != nil || sum != nil {
		t.Fatalf("GetStateSummary() after clear = %+v, %v", sum, err)
	}
}

func TestManagerRejectsInvalidKey(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, NewMemoryStore(), newFakeClock())
	if _, err := m.IncrementMessage(context.Background(), Key{}, nil); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("IncrementMessage() error = %v, want ErrInvalidSession", err)
	}
	if err := m.ClearState(context.Background(), Key{SessionID: "s"}); !errors.Is(err, ErrInvalidUser) {
		t.Fatalf("ClearState() error = %v, want ErrInvalidUser", err)
	}
}

// conflictStore fails the first n saves with ErrStateConflict.
type conflictStore struct {
	*MemoryStore
	mu  sync.Mutex
	n   int
	err error
}

func (s *conflictStore) Save(ctx context.Context, st *ConversationGoalState) error {
	s.mu.Lock()
	if s.n > 0 {
		s.n--
		s.mu.Unlock()
		return s.err
	}
	s.mu.Unlock()
	return s.MemoryStore.Save(ctx, st)
}

func TestManagerRetriesConflicts(t *testing.T) {
	t.Parallel()

	store := &conflictStore{MemoryStore: NewMemoryStore(), n: 2, err: ErrStateConflict}
	m := newTestManager(t, store, newFakeClock())

	st, err := m.IncrementMessage(context.Background(), testKey, nil)
	if err != nil {
		t.Fatalf("IncrementMessage() error = %v", err)
	}
	if st.MessageCount != 1 {
		t.Fatalf("MessageCount = %d, want 1", st.MessageCount)
	}
}

func TestManagerSurfacesPersistentConflict(t *testing.T) {
	t.Parallel()

	store := &conflictStore{MemoryStore: NewMemoryStore(), n: 10, err: ErrStateConflict}
	m := newTestManager(t, store, newFakeClock())

	_, err := m.IncrementMessage(context.Background(), testKey, nil)
	if !errors.Is(err, ErrStateConflict) {
		t.Fatalf("IncrementMessage() error = %v, want ErrStateConflict", err)
	}
	if store.n != 10-defaultSaveRetries {
		t.Fatalf("save attempts = %d, want %d", 10-store.n, defaultSaveRetries)
	}
}

func TestManagerDoesNotRetryOtherErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	store := &conflictStore{MemoryStore: NewMemoryStore(), n: 10, err: boom}
	m := newTestManager(t, store, newFakeClock())

	_, err := m.IncrementMessage(context.Background(), testKey, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("IncrementMessage() error = %v, want boom", err)
	}
	if store.n != 9 {
		t.Fatalf("save attempts = %d, want 1", 10-store.n)
	}
}

func TestManagerConcurrentIncrements(t *testing.T) {
	t.Parallel()

	m, err := NewManager(NewMemoryStore(), WithRetries(1000))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			if _, err := m.IncrementMessage(ctx, testKey, nil); err != nil {
				t.Errorf("IncrementMessage() error = %v", err)
			}
		}()
	}
	wg.Wait()

	st, _ := m.GetState(ctx, testKey)
	if st.MessageCount != workers {
		t.Fatalf("MessageCount = %d, want %d", st.MessageCount, workers)
	}
}
