package state

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrStateNotFound  = errors.New("goal state not found")
	ErrNilState       = errors.New("goal state is nil")
	ErrInvalidSession = errors.New("session id is empty")
	ErrInvalidUser    = errors.New("user id is empty")
	ErrInvalidTenant  = errors.New("tenant id is empty")
	ErrStateConflict  = errors.New("goal state was modified concurrently")
)

const (
	defaultStoreKeyPrefix = "goal:state:"
	defaultStoreTTL       = 24 * time.Hour
)

// Store persists ConversationGoalState.
//
// Save is an optimistic write: it succeeds only if the stored version still
// equals st.Version (zero when nothing is stored yet) and then increments
// st.Version. A lost race returns ErrStateConflict.
type Store interface {
	Load(ctx context.Context, key Key) (*ConversationGoalState, error)
	Save(ctx context.Context, st *ConversationGoalState) error
	Delete(ctx context.Context, key Key) error
}

type memoryEntry struct {
	state     *ConversationGoalState
	expiresAt time.Time
}

// MemoryStore keeps state in process memory. Entries expire ttl after their
// last Save; a zero ttl keeps them forever.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[Key]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

type MemoryOption func(*MemoryStore)

func WithMemoryTTL(ttl time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		if ttl >= 0 {
			s.ttl = ttl
		}
	}
}

func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[Key]memoryEntry),
		ttl:     defaultStoreTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *MemoryStore) Load(_ context.Context, key Key) (*ConversationGoalState, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || s.expired(e) {
		return nil, ErrStateNotFound
	}
	return e.state.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, st *ConversationGoalState) error {
	if st == nil {
		return ErrNilState
	}
	if err := st.Key.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var stored int64
	if e, ok := s.entries[st.Key]; ok && !s.expired(e) {
		stored = e.state.Version
	}
	if stored != st.Version {
		return ErrStateConflict
	}

	st.Version++
	entry := memoryEntry{state: st.Clone()}
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}
	s.entries[st.Key] = entry
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key Key) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Sweep drops expired entries and reports how many were removed.
func (s *MemoryStore) Sweep(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for k, e := range s.entries {
		if s.expired(e) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)
}
