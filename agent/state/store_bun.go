package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type PostgresConfig struct {
	DSN string `envconfig:"DSN" required:"true"`
}

type goalStateRow struct {
	bun.BaseModel `bun:"table:conversation_goal_states,alias:cgs"`

	StateKey  string     `bun:"state_key,pk"`
	TenantID  string     `bun:"tenant_id,notnull"`
	Version   int64      `bun:"version,notnull"`
	Payload   string     `bun:"payload,type:jsonb,notnull"`
	ExpiresAt *time.Time `bun:"expires_at"`
	UpdatedAt time.Time  `bun:"updated_at,notnull"`
}

// BunStore persists ConversationGoalState in Postgres. The version column
// guards every update.
type BunStore struct {
	db  *bun.DB
	ttl time.Duration
	now func() time.Time
}

type BunOption func(*BunStore)

func WithBunTTL(ttl time.Duration) BunOption {
	return func(s *BunStore) {
		if ttl >= 0 {
			s.ttl = ttl
		}
	}
}

func WithBunClock(now func() time.Time) BunOption {
	return func(s *BunStore) {
		if now != nil {
			s.now = now
		}
	}
}

func OpenPostgres(cfg PostgresConfig) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func NewBunStore(db *bun.DB, opts ...BunOption) (*BunStore, error) {
	if db == nil {
		return nil, errors.New("bun db is required")
	}
	s := &BunStore{
		db:  db,
		ttl: defaultStoreTTL,
		now: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// EnsureSchema creates the state table when it does not exist.
func (s *BunStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*goalStateRow)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create goal state table: %w", err)
	}
	return nil
}

func (s *BunStore) Load(ctx context.Context, key Key) (*ConversationGoalState, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	var row goalStateRow
	err := s.db.NewSelect().
		Model(&row).
		Where("state_key = ?", key.String()).
		Where("expires_at IS NULL OR expires_at > ?", s.now().UTC()).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select goal state: %w", err)
	}
	return decodeState(row.Payload)
}

func (s *BunStore) Save(ctx context.Context, st *ConversationGoalState) error {
	if st == nil {
		return ErrNilState
	}
	if err := st.Key.Validate(); err != nil {
		return err
	}

	expected := st.Version
	payload, err := encodeState(st, expected+1)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	row := goalStateRow{
		StateKey:  st.Key.String(),
		TenantID:  st.Key.TenantID,
		Version:   expected + 1,
		Payload:   payload,
		UpdatedAt: now,
	}
	if s.ttl > 0 {
		exp := now.Add(s.ttl)
		row.ExpiresAt = &exp
	}

	var res sql.Result
	if expected == 0 {
		if _, err := s.db.NewDelete().
			Model((*goalStateRow)(nil)).
			Where("state_key = ?", row.StateKey).
			Where("expires_at IS NOT NULL AND expires_at <= ?", now).
			Exec(ctx); err != nil {
			return fmt.Errorf("drop expired goal state: %w", err)
		}
		res, err = s.db.NewInsert().
			Model(&row).
			On("CONFLICT (state_key) DO NOTHING").
			Exec(ctx)
	} else {
		res, err = s.db.NewUpdate().
			Model(&row).
			Column("version", "payload", "expires_at", "updated_at").
			Where("state_key = ?", row.StateKey).
			Where("version = ?", expected).
			Exec(ctx)
	}
	if err != nil {
		return fmt.Errorf("write goal state: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write goal state: %w", err)
	}
	if n != 1 {
		return ErrStateConflict
	}
	st.Version = expected + 1
	return nil
}

func (s *BunStore) Delete(ctx context.Context, key Key) error {
	if err := key.Validate(); err != nil {
		return err
	}
	_, err := s.db.NewDelete().
		Model((*goalStateRow)(nil)).
		Where("state_key = ?", key.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete goal state: %w", err)
	}
	return nil
}

// Sweep removes expired rows.
func (s *BunStore) Sweep(ctx context.Context) (int, error) {
	res, err := s.db.NewDelete().
		Model((*goalStateRow)(nil)).
		Where("expires_at IS NOT NULL AND expires_at <= ?", s.now().UTC()).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("sweep goal state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
