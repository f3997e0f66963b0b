package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Address  string `envconfig:"ADDRESS" split_words:"true" default:"localhost:6379"`
	Password string `envconfig:"PASSWORD" split_words:"true"`
	DB       int    `envconfig:"DB" split_words:"true" default:"0"`
}

var casRedisScript = redis.NewScript(casScript)

// RedisStore persists ConversationGoalState through a go-redis client using
// the same hash layout and CAS script as UpstashRedisStore.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

type RedisOption func(*RedisStore)

func WithRedisKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.keyPrefix = prefix
		}
	}
}

func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		if ttl >= 0 {
			s.ttl = ttl
		}
	}
}

func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}

func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	s := &RedisStore{
		client:    client,
		keyPrefix: defaultStoreKeyPrefix,
		ttl:       defaultStoreTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

func (s *RedisStore) Load(ctx context.Context, key Key) (*ConversationGoalState, error) {
	redisKey, err := redisKeyFor(s.keyPrefix, key)
	if err != nil {
		return nil, err
	}
	payload, err := s.client.HGet(ctx, redisKey, "payload").Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis hget: %w", err)
	}
	return decodeState(payload)
}

func (s *RedisStore) Save(ctx context.Context, st *ConversationGoalState) error {
	if st == nil {
		return ErrNilState
	}
	redisKey, err := redisKeyFor(s.keyPrefix, st.Key)
	if err != nil {
		return err
	}

	expected := st.Version
	payload, err := encodeState(st, expected+1)
	if err != nil {
		return err
	}

	applied, err := casRedisScript.Run(ctx, s.client, []string{redisKey},
		expected, expected+1, payload, ttlSeconds(s.ttl)).Int64()
	if err != nil {
		return fmt.Errorf("redis cas: %w", err)
	}
	if applied != 1 {
		return ErrStateConflict
	}
	st.Version = expected + 1
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key Key) error {
	redisKey, err := redisKeyFor(s.keyPrefix, key)
	if err != nil {
		return err
	}
	if err := s.client.Del(ctx, redisKey).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
