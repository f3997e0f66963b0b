package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const maxResponseSizeBytes = 2 << 20

// casScript writes the payload only when the stored version equals ARGV[1].
// KEYS[1]=hash key; ARGV = expected version, next version, payload, ttl seconds.
const casScript = `
local cur = redis.call('HGET', KEYS[1], 'version')
if cur == false then
  if ARGV[1] ~= '0' then return 0 end
elseif cur ~= ARGV[1] then
  return 0
end
redis.call('HSET', KEYS[1], 'version', ARGV[2], 'payload', ARGV[3])
if tonumber(ARGV[4]) > 0 then
  redis.call('EXPIRE', KEYS[1], ARGV[4])
end
return 1
`

// StoreOption customizes UpstashRedisStore.
type StoreOption func(*UpstashRedisStore)

func WithKeyPrefix(prefix string) StoreOption {
	return func(s *UpstashRedisStore) {
		trimmed := strings.TrimSpace(prefix)
		if trimmed != "" {
			s.keyPrefix = trimmed
		}
	}
}

func WithTTL(ttl time.Duration) StoreOption {
	return func(s *UpstashRedisStore) {
		s.ttl = ttl
	}
}

func WithHTTPClient(client *http.Client) StoreOption {
	return func(s *UpstashRedisStore) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// UpstashRedisStore persists ConversationGoalState in Upstash Redis via REST.
// Each conversation is a hash with version and payload fields.
type UpstashRedisStore struct {
	baseURL    string
	token      string
	httpClient *http.Client
	keyPrefix  string
	ttl        time.Duration
}

type redisRESTResponse struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

type UpstashRedisConfig struct {
	URL     string        `envconfig:"URL" split_words:"true" required:"true"`
	Token   string        `envconfig:"TOKEN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

func NewUpstashRedisStore(cfg UpstashRedisConfig, opts ...StoreOption) (*UpstashRedisStore, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("upstash redis url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid redis rest url: %w", err)
	}

	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("upstash redis token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	store := &UpstashRedisStore{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		keyPrefix: defaultStoreKeyPrefix,
		ttl:       defaultStoreTTL,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}

	if store.ttl < 0 {
		return nil, errors.New("ttl must be >= 0")
	}

	return store, nil
}

func (s *UpstashRedisStore) Load(ctx context.Context, key Key) (*ConversationGoalState, error) {
	redisKey, err := s.redisKey(key)
	if err != nil {
		return nil, err
	}

	resp, err := s.exec(ctx, []any{"HGET", redisKey, "payload"})
	if err != nil {
		return nil, err
	}

	result := bytes.TrimSpace(resp.Result)
	if len(result) == 0 || bytes.Equal(result, []byte("null")) {
		return nil, ErrStateNotFound
	}

	var encoded string
	if err := json.Unmarshal(result, &encoded); err != nil {
		return nil, fmt.Errorf("decode goal state payload: %w", err)
	}

	return decodeState(encoded)
}

func (s *UpstashRedisStore) Save(ctx context.Context, st *ConversationGoalState) error {
	if st == nil {
		return ErrNilState
	}
	redisKey, err := s.redisKey(st.Key)
	if err != nil {
		return err
	}

	expected := st.Version
	payload, err := encodeState(st, expected+1)
	if err != nil {
		return err
	}

	resp, err := s.exec(ctx, []any{
		"EVAL", casScript, 1, redisKey,
		strconv.FormatInt(expected, 10),
		strconv.FormatInt(expected+1, 10),
		payload,
		strconv.FormatInt(ttlSeconds(s.ttl), 10),
	})
	if err != nil {
		return err
	}

	var applied int64
	if err := json.Unmarshal(bytes.TrimSpace(resp.Result), &applied); err != nil {
		return fmt.Errorf("decode cas result: %w", err)
	}
	if applied != 1 {
		return ErrStateConflict
	}
	st.Version = expected + 1
	return nil
}

func (s *UpstashRedisStore) Delete(ctx context.Context, key Key) error {
	redisKey, err := s.redisKey(key)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, []any{"DEL", redisKey})
	return err
}

func (s *UpstashRedisStore) redisKey(key Key) (string, error) {
	return redisKeyFor(s.keyPrefix, key)
}

func (s *UpstashRedisStore) exec(ctx context.Context, command []any) (*redisRESTResponse, error) {
	if s == nil {
		return nil, errors.New("nil store")
	}
	if len(command) == 0 {
		return nil, errors.New("empty redis command")
	}

	body, err := json.Marshal(command)
	if err != nil {
		return nil, fmt.Errorf("marshal redis command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build redis request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute redis request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read redis response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("redis http status=%d body=%s", resp.StatusCode, string(raw))
	}

	var parsed redisRESTResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode redis response: %w", err)
	}
	if parsed.Error != "" {
		return nil, errors.New(parsed.Error)
	}
	return &parsed, nil
}

func redisKeyFor(prefix string, key Key) (string, error) {
	if err := key.Validate(); err != nil {
		return "", err
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultStoreKeyPrefix
	}
	return prefix + key.String(), nil
}

// encodeState marshals st as it will look once stored at version.
func encodeState(st *ConversationGoalState, version int64) (string, error) {
	cp := *st
	cp.Version = version
	payload, err := json.Marshal(&cp)
	if err != nil {
		return "", fmt.Errorf("marshal goal state: %w", err)
	}
	return string(payload), nil
}

func decodeState(encoded string) (*ConversationGoalState, error) {
	var st ConversationGoalState
	if err := json.Unmarshal([]byte(encoded), &st); err != nil {
		return nil, fmt.Errorf("unmarshal goal state: %w", err)
	}
	st.EnsureMaps()
	if err := st.Validate(); err != nil {
		return nil, fmt.Errorf("invalid goal state loaded from store: %w", err)
	}
	return &st, nil
}

// ttlSeconds rounds up to whole seconds; zero means no expiry.
func ttlSeconds(ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	seconds := ttl / time.Second
	if ttl%time.Second != 0 {
		seconds++
	}
	return int64(seconds)
}
