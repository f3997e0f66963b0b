// Package dispatch hands triggered business intents to an asynchronous
// executor.
package dispatch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/contract"
	statex "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/state"
	qstashx "github.com/tanpawarit/Chative-Goal-Orchestrator/pkg/qstash"
)

// Publisher is satisfied by *qstash.Client.
type Publisher interface {
	Publish(ctx context.Context, req qstashx.PublishRequest) (*qstashx.PublishResponse, error)
}

type Config struct {
	Destination string `envconfig:"DESTINATION" required:"true"`
	Retries     int    `envconfig:"RETRIES" default:"3"`
}

// IntentMessage is the body delivered to the intent destination.
type IntentMessage struct {
	Intent          string    `json:"intent"`
	SessionID       string    `json:"session_id"`
	UserID          string    `json:"user_id"`
	TenantID        string    `json:"tenant_id"`
	OrchestrationID string    `json:"orchestration_id"`
	TriggeredAt     time.Time `json:"triggered_at"`
}

// QStashDispatcher publishes one QStash message per intent. The dedup id
// depends only on the conversation and intent, so an intent that stays
// triggered across turns is delivered once per QStash dedup window.
type QStashDispatcher struct {
	publisher   Publisher
	destination string
	retries     int
	now         func() time.Time
}

func NewQStashDispatcher(publisher Publisher, cfg Config) (*QStashDispatcher, error) {
	if publisher == nil {
		return nil, errors.New("qstash publisher is required")
	}
	dest := strings.TrimSpace(cfg.Destination)
	if dest == "" {
		return nil, errors.New("intent destination is required")
	}
	return &QStashDispatcher{
		publisher:   publisher,
		destination: dest,
		retries:     cfg.Retries,
		now:         time.Now,
	}, nil
}

var _ contractx.IntentDispatcher = (*QStashDispatcher)(nil)

func (d *QStashDispatcher) Dispatch(ctx context.Context, key statex.Key, orchestrationID string, intents []string) error {
	var errs []error
	for _, intent := range intents {
		body, err := json.Marshal(IntentMessage{
			Intent:          intent,
			SessionID:       key.SessionID,
			UserID:          key.UserID,
			TenantID:        key.TenantID,
			OrchestrationID: orchestrationID,
			TriggeredAt:     d.now().UTC(),
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("encode intent %s: %w", intent, err))
			continue
		}

		retries := d.retries
		if _, err := d.publisher.Publish(ctx, qstashx.PublishRequest{
			Destination:     d.destination,
			Body:            body,
			DeduplicationID: DeduplicationID(key, intent),
			Retries:         &retries,
		}); err != nil {
			errs = append(errs, fmt.Errorf("publish intent %s: %w", intent, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", contractx.ErrDispatchFailed, errors.Join(errs...))
	}
	return nil
}

// DeduplicationID is stable for a conversation and intent.
func DeduplicationID(key statex.Key, intent string) string {
	sum := sha256.Sum256([]byte(key.String() + "|" + intent))
	return "intent-" + hex.EncodeToString(sum[:16])
}
