package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/contract"
	extractx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/extract"
	goalx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/goal"
	interestx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/interest"
	nodex "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/nodes/orchestrator"
	promptx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/prompt"
	statex "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/state"
	metricsx "github.com/tanpawarit/Chative-Goal-Orchestrator/pkg/metrics"
)

var (
	ErrValidation    = contractx.ErrValidation
	ErrConfiguration = contractx.ErrConfiguration
	ErrStateConflict = contractx.ErrStateConflict
)

// Request is one inbound user message with its conversation identity.
type Request struct {
	Message   string
	SessionID string
	UserID    string
	TenantID  string
	Config    *goalx.Configuration
	History   []string
}

func (r Request) Key() statex.Key {
	return statex.Key{SessionID: r.SessionID, UserID: r.UserID, TenantID: r.TenantID}
}

type Orchestrator struct {
	manager    *statex.Manager
	extractor  contractx.InfoExtractor
	interest   contractx.InterestAnalyzer
	templates  contractx.MessageRenderer
	dispatcher contractx.IntentDispatcher
	logger     zerolog.Logger

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]
	locks       *keyLock

	now   func() time.Time
	newID func() string
}

type Option func(*Orchestrator)

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

func WithExtractor(e contractx.InfoExtractor) Option {
	return func(o *Orchestrator) {
		if e != nil {
			o.extractor = e
		}
	}
}

func WithInterestDetector(d contractx.InterestAnalyzer) Option {
	return func(o *Orchestrator) {
		if d != nil {
			o.interest = d
		}
	}
}

func WithTemplates(r contractx.MessageRenderer) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.templates = r
		}
	}
}

func WithIntentDispatcher(d contractx.IntentDispatcher) Option {
	return func(o *Orchestrator) {
		o.dispatcher = d
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.newID = fn
		}
	}
}

func New(manager *statex.Manager, opts ...Option) (*Orchestrator, error) {
	if manager == nil {
		return nil, errors.New("state manager is required")
	}

	o := &Orchestrator{
		manager:   manager,
		extractor: extractx.NewExtractor(),
		interest:  interestx.NewDetector(),
		logger:    log.Logger,
		locks:     newKeyLock(),
		now:       manager.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.templates == nil {
		table, err := promptx.Load()
		if err != nil {
			return nil, err
		}
		o.templates = table
	}

	graphRunner, err := o.compileOrchestrateGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// OrchestrateGoals runs one orchestration pass for req. Calls for the same
// conversation are serialized; triggered intents are dispatched after the
// pass and dispatch failures are logged, not returned.
func (o *Orchestrator) OrchestrateGoals(ctx context.Context, req Request) (*contractx.GoalOrchestrationResult, error) {
	key := req.Key()
	start := time.Now()

	unlock := o.locks.Lock(key)
	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		Key:     key,
		Message: req.Message,
		Config:  req.Config,
		History: req.History,
	})
	unlock()

	metricsx.OrchestrationDuration.WithLabelValues(key.TenantID).Observe(time.Since(start).Seconds())
	if err != nil {
		o.recordFailure(key, err)
		return nil, err
	}
	metricsx.OrchestrationsTotal.WithLabelValues(key.TenantID, metricsx.OutcomeOK).Inc()

	result := out.Result
	o.logger.Debug().
		Str("orchestration_id", result.OrchestrationID).
		Str("tenant_id", key.TenantID).
		Str("session_id", key.SessionID).
		Str("interest", string(result.InterestAnalysis.InterestLevel)).
		Str("urgency", string(result.InterestAnalysis.UrgencyLevel)).
		Int("recommendations", len(result.Recommendations)).
		Int("pursued", result.PursuedCount()).
		Strs("completed", result.StateUpdates.NewlyCompleted).
		Strs("declined", result.StateUpdates.Declined).
		Strs("intents", result.TriggeredIntents).
		Msg("goal orchestration")

	if o.dispatcher != nil && len(result.TriggeredIntents) > 0 {
		if err := o.dispatcher.Dispatch(ctx, key, result.OrchestrationID, result.TriggeredIntents); err != nil {
			metricsx.IntentDispatchFailures.WithLabelValues(key.TenantID).Inc()
			o.logger.Error().Err(err).
				Str("orchestration_id", result.OrchestrationID).
				Strs("intents", result.TriggeredIntents).
				Msg("dispatch triggered intents")
		}
	}

	return result, nil
}

// GetGoalState is the debugging read path; nil means no state exists yet.
func (o *Orchestrator) GetGoalState(ctx context.Context, key statex.Key) (*statex.ConversationGoalState, error) {
	return o.manager.GetState(ctx, key)
}

func (o *Orchestrator) ResetGoalState(ctx context.Context, key statex.Key) error {
	unlock := o.locks.Lock(key)
	defer unlock()
	return o.manager.ClearState(ctx, key)
}

func (o *Orchestrator) recordFailure(key statex.Key, err error) {
	outcome := metricsx.OutcomeError
	switch {
	case errors.Is(err, ErrStateConflict):
		outcome = metricsx.OutcomeConflict
		metricsx.StateConflicts.Inc()
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration):
		outcome = metricsx.OutcomeInvalid
	}
	metricsx.OrchestrationsTotal.WithLabelValues(key.TenantID, outcome).Inc()
	o.logger.Warn().Err(err).
		Str("tenant_id", key.TenantID).
		Str("session_id", key.SessionID).
		Str("outcome", outcome).
		Msg("goal orchestration failed")
}
