package state

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Sweeper is a store that can drop its own expired entries.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// Janitor runs Sweep on a cron schedule for stores without native key expiry.
type Janitor struct {
	cron    *cron.Cron
	sweeper Sweeper
	timeout time.Duration
	logger  zerolog.Logger
}

type JanitorOption func(*Janitor)

func WithJanitorLogger(logger zerolog.Logger) JanitorOption {
	return func(j *Janitor) {
		j.logger = logger
	}
}

func WithJanitorTimeout(timeout time.Duration) JanitorOption {
	return func(j *Janitor) {
		if timeout > 0 {
			j.timeout = timeout
		}
	}
}

// NewJanitor schedules sweeper with a cron spec such as "@every 5m" or
// "*/10 * * * *". Call Start to begin.
func NewJanitor(spec string, sweeper Sweeper, opts ...JanitorOption) (*Janitor, error) {
	if sweeper == nil {
		return nil, fmt.Errorf("janitor: sweeper is required")
	}

	j := &Janitor{
		sweeper: sweeper,
		timeout: 30 * time.Second,
		logger:  log.Logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(j)
		}
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	j.cron = cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger)))
	if _, err := j.cron.AddFunc(spec, j.RunOnce); err != nil {
		return nil, fmt.Errorf("janitor: invalid schedule %q: %w", spec, err)
	}
	return j, nil
}

// RunOnce performs a single sweep.
func (j *Janitor) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	removed, err := j.sweeper.Sweep(ctx)
	if err != nil {
		j.logger.Error().Err(err).Msg("goal state sweep failed")
		return
	}
	if removed > 0 {
		j.logger.Debug().Int("removed", removed).Msg("goal state sweep")
	}
}

func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop halts scheduling and waits for a running sweep to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}
