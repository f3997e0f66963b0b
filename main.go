package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	orchestratorx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/agents/orchestrator"
	dispatchx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/dispatch"
	goalx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/goal"
	statex "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/state"
	configx "github.com/tanpawarit/Chative-Goal-Orchestrator/pkg/config"
	_ "github.com/tanpawarit/Chative-Goal-Orchestrator/pkg/logger/autoload"
	qstashx "github.com/tanpawarit/Chative-Goal-Orchestrator/pkg/qstash"
)

type AppConfig struct {
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	StateBackend    string        `envconfig:"STATE_BACKEND" default:"memory"`
	StateTTL        time.Duration `envconfig:"STATE_TTL" default:"24h"`
	GoalConfigPath  string        `envconfig:"GOAL_CONFIG_PATH" default:"configs/goals.example.yaml"`
	JanitorSchedule string        `envconfig:"JANITOR_SCHEDULE" default:"@every 5m"`
	IntentsEnabled  bool          `envconfig:"INTENTS_ENABLED" default:"false"`
}

func main() {
	appCfg := configx.MustNew[AppConfig]("")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	goals := goalx.MustLoadFile(appCfg.GoalConfigPath)

	store, sweeper, closeStore := mustOpenStore(ctx, appCfg)
	defer closeStore()

	manager, err := statex.NewManager(store)
	if err != nil {
		log.Fatal().Err(err).Msg("init goal state manager")
	}

	if sweeper != nil {
		janitor, err := statex.NewJanitor(appCfg.JanitorSchedule, sweeper)
		if err != nil {
			log.Fatal().Err(err).Msg("init state janitor")
		}
		janitor.Start()
		defer janitor.Stop()
	}

	opts := []orchestratorx.Option{}
	var verifier signatureVerifier
	if appCfg.IntentsEnabled {
		qstashCfg := configx.MustNew[qstashx.Config]("QSTASH")
		qstashClient := qstashx.MustNew(*qstashCfg)
		verifier = qstashClient

		dispatchCfg := configx.MustNew[dispatchx.Config]("INTENT")
		dispatcher, err := dispatchx.NewQStashDispatcher(qstashClient, *dispatchCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("init intent dispatcher")
		}
		opts = append(opts, orchestratorx.WithIntentDispatcher(dispatcher))
	}

	orchestrator, err := orchestratorx.New(manager, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("init goal orchestrator")
	}

	srv := &http.Server{
		Addr:              appCfg.HTTPAddr,
		Handler:           newServer(orchestrator, manager, goals, verifier).routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().
		Str("addr", appCfg.HTTPAddr).
		Str("state_backend", appCfg.StateBackend).
		Int("goals", len(goals.Goals)).
		Bool("intents", appCfg.IntentsEnabled).
		Msg("goal orchestrator listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server")
	}
}

// mustOpenStore builds the configured state backend. The sweeper is nil for
// backends that expire keys natively.
func mustOpenStore(ctx context.Context, appCfg *AppConfig) (statex.Store, statex.Sweeper, func()) {
	switch strings.ToLower(strings.TrimSpace(appCfg.StateBackend)) {
	case "memory", "":
		store := statex.NewMemoryStore(statex.WithMemoryTTL(appCfg.StateTTL))
		return store, store, func() {}

	case "redis":
		redisCfg := configx.MustNew[statex.RedisConfig]("REDIS")
		client := statex.NewRedisClient(*redisCfg)
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Str("address", redisCfg.Address).Msg("connect redis")
		}
		store, err := statex.NewRedisStore(client, statex.WithRedisTTL(appCfg.StateTTL))
		if err != nil {
			log.Fatal().Err(err).Msg("init redis state store")
		}
		return store, nil, func() { _ = client.Close() }

	case "upstash":
		upstashCfg := configx.MustNew[statex.UpstashRedisConfig]("UPSTASH_REDIS")
		store, err := statex.NewUpstashRedisStore(*upstashCfg, statex.WithTTL(appCfg.StateTTL))
		if err != nil {
			log.Fatal().Err(err).Msg("init upstash state store")
		}
		return store, nil, func() {}

	case "postgres":
		pgCfg := configx.MustNew[statex.PostgresConfig]("POSTGRES")
		db := statex.OpenPostgres(*pgCfg)
		store, err := statex.NewBunStore(db, statex.WithBunTTL(appCfg.StateTTL))
		if err != nil {
			log.Fatal().Err(err).Msg("init postgres state store")
		}
		if err := store.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("ensure goal state schema")
		}
		return store, store, func() { _ = db.Close() }

	default:
		log.Fatal().Str("state_backend", appCfg.StateBackend).Msg("unknown state backend")
		return nil, nil, nil
	}
}
