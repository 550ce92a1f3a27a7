package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/chative/supportdesk/internal/agent/classifier"
	"github.com/chative/supportdesk/internal/agent/graph"
	"github.com/chative/supportdesk/internal/agent/graph/nodes"
	"github.com/chative/supportdesk/internal/agent/knowledge"
	"github.com/chative/supportdesk/internal/agent/model"
	"github.com/chative/supportdesk/internal/agent/policy"
	"github.com/chative/supportdesk/internal/agent/repo"
	logx "github.com/chative/supportdesk/pkg/logger"
)

// App holds the fully wired service.
type App struct {
	Config       *AppConfig
	Policy       *policy.Policy
	Index        *knowledge.Index
	Classifier   model.Classifier
	Sessions     model.SessionStore
	Tickets      repo.TicketStore
	Orchestrator *graph.Orchestrator

	rdb *redis.Client
}

// newApp builds every component in startup order: policy, knowledge index,
// chat models, classifier, ticket sink, session store, orchestrator.
func newApp(ctx context.Context, cfg *AppConfig) (app *App, err error) {
	app = &App{Config: cfg}
	defer func() {
		if err != nil {
			app.Close()
			app = nil
		}
	}()

	if app.Policy, err = policy.Load(cfg.Escalation.PolicyFile); err != nil {
		return nil, fmt.Errorf("escalation policy: %w", err)
	}

	if app.Index, err = buildIndex(ctx, cfg); err != nil {
		return nil, err
	}

	cms, err := nodes.NewChatModels(ctx, nodes.ChatModelConfig{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Generator:  &cfg.Generator,
		Classifier: classifierModelConfig(cfg),
	})
	if err != nil {
		return nil, err
	}

	if app.Classifier, err = buildClassifier(cfg, cms); err != nil {
		return nil, err
	}

	if app.Tickets, err = repo.NewSQLiteTicketStore(cfg.Ticket.DBPath); err != nil {
		return nil, fmt.Errorf("ticket store: %w", err)
	}

	app.Sessions, app.rdb = buildSessions(ctx, cfg)

	app.Orchestrator, err = graph.BuildOrchestrator(ctx, graph.Config{
		Classifier:   app.Classifier,
		Retriever:    knowledge.NewPortRetriever(app.Index, cfg.Retriever.Timeout),
		Generator:    nodes.NewChatModelGenerator(cms.Generator, cms.GeneratorModelName, cfg.Generator.Timeout),
		TicketSink:   app.Tickets,
		History:      app.Sessions,
		Policy:       app.Policy,
		Prompt:       cfg.Prompt,
		TopK:         cfg.Retriever.TopK,
		HistoryLimit: cfg.Session.HistoryLimit,
		Retry:        nodes.RetryPolicyFrom(cfg.Generator),
	})
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}

	logx.Info().
		Str("environment", cfg.Env().String()).
		Str("classifier", cfg.Classifier.Mode).
		Int("documents", app.Index.Len()).
		Bool("redis", app.rdb != nil).
		Msg("Support desk ready")
	return app, nil
}

// Close releases the ticket database and Redis connection.
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Tickets != nil {
		if err := a.Tickets.Close(); err != nil {
			logx.Warn().Err(err).Msg("closing ticket store")
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			logx.Warn().Err(err).Msg("closing redis client")
		}
	}
}

func buildIndex(ctx context.Context, cfg *AppConfig) (*knowledge.Index, error) {
	docs, err := knowledge.LoadDir(ctx, cfg.Knowledge.Dir, knowledge.Splitter{
		Size:    cfg.Knowledge.ChunkSize,
		Overlap: cfg.Knowledge.ChunkOverlap,
	})
	if err != nil {
		return nil, fmt.Errorf("loading knowledge docs: %w", err)
	}
	ix := knowledge.NewIndex(cfg.Retriever.TopK)
	ix.Add(docs...)
	ix.Seal()
	return ix, nil
}

func classifierModelConfig(cfg *AppConfig) *model.ClassifierConfig {
	if strings.EqualFold(cfg.Classifier.Mode, "model") {
		return &cfg.Classifier
	}
	return nil
}

// buildClassifier selects the intent classifier. cms may be nil in
// examples mode.
func buildClassifier(cfg *AppConfig, cms *nodes.ChatModels) (model.Classifier, error) {
	set, err := classifier.LoadIntents(cfg.Classifier.IntentsFile)
	if err != nil {
		return nil, fmt.Errorf("intents: %w", err)
	}
	switch strings.ToLower(cfg.Classifier.Mode) {
	case "", "examples":
		return classifier.NewExampleClassifier(set, 0), nil
	case "model":
		if cms == nil || cms.Classifier == nil {
			return nil, errors.New("classifier mode \"model\" needs a classifier chat model")
		}
		return classifier.NewModelClassifier(cms.Classifier, cms.ClassifierModelName, set), nil
	default:
		return nil, fmt.Errorf("unknown CLASSIFIER_MODE %q", cfg.Classifier.Mode)
	}
}

// buildSessions connects to Redis when configured. A Redis that cannot be
// reached at startup is logged and the store runs in memory.
func buildSessions(ctx context.Context, cfg *AppConfig) (model.SessionStore, *redis.Client) {
	if !cfg.Redis.Enabled() {
		logx.Warn().Msg("REDIS_URL not set, session history is kept in memory")
		return repo.NewFallbackSessionStore(nil, cfg.Session), nil
	}
	rdb, err := cfg.Redis.New(ctx)
	if err != nil {
		logx.Warn().Err(err).Msg("Redis unavailable, session history is kept in memory")
		return repo.NewFallbackSessionStore(nil, cfg.Session), nil
	}
	return repo.NewFallbackSessionStore(repo.NewRedisSessionStore(rdb, cfg.Session), cfg.Session), rdb
}
