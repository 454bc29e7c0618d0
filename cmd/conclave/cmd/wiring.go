package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/conclave-ai/conclave/internal/collab"
	"github.com/conclave-ai/conclave/internal/config"
	"github.com/conclave-ai/conclave/internal/coordinator"
	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/events"
	"github.com/conclave-ai/conclave/internal/judges"
	"github.com/conclave-ai/conclave/internal/logging"
	"github.com/conclave-ai/conclave/internal/scoring"
	"github.com/conclave-ai/conclave/internal/session"
	"github.com/conclave-ai/conclave/internal/transport/ws"
)

// pipeline bundles the wired inference stack for one command invocation.
type pipeline struct {
	coordinator *coordinator.Coordinator
	bus         *events.Bus
	store       session.Store
	simAgent    *scoring.Agent
	relAgent    *scoring.Agent
	logger      *logging.Logger
	closers     []func() error
}

// Close releases the event bus and any persistent backends.
func (p *pipeline) Close() {
	p.bus.Close()
	for _, closer := range p.closers {
		if err := closer(); err != nil {
			p.logger.Warn("closing pipeline resource", "error", err)
		}
	}
}

func loadConfig() (*config.Config, error) {
	loader := config.NewLoaderWithViper(viper.GetViper())
	if cfgFile != "" {
		loader.WithConfigFile(cfgFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	if err := config.NewValidator().Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *logging.Logger {
	level := cfg.Log.Level
	if quiet {
		level = "warn"
	}
	return logging.New(logging.Config{
		Level:  level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
}

// buildPipeline wires the full stack from configuration: session store,
// scoring agents (in-process or remote), judges, reviewers, collaborators,
// and the coordinator itself.
func buildPipeline(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*pipeline, error) {
	p := &pipeline{
		bus:    events.New(100),
		logger: logger,
	}

	ttl := config.Duration(cfg.Session.TTL, 0)
	switch cfg.Session.Backend {
	case "sqlite":
		store, err := session.NewSQLiteStore(cfg.Session.Path, ttl)
		if err != nil {
			p.bus.Close()
			return nil, fmt.Errorf("opening session store: %w", err)
		}
		p.store = store
		p.closers = append(p.closers, store.Close)
	default:
		p.store = session.NewMemoryStore(ttl)
	}

	simRole := scoring.SimilarityRole
	if w := cfg.Scoring.Similarity; w.Similarity+w.Relation > 0 {
		simRole.Weights = scoring.RoleWeights{Similarity: w.Similarity, Relation: w.Relation}
	}
	relRole := scoring.RelationRole
	if w := cfg.Scoring.Relation; w.Similarity+w.Relation > 0 {
		relRole.Weights = scoring.RoleWeights{Similarity: w.Similarity, Relation: w.Relation}
	}
	p.simAgent = scoring.New(simRole)
	p.relAgent = scoring.New(relRole)

	deps := coordinator.Deps{
		Similarity: resolveAgent(p.simAgent, cfg.Agents.Similarity, p.store, logger),
		Relation:   resolveAgent(p.relAgent, cfg.Agents.Relation, p.store, logger),
		Bus:        p.bus,
		Logger:     logger,
	}

	// Generative collaborator backs both goal prediction and answer
	// generation. Without an API key the goal judge falls back to its rule
	// table and the answer degrades to empty.
	var gen judges.Generator
	if cfg.GenAI.APIKey != "" {
		g, err := collab.NewGenAIGenerator(ctx, cfg.GenAI.APIKey, cfg.GenAI.Model)
		if err != nil {
			logger.Warn("genai collaborator unavailable", "error", err)
		} else {
			gen = g
			deps.Answers = collab.NewAnswerGenerator(g)
		}
	}

	goalJudge := judges.NewGoalJudge(gen, logger)
	if cfg.Judges.GoalRulesPath != "" {
		if err := goalJudge.LoadRules(cfg.Judges.GoalRulesPath); err != nil {
			logger.Warn("loading goal rules", "error", err)
		}
	}
	deps.Goals = goalJudge
	deps.Contradictions = judges.NewContradictionJudge(logger)
	deps.Critic = judges.NewCriticJudge(logger)
	deps.Debater = judges.NewDebater(cfg.Judges.DebaterDelta, logger)

	var checker judges.EntailmentChecker
	if cfg.Judges.EntailmentURL != "" {
		checker = collab.NewEntailmentClient(cfg.Judges.EntailmentURL, config.Duration(cfg.Coordinator.ReviewTimeout, 0))
	}
	deps.Verifier = judges.NewVerifier(checker, cfg.Judges.EntailmentThreshold, logger)

	deps.Extractor = collab.NewExtractionClient(cfg.Extraction.URL, config.Duration(cfg.Extraction.Timeout, 0))

	if cfg.Coordinator.TraceEnabled {
		tracer, err := coordinator.NewTracer(cfg.Coordinator.TraceDir)
		if err != nil {
			logger.Warn("trace dir unavailable, tracing disabled", "error", err)
		} else {
			deps.Tracer = tracer
		}
	}

	opts := coordinator.DefaultOptions()
	opts.JudgeTimeout = config.Duration(cfg.Coordinator.JudgeTimeout, opts.JudgeTimeout)
	opts.ReviewTimeout = config.Duration(cfg.Coordinator.ReviewTimeout, opts.ReviewTimeout)
	opts.AnswerTimeout = config.Duration(cfg.Coordinator.AnswerTimeout, opts.AnswerTimeout)
	if cfg.Coordinator.TopN > 0 {
		opts.TopN = cfg.Coordinator.TopN
	}

	coord, err := coordinator.New(deps, opts)
	if err != nil {
		p.Close()
		return nil, err
	}
	p.coordinator = coord
	return p, nil
}

// resolveAgent picks the transport for one scoring role: a WebSocket client
// when a URL is configured, the in-process agent otherwise.
func resolveAgent(agent *scoring.Agent, remote config.RemoteAgentConfig, store session.Store, logger *logging.Logger) core.ScoringAgent {
	if remote.URL != "" {
		return ws.NewClient(agent.Name(), remote.URL, config.Duration(remote.Timeout, 0), logger)
	}
	return scoring.NewLocalAgent(agent, store, logger)
}
