// Package coordinator drives the round-based multi-agent scoring protocol:
// fan-out to the two reasoning agents, the peer-feedback exchange, fan-in
// merge-and-rank, and the best-effort critique pass.
package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/events"
	"github.com/conclave-ai/conclave/internal/logging"
)

// Options bounds the coordinator's downstream calls.
type Options struct {
	// JudgeTimeout bounds each auxiliary judge call (goal, contradiction,
	// critic).
	JudgeTimeout time.Duration
	// ReviewTimeout bounds the advisory debater/verifier calls.
	ReviewTimeout time.Duration
	// AnswerTimeout bounds the answer-generation collaborator.
	AnswerTimeout time.Duration
	// TopN is the size of the externally visible result set.
	TopN int
}

// DefaultOptions returns the canonical bounds.
func DefaultOptions() Options {
	return Options{
		JudgeTimeout:  10 * time.Second,
		ReviewTimeout: 10 * time.Second,
		AnswerTimeout: 15 * time.Second,
		TopN:          3,
	}
}

// Deps wires the coordinator's collaborators. Similarity and Relation are
// required; every other collaborator is optional and degrades to an empty
// contribution when nil or failing.
type Deps struct {
	Similarity     core.ScoringAgent
	Relation       core.ScoringAgent
	Goals          core.GoalPredictor
	Contradictions core.ContradictionChecker
	Critic         core.Critic
	Debater        core.Reviewer
	Verifier       core.Reviewer
	Answers        core.AnswerGenerator
	Extractor      core.Extractor
	Bus            *events.Bus
	Tracer         *Tracer
	Logger         *logging.Logger
}

// Coordinator orchestrates one inference pipeline per request. It is safe for
// concurrent use; per-request state lives on the stack and in the scoring
// agents' session stores.
type Coordinator struct {
	deps Deps
	opts Options
	log  *logging.Logger
}

// New creates a coordinator.
func New(deps Deps, opts Options) (*Coordinator, error) {
	if deps.Similarity == nil || deps.Relation == nil {
		return nil, core.ErrValidation("MISSING_AGENT", "both scoring agents are required")
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	if opts.TopN <= 0 {
		opts.TopN = DefaultOptions().TopN
	}
	return &Coordinator{
		deps: deps,
		opts: opts,
		log:  deps.Logger,
	}, nil
}

// InferText runs the full pipeline from raw input text through the
// extraction collaborator. Extraction failure is fatal: no partial request
// proceeds.
func (c *Coordinator) InferText(ctx context.Context, text string) (*core.InferenceResult, error) {
	if c.deps.Extractor == nil {
		return nil, core.ErrExtraction("no extraction collaborator configured")
	}
	extraction, err := c.deps.Extractor.Extract(ctx, text)
	if err != nil {
		return nil, core.ErrExtraction("extraction collaborator failed").WithCause(err)
	}
	return c.Infer(ctx, extraction)
}

// Infer runs the two-round scoring protocol and the merge pipeline for one
// extraction result.
func (c *Coordinator) Infer(ctx context.Context, extraction *core.ExtractionResult) (*core.InferenceResult, error) {
	requestID := uuid.NewString()
	log := c.log.WithRequest(requestID)
	c.publish(events.NewPipelineStarted(requestID, len(extraction.Concepts)))

	sim, rel, err := c.runRounds(ctx, requestID, extraction)
	if err != nil {
		log.Error("scoring protocol failed", "error", err)
		c.publishPriority(events.NewPipelineFailed(requestID, err.Error()))
		return nil, err
	}

	result := c.coordinate(ctx, requestID, sim, rel, extraction.Relations)
	c.publishPriority(events.NewPipelineCompleted(requestID, result.GeneratedAnswer))
	return result, nil
}

// Coordinate merges pre-scored round-2 outputs, matching the external
// contract used by push-based clients that run their own scoring agents.
func (c *Coordinator) Coordinate(ctx context.Context, sim, rel []core.ScoreRecord, relations map[string][]core.Relation) (*core.InferenceResult, error) {
	requestID := uuid.NewString()
	result := c.coordinate(ctx, requestID, sim, rel, relations)
	c.publishPriority(events.NewPipelineCompleted(requestID, result.GeneratedAnswer))
	return result, nil
}

// runRounds executes the two-round protocol. Round 2 is causally dependent
// on round 1 completing for BOTH agents: each side's peer input is the
// other's round-1 output, so the errgroup wait is a synchronization barrier.
// A failure of either agent in either round is fatal to the request.
func (c *Coordinator) runRounds(ctx context.Context, requestID string, extraction *core.ExtractionResult) (sim, rel []core.ScoreRecord, err error) {
	log := c.log.WithRequest(requestID)

	simSession, err := c.deps.Similarity.Open(ctx)
	if err != nil {
		return nil, nil, core.ErrRequiredAgent(c.deps.Similarity.Name(), "opening session failed").WithCause(err)
	}
	defer simSession.Close()

	relSession, err := c.deps.Relation.Open(ctx)
	if err != nil {
		return nil, nil, core.ErrRequiredAgent(c.deps.Relation.Name(), "opening session failed").WithCause(err)
	}
	defer relSession.Close()

	var simR1, relR1 []core.ScoreRecord
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		records, err := simSession.Round1(gctx, extraction)
		if err != nil {
			return core.ErrRequiredAgent(c.deps.Similarity.Name(), "round 1 failed").WithCause(err)
		}
		simR1 = records
		c.publish(events.NewRoundCompleted(requestID, c.deps.Similarity.Name(), core.StepRound1, len(records)))
		return nil
	})
	g.Go(func() error {
		records, err := relSession.Round1(gctx, extraction)
		if err != nil {
			return core.ErrRequiredAgent(c.deps.Relation.Name(), "round 1 failed").WithCause(err)
		}
		relR1 = records
		c.publish(events.NewRoundCompleted(requestID, c.deps.Relation.Name(), core.StepRound1, len(records)))
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	log.Debug("round 1 complete, relaying peer feedback")

	// Each agent revises against the other's round-1 opinion.
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		records, err := simSession.Round2(gctx, relR1)
		if err != nil {
			return core.ErrRequiredAgent(c.deps.Similarity.Name(), "round 2 failed").WithCause(err)
		}
		sim = records
		c.publish(events.NewRoundCompleted(requestID, c.deps.Similarity.Name(), core.StepRound2, len(records)))
		return nil
	})
	g.Go(func() error {
		records, err := relSession.Round2(gctx, simR1)
		if err != nil {
			return core.ErrRequiredAgent(c.deps.Relation.Name(), "round 2 failed").WithCause(err)
		}
		rel = records
		c.publish(events.NewRoundCompleted(requestID, c.deps.Relation.Name(), core.StepRound2, len(records)))
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return sim, rel, nil
}

// coordinate performs fan-in: judge fan-out, merge-and-rank, the critic
// penalty pass, advisory review, and best-effort answer generation. Auxiliary
// failures degrade to empty contributions; they never abort the request.
func (c *Coordinator) coordinate(ctx context.Context, requestID string, sim, rel []core.ScoreRecord, relations map[string][]core.Relation) *core.InferenceResult {
	log := c.log.WithRequest(requestID)
	concepts := unionConcepts(sim, rel)

	// Goal prediction and contradiction detection are mutually independent.
	var (
		wg             sync.WaitGroup
		goalOutcome    Outcome[map[string]core.GoalPrediction]
		contraOutcome  Outcome[[]core.ContradictionPair]
		goalData       map[string]core.GoalPrediction
		contradictions []core.ContradictionPair
	)
	if c.deps.Goals != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			goalOutcome = Call(ctx, c.opts.JudgeTimeout, func(cctx context.Context) (map[string]core.GoalPrediction, error) {
				return c.deps.Goals.Predict(cctx, concepts)
			})
		}()
	}
	if c.deps.Contradictions != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			contraOutcome = Call(ctx, c.opts.JudgeTimeout, func(cctx context.Context) ([]core.ContradictionPair, error) {
				return c.deps.Contradictions.Check(cctx, concepts, relations)
			})
		}()
	}
	wg.Wait()

	if goalOutcome.OK() {
		goalData = goalOutcome.Value
	} else if c.deps.Goals != nil {
		log.Warn("goal predictor degraded", "reason", goalOutcome.Reason())
		c.publish(events.NewJudgeDegraded(requestID, "goal", goalOutcome.Reason()))
	}
	if contraOutcome.OK() {
		contradictions = contraOutcome.Value
	} else if c.deps.Contradictions != nil {
		log.Warn("contradiction checker degraded", "reason", contraOutcome.Reason())
		c.publish(events.NewJudgeDegraded(requestID, "contradiction", contraOutcome.Reason()))
	}

	ranking := buildRanking(concepts, collectVotes(sim, rel), goalData, contradictions)
	top := ""
	if len(ranking) > 0 {
		top = ranking[0].Concept
	}
	c.publish(events.NewRankingProduced(requestID, len(ranking), top))

	// Critic penalties are the only judge output allowed to move scores. On
	// critic failure the ranking stands as computed.
	if c.deps.Critic != nil {
		criticOutcome := Call(ctx, c.opts.JudgeTimeout, func(cctx context.Context) ([]core.CriticFinding, error) {
			return c.deps.Critic.Critique(cctx, ranking)
		})
		if criticOutcome.OK() {
			applyPenalties(ranking, criticOutcome.Value)
		} else {
			log.Warn("critic degraded, ranking stands", "reason", criticOutcome.Reason())
			c.publish(events.NewJudgeDegraded(requestID, "critic", criticOutcome.Reason()))
		}
	}

	// Advisory reviewers annotate but never alter scores.
	debaterFeedback, verifierFeedback := c.review(ctx, requestID, ranking)

	if len(ranking) > c.opts.TopN {
		ranking = ranking[:c.opts.TopN]
	}

	answer := ""
	if c.deps.Answers != nil && len(ranking) > 0 {
		topConcepts := make([]string, len(ranking))
		for i, entry := range ranking {
			topConcepts[i] = entry.Concept
		}
		answerOutcome := Call(ctx, c.opts.AnswerTimeout, func(cctx context.Context) (string, error) {
			return c.deps.Answers.Generate(cctx, topConcepts)
		})
		if answerOutcome.OK() {
			answer = answerOutcome.Value
		} else {
			log.Warn("answer generation degraded", "reason", answerOutcome.Reason())
			c.publish(events.NewJudgeDegraded(requestID, "answer", answerOutcome.Reason()))
		}
	}

	result := &core.InferenceResult{
		RequestID:        requestID,
		FinalInference:   ranking,
		DebaterFeedback:  debaterFeedback,
		VerifierFeedback: verifierFeedback,
		GeneratedAnswer:  answer,
	}
	if c.deps.Tracer != nil {
		if err := c.deps.Tracer.Write(requestID, result); err != nil {
			log.Warn("trace write failed", "error", err)
		}
	}
	return result
}

// review fans out to the debater and verifier concurrently. Their outputs
// are attached to the payload; failures produce empty feedback lists.
func (c *Coordinator) review(ctx context.Context, requestID string, ranking []core.FinalRankingEntry) (debater, verifier []core.Challenge) {
	debater = []core.Challenge{}
	verifier = []core.Challenge{}

	var wg sync.WaitGroup
	run := func(reviewer core.Reviewer, sink *[]core.Challenge) {
		defer wg.Done()
		outcome := Call(ctx, c.opts.ReviewTimeout, func(cctx context.Context) ([]core.Challenge, error) {
			return reviewer.Review(cctx, ranking)
		})
		if outcome.OK() && outcome.Value != nil {
			*sink = outcome.Value
		} else if !outcome.OK() {
			c.log.WithRequest(requestID).Warn("reviewer degraded", "reviewer", reviewer.Name(), "reason", outcome.Reason())
			c.publish(events.NewJudgeDegraded(requestID, reviewer.Name(), outcome.Reason()))
		}
	}
	if c.deps.Debater != nil {
		wg.Add(1)
		go run(c.deps.Debater, &debater)
	}
	if c.deps.Verifier != nil {
		wg.Add(1)
		go run(c.deps.Verifier, &verifier)
	}
	wg.Wait()
	return debater, verifier
}

func (c *Coordinator) publish(event events.Event) {
	if c.deps.Bus != nil {
		c.deps.Bus.Publish(event)
	}
}

func (c *Coordinator) publishPriority(event events.Event) {
	if c.deps.Bus != nil {
		c.deps.Bus.PublishPriority(event)
	}
}
