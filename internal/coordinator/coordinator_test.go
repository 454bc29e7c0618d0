package coordinator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/events"
)

// stubAgent replays canned round outputs and records the peer input it saw.
type stubAgent struct {
	name      string
	round1    []core.ScoreRecord
	round2    []core.ScoreRecord
	openErr   error
	round1Err error
	round2Err error
	gotPeer   []core.ScoreRecord
	closed    bool
}

func (a *stubAgent) Name() string { return a.name }

func (a *stubAgent) Open(context.Context) (core.ScoringSession, error) {
	if a.openErr != nil {
		return nil, a.openErr
	}
	return &stubSession{agent: a}, nil
}

type stubSession struct {
	agent *stubAgent
}

func (s *stubSession) Round1(context.Context, *core.ExtractionResult) ([]core.ScoreRecord, error) {
	if s.agent.round1Err != nil {
		return nil, s.agent.round1Err
	}
	return s.agent.round1, nil
}

func (s *stubSession) Round2(_ context.Context, peer []core.ScoreRecord) ([]core.ScoreRecord, error) {
	if s.agent.round2Err != nil {
		return nil, s.agent.round2Err
	}
	s.agent.gotPeer = peer
	return s.agent.round2, nil
}

func (s *stubSession) Close() error {
	s.agent.closed = true
	return nil
}

func newStubAgents() (*stubAgent, *stubAgent) {
	sim := &stubAgent{
		name: "SimilarityAgent",
		round1: []core.ScoreRecord{
			{Agent: "SimilarityAgent", Concept: "hungry", Score: 0.9, InferredGoals: []string{"to eat food"}},
			{Agent: "SimilarityAgent", Concept: "eat", Score: 0.4},
		},
		round2: []core.ScoreRecord{
			{Agent: "SimilarityAgent", Concept: "hungry", Score: 0.9, ConfidenceDelta: 0, Reason: "hungry remained stable after peer review (0.9000 -> 0.9000)."},
			{Agent: "SimilarityAgent", Concept: "eat", Score: 0.4, ConfidenceDelta: 0, Reason: "eat remained stable after peer review (0.4000 -> 0.4000)."},
		},
	}
	rel := &stubAgent{
		name: "RelationAgent",
		round1: []core.ScoreRecord{
			{Agent: "RelationAgent", Concept: "hungry", Score: 0.2},
			{Agent: "RelationAgent", Concept: "eat", Score: 0.8},
		},
		round2: []core.ScoreRecord{
			{Agent: "RelationAgent", Concept: "hungry", Score: 0.2, ConfidenceDelta: 0, Reason: "hungry remained stable after peer review (0.2000 -> 0.2000)."},
			{Agent: "RelationAgent", Concept: "eat", Score: 0.8, ConfidenceDelta: 0, Reason: "eat remained stable after peer review (0.8000 -> 0.8000)."},
		},
	}
	return sim, rel
}

type stubGoals struct {
	predictions map[string]core.GoalPrediction
	err         error
}

func (s stubGoals) Predict(context.Context, []string) (map[string]core.GoalPrediction, error) {
	return s.predictions, s.err
}

type stubContradictions struct {
	pairs []core.ContradictionPair
	err   error
}

func (s stubContradictions) Check(context.Context, []string, map[string][]core.Relation) ([]core.ContradictionPair, error) {
	return s.pairs, s.err
}

type stubCritic struct {
	findings []core.CriticFinding
	err      error
}

func (s stubCritic) Critique(context.Context, []core.FinalRankingEntry) ([]core.CriticFinding, error) {
	return s.findings, s.err
}

type stubReviewer struct {
	name       string
	challenges []core.Challenge
	err        error
}

func (s stubReviewer) Name() string { return s.name }

func (s stubReviewer) Review(context.Context, []core.FinalRankingEntry) ([]core.Challenge, error) {
	return s.challenges, s.err
}

type stubAnswers struct {
	answer string
	err    error
	got    []string
}

func (s *stubAnswers) Generate(_ context.Context, concepts []string) (string, error) {
	s.got = concepts
	return s.answer, s.err
}

type stubExtractor struct {
	result *core.ExtractionResult
	err    error
}

func (s stubExtractor) Extract(context.Context, string) (*core.ExtractionResult, error) {
	return s.result, s.err
}

func TestNewRequiresBothAgents(t *testing.T) {
	_, err := New(Deps{Similarity: &stubAgent{name: "SimilarityAgent"}}, DefaultOptions())
	require.Error(t, err)
	assert.Equal(t, core.ErrCatValidation, core.CategoryOf(err))
}

func TestInferRunsProtocolAndMerges(t *testing.T) {
	sim, rel := newStubAgents()
	answers := &stubAnswers{answer: "They should eat."}

	coord, err := New(Deps{
		Similarity: sim,
		Relation:   rel,
		Goals: stubGoals{predictions: map[string]core.GoalPrediction{
			"hungry": {Goal: "to eat food", Source: core.GoalSourceLLM},
		}},
		Contradictions: stubContradictions{},
		Answers:        answers,
	}, DefaultOptions())
	require.NoError(t, err)

	result, err := coord.Infer(context.Background(), &core.ExtractionResult{Concepts: []string{"hungry", "eat"}})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.NotEmpty(t, result.RequestID)

	// Each agent revised against the other's round-1 output.
	assert.Equal(t, rel.round1, sim.gotPeer)
	assert.Equal(t, sim.round1, rel.gotPeer)
	assert.True(t, sim.closed)
	assert.True(t, rel.closed)

	require.Len(t, result.FinalInference, 2)
	// hungry: 0.6*0.55 + 0.1 = 0.43; eat: 0.6*0.6 = 0.36
	assert.Equal(t, "hungry", result.FinalInference[0].Concept)
	assert.InDelta(t, 0.43, result.FinalInference[0].CompositeScore, 1e-9)
	assert.Equal(t, "eat", result.FinalInference[1].Concept)
	assert.InDelta(t, 0.36, result.FinalInference[1].CompositeScore, 1e-9)

	assert.Equal(t, "They should eat.", result.GeneratedAnswer)
	assert.Equal(t, []string{"hungry", "eat"}, answers.got)
	assert.NotNil(t, result.DebaterFeedback)
	assert.NotNil(t, result.VerifierFeedback)
}

func TestInferAgentFailureIsFatal(t *testing.T) {
	sim, rel := newStubAgents()
	rel.round1Err = errors.New("agent offline")

	bus := events.New(10)
	defer bus.Close()
	priority := bus.SubscribePriority()

	coord, err := New(Deps{Similarity: sim, Relation: rel, Bus: bus}, DefaultOptions())
	require.NoError(t, err)

	_, err = coord.Infer(context.Background(), &core.ExtractionResult{Concepts: []string{"hungry"}})
	require.Error(t, err)
	assert.Equal(t, core.ErrCatAgent, core.CategoryOf(err))
	assert.False(t, core.IsRecoverable(err))

	select {
	case event := <-priority:
		assert.Equal(t, events.TypePipelineFailed, event.EventType())
	case <-time.After(time.Second):
		t.Fatal("expected a pipeline_failed event")
	}
}

func TestInferOpenFailureIsFatal(t *testing.T) {
	sim, rel := newStubAgents()
	sim.openErr = errors.New("dial refused")

	coord, err := New(Deps{Similarity: sim, Relation: rel}, DefaultOptions())
	require.NoError(t, err)

	_, err = coord.Infer(context.Background(), &core.ExtractionResult{Concepts: []string{"hungry"}})
	require.Error(t, err)
	assert.Equal(t, core.ErrCatAgent, core.CategoryOf(err))
}

func TestInferJudgeFailuresDegrade(t *testing.T) {
	sim, rel := newStubAgents()

	coord, err := New(Deps{
		Similarity:     sim,
		Relation:       rel,
		Goals:          stubGoals{err: errors.New("llm down")},
		Contradictions: stubContradictions{err: errors.New("kg down")},
		Critic:         stubCritic{err: errors.New("critic down")},
		Debater:        stubReviewer{name: "DebaterAgent", err: errors.New("debater down")},
		Verifier:       stubReviewer{name: "VerifierAgent", err: errors.New("verifier down")},
		Answers:        &stubAnswers{err: errors.New("answers down")},
	}, DefaultOptions())
	require.NoError(t, err)

	result, err := coord.Infer(context.Background(), &core.ExtractionResult{Concepts: []string{"hungry", "eat"}})
	require.NoError(t, err)

	// The ranking stands as computed from the votes alone.
	require.Len(t, result.FinalInference, 2)
	assert.Equal(t, "eat", result.FinalInference[0].Concept)
	assert.InDelta(t, 0.36, result.FinalInference[0].CompositeScore, 1e-9)

	assert.Empty(t, result.GeneratedAnswer)
	assert.NotNil(t, result.DebaterFeedback)
	assert.Empty(t, result.DebaterFeedback)
	assert.NotNil(t, result.VerifierFeedback)
	assert.Empty(t, result.VerifierFeedback)
}

func TestInferCriticPenaltiesApplied(t *testing.T) {
	sim, rel := newStubAgents()

	coord, err := New(Deps{
		Similarity: sim,
		Relation:   rel,
		Critic: stubCritic{findings: []core.CriticFinding{
			{Concept: "eat", Penalty: -0.2},
		}},
	}, DefaultOptions())
	require.NoError(t, err)

	result, err := coord.Infer(context.Background(), &core.ExtractionResult{Concepts: []string{"hungry", "eat"}})
	require.NoError(t, err)

	require.Len(t, result.FinalInference, 2)
	// eat dropped from 0.36 to 0.16, below hungry's 0.33.
	assert.Equal(t, "hungry", result.FinalInference[0].Concept)
	assert.InDelta(t, 0.16, result.FinalInference[1].CompositeScore, 1e-9)
}

func TestInferTopNTruncation(t *testing.T) {
	sim, rel := newStubAgents()

	opts := DefaultOptions()
	opts.TopN = 1
	coord, err := New(Deps{Similarity: sim, Relation: rel}, opts)
	require.NoError(t, err)

	result, err := coord.Infer(context.Background(), &core.ExtractionResult{Concepts: []string{"hungry", "eat"}})
	require.NoError(t, err)
	assert.Len(t, result.FinalInference, 1)
}

func TestInferTextExtractionFailureIsFatal(t *testing.T) {
	sim, rel := newStubAgents()

	coord, err := New(Deps{
		Similarity: sim,
		Relation:   rel,
		Extractor:  stubExtractor{err: errors.New("pipeline unreachable")},
	}, DefaultOptions())
	require.NoError(t, err)

	_, err = coord.InferText(context.Background(), "I am hungry")
	require.Error(t, err)
	assert.Equal(t, core.ErrCatExtraction, core.CategoryOf(err))
}

func TestInferTextWithoutExtractor(t *testing.T) {
	sim, rel := newStubAgents()
	coord, err := New(Deps{Similarity: sim, Relation: rel}, DefaultOptions())
	require.NoError(t, err)

	_, err = coord.InferText(context.Background(), "I am hungry")
	require.Error(t, err)
	assert.Equal(t, core.ErrCatExtraction, core.CategoryOf(err))
}

func TestCoordinateMergesExternalRecords(t *testing.T) {
	sim, rel := newStubAgents()
	coord, err := New(Deps{Similarity: sim, Relation: rel}, DefaultOptions())
	require.NoError(t, err)

	result, err := coord.Coordinate(context.Background(), sim.round2, rel.round2, nil)
	require.NoError(t, err)
	require.Len(t, result.FinalInference, 2)
	// No sessions are opened on this path.
	assert.False(t, sim.closed)
	assert.False(t, rel.closed)
}

func TestInferPublishesLifecycleEvents(t *testing.T) {
	sim, rel := newStubAgents()

	bus := events.New(50)
	defer bus.Close()
	ch := bus.Subscribe(events.TypePipelineStarted, events.TypeRoundCompleted, events.TypeRankingProduced)
	priority := bus.SubscribePriority()

	coord, err := New(Deps{Similarity: sim, Relation: rel, Bus: bus}, DefaultOptions())
	require.NoError(t, err)

	_, err = coord.Infer(context.Background(), &core.ExtractionResult{Concepts: []string{"hungry", "eat"}})
	require.NoError(t, err)

	select {
	case event := <-priority:
		assert.Equal(t, events.TypePipelineCompleted, event.EventType())
	case <-time.After(time.Second):
		t.Fatal("expected a pipeline_completed event")
	}

	types := map[string]int{}
	for len(ch) > 0 {
		types[(<-ch).EventType()]++
	}
	assert.Equal(t, 1, types[events.TypePipelineStarted])
	assert.Equal(t, 4, types[events.TypeRoundCompleted])
	assert.Equal(t, 1, types[events.TypeRankingProduced])
}
