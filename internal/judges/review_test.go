package judges

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conclave-ai/conclave/internal/core"
)

func strongEntry(concept string) core.FinalRankingEntry {
	return core.FinalRankingEntry{
		Concept:         concept,
		Goals:           []string{"to eat food"},
		Justifications:  []string{"Score is based on similarity (0.90) and 2 knowledge-graph relations."},
		Sources:         []string{"RelationAgent", "SimilarityAgent"},
		ConfidenceDelta: 0.06,
		CompositeScore:  0.6,
	}
}

func TestDebaterPassesStrongEntry(t *testing.T) {
	debater := NewDebater(0.02, nil)

	challenges, err := debater.Review(context.Background(), []core.FinalRankingEntry{strongEntry("hungry")})
	require.NoError(t, err)
	assert.Empty(t, challenges)
}

func TestDebaterChallengesWeakEvidence(t *testing.T) {
	debater := NewDebater(0.02, nil)

	tests := []struct {
		name  string
		mut   func(*core.FinalRankingEntry)
		issue string
	}{
		{
			name:  "missing goal",
			mut:   func(e *core.FinalRankingEntry) { e.Goals = nil },
			issue: "missing_goal",
		},
		{
			name:  "low confidence movement",
			mut:   func(e *core.FinalRankingEntry) { e.ConfidenceDelta = 0.001 },
			issue: "low_confidence",
		},
		{
			name:  "short justification",
			mut:   func(e *core.FinalRankingEntry) { e.Justifications = []string{"weak"} },
			issue: "weak_justification",
		},
		{
			name:  "single source",
			mut:   func(e *core.FinalRankingEntry) { e.Sources = []string{"SimilarityAgent"} },
			issue: "weak_support",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := strongEntry("hungry")
			tt.mut(&entry)

			challenges, err := debater.Review(context.Background(), []core.FinalRankingEntry{entry})
			require.NoError(t, err)
			require.Len(t, challenges, 1)
			assert.True(t, challenges[0].Issues[tt.issue])
			assert.Contains(t, challenges[0].Comment, "hungry")
		})
	}
}

// fixedEntailment returns the same verdict for every pair.
type fixedEntailment struct {
	label string
	score float64
	err   error
}

func (f fixedEntailment) Entail(context.Context, string, string) (string, float64, error) {
	return f.label, f.score, f.err
}

func TestVerifierPassesStrongEntry(t *testing.T) {
	verifier := NewVerifier(fixedEntailment{label: EntailmentLabel, score: 0.95}, 0.8, nil)

	challenges, err := verifier.Review(context.Background(), []core.FinalRankingEntry{strongEntry("hungry")})
	require.NoError(t, err)
	assert.Empty(t, challenges)
}

func TestVerifierSingleSource(t *testing.T) {
	verifier := NewVerifier(nil, 0.8, nil)

	entry := strongEntry("hungry")
	entry.Sources = []string{"SimilarityAgent"}

	challenges, err := verifier.Review(context.Background(), []core.FinalRankingEntry{entry})
	require.NoError(t, err)
	require.Len(t, challenges, 1)
	assert.Equal(t, "Only one agent supported.", challenges[0].Issue)
}

func TestVerifierLowDeltaLowScore(t *testing.T) {
	verifier := NewVerifier(nil, 0.8, nil)

	entry := strongEntry("hungry")
	entry.ConfidenceDelta = 0.001
	entry.CompositeScore = 0.3

	challenges, err := verifier.Review(context.Background(), []core.FinalRankingEntry{entry})
	require.NoError(t, err)
	require.Len(t, challenges, 1)
	assert.Equal(t, "No meaningful confidence adjustment.", challenges[0].Issue)
}

func TestVerifierWeakGoalSkipsEntailment(t *testing.T) {
	checker := fixedEntailment{label: EntailmentLabel, score: 0.99}
	verifier := NewVerifier(checker, 0.8, nil)

	entry := strongEntry("hungry")
	entry.Goals = []string{"eat"}

	challenges, err := verifier.Review(context.Background(), []core.FinalRankingEntry{entry})
	require.NoError(t, err)
	require.Len(t, challenges, 1)
	assert.Equal(t, "Missing or weak goal.", challenges[0].Issue)
}

func TestVerifierEntailment(t *testing.T) {
	tests := []struct {
		name      string
		checker   EntailmentChecker
		challenge bool
	}{
		{
			name:      "entailed above threshold",
			checker:   fixedEntailment{label: EntailmentLabel, score: 0.85},
			challenge: false,
		},
		{
			name:      "entailed below threshold",
			checker:   fixedEntailment{label: EntailmentLabel, score: 0.5},
			challenge: true,
		},
		{
			name:      "contradicted",
			checker:   fixedEntailment{label: "CONTRADICTION", score: 0.9},
			challenge: true,
		},
		{
			name:      "checker error treated as failed check",
			checker:   fixedEntailment{err: errors.New("nli unavailable")},
			challenge: true,
		},
		{
			name:      "no checker skips entailment",
			checker:   nil,
			challenge: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := NewVerifier(tt.checker, 0.8, nil)
			challenges, err := verifier.Review(context.Background(), []core.FinalRankingEntry{strongEntry("hungry")})
			require.NoError(t, err)
			if tt.challenge {
				require.Len(t, challenges, 1)
				assert.Equal(t, "Goal not logically entailed.", challenges[0].Issue)
			} else {
				assert.Empty(t, challenges)
			}
		})
	}
}

func TestReviewerNames(t *testing.T) {
	assert.Equal(t, "DebaterAgent", NewDebater(0.02, nil).Name())
	assert.Equal(t, "VerifierAgent", NewVerifier(nil, 0.8, nil).Name())
}
