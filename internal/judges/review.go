package judges

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/logging"
)

// EntailmentChecker tests whether a goal text is logically entailed by a
// concept. Implementations typically call a natural-language-inference model.
type EntailmentChecker interface {
	Entail(ctx context.Context, premise, hypothesis string) (label string, score float64, err error)
}

// EntailmentLabel is the accepting label for the entailment check.
const EntailmentLabel = "ENTAILMENT"

const (
	weakJustificationLen = 15
	minSupportingAgents  = 2

	// Verifier-only thresholds for the low-delta/low-score rule.
	verifierLowDelta     = 0.01
	verifierLowComposite = 0.4
)

// Debater scans the final ranking for weak evidence and challenges entries
// that fail any criterion. Challenges are advisory; they never alter scores.
type Debater struct {
	deltaThreshold float64
	logger         *logging.Logger
}

// NewDebater creates a debater. deltaThreshold bounds the minimum confidence
// movement expected of a trustworthy entry.
func NewDebater(deltaThreshold float64, logger *logging.Logger) *Debater {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Debater{
		deltaThreshold: deltaThreshold,
		logger:         logger.WithAgent("DebaterAgent"),
	}
}

// Name identifies the reviewer in payloads and logs.
func (d *Debater) Name() string { return "DebaterAgent" }

// Review challenges entries with weak justifications, missing goals, low
// confidence movement, or fewer than two supporting agents.
func (d *Debater) Review(ctx context.Context, ranking []core.FinalRankingEntry) ([]core.Challenge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var challenges []core.Challenge
	for _, entry := range ranking {
		justification := strings.TrimSpace(strings.Join(entry.Justifications, " "))

		issues := map[string]bool{
			"missing_goal":       len(entry.Goals) == 0,
			"low_confidence":     entry.ConfidenceDelta < d.deltaThreshold,
			"weak_justification": len(justification) < weakJustificationLen,
			"weak_support":       len(entry.Sources) < minSupportingAgents,
		}
		if !issues["missing_goal"] && !issues["low_confidence"] && !issues["weak_justification"] && !issues["weak_support"] {
			continue
		}

		challenges = append(challenges, core.Challenge{
			Concept: entry.Concept,
			Issues:  issues,
			Comment: fmt.Sprintf("%s flagged for review. Justification: %s...", entry.Concept, truncate(justification, 60)),
		})
	}

	d.logger.Debug("debate completed", "challenges", len(challenges))
	return challenges, nil
}

// Verifier performs the same weak-evidence scan plus an optional textual
// entailment check between each concept and its goal.
type Verifier struct {
	entailment         EntailmentChecker
	entailmentMinScore float64
	logger             *logging.Logger
}

// NewVerifier creates a verifier. checker may be nil, which skips the
// entailment step. minScore is the configurable acceptance threshold.
func NewVerifier(checker EntailmentChecker, minScore float64, logger *logging.Logger) *Verifier {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Verifier{
		entailment:         checker,
		entailmentMinScore: minScore,
		logger:             logger.WithAgent("VerifierAgent"),
	}
}

// Name identifies the reviewer in payloads and logs.
func (v *Verifier) Name() string { return "VerifierAgent" }

// Review challenges entries lacking multi-agent support, entries whose
// confidence barely moved while their composite score is low, and entries
// whose goal is weak or not entailed by the concept.
func (v *Verifier) Review(ctx context.Context, ranking []core.FinalRankingEntry) ([]core.Challenge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var challenges []core.Challenge
	for _, entry := range ranking {
		justification := strings.TrimSpace(strings.Join(entry.Justifications, " "))

		if len(entry.Sources) < minSupportingAgents {
			challenges = append(challenges, core.Challenge{
				Concept: entry.Concept,
				Issue:   "Only one agent supported.",
				Comment: fmt.Sprintf("%s support insufficient. Sources: %v", entry.Concept, entry.Sources),
			})
		}

		if math.Abs(entry.ConfidenceDelta) < verifierLowDelta && entry.CompositeScore < verifierLowComposite {
			challenges = append(challenges, core.Challenge{
				Concept: entry.Concept,
				Issue:   "No meaningful confidence adjustment.",
				Comment: fmt.Sprintf("%s had low delta=%.4f. Justification: %s...", entry.Concept, entry.ConfidenceDelta, truncate(justification, 60)),
			})
		}

		goalText := ""
		if len(entry.Goals) > 0 {
			goalText = strings.TrimSpace(entry.Goals[0])
		}
		if len(goalText) < 5 {
			challenges = append(challenges, core.Challenge{
				Concept: entry.Concept,
				Issue:   "Missing or weak goal.",
				Comment: fmt.Sprintf("%s has weak or empty goal: '%s'", entry.Concept, goalText),
			})
			continue
		}

		if v.entailment == nil {
			continue
		}
		label, score, err := v.entailment.Entail(ctx, entry.Concept, goalText)
		if err != nil {
			label, score = "ERROR", 0
		}
		if label != EntailmentLabel || score < v.entailmentMinScore {
			challenges = append(challenges, core.Challenge{
				Concept: entry.Concept,
				Issue:   "Goal not logically entailed.",
				Comment: fmt.Sprintf("Entailment check failed: %s (%.2f)", label, score),
			})
		}
	}

	v.logger.Debug("verification completed", "challenges", len(challenges))
	return challenges, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
