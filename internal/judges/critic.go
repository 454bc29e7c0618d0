package judges

import (
	"context"
	"math"
	"strings"

	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/logging"
)

// Critic penalty ladder. Penalties are additive and independent; each flag in
// a finding names the rule that contributed.
const (
	penaltyMissingGoals      = -0.10
	penaltyWeakGoals         = -0.05
	penaltyContradiction     = -0.10
	penaltyWeakJustification = -0.05
	penaltyLowConfidence     = -0.02

	lowConfidenceDelta = 0.05
)

// CriticJudge reviews a final ranking and assigns per-concept penalties.
type CriticJudge struct {
	logger *logging.Logger
}

// NewCriticJudge creates a critic.
func NewCriticJudge(logger *logging.Logger) *CriticJudge {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &CriticJudge{logger: logger.WithAgent("CriticAgent")}
}

// Critique applies the fixed penalty ladder to every entry.
func (j *CriticJudge) Critique(ctx context.Context, ranking []core.FinalRankingEntry) ([]core.CriticFinding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	findings := make([]core.CriticFinding, 0, len(ranking))
	for _, entry := range ranking {
		missingGoals := len(entry.Goals) == 0
		weakGoals := hasWeakGoal(entry.Goals)
		weakJustification := hasWeakJustification(entry.Justifications)
		lowConfidence := math.Abs(entry.ConfidenceDelta) < lowConfidenceDelta

		penalty := 0.0
		if missingGoals {
			penalty += penaltyMissingGoals
		}
		if weakGoals {
			penalty += penaltyWeakGoals
		}
		if entry.Contradiction {
			penalty += penaltyContradiction
		}
		if weakJustification {
			penalty += penaltyWeakJustification
		}
		if lowConfidence {
			penalty += penaltyLowConfidence
		}

		findings = append(findings, core.CriticFinding{
			Concept: entry.Concept,
			Penalty: core.Round4(penalty),
			Flags: map[string]bool{
				"missing_goals":        missingGoals,
				"weak_goals":           weakGoals,
				"contradiction":        entry.Contradiction,
				"weak_justification":   weakJustification,
				"low_confidence_delta": lowConfidence,
			},
		})
	}

	j.logger.Debug("critique completed", "findings", len(findings))
	return findings, nil
}

// hasWeakGoal reports whether any goal is boilerplate or too short.
func hasWeakGoal(goals []string) bool {
	for _, g := range goals {
		if strings.Contains(strings.ToLower(g), "something") || len(strings.TrimSpace(g)) < 5 {
			return true
		}
	}
	return false
}

// hasWeakJustification reports whether any justification is empty,
// boilerplate, or too short.
func hasWeakJustification(justifications []string) bool {
	if len(justifications) == 0 {
		return true
	}
	for _, just := range justifications {
		if strings.Contains(strings.ToLower(just), "no justification") || len(strings.TrimSpace(just)) < 10 {
			return true
		}
	}
	return false
}
