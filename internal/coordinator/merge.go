package coordinator

import (
	"sort"
	"strings"

	"github.com/conclave-ai/conclave/internal/core"
)

// Composite score weights (§ merge-and-rank). One canonical formula, shared
// by every merge path.
const (
	weightAvgScore      = 0.6
	weightDelta         = 0.2
	goalBoostValue      = 0.1
	contradictionValue  = 0.1
	goalBoostMinimumLen = 4
)

// ConceptVote is one scoring agent's contribution to a concept, transient to
// a single merge cycle.
type ConceptVote struct {
	Agent           string
	Score           float64
	Goals           []string
	Reason          string
	ConfidenceDelta float64
}

// unionConcepts returns the concepts seen by either agent, first-seen order,
// deduplicated.
func unionConcepts(sim, rel []core.ScoreRecord) []string {
	seen := make(map[string]bool)
	var concepts []string
	for _, rec := range append(append([]core.ScoreRecord{}, sim...), rel...) {
		if seen[rec.Concept] {
			continue
		}
		seen[rec.Concept] = true
		concepts = append(concepts, rec.Concept)
	}
	return concepts
}

// collectVotes accumulates one vote per contributing agent per concept. The
// vote reason is the first non-empty of the record's reason and explanation.
func collectVotes(sim, rel []core.ScoreRecord) map[string][]ConceptVote {
	votes := make(map[string][]ConceptVote)
	for _, records := range [][]core.ScoreRecord{sim, rel} {
		for _, rec := range records {
			reason := rec.Reason
			if reason == "" {
				reason = rec.Explanation
			}
			if reason == "" {
				reason = "No justification provided."
			}
			votes[rec.Concept] = append(votes[rec.Concept], ConceptVote{
				Agent:           rec.Agent,
				Score:           rec.Score,
				Goals:           rec.InferredGoals,
				Reason:          reason,
				ConfidenceDelta: rec.ConfidenceDelta,
			})
		}
	}
	return votes
}

// goalBoost is granted only for informative goal text: longer than four
// characters after trimming and free of the generic placeholder "something".
func goalBoost(goalText string) float64 {
	trimmed := strings.TrimSpace(goalText)
	if len(trimmed) > goalBoostMinimumLen && !strings.Contains(strings.ToLower(trimmed), "something") {
		return goalBoostValue
	}
	return 0
}

// buildRanking computes one FinalRankingEntry per concept and sorts the
// result descending by composite score, ties broken by concept ascending.
func buildRanking(
	concepts []string,
	votes map[string][]ConceptVote,
	goals map[string]core.GoalPrediction,
	contradictions []core.ContradictionPair,
) []core.FinalRankingEntry {
	inUnion := make(map[string]bool, len(concepts))
	for _, c := range concepts {
		inUnion[c] = true
	}
	contradicted := make(map[string]bool)
	for _, pair := range contradictions {
		if inUnion[pair[0]] && inUnion[pair[1]] {
			contradicted[pair[0]] = true
			contradicted[pair[1]] = true
		}
	}

	entries := make([]core.FinalRankingEntry, 0, len(concepts))
	for _, concept := range concepts {
		conceptVotes := votes[concept]
		if len(conceptVotes) == 0 {
			continue
		}

		var scoreSum, deltaSum float64
		sources := make(map[string]bool)
		justifications := make([]string, 0, len(conceptVotes))
		for _, v := range conceptVotes {
			scoreSum += v.Score
			deltaSum += v.ConfidenceDelta
			sources[v.Agent] = true
			justifications = append(justifications, v.Reason)
		}
		avgScore := scoreSum / float64(len(conceptVotes))
		normalizedDelta := deltaSum / float64(len(conceptVotes))

		prediction := goals[concept]
		boost := goalBoost(prediction.Goal)

		hasContradiction := contradicted[concept]
		penalty := 0.0
		if hasContradiction {
			penalty = contradictionValue
		}

		composite := core.Round4(weightAvgScore*avgScore + weightDelta*normalizedDelta + boost - penalty)

		goalText := strings.TrimSpace(prediction.Goal)
		goalsList := []string{}
		goalCount := 0
		if goalText != "" {
			goalsList = append(goalsList, goalText)
			goalCount = 1
		}
		goalSource := prediction.Source
		if goalSource == "" {
			goalSource = core.GoalSourceNone
		}

		entries = append(entries, core.FinalRankingEntry{
			Concept:         concept,
			AvgScore:        core.Round4(avgScore),
			GoalCount:       goalCount,
			Goals:           goalsList,
			GoalSource:      goalSource,
			Contradiction:   hasContradiction,
			CompositeScore:  composite,
			Sources:         sortedKeys(sources),
			ConfidenceDelta: core.Round4(normalizedDelta),
			Justifications:  justifications,
		})
	}

	core.SortRanking(entries)
	return entries
}

// applyPenalties folds critic penalties into the composite scores and
// re-sorts. Concepts without a finding keep their score.
func applyPenalties(entries []core.FinalRankingEntry, findings []core.CriticFinding) {
	penalties := make(map[string]float64, len(findings))
	for _, f := range findings {
		penalties[f.Concept] = f.Penalty
	}
	for i := range entries {
		entries[i].CompositeScore = core.Round4(entries[i].CompositeScore + penalties[entries[i].Concept])
	}
	core.SortRanking(entries)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
