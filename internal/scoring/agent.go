// Package scoring implements the two reasoning agents of the round-based
// protocol. Both roles share one formula; only the signal weights differ.
package scoring

import (
	"fmt"

	"github.com/conclave-ai/conclave/internal/core"
)

// RoleWeights blends the two scoring signals. The roles deliberately weight
// the same signals oppositely so the peer-review round gets genuinely
// independent opinions.
type RoleWeights struct {
	Similarity float64 `mapstructure:"similarity"`
	Relation   float64 `mapstructure:"relation"`
}

// Role identifies a scoring agent variant.
type Role struct {
	Name    string
	Weights RoleWeights
}

// The two canonical roles.
var (
	SimilarityRole = Role{Name: "SimilarityAgent", Weights: RoleWeights{Similarity: 0.8, Relation: 0.2}}
	RelationRole   = Role{Name: "RelationAgent", Weights: RoleWeights{Similarity: 0.3, Relation: 0.7}}
)

// Adjustment policy constants. The three-bucket, fixed-multiplier policy is a
// compatibility contract: peers that found goals for the same concept boost
// the baseline, peers that both came up empty penalize it, anything else
// leaves it untouched.
const (
	BoostMultiplier   = 1.1
	PenaltyMultiplier = 0.8
	DeltaThreshold    = 0.05
)

// goalKinds is the fixed set of relation kinds that indicate a goal.
var goalKinds = map[string]bool{
	"MotivatedByGoal": true,
	"Desires":         true,
	"UsedFor":         true,
	"Causes":          true,
	"CausesDesire":    true,
	"HasSubevent":     true,
}

// Agent is a stateless scoring agent. Session state (the round-1 snapshot)
// lives in the session store, not here, so one Agent value can serve any
// number of concurrent conversations.
type Agent struct {
	role Role
}

// New creates a scoring agent for the given role.
func New(role Role) *Agent {
	return &Agent{role: role}
}

// Name returns the agent identifier used in vote records.
func (a *Agent) Name() string { return a.role.Name }

// Score performs round 1: an independent weighted blend of embedding
// similarity and relation strength per concept, with goal inference from
// knowledge-graph edges and an LLM-supplied fallback.
func (a *Agent) Score(extraction *core.ExtractionResult) []core.ScoreRecord {
	maxRel := extraction.MaxRelationCount()
	records := make([]core.ScoreRecord, 0, len(extraction.Concepts))

	for i, concept := range extraction.Concepts {
		var conceptEmb []float64
		if i < len(extraction.ConceptEmbeddings) {
			conceptEmb = extraction.ConceptEmbeddings[i]
		}
		sim := Cosine(extraction.SentenceEmbedding, conceptEmb)

		rels := extraction.Relations[concept]
		relationStrength := float64(len(rels)) / float64(maxRel)
		score := core.Round4(a.role.Weights.Similarity*sim + a.role.Weights.Relation*relationStrength)

		goals, source := inferGoals(concept, rels, extraction.InferredGoals)

		records = append(records, core.ScoreRecord{
			Agent:           a.role.Name,
			Concept:         concept,
			Score:           score,
			OriginalScore:   score,
			InferredGoals:   goals,
			GoalSource:      source,
			RelationCount:   len(rels),
			Explanation:     fmt.Sprintf("Score is based on similarity (%.2f) and %d knowledge-graph relations.", sim, len(rels)),
			ConfidenceDelta: 0,
		})
	}
	return records
}

// inferGoals prefers goals from goal-indicating knowledge-graph edges and
// falls back to any externally supplied LLM-inferred goals for the concept.
func inferGoals(concept string, rels []core.Relation, llmGoals map[string][]string) ([]string, string) {
	var goals []string
	for _, rel := range rels {
		if goalKinds[rel.Kind] {
			goals = append(goals, rel.Target)
		}
	}
	if len(goals) > 0 {
		return goals, core.GoalSourceKnowledgeGraph
	}
	if fallback := llmGoals[concept]; len(fallback) > 0 {
		return append([]string(nil), fallback...), core.GoalSourceLLM
	}
	return nil, core.GoalSourceNone
}

// Adjust performs round 2: peer-informed confidence revision. The adjusted
// score is always a multiple of the frozen round-1 baseline, never of a
// previously adjusted score, so replaying the same peer input yields the same
// result.
func (a *Agent) Adjust(peer, own []core.ScoreRecord, baseline map[string]float64) []core.ScoreRecord {
	peerGoals := make(map[string]map[string]bool, len(peer))
	for _, rec := range peer {
		set := peerGoals[rec.Concept]
		if set == nil {
			set = make(map[string]bool)
			peerGoals[rec.Concept] = set
		}
		for _, g := range rec.InferredGoals {
			set[g] = true
		}
	}

	adjusted := make([]core.ScoreRecord, len(own))
	for i, rec := range own {
		base, ok := baseline[rec.Concept]
		if !ok {
			base = rec.OriginalScore
		}

		ownSet := rec.InferredGoals
		peerSet := peerGoals[rec.Concept]

		newScore := base
		switch {
		case len(ownSet) > 0 && len(peerSet) > 0 && intersects(ownSet, peerSet):
			newScore = core.Round4(base * BoostMultiplier)
		case len(ownSet) == 0 && len(peerSet) == 0:
			newScore = core.Round4(base * PenaltyMultiplier)
		}

		rec.OriginalScore = base
		rec.Score = newScore
		rec.ConfidenceDelta = core.Round4(newScore - base)
		rec.Reason = deltaReason(rec.Concept, base, newScore)
		if rec.Explanation != "" {
			rec.Explanation += " " + rec.Reason
		} else {
			rec.Explanation = rec.Reason
		}
		adjusted[i] = rec
	}
	return adjusted
}

func intersects(goals []string, peer map[string]bool) bool {
	for _, g := range goals {
		if peer[g] {
			return true
		}
	}
	return false
}

// deltaReason summarizes the confidence movement in natural language.
func deltaReason(concept string, oldScore, newScore float64) string {
	delta := newScore - oldScore
	switch {
	case delta > DeltaThreshold:
		return fmt.Sprintf("%s gained confidence after peer review (%.4f -> %.4f).", concept, oldScore, newScore)
	case delta < -DeltaThreshold:
		return fmt.Sprintf("%s dropped confidence after peer review (%.4f -> %.4f).", concept, oldScore, newScore)
	default:
		return fmt.Sprintf("%s remained stable after peer review (%.4f -> %.4f).", concept, oldScore, newScore)
	}
}
