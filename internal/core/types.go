package core

import (
	"math"
	"sort"
)

// Round1 and Round2 are the step tags of the two-phase scoring protocol.
const (
	StepRound1 = "round1"
	StepRound2 = "round2"
)

// Goal source tags reported by scoring agents and the goal predictor.
const (
	GoalSourceKnowledgeGraph = "ConceptNet"
	GoalSourceLLM            = "LLM"
	GoalSourceRuleBased      = "Rule-based"
	GoalSourceNone           = "None"
)

// Relation is a single knowledge-graph edge attached to a concept.
type Relation struct {
	Kind   string `json:"kind"`
	Target string `json:"target"`
}

// ExtractionResult is the output of the extraction collaborator. It is
// immutable once produced and owned by the coordinator for the duration of
// one request. Concept uniqueness is not guaranteed; duplicates are tolerated
// everywhere downstream.
type ExtractionResult struct {
	Text              string                `json:"text,omitempty"`
	Concepts          []string              `json:"concepts"`
	ConceptEmbeddings [][]float64           `json:"concept_embeddings"`
	SentenceEmbedding []float64             `json:"sentence_embedding"`
	Relations         map[string][]Relation `json:"relations"`
	InferredGoals     map[string][]string   `json:"inferred_goals,omitempty"`
}

// RelationCount returns the number of knowledge-graph edges for a concept.
func (e *ExtractionResult) RelationCount(concept string) int {
	return len(e.Relations[concept])
}

// MaxRelationCount returns the largest relation count over all concepts,
// never less than 1 so it is safe as a denominator.
func (e *ExtractionResult) MaxRelationCount() int {
	maxRel := 0
	for _, rels := range e.Relations {
		if len(rels) > maxRel {
			maxRel = len(rels)
		}
	}
	if maxRel < 1 {
		return 1
	}
	return maxRel
}

// ScoreRecord is one scoring agent's opinion about one concept.
//
// OriginalScore is set once at round 1 and never mutated afterwards; every
// later confidence delta is computed against it, not against the current
// score. Explanation is append-only across rounds.
type ScoreRecord struct {
	Agent           string   `json:"agent"`
	Concept         string   `json:"concept"`
	Score           float64  `json:"score"`
	OriginalScore   float64  `json:"original_score"`
	InferredGoals   []string `json:"inferred_goals"`
	GoalSource      string   `json:"goal_source,omitempty"`
	RelationCount   int      `json:"relation_count"`
	Explanation     string   `json:"explanation,omitempty"`
	ConfidenceDelta float64  `json:"confidence_delta"`
	Reason          string   `json:"reason,omitempty"`
}

// GoalPrediction is the goal predictor's answer for a single concept.
type GoalPrediction struct {
	Goal   string `json:"goal"`
	Source string `json:"source"`
}

// ContradictionPair is an unordered pair of mutually contradicting concepts.
type ContradictionPair [2]string

// CriticFinding carries the critic's additive penalty for one ranked concept
// together with the flags explaining which rules triggered.
type CriticFinding struct {
	Concept string          `json:"concept"`
	Penalty float64         `json:"penalty"`
	Flags   map[string]bool `json:"flags"`
}

// Challenge is an advisory annotation from the debater or verifier. Debater
// challenges populate Issues; verifier challenges name a single Issue.
type Challenge struct {
	Concept string          `json:"concept"`
	Issue   string          `json:"issue,omitempty"`
	Issues  map[string]bool `json:"issues,omitempty"`
	Comment string          `json:"comment"`
}

// FinalRankingEntry is one row of the merged ranking. Entries are produced
// fresh each merge cycle and carry no identity across requests.
type FinalRankingEntry struct {
	Concept         string   `json:"concept"`
	AvgScore        float64  `json:"avg_score"`
	GoalCount       int      `json:"goal_count"`
	Goals           []string `json:"goals"`
	GoalSource      string   `json:"goal_source"`
	Contradiction   bool     `json:"contradiction"`
	CompositeScore  float64  `json:"composite_score"`
	Sources         []string `json:"sources"`
	ConfidenceDelta float64  `json:"confidence_delta"`
	Justifications  []string `json:"justifications"`
}

// InferenceResult is the payload returned to the client: the top-ranked
// concepts plus advisory feedback and a best-effort generated answer.
type InferenceResult struct {
	RequestID        string              `json:"request_id"`
	FinalInference   []FinalRankingEntry `json:"final_inference"`
	DebaterFeedback  []Challenge         `json:"debater_feedback"`
	VerifierFeedback []Challenge         `json:"verifier_feedback"`
	GeneratedAnswer  string              `json:"generated_answer"`
}

// Round4 rounds to four decimal places, the precision used by every score in
// the protocol.
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// SortRanking sorts entries descending by composite score, breaking ties by
// concept name ascending so the order is deterministic regardless of arrival
// order.
func SortRanking(entries []FinalRankingEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].CompositeScore != entries[j].CompositeScore {
			return entries[i].CompositeScore > entries[j].CompositeScore
		}
		return entries[i].Concept < entries[j].Concept
	})
}
