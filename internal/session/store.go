// Package session holds the per-conversation state that correlates round-1
// and round-2 scoring messages. The store is the only mutable shared state in
// the system: written once at round 1, read-only until cleared.
package session

import "github.com/conclave-ai/conclave/internal/core"

// Snapshot is the state captured at round 1 for one session. OriginalScores
// is the frozen baseline for every later delta computation; repeated round-2
// calls against the same snapshot are idempotent.
type Snapshot struct {
	Extraction     *core.ExtractionResult `json:"extraction"`
	Round1         []core.ScoreRecord     `json:"round1"`
	OriginalScores map[string]float64     `json:"original_scores"`
}

// NewSnapshot builds a snapshot from round-1 output, freezing the original
// score of every concept.
func NewSnapshot(extraction *core.ExtractionResult, round1 []core.ScoreRecord) *Snapshot {
	scores := make(map[string]float64, len(round1))
	for _, rec := range round1 {
		scores[rec.Concept] = rec.Score
	}
	return &Snapshot{
		Extraction:     extraction,
		Round1:         round1,
		OriginalScores: scores,
	}
}

// Store keeps session snapshots between rounds. A Get miss is a defined
// outcome, not an error: callers answer round 2 with an empty adjustment.
type Store interface {
	Put(key string, snap *Snapshot) error
	Get(key string) (*Snapshot, bool)
	Clear(key string)
}
