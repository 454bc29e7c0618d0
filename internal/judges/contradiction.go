// Package judges implements the auxiliary agents that annotate or penalize a
// ranking. Each judge is an independent, stateless transform; the coordinator
// isolates their failures so none of them can abort a request.
package judges

import (
	"context"
	"strings"

	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/logging"
)

// ContradictionJudge flags concept pairs recorded as antonyms of each other
// in the knowledge-graph relation map.
type ContradictionJudge struct {
	logger *logging.Logger
}

// NewContradictionJudge creates a contradiction judge.
func NewContradictionJudge(logger *logging.Logger) *ContradictionJudge {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ContradictionJudge{logger: logger.WithAgent("ContradictionAgent")}
}

// Check returns all unordered concept pairs where one concept is an antonym
// of the other. Labels are matched case-insensitively and the antonym edge is
// honored in both directions.
func (j *ContradictionJudge) Check(ctx context.Context, concepts []string, relations map[string][]core.Relation) ([]core.ContradictionPair, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	antonyms := make(map[string]map[string]bool, len(concepts))
	for concept, rels := range relations {
		key := strings.ToLower(concept)
		for _, rel := range rels {
			if !strings.EqualFold(rel.Kind, "Antonym") {
				continue
			}
			if antonyms[key] == nil {
				antonyms[key] = make(map[string]bool)
			}
			antonyms[key][strings.ToLower(rel.Target)] = true
		}
	}

	var pairs []core.ContradictionPair
	seen := make(map[string]bool)
	for i, c1 := range concepts {
		for _, c2 := range concepts[i+1:] {
			l1, l2 := strings.ToLower(c1), strings.ToLower(c2)
			if l1 == l2 {
				continue
			}
			if !antonyms[l1][l2] && !antonyms[l2][l1] {
				continue
			}
			key := l1 + "\x00" + l2
			if l2 < l1 {
				key = l2 + "\x00" + l1
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			pairs = append(pairs, core.ContradictionPair{c1, c2})
		}
	}

	if len(pairs) > 0 {
		j.logger.Debug("contradictions found", "pairs", len(pairs))
	}
	return pairs, nil
}
