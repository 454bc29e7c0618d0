package judges

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conclave-ai/conclave/internal/core"
)

func TestContradictionCheck(t *testing.T) {
	judge := NewContradictionJudge(nil)

	concepts := []string{"hot", "cold", "warm"}
	relations := map[string][]core.Relation{
		"hot": {
			{Kind: "Antonym", Target: "cold"},
			{Kind: "RelatedTo", Target: "warm"},
		},
	}

	pairs, err := judge.Check(context.Background(), concepts, relations)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, core.ContradictionPair{"hot", "cold"}, pairs[0])
}

func TestContradictionCheckReverseDirection(t *testing.T) {
	judge := NewContradictionJudge(nil)

	// The edge lives on "cold" but the pair must still be found.
	pairs, err := judge.Check(context.Background(),
		[]string{"hot", "cold"},
		map[string][]core.Relation{
			"cold": {{Kind: "Antonym", Target: "hot"}},
		})
	require.NoError(t, err)
	assert.Len(t, pairs, 1)
}

func TestContradictionCheckCaseInsensitive(t *testing.T) {
	judge := NewContradictionJudge(nil)

	pairs, err := judge.Check(context.Background(),
		[]string{"Hot", "COLD"},
		map[string][]core.Relation{
			"hot": {{Kind: "antonym", Target: "Cold"}},
		})
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, core.ContradictionPair{"Hot", "COLD"}, pairs[0])
}

func TestContradictionCheckDeduplicates(t *testing.T) {
	judge := NewContradictionJudge(nil)

	// Edges in both directions still yield one unordered pair.
	pairs, err := judge.Check(context.Background(),
		[]string{"hot", "cold"},
		map[string][]core.Relation{
			"hot":  {{Kind: "Antonym", Target: "cold"}},
			"cold": {{Kind: "Antonym", Target: "hot"}},
		})
	require.NoError(t, err)
	assert.Len(t, pairs, 1)
}

func TestContradictionCheckNoAntonyms(t *testing.T) {
	judge := NewContradictionJudge(nil)

	pairs, err := judge.Check(context.Background(),
		[]string{"hungry", "eat"},
		map[string][]core.Relation{
			"hungry": {{Kind: "MotivatedByGoal", Target: "eat food"}},
		})
	require.NoError(t, err)
	assert.Empty(t, pairs)
}
