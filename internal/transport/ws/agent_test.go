package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/scoring"
	"github.com/conclave-ai/conclave/internal/session"
)

func newTestEndpoint(t *testing.T) (*httptest.Server, string, *session.MemoryStore) {
	t.Helper()
	store := session.NewMemoryStore(0)
	server := NewAgentServer(scoring.New(scoring.SimilarityRole), store, nil)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts, "ws" + strings.TrimPrefix(ts.URL, "http"), store
}

func extractionFixture() *core.ExtractionResult {
	return &core.ExtractionResult{
		Concepts:          []string{"hungry", "eat"},
		SentenceEmbedding: []float64{1, 0},
		ConceptEmbeddings: [][]float64{{1, 0}, {0, 1}},
		Relations: map[string][]core.Relation{
			"hungry": {{Kind: "MotivatedByGoal", Target: "eat food"}},
		},
	}
}

func TestAgentOverWebSocketRoundFlow(t *testing.T) {
	_, url, _ := newTestEndpoint(t)

	client := NewClient("SimilarityAgent", url, 5*time.Second, nil)
	assert.Equal(t, "SimilarityAgent", client.Name())

	sess, err := client.Open(context.Background())
	require.NoError(t, err)
	defer sess.Close()

	round1, err := sess.Round1(context.Background(), extractionFixture())
	require.NoError(t, err)
	require.Len(t, round1, 2)
	assert.Equal(t, "hungry", round1[0].Concept)
	assert.Equal(t, round1[0].Score, round1[0].OriginalScore)

	peer := []core.ScoreRecord{
		{Agent: "RelationAgent", Concept: "hungry", InferredGoals: []string{"eat food"}},
	}
	round2, err := sess.Round2(context.Background(), peer)
	require.NoError(t, err)
	require.Len(t, round2, 2)

	// Shared goal on "hungry" boosts the frozen baseline by 1.1.
	assert.InDelta(t, core.Round4(round1[0].Score*1.1), round2[0].Score, 1e-9)
	assert.NotEmpty(t, round2[0].Reason)
}

func TestAgentOverWebSocketRound2WithoutRound1(t *testing.T) {
	_, url, _ := newTestEndpoint(t)

	client := NewClient("SimilarityAgent", url, 5*time.Second, nil)
	sess, err := client.Open(context.Background())
	require.NoError(t, err)
	defer sess.Close()

	// Defined failure: empty adjustment, the conversation stays open.
	records, err := sess.Round2(context.Background(), []core.ScoreRecord{{Concept: "hungry"}})
	require.NoError(t, err)
	assert.Empty(t, records)

	round1, err := sess.Round1(context.Background(), extractionFixture())
	require.NoError(t, err)
	assert.Len(t, round1, 2)
}

func TestAgentOverWebSocketUnknownStep(t *testing.T) {
	_, url, _ := newTestEndpoint(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(agentRequest{Step: "round3"}))

	var resp agentResponse
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Contains(t, resp.Error, "unknown step")

	// The server closes the conversation after rejecting.
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}

func TestAgentOverWebSocketSessionClearedOnClose(t *testing.T) {
	_, url, store := newTestEndpoint(t)

	client := NewClient("SimilarityAgent", url, 5*time.Second, nil)
	sess, err := client.Open(context.Background())
	require.NoError(t, err)

	_, err = sess.Round1(context.Background(), extractionFixture())
	require.NoError(t, err)
	require.Equal(t, 1, store.Len())

	require.NoError(t, sess.Close())

	// The server clears the session once the connection drops.
	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestClientDialFailure(t *testing.T) {
	client := NewClient("SimilarityAgent", "ws://127.0.0.1:1/agent", time.Second, nil)
	_, err := client.Open(context.Background())
	require.Error(t, err)
	assert.Equal(t, core.ErrCatTransport, core.CategoryOf(err))
}
