package coordinator

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conclave-ai/conclave/internal/core"
)

func TestTracerWritesResultFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "traces")
	tracer, err := NewTracer(dir)
	require.NoError(t, err)

	result := &core.InferenceResult{
		RequestID: "abc123",
		FinalInference: []core.FinalRankingEntry{
			{Concept: "hungry", CompositeScore: 0.43},
		},
		GeneratedAnswer: "about hunger",
	}
	require.NoError(t, tracer.Write("abc123", result))

	data, err := os.ReadFile(filepath.Join(dir, "infer-abc123.json"))
	require.NoError(t, err)

	var decoded core.InferenceResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "abc123", decoded.RequestID)
	require.Len(t, decoded.FinalInference, 1)
	assert.Equal(t, "hungry", decoded.FinalInference[0].Concept)
}

func TestTracerOverwritesExistingTrace(t *testing.T) {
	dir := t.TempDir()
	tracer, err := NewTracer(dir)
	require.NoError(t, err)

	require.NoError(t, tracer.Write("r1", &core.InferenceResult{RequestID: "r1"}))
	require.NoError(t, tracer.Write("r1", &core.InferenceResult{RequestID: "r1", GeneratedAnswer: "second"}))

	data, err := os.ReadFile(filepath.Join(dir, "infer-r1.json"))
	require.NoError(t, err)

	var decoded core.InferenceResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "second", decoded.GeneratedAnswer)
}

func TestNewTracerCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")
	_, err := NewTracer(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
