package coordinator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/conclave-ai/conclave/internal/core"
)

// Tracer persists completed inference payloads as JSON files, one per
// request, written atomically so a crash mid-write never leaves a torn file.
type Tracer struct {
	dir string
}

// NewTracer creates a tracer rooted at dir.
func NewTracer(dir string) (*Tracer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating trace dir: %w", err)
	}
	return &Tracer{dir: dir}, nil
}

// Write stores the result under infer-<requestID>.json.
func (t *Tracer) Write(requestID string, result *core.InferenceResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding trace: %w", err)
	}
	path := filepath.Join(t.dir, "infer-"+requestID+".json")
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing trace: %w", err)
	}
	return nil
}
