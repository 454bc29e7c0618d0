// Package collab implements clients for the external collaborators: the
// extraction NLP pipeline, the generative language model, and the
// natural-language-inference service.
package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/conclave-ai/conclave/internal/core"
)

// ExtractionClient calls the concept-extraction collaborator over HTTP. The
// collaborator owns tokenization, embeddings, and knowledge-graph lookups;
// this client only moves the payload.
type ExtractionClient struct {
	url    string
	client *http.Client
}

// NewExtractionClient creates a client for the extraction endpoint.
func NewExtractionClient(url string, timeout time.Duration) *ExtractionClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ExtractionClient{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Extract submits text and decodes the extraction result. Any failure here is
// fatal to the request: the coordinator surfaces a clear upstream error
// instead of proceeding partially.
func (c *ExtractionClient) Extract(ctx context.Context, text string) (*core.ExtractionResult, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, core.ErrExtraction("encoding request").WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, core.ErrExtraction("building request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, core.ErrExtraction("extraction collaborator unreachable").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, core.ErrExtraction(fmt.Sprintf("extraction collaborator returned %d", resp.StatusCode))
	}

	var result core.ExtractionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, core.ErrExtraction("malformed extraction response").WithCause(err)
	}
	if len(result.Concepts) == 0 {
		return nil, core.ErrExtraction("extraction produced no concepts")
	}
	return &result, nil
}
