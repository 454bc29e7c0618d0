package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// EntailmentClient calls a natural-language-inference collaborator that
// classifies whether a goal follows from a concept. Used by the verifier.
type EntailmentClient struct {
	url    string
	client *http.Client
}

// NewEntailmentClient creates a client for the NLI endpoint.
func NewEntailmentClient(url string, timeout time.Duration) *EntailmentClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &EntailmentClient{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Entail classifies the premise/hypothesis pair. The verifier treats any
// error as a failed check, not a failed request.
func (c *EntailmentClient) Entail(ctx context.Context, premise, hypothesis string) (string, float64, error) {
	body, err := json.Marshal(map[string]string{
		"premise":    premise,
		"hypothesis": hypothesis,
	})
	if err != nil {
		return "", 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("entailment collaborator returned %d", resp.StatusCode)
	}

	var result struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", 0, err
	}
	return result.Label, result.Score, nil
}
