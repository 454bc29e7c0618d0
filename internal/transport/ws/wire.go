// Package ws realizes the agent boundary as a bidirectional, message-oriented
// WebSocket channel. One connection carries one logical scoring conversation.
package ws

import "github.com/conclave-ai/conclave/internal/core"

// agentRequest is the tagged union accepted by a scoring agent endpoint.
// Round 1 carries the extraction input; round 2 carries the peer's records.
type agentRequest struct {
	Step  string                 `json:"step"`
	Input *core.ExtractionResult `json:"input,omitempty"`
	Peer  []core.ScoreRecord     `json:"peer,omitempty"`
}

// agentResponse is the reply for one round. Error is set only when the agent
// rejects the message; it terminates the conversation.
type agentResponse struct {
	Records []core.ScoreRecord `json:"records"`
	Error   string             `json:"error,omitempty"`
}
