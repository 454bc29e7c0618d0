package events

// Event type constants for the inference pipeline.
const (
	TypePipelineStarted   = "pipeline_started"
	TypeRoundCompleted    = "round_completed"
	TypeJudgeDegraded     = "judge_degraded"
	TypeRankingProduced   = "ranking_produced"
	TypePipelineCompleted = "pipeline_completed"
	TypePipelineFailed    = "pipeline_failed"
)

// PipelineStartedEvent marks the start of an inference request.
type PipelineStartedEvent struct {
	BaseEvent
	ConceptCount int `json:"concept_count"`
}

// NewPipelineStarted creates a pipeline_started event.
func NewPipelineStarted(requestID string, conceptCount int) PipelineStartedEvent {
	return PipelineStartedEvent{
		BaseEvent:    NewBaseEvent(TypePipelineStarted, requestID),
		ConceptCount: conceptCount,
	}
}

// RoundCompletedEvent marks completion of a scoring round for one agent.
type RoundCompletedEvent struct {
	BaseEvent
	Agent   string `json:"agent"`
	Round   string `json:"round"`
	Records int    `json:"records"`
}

// NewRoundCompleted creates a round_completed event.
func NewRoundCompleted(requestID, agent, round string, records int) RoundCompletedEvent {
	return RoundCompletedEvent{
		BaseEvent: NewBaseEvent(TypeRoundCompleted, requestID),
		Agent:     agent,
		Round:     round,
		Records:   records,
	}
}

// JudgeDegradedEvent records a judge call that timed out or failed and was
// absorbed as an empty contribution.
type JudgeDegradedEvent struct {
	BaseEvent
	Judge  string `json:"judge"`
	Reason string `json:"reason"`
}

// NewJudgeDegraded creates a judge_degraded event.
func NewJudgeDegraded(requestID, judge, reason string) JudgeDegradedEvent {
	return JudgeDegradedEvent{
		BaseEvent: NewBaseEvent(TypeJudgeDegraded, requestID),
		Judge:     judge,
		Reason:    reason,
	}
}

// RankingProducedEvent carries the size and leader of a computed ranking.
type RankingProducedEvent struct {
	BaseEvent
	Entries int    `json:"entries"`
	Top     string `json:"top,omitempty"`
}

// NewRankingProduced creates a ranking_produced event.
func NewRankingProduced(requestID string, entries int, top string) RankingProducedEvent {
	return RankingProducedEvent{
		BaseEvent: NewBaseEvent(TypeRankingProduced, requestID),
		Entries:   entries,
		Top:       top,
	}
}

// PipelineCompletedEvent marks a request that returned a payload.
type PipelineCompletedEvent struct {
	BaseEvent
	Answer string `json:"answer,omitempty"`
}

// NewPipelineCompleted creates a pipeline_completed event.
func NewPipelineCompleted(requestID, answer string) PipelineCompletedEvent {
	return PipelineCompletedEvent{
		BaseEvent: NewBaseEvent(TypePipelineCompleted, requestID),
		Answer:    answer,
	}
}

// PipelineFailedEvent marks a request that failed outright.
type PipelineFailedEvent struct {
	BaseEvent
	Reason string `json:"reason"`
}

// NewPipelineFailed creates a pipeline_failed event.
func NewPipelineFailed(requestID, reason string) PipelineFailedEvent {
	return PipelineFailedEvent{
		BaseEvent: NewBaseEvent(TypePipelineFailed, requestID),
		Reason:    reason,
	}
}
