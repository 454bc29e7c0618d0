package config

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation: %s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// Validate validates the entire configuration.
func (v *Validator) Validate(cfg *Config) error {
	v.validateLog(&cfg.Log)
	v.validateServer(&cfg.Server)
	v.validateCoordinator(&cfg.Coordinator)
	v.validateScoring(&cfg.Scoring)
	v.validateSession(&cfg.Session)
	v.validateAgents(&cfg.Agents)
	v.validateJudges(&cfg.Judges)
	v.validateExtraction(&cfg.Extraction)

	if len(v.errors) > 0 {
		return v.errors
	}
	return nil
}

// Errors returns the collected validation errors.
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

func (v *Validator) addError(field string, value interface{}, msg string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Value:   value,
		Message: msg,
	})
}

func (v *Validator) validateLog(cfg *LogConfig) {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[cfg.Level] {
		v.addError("log.level", cfg.Level, "must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"auto": true, "text": true, "json": true,
	}
	if !validFormats[cfg.Format] {
		v.addError("log.format", cfg.Format, "must be one of: auto, text, json")
	}
}

func (v *Validator) validateServer(cfg *ServerConfig) {
	if cfg.Addr == "" {
		v.addError("server.addr", cfg.Addr, "listen address required")
	}
	v.validateDuration("server.read_timeout", cfg.ReadTimeout)
	v.validateDuration("server.write_timeout", cfg.WriteTimeout)
	v.validateDuration("server.shutdown_timeout", cfg.ShutdownTimeout)
}

func (v *Validator) validateCoordinator(cfg *CoordinatorConfig) {
	v.validateDuration("coordinator.judge_timeout", cfg.JudgeTimeout)
	v.validateDuration("coordinator.review_timeout", cfg.ReviewTimeout)
	v.validateDuration("coordinator.answer_timeout", cfg.AnswerTimeout)

	if cfg.TopN <= 0 {
		v.addError("coordinator.top_n", cfg.TopN, "must be positive")
	}
	if cfg.TraceEnabled && cfg.TraceDir == "" {
		v.addError("coordinator.trace_dir", cfg.TraceDir, "directory required when tracing is enabled")
	}
}

func (v *Validator) validateScoring(cfg *ScoringConfig) {
	v.validateWeights("scoring.similarity", cfg.Similarity)
	v.validateWeights("scoring.relation", cfg.Relation)
}

func (v *Validator) validateWeights(field string, w RoleWeightsConfig) {
	if w.Similarity < 0 || w.Similarity > 1 {
		v.addError(field+".similarity", w.Similarity, "must be between 0 and 1")
	}
	if w.Relation < 0 || w.Relation > 1 {
		v.addError(field+".relation", w.Relation, "must be between 0 and 1")
	}
	sum := w.Similarity + w.Relation
	if sum < 0.999 || sum > 1.001 {
		v.addError(field, sum, "weights must sum to 1")
	}
}

func (v *Validator) validateSession(cfg *SessionConfig) {
	validBackends := map[string]bool{
		"memory": true, "sqlite": true,
	}
	if !validBackends[cfg.Backend] {
		v.addError("session.backend", cfg.Backend, "must be one of: memory, sqlite")
	}
	v.validateDuration("session.ttl", cfg.TTL)

	if cfg.Backend == "sqlite" && cfg.Path == "" {
		v.addError("session.path", cfg.Path, "database path required for sqlite backend")
	}
}

func (v *Validator) validateAgents(cfg *AgentsConfig) {
	v.validateRemoteAgent("agents.similarity", &cfg.Similarity)
	v.validateRemoteAgent("agents.relation", &cfg.Relation)
}

func (v *Validator) validateRemoteAgent(field string, cfg *RemoteAgentConfig) {
	if cfg.URL != "" && !strings.HasPrefix(cfg.URL, "ws://") && !strings.HasPrefix(cfg.URL, "wss://") {
		v.addError(field+".url", cfg.URL, "must be a ws:// or wss:// URL")
	}
	v.validateDuration(field+".timeout", cfg.Timeout)
}

func (v *Validator) validateJudges(cfg *JudgesConfig) {
	if cfg.EntailmentThreshold < 0 || cfg.EntailmentThreshold > 1 {
		v.addError("judges.entailment_threshold", cfg.EntailmentThreshold, "must be between 0 and 1")
	}
	if cfg.DebaterDelta < 0 {
		v.addError("judges.debater_delta", cfg.DebaterDelta, "must not be negative")
	}
}

func (v *Validator) validateExtraction(cfg *ExtractionConfig) {
	if cfg.URL == "" {
		v.addError("extraction.url", cfg.URL, "extraction endpoint required")
	}
	v.validateDuration("extraction.timeout", cfg.Timeout)
}

func (v *Validator) validateDuration(field, value string) {
	if value == "" {
		return
	}
	if _, err := time.ParseDuration(value); err != nil {
		v.addError(field, value, "invalid duration")
	}
}
