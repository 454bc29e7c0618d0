package judges

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/logging"
)

// Generator is the constrained text-generation collaborator used for goal
// prediction. A nil Generator degrades the judge to its rule-based table.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Goal validation parameters. Generated goals that look like boilerplate or
// bare infinitive stubs are discarded and the judge falls back.
var (
	discardKeywords = []string{"something", "get a job", "be a good friend", "do something"}

	bareInfinitive = regexp.MustCompile(`^(to\s+)?(be|get|do|have)$`)
)

const minGoalLen = 6

// defaultGoalRules is the built-in fallback table keyed by common adjectives.
var defaultGoalRules = map[string]string{
	"thirsty":  "to drink water",
	"hungry":   "to eat food",
	"tired":    "to rest or sleep",
	"angry":    "to calm down",
	"confused": "to understand something",
	"lost":     "to find direction or help",
}

// GoalJudge predicts the likely goal behind each concept: first through the
// generation collaborator with validation and an alternate-prompt retry, then
// through the rule table.
type GoalJudge struct {
	gen    Generator
	rules  map[string]string
	logger *logging.Logger
}

// NewGoalJudge creates a goal judge. gen may be nil.
func NewGoalJudge(gen Generator, logger *logging.Logger) *GoalJudge {
	if logger == nil {
		logger = logging.NewNop()
	}
	rules := make(map[string]string, len(defaultGoalRules))
	for k, v := range defaultGoalRules {
		rules[k] = v
	}
	return &GoalJudge{
		gen:    gen,
		rules:  rules,
		logger: logger.WithAgent("GoalPredictionAgent"),
	}
}

// LoadRules merges a YAML file of concept -> goal entries over the built-in
// table. Keys are lowercased.
func (j *GoalJudge) LoadRules(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading goal rules: %w", err)
	}
	var loaded map[string]string
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parsing goal rules: %w", err)
	}
	for k, v := range loaded {
		j.rules[strings.ToLower(k)] = v
	}
	return nil
}

// Predict resolves a goal for every concept. The result source is always one
// of LLM, Rule-based, or None; prediction never fails a request, it degrades.
func (j *GoalJudge) Predict(ctx context.Context, concepts []string) (map[string]core.GoalPrediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := make(map[string]core.GoalPrediction, len(concepts))
	for _, concept := range concepts {
		goal := j.generate(ctx, concept)
		switch {
		case goal != "":
			result[concept] = core.GoalPrediction{Goal: goal, Source: core.GoalSourceLLM}
		default:
			if fallback, ok := j.rules[strings.ToLower(concept)]; ok {
				result[concept] = core.GoalPrediction{Goal: fallback, Source: core.GoalSourceRuleBased}
			} else {
				result[concept] = core.GoalPrediction{Goal: "", Source: core.GoalSourceNone}
			}
		}
	}
	return result, nil
}

// generate queries the collaborator with the primary prompt and retries once
// with an alternate phrasing when the output fails validation.
func (j *GoalJudge) generate(ctx context.Context, concept string) string {
	if j.gen == nil {
		return ""
	}

	prompts := []string{
		fmt.Sprintf("What is the most likely goal of someone who is '%s'?", concept),
		fmt.Sprintf("What would someone who is '%s' most likely want to do?", concept),
	}
	for _, prompt := range prompts {
		out, err := j.gen.Generate(ctx, prompt)
		if err != nil {
			j.logger.Warn("goal generation failed", "concept", concept, "error", err)
			return ""
		}
		out = strings.TrimSpace(out)
		if isValidGoal(out) {
			return out
		}
	}
	return ""
}

// isValidGoal rejects boilerplate phrases, too-short strings, and bare
// infinitive stubs like "to be".
func isValidGoal(goal string) bool {
	lower := strings.ToLower(goal)
	for _, kw := range discardKeywords {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	if len(strings.TrimSpace(goal)) < minGoalLen {
		return false
	}
	return !bareInfinitive.MatchString(lower)
}
