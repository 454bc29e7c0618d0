package collab

import (
	"context"
	"fmt"
	"strings"
)

// generator matches the single-prompt completion surface of GenAIGenerator.
type generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// AnswerGenerator turns the top-ranked concepts into a short natural-language
// answer via the generative collaborator.
type AnswerGenerator struct {
	gen generator
}

// NewAnswerGenerator creates an answer generator.
func NewAnswerGenerator(gen generator) *AnswerGenerator {
	return &AnswerGenerator{gen: gen}
}

// Generate builds the answer prompt and returns the model's reply. Callers
// treat failure as a soft outcome: the answer field degrades to empty.
func (a *AnswerGenerator) Generate(ctx context.Context, concepts []string) (string, error) {
	if len(concepts) == 0 {
		return "", fmt.Errorf("no concepts provided")
	}
	prompt := fmt.Sprintf(
		"Given the following important concepts extracted from a question: %s.\n"+
			"Based on these concepts, infer what the original question might be asking about and generate a short and accurate answer.\n"+
			"Only provide the answer, without repeating the concepts or the question.",
		strings.Join(concepts, ", "),
	)
	return a.gen.Generate(ctx, prompt)
}
