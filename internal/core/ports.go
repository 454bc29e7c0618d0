package core

import "context"

// Extractor is the concept-extraction collaborator. It is a hard dependency:
// when it is unreachable the request fails, no partial pipeline proceeds.
type Extractor interface {
	Extract(ctx context.Context, text string) (*ExtractionResult, error)
}

// ScoringSession is one two-round conversation with a scoring agent. Round2
// must not be issued before Round1 has completed for the same session; a
// conforming implementation answers an out-of-order Round2 with an empty
// adjustment rather than an error.
type ScoringSession interface {
	Round1(ctx context.Context, extraction *ExtractionResult) ([]ScoreRecord, error)
	Round2(ctx context.Context, peer []ScoreRecord) ([]ScoreRecord, error)
	Close() error
}

// ScoringAgent is one of the two required reasoning agents (Similarity or
// Relation role). Open starts a fresh session; sessions from different
// requests are independent.
type ScoringAgent interface {
	Name() string
	Open(ctx context.Context) (ScoringSession, error)
}

// GoalPredictor resolves an inferred goal per concept.
type GoalPredictor interface {
	Predict(ctx context.Context, concepts []string) (map[string]GoalPrediction, error)
}

// ContradictionChecker reports antonym-type concept pairs.
type ContradictionChecker interface {
	Check(ctx context.Context, concepts []string, relations map[string][]Relation) ([]ContradictionPair, error)
}

// Critic scores the final ranking with additive penalties. It is the only
// judge whose output may alter composite scores.
type Critic interface {
	Critique(ctx context.Context, ranking []FinalRankingEntry) ([]CriticFinding, error)
}

// Reviewer is an advisory judge (debater or verifier). Challenges annotate
// the final payload but never change scores.
type Reviewer interface {
	Name() string
	Review(ctx context.Context, ranking []FinalRankingEntry) ([]Challenge, error)
}

// AnswerGenerator produces a natural-language answer from the top concepts.
type AnswerGenerator interface {
	Generate(ctx context.Context, concepts []string) (string, error)
}
