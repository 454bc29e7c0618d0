package scoring

import (
	"context"

	"github.com/google/uuid"

	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/logging"
	"github.com/conclave-ai/conclave/internal/session"
)

// LocalAgent serves a scoring agent in-process, using the session store for
// round correlation exactly as the remote transport does. It is the default
// wiring when no agent URL is configured.
type LocalAgent struct {
	agent  *Agent
	store  session.Store
	logger *logging.Logger
}

// NewLocalAgent creates an in-process scoring agent.
func NewLocalAgent(agent *Agent, store session.Store, logger *logging.Logger) *LocalAgent {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &LocalAgent{
		agent:  agent,
		store:  store,
		logger: logger.WithAgent(agent.Name()),
	}
}

// Name returns the wrapped agent's identifier.
func (l *LocalAgent) Name() string { return l.agent.Name() }

// Open starts a fresh session with its own store key.
func (l *LocalAgent) Open(ctx context.Context) (core.ScoringSession, error) {
	key := uuid.NewString()
	return &localSession{
		owner:  l,
		key:    key,
		logger: l.logger.WithSession(key),
	}, nil
}

type localSession struct {
	owner  *LocalAgent
	key    string
	logger *logging.Logger
}

func (s *localSession) Round1(ctx context.Context, extraction *core.ExtractionResult) ([]core.ScoreRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records := s.owner.agent.Score(extraction)
	if err := s.owner.store.Put(s.key, session.NewSnapshot(extraction, records)); err != nil {
		return nil, core.ErrInternal("storing round-1 snapshot").WithCause(err)
	}
	s.logger.Debug("round 1 scored", "records", len(records))
	return records, nil
}

// Round2 answers with an empty adjustment when no round-1 snapshot exists for
// this session. That anomaly is logged, never raised.
func (s *localSession) Round2(ctx context.Context, peer []core.ScoreRecord) ([]core.ScoreRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap, ok := s.owner.store.Get(s.key)
	if !ok {
		s.logger.Warn("round 2 without round-1 snapshot, returning empty adjustment")
		return []core.ScoreRecord{}, nil
	}
	adjusted := s.owner.agent.Adjust(peer, snap.Round1, snap.OriginalScores)
	s.logger.Debug("round 2 adjusted", "records", len(adjusted))
	return adjusted, nil
}

func (s *localSession) Close() error {
	s.owner.store.Clear(s.key)
	return nil
}
