package ws

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/logging"
	"github.com/conclave-ai/conclave/internal/scoring"
	"github.com/conclave-ai/conclave/internal/session"
)

// AgentServer serves a scoring agent over WebSocket. Each accepted connection
// gets its own session key, so round-2 messages are correlated with the
// round-1 snapshot through the session store rather than the connection
// object itself.
type AgentServer struct {
	agent        *scoring.Agent
	store        session.Store
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	logger       *logging.Logger
}

// NewAgentServer creates a WebSocket endpoint for the given agent.
func NewAgentServer(agent *scoring.Agent, store session.Store, logger *logging.Logger) *AgentServer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &AgentServer{
		agent: agent,
		store: store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1 << 16,
			WriteBufferSize: 1 << 16,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		writeTimeout: 10 * time.Second,
		logger:       logger.WithAgent(agent.Name()),
	}
}

// Handler upgrades the request and runs the round protocol until the client
// disconnects or sends an unknown step.
func (s *AgentServer) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.logger.Warn("websocket upgrade failed", "error", err)
			return
		}
		s.serve(conn)
	}
}

func (s *AgentServer) serve(conn *websocket.Conn) {
	sessionKey := uuid.NewString()
	log := s.logger.WithSession(sessionKey)
	defer func() {
		s.store.Clear(sessionKey)
		conn.Close()
		log.Debug("session ended")
	}()

	for {
		var req agentRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("connection closed unexpectedly", "error", err)
			}
			return
		}

		switch req.Step {
		case core.StepRound1:
			if req.Input == nil {
				s.reject(conn, log, "round1 message missing input")
				return
			}
			records := s.agent.Score(req.Input)
			if err := s.store.Put(sessionKey, session.NewSnapshot(req.Input, records)); err != nil {
				s.reject(conn, log, "storing round-1 snapshot failed")
				return
			}
			if !s.send(conn, log, agentResponse{Records: records}) {
				return
			}

		case core.StepRound2:
			snap, ok := s.store.Get(sessionKey)
			if !ok {
				// Defined failure: empty adjustment, logged, no crash.
				log.Warn("round 2 without round-1 snapshot, returning empty adjustment")
				if !s.send(conn, log, agentResponse{Records: []core.ScoreRecord{}}) {
					return
				}
				continue
			}
			adjusted := s.agent.Adjust(req.Peer, snap.Round1, snap.OriginalScores)
			if !s.send(conn, log, agentResponse{Records: adjusted}) {
				return
			}

		default:
			// Unknown step terminates the conversation.
			s.reject(conn, log, "unknown step: "+req.Step)
			return
		}
	}
}

func (s *AgentServer) send(conn *websocket.Conn, log *logging.Logger, resp agentResponse) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	if err := conn.WriteJSON(resp); err != nil {
		log.Warn("write failed", "error", err)
		return false
	}
	return true
}

func (s *AgentServer) reject(conn *websocket.Conn, log *logging.Logger, reason string) {
	log.Warn("rejecting message", "reason", reason)
	_ = conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	_ = conn.WriteJSON(agentResponse{Error: reason})
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason),
		time.Now().Add(time.Second))
}
