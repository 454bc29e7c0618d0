package ws

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/logging"
)

// Client dials a remote scoring agent. It implements core.ScoringAgent: each
// Open starts one WebSocket connection carrying one two-round conversation.
type Client struct {
	name    string
	url     string
	timeout time.Duration
	logger  *logging.Logger
}

// NewClient creates a client for the named agent at a ws:// or wss:// URL.
func NewClient(name, url string, timeout time.Duration, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		name:    name,
		url:     url,
		timeout: timeout,
		logger:  logger.WithAgent(name),
	}
}

// Name returns the agent identifier.
func (c *Client) Name() string { return c.name }

// Open dials the agent endpoint.
func (c *Client) Open(ctx context.Context) (core.ScoringSession, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return nil, core.ErrTransport("dialing " + c.url).WithCause(err)
	}
	return &clientSession{client: c, conn: conn}, nil
}

type clientSession struct {
	client *Client
	conn   *websocket.Conn
}

func (s *clientSession) Round1(ctx context.Context, extraction *core.ExtractionResult) ([]core.ScoreRecord, error) {
	return s.roundTrip(ctx, agentRequest{Step: core.StepRound1, Input: extraction})
}

func (s *clientSession) Round2(ctx context.Context, peer []core.ScoreRecord) ([]core.ScoreRecord, error) {
	return s.roundTrip(ctx, agentRequest{Step: core.StepRound2, Peer: peer})
}

// roundTrip sends one request frame and waits for the matching response. The
// protocol is strictly request/response per connection, so no demultiplexing
// is needed.
func (s *clientSession) roundTrip(ctx context.Context, req agentRequest) ([]core.ScoreRecord, error) {
	deadline := time.Now().Add(s.client.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	_ = s.conn.SetWriteDeadline(deadline)
	if err := s.conn.WriteJSON(req); err != nil {
		return nil, core.ErrTransport("sending " + req.Step).WithCause(err)
	}

	_ = s.conn.SetReadDeadline(deadline)
	var resp agentResponse
	if err := s.conn.ReadJSON(&resp); err != nil {
		return nil, core.ErrTransport("reading " + req.Step + " response").WithCause(err)
	}
	if resp.Error != "" {
		return nil, core.ErrTransport("agent rejected " + req.Step + ": " + resp.Error)
	}
	return resp.Records, nil
}

func (s *clientSession) Close() error {
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return s.conn.Close()
}
