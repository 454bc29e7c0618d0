// Package api exposes the inference pipeline over HTTP: request endpoints,
// a server-sent-events stream, and mount points for the agent WebSocket
// transports.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/conclave-ai/conclave/internal/coordinator"
	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/events"
	"github.com/conclave-ai/conclave/internal/logging"
)

// Server serves the inference API.
type Server struct {
	router         chi.Router
	coordinator    *coordinator.Coordinator
	bus            *events.Bus
	logger         *logging.Logger
	allowedOrigins []string
	mounts         map[string]http.Handler
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *logging.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithAllowedOrigins overrides the CORS origin allowlist.
func WithAllowedOrigins(origins []string) ServerOption {
	return func(s *Server) {
		if len(origins) > 0 {
			s.allowedOrigins = origins
		}
	}
}

// WithMount attaches an extra handler at the given pattern. Used to expose
// the in-process scoring agents over WebSocket.
func WithMount(pattern string, handler http.Handler) ServerOption {
	return func(s *Server) {
		s.mounts[pattern] = handler
	}
}

// NewServer creates a new API server.
func NewServer(coord *coordinator.Coordinator, bus *events.Bus, opts ...ServerOption) *Server {
	s := &Server{
		coordinator:    coord,
		bus:            bus,
		logger:         logging.NewNop(),
		allowedOrigins: []string{"*"},
		mounts:         make(map[string]http.Handler),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.router = s.setupRouter()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRouter configures Chi router with all routes and middleware.
func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.loggingMiddleware)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		AllowCredentials: false,
		MaxAge:           300,
	})
	r.Use(corsHandler.Handler)

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/infer", s.handleInfer)
		r.Post("/coordinate", s.handleCoordinate)
		r.Get("/events", s.handleSSE)
	})

	// Agent WebSocket endpoints and other extras
	for pattern, handler := range s.mounts {
		r.Handle(pattern, handler)
	}

	return r
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"bytes", ww.BytesWritten(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondError sends a JSON error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

type inferRequest struct {
	Text       string                 `json:"text"`
	Extraction *core.ExtractionResult `json:"extraction,omitempty"`
}

// handleInfer runs the full pipeline for one input. Accepts either raw text,
// which goes through the extraction collaborator, or a pre-computed
// extraction payload.
func (s *Server) handleInfer(w http.ResponseWriter, r *http.Request) {
	var req inferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var (
		result *core.InferenceResult
		err    error
	)
	switch {
	case req.Extraction != nil:
		if len(req.Extraction.Concepts) == 0 {
			respondError(w, http.StatusUnprocessableEntity, "extraction has no concepts")
			return
		}
		result, err = s.coordinator.Infer(r.Context(), req.Extraction)
	case req.Text != "":
		result, err = s.coordinator.InferText(r.Context(), req.Text)
	default:
		respondError(w, http.StatusUnprocessableEntity, "either text or extraction is required")
		return
	}

	if err != nil {
		status, _ := httpStatusForDomainError(err)
		if status == 0 {
			status = http.StatusInternalServerError
		}
		respondError(w, status, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}

type coordinateRequest struct {
	Similarity []core.ScoreRecord         `json:"similarity"`
	Relation   []core.ScoreRecord         `json:"relation"`
	Relations  map[string][]core.Relation `json:"relations,omitempty"`
}

// handleCoordinate merges pre-scored round-2 outputs for clients that run
// their own scoring agents.
func (s *Server) handleCoordinate(w http.ResponseWriter, r *http.Request) {
	var req coordinateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Similarity) == 0 && len(req.Relation) == 0 {
		respondError(w, http.StatusUnprocessableEntity, "at least one agent's records are required")
		return
	}

	result, err := s.coordinator.Coordinate(r.Context(), req.Similarity, req.Relation, req.Relations)
	if err != nil {
		status, _ := httpStatusForDomainError(err)
		if status == 0 {
			status = http.StatusInternalServerError
		}
		respondError(w, status, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// ListenAndServe starts the HTTP server and shuts it down when ctx is
// canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("starting API server", "addr", addr)
	return srv.ListenAndServe()
}
