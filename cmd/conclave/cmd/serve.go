package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conclave-ai/conclave/internal/api"
	"github.com/conclave-ai/conclave/internal/transport/ws"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the inference API server",
	Long: `Start the HTTP server exposing the inference pipeline.

The server provides request endpoints, a server-sent-events stream of
pipeline progress, and WebSocket endpoints that expose the two scoring
agents to remote coordinators.

Examples:
  # Start with defaults (:8080)
  conclave serve

  # Start on a custom address
  conclave serve --addr :3000`,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "",
		"listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := buildPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	// The in-process agents double as remote-capable WebSocket endpoints so
	// another coordinator can dial them.
	simServer := ws.NewAgentServer(p.simAgent, p.store, logger)
	relServer := ws.NewAgentServer(p.relAgent, p.store, logger)

	server := api.NewServer(p.coordinator, p.bus,
		api.WithLogger(logger),
		api.WithAllowedOrigins(cfg.Server.AllowedOrigins),
		api.WithMount("/agents/similarity", simServer.Handler()),
		api.WithMount("/agents/relation", relServer.Handler()),
	)

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	if err := server.ListenAndServe(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
