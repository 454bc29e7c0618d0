package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conclave-ai/conclave/internal/core"
)

var inferCmd = &cobra.Command{
	Use:   "infer [text]",
	Short: "Run one inference and print the result",
	Long: `Run the full scoring pipeline for one input and print the result as JSON.

The input is either raw text, which goes through the extraction
collaborator, or a pre-computed extraction payload loaded from a file.

Examples:
  # Infer from raw text
  conclave infer "I am hungry and tired"

  # Infer from a saved extraction payload
  conclave infer --extraction extraction.json`,
	RunE: runInfer,
}

var inferExtractionFile string

func init() {
	rootCmd.AddCommand(inferCmd)

	inferCmd.Flags().StringVar(&inferExtractionFile, "extraction", "",
		"path to a JSON extraction payload (skips the extraction collaborator)")
}

func runInfer(cmd *cobra.Command, args []string) error {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" && inferExtractionFile == "" {
		return fmt.Errorf("either input text or --extraction is required")
	}

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

	var result *core.InferenceResult
	if inferExtractionFile != "" {
		data, err := os.ReadFile(inferExtractionFile)
		if err != nil {
			return fmt.Errorf("reading extraction payload: %w", err)
		}
		var extraction core.ExtractionResult
		if err := json.Unmarshal(data, &extraction); err != nil {
			return fmt.Errorf("parsing extraction payload: %w", err)
		}
		if len(extraction.Concepts) == 0 {
			return fmt.Errorf("extraction payload has no concepts")
		}
		result, err = p.coordinator.Infer(ctx, &extraction)
		if err != nil {
			return err
		}
	} else {
		result, err = p.coordinator.InferText(ctx, text)
		if err != nil {
			return err
		}
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
