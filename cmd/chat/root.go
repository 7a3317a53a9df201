package main

import (
	"context"

	"github.com/spf13/cobra"

	"portfolio-backend/internal/config"
	"portfolio-backend/internal/services"
)

var (
	modelFlag     string
	transportFlag string
	quiet         bool
)

var rootCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the portfolio assistant from a terminal",
	Long: `chat drives the same widget session the website uses: identical prompt
composition, context window and error bubbles, rendered to the terminal
instead of the page. Configuration comes from the environment or a .env file.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&modelFlag, "model", "", "override GEMINI_MODEL")
	rootCmd.PersistentFlags().StringVar(&transportFlag, "transport", "", "override GEMINI_TRANSPORT (rest or sdk)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "hide widget state and typing lines")
}

// loadGenerator resolves config plus flag overrides into a generator.
func loadGenerator(ctx context.Context) (*config.Config, services.Generator, func(), error) {
	cfg := config.Load()
	if modelFlag != "" {
		cfg.GeminiModel = modelFlag
	}
	if transportFlag != "" {
		cfg.GeminiTransport = transportFlag
	}

	gen, closeFn, err := services.NewGenerator(ctx, services.GeneratorOptions{
		Transport: cfg.GeminiTransport,
		APIKey:    cfg.GeminiAPIKey,
		Model:     cfg.GeminiModel,
		BaseURL:   cfg.GeminiBaseURL,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, gen, closeFn, nil
}
