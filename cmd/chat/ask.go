package main

import (
	"context"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"portfolio-backend/internal/services"
	"portfolio-backend/internal/widget"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Send one question and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, gen, closeGen, err := loadGenerator(ctx)
	if err != nil {
		return err
	}
	defer closeGen()

	return ask(ctx, gen, cfg.SystemPrompt, strings.Join(args, " "), cmd.OutOrStdout(), !quiet)
}

// ask runs a single widget turn. A failed turn is printed as its error bubble
// and also returned so the process exits non-zero.
func ask(ctx context.Context, gen services.Generator, systemPrompt, question string, out io.Writer, verbose bool) error {
	session := widget.NewSession(uuid.New(), gen, newTerminalRenderer(out, verbose), widget.Options{
		SystemPrompt: systemPrompt,
	})
	session.Open()

	outcome, err := session.Submit(ctx, question)
	if err != nil {
		return err
	}
	return outcome.Err
}
