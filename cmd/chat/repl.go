package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"portfolio-backend/internal/services"
	"portfolio-backend/internal/widget"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive chat session",
	Long: `Starts an open widget session and submits each input line. Lines
starting with a slash drive the widget instead: /toggle, /open, /close,
/history and /quit.`,
	Args: cobra.NoArgs,
	RunE: runRepl,
}

func init() {
	rootCmd.AddCommand(replCmd)
}

func runRepl(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, gen, closeGen, err := loadGenerator(ctx)
	if err != nil {
		return err
	}
	defer closeGen()

	if !cfg.HasGeminiKey() {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: GEMINI_API_KEY is not set")
	}
	return repl(ctx, gen, cfg.SystemPrompt, cmd.InOrStdin(), cmd.OutOrStdout(), !quiet)
}

func repl(ctx context.Context, gen services.Generator, systemPrompt string, in io.Reader, out io.Writer, verbose bool) error {
	session := widget.NewSession(uuid.New(), gen, newTerminalRenderer(out, verbose), widget.Options{
		SystemPrompt: systemPrompt,
	})
	session.Open()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/toggle":
			session.Toggle()
		case "/open":
			session.Open()
		case "/close":
			session.Close()
		case "/history":
			for _, e := range session.Transcript() {
				fmt.Fprintf(out, "%s: %s\n", e.Role, e.Text)
			}
		default:
			if _, err := session.Submit(ctx, line); err != nil {
				fmt.Fprintf(out, "(%v)\n", err)
			}
		}
	}
	return scanner.Err()
}
