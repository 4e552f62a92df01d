package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"rentnerd/internal/orchestrator"
	"rentnerd/internal/perception"
	"rentnerd/internal/store"
	"rentnerd/internal/types"
)

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	textStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	dataStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	fieldStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		// Store and LLM client are independent; bring them up in parallel.
		var (
			db     *store.LocalStore
			client perception.LLMClient
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			db, err = store.NewLocalStore(cfg.Store.DatabasePath)
			return err
		})
		g.Go(func() error {
			var err error
			client, err = perception.NewClientFromConfig(gctx, cfg.LLM)
			return err
		})
		if err := g.Wait(); err != nil {
			return fmt.Errorf("startup failed: %w", err)
		}
		defer db.Close()

		orch := orchestrator.New(
			perception.NewClassifier(client),
			perception.NewCollector(client),
			perception.NewGeneralAnswerer(client),
			orchestrator.NewExecutor(db),
			db,
			client.Model(),
		)
		sess := orchestrator.NewSession()

		fmt.Println(promptStyle.Render("rentNERD") + textStyle.Render("  /quit to exit, /reset to abandon the current operation"))

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print(promptStyle.Render("> "))
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			switch line {
			case "/quit", "/exit":
				return nil
			case "/reset":
				sess.ResetOperation()
				fmt.Println(textStyle.Render("Operation abandoned."))
				continue
			}

			env, err := orch.HandleTurn(ctx, sess, line)
			if err != nil {
				// HandleTurn already reset the session; the envelope
				// describes the failure.
				fmt.Println(errorStyle.Render(env.Result.Message))
				continue
			}
			renderEnvelope(env)
		}
		return scanner.Err()
	},
}

// renderEnvelope prints one outbound envelope.
func renderEnvelope(env types.Envelope) {
	switch env.Type {
	case types.EnvelopeText:
		fmt.Println(textStyle.Render(env.Result.Message))
	case types.EnvelopeData:
		fmt.Println(dataStyle.Render(env.Result.Message))
		for _, rec := range env.Result.Payload {
			fmt.Println(dataStyle.Render("  • " + recordLine(rec)))
		}
	case types.EnvelopeError:
		fmt.Println(errorStyle.Render(env.Result.Message))
	}
	fmt.Println(fieldStyle.Render(fmt.Sprintf("  [%s/%s]", env.AnswerSource, env.Model)))
}

// recordLine flattens a record for terminal display.
func recordLine(rec types.Record) string {
	parts := make([]string, 0, len(rec.Fields))
	for k, v := range rec.Fields {
		parts = append(parts, k+"="+v)
	}
	sort.Strings(parts)
	return fmt.Sprintf("%s %s", rec.EntityType, strings.Join(parts, " "))
}
