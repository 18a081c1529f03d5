package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iksnae/tusty-chat/internal"
	"github.com/iksnae/tusty-chat/internal/exchange"
	"github.com/spf13/cobra"
)

var (
	askNewSession bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question...>",
	Short: "Ask a question in the current session",
	Long: `Send a question to the Q&A server and print the answer. The question and
answer are appended to the current session; a session is created if needed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.TrimSpace(strings.Join(args, " "))
		if question == "" {
			return errors.New("question is empty")
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if askNewSession {
			if _, err := a.repo.NewSession(); err != nil {
				return fmt.Errorf("failed to create session: %w", err)
			}
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
		defer cancel()

		ctrl := exchange.New(a.repo, a.client, exchange.WithMetrics(a.metrics))
		var ex *exchange.Exchange
		err = internal.ShowProgress(ctx, exchange.PlaceholderText, func() error {
			var sendErr error
			ex, sendErr = ctrl.Ask(ctx, question)
			return sendErr
		})
		ctrl.Drain()
		if err != nil {
			return err
		}

		text, askErr := ex.Result()
		if askErr != nil {
			return fmt.Errorf("ask failed: %w", askErr)
		}

		out := cmd.OutOrStdout()
		renderer, err := newRenderer(out, a.theme.Get())
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, renderer.Markdown(text))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().BoolVar(&askNewSession, "new", false, "Start a new session before asking")
}
