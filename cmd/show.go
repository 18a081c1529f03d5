package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/tusty-chat/internal"
	"github.com/iksnae/tusty-chat/internal/view"
	"github.com/spf13/cobra"
)

var (
	limit int
)

var (
	// Styles for show command
	sessionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				Padding(0, 1).
				MarginBottom(1)

	sessionMetaStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				MarginBottom(1)
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Show the messages of a session",
	Long:  `Display a chat session. Without an id the current session is shown.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		id := a.repo.CurrentID()
		if len(args) == 1 {
			id = args[0]
		}
		out := cmd.OutOrStdout()
		if id == "" {
			_, _ = fmt.Fprintln(out, "No current session. Start one with `tusty new` or `tusty ask`.")
			return nil
		}

		session, ok := a.repo.Session(id)
		if !ok {
			return fmt.Errorf("%w: %s (use 'tusty list' to see available sessions)", internal.ErrSessionNotFound, id)
		}

		renderer, err := newRenderer(out, a.theme.Get())
		if err != nil {
			return err
		}
		displaySession(out, renderer, session, limit)
		return nil
	},
}

// newRenderer builds a view renderer, uncolored when out isn't a terminal.
func newRenderer(out io.Writer, theme string) (*view.Renderer, error) {
	return view.NewRenderer(view.RendererOptions{
		Theme: theme,
		Width: 100,
		Plain: !internal.IsTerminal(out),
	})
}

func displaySession(out io.Writer, renderer *view.Renderer, session internal.ChatSession, limit int) {
	total := len(session.Messages)
	if limit > 0 && total > limit {
		session.Messages = session.Messages[total-limit:]
	}

	_, _ = fmt.Fprintln(out, sessionHeaderStyle.Render(session.Title))
	meta := fmt.Sprintf("%s · %d message(s) · updated %s", session.ID, total,
		session.GetUpdatedAt().Local().Format("2006-01-02 15:04"))
	if len(session.Messages) < total {
		meta += fmt.Sprintf(" · showing last %d", len(session.Messages))
	}
	_, _ = fmt.Fprintln(out, sessionMetaStyle.Render(meta))
	_, _ = fmt.Fprint(out, renderer.Pane(view.Pane(session)))
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show only the last N messages")
}
