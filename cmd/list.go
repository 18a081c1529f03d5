package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/tusty-chat/internal"
	"github.com/iksnae/tusty-chat/internal/view"
	"github.com/spf13/cobra"
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List chat sessions",
	Long:  `List chat sessions, most recently updated first. The current session is marked with ▸.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		sessions := a.repo.ListSessions()
		displaySessions(cmd, sessions, a.repo.CurrentID(), time.Now())
		return nil
	},
}

func displaySessions(cmd *cobra.Command, sessions []internal.ChatSession, currentID string, now time.Time) {
	out := cmd.OutOrStdout()
	if len(sessions) == 0 {
		_, _ = fmt.Fprintln(out, headerStyle.Render("No sessions yet. Start one with `tusty ask` or `tusty chat`."))
		return
	}

	_, _ = fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Found %d session(s)", len(sessions))))
	_, _ = fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, " \t"+titleStyle.Render("ID")+"\t"+titleStyle.Render("Title")+"\t"+titleStyle.Render("Messages")+"\t"+titleStyle.Render("Updated")+"\t")

	items := view.Sidebar(sessions, currentID, now)
	for i, item := range items {
		marker := " "
		title := item.Title
		if item.Active {
			marker = activeStyle.Render("▸")
			title = activeStyle.Render(title)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
			marker,
			idStyle.Render(item.ID),
			title,
			countStyle.Render(strconv.Itoa(len(sessions[i].Messages))),
			dateStyle.Render(item.Recency),
		)
	}
	_ = w.Flush()

	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, idStyle.Render("Tip: `tusty switch <id>` changes the current session, `tusty show <id>` prints one."))
}

func init() {
	rootCmd.AddCommand(listCmd)
}
