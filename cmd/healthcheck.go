package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/tusty-chat/internal"
	"github.com/spf13/cobra"
)

var (
	healthcheckSkipServer bool
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that the session store and Q&A server are reachable",
	Long: `Check the health of tusty by verifying:
  • Configuration loading
  • Session database access
  • Stored session data
  • Q&A server reachability

Use --verbose for paths and stored keys.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		println := func(a ...interface{}) { _, _ = fmt.Fprintln(out, a...) }
		printf := func(format string, a ...interface{}) { _, _ = fmt.Fprintf(out, format, a...) }

		println(sectionStyle.Render("Tusty Health Check"))
		println()

		// Step 1: Configuration
		println(infoStyle.Render("Step 1: Loading configuration..."))
		println(successStyle.Render("✅ Configuration loaded"))
		if verbose {
			printf("   Server: %s\n", cfg.ServerURL)
			printf("   Database: %s\n", cfg.Database)
			printf("   Request timeout: %s\n", cfg.RequestTimeout)
		}
		println()

		// Step 2: Database
		println(infoStyle.Render("Step 2: Opening session store..."))
		a, err := openApp()
		if err != nil {
			println(errorStyle.Render("❌ Failed to open session store:"), err)
			return fmt.Errorf("health check failed: %w", err)
		}
		defer a.Close()
		if a.db == nil {
			println(warningStyle.Render("⚠️  Using in-memory store (--ephemeral)"))
		} else {
			println(successStyle.Render("✅ Session database ready"))
			if verbose {
				pairs, err := internal.QueryChatDiskKV(a.db, "tusty_%")
				if err != nil {
					println(warningStyle.Render("⚠️  Could not list stored keys:"), err)
				}
				for _, p := range pairs {
					printf("   %s (%s)\n", p.Key, internal.HumanSize(int64(len(p.Value))))
				}
			}
		}
		println()

		// Step 3: Sessions
		println(infoStyle.Render("Step 3: Loading sessions..."))
		sessions := a.repo.ListSessions()
		if len(sessions) > 0 {
			println(successStyle.Render(fmt.Sprintf("✅ Found %d session(s)", len(sessions))))
			if verbose {
				for i, s := range sessions {
					if i == 5 {
						printf("   ... and %d more\n", len(sessions)-5)
						break
					}
					printf("   [%d] %s (ID: %s)\n", i+1, s.Title, s.ID)
				}
			}
		} else {
			println(warningStyle.Render("⚠️  No sessions yet"))
		}
		if a.migrated {
			println(infoStyle.Render("   Legacy history was migrated"))
		}
		println()

		// Step 4: Server
		serverOK := true
		if healthcheckSkipServer {
			println(infoStyle.Render("Step 4: Skipping server check"))
		} else {
			println(infoStyle.Render("Step 4: Contacting Q&A server..."))
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			err := a.client.Ping(ctx)
			cancel()
			if err != nil {
				serverOK = false
				println(errorStyle.Render("❌ Server unreachable:"), err)
				printf("   Expected a server at %s\n", a.client.BaseURL())
			} else {
				println(successStyle.Render("✅ Server reachable at " + a.client.BaseURL()))
			}
		}
		println()

		// Summary
		println(sectionStyle.Render("Summary"))
		println()
		if !serverOK {
			println(errorStyle.Render("❌ Health check failed"))
			println("   • Session store: Available")
			println("   • Server: Unreachable")
			return fmt.Errorf("health check failed: server unreachable")
		}
		println(successStyle.Render("✅ Health check passed!"))
		println(successStyle.Render(fmt.Sprintf("   • Sessions: %d stored", len(sessions))))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVar(&healthcheckSkipServer, "skip-server", false, "Don't contact the Q&A server")
}
