package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/tusty-chat/internal"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	dbPath     string
	serverURL  string
	ephemeral  bool
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"

	// cfg is loaded before every command runs
	cfg internal.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tusty",
	Short: "Chat with your documents from the terminal",
	Long: `Tusty keeps a local history of chat sessions and asks a document Q&A
server questions about the files you upload to it.

Sessions are stored in a SQLite database (~/.tusty/tusty.db by default). The
50 most recently updated sessions are kept.

Quick Start:
  tusty upload contract.pdf        # Send a document to the server
  tusty ask "When does it renew?"  # Ask about it in the current session
  tusty chat                       # Open the interactive chat screen
  tusty list                       # List your sessions`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := internal.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if dbPath != "" {
			loaded.Database = dbPath
		}
		if serverURL != "" {
			loaded.ServerURL = serverURL
		}
		cfg = loaded

		internal.SetLogOutput(os.Stderr, cfg.LogFormat)
		internal.SetLogLevel(internal.ParseLogLevel(cfg.LogLevel))
		if verbose {
			internal.SetVerbose(true)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.tusty/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Session database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Q&A server URL (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "Keep sessions in memory only")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
