package cmd

import (
	"errors"
	"fmt"

	"github.com/iksnae/tusty-chat/internal"
	"github.com/spf13/cobra"
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a new chat session",
	Long:  `Create an empty session and make it current.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		session, err := a.repo.NewSession()
		if err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Started session %s", session.ID))
		return nil
	},
}

var switchCmd = &cobra.Command{
	Use:   "switch <session-id>",
	Short: "Make another session current",
	Long:  `Select an existing session. Selecting does not change its position in the list.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.repo.Select(args[0]); err != nil {
			if errors.Is(err, internal.ErrSessionNotFound) {
				return fmt.Errorf("%w (use 'tusty list' to see available sessions)", err)
			}
			return err
		}
		session, _ := a.repo.Session(args[0])
		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Switched to %q", session.Title))
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Import the old single-thread chat history",
	Long: `Convert a history saved by older versions into a session. This also runs
automatically whenever the store is opened; the command reports what happened.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		if !a.migrated {
			internal.PrintInfo(out, "Nothing to migrate")
			return nil
		}
		session, _ := a.repo.CurrentSession()
		internal.PrintSuccess(out, fmt.Sprintf("Migrated legacy history into %q (%d messages)", session.Title, len(session.Messages)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(switchCmd)
	rootCmd.AddCommand(migrateCmd)
}
