package cmd

import (
	"fmt"

	"github.com/iksnae/tusty-chat/internal"
	"github.com/spf13/cobra"
)

var themeCmd = &cobra.Command{
	Use:       "theme [dark|light|toggle]",
	Short:     "Show or change the color theme",
	Long:      `Print the current theme, set it to dark or light, or toggle between them.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{internal.ThemeDark, internal.ThemeLight, "toggle"},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		if len(args) == 0 {
			_, _ = fmt.Fprintln(out, a.theme.Get())
			return nil
		}

		theme := args[0]
		if theme == "toggle" {
			theme, err = a.theme.Toggle()
		} else {
			err = a.theme.Set(theme)
		}
		if err != nil {
			return err
		}
		internal.PrintSuccess(out, fmt.Sprintf("Theme set to %s", theme))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(themeCmd)
}
