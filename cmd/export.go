package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/iksnae/tusty-chat/internal"
	"github.com/iksnae/tusty-chat/internal/export"
	"github.com/spf13/cobra"
)

var (
	format    string
	outputDir string
	exportAll bool
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export [session-id]",
	Short: "Export sessions to file",
	Long: `Export chat sessions to json, jsonl, md, yaml or html.

Without an id the current session is exported; --all exports every session.
Use --out - to write a single session to stdout.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		sessions, err := selectSessions(a.repo, args)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			internal.PrintInfo(cmd.OutOrStdout(), "No sessions to export")
			return nil
		}

		if outputDir == "-" {
			if len(sessions) != 1 {
				return fmt.Errorf("--out - writes a single session; got %d", len(sessions))
			}
			return exportSession(exporter, &sessions[0], cmd.OutOrStdout(), "-")
		}

		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		written := 0
		err = internal.ShowProgress(cmd.Context(), fmt.Sprintf("Exporting %d session(s) to %s", len(sessions), outputDir), func() error {
			for i := range sessions {
				path := filepath.Join(outputDir, fmt.Sprintf("session_%s.%s", sessions[i].ID, exporter.Extension()))
				if err := exportFile(exporter, &sessions[i], path); err != nil {
					internal.LogError("%v", err)
					continue
				}
				written++
			}
			return nil
		})
		if err != nil {
			return err
		}
		if written < len(sessions) {
			return fmt.Errorf("exported %d of %d session(s)", written, len(sessions))
		}

		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Export complete: %d session(s) exported to %s", written, outputDir))
		return nil
	},
}

func selectSessions(repo *internal.Repository, args []string) ([]internal.ChatSession, error) {
	if exportAll {
		return repo.ListSessions(), nil
	}
	id := repo.CurrentID()
	if len(args) == 1 {
		id = args[0]
	}
	if id == "" {
		return nil, nil
	}
	session, ok := repo.Session(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s (use 'tusty list' to see available sessions)", internal.ErrSessionNotFound, id)
	}
	return []internal.ChatSession{session}, nil
}

func exportFile(exporter export.Exporter, session *internal.ChatSession, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}
	if err := exportSession(exporter, session, file, path); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}
	return nil
}

func exportSession(exporter export.Exporter, session *internal.ChatSession, w io.Writer, path string) error {
	if err := exporter.Export(session, w); err != nil {
		return &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "md", "Export format ("+strings.Join(export.Formats, ", ")+")")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", "./exports", "Output directory, or - for stdout")
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "Export every session")
}
