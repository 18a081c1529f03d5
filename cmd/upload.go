package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/iksnae/tusty-chat/internal"
	"github.com/iksnae/tusty-chat/internal/client"
	"github.com/iksnae/tusty-chat/internal/metrics"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// errNoFile is shown when upload is run without a file
var errNoFile = errors.New("Please select a file first.")

var (
	uploadParallel int
	uploadsClear   bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file...>",
	Short: "Upload documents to the Q&A server",
	Long: `Upload one or more documents so they can be asked about. Files are sent
concurrently; every attempt is recorded in the upload history.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errNoFile
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		var results []uploadResult
		err = internal.ShowProgress(cmd.Context(), fmt.Sprintf("Uploading %d file(s)", len(args)), func() error {
			results = uploadFiles(cmd.Context(), a.client, a.uploads, a.metrics, args, uploadParallel)
			return nil
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		failed := 0
		for _, r := range results {
			if r.err != nil {
				failed++
				internal.PrintError(out, fmt.Sprintf("%s: %v", r.name, r.err))
				continue
			}
			internal.PrintSuccess(out, fmt.Sprintf("%s: %s", r.name, r.message))
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d upload(s) failed", failed, len(results))
		}
		return nil
	},
}

type uploadResult struct {
	name    string
	size    int64
	message string
	err     error
}

// uploadFiles sends paths with at most parallel uploads in flight. Results
// keep the order of paths; one failure does not cancel the others.
func uploadFiles(ctx context.Context, c *client.Client, history *internal.UploadHistory, m *metrics.Metrics, paths []string, parallel int) []uploadResult {
	if parallel < 1 {
		parallel = 1
	}
	results := make([]uploadResult, len(paths))

	var g errgroup.Group
	g.SetLimit(parallel)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			res := uploadFile(ctx, c, path)
			results[i] = res

			status := internal.UploadSuccess
			if res.err != nil {
				status = internal.UploadFailed
			}
			m.RecordUpload(status)
			if err := history.Record(res.name, res.size, status); err != nil {
				internal.LogWarn("Failed to record upload of %s: %v", res.name, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func uploadFile(ctx context.Context, c *client.Client, path string) uploadResult {
	res := uploadResult{name: filepath.Base(path)}

	f, err := os.Open(path)
	if err != nil {
		res.err = err
		return res
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil {
		if info.IsDir() {
			res.err = fmt.Errorf("%s is a directory", path)
			return res
		}
		res.size = info.Size()
	}

	internal.Logger().Debug().Str("file", res.name).Int64("size", res.size).Msg("Uploading")
	res.message, res.err = c.Upload(ctx, res.name, f)
	return res
}

var uploadsCmd = &cobra.Command{
	Use:   "uploads",
	Short: "Show recent uploads",
	Long:  `Show the most recent upload attempts, newest first.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		if uploadsClear {
			if err := a.uploads.Clear(); err != nil {
				return fmt.Errorf("failed to clear upload history: %w", err)
			}
			internal.PrintSuccess(out, "Upload history cleared")
			return nil
		}

		records := a.uploads.List()
		if len(records) == 0 {
			_, _ = fmt.Fprintln(out, "No uploads yet.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		_, _ = fmt.Fprintln(w, titleStyle.Render("Name")+"\t"+titleStyle.Render("Size")+"\t"+titleStyle.Render("Time")+"\t"+titleStyle.Render("Status")+"\t")
		for _, r := range records {
			status := countStyle.Render(r.Status)
			if r.Status == internal.UploadFailed {
				status = errorStyle.Render(r.Status)
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", r.Name, r.Size, dateStyle.Render(r.Time), status)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(uploadsCmd)
	uploadCmd.Flags().IntVarP(&uploadParallel, "parallel", "p", 3, "Maximum concurrent uploads")
	uploadsCmd.Flags().BoolVar(&uploadsClear, "clear", false, "Clear the upload history")
}
