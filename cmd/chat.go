package cmd

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/iksnae/tusty-chat/internal"
	"github.com/iksnae/tusty-chat/internal/exchange"
	"github.com/iksnae/tusty-chat/internal/metrics"
	"github.com/iksnae/tusty-chat/internal/tui"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the interactive chat screen",
	Long: `Open a full-screen chat. Keys:
  enter      send the question
  ctrl+n     new chat
  tab        next session (shift+tab: previous)
  ctrl+t     toggle theme
  pgup/pgdn  scroll
  esc        quit

When metrics_addr is configured, Prometheus metrics are served at /metrics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		// the alt screen owns the terminal, so logs go to a file
		closeLog := redirectLogs()
		defer closeLog()

		ctx := cmd.Context()
		if cfg.MetricsAddr != "" {
			stop := serveMetrics(cfg.MetricsAddr, a.metrics)
			defer stop()
		}

		return tui.Run(ctx, a.repo, a.client, a.theme, exchange.WithMetrics(a.metrics))
	},
}

func redirectLogs() func() {
	restore := func() { internal.SetLogOutput(os.Stderr, cfg.LogFormat) }
	if ephemeral {
		internal.SetLogOutput(io.Discard, "json")
		return restore
	}
	path := filepath.Join(filepath.Dir(cfg.Database), "chat.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		internal.SetLogOutput(io.Discard, "json")
		return restore
	}
	internal.SetLogOutput(f, "json")
	return func() {
		restore()
		_ = f.Close()
	}
}

// serveMetrics exposes m on addr until the returned func is called.
func serveMetrics(addr string, m *metrics.Metrics) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			internal.LogError("Metrics server failed: %v", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
