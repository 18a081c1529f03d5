package internal

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func TestShowProgress(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		message string
		fn      func() error
		wantErr bool
	}{
		{
			name:    "successful function",
			message: "Testing",
			fn: func() error {
				return nil
			},
			wantErr: false,
		},
		{
			name:    "function with error",
			message: "Testing error",
			fn: func() error {
				return errors.New("test error")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ShowProgress(ctx, tt.message, tt.fn)
			if (err != nil) != tt.wantErr {
				t.Errorf("ShowProgress() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestShowProgress_NonTerminalLogsMessageVerbatim(t *testing.T) {
	if IsTerminal(os.Stderr) {
		t.Skip("stderr is a terminal")
	}
	originalLevel := logLevel
	var buf bytes.Buffer
	SetLogOutput(&buf, "json")
	SetLogLevel(LogLevelInfo)
	defer func() {
		SetLogLevel(originalLevel)
		SetLogOutput(os.Stderr, "console")
	}()

	ran := false
	err := ShowProgress(context.Background(), "Indexing 100% of report.pdf", func() error {
		ran = true
		return nil
	})
	if err != nil {
		t.Fatalf("ShowProgress() error = %v", err)
	}
	if !ran {
		t.Error("ShowProgress() did not run fn")
	}
	if out := buf.String(); !strings.Contains(out, "Indexing 100% of report.pdf") {
		t.Errorf("log output = %q, want message verbatim", out)
	}
}

func TestShowSpinner(t *testing.T) {
	var buf bytes.Buffer
	err := showSpinner(context.Background(), &buf, "Uploading", func() error {
		time.Sleep(250 * time.Millisecond)
		return nil
	})
	if err != nil {
		t.Fatalf("showSpinner() error = %v", err)
	}
	out := buf.String()
	if !strings.HasSuffix(out, "✓ Uploading\n") {
		t.Errorf("showSpinner() output should end with success mark, got %q", out)
	}
}

func TestShowSpinner_Error(t *testing.T) {
	var buf bytes.Buffer
	wantErr := errors.New("boom")
	err := showSpinner(context.Background(), &buf, "Uploading", func() error { return wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("showSpinner() error = %v, want %v", err, wantErr)
	}
	if !strings.Contains(buf.String(), "✗ Uploading") {
		t.Errorf("showSpinner() output = %q, want failure mark", buf.String())
	}
}

func TestShowSpinner_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var buf bytes.Buffer
	err := showSpinner(ctx, &buf, "Waiting", func() error {
		time.Sleep(time.Second)
		return nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("showSpinner() error = %v, want deadline exceeded", err)
	}
}

func TestPrintHelpers_NonTerminal(t *testing.T) {
	tests := []struct {
		name  string
		print func(w *bytes.Buffer)
		want  string
	}{
		{"success", func(w *bytes.Buffer) { PrintSuccess(w, "done") }, "done\n"},
		{"error", func(w *bytes.Buffer) { PrintError(w, "failed") }, "failed\n"},
		{"info", func(w *bytes.Buffer) { PrintInfo(w, "note") }, "note\n"},
		{"warning", func(w *bytes.Buffer) { PrintWarning(w, "careful") }, "WARNING: careful\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.print(&buf)
			if got := buf.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsTerminal_Buffer(t *testing.T) {
	if IsTerminal(&bytes.Buffer{}) {
		t.Error("IsTerminal(buffer) = true, want false")
	}
}
