package cmd

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iksnae/tusty-chat/internal"
	"github.com/iksnae/tusty-chat/testutil"
)

func seedLegacy(t *testing.T, db string) {
	t.Helper()
	testutil.CreateSQLiteFixture(t, db, map[string]string{
		internal.LegacyHistoryKey: testutil.LegacyHistoryJSON,
	})
}

func TestExportCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{
			name:    "export with invalid format",
			args:    []string{"export", "--format", "invalid"},
			wantErr: true,
		},
		{
			name:    "export unknown session",
			args:    []string{"export", "missing", "--out", "-"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testDB(t)
			seedLegacy(t, db)
			_, err := executeCommand(t, db, tt.args...)
			if (err != nil) != tt.wantErr {
				t.Errorf("exportCmd.Execute() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestExportCommand_Stdout(t *testing.T) {
	db := testDB(t)
	seedLegacy(t, db)

	out, err := executeCommand(t, db, "export", "--format", "json", "--out", "-")
	if err != nil {
		t.Fatalf("export error = %v", err)
	}
	var session internal.ChatSession
	testutil.JSONUnmarshal(t, []byte(out), &session)
	if len(session.Messages) != 4 {
		t.Errorf("got %d messages, want 4", len(session.Messages))
	}
}

func TestExportCommand_Files(t *testing.T) {
	db := testDB(t)
	seedLegacy(t, db)
	if _, err := executeCommand(t, db, "new"); err != nil {
		t.Fatalf("new error = %v", err)
	}
	outDir := filepath.Join(testutil.CreateTempDir(t), "exports")

	for _, f := range []string{"md", "html", "yaml", "jsonl"} {
		t.Run(f, func(t *testing.T) {
			if _, err := executeCommand(t, db, "export", "--all", "--format", f, "--out", outDir); err != nil {
				t.Fatalf("export error = %v", err)
			}
			matches, _ := filepath.Glob(filepath.Join(outDir, "session_*."+f))
			if len(matches) != 2 {
				t.Errorf("got %d .%s files, want 2", len(matches), f)
			}
		})
	}

	matches, _ := filepath.Glob(filepath.Join(outDir, "session_*.md"))
	found := false
	for _, m := range matches {
		data, err := os.ReadFile(m)
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}
		if strings.Contains(string(data), "And termination?") {
			found = true
		}
	}
	if !found {
		t.Error("migrated session was not exported")
	}
}

func TestExportCommand_StdoutNeedsSingleSession(t *testing.T) {
	db := testDB(t)
	seedLegacy(t, db)
	if _, err := executeCommand(t, db, "new"); err != nil {
		t.Fatalf("new error = %v", err)
	}
	if _, err := executeCommand(t, db, "export", "--all", "--out", "-"); err == nil {
		t.Error("--all with --out - should fail")
	}
}

func TestExportSession_WrapsError(t *testing.T) {
	err := exportSession(failingExporter{}, &internal.ChatSession{ID: "x"}, nil, "out.md")
	var exportErr *internal.ExportError
	if !errors.As(err, &exportErr) {
		t.Fatalf("error = %T, want *internal.ExportError", err)
	}
	if exportErr.Path != "out.md" || exportErr.Format != "fail" {
		t.Errorf("ExportError = %+v", exportErr)
	}
}

type failingExporter struct{}

func (failingExporter) Export(*internal.ChatSession, io.Writer) error { return errors.New("disk full") }
func (failingExporter) Extension() string                              { return "fail" }
