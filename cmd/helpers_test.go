package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/iksnae/tusty-chat/testutil"
)

// resetFlags restores flag variables between Execute calls on the shared
// rootCmd.
func resetFlags() {
	verbose, configPath, dbPath, serverURL, ephemeral = false, "", "", "", false
	limit = 0
	askNewSession = false
	uploadParallel, uploadsClear = 3, false
	format, outputDir, exportAll = "md", "./exports", false
	healthcheckSkipServer = false
}

// testDB returns a database path in a fresh temp directory
func testDB(t *testing.T) string {
	t.Helper()
	t.Setenv("TUSTY_SERVER_URL", "")
	t.Setenv("TUSTY_DATABASE", "")
	return filepath.Join(testutil.CreateTempDir(t), "tusty.db")
}

// executeCommand runs the CLI against db with an empty config
func executeCommand(t *testing.T, db string, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	full := append([]string{
		"--config", filepath.Join(filepath.Dir(db), "missing.yaml"),
		"--db", db,
	}, args...)

	var out bytes.Buffer
	rootCmd.SetArgs(full)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	err := rootCmd.Execute()
	return out.String(), err
}
