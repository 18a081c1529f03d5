package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRootCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{
			name:    "version flag",
			args:    []string{"--version"},
			wantErr: false,
		},
		{
			name:    "help flag",
			args:    []string{"--help"},
			wantErr: false,
		},
		{
			name:    "unknown command",
			args:    []string{"nonexistent-command"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			rootCmd.SetArgs(tt.args)
			var stdout bytes.Buffer
			rootCmd.SetOut(&stdout)
			rootCmd.SetErr(&stdout)

			err := rootCmd.Execute()
			if (err != nil) != tt.wantErr {
				t.Errorf("rootCmd.Execute() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRootCommand_SubcommandsRegistered(t *testing.T) {
	want := []string{"list", "show", "new", "switch", "ask", "upload", "uploads", "theme", "export", "migrate", "chat", "healthcheck"}
	have := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		have[c.Name()] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestRootCommand_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TUSTY_SERVER_URL", "")
	t.Setenv("TUSTY_DATABASE", "")
	db := filepath.Join(dir, "from-config.db")
	config := "server_url: http://qa.internal:9000\ndatabase: " + db + "\nrequest_timeout: 5s\n"
	configFile := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configFile, []byte(config), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	resetFlags()
	rootCmd.SetArgs([]string{"--config", configFile, "new"})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if cfg.ServerURL != "http://qa.internal:9000" {
		t.Errorf("cfg.ServerURL = %q", cfg.ServerURL)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("cfg.RequestTimeout = %v", cfg.RequestTimeout)
	}
	if _, err := os.Stat(db); err != nil {
		t.Errorf("database from config was not created: %v", err)
	}
}

func TestRootCommand_FlagsOverrideConfig(t *testing.T) {
	db := testDB(t)
	if _, err := executeCommand(t, db, "--server", "http://flag:1", "new"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if cfg.ServerURL != "http://flag:1" || cfg.Database != db {
		t.Errorf("cfg = %+v, want flag values", cfg)
	}
}

func TestRootCommand_Ephemeral(t *testing.T) {
	db := testDB(t)
	out, err := executeCommand(t, db, "--ephemeral", "new")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "Started session") {
		t.Errorf("output = %q", out)
	}
	if _, err := os.Stat(db); !os.IsNotExist(err) {
		t.Errorf("--ephemeral should not create %s (stat err = %v)", db, err)
	}
}
