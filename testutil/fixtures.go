package testutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// LegacyHistoryJSON is a legacy single-thread history as the old client wrote it
const LegacyHistoryJSON = `[
	{"role":"user","text":"  What does   the contract say about renewal? ","time":"3/4/2025, 10:00:00 AM"},
	{"role":"bot","text":"It renews **annually**.","time":"3/4/2025, 10:00:05 AM"},
	{"role":"user","text":"And termination?","time":"3/4/2025, 10:01:00 AM"},
	{"role":"bot","text":"Thinking…","time":"3/4/2025, 10:01:00 AM","id":"temp_1709546460000"}
]`

// CreateSQLiteFixture creates a SQLite database file with the chatDiskKV table
// and the given key/value pairs
func CreateSQLiteFixture(t *testing.T, dbPath string, pairs map[string]string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS chatDiskKV (
		key TEXT PRIMARY KEY,
		value TEXT
	)`
	if _, err := db.Exec(createTableSQL); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}

	insertSQL := "INSERT INTO chatDiskKV (key, value) VALUES (?, ?)"
	for k, v := range pairs {
		if _, err := db.Exec(insertSQL, k, v); err != nil {
			t.Fatalf("Failed to insert %s: %v", k, err)
		}
	}
}

// Clock is a deterministic time source that advances by Step on every call.
type Clock struct {
	mu   sync.Mutex
	t    time.Time
	Step time.Duration
}

// NewClock starts a Clock at start, advancing one millisecond per reading
func NewClock(start time.Time) *Clock {
	return &Clock{t: start, Step: time.Millisecond}
}

// Now returns the current reading and advances the clock
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.t
	c.t = c.t.Add(c.Step)
	return now
}

// Set moves the clock to t
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}
