package cmd

import (
	"database/sql"

	"github.com/iksnae/tusty-chat/internal"
	"github.com/iksnae/tusty-chat/internal/client"
	"github.com/iksnae/tusty-chat/internal/metrics"
)

// app bundles what a command needs: the open store, the session repository
// and the server client.
type app struct {
	db       *sql.DB
	store    internal.Store
	repo     *internal.Repository
	uploads  *internal.UploadHistory
	theme    *internal.ThemePreference
	metrics  *metrics.Metrics
	client   *client.Client
	migrated bool
}

// openApp opens the configured store and runs the legacy migration.
func openApp() (*app, error) {
	a := &app{metrics: metrics.NewMetrics()}

	if ephemeral {
		internal.LogDebug("Using in-memory session store")
		a.store = internal.NewMemoryStore()
	} else {
		db, err := internal.OpenDatabase(cfg.Database)
		if err != nil {
			return nil, err
		}
		internal.LogDebug("Opened session database %s", cfg.Database)
		a.db = db
		a.store = internal.NewSQLiteStore(db)
	}

	a.repo = internal.NewRepository(a.store, internal.WithEvictionHook(a.metrics.RecordEviction))
	a.uploads = internal.NewUploadHistory(a.store)
	a.theme = internal.NewThemePreference(a.store)
	a.client = client.New(cfg.ServerURL, client.WithTimeout(cfg.RequestTimeout))

	migrated, err := a.repo.MigrateLegacyIfNeeded()
	if err != nil {
		internal.LogWarn("Legacy history migration failed: %v", err)
	}
	a.migrated = migrated
	return a, nil
}

func (a *app) Close() {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		internal.LogWarn("Failed to close database: %v", err)
	}
}
