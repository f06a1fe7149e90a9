package http

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mrlokans/readinglists/internal/database"
	"github.com/mrlokans/readinglists/internal/settingsstore"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	ReadingLists ReadingListsService
	Database     *database.Database

	// Sync progress tracking
	SyncProgress SyncProgressReader

	// Task queue for background sync (optional)
	TaskQueue BackgroundSyncQueue

	// Periodic sync settings
	SettingsStore     *settingsstore.SettingsStore
	PeriodicScheduler PeriodicScheduler

	// Metrics exposed on /metrics (optional)
	MetricsGatherer prometheus.Gatherer

	// Application info
	Version string
}
