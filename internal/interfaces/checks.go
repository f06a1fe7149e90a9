package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/readinglists/internal/database/sync"
	"github.com/mrlokans/readinglists/internal/http"
	"github.com/mrlokans/readinglists/internal/metrics"
	"github.com/mrlokans/readinglists/internal/readinglists"
	"github.com/mrlokans/readinglists/internal/remote"
	"github.com/mrlokans/readinglists/internal/scheduler"
	"github.com/mrlokans/readinglists/internal/tasks"
)

// =============================================================================
// Controller
// =============================================================================

// HTTP surface
var _ http.ReadingListsService = (*readinglists.Controller)(nil)

// Periodic and background workers
var _ scheduler.PeriodicWorker = (*readinglists.Controller)(nil)
var _ tasks.BackgroundFetcher = (*readinglists.Controller)(nil)

// =============================================================================
// External Services
// =============================================================================

// API implementations
var _ readinglists.API = (*remote.Client)(nil)

// =============================================================================
// Progress Tracking
// =============================================================================

// ProgressRecorder implementations
var _ readinglists.ProgressRecorder = (*sync.Repository)(nil)
var _ http.SyncProgressReader = (*sync.Repository)(nil)

// MetricsRecorder implementations
var _ readinglists.MetricsRecorder = (*metrics.Collector)(nil)

// =============================================================================
// Workers
// =============================================================================

var _ http.PeriodicScheduler = (*scheduler.PeriodicSyncScheduler)(nil)
var _ http.BackgroundSyncQueue = (*tasks.Client)(nil)
