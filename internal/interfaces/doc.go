// Package interfaces documents the core abstractions used throughout the application.
//
// This package consolidates interface documentation to help code agents understand
// extension points and how to implement new functionality.
//
// # Interface Categories
//
// ## Controller Interfaces
//
//   - API: the remote reading list service (internal/readinglists/api.go)
//   - ProgressRecorder: sync pass persistence (internal/readinglists/api.go)
//   - MetricsRecorder: sync pass metrics (internal/readinglists/api.go)
//
// ## HTTP Interfaces
//
//   - ListStore, ArticleStore, SyncControl, EventSource: controller capabilities
//     used by handlers (internal/http/stores.go)
//   - SyncProgressReader, BackgroundSyncQueue, PeriodicScheduler: optional
//     collaborators of the sync endpoints (internal/http/stores.go)
//
// ## Worker Interfaces
//
//   - PeriodicWorker: cron-driven sync passes (internal/scheduler/periodic_sync.go)
//   - BackgroundFetcher: durable background sync tasks (internal/tasks/background_sync.go)
//
// # Adding a New Sync Trigger
//
// To run sync passes from a new source (e.g., a webhook):
//
//  1. Depend on the smallest controller capability you need
//
//     type WebhookTrigger struct {
//         fetcher tasks.BackgroundFetcher
//     }
//
//  2. Call PerformBackgroundFetch and inspect the FetchResult
//
//     result, err := t.fetcher.PerformBackgroundFetch(ctx)
//
//  3. Wire it in entrypoint.go
//
// # Adding a New Remote Backend
//
// To sync against a different reading list service:
//
//  1. Implement readinglists.API in a new package
//
//     type Client struct {
//         httpClient *http.Client
//     }
//
//     func (c *Client) GetAllReadingLists(ctx context.Context) (*remote.ListsResult, error)
//     ...
//
//     var _ readinglists.API = (*Client)(nil)
//
//  2. Pass it as Options.API in entrypoint.go
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
