package readinglists

import (
	"context"
	"time"

	"github.com/mrlokans/readinglists/internal/remote"
)

// API is the remote reading list service as used by the sync operation.
// *remote.Client implements it.
type API interface {
	Setup(ctx context.Context) error
	Teardown(ctx context.Context) error
	GetAllReadingLists(ctx context.Context) (*remote.ListsResult, error)
	CreateLists(ctx context.Context, lists []remote.NewList) ([]remote.BatchResult, error)
	UpdateList(ctx context.Context, listID int64, name string, description *string) error
	DeleteList(ctx context.Context, listID int64) error
	GetAllEntries(ctx context.Context, listID int64) ([]remote.Entry, error)
	AddEntries(ctx context.Context, listID int64, entries []remote.NewEntry) ([]remote.BatchResult, error)
	RemoveEntry(ctx context.Context, listID, entryID int64) error
	UpdatedListsAndEntries(ctx context.Context, since string) (*remote.Changes, error)
	LastRequestType() remote.RequestType
	CancelAllTasks()
}

// ProgressRecorder persists the outcome of sync passes.
// *sync.Repository from the database package implements it.
type ProgressRecorder interface {
	StartSync(operationID string) error
	UpdateStep(step string) error
	CompleteSync(succeeded bool, syncedLists, syncedEntries int, errorMsg string) error
}

// MetricsRecorder observes sync passes.
type MetricsRecorder interface {
	SyncStarted()
	SyncFinished(err error, duration time.Duration, syncedLists, syncedEntries int)
	PushFailed(kind string)
}
