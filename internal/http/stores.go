package http

import (
	"context"
	"time"

	"github.com/mrlokans/readinglists/internal/entities"
	"github.com/mrlokans/readinglists/internal/readinglists"
	"github.com/mrlokans/readinglists/internal/syncstate"
)

// This file consolidates the controller interfaces used by HTTP handlers.
// *readinglists.Controller implements all of them; each handler group
// depends only on the methods it calls.

// ListStore provides reading list and entry operations.
type ListStore interface {
	ReadingLists() ([]entities.ReadingList, error)
	ReadingListByID(id uint) (*entities.ReadingList, error)
	ReadingList(named string) (*entities.ReadingList, error)
	CreateReadingList(name string, description *string, articles []entities.Article) (*entities.ReadingList, error)
	UpdateReadingList(listID uint, newName string, newDescription *string) (*entities.ReadingList, error)
	DeleteReadingLists(listIDs []uint) error
	Entries(listID uint) ([]entities.ReadingListEntry, error)
	AddArticles(listID uint, articles []entities.Article) error
	RemoveArticles(listID uint, articleKeys []string) error
	RemoveEntries(entryIDs []uint) error
}

// ArticleStore provides the save and unsave operations of the default list.
type ArticleStore interface {
	UserSave(article entities.Article) (*entities.Article, error)
	UserUnsave(article entities.Article) (*entities.Article, error)
	SavedArticles() ([]entities.Article, error)
	IsSaved(articleKey string) (bool, error)
}

// SyncControl drives the sync state machine.
type SyncControl interface {
	SyncState() syncstate.State
	IsSyncEnabled() bool
	IsSyncing() bool
	IsSyncRemotelyEnabled() bool
	SetSyncEnabled(enabled, deleteLocal, deleteRemote bool)
	Sync()
	FullSync() *readinglists.Handle
	Stop(completion func()) *readinglists.Handle
	Limits() (maxLists, maxEntries int64, err error)
	SetLimits(maxLists, maxEntries int64) error
	IsDefaultListEnabled() bool
	SetDefaultListEnabled(enabled bool) error
	DebugSync(createLists bool, listCount int64, addEntries bool, entryCount int64)
	EraseAllSavedArticlesAndReadingLists()
}

// EventSource delivers controller events.
type EventSource interface {
	Subscribe(fn func(readinglists.Event)) func()
}

// SyncProgressReader returns the last recorded sync pass.
type SyncProgressReader interface {
	GetSyncProgress() (*entities.SyncProgress, error)
}

// BackgroundSyncQueue enqueues durable background sync passes.
type BackgroundSyncQueue interface {
	EnqueueBackgroundSync(reason string) (string, error)
}

// PeriodicScheduler is the cron worker that runs periodic sync passes.
type PeriodicScheduler interface {
	Reschedule() error
	RunNow()
	IsRunning() bool
	IsSyncing() bool
	GetNextRunTime() *time.Time
}

// ReadingListsService combines every controller capability the router needs.
type ReadingListsService interface {
	ListStore
	ArticleStore
	SyncControl
	EventSource
}

// waitTimeout bounds how long a handler waits for a queued operation.
const waitTimeout = 30 * time.Second

func waitHandle(ctx context.Context, h *readinglists.Handle) error {
	ctx, cancel := context.WithTimeout(ctx, waitTimeout)
	defer cancel()
	return h.Wait(ctx)
}
