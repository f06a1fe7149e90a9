// Package readinglists implements the reading list controller: the single
// entry point for local list mutations, and the scheduler and executor of
// the two-way sync with the remote reading list service.
//
// Every mutation runs in one database transaction under the controller
// lock. Sync passes run on a serial queue; they take the lock only for
// local store steps, never across remote calls.
package readinglists

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/readinglists/internal/entities"
	"github.com/mrlokans/readinglists/internal/syncstate"
	"github.com/mrlokans/readinglists/internal/utils"
)

const (
	DefaultDebounceDelay     = 500 * time.Millisecond
	DefaultMaxListsPerUser   = 100
	DefaultMaxEntriesPerList = 5000

	defaultDebugCount = 10
)

// FetchResult is reported to periodic and background fetch callers.
type FetchResult int

const (
	FetchResultNoData FetchResult = iota
	FetchResultNewData
	FetchResultFailed
)

func (r FetchResult) String() string {
	switch r {
	case FetchResultNewData:
		return "new_data"
	case FetchResultFailed:
		return "failed"
	default:
		return "no_data"
	}
}

// Options configure a Controller. DB and API are required.
type Options struct {
	DB       *gorm.DB
	API      API
	Progress ProgressRecorder
	Metrics  MetricsRecorder

	DebounceDelay            time.Duration
	DefaultMaxListsPerUser   int64
	DefaultMaxEntriesPerList int64

	// Now overrides the clock in tests.
	Now func() time.Time
}

// Controller applies user intents to the local reading lists and keeps
// them in sync with the remote service.
type Controller struct {
	db       *gorm.DB
	api      API
	progress ProgressRecorder
	metrics  MetricsRecorder
	events   *eventBus
	queue    *Queue
	debounce *debouncer
	now      func() time.Time

	defaultMaxLists   int64
	defaultMaxEntries int64

	mu         sync.Mutex
	scheduleMu sync.Mutex
	syncing    atomic.Bool
}

// NewController creates a controller and starts its operation queue.
func NewController(opts Options) *Controller {
	if opts.DebounceDelay <= 0 {
		opts.DebounceDelay = DefaultDebounceDelay
	}
	if opts.DefaultMaxListsPerUser <= 0 {
		opts.DefaultMaxListsPerUser = DefaultMaxListsPerUser
	}
	if opts.DefaultMaxEntriesPerList <= 0 {
		opts.DefaultMaxEntriesPerList = DefaultMaxEntriesPerList
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	c := &Controller{
		db:                opts.DB,
		api:               opts.API,
		progress:          opts.Progress,
		metrics:           opts.Metrics,
		events:            newEventBus(),
		queue:             NewQueue(),
		now:               opts.Now,
		defaultMaxLists:   opts.DefaultMaxListsPerUser,
		defaultMaxEntries: opts.DefaultMaxEntriesPerList,
	}
	c.debounce = newDebouncer(opts.DebounceDelay, func() { c.syncIfNotSyncing() })
	return c
}

// Subscribe registers fn for every event posted by the controller and
// returns a function that removes the registration. Events are delivered
// one at a time in posting order. fn may call back into the controller;
// events it causes are delivered after the current one. fn must not wait on
// the sync queue.
func (c *Controller) Subscribe(fn func(Event)) func() {
	return c.events.subscribe(fn)
}

func (c *Controller) post(e Event) {
	c.events.post(e)
}

// --- Lifecycle ---

// Start schedules an initial sync pass.
func (c *Controller) Start() {
	c.Sync()
}

// Stop cancels the pending debounce, every queued and running sync pass
// and every in-flight remote request. completion, if not nil, runs on the
// queue after the cancelled operations have left it.
func (c *Controller) Stop(completion func()) *Handle {
	c.cancelSync()
	if completion == nil {
		completion = func() {}
	}
	return c.queue.AddFunc(completion)
}

// Shutdown stops all sync work and the queue worker. The controller cannot
// sync afterwards.
func (c *Controller) Shutdown() {
	c.cancelSync()
	c.queue.Shutdown()
}

func (c *Controller) cancelSync() {
	c.debounce.cancel()
	c.queue.CancelAll()
	c.api.CancelAllTasks()
}

// --- Sync scheduling ---

// Sync schedules a sync pass after the debounce delay. Calls within the
// delay collapse into one pass.
func (c *Controller) Sync() {
	c.debounce.trigger()
}

// FullSync promotes a pending incremental update into a full sync and
// queues a pass immediately.
func (c *Controller) FullSync() *Handle {
	err := c.write(func(s *store) error {
		_, err := s.updateSyncState(syncstate.State.WithFullSync)
		return err
	})
	if err != nil {
		log.Printf("Reading lists: failed to request full sync: %v", err)
	}
	return c.enqueueSync()
}

// syncIfNotSyncing queues a pass only when the queue is idle. It returns
// nil when nothing was queued.
func (c *Controller) syncIfNotSyncing() *Handle {
	c.scheduleMu.Lock()
	defer c.scheduleMu.Unlock()
	if c.queue.Len() > 0 {
		return nil
	}
	return c.queue.Add(newSyncOperation(c).run)
}

func (c *Controller) enqueueSync() *Handle {
	c.scheduleMu.Lock()
	defer c.scheduleMu.Unlock()
	return c.queue.Add(newSyncOperation(c).run)
}

// IsSyncing reports whether a sync pass is executing.
func (c *Controller) IsSyncing() bool {
	return c.syncing.Load()
}

func (c *Controller) setSyncing(syncing bool) {
	if old := c.syncing.Swap(syncing); old != syncing && syncing {
		c.post(SyncDidStart{})
	}
}

// DoPeriodicWork runs a sync pass unless one is already queued and waits
// for it.
func (c *Controller) DoPeriodicWork(ctx context.Context) (FetchResult, error) {
	h := c.syncIfNotSyncing()
	if h == nil {
		return FetchResultNewData, nil
	}
	return FetchResultNewData, h.Wait(ctx)
}

// PerformBackgroundFetch queues a sync pass and waits for it.
func (c *Controller) PerformBackgroundFetch(ctx context.Context) (FetchResult, error) {
	return FetchResultNewData, c.enqueueSync().Wait(ctx)
}

// --- Sync state ---

// SyncState returns the persisted sync state.
func (c *Controller) SyncState() syncstate.State {
	state, err := c.read().syncState()
	if err != nil {
		log.Printf("Reading lists: failed to read sync state: %v", err)
	}
	return state
}

// IsSyncEnabled reports whether two-way sync is on.
func (c *Controller) IsSyncEnabled() bool {
	return c.SyncState().IsSyncEnabled()
}

// SetSyncEnabled turns sync on or off. Local lists are either cleared or
// reset for re-upload; remote lists are deleted when deleteRemote is set
// while disabling.
func (c *Controller) SetSyncEnabled(enabled, deleteLocal, deleteRemote bool) {
	c.transitionAndSync(func(s syncstate.State) syncstate.State {
		return s.WithSyncEnabled(enabled, deleteLocal, deleteRemote)
	})
}

// EraseAllSavedArticlesAndReadingLists removes every saved article and list.
// With sync enabled the server side is torn down and set up again.
func (c *Controller) EraseAllSavedArticlesAndReadingLists() {
	c.transitionAndSync(syncstate.State.WithErase)
}

func (c *Controller) transitionAndSync(transition func(syncstate.State) syncstate.State) {
	var changed bool
	err := c.write(func(s *store) error {
		var err error
		changed, err = s.updateSyncState(transition)
		return err
	})
	if err != nil {
		log.Printf("Reading lists: failed to save sync state: %v", err)
		return
	}
	if changed {
		c.Sync()
	}
}

// DebugSync requests synthetic lists and entries on the next pass.
func (c *Controller) DebugSync(createLists bool, listCount int64, addEntries bool, entryCount int64) {
	err := c.write(func(s *store) error {
		if listCount <= 0 {
			listCount = defaultDebugCount
		}
		if entryCount <= 0 {
			entryCount = defaultDebugCount
		}
		if err := s.settings.SetInt64Value(entities.SettingKeyCountOfListsToCreate, listCount); err != nil {
			return err
		}
		if err := s.settings.SetInt64Value(entities.SettingKeyCountOfEntriesToCreate, entryCount); err != nil {
			return err
		}
		_, err := s.updateSyncState(func(state syncstate.State) syncstate.State {
			if createLists {
				state = state.Insert(syncstate.NeedsRandomLists)
			}
			if addEntries {
				state = state.Insert(syncstate.NeedsRandomEntries)
			}
			return state
		})
		return err
	})
	if err != nil {
		log.Printf("Reading lists: failed to request debug sync: %v", err)
		return
	}
	c.Sync()
}

// --- Persisted flags and limits ---

// IsSyncRemotelyEnabled reports whether the account had sync set up.
func (c *Controller) IsSyncRemotelyEnabled() bool {
	enabled, err := c.read().settings.BoolValue(entities.SettingKeySyncRemotelyEnable, true)
	if err != nil {
		log.Printf("Reading lists: failed to read remote sync flag: %v", err)
	}
	return enabled
}

func (c *Controller) SetSyncRemotelyEnabled(enabled bool) error {
	return c.write(func(s *store) error {
		return s.settings.SetBoolValue(entities.SettingKeySyncRemotelyEnable, enabled)
	})
}

func (c *Controller) IsDefaultListEnabled() bool {
	enabled, err := c.read().settings.BoolValue(entities.SettingKeyDefaultListEnabled, false)
	if err != nil {
		log.Printf("Reading lists: failed to read default list flag: %v", err)
	}
	return enabled
}

func (c *Controller) SetDefaultListEnabled(enabled bool) error {
	return c.write(func(s *store) error {
		return s.settings.SetBoolValue(entities.SettingKeyDefaultListEnabled, enabled)
	})
}

// Limits returns the list and entry quotas in effect.
func (c *Controller) Limits() (maxLists, maxEntries int64, err error) {
	s := c.read()
	if maxLists, err = s.maxListsPerUser(); err != nil {
		return 0, 0, err
	}
	maxEntries, err = s.maxEntriesPerList()
	return maxLists, maxEntries, err
}

// SetLimits stores the quotas provided by the server.
func (c *Controller) SetLimits(maxLists, maxEntries int64) error {
	return c.write(func(s *store) error {
		if maxLists > 0 {
			if err := s.settings.SetInt64Value(entities.SettingKeyMaxListsPerUser, maxLists); err != nil {
				return err
			}
		}
		if maxEntries > 0 {
			return s.settings.SetInt64Value(entities.SettingKeyMaxEntriesPerList, maxEntries)
		}
		return nil
	})
}

// --- Reads ---

// ReadingLists returns the live lists, default list first.
func (c *Controller) ReadingLists() ([]entities.ReadingList, error) {
	return c.read().lists.GetLiveLists()
}

// ReadingListByID returns a live list.
func (c *Controller) ReadingListByID(id uint) (*entities.ReadingList, error) {
	list, err := c.read().lists.GetListByID(id)
	if err != nil {
		return nil, err
	}
	if list.IsDeletedLocally {
		return nil, gorm.ErrRecordNotFound
	}
	return list, nil
}

// ReadingList returns the live list whose name matches name after
// normalization.
func (c *Controller) ReadingList(named string) (*entities.ReadingList, error) {
	list, err := c.read().findLiveList(named)
	if err != nil {
		return nil, storeError(KindGeneric, err)
	}
	if list == nil {
		return nil, listNotFound(named)
	}
	return list, nil
}

// DefaultReadingList returns the default list, creating it if needed.
func (c *Controller) DefaultReadingList() (*entities.ReadingList, error) {
	var list *entities.ReadingList
	err := c.write(func(s *store) error {
		var err error
		list, err = s.lists.FetchOrCreateDefaultList(s.now)
		return err
	})
	if err != nil {
		return nil, storeError(KindGeneric, err)
	}
	return list, nil
}

// Entries returns the live entries of a list.
func (c *Controller) Entries(listID uint) ([]entities.ReadingListEntry, error) {
	return c.read().lists.GetLiveEntriesForList(listID)
}

// SavedArticles returns the saved article variants, most recent first.
func (c *Controller) SavedArticles() ([]entities.Article, error) {
	return c.read().lists.GetSavedArticles()
}

// IsSaved reports whether any variant of the article is saved.
func (c *Controller) IsSaved(articleKey string) (bool, error) {
	return c.read().lists.IsKeySaved(articleKey)
}

// --- Mutations ---

// CreateReadingList creates a list, optionally with articles. It fails when
// the name is taken by a live list or a quota would be exceeded.
func (c *Controller) CreateReadingList(name string, description *string, articles []entities.Article) (*entities.ReadingList, error) {
	var created *entities.ReadingList
	err := c.write(func(s *store) error {
		list, err := s.createReadingList(name, description, len(uniqueKeys(articles)))
		if err != nil {
			return err
		}
		if len(articles) > 0 {
			if _, err := s.addArticles(list, articles); err != nil {
				return err
			}
		}
		created, err = s.lists.GetListByID(list.ID)
		return err
	})
	if err != nil {
		return nil, asControllerError(KindUnableToCreateList, err)
	}
	c.Sync()
	return created, nil
}

// UpdateReadingList renames a list and replaces its description. The
// default list cannot be changed. Store failures are logged, not returned.
func (c *Controller) UpdateReadingList(listID uint, newName string, newDescription *string) (*entities.ReadingList, error) {
	var updated *entities.ReadingList
	changed := false
	err := c.write(func(s *store) error {
		list, err := s.lists.GetListByID(listID)
		if err != nil || list.IsDeletedLocally {
			return &Error{Kind: KindUnableToUpdateList, Err: err}
		}
		updated = list
		if list.IsDefault {
			log.Printf("Reading lists: the default list cannot be renamed")
			return nil
		}

		name := utils.NormalizeName(newName)
		if name == "" {
			name = list.Name
		}
		existing, err := s.findLiveList(name)
		if err != nil {
			return err
		}
		if existing != nil && existing.ID != list.ID {
			return &Error{Kind: KindListExistsWithTheSameName, Name: name}
		}

		list.Name = name
		list.CanonicalName = utils.CanonicalName(name)
		list.Description = newDescription
		list.Touch(s.now)
		if err := s.lists.SaveList(list); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		if ce, ok := err.(*Error); ok {
			return nil, ce
		}
		log.Printf("Reading lists: failed to update list %d: %v", listID, err)
		return c.ReadingListByID(listID)
	}
	if changed {
		c.Sync()
	}
	return updated, nil
}

// DeleteReadingLists marks lists and all their entries as deleted. Rows are
// removed once the server confirms the deletion.
func (c *Controller) DeleteReadingLists(listIDs []uint) error {
	err := c.write(func(s *store) error {
		lists, err := s.lists.GetListsByIDs(listIDs)
		if err != nil {
			return err
		}
		for _, l := range lists {
			if l.IsDefault {
				return &Error{Kind: KindUnableToDeleteList, Name: l.Name}
			}
		}
		return s.markListsDeleted(lists)
	})
	if err != nil {
		return asControllerError(KindUnableToDeleteList, err)
	}
	c.Sync()
	return nil
}

// AddArticles adds articles to a list. Articles already in the list are
// skipped; the entry quota counts only the new ones.
func (c *Controller) AddArticles(listID uint, articles []entities.Article) error {
	err := c.write(func(s *store) error {
		list, err := s.lists.GetListByID(listID)
		if err != nil {
			return err
		}
		_, err = s.addArticles(list, articles)
		return err
	})
	if err != nil {
		return asControllerError(KindUnableToAddEntry, err)
	}
	c.Sync()
	return nil
}

// RemoveArticles removes the entries of a list matching the given article
// keys, whatever variant they were saved with.
func (c *Controller) RemoveArticles(listID uint, articleKeys []string) error {
	err := c.write(func(s *store) error {
		entries, err := s.lists.GetLiveEntriesForListWithKeys(listID, articleKeys)
		if err != nil {
			return err
		}
		_, keys, err := s.markEntriesDeleted(entries)
		if err != nil {
			return err
		}
		return s.lists.UpdateArticlesAndEntries([]uint{listID}, keys)
	})
	if err != nil {
		return asControllerError(KindUnableToRemoveEntry, err)
	}
	c.Sync()
	return nil
}

// RemoveEntries marks entries as deleted.
func (c *Controller) RemoveEntries(entryIDs []uint) error {
	err := c.write(func(s *store) error {
		entries, err := s.lists.GetEntriesByIDs(entryIDs)
		if err != nil {
			return err
		}
		listIDs, keys, err := s.markEntriesDeleted(entries)
		if err != nil {
			return err
		}
		return s.lists.UpdateArticlesAndEntries(listIDs, keys)
	})
	if err != nil {
		return asControllerError(KindUnableToRemoveEntry, err)
	}
	c.Sync()
	return nil
}

// UserSave adds the article variant to the default list, makes it the
// saved variant of its key and posts UserDidSaveOrUnsaveArticle with it.
func (c *Controller) UserSave(article entities.Article) (*entities.Article, error) {
	var saved *entities.Article
	err := c.write(func(s *store) error {
		list, err := s.lists.FetchOrCreateDefaultList(s.now)
		if err != nil {
			return err
		}
		stored, err := s.addArticles(list, []entities.Article{article})
		if err != nil {
			return err
		}
		if len(stored) == 0 {
			return &Error{Kind: KindUnableToAddEntry}
		}
		saved = &stored[0]
		return s.markSavedExclusively(saved)
	})
	if err != nil {
		return nil, asControllerError(KindUnableToAddEntry, err)
	}
	c.post(UserDidSaveOrUnsaveArticle{Article: *saved, Saved: true})
	c.Sync()
	return saved, nil
}

// UserUnsave removes the article from every list and posts
// UserDidSaveOrUnsaveArticle with the given variant.
func (c *Controller) UserUnsave(article entities.Article) (*entities.Article, error) {
	unsaved := article
	err := c.write(func(s *store) error {
		if err := s.unsave([]string{article.Key}); err != nil {
			return err
		}
		stored, err := s.lists.GetArticle(article.Key, article.Variant)
		if err == nil {
			unsaved = *stored
		} else if !isNotFound(err) {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, asControllerError(KindUnableToRemoveEntry, err)
	}
	c.post(UserDidSaveOrUnsaveArticle{Article: unsaved, Saved: false})
	c.Sync()
	return &unsaved, nil
}

func uniqueKeys(articles []entities.Article) []string {
	seen := make(map[string]bool, len(articles))
	keys := make([]string, 0, len(articles))
	for _, a := range articles {
		if a.Key == "" || seen[a.Key] {
			continue
		}
		seen[a.Key] = true
		keys = append(keys, a.Key)
	}
	return keys
}

// asControllerError passes *Error values through and wraps anything else
// as a store failure of the given kind.
func asControllerError(kind Kind, err error) error {
	if ce, ok := err.(*Error); ok {
		return ce
	}
	log.Printf("Reading lists: store error: %v", err)
	return storeError(kind, err)
}
