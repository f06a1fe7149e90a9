package readinglists

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/readinglists/internal/database"
	listsdb "github.com/mrlokans/readinglists/internal/database/lists"
	"github.com/mrlokans/readinglists/internal/entities"
	"github.com/mrlokans/readinglists/internal/syncstate"
)

const (
	adaKey    = "https://en.wikipedia.org/wiki/Ada_Lovelace"
	turingKey = "https://en.wikipedia.org/wiki/Alan_Turing"
	parisKey  = "https://en.wikipedia.org/wiki/Paris"
)

func newTestController(t *testing.T, opts ...func(*Options)) (*Controller, *fakeAPI) {
	t.Helper()
	db, err := database.NewDatabaseWithOptions(filepath.Join(t.TempDir(), "readinglists.db"), database.Options{LogLevel: logger.Silent})
	require.NoError(t, err)

	api := newFakeAPI()
	options := Options{DB: db.DB, API: api, DebounceDelay: time.Hour}
	for _, opt := range opts {
		opt(&options)
	}
	c := NewController(options)
	t.Cleanup(func() {
		c.Shutdown()
		db.Close()
	})
	return c, api
}

func article(key string) entities.Article {
	return entities.Article{Key: key}
}

func (c *Controller) testRepo() *listsdb.Repository {
	return listsdb.NewRepository(c.db)
}

type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func recordEvents(c *Controller) *eventRecorder {
	r := &eventRecorder{}
	c.Subscribe(func(e Event) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, e)
	})
	return r
}

func (r *eventRecorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *eventRecorder) names() []string {
	var names []string
	for _, e := range r.all() {
		names = append(names, e.Name())
	}
	return names
}

func TestController_DefaultReadingList(t *testing.T) {
	c, _ := newTestController(t)

	first, err := c.DefaultReadingList()
	require.NoError(t, err)
	assert.True(t, first.IsDefault)
	assert.Equal(t, entities.DefaultReadingListName, first.Name)

	second, err := c.DefaultReadingList()
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	lists, err := c.ReadingLists()
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.True(t, lists[0].IsDefault)
}

func TestController_CreateReadingList(t *testing.T) {
	t.Run("creates a dirty list", func(t *testing.T) {
		c, _ := newTestController(t)
		desc := "places to visit"

		list, err := c.CreateReadingList("  Trips ", &desc, nil)
		require.NoError(t, err)
		assert.Equal(t, "Trips", list.Name)
		assert.True(t, list.IsUpdatedLocally)
		assert.False(t, list.IsDefault)
		require.NotNil(t, list.Description)
		assert.Equal(t, desc, *list.Description)
	})

	t.Run("rejects normalized name collisions", func(t *testing.T) {
		c, _ := newTestController(t)
		_, err := c.CreateReadingList("Café", nil, nil)
		require.NoError(t, err)

		for _, name := range []string{"Café", "cafe", "CAFÉ", "Cafe\u0301"} {
			_, err := c.CreateReadingList(name, nil, nil)
			assert.ErrorIs(t, err, ErrListExistsWithTheSameName, "name=%q", name)
		}

		_, err = c.CreateReadingList("saved", nil, nil)
		assert.ErrorIs(t, err, ErrListExistsWithTheSameName)
	})

	t.Run("allows reusing the name of a deleted list", func(t *testing.T) {
		c, _ := newTestController(t)
		list, err := c.CreateReadingList("Trips", nil, nil)
		require.NoError(t, err)
		require.NoError(t, c.DeleteReadingLists([]uint{list.ID}))

		_, err = c.CreateReadingList("Trips", nil, nil)
		assert.NoError(t, err)
	})

	t.Run("rejects empty names", func(t *testing.T) {
		c, _ := newTestController(t)
		_, err := c.CreateReadingList("   ", nil, nil)
		assert.ErrorIs(t, err, ErrUnableToCreateList)
	})

	t.Run("adds initial articles", func(t *testing.T) {
		c, _ := newTestController(t)
		list, err := c.CreateReadingList("Trips", nil, []entities.Article{article(parisKey), article(parisKey), article(adaKey)})
		require.NoError(t, err)
		assert.Equal(t, int64(2), list.CountOfEntries)

		entries, err := c.Entries(list.ID)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})
}

func TestController_CreateReadingList_Limits(t *testing.T) {
	t.Run("list limit", func(t *testing.T) {
		c, _ := newTestController(t)
		require.NoError(t, c.SetLimits(1, 0))
		_, err := c.CreateReadingList("Books", nil, nil)
		require.NoError(t, err)

		_, err = c.CreateReadingList("Trips", nil, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrListLimitReached)

		var listErr *Error
		require.True(t, errors.As(err, &listErr))
		assert.Equal(t, 1, listErr.Limit)
		assert.Equal(t, "You have reached the limit of 1 reading lists per account.", err.Error())

		_, err = c.ReadingList("Trips")
		assert.ErrorIs(t, err, ErrListWithProvidedNameNotFound)
	})

	t.Run("list and entry limits", func(t *testing.T) {
		c, _ := newTestController(t)
		require.NoError(t, c.SetLimits(1, 1))
		_, err := c.CreateReadingList("Books", nil, nil)
		require.NoError(t, err)

		_, err = c.CreateReadingList("Trips", nil, []entities.Article{article(parisKey), article(adaKey)})
		assert.ErrorIs(t, err, ErrListEntryLimitsReached)

		var listErr *Error
		require.True(t, errors.As(err, &listErr))
		assert.Equal(t, "Trips", listErr.Name)
		assert.Equal(t, 2, listErr.Count)
		assert.Equal(t, 1, listErr.ListLimit)
		assert.Equal(t, 1, listErr.EntryLimit)
	})

	t.Run("entry limit on creation", func(t *testing.T) {
		c, _ := newTestController(t)
		require.NoError(t, c.SetLimits(0, 1))

		_, err := c.CreateReadingList("Trips", nil, []entities.Article{article(parisKey), article(adaKey)})
		assert.ErrorIs(t, err, ErrEntryLimitReached)

		_, err = c.ReadingList("Trips")
		assert.ErrorIs(t, err, ErrListWithProvidedNameNotFound)
	})
}

func TestController_Limits(t *testing.T) {
	c, _ := newTestController(t)

	maxLists, maxEntries, err := c.Limits()
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultMaxListsPerUser), maxLists)
	assert.Equal(t, int64(DefaultMaxEntriesPerList), maxEntries)

	require.NoError(t, c.SetLimits(3, 0))
	maxLists, maxEntries, err = c.Limits()
	require.NoError(t, err)
	assert.Equal(t, int64(3), maxLists)
	assert.Equal(t, int64(DefaultMaxEntriesPerList), maxEntries)
}

func TestController_AddArticles(t *testing.T) {
	t.Run("adding twice keeps one entry", func(t *testing.T) {
		c, _ := newTestController(t)
		list, err := c.CreateReadingList("Trips", nil, nil)
		require.NoError(t, err)

		require.NoError(t, c.AddArticles(list.ID, []entities.Article{article(parisKey)}))
		require.NoError(t, c.AddArticles(list.ID, []entities.Article{article(parisKey)}))

		entries, err := c.Entries(list.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "Paris", entries[0].DisplayTitle)
		assert.True(t, entries[0].IsUpdatedLocally)

		reloaded, err := c.ReadingListByID(list.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), reloaded.CountOfEntries)

		saved, err := c.IsSaved(parisKey)
		require.NoError(t, err)
		assert.True(t, saved)
	})

	t.Run("entry limit counts only new articles", func(t *testing.T) {
		c, _ := newTestController(t)
		require.NoError(t, c.SetLimits(0, 2))
		list, err := c.CreateReadingList("Trips", nil, nil)
		require.NoError(t, err)
		require.NoError(t, c.AddArticles(list.ID, []entities.Article{article(parisKey), article(adaKey)}))

		require.NoError(t, c.AddArticles(list.ID, []entities.Article{article(parisKey)}))

		err = c.AddArticles(list.ID, []entities.Article{article(turingKey)})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrEntryLimitReached)
		assert.Equal(t, "1 article cannot be added to Trips: limit of 2 articles per reading list reached", err.Error())

		entries, err := c.Entries(list.ID)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("deleted list rejects additions", func(t *testing.T) {
		c, _ := newTestController(t)
		list, err := c.CreateReadingList("Trips", nil, nil)
		require.NoError(t, err)
		require.NoError(t, c.DeleteReadingLists([]uint{list.ID}))

		err = c.AddArticles(list.ID, []entities.Article{article(parisKey)})
		assert.ErrorIs(t, err, ErrUnableToAddEntry)
	})
}

func TestController_RemoveArticles(t *testing.T) {
	c, _ := newTestController(t)
	list, err := c.CreateReadingList("Trips", nil, nil)
	require.NoError(t, err)
	require.NoError(t, c.AddArticles(list.ID, []entities.Article{
		{Key: parisKey, Variant: "en"},
		article(adaKey),
	}))

	require.NoError(t, c.RemoveArticles(list.ID, []string{parisKey}))

	entries, err := c.Entries(list.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, adaKey, entries[0].ArticleKey)

	saved, err := c.IsSaved(parisKey)
	require.NoError(t, err)
	assert.False(t, saved)

	all, err := c.testRepo().GetEntriesForList(list.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestController_RemoveEntries(t *testing.T) {
	c, _ := newTestController(t)
	list, err := c.CreateReadingList("Trips", nil, []entities.Article{article(parisKey), article(adaKey)})
	require.NoError(t, err)
	entries, err := c.Entries(list.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.NoError(t, c.RemoveEntries([]uint{entries[0].ID}))

	reloaded, err := c.ReadingListByID(list.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reloaded.CountOfEntries)
}

func TestController_IsSaved_VariantAgnostic(t *testing.T) {
	c, _ := newTestController(t)

	_, err := c.UserSave(entities.Article{Key: parisKey, Variant: "en"})
	require.NoError(t, err)

	saved, err := c.IsSaved(parisKey)
	require.NoError(t, err)
	assert.True(t, saved)

	saved, err = c.IsSaved(adaKey)
	require.NoError(t, err)
	assert.False(t, saved)
}

func TestController_UserSave_PostsSavedVariant(t *testing.T) {
	c, _ := newTestController(t)
	key := "https://zh.wikipedia.org/wiki/Beijing"

	other, err := c.CreateReadingList("Cities", nil, nil)
	require.NoError(t, err)
	require.NoError(t, c.AddArticles(other.ID, []entities.Article{{Key: key, Variant: "zh-hans"}}))

	events := recordEvents(c)
	saved, err := c.UserSave(entities.Article{Key: key, Variant: "zh-hant"})
	require.NoError(t, err)
	assert.Equal(t, "zh-hant", saved.Variant)

	all := events.all()
	require.Len(t, all, 1)
	ev, ok := all[0].(UserDidSaveOrUnsaveArticle)
	require.True(t, ok)
	assert.True(t, ev.Saved)
	assert.Equal(t, "zh-hant", ev.Article.Variant)
	assert.Equal(t, key, ev.Article.Key)

	savedArticles, err := c.SavedArticles()
	require.NoError(t, err)
	require.Len(t, savedArticles, 1)
	assert.Equal(t, "zh-hant", savedArticles[0].Variant)

	def, err := c.DefaultReadingList()
	require.NoError(t, err)
	assert.Equal(t, int64(1), def.CountOfEntries)
}

func TestController_UserUnsave(t *testing.T) {
	c, _ := newTestController(t)
	list, err := c.CreateReadingList("Trips", nil, []entities.Article{article(parisKey)})
	require.NoError(t, err)
	_, err = c.UserSave(entities.Article{Key: parisKey, Variant: "en"})
	require.NoError(t, err)

	events := recordEvents(c)
	unsaved, err := c.UserUnsave(entities.Article{Key: parisKey, Variant: "en"})
	require.NoError(t, err)
	assert.Equal(t, "en", unsaved.Variant)

	saved, err := c.IsSaved(parisKey)
	require.NoError(t, err)
	assert.False(t, saved)

	entries, err := c.Entries(list.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	all := events.all()
	require.Len(t, all, 1)
	ev := all[0].(UserDidSaveOrUnsaveArticle)
	assert.False(t, ev.Saved)
	assert.Equal(t, "en", ev.Article.Variant)
}

func TestController_UpdateReadingList(t *testing.T) {
	t.Run("default list is immutable", func(t *testing.T) {
		c, _ := newTestController(t)
		def, err := c.DefaultReadingList()
		require.NoError(t, err)

		updated, err := c.UpdateReadingList(def.ID, "X", nil)
		require.NoError(t, err)
		assert.Equal(t, entities.DefaultReadingListName, updated.Name)

		reloaded, err := c.DefaultReadingList()
		require.NoError(t, err)
		assert.Equal(t, entities.DefaultReadingListName, reloaded.Name)
	})

	t.Run("rename marks the list dirty", func(t *testing.T) {
		c, _ := newTestController(t)
		list, err := c.CreateReadingList("Trips", nil, nil)
		require.NoError(t, err)
		desc := "2025"

		updated, err := c.UpdateReadingList(list.ID, "Holidays", &desc)
		require.NoError(t, err)
		assert.Equal(t, "Holidays", updated.Name)
		assert.True(t, updated.IsUpdatedLocally)
		assert.Greater(t, updated.Revision, list.Revision)

		found, err := c.ReadingList("holidays")
		require.NoError(t, err)
		assert.Equal(t, list.ID, found.ID)
	})

	t.Run("rename onto another list fails", func(t *testing.T) {
		c, _ := newTestController(t)
		_, err := c.CreateReadingList("Books", nil, nil)
		require.NoError(t, err)
		list, err := c.CreateReadingList("Trips", nil, nil)
		require.NoError(t, err)

		_, err = c.UpdateReadingList(list.ID, "BOOKS", nil)
		assert.ErrorIs(t, err, ErrListExistsWithTheSameName)
	})

	t.Run("unknown list", func(t *testing.T) {
		c, _ := newTestController(t)
		_, err := c.UpdateReadingList(999, "X", nil)
		assert.ErrorIs(t, err, ErrUnableToUpdateList)
	})
}

func TestController_DeleteReadingLists(t *testing.T) {
	t.Run("cascades to entries without removing rows", func(t *testing.T) {
		c, _ := newTestController(t)
		list, err := c.CreateReadingList("Trips", nil, []entities.Article{article(parisKey), article(adaKey), article(turingKey)})
		require.NoError(t, err)

		require.NoError(t, c.DeleteReadingLists([]uint{list.ID}))

		repo := c.testRepo()
		stored, err := repo.GetListByID(list.ID)
		require.NoError(t, err)
		assert.True(t, stored.IsDeletedLocally)
		assert.True(t, stored.IsUpdatedLocally)

		entries, err := repo.GetEntriesForList(list.ID)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		for _, e := range entries {
			assert.True(t, e.IsDeletedLocally)
			assert.True(t, e.IsUpdatedLocally)
		}

		_, err = c.ReadingList("Trips")
		assert.ErrorIs(t, err, ErrListWithProvidedNameNotFound)
	})

	t.Run("default list cannot be deleted", func(t *testing.T) {
		c, _ := newTestController(t)
		def, err := c.DefaultReadingList()
		require.NoError(t, err)

		err = c.DeleteReadingLists([]uint{def.ID})
		assert.ErrorIs(t, err, ErrUnableToDeleteList)
	})
}

func TestController_SetSyncEnabled(t *testing.T) {
	c, _ := newTestController(t)
	assert.Equal(t, syncstate.Empty, c.SyncState())
	assert.False(t, c.IsSyncEnabled())

	c.SetSyncEnabled(true, false, false)
	state := c.SyncState()
	assert.True(t, state.Contains(syncstate.NeedsEnable))
	assert.True(t, c.IsSyncEnabled())

	c.SetSyncEnabled(false, false, true)
	state = c.SyncState()
	assert.True(t, state.Contains(syncstate.NeedsRemoteDisable))
	assert.False(t, state.ContainsAny(syncstate.NeedsSync|syncstate.NeedsRemoteEnable))
}

func TestController_EraseAll(t *testing.T) {
	c, _ := newTestController(t)
	c.EraseAllSavedArticlesAndReadingLists()
	assert.Equal(t, syncstate.NeedsLocalClear, c.SyncState())
}

func TestController_Flags(t *testing.T) {
	c, _ := newTestController(t)

	assert.True(t, c.IsSyncRemotelyEnabled())
	require.NoError(t, c.SetSyncRemotelyEnabled(false))
	assert.False(t, c.IsSyncRemotelyEnabled())

	assert.False(t, c.IsDefaultListEnabled())
	require.NoError(t, c.SetDefaultListEnabled(true))
	assert.True(t, c.IsDefaultListEnabled())
}

func TestController_Subscribe(t *testing.T) {
	c, _ := newTestController(t)
	count := 0
	unsubscribe := c.Subscribe(func(Event) { count++ })

	_, err := c.UserSave(article(parisKey))
	require.NoError(t, err)
	unsubscribe()
	unsubscribe()
	_, err = c.UserSave(article(adaKey))
	require.NoError(t, err)

	assert.Equal(t, 1, count)
}

func TestController_Stop(t *testing.T) {
	c, api := newTestController(t)
	ran := make(chan struct{})

	h := c.Stop(func() { close(ran) })
	require.NoError(t, h.Wait(context.Background()))

	select {
	case <-ran:
	default:
		t.Fatal("completion did not run")
	}
	assert.Equal(t, 1, api.cancelled)
}

func TestController_SubscriberCanMutateOnSyncDidFinish(t *testing.T) {
	c, _ := newTestController(t)
	var once sync.Once
	saveErr := make(chan error, 1)
	c.Subscribe(func(e Event) {
		if _, ok := e.(SyncDidFinish); ok {
			once.Do(func() {
				_, err := c.UserSave(article(adaKey))
				saveErr <- err
			})
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := c.PerformBackgroundFetch(ctx)
	require.NoError(t, err)
	require.NoError(t, <-saveErr)

	saved, err := c.IsSaved(adaKey)
	require.NoError(t, err)
	assert.True(t, saved)

	_, err = c.PerformBackgroundFetch(ctx)
	assert.NoError(t, err)
}

func TestController_StopTwiceWhileSyncing(t *testing.T) {
	c, _ := newTestController(t)
	release := make(chan struct{})
	started := make(chan struct{})
	busy := c.queue.Add(func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	})
	<-started

	var firstRan, secondRan bool
	first := c.Stop(func() { firstRan = true })
	second := c.Stop(func() { secondRan = true })
	close(release)

	require.NoError(t, busy.Wait(context.Background()))
	require.NoError(t, first.Wait(context.Background()))
	require.NoError(t, second.Wait(context.Background()))
	assert.True(t, firstRan)
	assert.True(t, secondRan)
}
