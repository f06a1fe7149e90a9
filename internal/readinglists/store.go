package readinglists

import (
	"errors"
	"time"

	"gorm.io/gorm"

	listsdb "github.com/mrlokans/readinglists/internal/database/lists"
	settingsdb "github.com/mrlokans/readinglists/internal/database/settings"
	"github.com/mrlokans/readinglists/internal/entities"
	"github.com/mrlokans/readinglists/internal/syncstate"
	"github.com/mrlokans/readinglists/internal/utils"
)

// store groups the repositories bound to one transaction together with the
// mutation helpers shared by the controller and the sync operation.
type store struct {
	lists    *listsdb.Repository
	settings *settingsdb.Repository
	now      time.Time

	defaultMaxLists   int64
	defaultMaxEntries int64
}

func (c *Controller) newStore(db *gorm.DB) *store {
	return &store{
		lists:             listsdb.NewRepository(db),
		settings:          settingsdb.NewRepository(db),
		now:               c.now(),
		defaultMaxLists:   c.defaultMaxLists,
		defaultMaxEntries: c.defaultMaxEntries,
	}
}

// write runs fn in a transaction while holding the store lock.
func (c *Controller) write(fn func(s *store) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db.Transaction(func(tx *gorm.DB) error {
		return fn(c.newStore(tx))
	})
}

func (c *Controller) read() *store {
	return c.newStore(c.db)
}

func (s *store) syncState() (syncstate.State, error) {
	raw, err := s.settings.Int64Value(entities.SettingKeySyncState, 0)
	return syncstate.State(raw), err
}

func (s *store) setSyncState(state syncstate.State) error {
	return s.settings.SetInt64Value(entities.SettingKeySyncState, int64(state))
}

// updateSyncState applies transition and persists the result if it changed.
func (s *store) updateSyncState(transition func(syncstate.State) syncstate.State) (changed bool, err error) {
	old, err := s.syncState()
	if err != nil {
		return false, err
	}
	next := transition(old)
	if next == old {
		return false, nil
	}
	return true, s.setSyncState(next)
}

func (s *store) maxListsPerUser() (int64, error) {
	return s.settings.Int64Value(entities.SettingKeyMaxListsPerUser, s.defaultMaxLists)
}

func (s *store) maxEntriesPerList() (int64, error) {
	return s.settings.Int64Value(entities.SettingKeyMaxEntriesPerList, s.defaultMaxEntries)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// findLiveList returns the live list with the canonical form of name, or nil.
func (s *store) findLiveList(name string) (*entities.ReadingList, error) {
	list, err := s.lists.FindLiveListByCanonicalName(utils.CanonicalName(name))
	if isNotFound(err) {
		return nil, nil
	}
	return list, err
}

// createReadingList validates name and the list quota and inserts an empty
// dirty list. articleCount is the number of articles about to be added.
func (s *store) createReadingList(name string, description *string, articleCount int) (*entities.ReadingList, error) {
	name = utils.NormalizeName(name)
	if name == "" {
		return nil, &Error{Kind: KindUnableToCreateList}
	}

	if _, err := s.lists.FetchOrCreateDefaultList(s.now); err != nil {
		return nil, storeError(KindUnableToCreateList, err)
	}

	existing, err := s.findLiveList(name)
	if err != nil {
		return nil, storeError(KindUnableToCreateList, err)
	}
	if existing != nil {
		return nil, &Error{Kind: KindListExistsWithTheSameName, Name: name}
	}

	if err := s.checkCreateLimits(name, articleCount); err != nil {
		return nil, err
	}

	list := &entities.ReadingList{
		Name:          name,
		CanonicalName: utils.CanonicalName(name),
		Description:   description,
		CreatedDate:   s.now,
	}
	list.Touch(s.now)
	if err := s.lists.CreateList(list); err != nil {
		return nil, storeError(KindUnableToCreateList, err)
	}
	return list, nil
}

func (s *store) checkCreateLimits(name string, articleCount int) error {
	count, err := s.lists.CountUserLists()
	if err != nil {
		return storeError(KindUnableToCreateList, err)
	}
	listLimit, err := s.maxListsPerUser()
	if err != nil {
		return storeError(KindUnableToCreateList, err)
	}
	entryLimit, err := s.maxEntriesPerList()
	if err != nil {
		return storeError(KindUnableToCreateList, err)
	}

	listExceeded := count+1 > listLimit
	entriesExceeded := int64(articleCount) > entryLimit
	switch {
	case listExceeded && entriesExceeded:
		return listEntryLimitsReached(name, articleCount, int(listLimit), int(entryLimit))
	case listExceeded:
		return listLimitReached(int(listLimit))
	case entriesExceeded:
		return entryLimitReached(name, articleCount, int(entryLimit))
	}
	return nil
}

// addArticles adds the articles missing from list, enforcing the entry
// quota on the number of new entries. It returns the stored article rows of
// every requested article.
func (s *store) addArticles(list *entities.ReadingList, articles []entities.Article) ([]entities.Article, error) {
	if list.IsDeletedLocally {
		return nil, &Error{Kind: KindUnableToAddEntry, Name: list.Name}
	}

	keys := make([]string, 0, len(articles))
	for _, a := range articles {
		keys = append(keys, a.Key)
	}
	existing, err := s.lists.GetLiveEntriesForListWithKeys(list.ID, keys)
	if err != nil {
		return nil, storeError(KindUnableToAddEntry, err)
	}
	present := make(map[string]bool, len(existing))
	for _, e := range existing {
		present[e.ArticleKey] = true
	}

	var toAdd []entities.Article
	for _, a := range articles {
		if a.Key == "" || present[a.Key] {
			continue
		}
		present[a.Key] = true
		toAdd = append(toAdd, a)
	}

	if len(toAdd) > 0 {
		count, err := s.lists.CountLiveEntries(list.ID)
		if err != nil {
			return nil, storeError(KindUnableToAddEntry, err)
		}
		limit, err := s.maxEntriesPerList()
		if err != nil {
			return nil, storeError(KindUnableToAddEntry, err)
		}
		if count+int64(len(toAdd)) > limit {
			return nil, entryLimitReached(list.Name, len(toAdd), int(limit))
		}
	}

	stored := make([]entities.Article, 0, len(articles))
	adding := make(map[string]bool, len(toAdd))
	for _, a := range toAdd {
		adding[a.Key] = true
	}
	for _, a := range articles {
		if a.Key == "" {
			continue
		}
		article, err := s.fetchOrCreateArticle(a)
		if err != nil {
			return nil, storeError(KindUnableToAddEntry, err)
		}
		if adding[a.Key] {
			delete(adding, a.Key)
			if err := s.addEntry(list, article); err != nil {
				return nil, storeError(KindUnableToAddEntry, err)
			}
		}
		stored = append(stored, *article)
	}

	if err := s.lists.UpdateArticlesAndEntries([]uint{list.ID}, nil); err != nil {
		return nil, storeError(KindUnableToAddEntry, err)
	}
	return stored, nil
}

func (s *store) addEntry(list *entities.ReadingList, article *entities.Article) error {
	if err := s.markSavedIfNeeded(article); err != nil {
		return err
	}
	entry := &entities.ReadingListEntry{
		ListID:       list.ID,
		ArticleKey:   article.Key,
		Variant:      article.Variant,
		DisplayTitle: article.DisplayTitle,
		CreatedDate:  s.now,
	}
	entry.Touch(s.now)
	return s.lists.CreateEntry(entry)
}

func (s *store) fetchOrCreateArticle(a entities.Article) (*entities.Article, error) {
	title := a.DisplayTitle
	if title == "" {
		if _, t, err := utils.ParseArticleKey(a.Key); err == nil {
			title = utils.DisplayTitle(t)
		}
	}
	return s.lists.FetchOrCreateArticle(a.Key, a.Variant, title)
}

// markSavedIfNeeded saves article unless a variant of its key already is.
func (s *store) markSavedIfNeeded(article *entities.Article) error {
	saved, err := s.lists.IsKeySaved(article.Key)
	if err != nil || saved {
		return err
	}
	now := s.now
	article.SavedDate = &now
	return s.lists.SaveArticle(article)
}

// markSavedExclusively makes article the only saved variant of its key.
func (s *store) markSavedExclusively(article *entities.Article) error {
	variants, err := s.lists.GetArticlesByKey(article.Key)
	if err != nil {
		return err
	}
	var savedDate *time.Time
	for i := range variants {
		v := &variants[i]
		if v.ID == article.ID || v.SavedDate == nil {
			continue
		}
		savedDate = v.SavedDate
		v.SavedDate = nil
		if err := s.lists.SaveArticle(v); err != nil {
			return err
		}
	}
	if article.SavedDate == nil {
		if savedDate == nil {
			now := s.now
			savedDate = &now
		}
		article.SavedDate = savedDate
	}
	return s.lists.SaveArticle(article)
}

// markEntriesDeleted soft-deletes entries and returns the affected list IDs
// and article keys.
func (s *store) markEntriesDeleted(entries []entities.ReadingListEntry) (listIDs []uint, keys []string, err error) {
	for i := range entries {
		e := &entries[i]
		if e.IsDeletedLocally {
			continue
		}
		e.IsDeletedLocally = true
		e.Touch(s.now)
		if err := s.lists.SaveEntry(e); err != nil {
			return nil, nil, err
		}
		listIDs = append(listIDs, e.ListID)
		keys = append(keys, e.ArticleKey)
	}
	return listIDs, keys, nil
}

// markListsDeleted soft-deletes lists and their entries. The default list
// is never deleted.
func (s *store) markListsDeleted(lists []entities.ReadingList) error {
	var listIDs []uint
	var keys []string
	for i := range lists {
		l := &lists[i]
		if l.IsDefault {
			continue
		}
		entries, err := s.lists.GetLiveEntriesForList(l.ID)
		if err != nil {
			return err
		}
		_, entryKeys, err := s.markEntriesDeleted(entries)
		if err != nil {
			return err
		}
		keys = append(keys, entryKeys...)

		l.IsDeletedLocally = true
		l.Touch(s.now)
		if err := s.lists.SaveList(l); err != nil {
			return err
		}
		listIDs = append(listIDs, l.ID)
	}
	return s.lists.UpdateArticlesAndEntries(listIDs, keys)
}

// unsave removes every variant of the given keys from all lists.
func (s *store) unsave(keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	entries, err := s.lists.GetLiveEntriesWithKeys(keys)
	if err != nil {
		return err
	}
	listIDs, _, err := s.markEntriesDeleted(entries)
	if err != nil {
		return err
	}
	for _, key := range keys {
		variants, err := s.lists.GetArticlesByKey(key)
		if err != nil {
			return err
		}
		for i := range variants {
			if variants[i].SavedDate == nil {
				continue
			}
			variants[i].SavedDate = nil
			if err := s.lists.SaveArticle(&variants[i]); err != nil {
				return err
			}
		}
	}
	return s.lists.UpdateArticlesAndEntries(listIDs, keys)
}

// deleteListPermanently removes a list confirmed deleted by the server.
func (s *store) deleteListPermanently(list *entities.ReadingList) error {
	entries, err := s.lists.GetLiveEntriesForList(list.ID)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.ArticleKey)
	}
	if err := s.lists.DeleteList(list.ID); err != nil {
		return err
	}
	return s.lists.UpdateArticlesAndEntries(nil, keys)
}

// deleteEntriesPermanently removes entries confirmed deleted by the server.
func (s *store) deleteEntriesPermanently(entries []entities.ReadingListEntry) error {
	if len(entries) == 0 {
		return nil
	}
	listIDs := make([]uint, 0, len(entries))
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if err := s.lists.DeleteEntry(e.ID); err != nil {
			return err
		}
		listIDs = append(listIDs, e.ListID)
		keys = append(keys, e.ArticleKey)
	}
	return s.lists.UpdateArticlesAndEntries(listIDs, keys)
}
