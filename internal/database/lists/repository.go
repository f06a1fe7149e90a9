// Package lists provides database operations for reading lists, their
// entries and the articles they reference.
//
// The repository is meant to be bound to a transaction by the reading list
// controller; it performs no locking of its own.
//
// # Usage
//
//	repo := lists.NewRepository(tx)
//	list, err := repo.FetchOrCreateDefaultList(time.Now())
package lists

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/readinglists/internal/entities"
	"github.com/mrlokans/readinglists/internal/utils"
)

// Repository handles all reading list database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new lists repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// --- Lists ---

// GetListByID retrieves a list by its local ID, including soft-deleted lists.
func (r *Repository) GetListByID(id uint) (*entities.ReadingList, error) {
	var list entities.ReadingList
	if err := r.db.First(&list, id).Error; err != nil {
		return nil, err
	}
	return &list, nil
}

// GetListsByIDs retrieves the lists with the given local IDs.
func (r *Repository) GetListsByIDs(ids []uint) ([]entities.ReadingList, error) {
	var lists []entities.ReadingList
	if len(ids) == 0 {
		return lists, nil
	}
	err := r.db.Where("id IN ?", ids).Find(&lists).Error
	return lists, err
}

// GetAllLists returns every list, soft-deleted ones included.
func (r *Repository) GetAllLists() ([]entities.ReadingList, error) {
	var lists []entities.ReadingList
	err := r.db.Order("id").Find(&lists).Error
	return lists, err
}

// GetLiveLists returns the lists not marked as deleted, default list first.
func (r *Repository) GetLiveLists() ([]entities.ReadingList, error) {
	var lists []entities.ReadingList
	err := r.db.Where("is_deleted_locally = ?", false).
		Order("is_default DESC").
		Order("created_date").
		Order("id").
		Find(&lists).Error
	return lists, err
}

// GetDefaultList returns the default list or gorm.ErrRecordNotFound.
func (r *Repository) GetDefaultList() (*entities.ReadingList, error) {
	var list entities.ReadingList
	if err := r.db.Where("is_default = ?", true).First(&list).Error; err != nil {
		return nil, err
	}
	return &list, nil
}

// FetchOrCreateDefaultList returns the default list, creating it if missing.
func (r *Repository) FetchOrCreateDefaultList(now time.Time) (*entities.ReadingList, error) {
	list, err := r.GetDefaultList()
	if err == nil {
		return list, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	list = &entities.ReadingList{
		Name:          entities.DefaultReadingListName,
		CanonicalName: utils.CanonicalName(entities.DefaultReadingListName),
		IsDefault:     true,
		CreatedDate:   now,
		UpdatedDate:   now,
	}
	if err := r.db.Create(list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// FindLiveListByCanonicalName returns the non-deleted list with the given
// canonical name, or gorm.ErrRecordNotFound.
func (r *Repository) FindLiveListByCanonicalName(canonical string) (*entities.ReadingList, error) {
	var list entities.ReadingList
	err := r.db.Where("canonical_name = ? AND is_deleted_locally = ?", canonical, false).
		Order("is_default DESC").
		First(&list).Error
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// GetListByRemoteID returns the list bound to the given server list ID.
func (r *Repository) GetListByRemoteID(remoteID int64) (*entities.ReadingList, error) {
	var list entities.ReadingList
	if err := r.db.Where("remote_id = ?", remoteID).First(&list).Error; err != nil {
		return nil, err
	}
	return &list, nil
}

// CountUserLists counts the non-default lists that are not marked as deleted.
func (r *Repository) CountUserLists() (int64, error) {
	var count int64
	err := r.db.Model(&entities.ReadingList{}).
		Where("is_default = ? AND is_deleted_locally = ?", false, false).
		Count(&count).Error
	return count, err
}

// GetDirtyLists returns lists with unsynced local changes, newest first.
func (r *Repository) GetDirtyLists() ([]entities.ReadingList, error) {
	var lists []entities.ReadingList
	err := r.db.Where("is_updated_locally = ?", true).
		Order("created_date DESC").
		Find(&lists).Error
	return lists, err
}

// CreateList inserts a new list.
func (r *Repository) CreateList(list *entities.ReadingList) error {
	return r.db.Create(list).Error
}

// SaveList persists every column of the list.
func (r *Repository) SaveList(list *entities.ReadingList) error {
	return r.db.Save(list).Error
}

// DeleteList removes a list and all its entries from the store.
func (r *Repository) DeleteList(id uint) error {
	if err := r.db.Where("list_id = ?", id).Delete(&entities.ReadingListEntry{}).Error; err != nil {
		return err
	}
	return r.db.Delete(&entities.ReadingList{}, id).Error
}

// --- Entries ---

// GetEntryByID retrieves an entry by its local ID.
func (r *Repository) GetEntryByID(id uint) (*entities.ReadingListEntry, error) {
	var entry entities.ReadingListEntry
	if err := r.db.First(&entry, id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetEntriesByIDs retrieves the entries with the given local IDs.
func (r *Repository) GetEntriesByIDs(ids []uint) ([]entities.ReadingListEntry, error) {
	var entries []entities.ReadingListEntry
	if len(ids) == 0 {
		return entries, nil
	}
	err := r.db.Where("id IN ?", ids).Find(&entries).Error
	return entries, err
}

// GetEntriesForList returns every entry of a list, soft-deleted ones included.
func (r *Repository) GetEntriesForList(listID uint) ([]entities.ReadingListEntry, error) {
	var entries []entities.ReadingListEntry
	err := r.db.Where("list_id = ?", listID).Order("id").Find(&entries).Error
	return entries, err
}

// GetLiveEntriesForList returns the entries of a list not marked as deleted,
// newest first.
func (r *Repository) GetLiveEntriesForList(listID uint) ([]entities.ReadingListEntry, error) {
	var entries []entities.ReadingListEntry
	err := r.db.Where("list_id = ? AND is_deleted_locally = ?", listID, false).
		Order("created_date DESC").
		Order("id DESC").
		Find(&entries).Error
	return entries, err
}

// GetLiveEntriesForListWithKeys returns the live entries of a list whose
// article key is in keys.
func (r *Repository) GetLiveEntriesForListWithKeys(listID uint, keys []string) ([]entities.ReadingListEntry, error) {
	var entries []entities.ReadingListEntry
	if len(keys) == 0 {
		return entries, nil
	}
	err := r.db.Where("list_id = ? AND is_deleted_locally = ? AND article_key IN ?", listID, false, keys).
		Find(&entries).Error
	return entries, err
}

// GetLiveEntriesWithKeys returns the live entries of any list whose article
// key is in keys.
func (r *Repository) GetLiveEntriesWithKeys(keys []string) ([]entities.ReadingListEntry, error) {
	var entries []entities.ReadingListEntry
	if len(keys) == 0 {
		return entries, nil
	}
	err := r.db.Where("is_deleted_locally = ? AND article_key IN ?", false, keys).
		Find(&entries).Error
	return entries, err
}

// GetDirtyEntries returns entries with unsynced local changes, newest first.
func (r *Repository) GetDirtyEntries() ([]entities.ReadingListEntry, error) {
	var entries []entities.ReadingListEntry
	err := r.db.Where("is_updated_locally = ?", true).
		Order("created_date DESC").
		Find(&entries).Error
	return entries, err
}

// CreateEntry inserts a new entry.
func (r *Repository) CreateEntry(entry *entities.ReadingListEntry) error {
	return r.db.Create(entry).Error
}

// SaveEntry persists every column of the entry.
func (r *Repository) SaveEntry(entry *entities.ReadingListEntry) error {
	return r.db.Save(entry).Error
}

// DeleteEntry removes an entry from the store.
func (r *Repository) DeleteEntry(id uint) error {
	return r.db.Delete(&entities.ReadingListEntry{}, id).Error
}

// CountLiveEntries counts the entries of a list not marked as deleted.
func (r *Repository) CountLiveEntries(listID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.ReadingListEntry{}).
		Where("list_id = ? AND is_deleted_locally = ?", listID, false).
		Count(&count).Error
	return count, err
}

// --- Articles ---

// GetArticle returns the article variant with the given key.
func (r *Repository) GetArticle(key, variant string) (*entities.Article, error) {
	var article entities.Article
	if err := r.db.Where("key = ? AND variant = ?", key, variant).First(&article).Error; err != nil {
		return nil, err
	}
	return &article, nil
}

// GetArticlesByKey returns every variant stored for key.
func (r *Repository) GetArticlesByKey(key string) ([]entities.Article, error) {
	var articles []entities.Article
	err := r.db.Where("key = ?", key).Order("id").Find(&articles).Error
	return articles, err
}

// FetchOrCreateArticle returns the article variant, creating it if missing.
func (r *Repository) FetchOrCreateArticle(key, variant, displayTitle string) (*entities.Article, error) {
	article := entities.Article{Key: key, Variant: variant, DisplayTitle: displayTitle}
	err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&article).Error
	if err != nil {
		return nil, err
	}
	return r.GetArticle(key, variant)
}

// SaveArticle persists every column of the article.
func (r *Repository) SaveArticle(article *entities.Article) error {
	return r.db.Save(article).Error
}

// GetSavedArticles returns every article variant with a saved date.
func (r *Repository) GetSavedArticles() ([]entities.Article, error) {
	var articles []entities.Article
	err := r.db.Where("saved_date IS NOT NULL").Order("saved_date DESC").Find(&articles).Error
	return articles, err
}

// IsKeySaved reports whether any variant of key is saved.
func (r *Repository) IsKeySaved(key string) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Article{}).
		Where("key = ? AND saved_date IS NOT NULL", key).
		Count(&count).Error
	return count > 0, err
}

// --- Invariant maintenance ---

// UpdateArticlesAndEntries recomputes the entry counters of the given lists
// and clears the saved date of articles no live entry references any more.
func (r *Repository) UpdateArticlesAndEntries(listIDs []uint, articleKeys []string) error {
	seen := make(map[uint]bool, len(listIDs))
	for _, id := range listIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		count, err := r.CountLiveEntries(id)
		if err != nil {
			return err
		}
		err = r.db.Model(&entities.ReadingList{}).Where("id = ?", id).
			Update("count_of_entries", count).Error
		if err != nil {
			return err
		}
	}

	if len(articleKeys) == 0 {
		return nil
	}
	referenced, err := r.GetLiveEntriesWithKeys(articleKeys)
	if err != nil {
		return err
	}
	live := make(map[string]bool, len(referenced))
	for _, e := range referenced {
		live[e.ArticleKey] = true
	}
	var orphaned []string
	for _, key := range articleKeys {
		if !live[key] {
			orphaned = append(orphaned, key)
		}
	}
	if len(orphaned) == 0 {
		return nil
	}
	return r.db.Model(&entities.Article{}).
		Where("key IN ? AND saved_date IS NOT NULL", orphaned).
		Update("saved_date", nil).Error
}

// ResetRemoteState forgets every remote ID and error code and marks all
// lists and entries dirty, so the next enable uploads everything again.
func (r *Repository) ResetRemoteState(now time.Time) error {
	updates := map[string]any{
		"remote_id":          nil,
		"error_code":         nil,
		"is_updated_locally": true,
		"updated_date":       now,
		"revision":           gorm.Expr("revision + 1"),
	}
	err := r.db.Model(&entities.ReadingListEntry{}).Where("1 = 1").Updates(updates).Error
	if err != nil {
		return err
	}
	return r.db.Model(&entities.ReadingList{}).Where("1 = 1").Updates(updates).Error
}

// PurgeDeleted removes every soft-deleted list and entry.
func (r *Repository) PurgeDeleted() error {
	var ids []uint
	err := r.db.Model(&entities.ReadingList{}).Where("is_deleted_locally = ?", true).Pluck("id", &ids).Error
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := r.DeleteList(id); err != nil {
			return err
		}
	}
	return r.db.Where("is_deleted_locally = ?", true).Delete(&entities.ReadingListEntry{}).Error
}

// CountSynced counts live lists and entries that carry a remote ID.
func (r *Repository) CountSynced() (lists int64, entries int64, err error) {
	err = r.db.Model(&entities.ReadingList{}).
		Where("is_deleted_locally = ? AND remote_id IS NOT NULL", false).
		Count(&lists).Error
	if err != nil {
		return
	}
	err = r.db.Model(&entities.ReadingListEntry{}).
		Where("is_deleted_locally = ? AND remote_id IS NOT NULL", false).
		Count(&entries).Error
	return
}
