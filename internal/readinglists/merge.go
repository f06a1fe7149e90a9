package readinglists

import (
	"fmt"
	"log"
	"time"

	"github.com/mrlokans/readinglists/internal/entities"
	"github.com/mrlokans/readinglists/internal/remote"
	"github.com/mrlokans/readinglists/internal/utils"
)

func parseRemoteTime(value string, fallback time.Time) time.Time {
	if value == "" {
		return fallback
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return fallback
	}
	return t
}

// mergeRemoteLists reconciles local lists with remote ones. Lists are
// matched by remote ID, then unbound local lists by canonical name. The
// default list only binds to the remote default list. With
// deleteMissing, bound local lists absent from remote are deleted.
func (s *store) mergeRemoteLists(remoteLists []remote.ReadingList, deleteMissing bool) error {
	byID := make(map[int64]remote.ReadingList, len(remoteLists))
	byName := make(map[string][]int64)
	var remoteDefault *remote.ReadingList
	for i, rl := range remoteLists {
		if rl.Default {
			remoteDefault = &remoteLists[i]
		}
		byID[rl.ID] = rl
		canonical := utils.CanonicalName(rl.Name)
		byName[canonical] = append(byName[canonical], rl.ID)
	}

	if remoteDefault != nil {
		def, err := s.lists.FetchOrCreateDefaultList(s.now)
		if err != nil {
			return err
		}
		if def.RemoteID == nil || *def.RemoteID != remoteDefault.ID {
			id := remoteDefault.ID
			def.RemoteID = &id
			if err := s.lists.SaveList(def); err != nil {
				return err
			}
		}
	}

	locals, err := s.lists.GetAllLists()
	if err != nil {
		return err
	}

	var missing []entities.ReadingList
	for i := range locals {
		local := &locals[i]

		var match *remote.ReadingList
		if local.RemoteID != nil {
			if rl, ok := byID[*local.RemoteID]; ok {
				delete(byID, rl.ID)
				match = &rl
			}
		} else if !local.IsDefault {
			for _, id := range byName[local.CanonicalName] {
				if rl, ok := byID[id]; ok && !rl.Default {
					delete(byID, id)
					match = &rl
					break
				}
			}
		}

		if match == nil {
			if local.RemoteID != nil && !local.IsDefault {
				missing = append(missing, *local)
			}
			continue
		}

		if match.Deleted {
			if local.IsDefault {
				continue
			}
			if err := s.deleteListPermanently(local); err != nil {
				return err
			}
			continue
		}

		if err := s.applyRemoteList(local, match); err != nil {
			return err
		}
	}

	if deleteMissing {
		for i := range missing {
			if err := s.deleteListPermanently(&missing[i]); err != nil {
				return err
			}
		}
	}

	for _, rl := range remoteLists {
		if _, ok := byID[rl.ID]; !ok || rl.Deleted || rl.Default {
			continue
		}
		delete(byID, rl.ID)
		if err := s.createListFromRemote(rl); err != nil {
			return err
		}
	}
	return nil
}

// applyRemoteList binds local to the remote list. Name and description are
// taken from the server unless the list has unsynced local edits.
func (s *store) applyRemoteList(local *entities.ReadingList, rl *remote.ReadingList) error {
	id := rl.ID
	local.RemoteID = &id
	if !local.IsDefault && !local.IsUpdatedLocally {
		name, err := s.uniqueListName(utils.NormalizeName(rl.Name), local.ID)
		if err != nil {
			return err
		}
		local.Name = name
		local.CanonicalName = utils.CanonicalName(name)
		local.Description = rl.Description
		local.UpdatedDate = parseRemoteTime(rl.Updated, local.UpdatedDate)
	}
	return s.lists.SaveList(local)
}

func (s *store) createListFromRemote(rl remote.ReadingList) error {
	name, err := s.uniqueListName(utils.NormalizeName(rl.Name), 0)
	if err != nil {
		return err
	}
	id := rl.ID
	created := parseRemoteTime(rl.Created, s.now)
	list := &entities.ReadingList{
		RemoteID:      &id,
		Name:          name,
		CanonicalName: utils.CanonicalName(name),
		Description:   rl.Description,
		CreatedDate:   created,
		UpdatedDate:   parseRemoteTime(rl.Updated, created),
	}
	return s.lists.CreateList(list)
}

// uniqueListName returns name, or name with a " (n)" suffix when another
// live list than exceptID already uses its canonical form.
func (s *store) uniqueListName(name string, exceptID uint) (string, error) {
	candidate := name
	for n := 1; ; n++ {
		existing, err := s.findLiveList(candidate)
		if err != nil {
			return "", err
		}
		if existing == nil || existing.ID == exceptID {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s (%d)", name, n)
	}
}

// mergeRemoteEntries reconciles local entries with remote ones. Entries are
// grouped by their remote list; forListID is used for entries that do not
// name one. Without forListID, an entry of an unknown list means the local
// store is too far behind and ErrNeedsFullSync is returned.
func (s *store) mergeRemoteEntries(remoteEntries []remote.Entry, forListID *int64, deleteMissing bool) error {
	type group struct {
		keys    []string
		entries map[string]remote.Entry
	}
	var order []int64
	groups := make(map[int64]*group)
	if forListID != nil {
		order = append(order, *forListID)
		groups[*forListID] = &group{entries: make(map[string]remote.Entry)}
	}

	for _, re := range remoteEntries {
		listID := re.ListID
		if listID == 0 && forListID != nil {
			listID = *forListID
		}
		if listID == 0 {
			log.Printf("Reading lists sync: missing list ID for remote entry %d", re.ID)
			continue
		}
		key := re.ArticleKey()
		if _, _, err := utils.ParseArticleKey(key); err != nil {
			log.Printf("Reading lists sync: skipping remote entry %d: %v", re.ID, err)
			continue
		}
		g, ok := groups[listID]
		if !ok {
			g = &group{entries: make(map[string]remote.Entry)}
			groups[listID] = g
			order = append(order, listID)
		}
		if _, dup := g.entries[key]; !dup {
			g.keys = append(g.keys, key)
		}
		g.entries[key] = re
	}

	for _, remoteListID := range order {
		g := groups[remoteListID]
		list, err := s.lists.GetListByRemoteID(remoteListID)
		if isNotFound(err) {
			if forListID == nil {
				log.Printf("Reading lists sync: missing list for remote list ID %d", remoteListID)
				return remote.ErrNeedsFullSync
			}
			continue
		}
		if err != nil {
			return err
		}
		if err := s.mergeListEntries(list, g.keys, g.entries, deleteMissing); err != nil {
			return err
		}
	}
	return nil
}

func (s *store) mergeListEntries(list *entities.ReadingList, keys []string, remoteByKey map[string]remote.Entry, deleteMissing bool) error {
	locals, err := s.lists.GetEntriesForList(list.ID)
	if err != nil {
		return err
	}

	remaining := make(map[string]remote.Entry, len(remoteByKey))
	for k, v := range remoteByKey {
		remaining[k] = v
	}
	pendingDeletion := make(map[int64]bool)
	var toDelete []entities.ReadingListEntry
	var missing []entities.ReadingListEntry

	for i := range locals {
		local := &locals[i]
		if local.IsDeletedLocally {
			if local.RemoteID != nil {
				pendingDeletion[*local.RemoteID] = true
			}
			continue
		}
		re, ok := remaining[local.ArticleKey]
		if !ok {
			if local.RemoteID != nil {
				missing = append(missing, *local)
			}
			continue
		}
		delete(remaining, local.ArticleKey)
		if re.Deleted {
			toDelete = append(toDelete, *local)
			continue
		}
		id := re.ID
		local.RemoteID = &id
		if err := s.lists.SaveEntry(local); err != nil {
			return err
		}
	}

	if deleteMissing {
		toDelete = append(toDelete, missing...)
	}
	if err := s.deleteEntriesPermanently(toDelete); err != nil {
		return err
	}

	var touched []string
	for _, key := range keys {
		re, ok := remaining[key]
		if !ok || re.Deleted || pendingDeletion[re.ID] {
			continue
		}
		if err := s.createEntryFromRemote(list, re); err != nil {
			return err
		}
		touched = append(touched, key)
	}
	return s.lists.UpdateArticlesAndEntries([]uint{list.ID}, touched)
}

func (s *store) createEntryFromRemote(list *entities.ReadingList, re remote.Entry) error {
	key := re.ArticleKey()
	article, err := s.articleForKey(key, utils.DisplayTitle(re.Title))
	if err != nil {
		return err
	}

	created := parseRemoteTime(re.Created, s.now)
	if article.SavedDate == nil {
		saved, err := s.lists.IsKeySaved(key)
		if err != nil {
			return err
		}
		if !saved {
			article.SavedDate = &created
			if err := s.lists.SaveArticle(article); err != nil {
				return err
			}
		}
	}

	id := re.ID
	entry := &entities.ReadingListEntry{
		RemoteID:     &id,
		ListID:       list.ID,
		ArticleKey:   key,
		Variant:      article.Variant,
		DisplayTitle: article.DisplayTitle,
		CreatedDate:  created,
		UpdatedDate:  parseRemoteTime(re.Updated, created),
	}
	return s.lists.CreateEntry(entry)
}

// articleForKey returns the saved variant of key, any variant when none is
// saved, or a new variant-less article.
func (s *store) articleForKey(key, displayTitle string) (*entities.Article, error) {
	variants, err := s.lists.GetArticlesByKey(key)
	if err != nil {
		return nil, err
	}
	for i := range variants {
		if variants[i].SavedDate != nil {
			return &variants[i], nil
		}
	}
	if len(variants) > 0 {
		return &variants[0], nil
	}
	return s.lists.FetchOrCreateArticle(key, "", displayTitle)
}
