package readinglists

import (
	"context"
	"errors"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mrlokans/readinglists/internal/entities"
	"github.com/mrlokans/readinglists/internal/remote"
	"github.com/mrlokans/readinglists/internal/utils"
)

// pushResult is the outcome of one remote call for one local record.
type pushResult struct {
	localID  uint
	revision int64
	remoteID *int64
	err      error
}

type pushResults struct {
	mu      sync.Mutex
	created []pushResult
	updated []pushResult
	deleted []pushResult
	failed  []pushResult
}

func (r *pushResults) add(bucket *[]pushResult, res pushResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	*bucket = append(*bucket, res)
}

// processLocalUpdates pushes dirty lists, then dirty entries. Dirty flags
// are cleared only for records whose revision did not change while the
// remote calls were in flight.
func (op *syncOperation) processLocalUpdates(ctx context.Context) error {
	op.step("push_lists")
	if err := op.pushLists(ctx); err != nil {
		return err
	}
	op.step("push_entries")
	return op.pushEntries(ctx)
}

func (op *syncOperation) newGroup() *errgroup.Group {
	g := new(errgroup.Group)
	g.SetLimit(maxConcurrentRequests)
	return g
}

func (op *syncOperation) recordFailure(kind string, err error) {
	log.Printf("Reading lists sync %s: error pushing %s: %v", op.id, kind, err)
	if op.c.metrics != nil {
		op.c.metrics.PushFailed(kind)
	}
}

func (op *syncOperation) pushLists(ctx context.Context) error {
	c := op.c
	dirty, err := c.read().lists.GetDirtyLists()
	if err != nil {
		return err
	}

	var orphaned []uint
	var unchanged []pushResult
	var toCreate []entities.ReadingList
	results := &pushResults{}
	g := op.newGroup()

	for _, list := range dirty {
		list := list
		res := pushResult{localID: list.ID, revision: list.Revision}
		switch {
		case list.RemoteID == nil && list.IsDeletedLocally:
			orphaned = append(orphaned, list.ID)
		case list.RemoteID == nil && list.IsDefault:
			// bound to the server default list by the next full sync
		case list.RemoteID == nil:
			toCreate = append(toCreate, list)
		case list.IsDefault:
			unchanged = append(unchanged, res)
		case list.IsDeletedLocally:
			remoteID := *list.RemoteID
			g.Go(func() error {
				err := c.api.DeleteList(ctx, remoteID)
				if err != nil && !errors.Is(err, remote.ErrListDeleted) && !errors.Is(err, remote.ErrNoSuchList) {
					op.recordFailure("list_delete", err)
					res.err = err
					results.add(&results.failed, res)
					return nil
				}
				results.add(&results.deleted, res)
				return nil
			})
		default:
			remoteID := *list.RemoteID
			g.Go(func() error {
				if err := c.api.UpdateList(ctx, remoteID, list.Name, list.Description); err != nil {
					op.recordFailure("list_update", err)
					res.err = err
					results.add(&results.failed, res)
					return nil
				}
				results.add(&results.updated, res)
				return nil
			})
		}
	}

	for start := 0; start < len(toCreate); start += batchSizePerRequest {
		end := min(start+batchSizePerRequest, len(toCreate))
		batch := toCreate[start:end]
		g.Go(func() error {
			payload := make([]remote.NewList, len(batch))
			for i, l := range batch {
				payload[i] = remote.NewList{Name: l.Name, Description: l.Description}
			}
			items, err := c.api.CreateLists(ctx, payload)
			for i, l := range batch {
				res := pushResult{localID: l.ID, revision: l.Revision}
				switch {
				case err != nil:
					res.err = err
				case i < len(items) && items[i].Err != nil:
					res.err = items[i].Err
				case i < len(items):
					res.remoteID = items[i].ID
				}
				if res.remoteID == nil {
					if res.err != nil {
						op.recordFailure("list_create", res.err)
					}
					results.add(&results.failed, res)
					continue
				}
				results.add(&results.created, res)
			}
			return nil
		})
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}

	return c.write(func(s *store) error {
		for _, id := range orphaned {
			if err := s.lists.DeleteList(id); err != nil {
				return err
			}
		}
		for _, res := range append(unchanged, results.updated...) {
			if err := s.markListSynced(res, nil); err != nil {
				return err
			}
		}
		for _, res := range results.created {
			if err := s.markListSynced(res, res.remoteID); err != nil {
				return err
			}
		}
		for _, res := range results.deleted {
			list, err := s.lists.GetListByID(res.localID)
			if isNotFound(err) {
				continue
			}
			if err != nil {
				return err
			}
			if err := s.deleteListPermanently(list); err != nil {
				return err
			}
		}
		for _, res := range results.failed {
			if err := s.markListFailed(res); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *store) markListSynced(res pushResult, remoteID *int64) error {
	list, err := s.lists.GetListByID(res.localID)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if remoteID != nil {
		list.RemoteID = remoteID
	}
	if list.Revision == res.revision {
		list.IsUpdatedLocally = false
		list.ErrorCode = nil
	}
	return s.lists.SaveList(list)
}

func (s *store) markListFailed(res pushResult) error {
	code, ok := remote.ErrorCode(res.err)
	if !ok {
		return nil
	}
	list, err := s.lists.GetListByID(res.localID)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	list.ErrorCode = &code
	return s.lists.SaveList(list)
}

type entryToAdd struct {
	entry   entities.ReadingListEntry
	project string
	title   string
}

func (op *syncOperation) pushEntries(ctx context.Context) error {
	c := op.c
	reader := c.read()
	dirty, err := reader.lists.GetDirtyEntries()
	if err != nil {
		return err
	}

	listIDs := make([]uint, 0, len(dirty))
	for _, e := range dirty {
		listIDs = append(listIDs, e.ListID)
	}
	lists, err := reader.lists.GetListsByIDs(listIDs)
	if err != nil {
		return err
	}
	remoteListIDs := make(map[uint]int64, len(lists))
	for _, l := range lists {
		if l.RemoteID != nil {
			remoteListIDs[l.ID] = *l.RemoteID
		}
	}

	var orphaned []entities.ReadingListEntry
	var unchanged []pushResult
	var addOrder []int64
	toAdd := make(map[int64][]entryToAdd)
	results := &pushResults{}
	g := op.newGroup()

	for _, entry := range dirty {
		entry := entry
		project, title, err := utils.ParseArticleKey(entry.ArticleKey)
		if err != nil {
			log.Printf("Reading lists sync %s: dropping entry %d: %v", op.id, entry.ID, err)
			orphaned = append(orphaned, entry)
			continue
		}
		remoteListID, ok := remoteListIDs[entry.ListID]
		if !ok {
			continue
		}
		res := pushResult{localID: entry.ID, revision: entry.Revision}
		switch {
		case entry.RemoteID == nil && entry.IsDeletedLocally:
			orphaned = append(orphaned, entry)
		case entry.RemoteID == nil:
			if _, seen := toAdd[remoteListID]; !seen {
				addOrder = append(addOrder, remoteListID)
			}
			toAdd[remoteListID] = append(toAdd[remoteListID], entryToAdd{entry: entry, project: project, title: title})
		case entry.IsDeletedLocally:
			remoteEntryID := *entry.RemoteID
			g.Go(func() error {
				err := c.api.RemoveEntry(ctx, remoteListID, remoteEntryID)
				if err != nil && !errors.Is(err, remote.ErrNoSuchList) && !errors.Is(err, remote.ErrListDeleted) {
					op.recordFailure("entry_delete", err)
					res.err = err
					results.add(&results.failed, res)
					return nil
				}
				results.add(&results.deleted, res)
				return nil
			})
		default:
			// entries have no remotely updatable fields
			unchanged = append(unchanged, res)
		}
	}

	for _, remoteListID := range addOrder {
		pending := toAdd[remoteListID]
		listID := remoteListID
		for start := 0; start < len(pending); start += batchSizePerRequest {
			end := min(start+batchSizePerRequest, len(pending))
			batch := pending[start:end]
			g.Go(func() error {
				payload := make([]remote.NewEntry, len(batch))
				for i, p := range batch {
					payload[i] = remote.NewEntry{Project: p.project, Title: p.title}
				}
				items, err := c.api.AddEntries(ctx, listID, payload)
				for i, p := range batch {
					res := pushResult{localID: p.entry.ID, revision: p.entry.Revision}
					switch {
					case err != nil:
						res.err = err
					case i < len(items) && items[i].Err != nil:
						res.err = items[i].Err
					case i < len(items):
						res.remoteID = items[i].ID
					}
					if res.remoteID == nil {
						if res.err != nil {
							op.recordFailure("entry_add", res.err)
						}
						results.add(&results.failed, res)
						continue
					}
					results.add(&results.created, res)
				}
				return nil
			})
		}
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}

	return c.write(func(s *store) error {
		if err := s.deleteEntriesPermanently(orphaned); err != nil {
			return err
		}
		for _, res := range append(unchanged, results.created...) {
			if err := s.markEntrySynced(res); err != nil {
				return err
			}
		}
		var deleted []entities.ReadingListEntry
		for _, res := range results.deleted {
			entry, err := s.lists.GetEntryByID(res.localID)
			if isNotFound(err) {
				continue
			}
			if err != nil {
				return err
			}
			deleted = append(deleted, *entry)
		}
		if err := s.deleteEntriesPermanently(deleted); err != nil {
			return err
		}
		for _, res := range results.failed {
			if err := s.markEntryFailed(res); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *store) markEntrySynced(res pushResult) error {
	entry, err := s.lists.GetEntryByID(res.localID)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if res.remoteID != nil {
		entry.RemoteID = res.remoteID
	}
	if entry.Revision == res.revision {
		entry.IsUpdatedLocally = false
		entry.ErrorCode = nil
	}
	return s.lists.SaveEntry(entry)
}

func (s *store) markEntryFailed(res pushResult) error {
	code, ok := remote.ErrorCode(res.err)
	if !ok {
		return nil
	}
	entry, err := s.lists.GetEntryByID(res.localID)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	entry.ErrorCode = &code
	return s.lists.SaveEntry(entry)
}
