package readinglists

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mrlokans/readinglists/internal/entities"
	"github.com/mrlokans/readinglists/internal/remote"
	"github.com/mrlokans/readinglists/internal/syncstate"
	"github.com/mrlokans/readinglists/internal/utils"
)

const (
	batchSizePerRequest   = 500
	maxConcurrentRequests = 8
)

// syncOperation is one pass over the pending sync state.
type syncOperation struct {
	c  *Controller
	id string

	splitEntryLimit *int
}

func newSyncOperation(c *Controller) *syncOperation {
	return &syncOperation{c: c, id: uuid.New().String()}
}

func (op *syncOperation) run(ctx context.Context) error {
	c := op.c
	started := time.Now()
	c.setSyncing(true)
	if c.metrics != nil {
		c.metrics.SyncStarted()
	}
	if c.progress != nil {
		if err := c.progress.StartSync(op.id); err != nil {
			log.Printf("Reading lists sync %s: failed to record start: %v", op.id, err)
		}
	}

	err := op.handleError(op.execute(ctx))
	if err != nil {
		log.Printf("Reading lists sync %s: error during sync operation: %v", op.id, err)
	}

	if op.splitEntryLimit != nil {
		c.post(ListsWereSplit{EntryLimit: *op.splitEntryLimit})
	}

	syncedLists, syncedEntries, countErr := c.read().lists.CountSynced()
	if countErr != nil {
		log.Printf("Reading lists sync %s: failed to count synced records: %v", op.id, countErr)
	}
	if c.progress != nil {
		errMsg := ""
		if err != nil {
			errMsg = err.Error()
		}
		if perr := c.progress.CompleteSync(err == nil, int(syncedLists), int(syncedEntries), errMsg); perr != nil {
			log.Printf("Reading lists sync %s: failed to record completion: %v", op.id, perr)
		}
	}
	if c.metrics != nil {
		c.metrics.SyncFinished(err, time.Since(started), int(syncedLists), int(syncedEntries))
	}

	c.post(SyncDidFinish{Err: err, SyncedLists: int(syncedLists), SyncedEntries: int(syncedEntries)})
	c.setSyncing(false)
	return err
}

// handleError interprets the two server errors that change the sync state
// instead of failing the pass.
func (op *syncOperation) handleError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, remote.ErrNotSetup):
		log.Printf("Reading lists sync %s: reading lists are not set up for the account, disabling sync", op.id)
		op.c.SetSyncEnabled(false, false, false)
		op.c.post(ServerDidConfirmSyncWasEnabled{ForAccount: false, DisabledOnDevice: true})
		return nil
	case errors.Is(err, remote.ErrNeedsFullSync):
		log.Printf("Reading lists sync %s: update window expired, scheduling full sync", op.id)
		saveErr := op.c.write(func(s *store) error {
			_, err := s.updateSyncState(func(state syncstate.State) syncstate.State {
				return state.Insert(syncstate.NeedsSync)
			})
			return err
		})
		if saveErr != nil {
			return fmt.Errorf("failed to schedule full sync: %w", saveErr)
		}
		return nil
	default:
		return err
	}
}

func (op *syncOperation) step(name string) {
	if op.c.progress == nil {
		return
	}
	if err := op.c.progress.UpdateStep(name); err != nil {
		log.Printf("Reading lists sync %s: failed to record step %s: %v", op.id, name, err)
	}
}

// consume clears flag from the persisted state and runs fn in the same
// transaction.
func (op *syncOperation) consume(flag syncstate.State, fn func(s *store) error) error {
	return op.c.write(func(s *store) error {
		if fn != nil {
			if err := fn(s); err != nil {
				return err
			}
		}
		_, err := s.updateSyncState(func(state syncstate.State) syncstate.State {
			return state.Remove(flag)
		})
		return err
	})
}

func (op *syncOperation) execute(ctx context.Context) error {
	c := op.c
	state, err := c.read().syncState()
	if err != nil {
		return err
	}
	log.Printf("Reading lists sync %s: starting with state %s", op.id, state)

	if state.Contains(syncstate.NeedsRemoteDisable) {
		op.step("remote_disable")
		if err := c.api.Teardown(ctx); err != nil && !errors.Is(err, remote.ErrNotSetup) {
			return err
		}
		if err := op.consume(syncstate.NeedsRemoteDisable, nil); err != nil {
			return err
		}
	}

	if state.Contains(syncstate.NeedsRandomLists) {
		op.step("random_lists")
		if err := op.consume(syncstate.NeedsRandomLists, op.createRandomLists); err != nil {
			return err
		}
	}

	if state.Contains(syncstate.NeedsRandomEntries) {
		op.step("random_entries")
		if err := op.consume(syncstate.NeedsRandomEntries, op.createRandomEntries); err != nil {
			return err
		}
	}

	if state.Contains(syncstate.NeedsLocalReset) {
		op.step("local_reset")
		err := op.consume(syncstate.NeedsLocalReset, func(s *store) error {
			return s.lists.ResetRemoteState(s.now)
		})
		if err != nil {
			return err
		}
	}

	if state.Contains(syncstate.NeedsLocalArticleClear) {
		op.step("local_article_clear")
		err := op.consume(syncstate.NeedsLocalArticleClear, func(s *store) error {
			saved, err := s.lists.GetSavedArticles()
			if err != nil {
				return err
			}
			return s.unsave(uniqueKeys(saved))
		})
		if err != nil {
			return err
		}
	}

	if state.Contains(syncstate.NeedsLocalListClear) {
		op.step("local_list_clear")
		err := op.consume(syncstate.NeedsLocalListClear, func(s *store) error {
			lists, err := s.lists.GetLiveLists()
			if err != nil {
				return err
			}
			return s.markListsDeleted(lists)
		})
		if err != nil {
			return err
		}
	}

	state, err = c.read().syncState()
	if err != nil {
		return err
	}

	if state.IsEmpty() {
		return op.executeLocalOnlySync(ctx)
	}

	if state.Contains(syncstate.NeedsRemoteEnable) {
		op.step("remote_enable")
		if err := c.api.Setup(ctx); err != nil && !errors.Is(err, remote.ErrAlreadySetUp) {
			return err
		}
		err := op.consume(syncstate.NeedsRemoteEnable, func(s *store) error {
			return s.settings.SetBoolValue(entities.SettingKeySyncRemotelyEnable, true)
		})
		if err != nil {
			return err
		}
	}

	if state.Contains(syncstate.NeedsSync) {
		op.step("full_sync")
		if err := op.executeFullSync(ctx); err != nil {
			return err
		}
		return c.write(func(s *store) error {
			_, err := s.updateSyncState(func(state syncstate.State) syncstate.State {
				if !state.Contains(syncstate.NeedsSync) {
					return state
				}
				return state.AfterFullSync()
			})
			return err
		})
	}

	if state.Contains(syncstate.NeedsUpdate) {
		op.step("update")
		return op.executeUpdate(ctx)
	}
	return nil
}

// executeLocalOnlySync probes the server to find out whether sync was
// enabled from another device. When it was not, deleted records are purged.
func (op *syncOperation) executeLocalOnlySync(ctx context.Context) error {
	op.step("local_only")
	since := op.c.now().UTC().Format(time.RFC3339)
	if _, err := op.c.api.UpdatedListsAndEntries(ctx, since); err == nil {
		log.Printf("Reading lists sync %s: sync is enabled for the account, enabling on this device", op.id)
		op.c.SetSyncEnabled(true, false, false)
		op.c.post(ServerDidConfirmSyncWasEnabled{ForAccount: true, EnabledOnDevice: true})
		return nil
	}
	return op.c.write(func(s *store) error {
		return s.lists.PurgeDeleted()
	})
}

func (op *syncOperation) executeFullSync(ctx context.Context) error {
	c := op.c
	result, err := c.api.GetAllReadingLists(ctx)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	op.splitEntryLimit = result.SplitEntryLimit

	err = c.write(func(s *store) error {
		return s.mergeRemoteLists(result.Lists, true)
	})
	if err != nil {
		return err
	}

	var mu sync.Mutex
	entriesByList := make(map[int64][]remote.Entry, len(result.Lists))
	g := new(errgroup.Group)
	g.SetLimit(maxConcurrentRequests)
	for _, rl := range result.Lists {
		if rl.Deleted {
			continue
		}
		listID := rl.ID
		g.Go(func() error {
			entries, err := c.api.GetAllEntries(ctx, listID)
			if err != nil {
				log.Printf("Reading lists sync %s: error fetching entries for reading list with ID %d: %v", op.id, listID, err)
				return nil
			}
			mu.Lock()
			entriesByList[listID] = entries
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, rl := range result.Lists {
		entries, ok := entriesByList[rl.ID]
		if !ok {
			continue
		}
		listID := rl.ID
		err := c.write(func(s *store) error {
			return s.mergeRemoteEntries(entries, &listID, true)
		})
		if err != nil {
			return err
		}
	}

	if result.Since != "" {
		err := c.write(func(s *store) error {
			return s.settings.SetSetting(entities.SettingKeyUpdateSince, result.Since)
		})
		if err != nil {
			return err
		}
	}

	return op.processLocalUpdates(ctx)
}

func (op *syncOperation) executeUpdate(ctx context.Context) error {
	c := op.c
	if err := op.processLocalUpdates(ctx); err != nil {
		return err
	}

	since, ok, err := c.read().settings.StringValue(entities.SettingKeyUpdateSince)
	if err != nil {
		return err
	}
	if !ok || since == "" {
		return nil
	}

	changes, err := c.api.UpdatedListsAndEntries(ctx, since)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return c.write(func(s *store) error {
		if err := s.mergeRemoteLists(changes.Lists, false); err != nil {
			return err
		}
		if err := s.mergeRemoteEntries(changes.Entries, nil, false); err != nil {
			return err
		}
		if changes.Since == "" {
			return nil
		}
		return s.settings.SetSetting(entities.SettingKeyUpdateSince, changes.Since)
	})
}

func (op *syncOperation) createRandomLists(s *store) error {
	count, err := s.settings.Int64Value(entities.SettingKeyCountOfListsToCreate, defaultDebugCount)
	if err != nil {
		return err
	}
	for i := int64(1); i <= count; i++ {
		if _, err := s.createReadingList(strconv.FormatInt(i, 10), nil, 0); err == nil {
			continue
		}
		if _, err := s.createReadingList(strconv.FormatInt(rand.Int63(), 10), nil, 0); err != nil {
			log.Printf("Reading lists sync %s: error populating lists: %v", op.id, err)
			return nil
		}
	}
	return nil
}

func (op *syncOperation) createRandomEntries(s *store) error {
	count, err := s.settings.Int64Value(entities.SettingKeyCountOfEntriesToCreate, defaultDebugCount)
	if err != nil {
		return err
	}
	lists, err := s.lists.GetLiveLists()
	if err != nil {
		return err
	}
	for i := range lists {
		articles := make([]entities.Article, 0, count)
		for j := int64(0); j < count; j++ {
			title := fmt.Sprintf("Random_article_%d", rand.Int63())
			articles = append(articles, entities.Article{
				Key:          utils.ArticleKey(utils.DefaultProject, title),
				DisplayTitle: utils.DisplayTitle(title),
			})
		}
		if _, err := s.addArticles(&lists[i], articles); err != nil {
			log.Printf("Reading lists sync %s: error populating list %q: %v", op.id, lists[i].Name, err)
		}
	}
	return nil
}
