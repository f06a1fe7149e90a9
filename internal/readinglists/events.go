package readinglists

import (
	"sort"
	"sync"

	"github.com/mrlokans/readinglists/internal/entities"
)

// Event is a notification posted by the controller.
type Event interface {
	// Name is a stable identifier suitable for wire formats.
	Name() string
}

// SyncDidStart is posted once when a sync pass starts executing.
type SyncDidStart struct{}

// SyncDidFinish is posted when a sync pass ends, successfully or not.
type SyncDidFinish struct {
	Err           error
	SyncedLists   int
	SyncedEntries int
}

// ServerDidConfirmSyncWasEnabled is posted when the server tells whether
// reading list sync is enabled for the account.
type ServerDidConfirmSyncWasEnabled struct {
	ForAccount       bool
	EnabledOnDevice  bool
	DisabledOnDevice bool
}

// UserDidSaveOrUnsaveArticle carries the exact article variant that was
// saved or unsaved.
type UserDidSaveOrUnsaveArticle struct {
	Article entities.Article
	Saved   bool
}

// ListsWereSplit is posted when the server split lists that exceeded the
// entry limit.
type ListsWereSplit struct {
	EntryLimit int
}

func (SyncDidStart) Name() string { return "sync_did_start" }
func (SyncDidFinish) Name() string { return "sync_did_finish" }
func (ServerDidConfirmSyncWasEnabled) Name() string { return "server_did_confirm_sync_was_enabled" }
func (UserDidSaveOrUnsaveArticle) Name() string { return "user_did_save_or_unsave_article" }
func (ListsWereSplit) Name() string { return "lists_were_split" }

// eventBus delivers events one at a time, in posting order, to subscribers
// in registration order. The first poster delivers on its own goroutine and
// keeps draining until the backlog is empty; events posted meanwhile, from a
// handler or from another goroutine, join the backlog and post returns at
// once.
type eventBus struct {
	mu          sync.Mutex
	nextID      int
	subscribers map[int]func(Event)
	backlog     []Event
	delivering  bool
}

func newEventBus() *eventBus {
	return &eventBus{subscribers: make(map[int]func(Event))}
}

func (b *eventBus) subscribe(fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.subscribers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subscribers, id)
		})
	}
}

func (b *eventBus) post(e Event) {
	b.mu.Lock()
	b.backlog = append(b.backlog, e)
	if b.delivering {
		b.mu.Unlock()
		return
	}
	b.delivering = true
	defer func() {
		if r := recover(); r != nil {
			b.mu.Lock()
			b.delivering = false
			b.backlog = nil
			b.mu.Unlock()
			panic(r)
		}
	}()

	for len(b.backlog) > 0 {
		next := b.backlog[0]
		b.backlog = b.backlog[1:]
		handlers := b.handlersLocked()
		b.mu.Unlock()

		for _, h := range handlers {
			h(next)
		}

		b.mu.Lock()
	}
	b.delivering = false
	b.mu.Unlock()
}

func (b *eventBus) handlersLocked() []func(Event) {
	ids := make([]int, 0, len(b.subscribers))
	for id := range b.subscribers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	handlers := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, b.subscribers[id])
	}
	return handlers
}
