package readinglists

import (
	"context"
	"sort"
	"sync"

	"github.com/mrlokans/readinglists/internal/remote"
)

// fakeAPI is an in-memory reading list service.
type fakeAPI struct {
	mu          sync.Mutex
	setUp       bool
	nextID      int64
	lists       map[int64]*remote.ReadingList
	entries     map[int64]*remote.Entry
	since       string
	splitAt     *int
	changes     *remote.Changes
	errs        map[string]error
	calls       []string
	lastRequest remote.RequestType
	cancelled   int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		nextID:  100,
		lists:   make(map[int64]*remote.ReadingList),
		entries: make(map[int64]*remote.Entry),
		since:   "2024-01-01T00:00:00Z",
		errs:    make(map[string]error),
	}
}

func (f *fakeAPI) begin(method string, reqType remote.RequestType) error {
	f.calls = append(f.calls, method)
	f.lastRequest = reqType
	if err, ok := f.errs[method]; ok {
		return err
	}
	return nil
}

func (f *fakeAPI) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeAPI) failWith(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[method] = err
}

func (f *fakeAPI) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == method {
			n++
		}
	}
	return n
}

// enable sets up the account with a default list, as another device would.
func (f *fakeAPI) enable() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setUpLocked()
}

func (f *fakeAPI) setUpLocked() {
	if f.setUp {
		return
	}
	f.setUp = true
	id := f.id()
	f.lists[id] = &remote.ReadingList{ID: id, Name: "default", Default: true}
}

func (f *fakeAPI) isSetUp() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setUp
}

func (f *fakeAPI) setChanges(changes *remote.Changes) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changes = changes
}

func (f *fakeAPI) setSplitAt(limit int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.splitAt = &limit
}

func (f *fakeAPI) addList(name string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.id()
	f.lists[id] = &remote.ReadingList{ID: id, Name: name}
	return id
}

func (f *fakeAPI) addEntry(listID int64, title string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.id()
	f.entries[id] = &remote.Entry{ID: id, ListID: listID, Project: "https://en.wikipedia.org", Title: title}
	return id
}

func (f *fakeAPI) defaultListID() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, l := range f.lists {
		if l.Default {
			return id
		}
	}
	return 0
}

func (f *fakeAPI) listNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for _, l := range f.lists {
		if !l.Default {
			names = append(names, l.Name)
		}
	}
	sort.Strings(names)
	return names
}

func (f *fakeAPI) listIDByName(name string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, l := range f.lists {
		if l.Name == name {
			return id
		}
	}
	return 0
}

func (f *fakeAPI) entryTitles(listID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var titles []string
	for _, e := range f.entries {
		if e.ListID == listID {
			titles = append(titles, e.Title)
		}
	}
	sort.Strings(titles)
	return titles
}

func (f *fakeAPI) Setup(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("Setup", remote.RequestSetup); err != nil {
		return err
	}
	if f.setUp {
		return remote.ErrAlreadySetUp
	}
	f.setUpLocked()
	return nil
}

func (f *fakeAPI) Teardown(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("Teardown", remote.RequestTeardown); err != nil {
		return err
	}
	if !f.setUp {
		return remote.ErrNotSetup
	}
	f.setUp = false
	f.lists = make(map[int64]*remote.ReadingList)
	f.entries = make(map[int64]*remote.Entry)
	return nil
}

func (f *fakeAPI) GetAllReadingLists(ctx context.Context) (*remote.ListsResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("GetAllReadingLists", remote.RequestGetLists); err != nil {
		return nil, err
	}
	if !f.setUp {
		return nil, remote.ErrNotSetup
	}
	ids := make([]int64, 0, len(f.lists))
	for id := range f.lists {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	result := &remote.ListsResult{Since: f.since, SplitEntryLimit: f.splitAt}
	for _, id := range ids {
		result.Lists = append(result.Lists, *f.lists[id])
	}
	return result, nil
}

func (f *fakeAPI) CreateLists(ctx context.Context, lists []remote.NewList) ([]remote.BatchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("CreateLists", remote.RequestCreateLists); err != nil {
		return nil, err
	}
	if !f.setUp {
		return nil, remote.ErrNotSetup
	}
	results := make([]remote.BatchResult, len(lists))
	for i, l := range lists {
		id := f.id()
		f.lists[id] = &remote.ReadingList{ID: id, Name: l.Name, Description: l.Description}
		results[i].ID = &id
	}
	return results, nil
}

func (f *fakeAPI) UpdateList(ctx context.Context, listID int64, name string, description *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("UpdateList", remote.RequestUpdateList); err != nil {
		return err
	}
	l, ok := f.lists[listID]
	if !ok {
		return remote.ErrNoSuchList
	}
	l.Name = name
	l.Description = description
	return nil
}

func (f *fakeAPI) DeleteList(ctx context.Context, listID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DeleteList", remote.RequestDeleteList); err != nil {
		return err
	}
	if _, ok := f.lists[listID]; !ok {
		return remote.ErrNoSuchList
	}
	delete(f.lists, listID)
	for id, e := range f.entries {
		if e.ListID == listID {
			delete(f.entries, id)
		}
	}
	return nil
}

func (f *fakeAPI) GetAllEntries(ctx context.Context, listID int64) ([]remote.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("GetAllEntries", remote.RequestGetEntries); err != nil {
		return nil, err
	}
	var entries []remote.Entry
	for _, e := range f.entries {
		if e.ListID == listID {
			entries = append(entries, *e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

func (f *fakeAPI) AddEntries(ctx context.Context, listID int64, entries []remote.NewEntry) ([]remote.BatchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("AddEntries", remote.RequestAddEntries); err != nil {
		return nil, err
	}
	if _, ok := f.lists[listID]; !ok {
		return nil, remote.ErrNoSuchList
	}
	results := make([]remote.BatchResult, len(entries))
	for i, ne := range entries {
		duplicate := false
		for _, e := range f.entries {
			if e.ListID == listID && e.Project == ne.Project && e.Title == ne.Title {
				duplicate = true
			}
		}
		if duplicate {
			results[i].Err = remote.ErrDuplicateEntry
			continue
		}
		id := f.id()
		f.entries[id] = &remote.Entry{ID: id, ListID: listID, Project: ne.Project, Title: ne.Title}
		results[i].ID = &id
	}
	return results, nil
}

func (f *fakeAPI) RemoveEntry(ctx context.Context, listID, entryID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("RemoveEntry", remote.RequestRemoveEntry); err != nil {
		return err
	}
	delete(f.entries, entryID)
	return nil
}

func (f *fakeAPI) UpdatedListsAndEntries(ctx context.Context, since string) (*remote.Changes, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("UpdatedListsAndEntries", remote.RequestGetChanges); err != nil {
		return nil, err
	}
	if !f.setUp {
		return nil, remote.ErrNotSetup
	}
	if f.changes != nil {
		changes := f.changes
		f.changes = nil
		return changes, nil
	}
	return &remote.Changes{Since: "2024-01-02T00:00:00Z"}, nil
}

func (f *fakeAPI) LastRequestType() remote.RequestType {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastRequest
}

func (f *fakeAPI) CancelAllTasks() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled++
}
