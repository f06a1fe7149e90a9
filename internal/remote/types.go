package remote

import (
	"github.com/mrlokans/readinglists/internal/utils"
)

// RequestType identifies the kind of the most recent API request.
type RequestType string

const (
	RequestNone        RequestType = ""
	RequestSetup       RequestType = "setup"
	RequestTeardown    RequestType = "teardown"
	RequestGetLists    RequestType = "get_lists"
	RequestCreateLists RequestType = "create_lists"
	RequestUpdateList  RequestType = "update_list"
	RequestDeleteList  RequestType = "delete_list"
	RequestGetEntries  RequestType = "get_entries"
	RequestAddEntries  RequestType = "add_entries"
	RequestRemoveEntry RequestType = "remove_entry"
	RequestGetChanges  RequestType = "get_changes"
)

// ReadingList is a list as represented by the service.
type ReadingList struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Default     bool    `json:"default"`
	Created     string  `json:"created,omitempty"`
	Updated     string  `json:"updated,omitempty"`
	Deleted     bool    `json:"deleted,omitempty"`
}

// Entry is a list entry as represented by the service.
type Entry struct {
	ID      int64  `json:"id"`
	ListID  int64  `json:"listId,omitempty"`
	Project string `json:"project"`
	Title   string `json:"title"`
	Created string `json:"created,omitempty"`
	Updated string `json:"updated,omitempty"`
	Deleted bool   `json:"deleted,omitempty"`
}

// ArticleKey returns the local article key of the entry.
func (e Entry) ArticleKey() string {
	return utils.ArticleKey(e.Project, e.Title)
}

// NewList describes a list to create.
type NewList struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// NewEntry describes an entry to add.
type NewEntry struct {
	Project string `json:"project"`
	Title   string `json:"title"`
}

// BatchResult is the outcome of one item of a batch create. Exactly one of
// ID and Err is set.
type BatchResult struct {
	ID  *int64
	Err error
}

// ListsResult is the complete set of lists of the account.
type ListsResult struct {
	Lists []ReadingList

	// Since is the token to pass to UpdatedListsAndEntries next time.
	Since string

	// SplitEntryLimit is set when the service split oversized lists.
	SplitEntryLimit *int
}

// Changes are the lists and entries updated after a given time.
type Changes struct {
	Lists   []ReadingList
	Entries []Entry
	Since   string
}

type listsPage struct {
	Lists        []ReadingList `json:"lists"`
	Next         string        `json:"next,omitempty"`
	ContinueFrom string        `json:"continue-from,omitempty"`
	SplitAt      *int          `json:"lists-split-at,omitempty"`
}

type entriesPage struct {
	Entries []Entry `json:"entries"`
	Next    string  `json:"next,omitempty"`
}

type changesPage struct {
	Lists        []ReadingList `json:"lists"`
	Entries      []Entry       `json:"entries"`
	Next         string        `json:"next,omitempty"`
	ContinueFrom string        `json:"continue-from,omitempty"`
}

type batchItem struct {
	ID    *int64 `json:"id,omitempty"`
	Error string `json:"error,omitempty"`
}

type batchResponse struct {
	Batch []batchItem `json:"batch"`
}

type errorResponse struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}
