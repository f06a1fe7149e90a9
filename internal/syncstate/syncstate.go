// Package syncstate holds the persisted bit-set describing which reading-list
// synchronization work is still pending.
//
// Every transition is a pure function from the current state to the next
// one. Callers compare the result with the old state and persist only when
// they differ.
package syncstate

import "strings"

// State is a set of pending sync steps, persisted as an integer.
type State int64

const (
	NeedsRemoteEnable State = 1 << iota
	NeedsSync
	NeedsUpdate
	NeedsRemoteDisable
	NeedsLocalReset
	NeedsLocalArticleClear
	NeedsLocalListClear

	// Debug-only population of synthetic lists and entries.
	NeedsRandomLists
	NeedsRandomEntries
)

// Composite states.
const (
	NeedsEnable     = NeedsRemoteEnable | NeedsSync
	NeedsLocalClear = NeedsLocalArticleClear | NeedsLocalListClear
	NeedsDisable    = NeedsRemoteDisable | NeedsLocalReset
)

// Empty is the initial state: sync disabled, nothing pending.
const Empty State = 0

var names = []struct {
	flag State
	name string
}{
	{NeedsRemoteEnable, "needs_remote_enable"},
	{NeedsSync, "needs_sync"},
	{NeedsUpdate, "needs_update"},
	{NeedsRemoteDisable, "needs_remote_disable"},
	{NeedsLocalReset, "needs_local_reset"},
	{NeedsLocalArticleClear, "needs_local_article_clear"},
	{NeedsLocalListClear, "needs_local_list_clear"},
	{NeedsRandomLists, "needs_random_lists"},
	{NeedsRandomEntries, "needs_random_entries"},
}

// Contains reports whether every flag of other is set in s.
func (s State) Contains(other State) bool {
	return s&other == other
}

// ContainsAny reports whether at least one flag of other is set in s.
func (s State) ContainsAny(other State) bool {
	return s&other != 0
}

// Insert returns s with the flags of other set.
func (s State) Insert(other State) State {
	return s | other
}

// Remove returns s with the flags of other cleared.
func (s State) Remove(other State) State {
	return s &^ other
}

// IsEmpty reports whether no work is pending.
func (s State) IsEmpty() bool {
	return s == Empty
}

// IsSyncEnabled reports whether the state describes ongoing two-way sync.
func (s State) IsSyncEnabled() bool {
	return s.ContainsAny(NeedsSync | NeedsUpdate)
}

// Flags returns the names of the set flags in bit order.
func (s State) Flags() []string {
	flags := make([]string, 0, len(names))
	for _, n := range names {
		if s.Contains(n.flag) {
			flags = append(flags, n.name)
		}
	}
	return flags
}

func (s State) String() string {
	if s.IsEmpty() {
		return "empty"
	}
	return strings.Join(s.Flags(), "|")
}

// WithSyncEnabled computes the state produced by turning sync on or off.
//
// Local deletion always requests a local clear, otherwise a local reset so
// records are re-uploaded on the next enable. Enabling requests a remote
// enable and a full sync. Disabling drops ongoing sync and optionally
// requests a remote teardown.
func (s State) WithSyncEnabled(enabled, deleteLocal, deleteRemote bool) State {
	next := s
	if deleteLocal {
		next = next.Insert(NeedsLocalClear)
	} else {
		next = next.Insert(NeedsLocalReset)
	}

	if enabled {
		next = next.Insert(NeedsEnable)
		next = next.Remove(NeedsUpdate | NeedsRemoteDisable)
		return next
	}

	if deleteRemote {
		next = next.Insert(NeedsRemoteDisable)
	}
	return next.Remove(NeedsSync | NeedsUpdate | NeedsRemoteEnable)
}

// WithErase computes the state that erases every saved article and list.
// With sync enabled there is no bulk-delete call, so the remote side is torn
// down and set up again around a local clear.
func (s State) WithErase() State {
	if s.IsSyncEnabled() {
		next := s.Insert(NeedsRemoteDisable | NeedsLocalClear | NeedsRemoteEnable | NeedsSync)
		return next.Remove(NeedsUpdate)
	}
	return s.Insert(NeedsLocalClear)
}

// WithFullSync promotes a pending incremental update into a full sync.
func (s State) WithFullSync() State {
	if !s.Contains(NeedsUpdate) {
		return s
	}
	return s.Remove(NeedsUpdate).Insert(NeedsSync)
}

// AfterFullSync is the steady state after a completed full sync.
func (s State) AfterFullSync() State {
	return s.Remove(NeedsSync).Insert(NeedsUpdate)
}
