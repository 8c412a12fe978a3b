// Package registry is the process-wide container of layout states keyed by
// storage key, plus the dirty/last-synced bookkeeping the remote sync relies
// on. It is the only shared mutable layout state: panels, the sync
// coordinator and the admin tool all go through it and observe it by
// subscribing.
package registry

import (
	"sort"
	"sync"
	"time"

	"stockdash/internal/layout"
)

// Status is a point-in-time view of the sync bookkeeping.
type Status struct {
	Dirty        bool
	LastSyncedAt time.Time // zero until the first successful save
	Error        string
	Keys         int
}

// Synced reports whether a save has ever succeeded.
func (s Status) Synced() bool { return !s.LastSyncedAt.IsZero() }

// Registry maps storage keys to layout states.
//
// Writes are last-write-wins: no version or ownership checks are made, so a
// broadcast landing between a user's edit and the next flush silently
// replaces that edit.
type Registry struct {
	mu           sync.RWMutex
	layouts      map[string]layout.State
	dirty        bool
	version      uint64 // bumped on every local mutation
	lastSyncedAt time.Time
	err          string

	subMu  sync.Mutex
	subs   map[int]func(key string, s layout.State)
	nextID int
}

// New creates an empty, clean registry.
func New() *Registry {
	return &Registry{
		layouts: make(map[string]layout.State),
		subs:    make(map[int]func(string, layout.State)),
	}
}

// Get returns a copy of the state stored for key.
func (r *Registry) Get(key string) (layout.State, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.layouts[key]
	if !ok {
		return layout.State{}, false
	}
	return s.Clone(), true
}

// Keys returns the stored keys, sorted.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.layouts))
	for k := range r.layouts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a deep copy of every stored layout.
func (r *Registry) Snapshot() map[string]layout.State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

// SnapshotForSave returns the layouts together with the mutation version
// they correspond to; pass the version to MarkSynced after a successful save.
func (r *Registry) SnapshotForSave() (map[string]layout.State, uint64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked(), r.version
}

func (r *Registry) snapshotLocked() map[string]layout.State {
	out := make(map[string]layout.State, len(r.layouts))
	for k, v := range r.layouts {
		out[k] = v.Clone()
	}
	return out
}

// Update stores s under key as a local mutation and marks the registry dirty.
func (r *Registry) Update(key string, s layout.State) {
	r.mu.Lock()
	r.layouts[key] = s.Clone()
	r.dirty = true
	r.version++
	r.mu.Unlock()

	r.notify(key, s)
}

// Apply stores an externally authored state for key (admin write-through,
// a pushed payload) without marking the registry dirty.
func (r *Registry) Apply(key string, s layout.State) {
	r.mu.Lock()
	r.layouts[key] = s.Clone()
	r.mu.Unlock()

	r.notify(key, s)
}

// ReplaceAll swaps in an authoritative set of layouts. Keys missing from
// layouts are dropped, nothing is merged, and the dirty flag is untouched.
// A hydration error from a previous attempt is cleared.
func (r *Registry) ReplaceAll(layouts map[string]layout.State) {
	next := make(map[string]layout.State, len(layouts))
	for k, v := range layouts {
		next[k] = v.Clone()
	}
	r.mu.Lock()
	r.layouts = next
	r.err = ""
	r.mu.Unlock()

	keys := make([]string, 0, len(next))
	for k := range next {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		r.notify(k, next[k])
	}
}

// Dirty reports whether local mutations are waiting to be saved.
func (r *Registry) Dirty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dirty
}

// MarkSynced records a successful save of the snapshot taken at version.
// Dirty is only cleared when no mutation happened since that snapshot.
func (r *Registry) MarkSynced(version uint64, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.version == version {
		r.dirty = false
	}
	r.lastSyncedAt = at
	r.err = ""
}

// SetError records a non-fatal sync error.
func (r *Registry) SetError(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = msg
}

// Status returns the current sync bookkeeping.
func (r *Registry) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Status{
		Dirty:        r.dirty,
		LastSyncedAt: r.lastSyncedAt,
		Error:        r.err,
		Keys:         len(r.layouts),
	}
}

// Subscribe registers fn for every change to any key. Callbacks run on the
// goroutine that made the change, after the registry lock is released.
func (r *Registry) Subscribe(fn func(key string, s layout.State)) (cancel func()) {
	r.subMu.Lock()
	id := r.nextID
	r.nextID++
	r.subs[id] = fn
	r.subMu.Unlock()

	return func() {
		r.subMu.Lock()
		delete(r.subs, id)
		r.subMu.Unlock()
	}
}

func (r *Registry) notify(key string, s layout.State) {
	r.subMu.Lock()
	ids := make([]int, 0, len(r.subs))
	for id := range r.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(string, layout.State), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, r.subs[id])
	}
	r.subMu.Unlock()

	for _, fn := range fns {
		fn(key, s.Clone())
	}
}
