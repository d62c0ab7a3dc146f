package workspace

import (
	"sync"
	"time"

	"github.com/matsen/refdeck/internal/discovery"
	"github.com/matsen/refdeck/internal/fingerprint"
	"github.com/matsen/refdeck/internal/reference"
)

// Saver persists committed snapshots. Saves are best-effort: the workspace
// swallows errors and in-memory state stays authoritative for the session.
type Saver interface {
	Save(Snapshot) error
}

// Workspace owns the current committed snapshot. Every public operation
// reads the latest snapshot, computes a new one, and publishes it before
// returning; readers see either the pre- or post-mutation snapshot, never
// partial state.
type Workspace struct {
	mu      sync.Mutex
	snap    Snapshot
	saver   Saver
	loaded  bool // One-way guard: set once initial load settles
	mutated bool
	now     func() time.Time
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithSaver sets the snapshot persister.
func WithSaver(s Saver) Option {
	return func(w *Workspace) { w.saver = s }
}

// WithClock sets the time source (for tests).
func WithClock(now func() time.Time) Option {
	return func(w *Workspace) { w.now = now }
}

// New creates a workspace with an empty default snapshot. Persistence is
// suppressed until AdoptPersisted or MarkLoaded is called, so a slow load
// can never be clobbered by saving the startup default.
func New(opts ...Option) *Workspace {
	w := &Workspace{now: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	w.snap = NewSnapshot(w.now())
	return w
}

// AdoptPersisted installs a loaded snapshot, but only if no mutation has
// occurred yet. Either way the load is considered settled and subsequent
// commits persist. Returns true if the snapshot was adopted.
func (w *Workspace) AdoptPersisted(snap Snapshot) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.loaded {
		return false
	}
	w.loaded = true

	if w.mutated {
		// Mutations issued before load completed win; record them durably
		// now that saving is allowed.
		w.persistLocked()
		return false
	}

	w.snap = snap.Clone()
	return true
}

// MarkLoaded settles the initial load without adopting anything, for the
// case where no persisted snapshot existed.
func (w *Workspace) MarkLoaded() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.loaded {
		return
	}
	w.loaded = true
	if w.mutated {
		w.persistLocked()
	}
}

// publishLocked commits a computed snapshot and fires the post-commit save.
// Callers must hold w.mu.
func (w *Workspace) publishLocked(snap Snapshot) {
	w.snap = snap
	w.mutated = true
	w.persistLocked()
}

// persistLocked saves the current snapshot if loading has settled. Write
// failures are swallowed; only durability is lost.
func (w *Workspace) persistLocked() {
	if w.saver == nil || !w.loaded {
		return
	}
	_ = w.saver.Save(w.snap.Clone())
}

// Snapshot returns a deep copy of the current committed snapshot.
func (w *Workspace) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snap.Clone()
}

// Entries returns the entries of the active workspace.
func (w *Workspace) Entries() []Entry {
	w.mu.Lock()
	defer w.mu.Unlock()

	var out []Entry
	for _, e := range w.snap.Entries {
		if e.WorkspaceID == w.snap.ActiveWorkspace {
			out = append(out, e.clone())
		}
	}
	return out
}

// Entry returns the entry with the given ID, if it exists.
func (w *Workspace) Entry(id string) (Entry, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, e := range w.snap.Entries {
		if e.ID == id {
			return e.clone(), true
		}
	}
	return Entry{}, false
}

// Conflicts returns the active workspace's unresolved conflict entries.
func (w *Workspace) Conflicts() []Entry {
	var out []Entry
	for _, e := range w.Entries() {
		if e.Status == StatusConflict {
			out = append(out, e)
		}
	}
	return out
}

// Stats summarizes the active workspace.
func (w *Workspace) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()

	var st Stats
	papers := make(map[string]struct{})
	for _, e := range w.snap.Entries {
		if e.WorkspaceID != w.snap.ActiveWorkspace {
			continue
		}
		st.Unique++
		st.Refs += e.Occurrences
		if e.Status == StatusConflict {
			st.Conflicts++
		}
		for _, s := range e.Sources {
			papers[s.PaperID] = struct{}{}
		}
	}
	st.Papers = len(papers)
	return st
}

// Clear removes every entry of the active workspace.
func (w *Workspace) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	snap := w.snap.Clone()

	kept := snap.Entries[:0]
	for _, e := range snap.Entries {
		if e.WorkspaceID != snap.ActiveWorkspace {
			kept = append(kept, e)
		}
	}
	snap.Entries = kept
	stampWorkspace(&snap, now)
	snap.UpdatedAt = now

	w.publishLocked(snap)
}

// SetBibTeXOverride records a user-edited BibTeX payload for an entry.
// The override takes precedence at export time; an empty value removes it.
// Unknown IDs are a no-op.
func (w *Workspace) SetBibTeXOverride(entryID, bibtex string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := w.snap.Clone()
	pos := entryPos(snap, entryID)
	if pos < 0 {
		return false
	}

	snap.Entries[pos].BibTeXOverride = bibtex
	snap.Entries[pos].UpdatedAt = w.now()
	snap.UpdatedAt = w.now()

	w.publishLocked(snap)
	return true
}

// GetCachedDiscovery returns the unexpired cached availability result for
// a reference, if one exists.
func (w *Workspace) GetCachedDiscovery(ref reference.Reference) (discovery.Result, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	key := fingerprint.Discovery(ref)
	if key == "" {
		return discovery.Result{}, false
	}

	entry, ok := w.snap.DiscoveryCache[key]
	if !ok || !w.now().Before(entry.ExpiresAt) {
		return discovery.Result{}, false
	}
	return entry.Result, true
}

// CacheDiscoveryResult stores an availability result under the reference's
// discovery fingerprint. Uncachable references are skipped.
func (w *Workspace) CacheDiscoveryResult(ref reference.Reference, result discovery.Result) {
	w.mu.Lock()
	defer w.mu.Unlock()

	key := fingerprint.Discovery(ref)
	if key == "" {
		return
	}

	now := w.now()
	snap := w.snap.Clone()
	snap.DiscoveryCache[key] = CacheEntry{
		Result:    result,
		CheckedAt: now,
		ExpiresAt: now.Add(discovery.CacheTTL),
	}
	snap.UpdatedAt = now

	w.publishLocked(snap)
}

// stampWorkspace updates the active workspace's metadata timestamp.
func stampWorkspace(snap *Snapshot, now time.Time) {
	for i := range snap.Workspaces {
		if snap.Workspaces[i].ID == snap.ActiveWorkspace {
			snap.Workspaces[i].UpdatedAt = now
		}
	}
}
