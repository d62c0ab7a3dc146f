package workspace

import (
	"time"

	"github.com/matsen/refdeck/internal/fingerprint"
	"github.com/matsen/refdeck/internal/reference"
)

// ResolveConflict applies a user decision to a flagged conflict pair. It
// is a no-op unless the entry exists and has status conflict. A merge with
// no findable counterpart degrades to keep-both semantics. The resolution
// commits as one atomic snapshot swap.
func (w *Workspace) ResolveConflict(entryID string, resolution Resolution) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	snap := w.snap.Clone()

	pos := entryPos(snap, entryID)
	if pos < 0 || snap.Entries[pos].Status != StatusConflict {
		return
	}

	switch resolution {
	case ResolutionMerge:
		if other := entryPos(snap, snap.Entries[pos].ConflictWith); other >= 0 {
			snap = mergePair(snap, pos, other, now)
			break
		}
		keepBoth(&snap, pos, now)
	default:
		keepBoth(&snap, pos, now)
	}

	stampWorkspace(&snap, now)
	snap.UpdatedAt = now
	w.publishLocked(snap)
}

// entryPos returns the position of the entry with the given ID, or -1.
func entryPos(snap Snapshot, id string) int {
	if id == "" {
		return -1
	}
	for i, e := range snap.Entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// keepBoth severs the conflict link: the entry becomes unique, and a
// counterpart that reciprocally points back is cleared symmetrically.
func keepBoth(snap *Snapshot, pos int, now time.Time) {
	counterpart := snap.Entries[pos].ConflictWith
	clearConflict(&snap.Entries[pos], now)

	if other := entryPos(*snap, counterpart); other >= 0 && snap.Entries[other].ConflictWith == snap.Entries[pos].ID {
		clearConflict(&snap.Entries[other], now)
	}
}

// clearConflict resets an entry to unique and stamps the resolution time.
func clearConflict(e *Entry, now time.Time) {
	e.Status = StatusUnique
	e.ConflictWith = ""
	t := now
	e.ResolvedAt = &t
	e.UpdatedAt = now
}

// qualityRank orders conflict pair members for merge resolution: a DOI
// beats any match status, then matched > fuzzy > unmatched.
func qualityRank(e Entry) int {
	if fingerprint.NormalizeDOI(e.Ref.DOI) != "" {
		return 3
	}
	switch e.Ref.MatchStatus {
	case reference.MatchMatched:
		return 2
	case reference.MatchFuzzy:
		return 1
	default:
		return 0
	}
}

// mergePair merges the lower-quality member of a conflict pair into the
// higher-quality one (ties favor the entry being resolved), unions their
// source references, and deletes the loser. Any other entry still pointing
// at the loser has its dangling link cleared.
func mergePair(snap Snapshot, resolved, other int, now time.Time) Snapshot {
	winner, loser := resolved, other
	if qualityRank(snap.Entries[other]) > qualityRank(snap.Entries[resolved]) {
		winner, loser = other, resolved
	}

	win := &snap.Entries[winner]
	for _, s := range snap.Entries[loser].Sources {
		if !win.hasSource(s.PaperID, s.Index) {
			win.Sources = append(win.Sources, s)
		}
	}
	win.Occurrences = len(win.Sources)
	clearConflict(win, now)

	loserID := snap.Entries[loser].ID
	entries := make([]Entry, 0, len(snap.Entries)-1)
	for i, e := range snap.Entries {
		if i == loser {
			continue
		}
		if e.ConflictWith == loserID {
			clearConflict(&e, now)
		}
		entries = append(entries, e)
	}
	snap.Entries = entries
	return snap
}
