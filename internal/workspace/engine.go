package workspace

import (
	"time"

	"github.com/matsen/refdeck/internal/fingerprint"
	"github.com/matsen/refdeck/internal/reference"
	"github.com/matsen/refdeck/internal/similarity"

	"github.com/google/uuid"
)

const (
	// AutoMergeThreshold is the title similarity at or above which an
	// incoming reference merges into its best fuzzy candidate.
	AutoMergeThreshold = 0.95

	// ConflictThreshold is the lower bound of the ambiguous similarity
	// band [ConflictThreshold, AutoMergeThreshold) that flags a conflict
	// pair for user adjudication.
	ConflictThreshold = 0.88
)

// matchIndex holds the per-batch lookup structures over the active
// workspace's entries. Positions refer into the working entry slice and
// are updated incrementally so later references in a batch can match
// entries created earlier in the same batch.
type matchIndex struct {
	byDOI map[string]int
	byFP  map[string]int
	fuzzy []int // Entries lacking a DOI, candidates for title matching
}

func buildMatchIndex(snap Snapshot) *matchIndex {
	idx := &matchIndex{
		byDOI: make(map[string]int),
		byFP:  make(map[string]int),
	}
	for i, e := range snap.Entries {
		if e.WorkspaceID != snap.ActiveWorkspace {
			continue
		}
		idx.add(i, e)
	}
	return idx
}

func (idx *matchIndex) add(pos int, e Entry) {
	doi := fingerprint.NormalizeDOI(e.Ref.DOI)
	if doi != "" {
		if _, taken := idx.byDOI[doi]; !taken {
			idx.byDOI[doi] = pos
		}
	} else {
		idx.fuzzy = append(idx.fuzzy, pos)
	}
	if e.Fingerprint != "" {
		if _, taken := idx.byFP[e.Fingerprint]; !taken {
			idx.byFP[e.Fingerprint] = pos
		}
	}
}

// AddReferences deduplicates a batch of references extracted from one
// source document into the active workspace. Only references carrying a
// BibTeX payload participate; none of those is ever dropped. Matches are
// attempted in strict priority: DOI, exact fingerprint, then fuzzy title
// similarity. The batch commits as one atomic snapshot swap.
func (w *Workspace) AddReferences(paperID, paperLabel string, refs []reference.Reference) AddResult {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	snap := w.snap.Clone()
	idx := buildMatchIndex(snap)

	var res AddResult
	for _, ref := range refs {
		if !ref.HasBibTeX() {
			continue
		}

		if pos, ok := w.findMatch(snap, idx, ref); ok {
			mergeOccurrence(&snap.Entries[pos], paperID, paperLabel, ref.Index, now)
			res.Merged++
			continue
		}

		entry := newEntry(snap.ActiveWorkspace, ref, paperID, paperLabel, now)

		// Best sub-threshold candidate in the ambiguous band flags a
		// conflict pair. The candidate itself is left unmodified; only a
		// later resolution touches it.
		if pos, score := bestFuzzyCandidate(snap, idx, ref); pos >= 0 && score >= ConflictThreshold {
			entry.Status = StatusConflict
			entry.ConflictWith = snap.Entries[pos].ID
			res.Conflicts++
		} else {
			res.Added++
		}

		snap.Entries = append(snap.Entries, entry)
		idx.add(len(snap.Entries)-1, entry)
	}

	stampWorkspace(&snap, now)
	snap.UpdatedAt = now
	w.publishLocked(snap)
	return res
}

// findMatch attempts the merge tiers in strict priority. A DOI-bearing
// entry can only ever be matched through its DOI (or identical exact
// fingerprint), never through title similarity alone.
func (w *Workspace) findMatch(snap Snapshot, idx *matchIndex, ref reference.Reference) (int, bool) {
	if doi := fingerprint.NormalizeDOI(ref.DOI); doi != "" {
		if pos, ok := idx.byDOI[doi]; ok {
			return pos, true
		}
	}

	if fp := fingerprint.Exact(ref); fp != "" {
		if pos, ok := idx.byFP[fp]; ok {
			return pos, true
		}
	}

	if pos, score := bestFuzzyCandidate(snap, idx, ref); pos >= 0 && score >= AutoMergeThreshold {
		return pos, true
	}

	return -1, false
}

// bestFuzzyCandidate returns the maximum-similarity DOI-less candidate for
// the reference's title, ties keeping the first encountered. Returns
// (-1, 0) when no candidate scores above zero.
func bestFuzzyCandidate(snap Snapshot, idx *matchIndex, ref reference.Reference) (int, float64) {
	best, bestScore := -1, 0.0
	for _, pos := range idx.fuzzy {
		score := similarity.Dice(ref.Title, snap.Entries[pos].Ref.Title)
		if score > bestScore {
			best, bestScore = pos, score
		}
	}
	return best, bestScore
}

// mergeOccurrence records one more occurrence of an existing logical
// citation, deduplicated by (paper, index). Status and fingerprint are
// unchanged.
func mergeOccurrence(e *Entry, paperID, label string, index int, now time.Time) {
	if e.hasSource(paperID, index) {
		return
	}
	e.Sources = append(e.Sources, SourceRef{PaperID: paperID, Label: label, Index: index})
	e.Occurrences++
	e.UpdatedAt = now
}

// newEntry builds a fresh unique entry for an unmatched reference. A
// reference with no computable fingerprint gets a synthetic one derived
// from the entry ID, which is guaranteed unique.
func newEntry(workspaceID string, ref reference.Reference, paperID, label string, now time.Time) Entry {
	id := uuid.NewString()

	fp := fingerprint.Exact(ref)
	if fp == "" {
		fp = "entry:" + id
	}

	return Entry{
		ID:          id,
		WorkspaceID: workspaceID,
		Fingerprint: fp,
		Status:      StatusUnique,
		Ref:         ref,
		Sources:     []SourceRef{{PaperID: paperID, Label: label, Index: ref.Index}},
		Occurrences: 1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
