package workspace

import (
	"testing"
	"time"

	"github.com/matsen/refdeck/internal/reference"
)

// addConflictPair seeds a workspace with a flagged conflict pair and
// returns (flagged entry ID, candidate entry ID).
func addConflictPair(t *testing.T, w *Workspace) (string, string) {
	t.Helper()

	a := testRef(1, "Neural Machine Translation by Jointly Learning to Align and Translate Sentences", "")
	b := testRef(2, "Neural Machine Translation by Jointly Learning to Align and Translate Phrases", "")
	b.Year = 2018

	w.AddReferences("p1", "P1", []reference.Reference{a})
	res := w.AddReferences("p2", "P2", []reference.Reference{b})
	if res.Conflicts != 1 {
		t.Fatalf("seeding conflict pair: %+v", res)
	}

	var flagged, candidate string
	for _, e := range w.Entries() {
		if e.Status == StatusConflict {
			flagged = e.ID
		} else {
			candidate = e.ID
		}
	}
	if flagged == "" || candidate == "" {
		t.Fatalf("conflict pair not found")
	}
	return flagged, candidate
}

func totalOccurrences(w *Workspace) int {
	total := 0
	for _, e := range w.Entries() {
		total += e.Occurrences
	}
	return total
}

func TestResolveConflict_KeepBoth(t *testing.T) {
	w := New()
	flagged, candidate := addConflictPair(t, w)

	before := len(w.Entries())
	occBefore := totalOccurrences(w)

	w.ResolveConflict(flagged, ResolutionKeepBoth)

	if got := len(w.Entries()); got != before {
		t.Errorf("entry count changed: %d -> %d", before, got)
	}
	if got := totalOccurrences(w); got != occBefore {
		t.Errorf("total occurrences changed: %d -> %d", occBefore, got)
	}

	for _, id := range []string{flagged, candidate} {
		e, ok := w.Entry(id)
		if !ok {
			t.Fatalf("entry %s missing", id)
		}
		if e.Status != StatusUnique {
			t.Errorf("entry %s status = %s, want unique", id, e.Status)
		}
		if e.ConflictWith != "" {
			t.Errorf("entry %s back-reference not cleared", id)
		}
	}

	e, _ := w.Entry(flagged)
	if e.ResolvedAt == nil {
		t.Errorf("resolution time not stamped")
	}
}

func TestResolveConflict_Merge(t *testing.T) {
	w := New()
	flagged, candidate := addConflictPair(t, w)

	occBefore := totalOccurrences(w)

	w.ResolveConflict(flagged, ResolutionMerge)

	entries := w.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry after merge, got %d", len(entries))
	}

	survivor := entries[0]
	if survivor.Status != StatusUnique {
		t.Errorf("survivor status = %s", survivor.Status)
	}
	if survivor.ConflictWith != "" {
		t.Errorf("survivor back-reference not cleared")
	}
	if survivor.Occurrences != occBefore {
		t.Errorf("total occurrences = %d, want %d", survivor.Occurrences, occBefore)
	}
	if len(survivor.Sources) != 2 {
		t.Errorf("source union has %d refs, want 2", len(survivor.Sources))
	}
	if survivor.ResolvedAt == nil {
		t.Errorf("resolution time not stamped")
	}

	// One of the pair members must be gone.
	_, okFlagged := w.Entry(flagged)
	_, okCandidate := w.Entry(candidate)
	if okFlagged == okCandidate {
		t.Errorf("exactly one pair member should survive")
	}
}

func TestResolveConflict_MergeQualityRanking(t *testing.T) {
	w := New()

	// The candidate carries a DOI after the fact is impossible (fuzzy
	// candidates lack DOIs), so ranking is exercised via match status:
	// matched (candidate) beats fuzzy (flagged).
	a := testRef(1, "Neural Machine Translation by Jointly Learning to Align and Translate Sentences", "")
	a.MatchStatus = reference.MatchMatched
	b := testRef(2, "Neural Machine Translation by Jointly Learning to Align and Translate Phrases", "")
	b.Year = 2018
	b.MatchStatus = reference.MatchFuzzy

	w.AddReferences("p1", "P1", []reference.Reference{a})
	w.AddReferences("p2", "P2", []reference.Reference{b})

	var flagged, candidate string
	for _, e := range w.Entries() {
		if e.Status == StatusConflict {
			flagged = e.ID
		} else {
			candidate = e.ID
		}
	}

	w.ResolveConflict(flagged, ResolutionMerge)

	// The higher-quality candidate wins; the flagged entry is deleted.
	if _, ok := w.Entry(candidate); !ok {
		t.Fatalf("expected the matched-status candidate to survive")
	}
	if _, ok := w.Entry(flagged); ok {
		t.Fatalf("expected the fuzzy-status entry to be deleted")
	}
}

func TestResolveConflict_MergeTieFavorsResolved(t *testing.T) {
	w := New()
	flagged, candidate := addConflictPair(t, w)

	// Both entries have identical quality (matched, no DOI): the entry
	// being resolved wins the tie.
	w.ResolveConflict(flagged, ResolutionMerge)

	if _, ok := w.Entry(flagged); !ok {
		t.Fatalf("expected the resolved entry to survive the tie")
	}
	if _, ok := w.Entry(candidate); ok {
		t.Fatalf("expected the candidate to be deleted")
	}
}

func TestResolveConflict_MergeWithoutCounterpartDegrades(t *testing.T) {
	w := New()

	// A conflict entry whose counterpart no longer exists, as a migrated
	// store can contain.
	now := time.Now()
	snap := NewSnapshot(now)
	snap.Entries = []Entry{{
		ID:           "e1",
		WorkspaceID:  DefaultWorkspaceID,
		Fingerprint:  "title:orphaned|year:na|author:",
		Status:       StatusConflict,
		ConflictWith: "long-gone",
		Ref:          testRef(1, "Orphaned", ""),
		Sources:      []SourceRef{{PaperID: "p1", Label: "P1", Index: 1}},
		Occurrences:  1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}}
	if !w.AdoptPersisted(snap) {
		t.Fatalf("adopt failed")
	}

	w.ResolveConflict("e1", ResolutionMerge)

	e, ok := w.Entry("e1")
	if !ok {
		t.Fatalf("entry missing")
	}
	if e.Status != StatusUnique || e.ConflictWith != "" || e.ResolvedAt == nil {
		t.Errorf("merge without counterpart must degrade to keep-both: %+v", e)
	}
}

func TestResolveConflict_UnknownIDIsNoOp(t *testing.T) {
	w := New()
	flagged, _ := addConflictPair(t, w)

	w.ResolveConflict("nonexistent-id", ResolutionMerge)

	if got := len(w.Entries()); got != 2 {
		t.Fatalf("no-op resolution changed entries: %d", got)
	}
	e, _ := w.Entry(flagged)
	if e.Status != StatusConflict {
		t.Fatalf("flagged entry must stay in conflict")
	}
}

func TestResolveConflict_NonConflictIsNoOp(t *testing.T) {
	w := New()
	w.AddReferences("p1", "P1", []reference.Reference{testRef(1, "Some Unique Title", "")})

	id := w.Entries()[0].ID
	w.ResolveConflict(id, ResolutionMerge)

	e, _ := w.Entry(id)
	if e.Status != StatusUnique || e.ResolvedAt != nil {
		t.Errorf("resolving a unique entry must be a no-op")
	}
}

func TestResolveConflict_DanglingCounterpartDegradesToKeepBoth(t *testing.T) {
	w := New()

	// Two overlapping conflict pairs against the same candidate: flagged1
	// and flagged2 both point at the candidate. Merging flagged1 (tie ->
	// flagged1 wins, candidate deleted) leaves flagged2 dangling; its link
	// must have been cleared during that same commit.
	a := testRef(1, "Neural Machine Translation by Jointly Learning to Align and Translate Sentences", "")
	b := testRef(2, "Neural Machine Translation by Jointly Learning to Align and Translate Phrases", "")
	b.Year = 2018
	c := testRef(3, "Neural Machine Translation by Jointly Learning to Align and Translate Queries", "")
	c.Year = 2019

	w.AddReferences("p1", "P1", []reference.Reference{a})
	w.AddReferences("p2", "P2", []reference.Reference{b})
	w.AddReferences("p3", "P3", []reference.Reference{c})

	var flagged []string
	for _, e := range w.Entries() {
		if e.Status == StatusConflict {
			flagged = append(flagged, e.ID)
		}
	}
	if len(flagged) != 2 {
		t.Fatalf("expected 2 flagged entries, got %d", len(flagged))
	}

	w.ResolveConflict(flagged[0], ResolutionMerge)

	e, ok := w.Entry(flagged[1])
	if !ok {
		t.Fatalf("second flagged entry missing")
	}
	if e.Status != StatusUnique || e.ConflictWith != "" {
		t.Errorf("dangling link not cleared: status=%s conflict_with=%q", e.Status, e.ConflictWith)
	}
}
