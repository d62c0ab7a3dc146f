package workspace

import (
	"testing"

	"github.com/matsen/refdeck/internal/reference"
)

func testRef(index int, title, doi string) reference.Reference {
	return reference.Reference{
		Index:       index,
		RawCitation: "[" + title + "]",
		Title:       title,
		Authors:     []string{"Vaswani, A."},
		Year:        2017,
		DOI:         doi,
		BibTeX:      "@article{key, title={" + title + "}}",
		MatchStatus: reference.MatchMatched,
	}
}

func TestAddReferences_DOIMerge(t *testing.T) {
	w := New()

	res := w.AddReferences("p1", "Paper One", []reference.Reference{testRef(1, "A Title", "10.1234/abc")})
	if res.Added != 1 || res.Merged != 0 {
		t.Fatalf("first add: %+v", res)
	}

	// Same DOI in a different notation, different title.
	ref := testRef(4, "A Title (Extended)", "https://doi.org/10.1234/ABC")
	res = w.AddReferences("p2", "Paper Two", []reference.Reference{ref})
	if res.Added != 0 || res.Merged != 1 {
		t.Fatalf("second add: %+v", res)
	}

	entries := w.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Occurrences != 2 || len(entries[0].Sources) != 2 {
		t.Errorf("occurrences = %d, sources = %d", entries[0].Occurrences, len(entries[0].Sources))
	}
}

func TestAddReferences_FingerprintMergeWithoutDOI(t *testing.T) {
	w := New()

	a := testRef(1, "Attention Is All You Need", "")
	b := testRef(2, "Attention, Is All You Need!", "") // Punctuation only

	w.AddReferences("p1", "P1", []reference.Reference{a})
	res := w.AddReferences("p2", "P2", []reference.Reference{b})

	if res.Merged != 1 || res.Added != 0 {
		t.Fatalf("expected fingerprint merge, got %+v", res)
	}
}

func TestAddReferences_FuzzyAutoMerge(t *testing.T) {
	w := New()

	a := testRef(1, "Attention Is All You Need", "")
	b := testRef(2, "Attention Is All You Need.", "")
	b.Year = 2018 // Break the exact fingerprint, leave titles near-identical

	w.AddReferences("p1", "P1", []reference.Reference{a})
	res := w.AddReferences("p2", "P2", []reference.Reference{b})

	if res.Merged != 1 {
		t.Fatalf("expected fuzzy auto-merge, got %+v", res)
	}

	entries := w.Entries()
	if len(entries) != 1 || entries[0].Occurrences != 2 {
		t.Fatalf("expected one entry with 2 occurrences, got %d entries", len(entries))
	}
}

func TestAddReferences_ConflictBand(t *testing.T) {
	w := New()

	// Title pair with Dice similarity 0.932, inside the ambiguous band.
	a := testRef(1, "Neural Machine Translation by Jointly Learning to Align and Translate Sentences", "")
	b := testRef(2, "Neural Machine Translation by Jointly Learning to Align and Translate Phrases", "")
	b.Year = 2018

	w.AddReferences("p1", "P1", []reference.Reference{a})
	res := w.AddReferences("p2", "P2", []reference.Reference{b})

	if res.Conflicts != 1 || res.Merged != 0 || res.Added != 0 {
		t.Fatalf("expected conflict, got %+v", res)
	}

	entries := w.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	var flagged, candidate *Entry
	for i := range entries {
		if entries[i].Status == StatusConflict {
			flagged = &entries[i]
		} else {
			candidate = &entries[i]
		}
	}
	if flagged == nil || candidate == nil {
		t.Fatalf("expected one conflict and one unique entry")
	}
	if flagged.ConflictWith != candidate.ID {
		t.Errorf("conflict back-reference = %q, want %q", flagged.ConflictWith, candidate.ID)
	}
	// Creation-time linking is asymmetric: the candidate is untouched.
	if candidate.ConflictWith != "" {
		t.Errorf("candidate back-reference = %q, want empty", candidate.ConflictWith)
	}
}

func TestAddReferences_BelowBandIsUnique(t *testing.T) {
	w := New()

	a := testRef(1, "Generative Adversarial Networks", "")
	b := testRef(2, "Diffusion Probabilistic Models", "")
	b.Year = 2020

	w.AddReferences("p1", "P1", []reference.Reference{a})
	res := w.AddReferences("p2", "P2", []reference.Reference{b})

	if res.Added != 1 || res.Conflicts != 0 || res.Merged != 0 {
		t.Fatalf("expected unique add, got %+v", res)
	}
}

func TestAddReferences_DifferentDOIsNeverTitleMerge(t *testing.T) {
	w := New()

	a := testRef(1, "Identical Title", "10.1234/a")
	b := testRef(2, "Identical Title", "10.1234/b")

	r1 := w.AddReferences("p1", "P1", []reference.Reference{a})
	r2 := w.AddReferences("p2", "P2", []reference.Reference{b})

	if r1.Added != 1 || r2.Added != 1 {
		t.Fatalf("expected two unique adds, got %+v then %+v", r1, r2)
	}
	if entries := w.Entries(); len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	for _, e := range w.Entries() {
		if e.Status != StatusUnique {
			t.Errorf("entry %s status = %s, want unique", e.ID, e.Status)
		}
	}
}

func TestAddReferences_DOIBearingEntryNotMergedByTitle(t *testing.T) {
	w := New()

	a := testRef(1, "Identical Title", "10.1234/a")
	b := testRef(2, "Identical Title", "") // Incoming lacks a DOI

	w.AddReferences("p1", "P1", []reference.Reference{a})
	res := w.AddReferences("p2", "P2", []reference.Reference{b})

	// The DOI-bearing entry is not a fuzzy candidate even at similarity 1.0.
	if res.Merged != 0 {
		t.Fatalf("expected no merge, got %+v", res)
	}
	if entries := w.Entries(); len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
}

func TestAddReferences_SkipsWithoutBibTeX(t *testing.T) {
	w := New()

	ref := testRef(1, "Some Title", "")
	ref.BibTeX = "   "

	res := w.AddReferences("p1", "P1", []reference.Reference{ref})
	if res.Added != 0 || res.Merged != 0 || res.Conflicts != 0 {
		t.Fatalf("expected nothing, got %+v", res)
	}
	if len(w.Entries()) != 0 {
		t.Fatalf("expected no entries")
	}
}

func TestAddReferences_IntraBatchMatching(t *testing.T) {
	w := New()

	// Second reference in the same batch matches the first by fingerprint.
	refs := []reference.Reference{
		testRef(1, "Attention Is All You Need", ""),
		testRef(2, "Attention Is All You Need!", ""),
	}

	res := w.AddReferences("p1", "P1", refs)
	if res.Added != 1 || res.Merged != 1 {
		t.Fatalf("expected intra-batch merge, got %+v", res)
	}

	entries := w.Entries()
	if len(entries) != 1 || entries[0].Occurrences != 2 {
		t.Fatalf("expected one entry with 2 occurrences")
	}
}

func TestAddReferences_DuplicateSourceNotDoubleCounted(t *testing.T) {
	w := New()

	ref := testRef(1, "A Title", "10.1234/abc")
	w.AddReferences("p1", "P1", []reference.Reference{ref})
	w.AddReferences("p1", "P1", []reference.Reference{ref})

	entries := w.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Occurrences != 1 || len(entries[0].Sources) != 1 {
		t.Errorf("same (paper, index) recorded twice: occ=%d sources=%d",
			entries[0].Occurrences, len(entries[0].Sources))
	}
}

func TestAddReferences_NoFingerprintGetsSynthetic(t *testing.T) {
	w := New()

	// No DOI, no title: no identity, but the reference is still kept.
	ref := reference.Reference{
		Index:       1,
		RawCitation: "[1] untranslatable scrawl",
		BibTeX:      "@misc{x, note={raw}}",
	}

	res := w.AddReferences("p1", "P1", []reference.Reference{ref})
	if res.Added != 1 {
		t.Fatalf("expected add, got %+v", res)
	}

	entries := w.Entries()
	if entries[0].Fingerprint == "" {
		t.Errorf("expected synthetic fingerprint")
	}

	// A second identity-less reference must not collide with the first.
	ref2 := ref
	ref2.Index = 2
	ref2.RawCitation = "[2] another scrawl"
	res = w.AddReferences("p1", "P1", []reference.Reference{ref2})
	if res.Added != 1 {
		t.Fatalf("expected second add, got %+v", res)
	}
}

func TestAddReferences_AttentionScenario(t *testing.T) {
	w := New()

	a := testRef(1, "Attention Is All You Need", "")
	res := w.AddReferences("p1", "P1", []reference.Reference{a})
	if res.Added != 1 {
		t.Fatalf("first add: %+v", res)
	}

	a2 := testRef(7, "Attention Is All You Need.", "")
	res = w.AddReferences("p2", "P2", []reference.Reference{a2})
	if res.Added != 0 || res.Merged != 1 {
		t.Fatalf("second add: %+v", res)
	}

	entries := w.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Occurrences != 2 {
		t.Errorf("occurrences = %d, want 2", entries[0].Occurrences)
	}
}

func TestStats(t *testing.T) {
	w := New()

	w.AddReferences("p1", "P1", []reference.Reference{
		testRef(1, "First Title Of Interest", "10.1/a"),
		testRef(2, "Second Title Of Interest Entirely Different", ""),
	})
	w.AddReferences("p2", "P2", []reference.Reference{
		testRef(1, "Whatever Notation", "doi:10.1/a"),
	})

	st := w.Stats()
	if st.Papers != 2 {
		t.Errorf("papers = %d, want 2", st.Papers)
	}
	if st.Refs != 3 {
		t.Errorf("refs = %d, want 3", st.Refs)
	}
	if st.Unique != 2 {
		t.Errorf("unique = %d, want 2", st.Unique)
	}
	if st.Conflicts != 0 {
		t.Errorf("conflicts = %d, want 0", st.Conflicts)
	}
}

func TestClear(t *testing.T) {
	w := New()
	w.AddReferences("p1", "P1", []reference.Reference{testRef(1, "A Title", "10.1/a")})
	w.Clear()
	if len(w.Entries()) != 0 {
		t.Fatalf("expected empty workspace after clear")
	}
}
