// Package reference defines the normalized reference records consumed by the
// dedup engine. References are produced by the extraction pipeline and never
// mutated here.
package reference

import "strings"

// MatchStatus describes how well a BibTeX entry matched the parsed reference.
type MatchStatus string

const (
	MatchMatched   MatchStatus = "matched"
	MatchFuzzy     MatchStatus = "fuzzy"
	MatchUnmatched MatchStatus = "unmatched"
)

// MatchSource identifies which lookup service supplied the BibTeX entry.
type MatchSource string

const (
	SourceCrossref        MatchSource = "crossref"
	SourceSemanticScholar MatchSource = "semantic_scholar"
	SourceDBLP            MatchSource = "dblp"
	SourceGrobidFallback  MatchSource = "grobid_fallback"
)

// Reference is one bibliographic reference extracted from a source document.
// Only Index and RawCitation are guaranteed; everything else is optional.
type Reference struct {
	Index       int         `json:"index"`
	RawCitation string      `json:"raw_citation"`
	Title       string      `json:"title,omitempty"`
	Authors     []string    `json:"authors,omitempty"` // Ordered, format "Surname, F."
	Year        int         `json:"year,omitempty"`
	DOI         string      `json:"doi,omitempty"`
	Venue       string      `json:"venue,omitempty"`
	BibTeX      string      `json:"bibtex,omitempty"`
	CitationKey string      `json:"citation_key,omitempty"`
	MatchStatus MatchStatus `json:"match_status"`
	MatchSource MatchSource `json:"match_source,omitempty"`
	URL         string      `json:"url,omitempty"`
}

// FirstAuthor returns the first author string, or "" if there are none.
func (r Reference) FirstAuthor() string {
	if len(r.Authors) == 0 {
		return ""
	}
	return r.Authors[0]
}

// HasBibTeX reports whether the reference carries a usable BibTeX payload.
// References without one do not participate in workspace deduplication.
func (r Reference) HasBibTeX() bool {
	return strings.TrimSpace(r.BibTeX) != ""
}
