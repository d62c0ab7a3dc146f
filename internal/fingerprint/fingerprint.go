// Package fingerprint derives deterministic identity keys for references.
//
// A fingerprint is a pure function of a reference's normalized DOI, or of
// its (normalized title, year, first-author surname) when no DOI exists.
// Fingerprints drive exact-match deduplication; the discovery variant is
// used only to key the availability cache.
package fingerprint

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/matsen/refdeck/internal/reference"
	"github.com/matsen/refdeck/internal/textutil"
)

// doiPrefix matches resolver URLs and the doi: scheme on a lowercased DOI.
var doiPrefix = regexp.MustCompile(`^(https?://(dx\.)?doi\.org/|doi:)`)

// NormalizeDOI trims, lowercases, and strips leading resolver prefixes
// (http(s)://doi.org/, http(s)://dx.doi.org/, doi:) from a DOI string.
// Returns "" for an absent DOI.
func NormalizeDOI(doi string) string {
	d := strings.ToLower(strings.TrimSpace(doi))
	return doiPrefix.ReplaceAllString(d, "")
}

// Exact returns the identity fingerprint for a reference.
//
// A normalized DOI yields "doi:<doi>". Otherwise a non-empty normalized
// title yields "title:<title>|year:<year-or-na>|author:<token>" where the
// token is the first token of the normalized first-author string. A
// reference with neither DOI nor title has no identity and yields "".
func Exact(ref reference.Reference) string {
	if doi := NormalizeDOI(ref.DOI); doi != "" {
		return "doi:" + doi
	}

	title := textutil.Normalize(ref.Title)
	if title == "" {
		return ""
	}

	year := "na"
	if ref.Year != 0 {
		year = fmt.Sprintf("%d", ref.Year)
	}

	author := ""
	if tokens := strings.Fields(textutil.Normalize(ref.FirstAuthor())); len(tokens) > 0 {
		author = tokens[0]
	}

	return "title:" + title + "|year:" + year + "|author:" + author
}

// Discovery returns the cache key for availability lookups: the exact
// fingerprint when one exists, else "raw:<normalized raw citation>", else
// "" for an uncachable reference. Never used for merge decisions.
func Discovery(ref reference.Reference) string {
	if fp := Exact(ref); fp != "" {
		return fp
	}
	if raw := textutil.Normalize(ref.RawCitation); raw != "" {
		return "raw:" + raw
	}
	return ""
}
