// Package discovery probes indexed bibliographic sources to determine
// whether an unresolved reference is discoverable, and defines the cached
// result type stored in the workspace snapshot.
package discovery

import "time"

// CacheTTL is how long a cached availability result stays valid.
const CacheTTL = 24 * time.Hour

// Status reports the outcome of an availability check.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusUnavailable Status = "unavailable"
	StatusSkipped     Status = "skipped"
	StatusError       Status = "error"
)

// Source identifies one indexed bibliographic source.
type Source string

const (
	SourceCrossref        Source = "crossref"
	SourceSemanticScholar Source = "semantic_scholar"
	SourceDBLP            Source = "dblp"
)

// Result is the outcome of probing all indexed sources for one reference.
type Result struct {
	Status         Status   `json:"status"`
	AvailableOn    []Source `json:"available_on,omitempty"`
	BestConfidence float64  `json:"best_confidence,omitempty"`
	BestURL        string   `json:"best_url,omitempty"`
	Reason         string   `json:"reason,omitempty"`
}
