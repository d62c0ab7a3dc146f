// Package workspace implements the deduplicated reference workspace: the
// dedup/merge engine, conflict resolution, and the snapshot aggregate that
// the store persists.
package workspace

import (
	"time"

	"github.com/matsen/refdeck/internal/discovery"
	"github.com/matsen/refdeck/internal/reference"
)

// SchemaVersion is the current persisted snapshot format version.
const SchemaVersion = 2

// DedupStatus is the deduplication state of a workspace entry. Core logic
// only ever assigns unique or conflict.
type DedupStatus string

const (
	StatusUnique   DedupStatus = "unique"
	StatusConflict DedupStatus = "conflict"
)

// Resolution is a user decision on a flagged conflict pair.
type Resolution string

const (
	ResolutionMerge    Resolution = "merge"
	ResolutionKeepBoth Resolution = "keep_both"
)

// SourceRef records one occurrence of a logical citation in one source
// document.
type SourceRef struct {
	PaperID string `json:"paper_id"`
	Label   string `json:"label"`
	Index   int    `json:"index"`
}

// Entry is the unit of deduplicated storage. Occurrences always equals
// len(Sources).
type Entry struct {
	ID             string              `json:"id"`
	WorkspaceID    string              `json:"workspace_id"`
	Fingerprint    string              `json:"fingerprint"` // Fixed at creation
	Status         DedupStatus         `json:"status"`
	Ref            reference.Reference `json:"ref"`
	Sources        []SourceRef         `json:"sources"`
	Occurrences    int                 `json:"occurrences"`
	ConflictWith   string              `json:"conflict_with,omitempty"` // Entry ID of the flagged counterpart
	BibTeXOverride string              `json:"bibtex_override,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	ResolvedAt     *time.Time          `json:"resolved_at,omitempty"`
}

// clone returns a deep copy of the entry so snapshot mutations never alias
// published state.
func (e Entry) clone() Entry {
	c := e
	c.Sources = append([]SourceRef(nil), e.Sources...)
	c.Ref.Authors = append([]string(nil), e.Ref.Authors...)
	if e.ResolvedAt != nil {
		t := *e.ResolvedAt
		c.ResolvedAt = &t
	}
	return c
}

// hasSource reports whether the entry already records the given
// (paper, index) occurrence.
func (e Entry) hasSource(paperID string, index int) bool {
	for _, s := range e.Sources {
		if s.PaperID == paperID && s.Index == index {
			return true
		}
	}
	return false
}

// Meta describes one workspace. One workspace is active at a time.
type Meta struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CacheEntry is a time-boxed cached availability result.
type CacheEntry struct {
	Result    discovery.Result `json:"result"`
	CheckedAt time.Time        `json:"checked_at"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// Snapshot is the root aggregate persisted by the store. Snapshots are
// treated as immutable once published; mutations build a new one.
type Snapshot struct {
	SchemaVersion   int                   `json:"schema_version"`
	ActiveWorkspace string                `json:"active_workspace"`
	Workspaces      []Meta                `json:"workspaces"`
	Entries         []Entry               `json:"entries"`
	DiscoveryCache  map[string]CacheEntry `json:"discovery_cache"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	c := s
	c.Workspaces = append([]Meta(nil), s.Workspaces...)
	c.Entries = make([]Entry, len(s.Entries))
	for i, e := range s.Entries {
		c.Entries[i] = e.clone()
	}
	c.DiscoveryCache = make(map[string]CacheEntry, len(s.DiscoveryCache))
	for k, v := range s.DiscoveryCache {
		c.DiscoveryCache[k] = v
	}
	return c
}

// DefaultWorkspaceID is the ID of the workspace synthesized for fresh and
// migrated stores.
const DefaultWorkspaceID = "default"

// NewSnapshot returns an empty current-schema snapshot with one default
// workspace.
func NewSnapshot(now time.Time) Snapshot {
	return Snapshot{
		SchemaVersion:   SchemaVersion,
		ActiveWorkspace: DefaultWorkspaceID,
		Workspaces: []Meta{{
			ID:        DefaultWorkspaceID,
			Name:      "Workspace",
			CreatedAt: now,
			UpdatedAt: now,
		}},
		DiscoveryCache: make(map[string]CacheEntry),
		UpdatedAt:      now,
	}
}

// AddResult reports the outcome of one batch addition.
type AddResult struct {
	Added     int `json:"added"`
	Merged    int `json:"merged"`
	Conflicts int `json:"conflicts"`
}

// Stats summarizes the active workspace.
type Stats struct {
	Papers    int `json:"papers"` // Distinct source-document IDs
	Refs      int `json:"refs"`   // Sum of occurrence counts
	Unique    int `json:"unique"` // Entry count
	Conflicts int `json:"conflicts"`
}
