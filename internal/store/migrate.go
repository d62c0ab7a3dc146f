package store

import (
	"encoding/json"
	"os"
	"time"

	"github.com/matsen/refdeck/internal/reference"
	"github.com/matsen/refdeck/internal/workspace"
)

// legacyEntry is the pre-versioning entry shape: a flat list with no
// workspace or cache concepts.
type legacyEntry struct {
	ID           string                `json:"id"`
	Fingerprint  string                `json:"fingerprint"`
	Status       string                `json:"status"`
	Ref          reference.Reference   `json:"ref"`
	Sources      []workspace.SourceRef `json:"sources"`
	Occurrences  int                   `json:"occurrences"`
	ConflictWith string                `json:"conflict_with,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// loadLegacy reads the legacy flat entry list and synthesizes a
// current-schema snapshot around it: one default workspace, empty cache.
func (s *FileStore) loadLegacy(now time.Time) (workspace.Snapshot, bool) {
	data, err := os.ReadFile(s.LegacyPath())
	if err != nil {
		return workspace.Snapshot{}, false
	}

	var legacy []legacyEntry
	if err := json.Unmarshal(data, &legacy); err != nil {
		return workspace.Snapshot{}, false
	}

	return migrateLegacy(legacy, now), true
}

// migrateLegacy is the pure v1 -> v2 migration.
func migrateLegacy(legacy []legacyEntry, now time.Time) workspace.Snapshot {
	snap := workspace.NewSnapshot(now)

	seen := make(map[string]struct{}, len(legacy))
	for _, le := range legacy {
		if le.ID == "" {
			continue
		}
		if _, dup := seen[le.ID]; dup {
			continue
		}
		seen[le.ID] = struct{}{}

		status := workspace.DedupStatus(le.Status)
		if status != workspace.StatusConflict {
			status = workspace.StatusUnique
		}

		created := le.CreatedAt
		if created.IsZero() {
			created = now
		}
		updated := le.UpdatedAt
		if updated.IsZero() {
			updated = created
		}

		snap.Entries = append(snap.Entries, workspace.Entry{
			ID:           le.ID,
			WorkspaceID:  workspace.DefaultWorkspaceID,
			Fingerprint:  le.Fingerprint,
			Status:       status,
			Ref:          le.Ref,
			Sources:      le.Sources,
			Occurrences:  len(le.Sources), // Re-establish the invariant
			ConflictWith: le.ConflictWith,
			CreatedAt:    created,
			UpdatedAt:    updated,
		})
	}

	return snap
}
