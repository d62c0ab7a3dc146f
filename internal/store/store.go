// Package store persists the workspace snapshot as a versioned JSON file
// and migrates the legacy single-workspace format forward.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/matsen/refdeck/internal/workspace"
)

const (
	// SnapshotFile is the current versioned snapshot, schema version 2.
	SnapshotFile = "workspace.json"

	// LegacyFile holds the pre-versioning flat entry list, read once for
	// migration.
	LegacyFile = "references.json"

	// LockFile serializes writers across concurrent CLI invocations.
	LockFile = "workspace.lock"
)

// LoadSource reports where a loaded snapshot came from.
type LoadSource string

const (
	SourcePersisted LoadSource = "persisted"
	SourceMigrated  LoadSource = "migrated"
	SourceFresh     LoadSource = "fresh"
)

// FileStore reads and writes snapshots under a data directory.
type FileStore struct {
	dir string
	now func() time.Time
}

// New creates a file store rooted at dir.
func New(dir string) *FileStore {
	return &FileStore{dir: dir, now: time.Now}
}

// NewWithClock creates a file store with a fixed time source (for tests).
func NewWithClock(dir string, now func() time.Time) *FileStore {
	return &FileStore{dir: dir, now: now}
}

// SnapshotPath returns the path of the versioned snapshot file.
func (s *FileStore) SnapshotPath() string {
	return filepath.Join(s.dir, SnapshotFile)
}

// LegacyPath returns the path of the legacy flat-list file.
func (s *FileStore) LegacyPath() string {
	return filepath.Join(s.dir, LegacyFile)
}

// Load reads the persisted snapshot. A structurally valid current-schema
// snapshot is returned with expired discovery-cache entries pruned. If it
// is absent or malformed, the legacy format is migrated and persisted
// immediately. Otherwise a fresh empty snapshot is returned. Load never
// fails: every recovery path ends in a usable snapshot.
func (s *FileStore) Load() (workspace.Snapshot, LoadSource) {
	now := s.now()

	if snap, ok := s.loadCurrent(); ok {
		pruneCache(&snap, now)
		return snap, SourcePersisted
	}

	if snap, ok := s.loadLegacy(now); ok {
		// Record the migrated form right away so the legacy file is only
		// ever read once.
		_ = s.Save(snap)
		return snap, SourceMigrated
	}

	return workspace.NewSnapshot(now), SourceFresh
}

// loadCurrent reads and structurally validates the versioned snapshot.
func (s *FileStore) loadCurrent() (workspace.Snapshot, bool) {
	data, err := os.ReadFile(s.SnapshotPath())
	if err != nil {
		return workspace.Snapshot{}, false
	}

	var snap workspace.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return workspace.Snapshot{}, false
	}
	if err := Validate(snap); err != nil {
		return workspace.Snapshot{}, false
	}
	if snap.DiscoveryCache == nil {
		snap.DiscoveryCache = make(map[string]workspace.CacheEntry)
	}
	return snap, true
}

// Validate checks a snapshot structurally, not just by version tag.
func Validate(snap workspace.Snapshot) error {
	if snap.SchemaVersion != workspace.SchemaVersion {
		return fmt.Errorf("schema version %d, want %d", snap.SchemaVersion, workspace.SchemaVersion)
	}
	if snap.ActiveWorkspace == "" {
		return fmt.Errorf("missing active workspace")
	}

	active := false
	for _, m := range snap.Workspaces {
		if m.ID == "" {
			return fmt.Errorf("workspace with empty id")
		}
		if m.ID == snap.ActiveWorkspace {
			active = true
		}
	}
	if !active {
		return fmt.Errorf("active workspace %q not in workspace list", snap.ActiveWorkspace)
	}

	seen := make(map[string]struct{}, len(snap.Entries))
	for i, e := range snap.Entries {
		if e.ID == "" {
			return fmt.Errorf("entry %d has empty id", i)
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("duplicate entry id %q", e.ID)
		}
		seen[e.ID] = struct{}{}

		if e.Status != workspace.StatusUnique && e.Status != workspace.StatusConflict {
			return fmt.Errorf("entry %q has invalid status %q", e.ID, e.Status)
		}
		if e.Occurrences != len(e.Sources) {
			return fmt.Errorf("entry %q occurrence count %d != %d sources", e.ID, e.Occurrences, len(e.Sources))
		}
	}

	return nil
}

// pruneCache drops expired discovery-cache entries.
func pruneCache(snap *workspace.Snapshot, now time.Time) {
	for key, entry := range snap.DiscoveryCache {
		if !now.Before(entry.ExpiresAt) {
			delete(snap.DiscoveryCache, key)
		}
	}
}

// Save writes the snapshot atomically (temp file + rename) under a file
// lock. Errors are returned for the caller to swallow; a failed save never
// affects in-memory state.
func (s *FileStore) Save(snap workspace.Snapshot) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	lock := flock.New(filepath.Join(s.dir, LockFile))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("locking store: %w", err)
	}
	defer lock.Unlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	tmp := s.SnapshotPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.SnapshotPath()); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}

	return nil
}
