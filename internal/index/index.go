// Package index maintains a derived SQLite full-text index over workspace
// entries. The JSON snapshot is the source of truth; the index is ephemeral
// and rebuilt whenever its content hash falls behind.
package index

import (
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
	_ "modernc.org/sqlite"

	"github.com/matsen/refdeck/internal/workspace"
)

// Hit is one full-text search result, best matches first.
type Hit struct {
	EntryID     string `json:"entry_id"`
	WorkspaceID string `json:"workspace_id"`
	Title       string `json:"title"`
	CitationKey string `json:"citation_key,omitempty"`
}

// Index wraps the SQLite database holding the FTS5 tables.
type Index struct {
	db *sql.DB
}

// Open opens (or creates) the index database at path.
func Open(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Index{db: db}, nil
}

// Close releases the underlying database handle.
func (ix *Index) Close() error {
	return ix.db.Close()
}

func initSchema(db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS _meta (
  key TEXT PRIMARY KEY,
  value TEXT
)`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS entries_fts USING fts5(
  entry_id UNINDEXED,
  workspace_id UNINDEXED,
  citation_key UNINDEXED,
  title,
  authors,
  venue,
  raw_citation
)`,
	}
	for _, stmt := range ddl {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("initializing index schema: %w", err)
		}
	}
	return nil
}

// SnapshotHash computes a content hash over the snapshot's entries. Two
// snapshots with the same entries hash identically regardless of cache
// or timestamp churn.
func SnapshotHash(snap workspace.Snapshot) string {
	payload, err := json.Marshal(snap.Entries)
	if err != nil {
		// Entries are plain data; marshaling cannot realistically fail.
		return ""
	}
	sum := blake2b.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// storedHash retrieves the hash of the snapshot the index was built from.
func (ix *Index) storedHash() (string, error) {
	var hash sql.NullString
	err := ix.db.QueryRow("SELECT value FROM _meta WHERE key = 'snapshot_hash'").Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return hash.String, nil
}

// NeedsRebuild reports whether the index is stale relative to the snapshot.
func (ix *Index) NeedsRebuild(snap workspace.Snapshot) (bool, error) {
	stored, err := ix.storedHash()
	if err != nil {
		return false, err
	}
	return stored != SnapshotHash(snap), nil
}

// Rebuild drops and repopulates the index from the snapshot's entries.
func (ix *Index) Rebuild(snap workspace.Snapshot) error {
	tx, err := ix.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning rebuild: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM entries_fts"); err != nil {
		return fmt.Errorf("clearing index: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO entries_fts
  (entry_id, workspace_id, citation_key, title, authors, venue, raw_citation)
  VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range snap.Entries {
		_, err := stmt.Exec(
			e.ID,
			e.WorkspaceID,
			e.Ref.CitationKey,
			e.Ref.Title,
			strings.Join(e.Ref.Authors, "; "),
			e.Ref.Venue,
			e.Ref.RawCitation,
		)
		if err != nil {
			return fmt.Errorf("indexing entry %s: %w", e.ID, err)
		}
	}

	_, err = tx.Exec(`INSERT OR REPLACE INTO _meta (key, value) VALUES ('snapshot_hash', ?)`,
		SnapshotHash(snap))
	if err != nil {
		return fmt.Errorf("recording snapshot hash: %w", err)
	}

	return tx.Commit()
}

// Search runs a full-text query scoped to one workspace, best matches
// first. limit <= 0 means no limit.
func (ix *Index) Search(workspaceID, query string, limit int) ([]Hit, error) {
	fts := PrepareFTSQuery(query)
	if fts == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := ix.db.Query(
		`SELECT entry_id, workspace_id, citation_key, title
  FROM entries_fts
  WHERE entries_fts MATCH ? AND workspace_id = ?
  ORDER BY rank
  LIMIT ?`,
		fts, workspaceID, limit)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.EntryID, &h.WorkspaceID, &h.CitationKey, &h.Title); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// PrepareFTSQuery escapes special characters for FTS5 queries.
func PrepareFTSQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	// If query contains special chars, quote it
	if strings.ContainsAny(query, "\"*+-:(){}[]^~") {
		query = strings.ReplaceAll(query, "\"", "\"\"")
		return "\"" + query + "\""
	}

	return query
}
