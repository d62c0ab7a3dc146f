// Package main provides the refdeck CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/matsen/refdeck/internal/config"
	"github.com/matsen/refdeck/internal/index"
	"github.com/matsen/refdeck/internal/store"
	"github.com/matsen/refdeck/internal/workspace"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "refdeck",
	Short: "Local reference deduplication workspace",
	Long: `refdeck maintains a local workspace of bibliographic references
collected from multiple source papers.

Core features:
  - Identity matching by DOI and title/year/author fingerprints
  - Fuzzy title matching with auto-merge and conflict review
  - BibTeX export with citation-key deduplication
  - Availability checks against Crossref, Semantic Scholar and DBLP

Data is stored as a versioned JSON snapshot with an ephemeral SQLite
index for full-text search. All commands output JSON by default.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}

// openWorkspace loads the persisted snapshot into a fresh workspace
// manager. The load never fails: malformed or missing state degrades to
// an empty workspace.
func openWorkspace() *workspace.Workspace {
	st := store.New(config.DataDir())
	w := workspace.New(workspace.WithSaver(st))

	snap, source := st.Load()
	if source == store.SourceFresh {
		w.MarkLoaded()
	} else {
		w.AdoptPersisted(snap)
	}
	if source == store.SourceMigrated {
		fmt.Fprintln(os.Stderr, "Migrated legacy references.json to the current workspace format.")
	}
	return w
}

// mustOpenIndex opens the search index database, exits on error.
// The caller is responsible for calling Close() on the returned index.
func mustOpenIndex() *index.Index {
	ix, err := index.Open(config.IndexPath())
	if err != nil {
		exitWithError(ExitError, "opening search index: %v", err)
	}
	return ix
}

// mustCurrentIndex opens the index and rebuilds it if it is stale
// relative to the given workspace snapshot.
func mustCurrentIndex(w *workspace.Workspace) *index.Index {
	ix := mustOpenIndex()
	snap := w.Snapshot()

	stale, err := ix.NeedsRebuild(snap)
	if err != nil {
		ix.Close()
		exitWithError(ExitError, "checking index freshness: %v", err)
	}
	if stale {
		if err := ix.Rebuild(snap); err != nil {
			ix.Close()
			exitWithError(ExitError, "rebuilding search index: %v", err)
		}
	}
	return ix
}
