package main

import (
	"fmt"

	"github.com/matsen/refdeck/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(reindexCmd)
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the search index from the workspace snapshot",
	Args:  cobra.NoArgs,
	RunE:  runReindex,
}

func runReindex(cmd *cobra.Command, args []string) error {
	w := openWorkspace()

	ix := mustOpenIndex()
	defer ix.Close()

	snap := w.Snapshot()
	if err := ix.Rebuild(snap); err != nil {
		exitWithError(ExitError, "rebuilding search index: %v", err)
	}

	if humanOutput {
		fmt.Printf("Indexed %d entries at %s.\n", len(snap.Entries), config.IndexPath())
		return nil
	}
	return outputJSON(struct {
		Status  string `json:"status"`
		Indexed int    `json:"indexed"`
		Path    string `json:"path"`
	}{Status: "reindexed", Indexed: len(snap.Entries), Path: config.IndexPath()})
}
