package main

import (
	"fmt"

	"github.com/matsen/refdeck/internal/workspace"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(resolveCmd)
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <entry-id> <merge|keep_both>",
	Short: "Resolve a flagged conflict",
	Long: `Resolve a conflict entry.

With "merge", the entry is combined with its conflict counterpart: the
higher-quality side (DOI-backed beats matched beats fuzzy) keeps its
metadata and absorbs the other's source occurrences. With "keep_both",
both entries stay and the conflict flag is cleared.

Examples:
  refdeck resolve 4f1c... merge
  refdeck resolve 4f1c... keep_both`,
	Args: cobra.ExactArgs(2),
	RunE: runResolve,
}

// ResolveResponse is the JSON response for the resolve command.
type ResolveResponse struct {
	EntryID    string          `json:"entry_id"`
	Resolution string          `json:"resolution"`
	Entry      workspace.Entry `json:"entry"`
}

func runResolve(cmd *cobra.Command, args []string) error {
	entryID := args[0]

	var resolution workspace.Resolution
	switch args[1] {
	case string(workspace.ResolutionMerge):
		resolution = workspace.ResolutionMerge
	case string(workspace.ResolutionKeepBoth):
		resolution = workspace.ResolutionKeepBoth
	default:
		exitWithError(ExitError, "unknown resolution %q (use merge or keep_both)", args[1])
	}

	w := openWorkspace()

	entry, ok := w.Entry(entryID)
	if !ok {
		exitWithError(ExitNotFound, "entry %s not found", entryID)
	}
	if entry.Status != workspace.StatusConflict {
		exitWithError(ExitDataError, "entry %s is not a conflict (status %s)", entryID, entry.Status)
	}

	w.ResolveConflict(entryID, resolution)

	entry, ok = w.Entry(entryID)
	if !ok {
		// The entry lost a merge and was absorbed by its counterpart.
		if humanOutput {
			fmt.Printf("Merged %s into its counterpart.\n", entryID)
			return nil
		}
		return outputJSON(StatusResponse{Status: "merged"})
	}

	if humanOutput {
		fmt.Printf("Resolved %s (%s): now %s with %d occurrence(s).\n",
			entryID, resolution, entry.Status, entry.Occurrences)
		return nil
	}
	return outputJSON(ResolveResponse{
		EntryID:    entryID,
		Resolution: string(resolution),
		Entry:      entry,
	})
}
