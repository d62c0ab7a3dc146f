package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/matsen/refdeck/internal/reference"
	"github.com/matsen/refdeck/internal/workspace"
	"github.com/spf13/cobra"
)

var addLabel string

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVar(&addLabel, "label", "", "Human-readable label for the source paper")
}

var addCmd = &cobra.Command{
	Use:   "add <paper-id> <references.json>",
	Short: "Add a paper's extracted references to the workspace",
	Long: `Add the references extracted from one source paper.

The references file is a JSON array of reference objects, or an object
with a "references" array. Each reference carrying a BibTeX payload is
matched against the workspace: identical works are merged, near-identical
titles are flagged as conflicts for review.

Examples:
  refdeck add attention-2017 refs.json --label "Vaswani et al. 2017"
  refdeck add attention-2017 refs.json --human`,
	Args: cobra.ExactArgs(2),
	RunE: runAdd,
}

// AddResponse is the JSON response for the add command.
type AddResponse struct {
	PaperID string `json:"paper_id"`
	workspace.AddResult
}

func runAdd(cmd *cobra.Command, args []string) error {
	paperID, path := args[0], args[1]

	refs, err := readReferencesFile(path)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	label := addLabel
	if label == "" {
		label = paperID
	}

	w := openWorkspace()
	res := w.AddReferences(paperID, label, refs)

	if humanOutput {
		fmt.Printf("Added %d, merged %d, flagged %d conflict(s) from %s.\n",
			res.Added, res.Merged, res.Conflicts, paperID)
		return nil
	}
	return outputJSON(AddResponse{PaperID: paperID, AddResult: res})
}

// readReferencesFile parses an extraction payload: either a bare JSON
// array of references or an object wrapping one.
func readReferencesFile(path string) ([]reference.Reference, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading references file: %w", err)
	}

	var refs []reference.Reference
	if err := json.Unmarshal(data, &refs); err == nil {
		return refs, nil
	}

	var wrapped struct {
		References []reference.Reference `json:"references"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parsing references file: %w", err)
	}
	return wrapped.References, nil
}
