package main

import (
	"fmt"
	"strconv"

	"github.com/matsen/refdeck/internal/workspace"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(conflictsCmd)
}

var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "List unresolved conflict entries",
	Args:  cobra.NoArgs,
	RunE:  runConflicts,
}

// ConflictsResponse is the JSON response for the conflicts command.
type ConflictsResponse struct {
	Count     int               `json:"count"`
	Conflicts []workspace.Entry `json:"conflicts"`
}

func runConflicts(cmd *cobra.Command, args []string) error {
	w := openWorkspace()
	conflicts := w.Conflicts()

	if humanOutput {
		if len(conflicts) == 0 {
			fmt.Println("No unresolved conflicts.")
			return nil
		}
		rows := make([][]string, 0, len(conflicts))
		for _, e := range conflicts {
			rows = append(rows, []string{
				e.ID,
				truncateString(e.Ref.Title, ListTitleMaxLen),
				e.ConflictWith,
				strconv.Itoa(e.Occurrences),
			})
		}
		fmt.Println(renderTable(
			[]string{"ID", "Title", "Conflicts With", "Occurrences"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
		))
		return nil
	}
	return outputJSON(ConflictsResponse{Count: len(conflicts), Conflicts: conflicts})
}
