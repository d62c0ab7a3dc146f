package main

import (
	"fmt"
	"strconv"

	"github.com/matsen/refdeck/internal/workspace"
	"github.com/spf13/cobra"
)

var listStatus string

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status (unique or conflict)")
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List workspace entries",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

// ListResponse is the JSON response for the list command.
type ListResponse struct {
	Count   int               `json:"count"`
	Entries []workspace.Entry `json:"entries"`
}

func runList(cmd *cobra.Command, args []string) error {
	if listStatus != "" &&
		listStatus != string(workspace.StatusUnique) &&
		listStatus != string(workspace.StatusConflict) {
		exitWithError(ExitError, "unknown status %q (use unique or conflict)", listStatus)
	}

	w := openWorkspace()

	entries := w.Entries()
	if listStatus != "" {
		filtered := entries[:0]
		for _, e := range entries {
			if string(e.Status) == listStatus {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	if humanOutput {
		if len(entries) == 0 {
			fmt.Println("Workspace is empty.")
			return nil
		}
		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []string{
				e.ID,
				truncateString(e.Ref.Title, ListTitleMaxLen),
				displayStatus(e),
				string(e.Ref.MatchStatus),
				strconv.Itoa(e.Occurrences),
			})
		}
		fmt.Println(renderTable(
			[]string{"ID", "Title", "Status", "Match", "Occurrences"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
		))
		return nil
	}
	return outputJSON(ListResponse{Count: len(entries), Entries: entries})
}
