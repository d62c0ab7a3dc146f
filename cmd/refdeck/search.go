package main

import (
	"fmt"
	"strings"

	"github.com/matsen/refdeck/internal/index"
	"github.com/spf13/cobra"
)

// DefaultSearchLimit bounds search results unless --limit is given.
const DefaultSearchLimit = 20

var searchLimit int

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVar(&searchLimit, "limit", DefaultSearchLimit, "Maximum number of results")
}

var searchCmd = &cobra.Command{
	Use:   "search <query>...",
	Short: "Full-text search over workspace entries",
	Long: `Search entry titles, authors, venues and raw citations.

The SQLite index is rebuilt transparently when the workspace has changed
since the last search.

Examples:
  refdeck search attention transformer
  refdeck search "residual learning" --human`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

// SearchResponse is the JSON response for the search command.
type SearchResponse struct {
	Query string      `json:"query"`
	Count int         `json:"count"`
	Hits  []index.Hit `json:"hits"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	w := openWorkspace()
	ix := mustCurrentIndex(w)
	defer ix.Close()

	hits, err := ix.Search(w.Snapshot().ActiveWorkspace, query, searchLimit)
	if err != nil {
		exitWithError(ExitError, "searching: %v", err)
	}

	if humanOutput {
		if len(hits) == 0 {
			fmt.Println("No matches.")
			return nil
		}
		rows := make([][]string, 0, len(hits))
		for _, h := range hits {
			rows = append(rows, []string{
				h.EntryID,
				h.CitationKey,
				truncateString(h.Title, ListTitleMaxLen),
			})
		}
		fmt.Println(renderTable(
			[]string{"ID", "Key", "Title"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft},
		))
		return nil
	}
	return outputJSON(SearchResponse{Query: query, Count: len(hits), Hits: hits})
}
