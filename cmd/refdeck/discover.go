package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matsen/refdeck/internal/config"
	"github.com/matsen/refdeck/internal/discovery"
	"github.com/matsen/refdeck/internal/workspace"
)

var (
	discoverRefresh bool
	discoverTimeout time.Duration
)

func init() {
	// Load .env file if present (for S2_API_KEY)
	_ = godotenv.Load()

	rootCmd.AddCommand(discoverCmd)
	discoverCmd.Flags().BoolVar(&discoverRefresh, "refresh", false, "Ignore cached results and re-probe every entry")
	discoverCmd.Flags().DurationVar(&discoverTimeout, "timeout", 2*time.Minute, "Overall deadline for the probe run")
}

var discoverCmd = &cobra.Command{
	Use:   "discover [entry-id]",
	Short: "Check which entries are available on indexed sources",
	Long: `Probe Crossref, Semantic Scholar and DBLP for each entry (or one
entry, if an ID is given).

Results are cached for 24 hours; --refresh bypasses the cache. The
probes never feed back into deduplication.

Examples:
  refdeck discover
  refdeck discover 4f1c... --human
  refdeck discover --refresh`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDiscover,
}

// DiscoverEntryResult pairs one entry with its availability result.
type DiscoverEntryResult struct {
	EntryID string           `json:"entry_id"`
	Title   string           `json:"title,omitempty"`
	Cached  bool             `json:"cached"`
	Result  discovery.Result `json:"result"`
}

// DiscoverResponse is the JSON response for the discover command.
type DiscoverResponse struct {
	Checked int                   `json:"checked"`
	Results []DiscoverEntryResult `json:"results"`
}

func runDiscover(cmd *cobra.Command, args []string) error {
	w := openWorkspace()

	var entries []workspace.Entry
	if len(args) == 1 {
		entry, ok := w.Entry(args[0])
		if !ok {
			exitWithError(ExitNotFound, "entry %s not found", args[0])
		}
		entries = []workspace.Entry{entry}
	} else {
		entries = w.Entries()
	}

	client := discovery.NewClient(
		discovery.WithMailto(config.GetCrossrefMailto()),
		discovery.WithS2APIKey(config.GetS2APIKey()),
	)

	ctx, cancel := context.WithTimeout(cmd.Context(), discoverTimeout)
	defer cancel()

	results := make([]DiscoverEntryResult, 0, len(entries))
	for _, e := range entries {
		res, cached := discovery.Result{}, false
		if !discoverRefresh {
			res, cached = w.GetCachedDiscovery(e.Ref)
		}
		if !cached {
			res = client.Check(ctx, e.Ref)
			w.CacheDiscoveryResult(e.Ref, res)
		}
		results = append(results, DiscoverEntryResult{
			EntryID: e.ID,
			Title:   e.Ref.Title,
			Cached:  cached,
			Result:  res,
		})
	}

	if humanOutput {
		printDiscoverHuman(results)
		return nil
	}
	return outputJSON(DiscoverResponse{Checked: len(results), Results: results})
}

func printDiscoverHuman(results []DiscoverEntryResult) {
	if len(results) == 0 {
		fmt.Println("Workspace is empty.")
		return
	}

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		sources := make([]string, 0, len(r.Result.AvailableOn))
		for _, s := range r.Result.AvailableOn {
			sources = append(sources, string(s))
		}
		confidence := ""
		if r.Result.BestConfidence > 0 {
			confidence = fmt.Sprintf("%.2f", r.Result.BestConfidence)
		}
		cached := ""
		if r.Cached {
			cached = "yes"
		}
		rows = append(rows, []string{
			r.EntryID,
			truncateString(r.Title, ListTitleMaxLen),
			string(r.Result.Status),
			strings.Join(sources, ", "),
			confidence,
			cached,
		})
	}
	fmt.Println(renderTable(
		[]string{"ID", "Title", "Status", "Sources", "Confidence", "Cached"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
}
