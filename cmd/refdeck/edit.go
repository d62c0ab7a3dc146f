package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	editBibTeXFile string
	editClear      bool
)

func init() {
	rootCmd.AddCommand(editCmd)
	editCmd.Flags().StringVar(&editBibTeXFile, "bibtex-file", "", "File holding the replacement BibTeX entry")
	editCmd.Flags().BoolVar(&editClear, "clear", false, "Remove the override, reverting to the resolved BibTeX")
}

var editCmd = &cobra.Command{
	Use:   "edit <entry-id>",
	Short: "Override an entry's BibTeX",
	Long: `Record a hand-edited BibTeX payload for one entry.

The override takes precedence over the resolved BibTeX at export time.

Examples:
  refdeck edit 4f1c... --bibtex-file fixed.bib
  refdeck edit 4f1c... --clear`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func runEdit(cmd *cobra.Command, args []string) error {
	entryID := args[0]

	if editClear == (editBibTeXFile != "") {
		exitWithError(ExitError, "pass exactly one of --bibtex-file or --clear")
	}

	bibtex := ""
	if editBibTeXFile != "" {
		data, err := os.ReadFile(editBibTeXFile)
		if err != nil {
			exitWithError(ExitDataError, "reading BibTeX file: %v", err)
		}
		bibtex = string(data)
	}

	w := openWorkspace()
	if !w.SetBibTeXOverride(entryID, bibtex) {
		exitWithError(ExitNotFound, "entry %s not found", entryID)
	}

	status := "overridden"
	if editClear {
		status = "reverted"
	}
	if humanOutput {
		fmt.Printf("Entry %s %s.\n", entryID, status)
		return nil
	}
	return outputJSON(StatusResponse{Status: status})
}
