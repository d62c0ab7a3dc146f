package main

import (
	"fmt"
	"os"

	"github.com/matsen/refdeck/internal/export"
	"github.com/spf13/cobra"
)

var exportOutput string

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write the bibliography to a file instead of stdout")
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the deduplicated bibliography as BibTeX",
	Long: `Assemble one BibTeX document from the active workspace.

Each entry contributes its user override if one was recorded, otherwise
its resolved BibTeX, otherwise a synthesized @misc entry. Citation keys
are made unique across the document.

Examples:
  refdeck export > refs.bib
  refdeck export -o refs.bib`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	w := openWorkspace()
	doc := export.Assemble(w.Entries())

	if exportOutput == "" {
		fmt.Print(doc)
		return nil
	}

	if err := os.WriteFile(exportOutput, []byte(doc), 0644); err != nil {
		exitWithError(ExitError, "writing %s: %v", exportOutput, err)
	}
	if humanOutput {
		fmt.Printf("Wrote bibliography to %s.\n", exportOutput)
		return nil
	}
	return outputJSON(StatusResponse{Status: "exported", Path: exportOutput})
}
