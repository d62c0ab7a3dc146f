package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the active workspace",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	w := openWorkspace()
	st := w.Stats()

	if humanOutput {
		fmt.Printf("Papers:    %d\n", st.Papers)
		fmt.Printf("Refs:      %d\n", st.Refs)
		fmt.Printf("Unique:    %d\n", st.Unique)
		fmt.Printf("Conflicts: %d\n", st.Conflicts)
		return nil
	}
	return outputJSON(st)
}
