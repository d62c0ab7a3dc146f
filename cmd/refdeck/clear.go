package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clearForce bool

func init() {
	rootCmd.AddCommand(clearCmd)
	clearCmd.Flags().BoolVar(&clearForce, "force", false, "Clear without confirmation")
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every entry of the active workspace",
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

func runClear(cmd *cobra.Command, args []string) error {
	w := openWorkspace()
	st := w.Stats()

	if !clearForce && st.Unique > 0 {
		exitWithError(ExitError, "workspace holds %d entries; pass --force to clear", st.Unique)
	}

	w.Clear()

	if humanOutput {
		fmt.Printf("Cleared %d entries.\n", st.Unique)
		return nil
	}
	return outputJSON(struct {
		Status  string `json:"status"`
		Removed int    `json:"removed"`
	}{Status: "cleared", Removed: st.Unique})
}
