package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/matsen/refdeck/internal/workspace"
)

const (
	// ListTitleMaxLen bounds titles in list/conflict tables.
	ListTitleMaxLen = 60
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// displayStatus renders an entry's dedup status for the human view.
// Entries that absorbed more than one occurrence read as "merged".
func displayStatus(e workspace.Entry) string {
	if e.Status == workspace.StatusUnique && e.Occurrences > 1 {
		return "merged"
	}
	return string(e.Status)
}
