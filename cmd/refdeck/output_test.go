package main

import (
	"testing"

	"github.com/matsen/refdeck/internal/workspace"
)

func TestTruncateString(t *testing.T) {
	if got := truncateString("short", 10); got != "short" {
		t.Errorf("truncateString = %q", got)
	}
	if got := truncateString("a very long title indeed", 10); got != "a very ..." {
		t.Errorf("truncateString = %q", got)
	}
}

func TestDisplayStatus(t *testing.T) {
	tests := []struct {
		name string
		e    workspace.Entry
		want string
	}{
		{"unique single", workspace.Entry{Status: workspace.StatusUnique, Occurrences: 1}, "unique"},
		{"merged", workspace.Entry{Status: workspace.StatusUnique, Occurrences: 3}, "merged"},
		{"conflict", workspace.Entry{Status: workspace.StatusConflict, Occurrences: 2}, "conflict"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := displayStatus(tt.e); got != tt.want {
				t.Errorf("displayStatus = %q, want %q", got, tt.want)
			}
		})
	}
}
