// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"rtodo/internal/service"
)

// FormatTask formats one task line.
// Format: "{N:>4}  [x]  {TITLE}" plus photo/location markers.
func FormatTask(w io.Writer, num int, task service.Task) {
	box := "[ ]"
	if task.Completed {
		box = "[x]"
	}
	line := fmt.Sprintf("%4d  %s  %s", num, box, normalizeTitle(task.Title))
	if task.PhotoURI != "" {
		line += "  [photo]"
	}
	if task.Location != nil {
		line += fmt.Sprintf("  @%.4f,%.4f", task.Location.Latitude, task.Location.Longitude)
	}
	fmt.Fprintln(w, line)
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
