package accessify

import (
	"fmt"
	"strings"
)

// Warning describes a recoverable problem worked around during a
// conversion. The conversion result is still usable; the warning records
// what was skipped or substituted.
type Warning struct {
	// Page is the 1-based page number the problem occurred on, or 0 when
	// the problem is not tied to a page.
	Page int

	// Message describes the problem.
	Message string
}

// String formats the warning for display.
func (w Warning) String() string {
	if w.Page > 0 {
		return fmt.Sprintf("page %d: %s", w.Page, w.Message)
	}
	return w.Message
}

// FormatWarnings joins warnings into a single readable line.
//
// Example:
//
//	out, warnings, err := accessify.Convert("report.pdf").Run()
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", accessify.FormatWarnings(warnings))
//	}
func FormatWarnings(warnings []Warning) string {
	if len(warnings) == 0 {
		return ""
	}
	parts := make([]string, len(warnings))
	for i, w := range warnings {
		parts[i] = w.String()
	}
	return strings.Join(parts, "; ")
}
