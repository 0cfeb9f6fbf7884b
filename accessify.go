// Package accessify converts documents into higher-contrast, visually
// simplified copies for readers with visual or cognitive accessibility
// needs: white backgrounds, black text, one consistent typeface, and (for
// PDF pages) a layout rebuilt from scratch with legible spacing.
//
// Basic usage:
//
//	out, warnings, err := accessify.Convert("document.pdf").Run()
//	if err != nil {
//	    // handle error
//	}
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", accessify.FormatWarnings(warnings))
//	}
//
// With options:
//
//	out, _, err := accessify.Convert("report.pdf").
//	    GridSize(24).
//	    MergeThreshold(40).
//	    Run()
//
// The output is written next to the input with an "-Accessible-Copy"
// suffix; the input file is never touched. DOCX and PPTX inputs are
// recolored in place of the full page rebuild.
//
// For advanced use cases, the lower-level reader and layout packages are
// also available.
package accessify

// Convert prepares a conversion of the named file and returns a
// Conversion for fluent configuration. Nothing is opened until a terminal
// operation like Run runs.
//
// Example:
//
//	out, warnings, err := accessify.Convert("document.pdf").Run()
func Convert(filename string) *Conversion {
	return &Conversion{
		filename: filename,
		options:  defaultOptions(),
	}
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	r := accessify.Must(reader.Open("document.pdf"))
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// MustRun is a helper that wraps a call to Run and panics if the error is
// non-nil. It discards warnings and returns just the output path. It is
// intended for use in scripts or tests where error handling would be
// cumbersome.
//
// Example:
//
//	out := accessify.MustRun(accessify.Convert("document.pdf").Run())
func MustRun(out string, _ []Warning, err error) string {
	if err != nil {
		panic(err)
	}
	return out
}
