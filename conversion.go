package accessify

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tsawler/accessify/docx"
	"github.com/tsawler/accessify/format"
	"github.com/tsawler/accessify/pptx"
)

// outputSuffix marks converted files. It is appended to the base name,
// before the extension.
const outputSuffix = "-Accessible-Copy"

// Conversion provides a fluent interface for converting one document.
// Each configuration method returns a new Conversion instance, making it
// safe for concurrent use and allowing method chaining.
type Conversion struct {
	filename string
	options  convertOptions

	// Accumulated error (fail-fast)
	err error
}

// clone creates a copy of the Conversion with its own options. Each chain
// method returns a new instance so a configured Conversion can be reused.
func (c *Conversion) clone() *Conversion {
	return &Conversion{
		filename: c.filename,
		options:  c.options.clone(),
		err:      c.err,
	}
}

// GridSize sets the layout grid, in page points, that image frames snap
// to. Accepted range is 5 to 50; out-of-range values fail the conversion.
//
// Example:
//
//	out, _, err := accessify.Convert("doc.pdf").GridSize(24).Run()
func (c *Conversion) GridSize(points int) *Conversion {
	next := c.clone()
	if err := validateTuning("grid size", points); err != nil {
		if next.err == nil {
			next.err = err
		}
		return next
	}
	next.options.gridSize = points
	return next
}

// MergeThreshold sets the largest vertical gap, in page points, across
// which vertically adjacent, left-aligned text blocks merge into one.
// Accepted range is 5 to 50; out-of-range values fail the conversion.
func (c *Conversion) MergeThreshold(points int) *Conversion {
	next := c.clone()
	if err := validateTuning("merge threshold", points); err != nil {
		if next.err == nil {
			next.err = err
		}
		return next
	}
	next.options.mergeThreshold = points
	return next
}

// MatchImagesByOverlap assigns image content to page placements by best
// area overlap instead of the default sequential queue. The queue keeps
// the source tool's behavior but is order-based; with several images on a
// page, overlap matching is the deterministic choice.
func (c *Conversion) MatchImagesByOverlap() *Conversion {
	next := c.clone()
	next.options.matchByOverlap = true
	return next
}

// Logger attaches a logger for progress and skip diagnostics. Without one
// the conversion is silent; warnings are still returned from Run.
func (c *Conversion) Logger(logger logrus.FieldLogger) *Conversion {
	next := c.clone()
	next.options.logger = logger
	return next
}

// Run performs the conversion and returns the output path together with
// any warnings accumulated along the way. The input format is taken from
// the file extension and verified against the file content; a mismatch is
// an error. The output is written atomically: a failed conversion leaves
// no output file behind.
func (c *Conversion) Run() (string, []Warning, error) {
	if c.err != nil {
		return "", nil, c.err
	}
	if c.filename == "" {
		return "", nil, fmt.Errorf("no filename specified")
	}

	f := format.Detect(c.filename)
	if f == format.Unknown {
		return "", nil, fmt.Errorf("unsupported file type: %q", filepath.Ext(c.filename))
	}
	if err := verifyContent(c.filename, f); err != nil {
		return "", nil, err
	}

	out := OutputPath(c.filename)
	log := c.options.fieldLogger()
	log.WithFields(logrus.Fields{"input": c.filename, "format": f.String()}).Info("converting")

	switch f {
	case format.PDF:
		warnings, err := c.convertPDF(out)
		if err != nil {
			return "", warnings, err
		}
		return out, warnings, nil

	case format.DOCX:
		if err := docx.Recolor(c.filename, out); err != nil {
			return "", nil, err
		}
		return out, nil, nil

	case format.PPTX:
		if err := pptx.Recolor(c.filename, out); err != nil {
			return "", nil, err
		}
		return out, nil, nil

	default:
		return "", nil, fmt.Errorf("unsupported file type: %q", filepath.Ext(c.filename))
	}
}

// OutputPath returns the path a conversion of input writes to: the same
// directory and extension with the base name suffixed "-Accessible-Copy".
func OutputPath(input string) string {
	dir := filepath.Dir(input)
	ext := filepath.Ext(input)
	base := strings.TrimSuffix(filepath.Base(input), ext)
	return filepath.Join(dir, base+outputSuffix+ext)
}

// verifyContent checks that the file's content matches the format its
// extension promises. Routing trusts the extension; this guards against
// renamed files reaching the wrong converter.
func verifyContent(path string, want format.Format) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat input: %w", err)
	}

	got, err := format.DetectFromReader(f, info.Size())
	if err != nil {
		return fmt.Errorf("inspect input: %w", err)
	}
	if got != want {
		found := "unrecognized content"
		if got != format.Unknown {
			found = got.String() + " content"
		}
		return fmt.Errorf("%s: extension says %s but the file holds %s", filepath.Base(path), want, found)
	}
	return nil
}
