package layout

import (
	"math"
	"sort"

	"github.com/tsawler/accessify/model"
)

// Config holds tuning for grouping spans into lines and lines into blocks.
type Config struct {
	// BaselineTolerance is the maximum baseline distance for two spans to
	// share a line, as a fraction of their average font size (default: 0.5)
	BaselineTolerance float64

	// BlockGapFactor is the vertical gap at which two lines fall into
	// separate blocks, as a fraction of their average height (default: 1.5)
	BlockGapFactor float64
}

// DefaultConfig returns the tuning used by the package-level functions.
func DefaultConfig() Config {
	return Config{
		BaselineTolerance: 0.5,
		BlockGapFactor:    1.5,
	}
}

// Assembler groups text spans into lines and blocks.
type Assembler struct {
	config Config
}

// NewAssembler creates an assembler with default tuning.
func NewAssembler() *Assembler {
	return &Assembler{
		config: DefaultConfig(),
	}
}

// NewAssemblerWithConfig creates an assembler with custom tuning.
func NewAssemblerWithConfig(config Config) *Assembler {
	return &Assembler{
		config: config,
	}
}

// AssembleLines groups spans into lines by baseline proximity using default
// tuning. Lines come back top to bottom, spans within each line left to
// right.
func AssembleLines(spans []model.TextSpan) []model.TextLine {
	return NewAssembler().AssembleLines(spans)
}

// AssembleLines groups spans into lines by baseline proximity.
func (a *Assembler) AssembleLines(spans []model.TextSpan) []model.TextLine {
	if len(spans) == 0 {
		return nil
	}

	// Sort by baseline, top of page first. Spans within baseline tolerance
	// of each other keep their content order here; each line is ordered by
	// X when it is built.
	sorted := make([]model.TextSpan, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool {
		if math.Abs(sorted[i].Origin.Y-sorted[j].Origin.Y) > a.baselineTolerance(sorted[i], sorted[j]) {
			return sorted[i].Origin.Y < sorted[j].Origin.Y
		}
		return false
	})

	var lines []model.TextLine
	var current []model.TextSpan

	for _, span := range sorted {
		if len(current) == 0 {
			current = append(current, span)
			continue
		}

		// Check if the span shares a baseline with the previous one
		last := current[len(current)-1]
		if math.Abs(span.Origin.Y-last.Origin.Y) <= a.baselineTolerance(span, last) {
			current = append(current, span)
		} else {
			lines = append(lines, buildLine(current))
			current = []model.TextSpan{span}
		}
	}

	// Don't forget the last line
	if len(current) > 0 {
		lines = append(lines, buildLine(current))
	}

	return lines
}

// baselineTolerance is the largest baseline distance at which two spans
// still count as sharing a line.
func (a *Assembler) baselineTolerance(s1, s2 model.TextSpan) float64 {
	avgSize := (s1.FontSize + s2.FontSize) / 2
	return avgSize * a.config.BaselineTolerance
}

// buildLine orders a line's spans by X and computes the bounding box.
func buildLine(spans []model.TextSpan) model.TextLine {
	sort.SliceStable(spans, func(i, j int) bool {
		return spans[i].Origin.X < spans[j].Origin.X
	})

	bbox := spans[0].BBox
	for _, s := range spans[1:] {
		bbox = bbox.Union(s.BBox)
	}

	return model.TextLine{
		Spans: spans,
		BBox:  bbox,
	}
}
