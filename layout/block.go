package layout

import (
	"math"
	"sort"

	"github.com/tsawler/accessify/model"
)

// leftAlignTolerance is the largest left-edge offset at which two blocks
// still count as left-aligned for merging.
const leftAlignTolerance = 5.0

// sameRowTolerance is the top-edge distance at which two blocks count as
// sitting on the same row for reading order.
const sameRowTolerance = 10.0

// AssembleBlocks groups spans into lines and lines into blocks using
// default tuning, returning the blocks in reading order (top to bottom,
// left to right).
func AssembleBlocks(spans []model.TextSpan) []model.TextBlock {
	return NewAssembler().AssembleBlocks(spans)
}

// AssembleBlocks groups spans into lines and lines into blocks. Consecutive
// lines stay in one block while the vertical gap between them is below
// BlockGapFactor times their average height.
func (a *Assembler) AssembleBlocks(spans []model.TextSpan) []model.TextBlock {
	return a.groupIntoBlocks(a.AssembleLines(spans))
}

// groupIntoBlocks splits the line sequence at large vertical gaps.
func (a *Assembler) groupIntoBlocks(lines []model.TextLine) []model.TextBlock {
	if len(lines) == 0 {
		return nil
	}

	var blocks []model.TextBlock
	current := []model.TextLine{lines[0]}

	for _, line := range lines[1:] {
		prev := current[len(current)-1]
		gap := line.BBox.Y0 - prev.BBox.Y1
		avgHeight := (prev.BBox.Height() + line.BBox.Height()) / 2

		if gap < avgHeight*a.config.BlockGapFactor {
			current = append(current, line)
		} else {
			blocks = append(blocks, buildBlock(current))
			current = []model.TextLine{line}
		}
	}

	// Don't forget the last block
	blocks = append(blocks, buildBlock(current))

	return sortBlocks(blocks)
}

// buildBlock computes a block's bounding box from its lines.
func buildBlock(lines []model.TextLine) model.TextBlock {
	bbox := lines[0].BBox
	for _, l := range lines[1:] {
		bbox = bbox.Union(l.BBox)
	}
	return model.TextBlock{
		BBox:  bbox,
		Lines: lines,
	}
}

// sortBlocks orders blocks top to bottom, left to right for blocks on the
// same row.
func sortBlocks(blocks []model.TextBlock) []model.TextBlock {
	sort.SliceStable(blocks, func(i, j int) bool {
		yDiff := blocks[i].BBox.Y0 - blocks[j].BBox.Y0
		if math.Abs(yDiff) > sameRowTolerance {
			return yDiff < 0
		}
		return blocks[i].BBox.X0 < blocks[j].BBox.X0
	})
	return blocks
}

// MergeBlocks folds vertically adjacent, left-aligned blocks into larger
// regions. Blocks are sorted by top edge (stable, so equal tops keep their
// input order), then folded with a single accumulator: the next block joins
// the accumulator when the vertical gap between them is at most
// verticalThreshold and their left edges differ by less than 5 units. A
// merge produces a fresh block whose bounding box is the union of the two
// and whose lines are the accumulator's followed by the next block's; input
// blocks are never mutated. Overlapping blocks have a negative gap and
// always satisfy the threshold.
func MergeBlocks(blocks []model.TextBlock, verticalThreshold float64) []model.TextBlock {
	if len(blocks) == 0 {
		return nil
	}

	sorted := make([]model.TextBlock, len(blocks))
	copy(sorted, blocks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].BBox.Y0 < sorted[j].BBox.Y0
	})

	merged := make([]model.TextBlock, 0, len(sorted))
	acc := sorted[0]

	for _, next := range sorted[1:] {
		gap := next.BBox.Y0 - acc.BBox.Y1
		aligned := math.Abs(next.BBox.X0-acc.BBox.X0) < leftAlignTolerance

		if gap <= verticalThreshold && aligned {
			acc = mergeTwo(acc, next)
		} else {
			merged = append(merged, acc)
			acc = next
		}
	}

	return append(merged, acc)
}

// mergeTwo combines two blocks into a fresh one.
func mergeTwo(a, b model.TextBlock) model.TextBlock {
	lines := make([]model.TextLine, 0, len(a.Lines)+len(b.Lines))
	lines = append(lines, a.Lines...)
	lines = append(lines, b.Lines...)
	return model.TextBlock{
		BBox:  a.BBox.Union(b.BBox),
		Lines: lines,
	}
}
