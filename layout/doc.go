// Package layout reconstructs the visual structure of a page from the raw
// text spans and image placements the extractor produces.
//
// Spans are assembled into baseline-ordered lines and vertically grouped
// blocks, adjacent blocks are merged into paragraph-sized regions, and image
// placements are filtered down to the ones worth reproducing.
//
// # Block Assembly
//
// [AssembleBlocks] turns a page's spans into blocks in reading order:
//
//	blocks := layout.AssembleBlocks(spans)
//
// Assembly tuning lives in [Config]:
//
//	a := layout.NewAssemblerWithConfig(layout.Config{
//		BaselineTolerance: 0.5,
//		BlockGapFactor:    1.5,
//	})
//	blocks := a.AssembleBlocks(spans)
//
// # Merging
//
// [MergeBlocks] folds vertically adjacent, left-aligned blocks together so a
// paragraph split across assembly boundaries renders as one region:
//
//	merged := layout.MergeBlocks(blocks, 30)
//
// # Image Filtering
//
// [FilterImages] drops unresolved placements, tiny decorative marks, and
// full-bleed background bands:
//
//	images := layout.FilterImages(content.Images, content.Geometry.Bounds)
package layout
