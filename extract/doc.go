// Package extract interprets page content streams into positioned text spans
// and image placements.
//
// An [Extractor] walks the operator sequence a content stream parser
// produces, tracking the graphics state as it goes. Text showing operators
// become [model.TextSpan] values with device-space bounding boxes; Do
// operators on image XObjects become [model.ImageRef] placements. Form
// XObjects are executed recursively so their content lands at the right
// place on the page.
//
// Coordinates in the results use the page model convention with the origin
// at the top-left corner, not PDF's bottom-left.
//
//	ex := extract.NewExtractor(geometry, resolver)
//	ex.LoadResources(pageResources)
//	if err := ex.ExtractFromBytes(content); err != nil {
//		return err
//	}
//	spans, images := ex.Spans(), ex.Images()
package extract
