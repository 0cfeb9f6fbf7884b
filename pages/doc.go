// Package pages walks the PDF page tree and exposes each leaf page with
// its inherited attributes resolved.
//
// # Page Tree
//
// PDF documents organize pages in a tree of Pages nodes with Page leaves.
// The [PageTree] type flattens this hierarchy into document order:
//
//	tree := pages.NewPageTree(pagesDict, resolver)
//	all, _ := tree.Pages()
//	page, _ := tree.GetPage(0) // 0-indexed
//
// MediaBox, Resources, and Rotate are inheritable: a value set on a Pages
// node applies to every page below it unless a deeper node overrides it.
// The tree walk accumulates these down each branch, so [Page] getters see
// the whole ancestor chain, not just the immediate parent.
//
// # Page Access
//
// A [Page] exposes what the reconstruction pipeline needs:
//
//   - Geometry - page size as a top-left-origin rectangle
//   - Resources - fonts and XObjects for content extraction
//   - ContentData - the page's decoded content streams, concatenated
//   - Rotate - declared page rotation (informational)
//
// # Object Resolution
//
// The [ObjectResolver] interface abstracts indirect reference lookup so
// the tree walk does not depend on the full file reader:
//
//	type ObjectResolver interface {
//	    Resolve(obj core.Object) (core.Object, error)
//	}
package pages
