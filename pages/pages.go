package pages

import (
	"bytes"
	"fmt"

	"github.com/tsawler/accessify/core"
	"github.com/tsawler/accessify/model"
)

// maxTreeDepth bounds page tree recursion. A conforming tree is shallow;
// a Kids cycle in a damaged file must not hang the walk.
const maxTreeDepth = 64

// inheritableKeys are the page attributes a Pages node passes down to its
// subtree.
var inheritableKeys = []string{"MediaBox", "Resources", "Rotate"}

// ObjectResolver dereferences indirect objects out of the source file.
type ObjectResolver interface {
	Resolve(obj core.Object) (core.Object, error)
}

// Catalog wraps the document catalog dictionary at the root of the file.
type Catalog struct {
	dict     core.Dict
	resolver ObjectResolver
}

// NewCatalog creates a catalog view over the root dictionary.
func NewCatalog(dict core.Dict, resolver ObjectResolver) *Catalog {
	return &Catalog{dict: dict, resolver: resolver}
}

// Pages returns the resolved page tree root dictionary.
func (c *Catalog) Pages() (core.Dict, error) {
	pagesRef := c.dict.Get("Pages")
	if pagesRef == nil {
		return nil, fmt.Errorf("catalog missing /Pages entry")
	}

	pagesObj, err := c.resolver.Resolve(pagesRef)
	if err != nil {
		return nil, fmt.Errorf("resolve /Pages: %w", err)
	}

	pagesDict, ok := pagesObj.(core.Dict)
	if !ok {
		return nil, fmt.Errorf("invalid /Pages type: %T", pagesObj)
	}
	return pagesDict, nil
}

// PageTree flattens the page tree into its leaf pages in document order.
type PageTree struct {
	root     core.Dict
	resolver ObjectResolver
	pages    []*Page
}

// NewPageTree creates a page tree over the root Pages dictionary.
func NewPageTree(root core.Dict, resolver ObjectResolver) *PageTree {
	return &PageTree{root: root, resolver: resolver}
}

// Count returns the number of leaf pages found by walking the tree. The
// tree's /Count entry is not trusted; damaged files misstate it.
func (t *PageTree) Count() (int, error) {
	if err := t.load(); err != nil {
		return 0, err
	}
	return len(t.pages), nil
}

// GetPage returns the page at the given 0-based index.
func (t *PageTree) GetPage(index int) (*Page, error) {
	if err := t.load(); err != nil {
		return nil, err
	}
	if index < 0 || index >= len(t.pages) {
		return nil, fmt.Errorf("page index %d out of range [0, %d)", index, len(t.pages))
	}
	return t.pages[index], nil
}

// Pages returns all leaf pages in document order.
func (t *PageTree) Pages() ([]*Page, error) {
	if err := t.load(); err != nil {
		return nil, err
	}
	return t.pages, nil
}

func (t *PageTree) load() error {
	if t.pages != nil {
		return nil
	}
	t.pages = make([]*Page, 0)
	if err := t.walk(t.root, nil, 0); err != nil {
		t.pages = nil
		return fmt.Errorf("walk page tree: %w", err)
	}
	return nil
}

// walk recurses through one node carrying the attributes inherited from
// every ancestor. Nodes without a /Type entry are classified by the
// presence of /Kids.
func (t *PageTree) walk(node core.Dict, inherited core.Dict, depth int) error {
	if depth > maxTreeDepth {
		return fmt.Errorf("page tree deeper than %d nodes", maxTreeDepth)
	}

	typeName, _ := node.GetName("Type")
	isPages := typeName == "Pages" || (typeName == "" && node.Get("Kids") != nil)

	if !isPages {
		if typeName != "" && typeName != "Page" {
			return fmt.Errorf("unexpected page tree node type %s", typeName)
		}
		t.pages = append(t.pages, NewPage(node, inherited, t.resolver))
		return nil
	}

	kidsObj := node.Get("Kids")
	if kidsObj == nil {
		return fmt.Errorf("Pages node missing /Kids entry")
	}
	kidsResolved, err := t.resolver.Resolve(kidsObj)
	if err != nil {
		return fmt.Errorf("resolve /Kids: %w", err)
	}
	kids, ok := kidsResolved.(core.Array)
	if !ok {
		return fmt.Errorf("invalid /Kids type: %T", kidsResolved)
	}

	childInherited := accumulateInherited(node, inherited)
	for i, kidObj := range kids {
		kidResolved, err := t.resolver.Resolve(kidObj)
		if err != nil {
			return fmt.Errorf("resolve kid %d: %w", i, err)
		}
		kidDict, ok := kidResolved.(core.Dict)
		if !ok {
			return fmt.Errorf("invalid kid type: %T", kidResolved)
		}
		if err := t.walk(kidDict, childInherited, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// accumulateInherited layers a node's inheritable entries over what its
// ancestors already provide.
func accumulateInherited(node core.Dict, inherited core.Dict) core.Dict {
	out := make(core.Dict, len(inherited)+len(inheritableKeys))
	for k, v := range inherited {
		out[k] = v
	}
	for _, key := range inheritableKeys {
		if v := node.Get(key); v != nil {
			out[key] = v
		}
	}
	return out
}

// Page is one leaf of the page tree together with the attribute values
// inherited from its ancestor chain.
type Page struct {
	dict      core.Dict
	inherited core.Dict
	resolver  ObjectResolver
}

// NewPage creates a page view. The inherited dictionary holds attribute
// values accumulated from the page's ancestors; the page's own entries
// take precedence over it.
func NewPage(dict core.Dict, inherited core.Dict, resolver ObjectResolver) *Page {
	return &Page{dict: dict, inherited: inherited, resolver: resolver}
}

// attr returns the page's own value for a key, falling back to the
// inherited chain.
func (p *Page) attr(key string) core.Object {
	if v := p.dict.Get(key); v != nil {
		return v
	}
	if p.inherited != nil {
		return p.inherited.Get(key)
	}
	return nil
}

// MediaBox returns the page boundary as [llx lly urx ury] in PDF
// coordinates, corners normalized so ll is below-left of ur.
func (p *Page) MediaBox() ([4]float64, error) {
	boxObj := p.attr("MediaBox")
	if boxObj == nil {
		return [4]float64{}, fmt.Errorf("MediaBox not found")
	}

	resolved, err := p.resolver.Resolve(boxObj)
	if err != nil {
		return [4]float64{}, fmt.Errorf("resolve MediaBox: %w", err)
	}
	arr, ok := resolved.(core.Array)
	if !ok {
		return [4]float64{}, fmt.Errorf("invalid MediaBox type: %T", resolved)
	}
	if len(arr) != 4 {
		return [4]float64{}, fmt.Errorf("invalid MediaBox length %d", len(arr))
	}

	var box [4]float64
	for i, elem := range arr {
		v, err := p.resolver.Resolve(elem)
		if err != nil {
			return [4]float64{}, fmt.Errorf("resolve MediaBox element %d: %w", i, err)
		}
		switch n := v.(type) {
		case core.Int:
			box[i] = float64(n)
		case core.Real:
			box[i] = float64(n)
		default:
			return [4]float64{}, fmt.Errorf("invalid MediaBox element type: %T", v)
		}
	}

	if box[0] > box[2] {
		box[0], box[2] = box[2], box[0]
	}
	if box[1] > box[3] {
		box[1], box[3] = box[3], box[1]
	}
	return box, nil
}

// Geometry returns the page size as a top-left-origin rectangle for the
// layout pipeline. A declared /Rotate does not change the frame; content
// coordinates stay in the MediaBox space.
func (p *Page) Geometry() (model.PageGeometry, error) {
	box, err := p.MediaBox()
	if err != nil {
		return model.PageGeometry{}, err
	}
	return model.NewPageGeometry(box[2]-box[0], box[3]-box[1]), nil
}

// Resources returns the resolved resource dictionary, or nil when the
// page declares none anywhere in its chain.
func (p *Page) Resources() (core.Dict, error) {
	resObj := p.attr("Resources")
	if resObj == nil {
		return nil, nil
	}

	resolved, err := p.resolver.Resolve(resObj)
	if err != nil {
		return nil, fmt.Errorf("resolve Resources: %w", err)
	}
	resDict, ok := resolved.(core.Dict)
	if !ok {
		return nil, fmt.Errorf("invalid Resources type: %T", resolved)
	}
	return resDict, nil
}

// Contents returns the page's content streams in order. A page without
// a /Contents entry has none; array elements that are not streams are
// skipped.
func (p *Page) Contents() ([]*core.Stream, error) {
	contentsObj := p.dict.Get("Contents")
	if contentsObj == nil {
		return nil, nil
	}

	resolved, err := p.resolver.Resolve(contentsObj)
	if err != nil {
		return nil, fmt.Errorf("resolve Contents: %w", err)
	}

	switch v := resolved.(type) {
	case *core.Stream:
		return []*core.Stream{v}, nil
	case core.Array:
		streams := make([]*core.Stream, 0, len(v))
		for i, elem := range v {
			elemResolved, err := p.resolver.Resolve(elem)
			if err != nil {
				return nil, fmt.Errorf("resolve contents[%d]: %w", i, err)
			}
			if s, ok := elemResolved.(*core.Stream); ok {
				streams = append(streams, s)
			}
		}
		return streams, nil
	default:
		return nil, fmt.Errorf("invalid Contents type: %T", resolved)
	}
}

// ContentData decodes and concatenates the page's content streams. A
// newline separates consecutive streams so a token split across stream
// boundaries cannot fuse.
func (p *Page) ContentData() ([]byte, error) {
	streams, err := p.Contents()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	for i, s := range streams {
		data, err := s.Decode()
		if err != nil {
			return nil, fmt.Errorf("decode content stream %d: %w", i, err)
		}
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.Write(data)
	}
	return buf.Bytes(), nil
}

// Rotate returns the declared page rotation normalized to 0, 90, 180, or
// 270. Values that are not multiples of 90 read as 0.
func (p *Page) Rotate() int {
	rotObj := p.attr("Rotate")
	if rotObj == nil {
		return 0
	}
	resolved, err := p.resolver.Resolve(rotObj)
	if err != nil {
		return 0
	}
	rot, ok := resolved.(core.Int)
	if !ok {
		return 0
	}

	r := int(rot) % 360
	if r < 0 {
		r += 360
	}
	if r%90 != 0 {
		return 0
	}
	return r
}
