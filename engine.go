package accessify

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/tsawler/accessify/extract"
	"github.com/tsawler/accessify/layout"
	"github.com/tsawler/accessify/model"
	"github.com/tsawler/accessify/pages"
	"github.com/tsawler/accessify/reader"
	"github.com/tsawler/accessify/render"
)

// outputFace is the single typeface every rebuilt page uses.
const outputFace = "Helvetica"

const (
	// textMargin separates rebuilt text from its block outline. The
	// outline moves inward by this much; panels and text move down-right
	// by the same amount.
	textMargin = 3.0

	// Blocks thinner than these are content-stream artifacts, not prose.
	minBlockHeight = 5.0
	minBlockWidth  = 10.0
)

// engine rebuilds the pages of one PDF document.
type engine struct {
	src      *reader.Reader
	opts     convertOptions
	log      logrus.FieldLogger
	layout   *layout.Assembler
	warnings []Warning
}

// placedImage pairs a retained image placement with the content assigned
// to it. A nil payload renders as a border-only frame.
type placedImage struct {
	ref     model.ImageRef
	payload *reader.ImagePayload
}

// convertPDF rebuilds every page of the input onto a fresh output
// document and writes it to outPath.
func (c *Conversion) convertPDF(outPath string) ([]Warning, error) {
	src, err := reader.Open(c.filename)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer src.Close()

	eng := &engine{
		src:    src,
		opts:   c.options,
		log:    c.options.fieldLogger(),
		layout: layout.NewAssembler(),
	}

	canvas := render.NewCanvas()
	canvas.SetTitle(baseName(outPath))

	count, err := src.PageCount()
	if err != nil {
		return nil, fmt.Errorf("read page tree: %w", err)
	}

	for i := 0; i < count; i++ {
		page, err := src.GetPage(i)
		if err != nil {
			return eng.warnings, fmt.Errorf("page %d: %w", i+1, err)
		}

		content, placed, err := eng.reconstructPage(i, page)
		if err != nil {
			return eng.warnings, fmt.Errorf("page %d: %w", i+1, err)
		}

		ops := rewritePage(content, placed, float64(eng.opts.gridSize))
		if err := canvas.AddPage(content.Geometry, ops); err != nil {
			return eng.warnings, fmt.Errorf("page %d: %w", i+1, err)
		}

		eng.log.WithFields(logrus.Fields{
			"page":   i + 1,
			"blocks": len(content.Blocks),
			"images": len(content.Images),
		}).Debug("page rebuilt")
	}

	if err := writeAtomic(outPath, canvas.Output); err != nil {
		return eng.warnings, err
	}
	return eng.warnings, nil
}

// reconstructPage extracts one page's content and reduces it to the
// regions the rewriter draws: merged text blocks and retained image
// placements with their payloads.
func (eng *engine) reconstructPage(index int, page *pages.Page) (model.PageContent, []placedImage, error) {
	geom, err := page.Geometry()
	if err != nil {
		return model.PageContent{}, nil, fmt.Errorf("page geometry: %w", err)
	}

	ex := extract.NewExtractor(geom, eng.src.ResolveReference)
	res, err := page.Resources()
	if err != nil {
		// Extraction still works without resources; text falls back to
		// default metrics and image names stay unresolved.
		eng.warnf(index+1, "page resources: %v", err)
	}
	ex.LoadResources(res)

	data, err := page.ContentData()
	if err != nil {
		return model.PageContent{}, nil, fmt.Errorf("page content: %w", err)
	}
	if err := ex.ExtractFromBytes(data); err != nil {
		return model.PageContent{}, nil, err
	}
	for _, msg := range ex.Warnings() {
		eng.warnf(index+1, "%s", msg)
	}

	blocks := eng.layout.AssembleBlocks(ex.Spans())
	merged := layout.MergeBlocks(blocks, float64(eng.opts.mergeThreshold))

	images := ex.Images()
	for _, img := range images {
		if !img.Resolved() {
			eng.warnf(index+1, "image placement at %.0f,%.0f: name does not resolve to an image; skipped", img.BBox.X0, img.BBox.Y0)
		}
	}
	kept := layout.FilterImages(images, geom.Bounds)
	placed := eng.assignPayloads(index+1, kept)

	content := model.PageContent{
		Index:    index,
		Geometry: geom,
		Blocks:   merged,
		Images:   kept,
	}
	return content, placed, nil
}

// assignPayloads loads image content for the retained placements. The
// default pairing is a sequential queue: payloads are loaded in placement
// order and each placement consumes the next one that loaded, so a failed
// load shifts later payloads forward and the last placements go without.
// With matchByOverlap set, each placement instead gets the payload of the
// XObject it overlaps best, which is the one it referenced.
func (eng *engine) assignPayloads(pageNum int, placements []model.ImageRef) []placedImage {
	placed := make([]placedImage, len(placements))
	for i, ref := range placements {
		placed[i] = placedImage{ref: ref}
	}

	if eng.opts.matchByOverlap {
		for i, ref := range placements {
			payload, err := eng.loadPayload(ref.Object)
			if err != nil {
				eng.warnf(pageNum, "image %d: %v; frame left empty", ref.Object, err)
				continue
			}
			placed[i].payload = payload
		}
		return placed
	}

	queue := make([]*reader.ImagePayload, 0, len(placements))
	for _, ref := range placements {
		payload, err := eng.loadPayload(ref.Object)
		if err != nil {
			eng.warnf(pageNum, "image %d: %v; dropped", ref.Object, err)
			continue
		}
		queue = append(queue, payload)
	}
	for i := range placed {
		if i >= len(queue) {
			break
		}
		placed[i].payload = queue[i]
	}
	return placed
}

// loadPayload loads one image XObject and verifies the bytes decode. The
// output canvas treats a bad image as a document-level error, so payloads
// are checked before they get near it.
func (eng *engine) loadPayload(object int) (*reader.ImagePayload, error) {
	payload, err := eng.src.LoadImage(object)
	if err != nil {
		return nil, err
	}
	if payload.Format == "JPG" {
		if _, err := jpeg.DecodeConfig(bytes.NewReader(payload.Data)); err != nil {
			return nil, fmt.Errorf("unreadable JPEG data: %w", err)
		}
	}
	return payload, nil
}

// rewritePage builds the ordered draw list for one page: erase the page
// to white, then the image layer, then the text layer. Later ops occlude
// earlier ones, so the order is the layering.
func rewritePage(page model.PageContent, images []placedImage, grid float64) []render.Op {
	ops := []render.Op{
		render.FillRect{Rect: page.Geometry.Bounds, Color: render.White},
	}

	for _, pi := range images {
		frame := model.SnapRect(pi.ref.BBox, page.Geometry.Bounds, grid)
		ops = append(ops, render.StrokeRect{Rect: frame, Color: render.NearWhite, Width: 1})
		if pi.payload == nil || frame.IsEmpty() {
			continue
		}
		fitted := render.FitRect(float64(pi.payload.Width), float64(pi.payload.Height), frame)
		ops = append(ops, render.DrawImage{
			Rect:   fitted,
			Name:   fmt.Sprintf("img-%d", pi.payload.Object),
			Format: pi.payload.Format,
			Data:   pi.payload.Data,
		})
	}

	for _, block := range page.Blocks {
		if block.BBox.Height() < minBlockHeight || block.BBox.Width() < minBlockWidth {
			continue
		}
		ops = append(ops, render.StrokeRect{
			Rect:  block.BBox.Inset(textMargin),
			Color: render.LightGrey,
			Width: 0.5,
		})
		for _, line := range block.Lines {
			for _, span := range line.Spans {
				if span.IsBlank() {
					continue
				}
				ops = append(ops,
					render.FillRect{
						Rect:  span.BBox.Translate(textMargin, textMargin),
						Color: render.White,
					},
					render.DrawText{
						Origin: span.Origin.Translate(textMargin, textMargin),
						Text:   span.Text,
						Font:   outputFace,
						Size:   span.FontSize,
						Color:  render.Black,
					},
				)
			}
		}
	}

	return ops
}

func (eng *engine) warnf(page int, msg string, args ...interface{}) {
	w := Warning{Page: page, Message: fmt.Sprintf(msg, args...)}
	eng.warnings = append(eng.warnings, w)
	eng.log.WithField("page", page).Warn(w.Message)
}

// writeAtomic writes through a temp file in the destination directory and
// renames it into place, so a failed write leaves nothing behind.
func writeAtomic(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".accessify-*.tmp")
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	name := tmp.Name()

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("write output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("close output: %w", err)
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return fmt.Errorf("place output: %w", err)
	}
	return nil
}

// baseName returns the file name without directory or extension.
func baseName(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}
