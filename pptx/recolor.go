// Package pptx rewrites PowerPoint decks into a high-contrast form: text in
// black Arial, shape fills and slide backgrounds solid white. Each slide part
// gets a streaming token rewrite; the rest of the package is copied through
// untouched.
package pptx

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/tsawler/accessify/internal/opc"
)

// Markup injected by the rewrite. Text properties own their fill and latin
// face, shape properties their fill, and an explicit background subtree
// replaces whatever the slide declared.
const (
	textFillXML   = `<a:solidFill><a:srgbClr val="000000"/></a:solidFill><a:latin typeface="Arial"/>`
	runPropsXML   = `<a:rPr>` + textFillXML + `</a:rPr>`
	shapeFillXML  = `<a:solidFill><a:srgbClr val="FFFFFF"/></a:solidFill>`
	backgroundXML = `<p:bg><p:bgPr>` + shapeFillXML + `<a:effectLst/></p:bgPr></p:bg>`
)

// Recolor rewrites the deck at in so every text run renders in black Arial,
// every shape fill and slide background turns solid white, and writes the
// result to out. Slide layouts and masters are left alone; the explicit
// values written onto each slide override whatever they inherit. Untouched
// parts are copied byte for byte in their original order.
func Recolor(in, out string) error {
	return opc.RewriteFile(in, out, func(name string) opc.Transform {
		if isSlidePart(name) {
			return recolorSlide
		}
		return nil
	})
}

// isSlidePart reports whether name is a slide document, ppt/slides/slideN.xml.
// Relationship parts under ppt/slides/_rels do not match.
func isSlidePart(name string) bool {
	return strings.HasPrefix(name, "ppt/slides/slide") && strings.HasSuffix(name, ".xml")
}

// isFill reports whether a DrawingML element is one of the fill choices. The
// group is replaced wholesale wherever the rewrite owns the fill.
func isFill(local string) bool {
	switch local {
	case "solidFill", "gradFill", "pattFill", "blipFill", "noFill", "grpFill":
		return true
	}
	return false
}

// followsFillSlot reports whether a shape property element sorts after the
// fill slot. Seeing one of these without a fill means the shape had none.
func followsFillSlot(local string) bool {
	switch local {
	case "ln", "effectLst", "effectDag", "scene3d", "sp3d", "extLst":
		return true
	}
	return false
}

// recolorSlide streams one slide part token by token. Text properties
// (a:rPr, a:defRPr) lose their fill and latin face and gain the black Arial
// markup; bare runs gain a full property block. Shape properties keep their
// geometry but have their fill replaced in place, or injected into the fill
// slot when absent. The slide background subtree is replaced outright, and
// slides with no explicit background gain one.
func recolorSlide(r io.Reader, w io.Writer) error {
	dec := xml.NewDecoder(r)
	tw := opc.NewTokenWriter(w)

	var stack []string
	pendingRun := false  // inside a:r, before its first child
	pendingBg := false   // inside p:cSld, before its first child
	shapeFilled := false // current p:spPr already carries its white fill

	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("parsing slide: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			parent := ""
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}
			if pendingBg {
				// The background slot opens p:cSld. Write the white one
				// here, and swallow the original if the slide had one.
				if err := tw.WriteRaw(backgroundXML); err != nil {
					return err
				}
				pendingBg = false
				if t.Name.Space == "p" && t.Name.Local == "bg" {
					if err := opc.SkipSubtree(dec); err != nil {
						return fmt.Errorf("parsing slide: %w", err)
					}
					continue
				}
			}
			if t.Name.Space == "a" && (parent == "rPr" || parent == "defRPr") {
				if isFill(t.Name.Local) || t.Name.Local == "latin" {
					if err := opc.SkipSubtree(dec); err != nil {
						return fmt.Errorf("parsing slide: %w", err)
					}
					continue
				}
			}
			if t.Name.Space == "a" && parent == "spPr" {
				if isFill(t.Name.Local) {
					if !shapeFilled {
						if err := tw.WriteRaw(shapeFillXML); err != nil {
							return err
						}
						shapeFilled = true
					}
					if err := opc.SkipSubtree(dec); err != nil {
						return fmt.Errorf("parsing slide: %w", err)
					}
					continue
				}
				if followsFillSlot(t.Name.Local) && !shapeFilled {
					if err := tw.WriteRaw(shapeFillXML); err != nil {
						return err
					}
					shapeFilled = true
				}
			}
			if pendingRun {
				if t.Name.Space != "a" || t.Name.Local != "rPr" {
					if err := tw.WriteRaw(runPropsXML); err != nil {
						return err
					}
				}
				pendingRun = false
			}
			if err := tw.WriteToken(tok); err != nil {
				return err
			}
			stack = append(stack, t.Name.Local)
			switch {
			case t.Name.Space == "a" && (t.Name.Local == "rPr" || t.Name.Local == "defRPr"):
				if err := tw.WriteRaw(textFillXML); err != nil {
					return err
				}
			case t.Name.Space == "a" && t.Name.Local == "r":
				pendingRun = true
			case t.Name.Space == "p" && t.Name.Local == "spPr":
				shapeFilled = false
			case t.Name.Space == "p" && t.Name.Local == "cSld":
				pendingBg = true
			}
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			if pendingRun && t.Name.Space == "a" && t.Name.Local == "r" {
				pendingRun = false
			}
			if pendingBg && t.Name.Space == "p" && t.Name.Local == "cSld" {
				pendingBg = false
			}
			if t.Name.Space == "p" && t.Name.Local == "spPr" && !shapeFilled {
				// Shape closed without any fill child. Fill the slot now.
				if err := tw.WriteRaw(shapeFillXML); err != nil {
					return err
				}
				shapeFilled = true
			}
			if err := tw.WriteToken(tok); err != nil {
				return err
			}
		default:
			if err := tw.WriteToken(tok); err != nil {
				return err
			}
		}
	}
	return tw.Flush()
}
