// Package docx rewrites Word documents into a high-contrast form: every run
// set in black Arial, highlights and shading stripped. The package body is a
// streaming token rewrite of word/document.xml; all other package parts are
// copied through untouched.
package docx

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/tsawler/accessify/internal/opc"
)

// documentPart is the only part the rewrite touches. Headers, footers and
// notes keep their original formatting.
const documentPart = "word/document.xml"

// Markup injected into every run's properties. The rewrite owns the face and
// color of each run, so the original values are dropped before these go in.
const (
	runFaceXML  = `<w:rFonts w:ascii="Arial" w:hAnsi="Arial" w:cs="Arial"/><w:color w:val="000000"/>`
	runPropsXML = `<w:rPr>` + runFaceXML + `</w:rPr>`
)

// Recolor rewrites the document at in so every run renders as black Arial
// text with no highlight or shading behind it, and writes the result to out.
// Body paragraphs and table cells get the same treatment. The output package
// keeps the original part order, with untouched parts copied byte for byte.
func Recolor(in, out string) error {
	return opc.RewriteFile(in, out, func(name string) opc.Transform {
		if name == documentPart {
			return recolorDocument
		}
		return nil
	})
}

// droppedRunProp reports whether a run property is replaced by the injected
// markup and must not survive the rewrite.
func droppedRunProp(local string) bool {
	switch local {
	case "rFonts", "color", "highlight", "shd":
		return true
	}
	return false
}

// recolorDocument streams word/document.xml token by token. Inside run
// properties it drops the face, color, highlight and shading elements and
// injects the replacement markup right after the opening tag; runs that carry
// no properties at all gain a full property block before their first child.
// Paragraph shading is dropped the same way. Everything else passes through
// with prefixes and attribute order intact.
func recolorDocument(r io.Reader, w io.Writer) error {
	dec := xml.NewDecoder(r)
	tw := opc.NewTokenWriter(w)

	// stack holds the local names of open elements so each start token can
	// see its parent. Dropped subtrees never reach the stack.
	var stack []string
	pendingRun := false

	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("parsing %s: %w", documentPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			parent := ""
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}
			if t.Name.Space == "w" {
				dropped := (parent == "rPr" && droppedRunProp(t.Name.Local)) ||
					(parent == "pPr" && t.Name.Local == "shd")
				if dropped {
					if err := opc.SkipSubtree(dec); err != nil {
						return fmt.Errorf("parsing %s: %w", documentPart, err)
					}
					continue
				}
			}
			if pendingRun {
				// First child of a run. A property block sorts first inside
				// a run, so if this is not one, the run had none: inject.
				if t.Name.Space != "w" || t.Name.Local != "rPr" {
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
			if t.Name.Space == "w" {
				switch t.Name.Local {
				case "rPr":
					if err := tw.WriteRaw(runFaceXML); err != nil {
						return err
					}
				case "r":
					pendingRun = true
				}
			}
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			// A run that closes before any child showed up holds no text;
			// leave it empty rather than injecting properties into nothing.
			if pendingRun && t.Name.Space == "w" && t.Name.Local == "r" {
				pendingRun = false
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
