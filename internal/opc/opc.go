// Package opc rewrites OPC packages, the ZIP containers behind DOCX and
// PPTX. A rewrite copies the archive entry by entry in original order;
// parts claimed by a selector pass through a transform, everything else
// is copied raw without recompression.
package opc

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Transform rewrites one part's content from r into w.
type Transform func(r io.Reader, w io.Writer) error

// Rewrite copies the package at src into w. For each part the selector
// returns either a transform to apply or nil to copy the part through
// byte-identical.
func Rewrite(src string, w io.Writer, selector func(name string) Transform) error {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("opening ZIP archive: %w", err)
	}
	defer zr.Close()

	zw := zip.NewWriter(w)
	for _, f := range zr.File {
		transform := selector(f.Name)
		if transform == nil {
			if err := copyRaw(zw, f); err != nil {
				return fmt.Errorf("part %s: %w", f.Name, err)
			}
			continue
		}
		if err := transformPart(zw, f, transform); err != nil {
			return fmt.Errorf("part %s: %w", f.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("closing ZIP archive: %w", err)
	}
	return nil
}

// RewriteFile is Rewrite with an atomic file destination: the output is
// staged in the destination directory and renamed into place on success,
// so a failed rewrite leaves nothing behind.
func RewriteFile(src, dst string, selector func(name string) Transform) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".opc-*.tmp")
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	name := tmp.Name()

	if err := Rewrite(src, tmp, selector); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("close output: %w", err)
	}
	if err := os.Rename(name, dst); err != nil {
		os.Remove(name)
		return fmt.Errorf("place output: %w", err)
	}
	return nil
}

// copyRaw copies one entry compressed bytes and all, keeping its header.
func copyRaw(zw *zip.Writer, f *zip.File) error {
	rc, err := f.OpenRaw()
	if err != nil {
		return err
	}
	hdr := f.FileHeader
	w, err := zw.CreateRaw(&hdr)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, rc)
	return err
}

// transformPart decompresses one entry, runs the transform, and writes
// the result as a fresh deflated entry.
func transformPart(zw *zip.Writer, f *zip.File, transform Transform) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	hdr := &zip.FileHeader{Name: f.Name, Method: zip.Deflate, Modified: f.Modified}
	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	return transform(rc, w)
}
