// Package container is the narrow ZIP/XML adapter that lets the engine run against a real .docx
// file: open one, hand its document tree to docxtemplate.Process, save the result back out.
// It owns no evaluation logic — it only knows how to find word/document.xml inside the package
// and copy everything else through untouched.
package container

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/beevik/etree"
)

const documentPart = "word/document.xml"

// ErrDocumentPartMissing is returned by Open when the ZIP package has no word/document.xml part
// — it is not a WordprocessingML package at all.
var ErrDocumentPartMissing = errors.New("container: word/document.xml not found")

// partFile is one ZIP entry carried through unmodified, keyed by its archive name.
type partFile struct {
	name string
	body []byte
}

// Document is an opened .docx package: a parsed document tree plus every other ZIP part,
// preserved byte-for-byte so Save only ever rewrites the one part the engine mutated.
type Document struct {
	tree  *etree.Document
	body  *etree.Element
	parts []partFile
	order int // index of documentPart within parts, for Save

	Logger *slog.Logger
}

// Open unzips r, parses its word/document.xml with etree, and returns a Document whose Body()
// is the element the template engine walks.
func Open(r io.ReaderAt, size int64) (*Document, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("container: open zip: %w", err)
	}

	doc := &Document{order: -1, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for i, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("container: read part %q: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("container: read part %q: %w", f.Name, err)
		}
		doc.parts = append(doc.parts, partFile{name: f.Name, body: data})
		if f.Name == documentPart {
			doc.order = i
		}
	}
	if doc.order < 0 {
		return nil, ErrDocumentPartMissing
	}

	tree := etree.NewDocument()
	if err := tree.ReadFromBytes(doc.parts[doc.order].body); err != nil {
		return nil, fmt.Errorf("container: parse %s: %w", documentPart, err)
	}
	body := tree.FindElement("//w:body")
	if body == nil {
		return nil, fmt.Errorf("container: %s has no w:body element", documentPart)
	}

	doc.tree = tree
	doc.body = body
	return doc, nil
}

// Body returns the w:body element the engine walks and mutates in place.
func (d *Document) Body() *etree.Element { return d.body }

// Save re-serializes the (possibly mutated) document tree and writes a new ZIP to w, copying
// every other part through unchanged. It does not attempt to reproduce the original ZIP's
// compression method, entry order within headers, or other metadata bit-for-bit (§1 non-goal).
func (d *Document) Save(w io.Writer) error {
	var buf bytes.Buffer
	// The tree is written as parsed, with no indentation added, so the part stays as compact as
	// the original.
	if _, err := d.tree.WriteTo(&buf); err != nil {
		return fmt.Errorf("container: serialize %s: %w", documentPart, err)
	}

	zw := zip.NewWriter(w)
	for i, p := range d.parts {
		body := p.body
		if i == d.order {
			body = buf.Bytes()
		}
		fw, err := zw.Create(p.name)
		if err != nil {
			return fmt.Errorf("container: create part %q: %w", p.name, err)
		}
		if _, err := fw.Write(body); err != nil {
			return fmt.Errorf("container: write part %q: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("container: finalize zip: %w", err)
	}
	d.Logger.Debug("container: saved document", slog.Int("parts", len(d.parts)))
	return nil
}
