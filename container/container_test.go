package container

import (
	"archive/zip"
	"bytes"
	"testing"
)

func buildZip(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range parts {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return buf.Bytes()
}

const minimalDocumentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body><w:p><w:r><w:t>Hello {{name}}</w:t></w:r></w:p></w:body>
</w:document>`

func TestOpenParsesDocumentAndExposesBody(t *testing.T) {
	raw := buildZip(t, map[string]string{
		"[Content_Types].xml": "<Types/>",
		"word/document.xml":   minimalDocumentXML,
	})

	doc, err := Open(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if doc.Body() == nil {
		t.Fatal("Body() returned nil")
	}
	if got := doc.Body().FindElement("w:p/w:r/w:t").Text(); got != "Hello {{name}}" {
		t.Errorf("got %q", got)
	}
}

func TestOpenMissingDocumentPart(t *testing.T) {
	raw := buildZip(t, map[string]string{"word/other.xml": "<x/>"})

	_, err := Open(bytes.NewReader(raw), int64(len(raw)))
	if err != ErrDocumentPartMissing {
		t.Errorf("got %v, want ErrDocumentPartMissing", err)
	}
}

func TestSaveRoundTripsOtherPartsUnchanged(t *testing.T) {
	raw := buildZip(t, map[string]string{
		"[Content_Types].xml": "<Types/>",
		"word/document.xml":   minimalDocumentXML,
	})

	doc, err := Open(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	doc.Body().FindElement("w:p/w:r/w:t").SetText("Hello Ada")

	var out bytes.Buffer
	if err := doc.Save(&out); err != nil {
		t.Fatalf("Save: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(out.Bytes()), int64(out.Len()))
	if err != nil {
		t.Fatalf("read saved zip: %v", err)
	}
	var sawTypes, sawDocument bool
	for _, f := range zr.File {
		rc, _ := f.Open()
		var b bytes.Buffer
		b.ReadFrom(rc)
		rc.Close()
		switch f.Name {
		case "[Content_Types].xml":
			sawTypes = true
			if b.String() != "<Types/>" {
				t.Errorf("[Content_Types].xml was modified: %q", b.String())
			}
		case "word/document.xml":
			sawDocument = true
			if !bytes.Contains(b.Bytes(), []byte("Hello Ada")) {
				t.Errorf("document.xml missing edited text: %q", b.String())
			}
		}
	}
	if !sawTypes || !sawDocument {
		t.Errorf("saved zip missing parts: types=%v document=%v", sawTypes, sawDocument)
	}
}
