package docxtemplate

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/arborly/docxtemplate/container"
)

// buildDocx assembles a minimal in-memory .docx package (a single word/document.xml part wrapping
// body) so process_test can exercise Process through the real container.Document entry point
// instead of a bare *etree.Element tree.
func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	xml := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>` + body + `</w:body>
</w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := w.Write([]byte(xml)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestProcessSubstitutesAndReportsResult(t *testing.T) {
	body := `<w:p><w:r><w:t>Hello {{name}}, you are {{(age >= 18)}} an adult.</w:t></w:r></w:p>`
	raw := buildDocx(t, body)

	doc, err := container.Open(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	data := Map(map[string]Value{"name": String("Ada"), "age": Int(30)})
	result, err := Process(doc, data, DefaultOptions())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !result.IsSuccess {
		t.Fatalf("result.IsSuccess = false, ErrorMessage=%s", result.ErrorMessage)
	}
	if got := ParagraphText(doc.Body().FindElement("w:p")); got != "Hello Ada, you are True an adult." {
		t.Errorf("got %q", got)
	}

	var out bytes.Buffer
	if err := doc.Save(&out); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if out.Len() == 0 {
		t.Error("Save produced no bytes")
	}
}

func TestProcessConditionalAndLoopEndToEnd(t *testing.T) {
	body := `<w:p><w:r><w:t>{{#if vip}}VIP{{else}}Regular{{/if}}</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>{{#foreach items as it}}</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>{{it.name}}</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>{{/foreach}}</w:t></w:r></w:p>`
	raw := buildDocx(t, body)

	doc, err := container.Open(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	data := Map(map[string]Value{
		"vip": Bool(true),
		"items": List([]Value{
			Map(map[string]Value{"name": String("Alpha")}),
			Map(map[string]Value{"name": String("Beta")}),
		}),
	})
	result, err := Process(doc, data, DefaultOptions())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !result.IsSuccess {
		t.Fatalf("result.IsSuccess = false, ErrorMessage=%s", result.ErrorMessage)
	}

	var texts []string
	for _, p := range doc.Body().SelectElements("w:p") {
		texts = append(texts, ParagraphText(p))
	}
	want := []string{"VIP", "Alpha", "Beta"}
	if len(texts) != len(want) {
		t.Fatalf("got %#v, want %#v", texts, want)
	}
	for i := range want {
		if texts[i] != want[i] {
			t.Errorf("paragraph %d = %q, want %q", i, texts[i], want[i])
		}
	}
}

func TestProcessMissingWordDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("word/other.xml")
	w.Write([]byte("<x/>"))
	zw.Close()

	_, err := container.Open(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != container.ErrDocumentPartMissing {
		t.Errorf("got %v, want ErrDocumentPartMissing", err)
	}
}
