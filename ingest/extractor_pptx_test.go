package ingest

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
)

func buildPPTX(t *testing.T, slides map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range slides {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

const slideWithShapes = `<?xml version="1.0"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
  <p:cSld><p:spTree>
    <p:sp><p:txBody>
      <a:p><a:r><a:t>Slide title</a:t></a:r></a:p>
      <a:p><a:r><a:t>Bullet </a:t></a:r><a:r><a:t>one</a:t></a:r></a:p>
    </p:txBody></p:sp>
  </p:spTree></p:cSld>
</p:sld>`

const slideWithTable = `<?xml version="1.0"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
  <p:cSld><p:spTree>
    <p:graphicFrame><a:graphic><a:graphicData>
      <a:tbl>
        <a:tr>
          <a:tc><a:txBody><a:p><a:r><a:t>Name</a:t></a:r></a:p></a:txBody></a:tc>
          <a:tc><a:txBody><a:p><a:r><a:t>Value</a:t></a:r></a:p></a:txBody></a:tc>
        </a:tr>
        <a:tr>
          <a:tc><a:txBody><a:p><a:r><a:t>rows</a:t></a:r></a:p></a:txBody></a:tc>
          <a:tc><a:txBody><a:p><a:r><a:t>42</a:t></a:r></a:p></a:txBody></a:tc>
          <a:tc><a:txBody><a:p></a:p></a:txBody></a:tc>
        </a:tr>
      </a:tbl>
    </a:graphicData></a:graphic></p:graphicFrame>
  </p:spTree></p:cSld>
</p:sld>`

func TestPPTXExtractorShapesAndTables(t *testing.T) {
	data := buildPPTX(t, map[string]string{
		"ppt/slides/slide2.xml":  slideWithTable,
		"ppt/slides/slide1.xml":  slideWithShapes,
		"ppt/presentation.xml":   `<p:presentation/>`,
		"ppt/slides/_rels/x.rel": `<rels/>`,
	})

	got, err := (&PPTXExtractor{}).Extract(data)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	// Slides appear in numeric order regardless of archive order.
	want := strings.Join([]string{
		"--- Slide 1 ---",
		"Slide title",
		"Bullet one",
		"--- Slide 2 ---",
		"Name | Value",
		"rows | 42",
	}, "\n")
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestPPTXExtractorEmptyInput(t *testing.T) {
	if _, err := (&PPTXExtractor{}).Extract(nil); err == nil {
		t.Fatal("expected error for empty content")
	}
}

func TestPPTXExtractorNotAZip(t *testing.T) {
	if _, err := (&PPTXExtractor{}).Extract([]byte("plain text, not a deck")); err == nil {
		t.Fatal("expected error for non-zip content")
	}
}

func TestPPTXExtractorNoSlides(t *testing.T) {
	data := buildPPTX(t, map[string]string{"ppt/presentation.xml": `<p:presentation/>`})
	if _, err := (&PPTXExtractor{}).Extract(data); err == nil {
		t.Fatal("expected error for deck with no slides")
	}
}
