package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// buildDOCX builds a minimal .docx zip with the given paragraphs.
func buildDOCX(t *testing.T, paragraphs []string) []byte {
	t.Helper()
	var body strings.Builder
	body.WriteString(`<?xml version="1.0"?><w:document><w:body>`)
	for _, p := range paragraphs {
		body.WriteString(`<w:p w:rsidR="00000000"><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	body.WriteString(`</w:body></w:document>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte(body.String())); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestExtractBytesUnsupported(t *testing.T) {
	e := NewExtractor()
	_, err := e.ExtractBytes([]byte("data"), "report.xyz")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
	if err == nil || !strings.Contains(err.Error(), "report.xyz") {
		t.Errorf("error should name the file: %v", err)
	}
}

func TestExtractBytesPlain(t *testing.T) {
	e := NewExtractor()
	text, err := e.ExtractBytes([]byte("hello world"), "notes.txt")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if text != "hello world" {
		t.Errorf("got %q", text)
	}
}

func TestExtractBytesDOCX(t *testing.T) {
	e := NewExtractor()
	content := buildDOCX(t, []string{"First paragraph.", "Second paragraph."})
	text, err := e.ExtractBytes(content, "report.docx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	want := "First paragraph.\nSecond paragraph."
	if text != want {
		t.Errorf("got %q, want %q", text, want)
	}
}

func TestExtractBytesDOCXNotZip(t *testing.T) {
	e := NewExtractor()
	if _, err := e.ExtractBytes([]byte("not a zip"), "broken.docx"); err == nil {
		t.Error("expected error for corrupt docx")
	}
}

func TestExtractBytesPDFCorrupt(t *testing.T) {
	e := NewExtractor()
	if _, err := e.ExtractBytes([]byte("not a pdf"), "broken.pdf"); err == nil {
		t.Error("expected error for corrupt pdf")
	}
}

func TestExtractBytesExcel(t *testing.T) {
	f := excelize.NewFile()
	if err := f.SetCellValue("Sheet1", "A1", "revenue"); err != nil {
		t.Fatalf("set cell: %v", err)
	}
	if err := f.SetCellValue("Sheet1", "B1", "12%"); err != nil {
		t.Fatalf("set cell: %v", err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write xlsx: %v", err)
	}

	e := NewExtractor()
	text, err := e.ExtractBytes(buf.Bytes(), "figures.xlsx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if !strings.Contains(text, "revenue") || !strings.Contains(text, "12%") {
		t.Errorf("excel text missing cells: %q", text)
	}
}
