// Package extract provides text extraction from uploaded document formats.
package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned when a file's extension has no extractor.
// Callers report it per file; it never aborts ingestion of other files.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Extractor extracts plain text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractBytes extracts text from content based on the filename's extension.
// Supported: .pdf (page-by-page with newline separators), .docx/.doc (paragraph
// text), .xlsx (rows tab-joined), .txt/.md (UTF-8 validated). Any other
// extension returns ErrUnsupportedFormat wrapped with the filename.
func (e *Extractor) ExtractBytes(content []byte, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return extractPDF(content)
	case ".docx", ".doc":
		return extractDOCX(content)
	case ".xlsx":
		return extractExcel(content)
	case ".txt", ".md":
		return extractPlain(content)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}
}
