// Package keyword provides Bleve-backed keyword search over ingested chunks.
package keyword

import "context"

// Result is a single keyword search hit.
type Result struct {
	ID       string
	Filename string
	Text     string
	Score    float64
}

// Index defines keyword indexing and search over chunk text.
type Index interface {
	Index(ctx context.Context, id, filename, text string) error
	Search(ctx context.Context, query string, limit int) ([]*Result, error)
	Close() error
}
