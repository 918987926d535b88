// Package models defines core data structures for document chunks, chat turns, and tool calls.
package models

import "time"

// Chunk is a contiguous span of source-document text with its embedding.
// Chunks are created once by the ingestion pipeline and never mutated.
type Chunk struct {
	ID         string    `json:"id" db:"id"`
	Filename   string    `json:"filename" db:"filename"`
	ChunkIndex int       `json:"chunk_index" db:"chunk_index"`
	Text       string    `json:"text" db:"text"`
	Embedding  []float32 `json:"-" db:"-"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// ScoredChunk pairs a chunk with its cosine similarity against one query.
// It exists only for the duration of a single retrieval call.
type ScoredChunk struct {
	Chunk      *Chunk
	Similarity float64
}
