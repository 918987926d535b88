// Package ingest turns uploaded documents into embedded, stored chunks.
package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/chunker"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/config"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/embedding"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/extract"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/keyword"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/models"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/storage"
)

// Pipeline extracts, chunks, embeds, and persists uploaded documents.
// The keyword index is optional; when nil, chunks are only stored for
// semantic retrieval.
type Pipeline struct {
	store     storage.Store
	embedder  embedding.Embedder
	keyword   keyword.Index
	extractor *extract.Extractor
	chunker   *chunker.Chunker
	logger    *zap.Logger
}

// NewPipeline creates an ingestion pipeline with the given dependencies.
func NewPipeline(
	store storage.Store,
	embedder embedding.Embedder,
	kw keyword.Index,
	cfg *config.IngestConfig,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		store:     store,
		embedder:  embedder,
		keyword:   kw,
		extractor: extract.NewExtractor(),
		chunker:   chunker.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
		logger:    logger,
	}
}

// Ingest processes one uploaded file and returns a human-readable summary.
// Extraction failures and unsupported formats abort this file only. A failure
// embedding or storing a single chunk is logged and skipped; the summary
// reports the count of chunks actually saved. Saved chunk indices stay
// contiguous per file.
func (p *Pipeline) Ingest(ctx context.Context, content []byte, filename string) (string, error) {
	text, err := p.extractor.ExtractBytes(content, filename)
	if err != nil {
		return "", fmt.Errorf("processing %q: %w", filename, err)
	}

	chunks := p.chunker.Split(text)
	saved := 0
	for _, chunkText := range chunks {
		vec, err := p.embedder.Embed(ctx, chunkText)
		if err != nil {
			p.logger.Warn("embedding chunk failed, skipping",
				zap.String("filename", filename),
				zap.Error(err),
			)
			continue
		}
		chunk := &models.Chunk{
			ID:         uuid.New().String(),
			Filename:   filename,
			ChunkIndex: saved,
			Text:       chunkText,
			Embedding:  vec,
		}
		if err := p.store.CreateChunk(ctx, chunk); err != nil {
			p.logger.Warn("storing chunk failed, skipping",
				zap.String("filename", filename),
				zap.Int("chunk_index", chunk.ChunkIndex),
				zap.Error(err),
			)
			continue
		}
		if p.keyword != nil {
			if err := p.keyword.Index(ctx, chunk.ID, filename, chunkText); err != nil {
				p.logger.Warn("keyword indexing chunk failed",
					zap.String("filename", filename),
					zap.Error(err),
				)
			}
		}
		saved++
	}

	p.logger.Info("document ingested",
		zap.String("filename", filename),
		zap.Int("chunks_total", len(chunks)),
		zap.Int("chunks_saved", saved),
	)
	return fmt.Sprintf("Document %q saved to database. Total %d chunks.", filename, saved), nil
}
