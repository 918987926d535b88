// Package retrieval ranks stored document chunks against a query by cosine similarity.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/config"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/embedding"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/models"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/storage"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/vector"
	"github.com/MohammadOmerKhan/MyLearningChatbot/pkg/utils"
)

// noResultsMessage is returned by FormatResults for an empty result set.
const noResultsMessage = "No relevant documents found."

// Engine embeds queries and scores them against every stored chunk.
// The scan is linear over the corpus, which is fine at the corpus sizes a
// single-tenant assistant sees; an index structure is deliberately out of scope.
type Engine struct {
	store         storage.Store
	embedder      embedding.Embedder
	defaultLimit  int
	excerptLength int
	logger        *zap.Logger
}

// NewEngine creates a retrieval engine. The embedder must be the same instance
// used at ingestion time so query and chunk vectors are comparable.
func NewEngine(store storage.Store, embedder embedding.Embedder, cfg *config.RetrievalConfig, logger *zap.Logger) *Engine {
	return &Engine{
		store:         store,
		embedder:      embedder,
		defaultLimit:  cfg.DefaultLimit,
		excerptLength: cfg.ExcerptLength,
		logger:        logger,
	}
}

// Search returns up to limit chunks most similar to query, best first.
// A query-embedding failure is logged and surfaced as an empty result set, so
// the reasoning loop never sees a raw fault from retrieval. An empty corpus
// yields an empty slice, not an error. Ties keep storage order (stable sort).
func (e *Engine) Search(ctx context.Context, query string, limit int) ([]models.ScoredChunk, error) {
	if limit <= 0 {
		limit = e.defaultLimit
	}

	queryVec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		e.logger.Error("query embedding failed", zap.Error(err))
		return nil, nil
	}

	chunks, err := e.store.ListChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading chunks: %w", err)
	}

	scored := make([]models.ScoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk.Embedding == nil {
			// Partially-ingested record; skip rather than score garbage.
			continue
		}
		if len(chunk.Embedding) != len(queryVec) {
			e.logger.Warn("chunk embedding dimension mismatch, skipping",
				zap.String("id", chunk.ID),
				zap.Int("chunk_dims", len(chunk.Embedding)),
				zap.Int("query_dims", len(queryVec)),
			)
			continue
		}
		scored = append(scored, models.ScoredChunk{
			Chunk:      chunk,
			Similarity: vector.Cosine(queryVec, chunk.Embedding),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// FormatResults renders scored chunks for the model: 1-based rank, source
// filename, similarity to two decimals, and a bounded excerpt. Empty input
// renders a fixed no-results sentence.
func (e *Engine) FormatResults(results []models.ScoredChunk) string {
	if len(results) == 0 {
		return noResultsMessage
	}
	var b strings.Builder
	b.WriteString("Relevant document information:\n")
	for i, r := range results {
		fmt.Fprintf(&b, "%d. From %s (similarity: %.2f):\n", i+1, r.Chunk.Filename, r.Similarity)
		fmt.Fprintf(&b, "   %s\n\n", utils.Truncate(r.Chunk.Text, e.excerptLength))
	}
	return b.String()
}
