// Package embedding provides text embedding via an OpenAI-compatible API or local ONNX.
package embedding

import (
	"context"
	"fmt"

	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/config"
)

// Embedder produces vector embeddings for text. One embedder instance is
// constructed at startup and shared by ingestion and retrieval so that stored
// and query vectors always come from the same provider.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// New constructs the embedder selected by cfg.Provider.
func New(cfg *config.EmbeddingConfig) (Embedder, error) {
	switch cfg.Provider {
	case "openai":
		e, err := NewOpenAIEmbedder(cfg)
		if err != nil {
			return nil, err
		}
		return e, nil
	case "onnx":
		e, err := NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens, cfg.CacheSize)
		if err != nil {
			return nil, err
		}
		return e, nil
	case "mock":
		return NewMockEmbedder(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", cfg.Provider)
	}
}
