package tools

import (
	"context"
	"fmt"

	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/retrieval"
)

// RAGSearchTool searches the stored document corpus by semantic similarity.
type RAGSearchTool struct {
	engine *retrieval.Engine
}

// NewRAGSearchTool wraps a retrieval engine as a tool.
func NewRAGSearchTool(engine *retrieval.Engine) *RAGSearchTool {
	return &RAGSearchTool{engine: engine}
}

func (t *RAGSearchTool) Name() string { return "rag_search" }

func (t *RAGSearchTool) Description() string {
	return "Search documents using RAG for semantically similar content."
}

func (t *RAGSearchTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query to match against stored documents.",
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": "Maximum number of chunks to return.",
			},
		},
		"required": []string{"query"},
	}
}

// Call runs the search and returns formatted results. Failures come back as
// text so the model can recover or fall back to another tool.
func (t *RAGSearchTool) Call(ctx context.Context, args map[string]any) string {
	query := stringArg(args, "query")
	if query == "" {
		return fmt.Sprintf("RAG search error: %v", errMissingQuery)
	}
	results, err := t.engine.Search(ctx, query, intArg(args, "limit"))
	if err != nil {
		return fmt.Sprintf("RAG search error: %v", err)
	}
	return t.engine.FormatResults(results)
}
