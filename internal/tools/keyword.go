package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/keyword"
	"github.com/MohammadOmerKhan/MyLearningChatbot/pkg/utils"
)

// KeywordSearchTool searches stored documents by exact terms. It complements
// semantic search for names, codes, and phrases embeddings blur together.
type KeywordSearchTool struct {
	index         keyword.Index
	limit         int
	excerptLength int
}

// NewKeywordSearchTool wraps a keyword index as a tool.
func NewKeywordSearchTool(index keyword.Index, limit, excerptLength int) *KeywordSearchTool {
	if limit <= 0 {
		limit = 5
	}
	if excerptLength <= 0 {
		excerptLength = 300
	}
	return &KeywordSearchTool{index: index, limit: limit, excerptLength: excerptLength}
}

func (t *KeywordSearchTool) Name() string { return "keyword_search" }

func (t *KeywordSearchTool) Description() string {
	return "Search documents for exact keywords or phrases, such as names, identifiers, or codes."
}

func (t *KeywordSearchTool) Parameters() map[string]any {
	return queryParameters("Keywords to look up in stored documents.")
}

func (t *KeywordSearchTool) Call(ctx context.Context, args map[string]any) string {
	query := stringArg(args, "query")
	if query == "" {
		return fmt.Sprintf("Keyword search error: %v", errMissingQuery)
	}
	results, err := t.index.Search(ctx, query, t.limit)
	if err != nil {
		return fmt.Sprintf("Keyword search error: %v", err)
	}
	if len(results) == 0 {
		return "No relevant documents found."
	}

	var b strings.Builder
	b.WriteString("Keyword matches:\n")
	for i, r := range results {
		fmt.Fprintf(&b, "%d. From %s (score: %.2f):\n", i+1, r.Filename, r.Score)
		fmt.Fprintf(&b, "   %s\n\n", utils.Truncate(r.Text, t.excerptLength))
	}
	return b.String()
}
