package tools

import (
	"context"
	"fmt"

	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/websearch"
)

// WebSearchTool searches the web for real-time information.
type WebSearchTool struct {
	client *websearch.Client
}

// NewWebSearchTool wraps a web search client as a tool.
func NewWebSearchTool(client *websearch.Client) *WebSearchTool {
	return &WebSearchTool{client: client}
}

func (t *WebSearchTool) Name() string { return "web_search" }

func (t *WebSearchTool) Description() string {
	return "Search the web for real-time information."
}

func (t *WebSearchTool) Parameters() map[string]any {
	return queryParameters("The web search query.")
}

func (t *WebSearchTool) Call(ctx context.Context, args map[string]any) string {
	query := stringArg(args, "query")
	if query == "" {
		return fmt.Sprintf("Web search error: %v", errMissingQuery)
	}
	resp, err := t.client.Search(ctx, query)
	if err != nil {
		return fmt.Sprintf("Web search error: %v", err)
	}
	return websearch.FormatResults(resp)
}
