// Package websearch provides a Tavily-backed web search client.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/config"
)

// noResultsMessage is returned by FormatResults when the search came back empty.
const noResultsMessage = "No search results found."

// Client calls the Tavily search API.
type Client struct {
	baseURL       string
	apiKey        string
	maxResults    int
	includeAnswer bool
	searchDepth   string
	httpClient    *http.Client
}

type searchRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	MaxResults    int    `json:"max_results"`
	IncludeAnswer bool   `json:"include_answer"`
	SearchDepth   string `json:"search_depth"`
	Topic         string `json:"topic"`
}

// Result is a single web search hit.
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Response is the Tavily search response.
type Response struct {
	Query        string   `json:"query"`
	Answer       string   `json:"answer"`
	Results      []Result `json:"results"`
	ResponseTime float64  `json:"response_time"`
}

// NewClient creates a Tavily client. The API key is read from the environment
// variable named by cfg.APIKeyEnv.
func NewClient(cfg *config.WebSearchConfig) (*Client, error) {
	apiKey := os.Getenv(cfg.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("web search API key not set (env %s)", cfg.APIKeyEnv)
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:        apiKey,
		maxResults:    cfg.MaxResults,
		includeAnswer: cfg.IncludeAnswerOrDefault(),
		searchDepth:   cfg.SearchDepth,
		httpClient:    &http.Client{Timeout: timeout},
	}, nil
}

// Search runs a web search for query.
func (c *Client) Search(ctx context.Context, query string) (*Response, error) {
	body, err := json.Marshal(searchRequest{
		APIKey:        c.apiKey,
		Query:         query,
		MaxResults:    c.maxResults,
		IncludeAnswer: c.includeAnswer,
		SearchDepth:   c.searchDepth,
		Topic:         "general",
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling search API: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var searchResp Response
	if err := json.Unmarshal(data, &searchResp); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}
	return &searchResp, nil
}

// FormatResults renders a search response as text for the model: the query
// line, the synthesized answer when present, then numbered sources with URL,
// a bounded content excerpt, and the relevance score.
func FormatResults(resp *Response) string {
	if resp == nil || len(resp.Results) == 0 {
		return noResultsMessage
	}

	var b strings.Builder
	query := resp.Query
	if query == "" {
		query = "Unknown query"
	}
	fmt.Fprintf(&b, "Web search results for: %s\n\n", query)

	if resp.Answer != "" {
		fmt.Fprintf(&b, "Answer: %s\n\n", resp.Answer)
	}

	b.WriteString("Sources:\n")
	for i, r := range resp.Results {
		title := r.Title
		if title == "" {
			title = "No title"
		}
		url := r.URL
		if url == "" {
			url = "No URL"
		}
		content := r.Content
		if cr := []rune(content); len(cr) > 200 {
			content = string(cr[:200])
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, title)
		fmt.Fprintf(&b, "   URL: %s\n", url)
		fmt.Fprintf(&b, "   Content: %s...\n", content)
		if r.Score > 0 {
			fmt.Fprintf(&b, "   Relevance Score: %.2f\n", r.Score)
		}
		b.WriteString("\n")
	}

	if resp.ResponseTime > 0 {
		fmt.Fprintf(&b, "Search completed in %gs\n", resp.ResponseTime)
	}
	return b.String()
}
