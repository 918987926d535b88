package tools

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/config"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/embedding"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/keyword"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/models"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/retrieval"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/storage"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/websearch"
)

func newRAGTool(t *testing.T) (*RAGSearchTool, storage.Store, embedding.Embedder) {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	embedder := embedding.NewMockEmbedder(64)
	engine := retrieval.NewEngine(store, embedder, &config.RetrievalConfig{DefaultLimit: 5, ExcerptLength: 300}, zap.NewNop())
	return NewRAGSearchTool(engine), store, embedder
}

func TestRegistry(t *testing.T) {
	tool, _, _ := newRAGTool(t)
	reg := NewRegistry(tool)

	if _, ok := reg.Get("rag_search"); !ok {
		t.Error("registered tool not found")
	}
	if _, ok := reg.Get("missing"); ok {
		t.Error("unknown tool should not be found")
	}

	specs := reg.Specs()
	if len(specs) != 1 || specs[0].Name != "rag_search" {
		t.Errorf("unexpected specs %+v", specs)
	}
	if specs[0].Description == "" || specs[0].Parameters == nil {
		t.Error("spec missing description or parameters")
	}
}

func TestRAGSearchTool(t *testing.T) {
	tool, store, embedder := newRAGTool(t)

	vec, _ := embedder.Embed(context.Background(), "netsol revenue grew in 2023")
	err := store.CreateChunk(context.Background(), &models.Chunk{
		ID: "c1", Filename: "report.pdf", Text: "netsol revenue grew in 2023", Embedding: vec,
	})
	if err != nil {
		t.Fatalf("CreateChunk: %v", err)
	}

	out := tool.Call(context.Background(), map[string]any{"query": "netsol revenue"})
	if !strings.Contains(out, "Relevant document information:") || !strings.Contains(out, "report.pdf") {
		t.Errorf("unexpected output:\n%s", out)
	}

	if out := tool.Call(context.Background(), map[string]any{}); !strings.HasPrefix(out, "RAG search error:") {
		t.Errorf("missing query should yield an error string, got %q", out)
	}

	// Empty corpus path: a query for which nothing is stored still formats.
	empty, _, _ := newRAGTool(t)
	if out := empty.Call(context.Background(), map[string]any{"query": "anything"}); out != "No relevant documents found." {
		t.Errorf("empty corpus = %q", out)
	}
}

func TestRAGSearchToolLimitArg(t *testing.T) {
	tool, store, embedder := newRAGTool(t)
	for i, text := range []string{"alpha topic one", "alpha topic two", "alpha topic three"} {
		vec, _ := embedder.Embed(context.Background(), text)
		_ = store.CreateChunk(context.Background(), &models.Chunk{
			ID: string(rune('a' + i)), Filename: "doc.txt", Text: text, Embedding: vec,
		})
	}

	// JSON numbers arrive as float64.
	out := tool.Call(context.Background(), map[string]any{"query": "alpha topic", "limit": float64(1)})
	if strings.Count(out, "From doc.txt") != 1 {
		t.Errorf("limit 1 not honored:\n%s", out)
	}
}

func TestWebSearchTool(t *testing.T) {
	t.Setenv("TEST_TAVILY_KEY", "tvly-test")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(websearch.Response{
			Query:   "go release",
			Results: []websearch.Result{{Title: "Go Blog", URL: "https://go.dev/blog", Content: "release notes", Score: 0.9}},
		})
	}))
	defer srv.Close()

	client, err := websearch.NewClient(&config.WebSearchConfig{
		BaseURL: srv.URL, APIKeyEnv: "TEST_TAVILY_KEY", MaxResults: 5, SearchDepth: "basic", TimeoutSeconds: 5,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	tool := NewWebSearchTool(client)

	out := tool.Call(context.Background(), map[string]any{"query": "go release"})
	if !strings.Contains(out, "Web search results for: go release") || !strings.Contains(out, "Go Blog") {
		t.Errorf("unexpected output:\n%s", out)
	}

	if out := tool.Call(context.Background(), map[string]any{}); !strings.HasPrefix(out, "Web search error:") {
		t.Errorf("missing query should yield an error string, got %q", out)
	}

	srv.Close()
	if out := tool.Call(context.Background(), map[string]any{"query": "go release"}); !strings.HasPrefix(out, "Web search error:") {
		t.Errorf("backend failure should yield an error string, got %q", out)
	}
}

// fakeIndex is an in-memory keyword.Index for tool tests.
type fakeIndex struct {
	results []*keyword.Result
	err     error
}

func (f *fakeIndex) Index(context.Context, string, string, string) error { return nil }
func (f *fakeIndex) Search(_ context.Context, _ string, limit int) ([]*keyword.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) > limit {
		return f.results[:limit], nil
	}
	return f.results, nil
}
func (f *fakeIndex) Close() error { return nil }

func TestKeywordSearchTool(t *testing.T) {
	idx := &fakeIndex{results: []*keyword.Result{
		{ID: "c1", Filename: "report.pdf", Text: "NetSol Technologies earnings", Score: 1.8},
	}}
	tool := NewKeywordSearchTool(idx, 5, 300)

	out := tool.Call(context.Background(), map[string]any{"query": "NetSol"})
	if !strings.Contains(out, "Keyword matches:") || !strings.Contains(out, "report.pdf") {
		t.Errorf("unexpected output:\n%s", out)
	}

	idx.results = nil
	if out := tool.Call(context.Background(), map[string]any{"query": "NetSol"}); out != "No relevant documents found." {
		t.Errorf("no matches = %q", out)
	}

	idx.err = errors.New("index closed")
	if out := tool.Call(context.Background(), map[string]any{"query": "NetSol"}); !strings.HasPrefix(out, "Keyword search error:") {
		t.Errorf("index failure should yield an error string, got %q", out)
	}

	if out := tool.Call(context.Background(), map[string]any{}); !strings.HasPrefix(out, "Keyword search error:") {
		t.Errorf("missing query should yield an error string, got %q", out)
	}
}
