package retrieval

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/config"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/embedding"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/models"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/storage"
)

// brokenEmbedder always fails; used to verify query-embedding failure handling.
type brokenEmbedder struct{}

func (brokenEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("provider down")
}
func (brokenEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("provider down")
}
func (brokenEmbedder) Dimensions() int { return 0 }
func (brokenEmbedder) Close() error    { return nil }

func newTestEngine(t *testing.T, embedder embedding.Embedder) (*Engine, storage.Store) {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	cfg := &config.RetrievalConfig{DefaultLimit: 5, ExcerptLength: 300}
	return NewEngine(store, embedder, cfg, zap.NewNop()), store
}

func addChunk(t *testing.T, store storage.Store, embedder embedding.Embedder, id, filename, text string) {
	t.Helper()
	vec, err := embedder.Embed(context.Background(), text)
	if err != nil {
		t.Fatalf("embed %q: %v", text, err)
	}
	err = store.CreateChunk(context.Background(), &models.Chunk{
		ID: id, Filename: filename, Text: text, Embedding: vec,
	})
	if err != nil {
		t.Fatalf("CreateChunk: %v", err)
	}
}

func TestSearchEmptyCorpus(t *testing.T) {
	engine, _ := newTestEngine(t, embedding.NewMockEmbedder(64))
	results, err := engine.Search(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty results, got %d", len(results))
	}
}

func TestSearchOrderingAndLimit(t *testing.T) {
	embedder := embedding.NewMockEmbedder(128)
	engine, store := newTestEngine(t, embedder)

	addChunk(t, store, embedder, "c1", "report.pdf", "netsol revenue grew 12% in 2023")
	addChunk(t, store, embedder, "c2", "weather.txt", "sunny weather forecast tomorrow clouds")
	addChunk(t, store, embedder, "c3", "report.pdf", "netsol revenue results for 2023 fiscal year")

	results, err := engine.Search(context.Background(), "netsol revenue 2023", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Similarity > results[i-1].Similarity {
			t.Errorf("results not sorted descending at %d", i)
		}
	}
	if results[len(results)-1].Chunk.ID != "c2" {
		t.Errorf("unrelated chunk should rank last, got %s", results[len(results)-1].Chunk.ID)
	}

	limited, _ := engine.Search(context.Background(), "netsol revenue 2023", 2)
	if len(limited) != 2 {
		t.Errorf("limit 2 returned %d", len(limited))
	}
}

func TestSearchSimilarityRange(t *testing.T) {
	embedder := embedding.NewMockEmbedder(64)
	engine, store := newTestEngine(t, embedder)
	addChunk(t, store, embedder, "c1", "a.txt", "alpha beta gamma")
	addChunk(t, store, embedder, "c2", "b.txt", "delta epsilon zeta")

	results, _ := engine.Search(context.Background(), "alpha beta gamma", 5)
	for _, r := range results {
		if r.Similarity < -1.0000001 || r.Similarity > 1.0000001 {
			t.Errorf("similarity %f out of range", r.Similarity)
		}
	}
	// Identical text embeds to an identical vector: similarity 1 within tolerance.
	if results[0].Chunk.ID != "c1" || results[0].Similarity < 0.999999 {
		t.Errorf("identical text should score 1.0, got %f for %s", results[0].Similarity, results[0].Chunk.ID)
	}
}

func TestSearchSkipsChunksWithoutEmbedding(t *testing.T) {
	embedder := embedding.NewMockEmbedder(64)
	engine, store := newTestEngine(t, embedder)
	addChunk(t, store, embedder, "good", "a.txt", "indexed content")
	_ = store.CreateChunk(context.Background(), &models.Chunk{ID: "bad", Filename: "b.txt", Text: "no vector"})

	results, err := engine.Search(context.Background(), "indexed content", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Chunk.ID != "good" {
		t.Errorf("expected only the embedded chunk, got %+v", results)
	}
}

func TestSearchQueryEmbeddingFailure(t *testing.T) {
	engine, _ := newTestEngine(t, brokenEmbedder{})
	results, err := engine.Search(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("embedding failure must not surface an error, got %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty results on embedding failure")
	}
}

func TestEndToEndRanking(t *testing.T) {
	embedder := embedding.NewMockEmbedder(256)
	engine, store := newTestEngine(t, embedder)
	addChunk(t, store, embedder, "c1", "report.pdf", "NetSol revenue grew 12% in 2023.")

	onTopic, err := engine.Search(context.Background(), "What was NetSol's 2023 revenue growth?", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	offTopic, err := engine.Search(context.Background(), "unrelated topic about weather", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(onTopic) != 1 || len(offTopic) != 1 {
		t.Fatal("both queries should return the single stored chunk")
	}
	if onTopic[0].Similarity <= offTopic[0].Similarity {
		t.Errorf("on-topic similarity %f should exceed off-topic %f",
			onTopic[0].Similarity, offTopic[0].Similarity)
	}
}

func TestFormatResults(t *testing.T) {
	engine, _ := newTestEngine(t, embedding.NewMockEmbedder(64))

	if got := engine.FormatResults(nil); got != "No relevant documents found." {
		t.Errorf("empty format = %q", got)
	}

	long := strings.Repeat("x", 400)
	out := engine.FormatResults([]models.ScoredChunk{
		{Chunk: &models.Chunk{Filename: "report.pdf", Text: "NetSol revenue grew."}, Similarity: 0.8712},
		{Chunk: &models.Chunk{Filename: "other.docx", Text: long}, Similarity: 0.25},
	})
	if !strings.Contains(out, "1. From report.pdf (similarity: 0.87):") {
		t.Errorf("missing ranked entry:\n%s", out)
	}
	if !strings.Contains(out, "2. From other.docx (similarity: 0.25):") {
		t.Errorf("missing second entry:\n%s", out)
	}
	if strings.Contains(out, long) {
		t.Error("long excerpt should be truncated")
	}
	if !strings.Contains(out, strings.Repeat("x", 300)+"...") {
		t.Error("excerpt should be cut at 300 characters with ellipsis")
	}
}
