package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/agent"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/config"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/embedding"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/ingest"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/llm"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/models"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/storage"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/tools"
)

// stubModel answers every chat with fixed content, recording the messages.
type stubModel struct {
	content string
	calls   [][]llm.Message
}

func (m *stubModel) Chat(_ context.Context, messages []llm.Message, _ []llm.ToolSpec) (*llm.Message, error) {
	snapshot := make([]llm.Message, len(messages))
	copy(snapshot, messages)
	m.calls = append(m.calls, snapshot)
	return &llm.Message{Role: llm.RoleAssistant, Content: m.content}, nil
}

func newTestServer(t *testing.T, model llm.ChatModel) (*Server, storage.Store) {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "db.sqlite"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	logger := zap.NewNop()

	embedder := embedding.NewMockEmbedder(16)
	pipeline := ingest.NewPipeline(store, embedder, nil, &cfg.Ingest, logger)
	ag := agent.New(model, tools.NewRegistry(), "system", &cfg.Agent, logger)
	return NewServer(ag, pipeline, store, cfg, logger), store
}

func TestHandleChat(t *testing.T) {
	model := &stubModel{content: "hello from the assistant"}
	srv, store := newTestServer(t, model)

	body, _ := json.Marshal(models.ChatRequest{Message: "hi"})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.handleChat(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	var resp models.ChatResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Response != "hello from the assistant" {
		t.Errorf("response = %q", resp.Response)
	}
	if resp.SessionID == "" {
		t.Error("a session id should be generated when absent")
	}

	// Turn must be persisted under the generated session.
	history, err := store.GetHistory(context.Background(), resp.SessionID, 5)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(history) != 1 || history[0].UserMessage != "hi" || history[0].AssistantMessage != resp.Response {
		t.Errorf("turn not persisted: %+v", history)
	}
}

func TestHandleChatSessionContinuity(t *testing.T) {
	model := &stubModel{content: "answer"}
	srv, _ := newTestServer(t, model)

	send := func(message, sessionID string) models.ChatResponse {
		t.Helper()
		body, _ := json.Marshal(models.ChatRequest{Message: message, SessionID: sessionID})
		r := httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewReader(body))
		w := httptest.NewRecorder()
		srv.handleChat(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("status: got %d", w.Code)
		}
		var resp models.ChatResponse
		_ = json.NewDecoder(w.Body).Decode(&resp)
		return resp
	}

	first := send("first question", "")
	send("second question", first.SessionID)

	// The second call must include the first turn as history.
	last := model.calls[len(model.calls)-1]
	var sawHistory bool
	for _, msg := range last {
		if msg.Role == llm.RoleUser && msg.Content == "first question" {
			sawHistory = true
		}
	}
	if !sawHistory {
		t.Errorf("second turn missing prior history: %+v", last)
	}
}

func TestHandleChatValidation(t *testing.T) {
	srv, _ := newTestServer(t, &stubModel{content: "x"})

	body, _ := json.Marshal(models.ChatRequest{Message: ""})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.handleChat(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty message: got %d, want 400", w.Code)
	}

	r = httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader("{not json"))
	w = httptest.NewRecorder()
	srv.handleChat(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad json: got %d, want 400", w.Code)
	}
}

func multipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatal(err)
	}
	_ = mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestHandleUploadDocument(t *testing.T) {
	srv, store := newTestServer(t, &stubModel{content: "x"})

	buf, contentType := multipartUpload(t, "notes.txt", []byte("The quick brown fox jumps over the lazy dog."))
	r := httptest.NewRequest(http.MethodPost, "/api/v1/documents", buf)
	r.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	srv.handleUploadDocument(w, r)

	if w.Code != http.StatusCreated {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	var out map[string]string
	_ = json.NewDecoder(w.Body).Decode(&out)
	if !strings.Contains(out["message"], `Document "notes.txt" saved to database.`) {
		t.Errorf("message = %q", out["message"])
	}
	if n, _ := store.CountChunks(context.Background()); n == 0 {
		t.Error("no chunks stored after upload")
	}
}

func TestHandleUploadDocumentUnsupported(t *testing.T) {
	srv, _ := newTestServer(t, &stubModel{content: "x"})

	buf, contentType := multipartUpload(t, "image.png", []byte{0x89, 0x50})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/documents", buf)
	r.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	srv.handleUploadDocument(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unsupported format: got %d, want 400", w.Code)
	}
}

func TestHandleUploadDocumentMissingFile(t *testing.T) {
	srv, _ := newTestServer(t, &stubModel{content: "x"})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/documents", strings.NewReader("no file"))
	w := httptest.NewRecorder()
	srv.handleUploadDocument(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing file: got %d, want 400", w.Code)
	}
}

func TestHandleSheets(t *testing.T) {
	srv, _ := newTestServer(t, &stubModel{content: "x"})
	router := srv.Router()

	body, _ := json.Marshal(models.SheetEntry{SheetID: "s-1", Title: "Q3", SsID: "ss-9"})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/sheets", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	if w.Code != http.StatusCreated {
		t.Fatalf("store status: got %d, body %s", w.Code, w.Body.String())
	}

	r = httptest.NewRequest(http.MethodGet, "/api/v1/sheets/Q3", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("get status: got %d", w.Code)
	}
	var out map[string]any
	_ = json.NewDecoder(w.Body).Decode(&out)
	if out["sheet_id"] != "s-1" || out["ssId"] != "ss-9" {
		t.Errorf("sheet payload: %+v", out)
	}

	r = httptest.NewRequest(http.MethodGet, "/api/v1/sheets/missing", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, r)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing sheet: got %d, want 404", w.Code)
	}
}

func TestHandleSheetsValidation(t *testing.T) {
	srv, _ := newTestServer(t, &stubModel{content: "x"})
	body, _ := json.Marshal(models.SheetEntry{Title: "no id"})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/sheets", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.handleStoreSheet(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("got %d, want 400", w.Code)
	}
}

func TestHandleStatusAndHealth(t *testing.T) {
	srv, _ := newTestServer(t, &stubModel{content: "x"})

	r := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	w := httptest.NewRecorder()
	srv.handleStatus(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out map[string]any
	_ = json.NewDecoder(w.Body).Decode(&out)
	if _, ok := out["documents"]; !ok {
		t.Error("status missing document count")
	}
	if _, ok := out["config"]; !ok {
		t.Error("status missing config block")
	}

	r = httptest.NewRequest(http.MethodGet, "/health", nil)
	w = httptest.NewRecorder()
	srv.handleHealth(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("health: got %d", w.Code)
	}
}
