package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/extract"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/models"
)

// maxUploadBytes bounds document uploads.
const maxUploadBytes = 64 << 20

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	s.logger.Debug("chat request", zap.String("session_id", sessionID))

	history, err := s.store.GetHistory(r.Context(), sessionID, s.config.Agent.HistoryLimit)
	if err != nil {
		// A history read failure degrades to a fresh conversation.
		s.logger.Warn("loading chat history failed", zap.String("session_id", sessionID), zap.Error(err))
		history = nil
	}

	answer := s.agent.Run(r.Context(), req.Message, history)

	turn := models.ConversationTurn{UserMessage: req.Message, AssistantMessage: answer}
	if err := s.store.AppendTurn(r.Context(), sessionID, turn); err != nil {
		s.logger.Warn("saving chat turn failed", zap.String("session_id", sessionID), zap.Error(err))
	}

	s.respondJSON(w, http.StatusOK, models.ChatResponse{Response: answer, SessionID: sessionID})
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "reading upload failed")
		return
	}

	s.logger.Debug("document upload", zap.String("filename", header.Filename), zap.Int("bytes", len(content)))
	summary, err := s.pipeline.Ingest(r.Context(), content, header.Filename)
	if err != nil {
		s.logger.Error("ingestion failed", zap.String("filename", header.Filename), zap.Error(err))
		status := http.StatusInternalServerError
		if errors.Is(err, extract.ErrUnsupportedFormat) {
			status = http.StatusBadRequest
		}
		s.respondError(w, status, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"message": summary})
}

func (s *Server) handleStoreSheet(w http.ResponseWriter, r *http.Request) {
	var entry models.SheetEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if entry.SheetID == "" || entry.Title == "" {
		s.respondError(w, http.StatusBadRequest, "sheet_id and title are required")
		return
	}
	if err := s.store.StoreSheet(r.Context(), &entry); err != nil {
		s.logger.Error("storing sheet failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]any{
		"success":  true,
		"sheet_id": entry.SheetID,
		"title":    entry.Title,
		"ssId":     entry.SsID,
	})
}

func (s *Server) handleGetSheet(w http.ResponseWriter, r *http.Request) {
	title := chi.URLParam(r, "title")
	entry, err := s.store.GetSheetByTitle(r.Context(), title)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "sheet not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"sheet_id": entry.SheetID,
		"title":    entry.Title,
		"ssId":     entry.SsID,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docCount, err := s.store.CountDocuments(ctx)
	if err != nil {
		s.logger.Error("status: count documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	chunkCount, err := s.store.CountChunks(ctx)
	if err != nil {
		s.logger.Error("status: count chunks failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"documents": docCount,
		"chunks":    chunkCount,
		"config": map[string]any{
			"embedding_model":      s.config.Embedding.Model,
			"embedding_dimensions": s.config.Embedding.Dimensions,
			"chunk_size":           s.config.Ingest.ChunkSize,
			"chunk_overlap":        s.config.Ingest.ChunkOverlap,
			"llm_model":            s.config.LLM.Model,
			"database_path":        s.config.Storage.DatabasePath,
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
