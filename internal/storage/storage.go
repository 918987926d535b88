// Package storage defines persistence for document chunks, chat history, and sheet metadata.
package storage

import (
	"context"

	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/models"
)

// Store defines the persistence operations used by the chatbot. Chunk records
// are append-only: ingestion inserts them and retrieval reads a full snapshot.
type Store interface {
	// Chunk operations
	CreateChunk(ctx context.Context, chunk *models.Chunk) error
	ListChunks(ctx context.Context) ([]*models.Chunk, error)
	CountChunks(ctx context.Context) (int64, error)
	CountDocuments(ctx context.Context) (int64, error)

	// Chat history: one row per completed turn, read back chronologically.
	AppendTurn(ctx context.Context, sessionID string, turn models.ConversationTurn) error
	GetHistory(ctx context.Context, sessionID string, limit int) ([]models.ConversationTurn, error)

	// Sheet metadata registry
	StoreSheet(ctx context.Context, entry *models.SheetEntry) error
	GetSheetByTitle(ctx context.Context, title string) (*models.SheetEntry, error)

	Close() error
}
