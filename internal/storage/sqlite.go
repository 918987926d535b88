// Package storage provides the SQLite implementation of the Store interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/models"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS document_chunks (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		text TEXT NOT NULL,
		embedding BLOB,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_filename ON document_chunks(filename, chunk_index);

	CREATE TABLE IF NOT EXISTS chat_messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		user_message TEXT NOT NULL,
		ai_response TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_chat_session ON chat_messages(session_id, id);

	CREATE TABLE IF NOT EXISTS sheets_data (
		sheet_id TEXT NOT NULL,
		title TEXT NOT NULL,
		ss_id TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_sheets_title ON sheets_data(title);
	`
	_, err := db.Exec(schema)
	return err
}

// encodeEmbedding packs a float32 vector into little-endian bytes.
func encodeEmbedding(vec []float32) []byte {
	if vec == nil {
		return nil
	}
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeEmbedding unpacks little-endian bytes into a float32 vector.
// Returns nil for empty or truncated blobs.
func decodeEmbedding(buf []byte) []float32 {
	if len(buf) == 0 || len(buf)%4 != 0 {
		return nil
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}

// CreateChunk inserts a chunk record.
func (s *SQLiteStore) CreateChunk(ctx context.Context, chunk *models.Chunk) error {
	if chunk.CreatedAt.IsZero() {
		chunk.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO document_chunks (id, filename, chunk_index, text, embedding, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		chunk.ID, chunk.Filename, chunk.ChunkIndex, chunk.Text,
		encodeEmbedding(chunk.Embedding), chunk.CreatedAt,
	)
	return err
}

// ListChunks returns all chunk records in insertion order.
func (s *SQLiteStore) ListChunks(ctx context.Context) ([]*models.Chunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, filename, chunk_index, text, embedding, created_at
		 FROM document_chunks ORDER BY rowid`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []*models.Chunk
	for rows.Next() {
		var chunk models.Chunk
		var blob []byte
		if err := rows.Scan(&chunk.ID, &chunk.Filename, &chunk.ChunkIndex, &chunk.Text, &blob, &chunk.CreatedAt); err != nil {
			return nil, err
		}
		chunk.Embedding = decodeEmbedding(blob)
		chunks = append(chunks, &chunk)
	}
	return chunks, rows.Err()
}

// CountChunks returns the total number of chunk records.
func (s *SQLiteStore) CountChunks(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM document_chunks`).Scan(&count)
	return count, err
}

// CountDocuments returns the number of distinct source filenames.
func (s *SQLiteStore) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT filename) FROM document_chunks`).Scan(&count)
	return count, err
}

// AppendTurn stores one completed user/assistant exchange for a session.
func (s *SQLiteStore) AppendTurn(ctx context.Context, sessionID string, turn models.ConversationTurn) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (session_id, user_message, ai_response, created_at)
		 VALUES (?, ?, ?, ?)`,
		sessionID, turn.UserMessage, turn.AssistantMessage, time.Now(),
	)
	return err
}

// GetHistory returns up to limit most recent turns for a session, oldest first.
func (s *SQLiteStore) GetHistory(ctx context.Context, sessionID string, limit int) ([]models.ConversationTurn, error) {
	if limit <= 0 {
		limit = 5
	}
	// Take the newest rows, then reverse so the caller sees chronological order.
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_message, ai_response FROM chat_messages
		 WHERE session_id = ? ORDER BY id DESC LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []models.ConversationTurn
	for rows.Next() {
		var turn models.ConversationTurn
		if err := rows.Scan(&turn.UserMessage, &turn.AssistantMessage); err != nil {
			return nil, err
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// StoreSheet inserts a sheet metadata entry.
func (s *SQLiteStore) StoreSheet(ctx context.Context, entry *models.SheetEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sheets_data (sheet_id, title, ss_id, created_at) VALUES (?, ?, ?, ?)`,
		entry.SheetID, entry.Title, entry.SsID, time.Now(),
	)
	return err
}

// GetSheetByTitle returns the most recently stored sheet entry with the given title.
func (s *SQLiteStore) GetSheetByTitle(ctx context.Context, title string) (*models.SheetEntry, error) {
	var entry models.SheetEntry
	err := s.db.QueryRowContext(ctx,
		`SELECT sheet_id, title, ss_id FROM sheets_data WHERE title = ? ORDER BY rowid DESC LIMIT 1`,
		title,
	).Scan(&entry.SheetID, &entry.Title, &entry.SsID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sheet not found: %s", title)
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
