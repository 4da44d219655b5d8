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

	"github.com/intelliquery/intelliquery/internal/models"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
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
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		dimensions INTEGER NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS session_chunks (
		session_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		content TEXT NOT NULL,
		document_name TEXT NOT NULL,
		clause_number TEXT NOT NULL,
		embedding BLOB NOT NULL,
		PRIMARY KEY (session_id, position),
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_session_chunks_session ON session_chunks(session_id);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveSession replaces stored state for sessionID in one transaction.
func (s *SQLiteStore) SaveSession(ctx context.Context, sessionID string, chunks []models.DocumentChunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d vs %d", len(chunks), len(vectors))
	}
	if len(vectors) == 0 {
		return fmt.Errorf("cannot save empty session")
	}
	dim := len(vectors[0])

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM session_chunks WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (id, dimensions, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET dimensions = excluded.dimensions, updated_at = excluded.updated_at`,
		sessionID, dim, time.Now(),
	); err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO session_chunks (session_id, position, content, document_name, clause_number, embedding)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, ch := range chunks {
		if len(vectors[i]) != dim {
			return fmt.Errorf("vector dimension mismatch at %d: got %d, expected %d", i, len(vectors[i]), dim)
		}
		if _, err := stmt.ExecContext(ctx, sessionID, i, ch.Content, ch.DocumentName, ch.ClauseNumber, float32SliceToBytes(vectors[i])); err != nil {
			return fmt.Errorf("insert chunk %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// LoadSession returns stored chunks and vectors for sessionID in position order.
func (s *SQLiteStore) LoadSession(ctx context.Context, sessionID string) ([]models.DocumentChunk, [][]float32, error) {
	var dim int
	err := s.db.QueryRowContext(ctx, `SELECT dimensions FROM sessions WHERE id = ?`, sessionID).Scan(&dim)
	if err == sql.ErrNoRows {
		return nil, nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("query session: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT content, document_name, clause_number, embedding
		 FROM session_chunks WHERE session_id = ? ORDER BY position`, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []models.DocumentChunk
	var vectors [][]float32
	for rows.Next() {
		var ch models.DocumentChunk
		var blob []byte
		if err := rows.Scan(&ch.Content, &ch.DocumentName, &ch.ClauseNumber, &blob); err != nil {
			return nil, nil, fmt.Errorf("scan chunk: %w", err)
		}
		vec := bytesToFloat32Slice(blob)
		if len(vec) != dim {
			return nil, nil, fmt.Errorf("stored vector dimension mismatch: got %d, expected %d", len(vec), dim)
		}
		chunks = append(chunks, ch)
		vectors = append(vectors, vec)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return chunks, vectors, nil
}

// DeleteSession removes all stored state for sessionID.
func (s *SQLiteStore) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_chunks WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Vectors are stored as little-endian float32 blobs.

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}
