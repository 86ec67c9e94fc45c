package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgallion1/docchunk/internal/doctree"
)

// Document statuses.
const (
	StatusProcessing = "processing"
	StatusReady      = "ready"
	StatusFailed     = "failed"
)

// Document is the stored record of an ingested document.
type Document struct {
	ID          string    `json:"doc_id"`
	DocPath     string    `json:"doc_path"`
	Mimetype    string    `json:"mimetype,omitempty"`
	Title       string    `json:"title,omitempty"`
	TotalPages  int       `json:"total_pages"`
	ChunkCount  int       `json:"chunk_count"`
	ContentHash string    `json:"content_hash,omitempty"`
	Status      string    `json:"status"`
	LastError   string    `json:"last_error,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const documentColumns = `doc_id, doc_path, mimetype, title, total_pages, chunk_count, content_hash, status, last_error, updated_at`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertDocument(ctx context.Context, ex execer, doc Document) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(doc_id) DO UPDATE SET
			doc_path = excluded.doc_path,
			mimetype = excluded.mimetype,
			title = excluded.title,
			total_pages = excluded.total_pages,
			chunk_count = excluded.chunk_count,
			content_hash = excluded.content_hash,
			status = excluded.status,
			last_error = excluded.last_error,
			updated_at = excluded.updated_at
	`, doc.ID, doc.DocPath, doc.Mimetype, doc.Title, doc.TotalPages, doc.ChunkCount,
		doc.ContentHash, doc.Status, doc.LastError, time.Now().Unix())
	return err
}

// MarkProcessing records that a document is being ingested. Existing chunks
// are left in place until ReplaceDocument swaps them.
func (s *Store) MarkProcessing(ctx context.Context, docID, docPath, mimetype string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (doc_id, doc_path, mimetype, status, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(doc_id) DO UPDATE SET
			doc_path = excluded.doc_path,
			mimetype = excluded.mimetype,
			status = excluded.status,
			last_error = '',
			updated_at = excluded.updated_at
	`, docID, docPath, mimetype, StatusProcessing, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("mark processing %s: %w", docID, err)
	}
	return nil
}

// MarkFailed records a failed ingestion.
func (s *Store) MarkFailed(ctx context.Context, docID, reason string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET status = ?, last_error = ?, updated_at = ? WHERE doc_id = ?`,
		StatusFailed, reason, time.Now().Unix(), docID)
	if err != nil {
		return fmt.Errorf("mark failed %s: %w", docID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceDocument stores doc and swaps its chunks for the given set in one
// transaction. Chunks are inserted in batches and the stored count is
// verified before commit.
func (s *Store) ReplaceDocument(ctx context.Context, doc Document, chunks []doctree.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer rollback(tx)

	doc.ChunkCount = len(chunks)
	if doc.Status == "" {
		doc.Status = StatusReady
	}
	if err := upsertDocument(ctx, tx, doc); err != nil {
		return fmt.Errorf("upsert document %s: %w", doc.ID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE doc_id = ?`, doc.ID); err != nil {
		return fmt.Errorf("delete chunks %s: %w", doc.ID, err)
	}

	for start := 0; start < len(chunks); start += s.batchSize {
		end := min(start+s.batchSize, len(chunks))
		if err := insertChunks(ctx, tx, doc.ID, chunks[start:end]); err != nil {
			return fmt.Errorf("insert chunks %d-%d: %w", start, end, err)
		}
	}

	var stored int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks WHERE doc_id = ?`, doc.ID).Scan(&stored); err != nil {
		return fmt.Errorf("count chunks: %w", err)
	}
	if stored != len(chunks) {
		return fmt.Errorf("stored %d chunks for %s, expected %d", stored, doc.ID, len(chunks))
	}
	return tx.Commit()
}

func insertChunks(ctx context.Context, tx *sql.Tx, docID string, batch []doctree.Chunk) error {
	if len(batch) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO chunks (doc_id, idx, content, page, status, section_type, section_title, path) VALUES `)
	args := make([]any, 0, len(batch)*8)
	for i, c := range batch {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, 'chunked', ?, ?, ?)")

		var title, path any
		if c.SectionTitle != "" {
			title = c.SectionTitle
		}
		if len(c.Path) > 0 {
			b, err := json.Marshal(c.Path)
			if err != nil {
				return fmt.Errorf("marshal path: %w", err)
			}
			path = string(b)
		}
		args = append(args, docID, c.Index, c.Text, c.Page, string(c.SectionType), title, path)
	}
	_, err := tx.ExecContext(ctx, sb.String(), args...)
	return err
}

// GetDocument returns the document record or ErrNotFound.
func (s *Store) GetDocument(ctx context.Context, docID string) (*Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE doc_id = ?`, docID)
	var (
		doc     Document
		updated int64
	)
	err := row.Scan(&doc.ID, &doc.DocPath, &doc.Mimetype, &doc.Title, &doc.TotalPages, &doc.ChunkCount,
		&doc.ContentHash, &doc.Status, &doc.LastError, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", docID, err)
	}
	doc.UpdatedAt = time.Unix(updated, 0).UTC()
	return &doc, nil
}

// DeleteDocument removes a document and all of its chunks.
func (s *Store) DeleteDocument(ctx context.Context, docID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer rollback(tx)

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE doc_id = ?`, docID); err != nil {
		return fmt.Errorf("delete chunks %s: %w", docID, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE doc_id = ?`, docID)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", docID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}
